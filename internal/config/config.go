// Package config holds tamper's constants and the tamper.yaml layer.
package config

import (
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level tamper.yaml configuration.
type Config struct {
	// BuildTag is the tag stub files are compiled under. Generated files
	// carry the negated tag. Defaults to "tamperstub".
	BuildTag string `yaml:"build_tag,omitempty"`

	// Suffix replaces ".go" (and a trailing "_stub") of a stub file name to
	// form the generated file name. Defaults to "_tamper.go".
	Suffix string `yaml:"suffix,omitempty"`

	// OnError is "isolate" (skip failing proxies, keep the rest) or
	// "abort" (stop at the first failing proxy). Defaults to "isolate".
	OnError string `yaml:"on_error,omitempty"`

	// Proxies lists the package patterns scanned for stub files.
	Proxies []ProxySet `yaml:"proxies,omitempty"`

	// Expose lists target packages that get a generated exposure table.
	Expose []ExposeSpec `yaml:"expose,omitempty"`

	// References are extra package patterns loaded with the proxies so
	// their types resolve even when no stub file imports them directly.
	References []string `yaml:"references,omitempty"`

	// Dir is the directory the config was loaded from. Relative patterns
	// are resolved against it.
	Dir string `yaml:"-"`
}

// ProxySet is one package pattern holding stub files.
type ProxySet struct {
	// Pkg is a go/packages pattern (e.g. "./tampers", "./...").
	Pkg string `yaml:"pkg"`
}

// ExposeSpec selects target types whose hidden members are published
// through the runtime exposure table.
type ExposeSpec struct {
	// Pkg is the target package pattern (e.g. "./game/dummies").
	Pkg string `yaml:"pkg"`

	// Types are the type names to expose.
	Types []string `yaml:"types"`
}

// Default returns the configuration used when no tamper.yaml exists: every
// package below dir is scanned for stubs.
func Default(dir string) *Config {
	cfg := &Config{Proxies: []ProxySet{{Pkg: DefaultPattern}}, Dir: dir}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a tamper.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses tamper.yaml content from bytes.
// The path argument is used for error messages and to set Dir.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	cfg.Dir = filepath.Dir(path)
	return &cfg, nil
}

// FindConfig searches for tamper.yaml starting from dir and walking up to
// parent directories. It returns "" and a nil error when there is none.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range []string{ConfigFileName, AltConfigFileName} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// validate checks the configuration for semantic errors.
func (c *Config) validate(path string) error {
	if len(c.Proxies) == 0 && len(c.Expose) == 0 {
		return fmt.Errorf("%s: no proxies or expose entries defined", path)
	}

	switch c.OnError {
	case "", "isolate", "abort":
	default:
		return fmt.Errorf("%s: on_error: %q is not isolate or abort", path, c.OnError)
	}

	if c.BuildTag != "" && !token.IsIdentifier(c.BuildTag) {
		return fmt.Errorf("%s: build_tag: %q is not a valid build tag", path, c.BuildTag)
	}

	if c.Suffix != "" {
		if !strings.HasSuffix(c.Suffix, ".go") || strings.HasSuffix(c.Suffix, "_test.go") {
			return fmt.Errorf("%s: suffix: %q must end in .go and not _test.go", path, c.Suffix)
		}
		if strings.ContainsRune(c.Suffix, filepath.Separator) {
			return fmt.Errorf("%s: suffix: %q must not contain a path separator", path, c.Suffix)
		}
	}

	for i, p := range c.Proxies {
		if p.Pkg == "" {
			return fmt.Errorf("%s: proxies[%d]: pkg is required", path, i)
		}
	}

	seenTypes := make(map[string]int) // pkg.Type → expose index
	for i, e := range c.Expose {
		if e.Pkg == "" {
			return fmt.Errorf("%s: expose[%d]: pkg is required", path, i)
		}
		if len(e.Types) == 0 {
			return fmt.Errorf("%s: expose[%d] (%s): types is required", path, i, e.Pkg)
		}
		for j, t := range e.Types {
			if !token.IsIdentifier(t) {
				return fmt.Errorf("%s: expose[%d].types[%d] (%s): %q is not a type name", path, i, j, e.Pkg, t)
			}
			key := e.Pkg + "." + t
			if prev, ok := seenTypes[key]; ok {
				return fmt.Errorf("%s: expose[%d].types[%d]: %s already listed in expose[%d]", path, i, j, key, prev)
			}
			seenTypes[key] = i
		}
	}

	for i, r := range c.References {
		if r == "" {
			return fmt.Errorf("%s: references[%d]: empty pattern", path, i)
		}
	}

	return nil
}

// setDefaults fills in default values for omitted fields.
func (c *Config) setDefaults() {
	if c.BuildTag == "" {
		c.BuildTag = DefaultBuildTag
	}
	if c.Suffix == "" {
		c.Suffix = DefaultSuffix
	}
	if c.OnError == "" {
		c.OnError = DefaultOnError
	}
}

// ProxyPatterns returns the stub package patterns followed by the
// reference patterns, without duplicates.
func (c *Config) ProxyPatterns() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range c.Proxies {
		add(p.Pkg)
	}
	for _, r := range c.References {
		add(r)
	}
	return out
}

// GeneratedName returns the generated file name for a stub file name:
// "scene_stub.go" and "scene.go" both become "scene" + Suffix.
func (c *Config) GeneratedName(stubFile string) string {
	base := strings.TrimSuffix(filepath.Base(stubFile), ".go")
	base = strings.TrimSuffix(base, strings.TrimSuffix(StubFileSuffix, ".go"))
	return filepath.Join(filepath.Dir(stubFile), base+c.Suffix)
}

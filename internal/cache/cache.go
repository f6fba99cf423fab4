// Package cache remembers what every generated file was produced from, so
// unchanged stub files are not bound and rendered again.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/funvibe/tamper/internal/config"
)

// Cache manages fingerprints in .tamper/cache/. An entry is keyed by the
// generated file's path and holds the fingerprint of its inputs.
type Cache struct {
	// projectDir is the root directory containing tamper.yaml.
	projectDir string
}

// New creates a cache scoped to the given project directory.
func New(projectDir string) *Cache {
	return &Cache{projectDir: projectDir}
}

// Dir returns the path to the cache directory.
func (c *Cache) Dir() string {
	return filepath.Join(c.projectDir, filepath.FromSlash(config.CacheDir))
}

func (c *Cache) entry(output string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(output)))
	return filepath.Join(c.Dir(), hex.EncodeToString(sum[:])[:16])
}

// Fresh reports whether output exists and was last generated from inputs
// with the given fingerprint.
func (c *Cache) Fresh(output, key string) bool {
	if key == "" {
		return false
	}
	if info, err := os.Stat(output); err != nil || info.IsDir() {
		return false
	}
	data, err := os.ReadFile(c.entry(output))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == key
}

// Store records key as the fingerprint of output.
func (c *Cache) Store(output, key string) error {
	if err := os.MkdirAll(c.Dir(), 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	if err := os.WriteFile(c.entry(output), []byte(key+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Forget drops the entry of output.
func (c *Cache) Forget(output string) error {
	if err := os.Remove(c.entry(output)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cache entry: %w", err)
	}
	return nil
}

// Clean removes all entries.
func (c *Cache) Clean() error {
	return os.RemoveAll(c.Dir())
}

// Fingerprint hashes settings and the contents of files. File order does
// not matter; the generator version is always included so entries written
// by an older generator never match.
func Fingerprint(settings []byte, files ...string) (string, error) {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	h := sha256.New()
	h.Write([]byte(config.GeneratorVersion))
	h.Write([]byte("\x00"))
	h.Write(settings)
	prev := ""
	for _, f := range sorted {
		if f == prev {
			continue
		}
		prev = f
		data, err := os.ReadFile(f)
		if err != nil {
			return "", fmt.Errorf("fingerprinting %s: %w", f, err)
		}
		h.Write([]byte("\x00"))
		h.Write([]byte(filepath.Base(f)))
		h.Write([]byte("\x00"))
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil))[:16], nil
}

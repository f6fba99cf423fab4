// Package inspect loads Go packages and turns stub declarations and target
// types into the model of package bind.
package inspect

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/tools/go/packages"

	"github.com/funvibe/tamper/internal/config"
)

// loadMode is what every load needs: syntax for directives, types for
// member lookup, deps for targets in other packages.
const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedSyntax |
	packages.NeedImports |
	packages.NeedDeps

// Inspector loads Go packages and keeps every loaded package, including
// dependencies, indexed by import path.
type Inspector struct {
	// dir is the directory patterns are resolved in.
	dir string

	// tag is the stub build tag; it is always set while loading so stub
	// files are visible and generated files are not.
	tag string

	log logrus.FieldLogger

	// loaded indexes every package seen by Load.
	loaded map[string]*packages.Package
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithBuildTag overrides the stub build tag.
func WithBuildTag(tag string) Option {
	return func(ins *Inspector) { ins.tag = tag }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(ins *Inspector) { ins.log = l }
}

// NewInspector creates an Inspector resolving patterns in dir.
func NewInspector(dir string, opts ...Option) *Inspector {
	ins := &Inspector{
		dir:    dir,
		tag:    config.DefaultBuildTag,
		loaded: make(map[string]*packages.Package),
	}
	for _, o := range opts {
		o(ins)
	}
	if ins.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		ins.log = l
	}
	return ins
}

// BuildTag returns the stub build tag.
func (ins *Inspector) BuildTag() string { return ins.tag }

// Load loads the packages matching patterns and returns the root packages.
// Package errors are collected into one error.
func (ins *Inspector) Load(ctx context.Context, patterns ...string) ([]*packages.Package, error) {
	return ins.load(ctx, nil, patterns...)
}

func (ins *Inspector) load(ctx context.Context, overlay map[string][]byte, patterns ...string) ([]*packages.Package, error) {
	cfg := &packages.Config{
		Context:    ctx,
		Mode:       loadMode,
		Dir:        ins.dir,
		Env:        os.Environ(),
		BuildFlags: []string{"-tags=" + ins.tag},
		Overlay:    overlay,
	}

	ins.log.WithField("patterns", patterns).Debug("loading packages")
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}

	var errs []string
	packages.Visit(pkgs, nil, func(pkg *packages.Package) {
		ins.loaded[pkg.PkgPath] = pkg
	})
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, e.Error())
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors:\n  %s", strings.Join(errs, "\n  "))
	}
	return pkgs, nil
}

// Package returns a loaded package by import path.
func (ins *Inspector) Package(path string) (*packages.Package, bool) {
	pkg, ok := ins.loaded[path]
	return pkg, ok
}

// Reflector returns a bind.Reflector over everything loaded so far.
func (ins *Inspector) Reflector() *Reflector {
	return &Reflector{ins: ins}
}

package pipeline

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/tools/go/packages"

	"github.com/funvibe/tamper/internal/bind"
	"github.com/funvibe/tamper/internal/cache"
	"github.com/funvibe/tamper/internal/config"
	"github.com/funvibe/tamper/internal/gen"
	"github.com/funvibe/tamper/internal/inspect"
)

// Unit is one stub file with the proxies declared in it. It produces one
// generated file.
type Unit struct {
	StubFile string
	Output   string
	PkgName  string
	PkgPath  string
	Proxies  []*bind.Proxy

	// Key is the fingerprint of the unit's inputs; empty without a cache.
	Key string

	// Fresh units are up to date and skip binding.
	Fresh bool

	// Failed is set when any proxy of the unit failed to bind.
	Failed bool

	// Stale is set when no proxy of the unit bound; write removes the
	// previous output so it does not compile against changed targets.
	Stale bool

	emitter *gen.SourceEmitter
}

// Context carries configuration, collaborators and stage results.
type Context struct {
	Ctx       context.Context
	Config    *config.Config
	Log       logrus.FieldLogger
	Inspector *inspect.Inspector

	// Cache is optional; without it every unit is regenerated.
	Cache *cache.Cache

	// DryRun renders without writing.
	DryRun bool

	Packages  []*packages.Package
	Discovery *inspect.Discovery
	Units     []*Unit
	Report    *bind.Report
	Files     []gen.GeneratedFile

	// Written lists the files write stored.
	Written []string

	// Removed lists stale outputs write deleted.
	Removed []string

	Errors []error

	// Halted stops the pipeline before the next stage.
	Halted bool
}

// NewContext creates a Context for cfg. The inspector resolves patterns in
// the config directory.
func NewContext(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) *Context {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Context{
		Ctx:    ctx,
		Config: cfg,
		Log:    log,
		Inspector: inspect.NewInspector(cfg.Dir,
			inspect.WithBuildTag(cfg.BuildTag),
			inspect.WithLogger(log.WithField("component", "inspect")),
		),
	}
}

// Err joins every collected error.
func (c *Context) Err() error { return errors.Join(c.Errors...) }

func (c *Context) fail(err error) {
	c.Errors = append(c.Errors, err)
}

// Halt records err and stops the pipeline.
func (c *Context) Halt(err error) {
	c.fail(err)
	c.Halted = true
}

func (c *Context) unit(file string) *Unit {
	for _, u := range c.Units {
		if u.StubFile == file {
			return u
		}
	}
	return nil
}

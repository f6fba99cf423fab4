package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/tamper/internal/bind"
	"github.com/funvibe/tamper/internal/cache"
	"github.com/funvibe/tamper/internal/gen"
)

func loadProxies(c *Context) *Context {
	patterns := c.Config.ProxyPatterns()
	if len(patterns) == 0 {
		c.Log.Info("no proxy packages configured")
		c.Halted = true
		return c
	}
	pkgs, err := c.Inspector.Load(c.Ctx, patterns...)
	if err != nil {
		c.Halt(fmt.Errorf("loading proxy packages: %w", err))
		return c
	}
	c.Packages = pkgs
	c.Log.WithField("packages", len(pkgs)).Debug("loaded")
	return c
}

// discover finds proxies and groups them into units by stub file.
func discover(c *Context) *Context {
	d := c.Inspector.Discover(c.Packages)
	c.Discovery = d
	for _, err := range d.Problems {
		c.fail(err)
	}
	for _, p := range d.Proxies {
		u := c.unit(p.File)
		if u == nil {
			u = &Unit{
				StubFile: p.File,
				Output:   c.Config.GeneratedName(p.File),
				PkgPath:  p.PkgPath,
			}
			if pkg, ok := c.Inspector.Package(p.PkgPath); ok {
				u.PkgName = pkg.Name
			}
			c.Units = append(c.Units, u)
		}
		u.Proxies = append(u.Proxies, p)
	}
	c.Log.WithField("units", len(c.Units)).Debugf("discovered %d proxies", len(d.Proxies))
	return c
}

// fingerprint marks units whose stub file, target packages and settings
// are unchanged since their output was written.
func fingerprint(c *Context) *Context {
	if c.Cache == nil {
		return c
	}
	settings, err := yaml.Marshal(c.Config)
	if err != nil {
		c.fail(fmt.Errorf("encoding settings: %w", err))
		return c
	}
	for _, u := range c.Units {
		files := []string{u.StubFile}
		for _, p := range u.Proxies {
			if pkg, ok := c.Inspector.Package(p.Target.PkgPath); ok {
				files = append(files, pkg.GoFiles...)
			}
		}
		key, err := cache.Fingerprint(settings, files...)
		if err != nil {
			c.Log.WithError(err).WithField("file", u.StubFile).Debug("not cached")
			continue
		}
		u.Key = key
		u.Fresh = c.Cache.Fresh(u.Output, key)
		if u.Fresh {
			c.Log.WithField("file", u.Output).Info("up to date")
		}
	}
	return c
}

func bindProxies(c *Context) *Context {
	policy, err := bind.ParsePolicy(c.Config.OnError)
	if err != nil {
		c.Halt(err)
		return c
	}
	engine := bind.New(c.Inspector.Reflector(),
		bind.WithLogger(c.Log.WithField("component", "bind")),
		bind.WithPolicy(policy),
	)

	var proxies []*bind.Proxy
	for _, u := range c.Units {
		if u.Fresh {
			continue
		}
		u.emitter = gen.NewSourceEmitter(u.PkgName, u.PkgPath, c.Config.BuildTag)
		proxies = append(proxies, u.Proxies...)
	}

	report, err := engine.Run(proxies, func(p *bind.Proxy) bind.Emitter {
		return c.unit(p.File).emitter
	})
	c.Report = report
	for _, o := range report.Failed() {
		c.fail(o.Err)
		c.unit(o.Proxy.File).Failed = true
	}
	if err != nil {
		var bindErr *bind.Error
		if !errors.As(err, &bindErr) {
			c.fail(err)
		}
		c.Halted = true
	}
	return c
}

func render(c *Context) *Context {
	for _, u := range c.Units {
		if u.Fresh || u.emitter == nil {
			continue
		}
		if u.emitter.Empty() {
			c.Log.WithField("file", u.StubFile).Warn("no proxy bound")
			u.Stale = true
			continue
		}
		f, err := u.emitter.Render(u.Output)
		if err != nil {
			c.fail(fmt.Errorf("rendering %s: %w", u.Output, err))
			u.Failed = true
			continue
		}
		c.Files = append(c.Files, f)
	}
	return c
}

func write(c *Context) *Context {
	if c.DryRun {
		return c
	}
	for _, f := range c.Files {
		if err := os.WriteFile(f.Filename, []byte(f.Content), 0o644); err != nil {
			c.fail(fmt.Errorf("writing %s: %w", f.Filename, err))
			continue
		}
		c.Written = append(c.Written, f.Filename)
		c.Log.WithField("file", f.Filename).Info("wrote")
	}
	for _, u := range c.Units {
		if u.Stale {
			removeStale(c, u.Output)
		}
	}

	if c.Cache == nil {
		return c
	}
	for _, u := range c.Units {
		if u.Fresh || u.Key == "" {
			continue
		}
		var err error
		if u.Failed || !slices.Contains(c.Written, u.Output) {
			err = c.Cache.Forget(u.Output)
		} else {
			err = c.Cache.Store(u.Output, u.Key)
		}
		if err != nil {
			c.Log.WithError(err).Warn("cache not updated")
		}
	}
	return c
}

// removeStale deletes a previously generated output. Files without the
// generated header are never touched.
func removeStale(c *Context, path string) {
	generated, err := hasGeneratedHeader(path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		c.fail(fmt.Errorf("checking %s: %w", path, err))
		return
	}
	if !generated {
		return
	}
	if err := os.Remove(path); err != nil {
		c.fail(fmt.Errorf("removing stale %s: %w", path, err))
		return
	}
	c.Removed = append(c.Removed, path)
	c.Log.WithField("file", path).Warn("removed stale generated file")
}

// exposeTables renders the exposure file of every expose entry. Each entry
// is loaded on its own so a broken package only fails its own entry.
func exposeTables(c *Context) *Context {
	for i, entry := range c.Config.Expose {
		pkgs, err := c.Inspector.LoadForExpose(c.Ctx, entry.Pkg)
		if err != nil {
			c.fail(fmt.Errorf("expose[%d] %s: %w", i, entry.Pkg, err))
			continue
		}
		if len(pkgs) != 1 {
			c.fail(fmt.Errorf("expose[%d]: %s matches %d packages, want 1", i, entry.Pkg, len(pkgs)))
			continue
		}
		exp, err := c.Inspector.ExposeTargets(pkgs[0], entry.Types)
		if err != nil {
			c.fail(fmt.Errorf("expose[%d]: %w", i, err))
			continue
		}
		f, err := gen.GenerateExpose(exp)
		if err != nil {
			c.fail(fmt.Errorf("expose[%d]: %w", i, err))
			continue
		}
		c.Files = append(c.Files, f)
	}
	return c
}

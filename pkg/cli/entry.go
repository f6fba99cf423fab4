// Package cli implements the tamper command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/funvibe/tamper/internal/cache"
	"github.com/funvibe/tamper/internal/config"
	"github.com/funvibe/tamper/internal/pipeline"
)

const usage = `Usage: tamper [command] [flags]

Commands:
  gen      generate accessor thunks for every stub file (default)
  check    bind and render without writing anything
  expose   generate tamper_expose.go for the configured target packages
  clean    remove generated files and the fingerprint cache

Flags:
  --config <path>   use this tamper.yaml instead of searching parent directories
  --tags <tag>      stub build tag (overrides build_tag)
  --force           ignore the fingerprint cache
  --dry-run         report what clean would remove
  --verbose, -v     debug logging
  --help, -h        show this help
`

// options are the parsed command line.
type options struct {
	command    string
	configPath string
	tags       string
	force      bool
	dryRun     bool
	verbose    bool
	help       bool
}

var commands = map[string]bool{"gen": true, "check": true, "expose": true, "clean": true}

func parseArgs(args []string) (*options, error) {
	opts := &options{command: "gen"}
	commandSeen := false
	for i := 0; i < len(args); i++ {
		arg := args[i]
		value := func() (string, error) {
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "-") {
				return "", fmt.Errorf("%s needs a value", arg)
			}
			i++
			return args[i], nil
		}

		var err error
		switch arg {
		case "--config", "-config":
			opts.configPath, err = value()
		case "--tags", "-tags":
			opts.tags, err = value()
		case "--force", "-force":
			opts.force = true
		case "--dry-run", "-dry-run":
			opts.dryRun = true
		case "--verbose", "-verbose", "-v":
			opts.verbose = true
		case "--help", "-help", "-h", "help":
			opts.help = true
		default:
			if strings.HasPrefix(arg, "-") {
				return nil, fmt.Errorf("unknown flag %s", arg)
			}
			if commandSeen || !commands[arg] {
				return nil, fmt.Errorf("unknown command %q", arg)
			}
			opts.command = arg
			commandSeen = true
		}
		if err != nil {
			return nil, err
		}
	}
	return opts, nil
}

// newLogger configures the process logger. Colours are only used when w is
// a terminal.
func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors:    !tty,
		ForceColors:      tty,
		DisableTimestamp: true,
	})
	log.SetLevel(logrus.InfoLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// loadConfig reads --config, or the nearest tamper.yaml, or falls back to
// scanning every package below the working directory.
func loadConfig(opts *options, log logrus.FieldLogger) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot determine working directory: %w", err)
		}
		found, err := config.FindConfig(cwd)
		if err != nil {
			return nil, err
		}
		if found == "" {
			log.Debug("no tamper.yaml found, scanning ./...")
			cfg := config.Default(cwd)
			applyFlags(cfg, opts)
			return cfg, nil
		}
		path = found
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if cfg.Dir, err = filepath.Abs(cfg.Dir); err != nil {
		return nil, fmt.Errorf("resolving config directory: %w", err)
	}
	log.WithField("config", path).Debug("loaded config")
	applyFlags(cfg, opts)
	return cfg, nil
}

func applyFlags(cfg *config.Config, opts *options) {
	if opts.tags != "" {
		cfg.BuildTag = opts.tags
	}
}

// Run executes the command line args (without the program name) and returns
// the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n\n%s", err, usage)
		return 2
	}
	if opts.help {
		fmt.Fprint(stdout, usage)
		return 0
	}

	log := newLogger(stderr, opts.verbose)
	cfg, err := loadConfig(opts, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx := pipeline.NewContext(context.Background(), cfg, log.WithField("component", "pipeline"))
	if !opts.force {
		ctx.Cache = cache.New(cfg.Dir)
	}

	switch opts.command {
	case "gen":
		ctx = handleGen(ctx)
	case "check":
		ctx = handleCheck(ctx)
	case "expose":
		ctx = handleExpose(ctx)
	case "clean":
		ctx.DryRun = opts.dryRun
		ctx.Cache = cache.New(cfg.Dir)
		ctx = handleClean(ctx)
	}

	return report(ctx, opts.command, stdout, stderr)
}

func handleGen(ctx *pipeline.Context) *pipeline.Context {
	return pipeline.Generate().Run(ctx)
}

func handleCheck(ctx *pipeline.Context) *pipeline.Context {
	ctx.DryRun = true
	ctx.Cache = nil
	return pipeline.Check().Run(ctx)
}

func handleExpose(ctx *pipeline.Context) *pipeline.Context {
	if len(ctx.Config.Expose) == 0 {
		ctx.Log.Warn("no expose entries in config")
		return ctx
	}
	return pipeline.Expose().Run(ctx)
}

func handleClean(ctx *pipeline.Context) *pipeline.Context {
	return pipeline.Clean(ctx)
}

// report prints collected errors and a one-line summary.
func report(ctx *pipeline.Context, command string, stdout, stderr io.Writer) int {
	if len(ctx.Errors) > 0 {
		fmt.Fprintf(stderr, "%d error(s):\n", len(ctx.Errors))
		for _, err := range ctx.Errors {
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(stderr, "- %s\n", line)
			}
		}
	}

	switch command {
	case "check":
		bound := 0
		if ctx.Report != nil {
			bound = len(ctx.Report.Outcomes) - len(ctx.Report.Failed())
		}
		fmt.Fprintf(stdout, "%d proxies bound, %d files rendered\n", bound, len(ctx.Files))
	case "clean":
		fmt.Fprintf(stdout, "%d files removed\n", len(ctx.Written))
	default:
		fresh := 0
		for _, u := range ctx.Units {
			if u.Fresh {
				fresh++
			}
		}
		fmt.Fprintf(stdout, "%d files written, %d up to date", len(ctx.Written), fresh)
		if len(ctx.Removed) > 0 {
			fmt.Fprintf(stdout, ", %d stale removed", len(ctx.Removed))
		}
		fmt.Fprintln(stdout)
	}

	if len(ctx.Errors) > 0 {
		return 1
	}
	return 0
}

package pipeline

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/funvibe/tamper/internal/config"
)

// Clean removes every file tamper generated below the config directory and
// the fingerprint cache. Files are recognized by the generated header, so
// hand-written files that merely share the suffix are kept.
func Clean(c *Context) *Context {
	root := c.Config.Dir
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata" || name == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, c.Config.Suffix) && d.Name() != config.ExposeFileName {
			return nil
		}
		generated, err := hasGeneratedHeader(path)
		if err != nil || !generated {
			return err
		}
		if c.DryRun {
			c.Log.WithField("file", path).Info("would remove")
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		c.Written = append(c.Written, path)
		c.Log.WithField("file", path).Info("removed")
		return nil
	})
	if err != nil {
		c.fail(fmt.Errorf("cleaning %s: %w", root, err))
	}

	if c.Cache != nil && !c.DryRun {
		if err := c.Cache.Clean(); err != nil {
			c.fail(err)
		}
	}
	return c
}

func hasGeneratedHeader(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return false, sc.Err()
	}
	return sc.Text() == config.GeneratedHeader, nil
}

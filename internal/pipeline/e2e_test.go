package pipeline

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/funvibe/tamper/internal/config"
)

// The end-to-end module exposes dummies.Dummy, generates thunks for two
// proxies and runs a program that calls them against real values.

const e2eDummies = `package dummies

import "strings"

type Dummy struct {
	x     float64
	count int
}

var s = 45.0

func NewDummy(x float64) *Dummy { return &Dummy{x: x} }

func (d *Dummy) Bump() { d.count++ }

func (d *Dummy) Sum(a0, a1, a2, a3, a4, a5, a6, a7, a8, a9, a10, a11, a12, a13, a14 int) float64 {
	return float64(a0 + a1 + a2 + a3 + a4 + a5 + a6 + a7 + a8 + a9 + a10 + a11 + a12 + a13 + a14)
}

func (d *Dummy) Join(sep string, parts ...string) string { return strings.Join(parts, sep) }
`

const e2eSceneStub = `//go:build tamperstub

package tampers

import "example.com/game/dummies"

//tamper:target dummies.Dummy
type Scene struct{}

func NewScene(x *dummies.Dummy) *Scene { return nil }

//tamper:get x
func (*Scene) X() float64 { return 0 }

//tamper:set x
func (*Scene) SetX(v float64) {}

//tamper:get s
func (Scene) S() float64 { return 0 }

//tamper:set s
func (Scene) SetS(v float64) {}

func (*Scene) Sum(a0, a1, a2, a3, a4, a5, a6, a7, a8, a9, a10, a11, a12, a13, a14 int) float64 {
	return 0
}

func (*Scene) Bump() {}

//tamper:get count
func (*Scene) Count() int { return 0 }

func (*Scene) Join(sep string, parts ...string) string { return "" }
`

const e2eCopyStub = `//go:build tamperstub

package tampers

import "example.com/game/dummies"

//tamper:target dummies.Dummy
type Copy struct{}

func NewCopy(x dummies.Dummy) *Copy { return nil }

//tamper:get count
func (*Copy) Count() int { return 0 }

//tamper:set count
func (*Copy) SetCount(v int) {}
`

const e2eMain = `package main

import (
	"fmt"
	"os"

	"example.com/game/dummies"
	"example.com/game/tampers"
	"github.com/funvibe/tamper/pkg/tamper"
)

var failed bool

func check(name string, got, want any) {
	if got != want {
		fmt.Printf("%s: got %v, want %v\n", name, got, want)
		failed = true
	}
}

func main() {
	d := dummies.NewDummy(5)
	scene := tampers.NewScene(d)
	check("instance get", scene.X(), 5.0)
	scene.SetX(42)
	check("instance get after set", scene.X(), 42.0)
	check("direct read", tamper.Must(tamper.Get[*dummies.Dummy, float64]("x"))(d), 42.0)

	var static tampers.Scene
	check("static get", static.S(), 45.0)
	static.SetS(423)
	check("static get after set", static.S(), 423.0)

	check("fifteen parameters", scene.Sum(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15), 120.0)

	scene.Bump()
	scene.Bump()
	check("held instance", scene.Count(), 2)
	check("variadic", scene.Join("-", "a", "b", "c"), "a-b-c")

	c := tampers.NewCopy(*d)
	c.SetCount(9)
	check("value copy", c.Count(), 9)
	check("original untouched", scene.Count(), 2)

	if failed {
		os.Exit(1)
	}
	fmt.Println("ok")
}
`

// goDirective returns the go line of the repository's go.mod.
func goDirective(t *testing.T, root string) string {
	t.Helper()
	f, err := os.Open(filepath.Join(root, "go.mod"))
	require.NoError(t, err)
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); strings.HasPrefix(line, "go ") {
			return line
		}
	}
	t.Fatal("no go directive in go.mod")
	return ""
}

// goCommand runs the go tool in dir without workspace interference.
func goCommand(dir string, args ...string) *exec.Cmd {
	cmd := exec.Command("go", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GOWORK=off", "GOFLAGS=-mod=mod")
	return cmd
}

func TestEndToEnd_GeneratedThunksRun(t *testing.T) {
	skipIfShortOrNoGo(t)

	root, err := filepath.Abs(filepath.Join("..", ".."))
	require.NoError(t, err)

	dir := t.TempDir()
	files := map[string]string{
		"go.mod": "module example.com/game\n\n" + goDirective(t, root) + "\n\n" +
			"require github.com/funvibe/tamper v0.0.0\n\n" +
			"replace github.com/funvibe/tamper => " + filepath.ToSlash(root) + "\n",
		"dummies/dummies.go":    e2eDummies,
		"tampers/doc.go":        "package tampers\n",
		"tampers/scene_stub.go": e2eSceneStub,
		"tampers/copy_stub.go":  e2eCopyStub,
		"cmd/check/main.go":     e2eMain,
	}
	for name, src := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}

	if out, err := goCommand(dir, "mod", "tidy").CombinedOutput(); err != nil {
		t.Skipf("cannot resolve modules: %v\n%s", err, out)
	}

	cfg, err := config.ParseConfig([]byte(`proxies:
  - pkg: ./tampers
expose:
  - pkg: ./dummies
    types: [Dummy]
`), filepath.Join(dir, config.ConfigFileName))
	require.NoError(t, err)

	exposed := Expose().Run(NewContext(context.Background(), cfg, nil))
	require.NoError(t, exposed.Err())
	require.FileExists(t, filepath.Join(dir, "dummies", config.ExposeFileName))

	generated := Generate().Run(NewContext(context.Background(), cfg, nil))
	require.NoError(t, generated.Err())
	require.Len(t, generated.Written, 2)

	out, err := goCommand(dir, "run", "./cmd/check").CombinedOutput()
	require.NoError(t, err, "generated program failed:\n%s", out)
	require.Contains(t, string(out), "ok")
}

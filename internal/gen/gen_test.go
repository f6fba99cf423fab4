package gen

import (
	"go/parser"
	"go/token"
	"regexp"
	"strings"
	"testing"

	"github.com/funvibe/tamper/internal/bind"
)

// render binds proxies with the fixture reflector and renders them into one
// file of package tampers. The output must parse.
func render(t *testing.T, pkgName, pkgPath string, proxies ...*bind.Proxy) (string, *bind.Report) {
	t.Helper()
	e := NewSourceEmitter(pkgName, pkgPath, "tamperstub")
	report, err := bind.New(dummyMembers()).Run(proxies, func(*bind.Proxy) bind.Emitter { return e })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	f, err := e.Render("scene_tamper.go")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if _, err := parser.ParseFile(token.NewFileSet(), f.Filename, f.Content, parser.ParseComments); err != nil {
		t.Fatalf("generated file does not parse: %v\n%s", err, f.Content)
	}
	return f.Content, report
}

func assertContains(t *testing.T, src string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(src, p) {
			t.Errorf("generated source lacks\n%s\n--- source ---\n%s", p, src)
		}
	}
}

func assertMatches(t *testing.T, src string, patterns ...string) {
	t.Helper()
	for _, p := range patterns {
		if !regexp.MustCompile(p).MatchString(src) {
			t.Errorf("generated source does not match %s\n--- source ---\n%s", p, src)
		}
	}
}

// =============================================================================
// Proxy files
// =============================================================================

func TestRenderStaticProxy(t *testing.T) {
	count := stub("Count", true, []bind.Param{prm("d", dummyPtr)}, intT)
	count.Bind = "count"
	setCount := stub("SetCount", true, []bind.Param{prm("d", dummyPtr), prm("v", intT)})
	setCount.Bind = "count"

	src, _ := render(t, "tampers", tampersPkg, &bind.Proxy{
		Name:   "DummyTamper",
		Target: dummyT,
		Stubs: []*bind.StubMember{
			count,
			setCount,
			stub("Sum", true, []bind.Param{prm("d", dummyPtr), prm("a", intT), prm("b", intT)}, intT),
			stub("Add", true, []bind.Param{prm("a", intT), prm("b", intT)}, intT),
			stub("Version", true, nil, stringT),
		},
	})

	if !strings.HasPrefix(src, "// Code generated by tamper. DO NOT EDIT.\n\n//go:build !tamperstub\n\npackage tampers\n") {
		t.Errorf("unexpected file header:\n%s", src)
	}
	assertContains(t, src,
		`dummies "example.com/game/dummies"`,
		`tamper "github.com/funvibe/tamper/pkg/tamper"`,
		"// DummyTamper is bound to example.com/game/dummies.Dummy.",
		"func (p DummyTamper) Count(d *dummies.Dummy) int {\n\treturn _DummyTamper_call_get_Count(d)\n}",
		"func (p DummyTamper) SetCount(d *dummies.Dummy, v int) {\n\t_DummyTamper_call_set_SetCount(d, v)\n}",
		"func (p DummyTamper) Sum(d *dummies.Dummy, a int, b int) int {\n\treturn _DummyTamper_call_method_Sum(d, a, b)\n}",
		"func (p DummyTamper) Version() string {\n\treturn _DummyTamper_call_get_Version()\n}",
		`_DummyTamper_call_get_Count = tamper.Must(tamper.Get[*dummies.Dummy, int]("count"))`,
		`_DummyTamper_call_set_SetCount = tamper.Must(tamper.Set[*dummies.Dummy, int]("count"))`,
		`_DummyTamper_call_method_Sum = tamper.Must(tamper.Call[*dummies.Dummy, func(*dummies.Dummy, int, int) int]("Sum"))`,
		`_DummyTamper_call_method_Add = tamper.Must(tamper.CallStatic[dummies.Dummy, func(int, int) int]("Add"))`,
		`_DummyTamper_call_get_Version = tamper.Must(tamper.GetStatic[dummies.Dummy, string]("Version"))`,
	)
	assertMatches(t, src,
		`type DummyTamper struct \{\s*\}`,
		`_DummyTamper_call_get_Count\s+func\(\*dummies\.Dummy\) int\n`,
		`_DummyTamper_call_method_Add\s+func\(int, int\) int\n`,
		`func init\(\) \{\n`,
	)
}

func instanceProxy(param bind.TypeRef) *bind.Proxy {
	setLabel := stub("SetLabel", false, []bind.Param{prm("v", stringT)})
	setLabel.Bind = "Label"
	join := stub("Join", false, []bind.Param{prm("sep", stringT), prm("parts", bind.SliceOf(stringT))}, stringT)
	join.Variadic = true

	return &bind.Proxy{
		Name:        "Scene",
		Target:      dummyT,
		Constructor: &bind.Constructor{Name: "NewScene", Param: prm("d", param)},
		Stubs: []*bind.StubMember{
			stub("Label", false, nil, stringT),
			setLabel,
			stub("Reset", false, nil),
			join,
		},
	}
}

func TestRenderInstanceProxy(t *testing.T) {
	src, _ := render(t, "tampers", tampersPkg, instanceProxy(dummyPtr))

	assertContains(t, src,
		"type Scene struct {\n\tinstance *dummies.Dummy\n}",
		"func NewScene(d *dummies.Dummy) *Scene {\n\treturn &Scene{instance: d}\n}",
		"func (p *Scene) Label() string {\n\treturn _Scene_call_get_Label(p.instance)\n}",
		"func (p *Scene) SetLabel(v string) {\n\t_Scene_call_set_SetLabel(p.instance, v)\n}",
		"func (p *Scene) Reset() {\n\t_Scene_call_method_Reset(p.instance)\n}",
		"func (p *Scene) Join(sep string, parts ...string) string {\n\treturn _Scene_call_method_Join(p.instance, sep, parts...)\n}",
		`tamper.CallVoid[*dummies.Dummy, func(*dummies.Dummy)]("Reset")`,
		`tamper.Call[*dummies.Dummy, func(*dummies.Dummy, string, ...string) string]("Join")`,
	)
}

func TestRenderValueHeldProxy(t *testing.T) {
	src, _ := render(t, "tampers", tampersPkg, instanceProxy(dummyT))

	assertContains(t, src,
		"type Scene struct {\n\tinstance dummies.Dummy\n}",
		"func NewScene(d dummies.Dummy) *Scene {\n\treturn &Scene{instance: d}\n}",
		"return _Scene_call_get_Label(p.instance)",
		"_Scene_call_set_SetLabel(&p.instance, v)",
		"_Scene_call_method_Reset(&p.instance)",
		`tamper.Get[dummies.Dummy, string]("Label")`,
		`tamper.SetValue[dummies.Dummy, string]("Label")`,
	)
}

func TestRenderProxyInTargetPackage(t *testing.T) {
	src, _ := render(t, "dummies", dummiesPkg, instanceProxy(dummyPtr))

	if strings.Contains(src, `"example.com/game/dummies"`) {
		t.Errorf("file imports its own package:\n%s", src)
	}
	assertContains(t, src,
		"func NewScene(d *Dummy) *Scene {",
		`tamper.Get[*Dummy, string]("Label")`,
	)
}

func TestRenderSkipsFailedProxy(t *testing.T) {
	bad := stub("SetCount", true, []bind.Param{prm("d", dummyT), prm("v", intT)})
	bad.Bind = "count"

	src, report := render(t, "tampers", tampersPkg,
		&bind.Proxy{Name: "Bad", Target: dummyT, Stubs: []*bind.StubMember{
			stub("Version", true, nil, stringT),
			bad,
		}},
		&bind.Proxy{Name: "Good", Target: dummyT, Stubs: []*bind.StubMember{
			stub("Version", true, nil, stringT),
		}},
	)

	if len(report.Failed()) != 1 {
		t.Fatalf("failed = %d, want 1", len(report.Failed()))
	}
	if strings.Contains(src, "Bad") {
		t.Errorf("failed proxy was emitted:\n%s", src)
	}
	assertContains(t, src, "type Good struct", "_Good_call_get_Version")
}

func TestRenderEmpty(t *testing.T) {
	e := NewSourceEmitter("tampers", tampersPkg, "tamperstub")
	if !e.Empty() {
		t.Fatal("new emitter is not empty")
	}
	f, err := e.Render("x_tamper.go")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(f.Content, "import") || strings.Contains(f.Content, "func init") {
		t.Errorf("empty file has imports or init:\n%s", f.Content)
	}
}

func TestBodyErrors(t *testing.T) {
	e := NewSourceEmitter("tampers", tampersPkg, "tamperstub")

	b := e.InitBody()
	b.StoreCell(&bind.Cell{Name: "c"})
	if err := b.Commit(); err == nil || !strings.Contains(err.Error(), "underflow") {
		t.Errorf("underflow: err = %v", err)
	}

	b = e.InitBody()
	b.LoadString("x")
	if err := b.Commit(); err == nil {
		t.Error("leftover value: expected error")
	}

	b = e.InitBody()
	b.LoadArg(0)
	if err := b.Commit(); err == nil {
		t.Error("init body has no arguments: expected error")
	}
}

func TestStubNames(t *testing.T) {
	tests := []struct {
		name string
		s    *bind.StubMember
		want string
	}{
		{"blank receiver", &bind.StubMember{Receiver: "_", Params: []bind.Param{{Name: "d"}}}, "p,d"},
		{"named receiver", &bind.StubMember{Receiver: "t", Params: []bind.Param{{Name: "d"}}}, "t,d"},
		{"clash with receiver", &bind.StubMember{Params: []bind.Param{{Name: "p"}, {Name: "b"}}}, "p,a0,b"},
		{"unnamed params", &bind.StubMember{Params: []bind.Param{{}, {Name: "_"}}}, "p,a0,a1"},
		{"duplicate", &bind.StubMember{Params: []bind.Param{{Name: "a1"}, {}, {}}}, "p,a1,a1_,a2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.Join(stubNames(tt.s), ","); got != tt.want {
				t.Errorf("stubNames = %s, want %s", got, tt.want)
			}
		})
	}
}

// =============================================================================
// Imports
// =============================================================================

func TestImportAlias(t *testing.T) {
	tests := []struct {
		pkgPath  string
		expected string
	}{
		{"net/http", "http"},
		{"github.com/redis/go-redis/v9", "goredis"},
		{"github.com/foo/go", "pkgGo"},
		{"github.com/foo/map", "pkgMap"},
		{"github.com/foo/tamper", "pkgTamper"},
		{"github.com/foo/bar-baz", "barbaz"},
		{"github.com/foo/bar.baz", "barbaz"},
		{"github.com/foo/v9", "foo"},
		{"github.com/foo/3d", "pkg3d"},
		{"v9", "v9"},
		{"", "pkg"},
	}

	for _, tt := range tests {
		t.Run(tt.pkgPath, func(t *testing.T) {
			t.Parallel()
			got := ImportAlias(tt.pkgPath)
			if got != tt.expected {
				t.Errorf("ImportAlias(%q) = %q; want %q", tt.pkgPath, got, tt.expected)
			}
		})
	}
}

func TestImportSetUniqueAliases(t *testing.T) {
	s := newImportSet(tampersPkg)
	if got := s.runtime(); got != "tamper" {
		t.Fatalf("runtime alias = %q", got)
	}
	if a := s.add("example.com/a/util"); a != "util" {
		t.Errorf("first util = %q", a)
	}
	if a := s.add("example.com/b/util"); a != "util2" {
		t.Errorf("second util = %q", a)
	}
	if a := s.add("example.com/a/util"); a != "util" {
		t.Errorf("repeated util = %q", a)
	}
	if n := len(s.sorted()); n != 3 {
		t.Errorf("imports = %d, want 3", n)
	}
}

func TestQualify(t *testing.T) {
	s := newImportSet(tampersPkg)
	own := bind.Named(tampersPkg, "Local", bind.TypeStruct)
	box := bind.Named("example.com/box", "Box", bind.TypeStruct)
	box.Args = []bind.TypeRef{dummyPtr}
	m := bind.TypeRef{Kind: bind.TypeMap, GoString: "map[string]*example.com/game/dummies.Dummy", Key: &stringT, Elem: &dummyPtr}
	ch := bind.TypeRef{Kind: bind.TypeChan, GoString: "<-chan int", Elem: &intT}
	arr := bind.TypeRef{Kind: bind.TypeArray, GoString: "[4]int", Elem: &intT, Len: 4}

	tests := []struct {
		ref  bind.TypeRef
		want string
	}{
		{intT, "int"},
		{bind.Basic("error"), "error"},
		{own, "Local"},
		{bind.SliceOf(dummyPtr), "[]*dummies.Dummy"},
		{box, "box.Box[*dummies.Dummy]"},
		{m, "map[string]*dummies.Dummy"},
		{ch, "<-chan int"},
		{arr, "[4]int"},
		{bind.FuncOf([]bind.TypeRef{stringT, bind.SliceOf(intT)}, []bind.TypeRef{intT, bind.Basic("error")}, true), "func(string, ...int) (int, error)"},
	}
	for _, tt := range tests {
		if got := s.qualify(tt.ref); got != tt.want {
			t.Errorf("qualify(%s) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

// =============================================================================
// Exposure files
// =============================================================================

func TestGenerateExpose(t *testing.T) {
	f, err := GenerateExpose(&ExposePackage{
		Name: "dummies",
		Path: dummiesPkg,
		Dir:  "game/dummies",
		Types: []ExposeType{{
			Name: "Dummy",
			Members: []ExposeMember{
				{Kind: ExposeVar, Name: "staticTest1"},
				{Kind: ExposeStaticProp, Name: "staticProp", Setter: "setStaticProp"},
				{Kind: ExposeStaticProp, Name: "staticConst"},
				{Kind: ExposeFunc, Name: "staticSum"},
				{Kind: ExposeMethod, Name: "instanceMethod"},
				{Kind: ExposeProp, Name: "propTest2", Setter: "setPropTest2"},
				{Kind: ExposeProp, Name: "readOnly"},
			},
		}},
	})
	if err != nil {
		t.Fatalf("GenerateExpose: %v", err)
	}
	if f.Filename != "game/dummies/tamper_expose.go" {
		t.Errorf("filename = %q", f.Filename)
	}
	if _, err := parser.ParseFile(token.NewFileSet(), f.Filename, f.Content, 0); err != nil {
		t.Fatalf("exposure file does not parse: %v\n%s", err, f.Content)
	}
	assertContains(t, f.Content,
		"package dummies\n",
		`import "github.com/funvibe/tamper/pkg/tamper"`,
		"\ttamper.Expose[Dummy](\n",
		`tamper.Var("staticTest1", &staticTest1),`,
		`tamper.StaticProp("staticProp", staticProp, setStaticProp),`,
		`tamper.StaticProp("staticConst", staticConst, nil),`,
		`tamper.Func("staticSum", staticSum),`,
		`tamper.Method("instanceMethod", (*Dummy).instanceMethod),`,
		`tamper.Prop("propTest2", (*Dummy).propTest2, (*Dummy).setPropTest2),`,
		`tamper.Prop("readOnly", (*Dummy).readOnly, nil),`,
	)
}

func TestGenerateExposeUnknownKind(t *testing.T) {
	_, err := GenerateExpose(&ExposePackage{
		Name:  "dummies",
		Path:  dummiesPkg,
		Types: []ExposeType{{Name: "Dummy", Members: []ExposeMember{{Kind: ExposeKind(99), Name: "x"}}}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

package bind

import "strings"

const dummiesPkg = "example.com/game/dummies"

var (
	intT     = Basic("int")
	float64T = Basic("float64")
	stringT  = Basic("string")
	dummyT   = Named(dummiesPkg, "Dummy", TypeStruct)
	dummyPtr = PointerTo(dummyT)

	// pairT is struct{ D dummies.Dummy }, which has no importable spelling.
	pairT = TypeRef{Kind: TypeStruct, GoString: "struct{D " + dummiesPkg + ".Dummy}"}
)

// fakeType is the member table of one in-memory target.
type fakeType struct {
	members []FieldOrProp
	methods []*Method
}

// fakeReflector resolves members from tables keyed by full type name. It
// records every query so tests can check lookup order.
type fakeReflector struct {
	types   map[string]*fakeType
	queries []Query
}

func (r *fakeReflector) FindMember(target TypeRef, q Query) (FieldOrProp, bool) {
	r.queries = append(r.queries, q)
	ft := r.types[target.FullName()]
	if ft == nil {
		return nil, false
	}
	for _, m := range ft.members {
		info := m.Info()
		vis := Exported
		if !info.Exported {
			vis = Unexported
		}
		if info.Name == q.Name && m.Kind() == q.Kind && info.Static == q.Static && vis == q.Visibility {
			return m, true
		}
	}
	return nil, false
}

func (r *fakeReflector) FindMethods(target TypeRef, name string) []*Method {
	ft := r.types[target.FullName()]
	if ft == nil {
		return nil
	}
	var out []*Method
	for _, m := range ft.methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

func (r *fakeReflector) SameType(a, b TypeRef) bool { return SameTypeName(a, b) }

func params(ts ...TypeRef) []Param {
	out := make([]Param, len(ts))
	for i, t := range ts {
		out[i] = Param{Name: string(rune('a' + i)), Type: t}
	}
	return out
}

func ints(n int) []TypeRef {
	out := make([]TypeRef, n)
	for i := range out {
		out[i] = intT
	}
	return out
}

func exported(name string) bool {
	return name != "" && strings.ToUpper(name[:1]) == name[:1]
}

// dummyReflector models:
//
//	type Dummy struct{ count int }
//	func (d *Dummy) Label() string; func (d *Dummy) SetLabel(string)
//	func (d *Dummy) ID() int
//	var Version string
//	func total() int; func setTotal(int)
//	func (d *Dummy) Sum(a, b int) int
//	func (d *Dummy) Scale(f float64) float64
//	func (d *Dummy) Scale(a, b int) int      (two candidates by name)
//	func (d *Dummy) Reset()
//	func (d Dummy) Join(sep string, parts ...string) string
//	func Add(a, b int) int
//	func (d *Dummy) Wide(16 ints) int
func dummyReflector() *fakeReflector {
	field := func(name string, t TypeRef, static bool) *Field {
		return &Field{MemberInfo{Name: name, Type: t, Static: static, Writable: true, Exported: exported(name)}}
	}
	prop := func(name string, t TypeRef, static bool, setter string) *Property {
		return &Property{
			MemberInfo: MemberInfo{Name: name, Type: t, Static: static, Writable: setter != "", Exported: exported(name)},
			Getter:     name,
			Setter:     setter,
		}
	}
	method := func(name string, ps []TypeRef, rs []TypeRef, static bool) *Method {
		return &Method{Name: name, Params: params(ps...), Results: rs, Static: static, Exported: exported(name), PtrRecv: !static}
	}

	join := method("Join", []TypeRef{stringT, SliceOf(stringT)}, []TypeRef{stringT}, false)
	join.Variadic = true
	join.PtrRecv = false

	return &fakeReflector{types: map[string]*fakeType{
		dummyT.FullName(): {
			members: []FieldOrProp{
				field("count", intT, false),
				prop("Label", stringT, false, "SetLabel"),
				prop("ID", intT, false, ""),
				field("Version", stringT, true),
				prop("total", intT, true, "setTotal"),
			},
			methods: []*Method{
				method("Sum", ints(2), []TypeRef{intT}, false),
				method("Scale", []TypeRef{float64T}, []TypeRef{float64T}, false),
				method("Scale", ints(2), []TypeRef{intT}, false),
				method("Reset", nil, nil, false),
				join,
				method("Add", ints(2), []TypeRef{intT}, true),
				method("Wide", ints(16), []TypeRef{intT}, false),
			},
		},
	}}
}

// staticStub declares a value-receiver stub.
func staticStub(name string, ps []TypeRef, rs ...TypeRef) *StubMember {
	return &StubMember{Name: name, Bind: name, Static: true, Params: params(ps...), Results: rs}
}

// instanceStub declares a pointer-receiver stub.
func instanceStub(name string, ps []TypeRef, rs ...TypeRef) *StubMember {
	return &StubMember{Name: name, Bind: name, Params: params(ps...), Results: rs}
}

func bindTo(s *StubMember, member string) *StubMember {
	s.Bind = member
	return s
}

func special(s *StubMember, sp Special) *StubMember {
	s.Special = sp
	return s
}

func newProxy(name string, stubs ...*StubMember) *Proxy {
	return &Proxy{
		Name:    name,
		PkgPath: "example.com/game/tampers",
		Target:  dummyT,
		Stubs:   stubs,
		Pos:     "tampers.go:1:6",
	}
}

func withCtor(p *Proxy, param TypeRef) *Proxy {
	p.Constructor = &Constructor{Name: "New" + p.Name, Param: Param{Name: "d", Type: param}}
	return p
}

// opStrings renders a recorded op list for comparison.
func opStrings(ops []Op) []string {
	out := make([]string, len(ops))
	for i, o := range ops {
		out[i] = o.String()
	}
	return out
}

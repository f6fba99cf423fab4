package gen

import (
	"go/token"

	"github.com/funvibe/tamper/internal/bind"
)

const (
	dummiesPkg = "example.com/game/dummies"
	tampersPkg = "example.com/game/tampers"
)

var (
	intT     = bind.Basic("int")
	stringT  = bind.Basic("string")
	dummyT   = bind.Named(dummiesPkg, "Dummy", bind.TypeStruct)
	dummyPtr = bind.PointerTo(dummyT)
)

// memberReflector is a bind.Reflector over fixed member lists of a single
// target type.
type memberReflector struct {
	members []bind.FieldOrProp
	methods []*bind.Method
}

func (r *memberReflector) FindMember(_ bind.TypeRef, q bind.Query) (bind.FieldOrProp, bool) {
	for _, m := range r.members {
		info := m.Info()
		vis := bind.Exported
		if !info.Exported {
			vis = bind.Unexported
		}
		if info.Name == q.Name && m.Kind() == q.Kind && info.Static == q.Static && vis == q.Visibility {
			return m, true
		}
	}
	return nil, false
}

func (r *memberReflector) FindMethods(_ bind.TypeRef, name string) []*bind.Method {
	var out []*bind.Method
	for _, m := range r.methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

func (r *memberReflector) SameType(a, b bind.TypeRef) bool { return bind.SameTypeName(a, b) }

func dummyMembers() *memberReflector {
	info := func(name string, t bind.TypeRef, static, writable bool) bind.MemberInfo {
		return bind.MemberInfo{Name: name, Type: t, Static: static, Writable: writable, Exported: token.IsExported(name)}
	}
	return &memberReflector{
		members: []bind.FieldOrProp{
			&bind.Field{MemberInfo: info("count", intT, false, true)},
			&bind.Property{MemberInfo: info("Label", stringT, false, true), Getter: "Label", Setter: "SetLabel"},
			&bind.Field{MemberInfo: info("Version", stringT, true, true)},
		},
		methods: []*bind.Method{
			{Name: "Sum", Params: []bind.Param{{Name: "a", Type: intT}, {Name: "b", Type: intT}}, Results: []bind.TypeRef{intT}, Exported: true, PtrRecv: true},
			{Name: "Reset", Exported: true, PtrRecv: true},
			{
				Name:     "Join",
				Params:   []bind.Param{{Name: "sep", Type: stringT}, {Name: "parts", Type: bind.SliceOf(stringT)}},
				Results:  []bind.TypeRef{stringT},
				Variadic: true,
				Exported: true,
			},
			{Name: "Add", Params: []bind.Param{{Name: "a", Type: intT}, {Name: "b", Type: intT}}, Results: []bind.TypeRef{intT}, Static: true, Exported: true},
		},
	}
}

func stub(name string, static bool, params []bind.Param, results ...bind.TypeRef) *bind.StubMember {
	return &bind.StubMember{Name: name, Bind: name, Static: static, Receiver: "_", Params: params, Results: results}
}

func prm(name string, t bind.TypeRef) bind.Param { return bind.Param{Name: name, Type: t} }

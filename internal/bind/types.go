package bind

import (
	"fmt"
	"strings"
)

// TypeKind categorizes Go types for code generation.
type TypeKind int

const (
	TypeBasic     TypeKind = iota // bool, int, float64, string, etc.
	TypeNamed                     // named non-struct, non-interface types
	TypeStruct                    // named or anonymous struct types
	TypeInterface                 // interface types
	TypePtr                       // *T
	TypeSlice                     // []T
	TypeArray                     // [N]T
	TypeMap                       // map[K]V
	TypeFunc                      // func types
	TypeChan                      // channel types
	TypeError                     // the error interface
)

// TypeRef is a reference to a Go type with enough structure to render it in
// generated code. Two references denote the same type when their GoString
// values, which use full import paths, are equal.
type TypeRef struct {
	Kind TypeKind

	// GoString is the type with full package paths
	// (e.g. "*example.com/game/dummies.Dummy").
	GoString string

	// PkgPath and TypeName are set for named types.
	PkgPath  string
	TypeName string

	// Elem is the element type of pointers, slices, arrays, maps and channels.
	Elem *TypeRef

	// Key is the key type of maps.
	Key *TypeRef

	// Len is the length of arrays.
	Len int64

	// Args are the type arguments of instantiated generic types.
	Args []TypeRef

	// Func is the signature of func types.
	Func *Signature
}

// Signature describes parameters and results of a func type.
type Signature struct {
	Params   []TypeRef
	Results  []TypeRef
	Variadic bool
}

// FullName returns the fully qualified type string used for type identity.
func (r TypeRef) FullName() string { return r.GoString }

func (r TypeRef) String() string { return r.GoString }

// IsPointer reports whether r is a pointer type.
func (r TypeRef) IsPointer() bool { return r.Kind == TypePtr && r.Elem != nil }

// Deref returns the element type of a pointer, or r itself.
func (r TypeRef) Deref() TypeRef {
	if r.IsPointer() {
		return *r.Elem
	}
	return r
}

// Unspellable reports whether r is, or is built from, an anonymous struct or
// interface that names package-qualified types. Generated code cannot spell
// such a type without importing the packages of its fields.
func (r TypeRef) Unspellable() bool {
	switch r.Kind {
	case TypeStruct, TypeInterface:
		if r.TypeName == "" && strings.Contains(r.GoString, ".") {
			return true
		}
	}
	for _, t := range []*TypeRef{r.Elem, r.Key} {
		if t != nil && t.Unspellable() {
			return true
		}
	}
	for _, a := range r.Args {
		if a.Unspellable() {
			return true
		}
	}
	if r.Func != nil {
		for _, t := range append(append([]TypeRef{}, r.Func.Params...), r.Func.Results...) {
			if t.Unspellable() {
				return true
			}
		}
	}
	return false
}

// Basic returns a reference to a predeclared type.
func Basic(name string) TypeRef {
	if name == "error" {
		return TypeRef{Kind: TypeError, GoString: "error"}
	}
	return TypeRef{Kind: TypeBasic, GoString: name}
}

// Named returns a reference to a named type. Struct and interface kinds
// may be passed to keep the underlying category.
func Named(pkgPath, name string, kind TypeKind) TypeRef {
	gs := name
	if pkgPath != "" {
		gs = pkgPath + "." + name
	}
	return TypeRef{Kind: kind, GoString: gs, PkgPath: pkgPath, TypeName: name}
}

// PointerTo returns *elem.
func PointerTo(elem TypeRef) TypeRef {
	return TypeRef{Kind: TypePtr, GoString: "*" + elem.GoString, Elem: &elem}
}

// SliceOf returns []elem.
func SliceOf(elem TypeRef) TypeRef {
	return TypeRef{Kind: TypeSlice, GoString: "[]" + elem.GoString, Elem: &elem}
}

// FuncOf returns the func type with the given parameters and results.
func FuncOf(params, results []TypeRef, variadic bool) TypeRef {
	sig := &Signature{Params: params, Results: results, Variadic: variadic}
	return TypeRef{Kind: TypeFunc, GoString: sig.String(), Func: sig}
}

func (s *Signature) String() string {
	var b strings.Builder
	b.WriteString("func(")
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if s.Variadic && i == len(s.Params)-1 && p.Elem != nil {
			b.WriteString("..." + p.Elem.GoString)
			continue
		}
		b.WriteString(p.GoString)
	}
	b.WriteString(")")
	switch len(s.Results) {
	case 0:
	case 1:
		b.WriteString(" " + s.Results[0].GoString)
	default:
		parts := make([]string, len(s.Results))
		for i, r := range s.Results {
			parts[i] = r.GoString
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	return b.String()
}

// Param is a named parameter.
type Param struct {
	Name string
	Type TypeRef
}

func paramTypes(ps []Param) []TypeRef {
	out := make([]TypeRef, len(ps))
	for i, p := range ps {
		out[i] = p.Type
	}
	return out
}

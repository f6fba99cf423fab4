// Package bind is the member-resolution and thunk-synthesis engine of
// tamper.
//
// For every proxy type it walks the declared stubs in order, decides
// whether each stub denotes a field/property access or a method call,
// matches it against exactly one member of the target type, and emits a
// storage cell, an initialization statement and a forwarding body through
// an Emitter. Target members are found through a Reflector. Both are
// interfaces so the engine runs the same against go/types and against
// in-memory fixtures.
package bind

import "fmt"

// Special marks property-style stubs, the counterpart of get_/set_ accessor
// names.
type Special int

const (
	SpecialNone Special = iota
	SpecialGet
	SpecialSet
)

func (s Special) String() string {
	switch s {
	case SpecialGet:
		return "get"
	case SpecialSet:
		return "set"
	}
	return "none"
}

// StubMember is one declared stub of a proxy type.
type StubMember struct {
	// Name is the Go method name of the stub.
	Name string

	// Bind is the target member name; defaults to Name.
	Bind string

	Special Special

	// Static is true for value-receiver stubs, which forward without proxy
	// state and take the target instance explicitly.
	Static bool

	// Receiver is the receiver identifier as declared (may be empty).
	Receiver string

	Params   []Param
	Results  []TypeRef
	Variadic bool

	// Pos is the source position, used in error messages.
	Pos string
}

// IsVoid reports whether the stub has no results.
func (s *StubMember) IsVoid() bool { return len(s.Results) == 0 }

// Constructor is the New<Proxy> function of an instance-wrapping proxy.
type Constructor struct {
	Name  string
	Param Param
	Pos   string
}

// Proxy is a stub type bound to a target type.
type Proxy struct {
	Name    string
	PkgPath string

	// Target is the named target type, never a pointer.
	Target TypeRef

	Stubs       []*StubMember
	Constructor *Constructor

	// File is the stub file the proxy was declared in.
	File string
	Pos  string
}

// Visibility selects exported or unexported members.
type Visibility int

const (
	Exported Visibility = iota
	Unexported
)

func (v Visibility) String() string {
	if v == Exported {
		return "exported"
	}
	return "unexported"
}

// MemberKind distinguishes the two variants of FieldOrProp.
type MemberKind int

const (
	KindField MemberKind = iota
	KindProperty
)

func (k MemberKind) String() string {
	if k == KindField {
		return "field"
	}
	return "property"
}

// MemberInfo is the data shared by fields and properties.
type MemberInfo struct {
	Name     string
	Type     TypeRef
	Static   bool
	Writable bool
	Exported bool
}

// FieldOrProp is either a *Field or a *Property.
type FieldOrProp interface {
	Info() *MemberInfo
	Kind() MemberKind
	fieldOrProp()
}

// Field is a struct field (instance) or a package-level variable (static).
// Fields are always writable.
type Field struct {
	MemberInfo
}

func (f *Field) Info() *MemberInfo { return &f.MemberInfo }
func (f *Field) Kind() MemberKind  { return KindField }
func (*Field) fieldOrProp()        {}

// Property is a getter with an optional setter: methods for instance
// properties, package-level functions for static ones.
type Property struct {
	MemberInfo

	Getter string
	Setter string // empty when read-only
}

func (p *Property) Info() *MemberInfo { return &p.MemberInfo }
func (p *Property) Kind() MemberKind  { return KindProperty }
func (*Property) fieldOrProp()        {}

// Method is a method (instance) or a package-level function (static).
type Method struct {
	Name     string
	Params   []Param
	Results  []TypeRef
	Variadic bool
	Static   bool
	Exported bool

	// PtrRecv is true for methods declared on *T.
	PtrRecv bool
}

func (m *Method) String() string {
	sig := FuncOf(paramTypes(m.Params), m.Results, m.Variadic)
	if m.Static {
		return fmt.Sprintf("func %s%s", m.Name, sig.GoString[len("func"):])
	}
	return fmt.Sprintf("method %s%s", m.Name, sig.GoString[len("func"):])
}

package bind

import (
	"fmt"
	"strings"
)

// Kind classifies binding failures. Kinds are errors themselves, so
// errors.Is(err, bind.PropertyNotWritable) matches any *Error of that kind.
type Kind int

const (
	MemberNotFound Kind = iota + 1
	MethodNotFound
	AmbiguousOrMissingMethod
	ParameterLimitExceeded
	ReturnByReferenceUnsupported
	PropertyNotWritable
	ParameterShapeMismatch
	StaticPropertyOnInstanceMember
	MethodNotIntrospectable
	MissingInstanceConstructor
)

var kindNames = map[Kind]string{
	MemberNotFound:                 "member not found",
	MethodNotFound:                 "method not found",
	AmbiguousOrMissingMethod:       "ambiguous or missing method",
	ParameterLimitExceeded:         "parameter limit exceeded",
	ReturnByReferenceUnsupported:   "return by reference unsupported",
	PropertyNotWritable:            "property not writable",
	ParameterShapeMismatch:         "parameter shape mismatch",
	StaticPropertyOnInstanceMember: "static property stub on instance member",
	MethodNotIntrospectable:        "method not introspectable",
	MissingInstanceConstructor:     "missing instance constructor",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) Error() string { return k.String() }

// Error is a binding failure of one stub (or of the proxy as a whole when
// Stub is empty).
type Error struct {
	Kind   Kind
	Proxy  string
	Stub   string
	Target string
	Pos    string
	Detail string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Pos != "" {
		b.WriteString(e.Pos)
		b.WriteString(": ")
	}
	b.WriteString(e.Proxy)
	if e.Stub != "" {
		b.WriteString(".")
		b.WriteString(e.Stub)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Target != "" {
		b.WriteString(" (target ")
		b.WriteString(e.Target)
		b.WriteString(")")
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Kind }

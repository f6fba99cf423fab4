package tamper

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrMemberNotFound is returned when no field or property matches a name
	// in any resolution tier.
	ErrMemberNotFound = errors.New("member not found")

	// ErrMethodNotFound is returned when zero or several methods match a name
	// and signature.
	ErrMethodNotFound = errors.New("method not found")

	// ErrPropertyNotWritable is returned when a setter is requested for a
	// property without a setter.
	ErrPropertyNotWritable = errors.New("property not writable")

	// ErrParameterLimitExceeded is returned for invokers with more than
	// MaxParams parameters.
	ErrParameterLimitExceeded = errors.New("parameter limit exceeded")

	// ErrShapeMismatch is returned when the requested callable type does not
	// fit the factory (wrong entity, void-ness or semantics).
	ErrShapeMismatch = errors.New("callable shape mismatch")

	// ErrTypeMismatch is returned when a member's type cannot be read into or
	// written from the requested value type.
	ErrTypeMismatch = errors.New("type mismatch")
)

func memberNotFound(name string, t reflect.Type, static bool) error {
	scope := "instance"
	if static {
		scope = "static"
	}
	return fmt.Errorf("%w: %s member %q on %s", ErrMemberNotFound, scope, name, typeName(t))
}

func methodNotFound(name string, t reflect.Type, ft reflect.Type, matches int) error {
	if matches > 1 {
		return fmt.Errorf("%w: %q on %s is ambiguous for %s (%d candidates)",
			ErrMethodNotFound, name, typeName(t), ft, matches)
	}
	return fmt.Errorf("%w: %q on %s with signature %s", ErrMethodNotFound, name, typeName(t), ft)
}

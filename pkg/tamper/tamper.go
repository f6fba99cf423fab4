// Package tamper is the runtime half of the tamper generator.
//
// Code written by `tamper gen` resolves every bound member exactly once,
// from an init function, through the factories in this package:
//
//   - Get, GetStatic, Set, SetValue and SetStatic build field and property
//     accessors;
//   - Call, CallVoid, CallStatic and CallStaticVoid build method invokers.
//
// The returned func values are kept in package-level cells and called
// directly afterwards, so no lookup happens on the call path.
//
// Go reflection cannot see package-level symbols or unexported methods.
// Such members are published by the target package through Expose, usually
// from a file generated by `tamper expose`.
package tamper

import (
	"errors"
	"reflect"
)

// MaxParams is the largest number of explicit parameters an invoker accepts,
// not counting the entity of an instance call.
const MaxParams = 15

// Stub is the placeholder panic value of stub bodies. A stub file is only
// compiled with the tamperstub build tag, so reaching it means the
// generated file is missing.
var Stub = errors.New("tamper: stub body called; run tamper gen")

// Must returns f or panics with err. Generated init functions wrap every
// factory call with it so a broken binding fails at program start.
func Must[F any](f F, err error) F {
	if err != nil {
		panic(err)
	}
	return f
}

// entityType strips one level of pointer from an entity type and reports
// whether the entity is held by reference.
func entityType(et reflect.Type) (reflect.Type, bool) {
	if et.Kind() == reflect.Pointer {
		return et.Elem(), true
	}
	return et, false
}

// typeName returns the fully qualified name used in error messages.
func typeName(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// valueOf converts a reflected member value to V, mapping invalid and nil
// interface values to the zero value.
func valueOf[V any](rv reflect.Value) V {
	var zero V
	if !rv.IsValid() {
		return zero
	}
	if rv.Kind() == reflect.Interface && rv.IsNil() {
		return zero
	}
	return rv.Interface().(V)
}

package tamper

import (
	"reflect"
	"strings"
	"unsafe"
)

// slot is a resolved field or property.
//
// For instance slots recv is an addressable value of the struct type; for
// static slots it is ignored.
type slot struct {
	typ reflect.Type
	get func(recv reflect.Value) reflect.Value
	set func(recv, v reflect.Value) // nil when read-only
}

func (s *slot) writable() bool { return s.set != nil }

var errorType = reflect.TypeFor[error]()

// nameEq compares member names.
type nameEq func(a, b string) bool

// nameMatchers are tried in order: an exact match anywhere beats a
// case-insensitive one, so members differing only in case stay apart.
var nameMatchers = []nameEq{
	func(a, b string) bool { return a == b },
	strings.EqualFold,
}

// strategy is one resolution tier. Tiers are tried in order and the first
// match wins.
type strategy func(t reflect.Type, name string, eq nameEq) (*slot, bool)

var (
	instanceTiers = []strategy{
		exportedProperty,
		exportedField,
		exposedProperty(false, false),
		unexportedField,
	}
	staticTiers = []strategy{
		exposedProperty(true, true),
		exposedVar(true),
		exposedProperty(true, false),
		exposedVar(false),
	}
)

func resolve(tiers []strategy, t reflect.Type, name string, static bool) (*slot, error) {
	for _, eq := range nameMatchers {
		for _, tier := range tiers {
			if s, ok := tier(t, name, eq); ok {
				return s, nil
			}
		}
	}
	return nil, memberNotFound(name, t, static)
}

func exportedProperty(t reflect.Type, name string, eq nameEq) (*slot, bool) {
	pt := reflect.PointerTo(t)
	getter, ok := findMethod(pt, name, eq, func(mt reflect.Type) bool {
		return mt.NumIn() == 1 && mt.NumOut() == 1 && mt.Out(0) != errorType
	})
	if !ok {
		return nil, false
	}
	vt := getter.Type.Out(0)
	s := &slot{
		typ: vt,
		get: func(recv reflect.Value) reflect.Value {
			return getter.Func.Call([]reflect.Value{recv.Addr()})[0]
		},
	}
	setter, ok := findMethod(pt, "Set"+getter.Name, strings.EqualFold, func(mt reflect.Type) bool {
		return mt.NumIn() == 2 && mt.NumOut() == 0 && mt.In(1) == vt
	})
	if ok {
		s.set = func(recv, v reflect.Value) {
			setter.Func.Call([]reflect.Value{recv.Addr(), v})
		}
	}
	return s, true
}

func findMethod(t reflect.Type, name string, eq nameEq, shape func(reflect.Type) bool) (reflect.Method, bool) {
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if eq(m.Name, name) && shape(m.Type) {
			return m, true
		}
	}
	return reflect.Method{}, false
}

func exportedField(t reflect.Type, name string, eq nameEq) (*slot, bool) {
	return structField(t, name, eq, true)
}

func unexportedField(t reflect.Type, name string, eq nameEq) (*slot, bool) {
	return structField(t, name, eq, false)
}

func structField(t reflect.Type, name string, eq nameEq, exported bool) (*slot, bool) {
	if t.Kind() != reflect.Struct {
		return nil, false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.IsExported() != exported || !eq(f.Name, name) {
			continue
		}
		index := i
		field := func(recv reflect.Value) reflect.Value {
			fv := recv.Field(index)
			if exported {
				return fv
			}
			return reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem()
		}
		return &slot{
			typ: f.Type,
			get: field,
			set: func(recv, v reflect.Value) { field(recv).Set(v) },
		}, true
	}
	return nil, false
}

func exposedProperty(static, exported bool) strategy {
	return func(t reflect.Type, name string, eq nameEq) (*slot, bool) {
		for _, m := range Exposed(t) {
			if m.kind != kindProp || m.static != static || !eq(m.name, name) {
				continue
			}
			if static && m.exported() != exported {
				continue
			}
			return propertySlot(m), true
		}
		return nil, false
	}
}

func propertySlot(m Member) *slot {
	getter, setter := m.value, m.setter
	s := &slot{typ: getter.Type().Out(0)}
	if m.static {
		s.get = func(reflect.Value) reflect.Value { return getter.Call(nil)[0] }
		if setter.IsValid() {
			s.set = func(_, v reflect.Value) { setter.Call([]reflect.Value{v}) }
		}
		return s
	}
	s.get = func(recv reflect.Value) reflect.Value {
		return getter.Call([]reflect.Value{receiver(recv, getter.Type().In(0))})[0]
	}
	if setter.IsValid() {
		s.set = func(recv, v reflect.Value) {
			setter.Call([]reflect.Value{receiver(recv, setter.Type().In(0)), v})
		}
	}
	return s
}

func exposedVar(exported bool) strategy {
	return func(t reflect.Type, name string, eq nameEq) (*slot, bool) {
		for _, m := range Exposed(t) {
			if m.kind != kindVar || m.exported() != exported || !eq(m.name, name) {
				continue
			}
			ptr := m.value
			return &slot{
				typ: ptr.Type().Elem(),
				get: func(reflect.Value) reflect.Value { return ptr.Elem() },
				set: func(_, v reflect.Value) { ptr.Elem().Set(v) },
			}, true
		}
		return nil, false
	}
}

// receiver adapts an addressable struct value to a method receiver of type
// want (T or *T).
func receiver(recv reflect.Value, want reflect.Type) reflect.Value {
	if want.Kind() == reflect.Pointer && recv.Type() == want.Elem() {
		return recv.Addr()
	}
	return recv
}

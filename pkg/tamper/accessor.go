package tamper

import (
	"fmt"
	"reflect"
)

// Get returns a getter for the instance field or property name of entity
// type E. E is either a struct type or a pointer to one.
//
// Lookup order: exported property, exported field, exposed unexported
// property, unexported field. Names compare case-insensitively.
func Get[E, V any](name string) (func(E) V, error) {
	t, byRef := entityType(reflect.TypeFor[E]())
	s, err := resolve(instanceTiers, t, name, false)
	if err != nil {
		return nil, err
	}
	if err := readable(s, reflect.TypeFor[V](), name, t); err != nil {
		return nil, err
	}
	return func(e E) V {
		return valueOf[V](s.get(entityValue(reflect.ValueOf(e), t, byRef)))
	}, nil
}

// GetStatic returns a getter for a package-level variable or property
// exposed for T.
func GetStatic[T, V any](name string) (func() V, error) {
	t, _ := entityType(reflect.TypeFor[T]())
	s, err := resolve(staticTiers, t, name, true)
	if err != nil {
		return nil, err
	}
	if err := readable(s, reflect.TypeFor[V](), name, t); err != nil {
		return nil, err
	}
	return func() V {
		return valueOf[V](s.get(reflect.Value{}))
	}, nil
}

// Set returns a setter for the instance field or property name of a
// reference entity. E must be a pointer; value entities use SetValue.
func Set[E, V any](name string) (func(E, V), error) {
	et := reflect.TypeFor[E]()
	t, byRef := entityType(et)
	if !byRef {
		return nil, fmt.Errorf("%w: %s is a value entity, a setter needs SetValue", ErrShapeMismatch, et)
	}
	s, err := writableSlot(instanceTiers, t, name, reflect.TypeFor[V](), false)
	if err != nil {
		return nil, err
	}
	return func(e E, v V) {
		s.set(reflect.ValueOf(e).Elem(), reflect.ValueOf(&v).Elem())
	}, nil
}

// SetValue returns a setter for a value entity T. The entity is passed
// in-out through a pointer so the write lands in the caller's copy.
func SetValue[T, V any](name string) (func(*T, V), error) {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Pointer {
		return nil, fmt.Errorf("%w: %s is a reference entity, use Set", ErrShapeMismatch, t)
	}
	s, err := writableSlot(instanceTiers, t, name, reflect.TypeFor[V](), false)
	if err != nil {
		return nil, err
	}
	return func(e *T, v V) {
		s.set(reflect.ValueOf(e).Elem(), reflect.ValueOf(&v).Elem())
	}, nil
}

// SetStatic returns a setter for a package-level variable or property
// exposed for T.
func SetStatic[T, V any](name string) (func(V), error) {
	t, _ := entityType(reflect.TypeFor[T]())
	s, err := writableSlot(staticTiers, t, name, reflect.TypeFor[V](), true)
	if err != nil {
		return nil, err
	}
	return func(v V) {
		s.set(reflect.Value{}, reflect.ValueOf(&v).Elem())
	}, nil
}

func writableSlot(tiers []strategy, t reflect.Type, name string, vt reflect.Type, static bool) (*slot, error) {
	s, err := resolve(tiers, t, name, static)
	if err != nil {
		return nil, err
	}
	if !s.writable() {
		return nil, fmt.Errorf("%w: %q on %s has no setter", ErrPropertyNotWritable, name, typeName(t))
	}
	if !vt.AssignableTo(s.typ) {
		return nil, fmt.Errorf("%w: cannot assign %s to %q (%s) on %s", ErrTypeMismatch, vt, name, s.typ, typeName(t))
	}
	return s, nil
}

func readable(s *slot, vt reflect.Type, name string, t reflect.Type) error {
	if !s.typ.AssignableTo(vt) {
		return fmt.Errorf("%w: cannot read %q (%s) on %s as %s", ErrTypeMismatch, name, s.typ, typeName(t), vt)
	}
	return nil
}

// entityValue returns an addressable struct value for an entity. Value
// entities are copied first, so reads never alias the caller's copy.
func entityValue(ev reflect.Value, t reflect.Type, byRef bool) reflect.Value {
	if byRef {
		return ev.Elem()
	}
	c := reflect.New(t).Elem()
	c.Set(ev)
	return c
}

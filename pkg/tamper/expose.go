package tamper

import (
	"fmt"
	"go/token"
	"reflect"
	"sync"
)

type memberKind int

const (
	kindVar    memberKind = iota // package-level variable
	kindProp                     // getter/setter pair
	kindFunc                     // package-level function or method expression
)

// Member is one entry of an exposure table. Build members with Var,
// StaticProp, Func, Method and Prop.
type Member struct {
	name   string
	kind   memberKind
	static bool

	// value is the variable pointer, the function, or the property getter.
	value reflect.Value

	// setter is the property setter; invalid for read-only properties.
	setter reflect.Value
}

func (m Member) exported() bool { return token.IsExported(m.name) }

// Var exposes a package-level variable through a pointer to it.
func Var(name string, ptr any) Member {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		panic(fmt.Sprintf("tamper: Var(%q): want non-nil pointer, got %T", name, ptr))
	}
	return Member{name: name, kind: kindVar, static: true, value: v}
}

// StaticProp exposes a package-level getter/setter pair. set may be nil for
// a read-only property.
func StaticProp(name string, get, set any) Member {
	m := Member{name: name, kind: kindProp, static: true, value: funcValue(name, get)}
	if m.value.Type().NumIn() != 0 || m.value.Type().NumOut() != 1 {
		panic(fmt.Sprintf("tamper: StaticProp(%q): getter must be func() V, got %s", name, m.value.Type()))
	}
	if set != nil {
		m.setter = funcValue(name, set)
		if m.setter.Type().NumIn() != 1 || m.setter.Type().In(0) != m.value.Type().Out(0) {
			panic(fmt.Sprintf("tamper: StaticProp(%q): setter must be func(%s), got %s",
				name, m.value.Type().Out(0), m.setter.Type()))
		}
	}
	return m
}

// Func exposes a package-level function.
func Func(name string, fn any) Member {
	return Member{name: name, kind: kindFunc, static: true, value: funcValue(name, fn)}
}

// Method exposes a method through its method expression, e.g.
// (*T).method. The receiver is the first parameter.
func Method(name string, fn any) Member {
	v := funcValue(name, fn)
	if v.Type().NumIn() == 0 {
		panic(fmt.Sprintf("tamper: Method(%q): method expression needs a receiver, got %s", name, v.Type()))
	}
	return Member{name: name, kind: kindFunc, value: v}
}

// Prop exposes an instance property through method expressions of its
// getter and optional setter.
func Prop(name string, get, set any) Member {
	m := Member{name: name, kind: kindProp, value: funcValue(name, get)}
	gt := m.value.Type()
	if gt.NumIn() != 1 || gt.NumOut() != 1 {
		panic(fmt.Sprintf("tamper: Prop(%q): getter must be func(T) V, got %s", name, gt))
	}
	if set != nil {
		m.setter = funcValue(name, set)
		st := m.setter.Type()
		if st.NumIn() != 2 || st.NumOut() != 0 || st.In(1) != gt.Out(0) {
			panic(fmt.Sprintf("tamper: Prop(%q): setter must be func(T, %s), got %s", name, gt.Out(0), st))
		}
	}
	return m
}

func funcValue(name string, fn any) reflect.Value {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		panic(fmt.Sprintf("tamper: %q: want non-nil func, got %T", name, fn))
	}
	return v
}

var registry = struct {
	sync.RWMutex
	tables map[reflect.Type][]Member
}{tables: make(map[reflect.Type][]Member)}

// Expose registers members of T that reflection cannot reach. Calls for the
// same T accumulate.
func Expose[T any](members ...Member) {
	t, _ := entityType(reflect.TypeFor[T]())
	registry.Lock()
	defer registry.Unlock()
	registry.tables[t] = append(registry.tables[t], members...)
}

// Exposed returns the members registered for t, in registration order.
func Exposed(t reflect.Type) []Member {
	t, _ = entityType(t)
	registry.RLock()
	defer registry.RUnlock()
	return append([]Member(nil), registry.tables[t]...)
}

package tamper

import (
	"fmt"
	"reflect"
)

// family selects one of the four invoker factories.
type family struct {
	static bool
	void   bool
}

// Call returns an invoker for a method of entity E that returns at least
// one value. F is the full func type with E as its first parameter, e.g.
// func(*T, int, int) float32.
func Call[E, F any](name string) (F, error) {
	return bindCall[F](reflect.TypeFor[E](), name, family{})
}

// CallVoid is Call for methods without results.
func CallVoid[E, F any](name string) (F, error) {
	return bindCall[F](reflect.TypeFor[E](), name, family{void: true})
}

// CallStatic returns an invoker for a package-level function exposed for T
// that returns at least one value.
func CallStatic[T, F any](name string) (F, error) {
	return bindCall[F](reflect.TypeFor[T](), name, family{static: true})
}

// CallStaticVoid is CallStatic for functions without results.
func CallStaticVoid[T, F any](name string) (F, error) {
	return bindCall[F](reflect.TypeFor[T](), name, family{static: true, void: true})
}

func bindCall[F any](et reflect.Type, name string, fam family) (F, error) {
	var zero F
	ft := reflect.TypeFor[F]()
	if err := checkShape(ft, et, fam); err != nil {
		return zero, err
	}
	t, _ := entityType(et)

	var matches []reflect.Value
	for _, eq := range nameMatchers {
		matches = matches[:0]
		for _, c := range candidates(et, t, name, eq, fam.static) {
			if signatureMatches(c.Type(), ft, fam.static) {
				matches = append(matches, c)
			}
		}
		if len(matches) > 0 {
			break
		}
	}
	if len(matches) != 1 {
		return zero, methodNotFound(name, t, ft, len(matches))
	}
	return adapt(matches[0], ft, fam.static).Interface().(F), nil
}

func checkShape(ft, et reflect.Type, fam family) error {
	if ft.Kind() != reflect.Func {
		return fmt.Errorf("%w: %s is not a func type", ErrShapeMismatch, ft)
	}
	arity := ft.NumIn()
	if !fam.static {
		if arity == 0 || ft.In(0) != et {
			return fmt.Errorf("%w: %s must take the entity %s first", ErrShapeMismatch, ft, et)
		}
		arity--
	}
	if arity > MaxParams {
		return fmt.Errorf("%w: %d parameters, at most %d supported", ErrParameterLimitExceeded, arity, MaxParams)
	}
	if fam.void != (ft.NumOut() == 0) {
		if fam.void {
			return fmt.Errorf("%w: %s returns values, want a void func", ErrShapeMismatch, ft)
		}
		return fmt.Errorf("%w: %s returns nothing, want at least one result", ErrShapeMismatch, ft)
	}
	return nil
}

// candidates lists the funcs named name: exported methods found through
// reflection followed by exposed methods or functions. Method values take
// the receiver first.
func candidates(et, t reflect.Type, name string, eq nameEq, static bool) []reflect.Value {
	var out []reflect.Value
	if !static {
		pt := reflect.PointerTo(t)
		for i := 0; i < pt.NumMethod(); i++ {
			m := pt.Method(i)
			if !eq(m.Name, name) {
				continue
			}
			// value entities prefer the value receiver so the fast path applies
			if et == t {
				if vm, ok := t.MethodByName(m.Name); ok {
					out = append(out, vm.Func)
					continue
				}
			}
			out = append(out, m.Func)
		}
	}
	for _, m := range Exposed(t) {
		if m.kind == kindFunc && m.static == static && eq(m.name, name) {
			out = append(out, m.value)
		}
	}
	return out
}

// signatureMatches compares parameter and result types positionally. For
// instance calls the receivers may differ by one pointer level.
func signatureMatches(ct, ft reflect.Type, static bool) bool {
	if ct.NumIn() != ft.NumIn() || ct.NumOut() != ft.NumOut() || ct.IsVariadic() != ft.IsVariadic() {
		return false
	}
	first := 0
	if !static {
		if !receiverCompatible(ct.In(0), ft.In(0)) {
			return false
		}
		first = 1
	}
	for i := first; i < ct.NumIn(); i++ {
		if ct.In(i) != ft.In(i) {
			return false
		}
	}
	for i := 0; i < ct.NumOut(); i++ {
		if ct.Out(i) != ft.Out(i) {
			return false
		}
	}
	return true
}

func receiverCompatible(want, have reflect.Type) bool {
	switch {
	case want == have:
		return true
	case want.Kind() == reflect.Pointer && want.Elem() == have:
		return true
	case have.Kind() == reflect.Pointer && have.Elem() == want:
		return true
	}
	return false
}

// adapt returns fn as a value of type ft, converting the receiver when the
// method's receiver differs from the entity type.
func adapt(fn reflect.Value, ft reflect.Type, static bool) reflect.Value {
	if fn.Type() == ft {
		return fn
	}
	var want reflect.Type
	if !static {
		want = fn.Type().In(0)
	}
	call := fn.Call
	if ft.IsVariadic() {
		call = fn.CallSlice
	}
	return reflect.MakeFunc(ft, func(args []reflect.Value) []reflect.Value {
		if !static {
			args[0] = convertReceiver(args[0], want)
		}
		return call(args)
	})
}

func convertReceiver(v reflect.Value, want reflect.Type) reflect.Value {
	switch {
	case v.Type() == want:
		return v
	case v.Kind() == reflect.Pointer:
		return v.Elem()
	default:
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		return p
	}
}

package inspect

import (
	"go/token"
	"go/types"

	"github.com/funvibe/tamper/internal/bind"
)

// Reflector implements bind.Reflector with go/types over the packages an
// Inspector loaded.
//
// It follows the conventions the runtime resolves at program start: struct
// fields, getter methods with optional SetX/setX setters, package-level
// variables and package-level getter functions.
type Reflector struct {
	ins *Inspector
}

var _ bind.Reflector = (*Reflector)(nil)

// named returns the target type and its package.
func (r *Reflector) named(target bind.TypeRef) (*types.Named, *types.Package, bool) {
	pkg, ok := r.ins.loaded[target.PkgPath]
	if !ok || pkg.Types == nil {
		return nil, nil, false
	}
	obj, ok := pkg.Types.Scope().Lookup(target.TypeName).(*types.TypeName)
	if !ok {
		return nil, nil, false
	}
	named, ok := types.Unalias(obj.Type()).(*types.Named)
	return named, pkg.Types, ok
}

func (r *Reflector) FindMember(target bind.TypeRef, q bind.Query) (bind.FieldOrProp, bool) {
	exported := token.IsExported(q.Name)
	if exported != (q.Visibility == bind.Exported) {
		return nil, false
	}
	named, pkg, ok := r.named(target)
	if !ok {
		return nil, false
	}
	info := bind.MemberInfo{Name: q.Name, Static: q.Static, Exported: exported}

	switch {
	case q.Kind == bind.KindField && !q.Static:
		st, ok := named.Underlying().(*types.Struct)
		if !ok {
			return nil, false
		}
		for i := 0; i < st.NumFields(); i++ {
			if f := st.Field(i); f.Name() == q.Name {
				info.Type, info.Writable = typeRef(f.Type()), true
				return &bind.Field{MemberInfo: info}, true
			}
		}

	case q.Kind == bind.KindField:
		if v, ok := pkg.Scope().Lookup(q.Name).(*types.Var); ok {
			info.Type, info.Writable = typeRef(v.Type()), true
			return &bind.Field{MemberInfo: info}, true
		}

	case !q.Static:
		getter := method(named, pkg, q.Name)
		if getter == nil || !isGetter(getter.Signature()) {
			return nil, false
		}
		v := getter.Signature().Results().At(0).Type()
		prop := &bind.Property{MemberInfo: info, Getter: q.Name}
		prop.Type = typeRef(v)
		if setter := method(named, pkg, setterName(q.Name)); setter != nil && isSetterOf(setter.Signature(), v) {
			prop.Setter, prop.Writable = setter.Name(), true
		}
		return prop, true

	default:
		getter, ok := pkg.Scope().Lookup(q.Name).(*types.Func)
		if !ok || !isGetter(getter.Signature()) {
			return nil, false
		}
		v := getter.Signature().Results().At(0).Type()
		prop := &bind.Property{MemberInfo: info, Getter: q.Name}
		prop.Type = typeRef(v)
		if setter, ok := pkg.Scope().Lookup(setterName(q.Name)).(*types.Func); ok && isSetterOf(setter.Signature(), v) {
			prop.Setter, prop.Writable = setter.Name(), true
		}
		return prop, true
	}
	return nil, false
}

func (r *Reflector) FindMethods(target bind.TypeRef, name string) []*bind.Method {
	named, pkg, ok := r.named(target)
	if !ok {
		return nil
	}

	var out []*bind.Method
	if fn := method(named, pkg, name); fn != nil {
		sig := fn.Signature()
		_, ptr := sig.Recv().Type().(*types.Pointer)
		out = append(out, &bind.Method{
			Name:     fn.Name(),
			Params:   tupleParams(sig.Params()),
			Results:  tupleRefs(sig.Results()),
			Variadic: sig.Variadic(),
			Exported: fn.Exported(),
			PtrRecv:  ptr,
		})
	}
	if fn, ok := pkg.Scope().Lookup(name).(*types.Func); ok && fn.Signature().TypeParams() == nil {
		sig := fn.Signature()
		out = append(out, &bind.Method{
			Name:     fn.Name(),
			Params:   tupleParams(sig.Params()),
			Results:  tupleRefs(sig.Results()),
			Variadic: sig.Variadic(),
			Static:   true,
			Exported: fn.Exported(),
		})
	}
	return out
}

func (r *Reflector) SameType(a, b bind.TypeRef) bool { return bind.SameTypeName(a, b) }

// method looks name up in the method set of *named, promoted methods
// included. Unexported names resolve in pkg only.
func method(named *types.Named, pkg *types.Package, name string) *types.Func {
	if name == "" {
		return nil
	}
	obj, _, _ := types.LookupFieldOrMethod(types.NewPointer(named), true, pkg, name)
	fn, _ := obj.(*types.Func)
	return fn
}

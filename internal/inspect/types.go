package inspect

import (
	"go/token"
	"go/types"
	"strconv"
	"strings"

	"github.com/funvibe/tamper/internal/bind"
)

// typeRef converts a go/types.Type to a bind.TypeRef. Aliases are resolved
// and predeclared aliases (byte, rune, any) are normalized so identical
// types always get identical GoString values.
func typeRef(t types.Type) bind.TypeRef {
	t = types.Unalias(t)
	switch t := t.(type) {
	case *types.Basic:
		return bind.Basic(types.Typ[t.Kind()].Name())

	case *types.Named:
		if isErrorType(t) {
			return bind.Basic("error")
		}
		obj := t.Obj()
		pkgPath := ""
		if obj.Pkg() != nil {
			pkgPath = obj.Pkg().Path()
		}
		kind := bind.TypeNamed
		switch t.Underlying().(type) {
		case *types.Struct:
			kind = bind.TypeStruct
		case *types.Interface:
			kind = bind.TypeInterface
		}
		ref := bind.Named(pkgPath, obj.Name(), kind)
		if targs := t.TypeArgs(); targs != nil {
			args := make([]string, targs.Len())
			for i := range args {
				a := typeRef(targs.At(i))
				ref.Args = append(ref.Args, a)
				args[i] = a.GoString
			}
			ref.GoString += "[" + strings.Join(args, ", ") + "]"
		}
		return ref

	case *types.Pointer:
		return bind.PointerTo(typeRef(t.Elem()))

	case *types.Slice:
		return bind.SliceOf(typeRef(t.Elem()))

	case *types.Array:
		elem := typeRef(t.Elem())
		gs := "[" + strconv.FormatInt(t.Len(), 10) + "]" + elem.GoString
		return bind.TypeRef{Kind: bind.TypeArray, GoString: gs, Elem: &elem, Len: t.Len()}

	case *types.Map:
		key, val := typeRef(t.Key()), typeRef(t.Elem())
		gs := "map[" + key.GoString + "]" + val.GoString
		return bind.TypeRef{Kind: bind.TypeMap, GoString: gs, Key: &key, Elem: &val}

	case *types.Chan:
		elem := typeRef(t.Elem())
		gs := chanDir[t.Dir()] + elem.GoString
		return bind.TypeRef{Kind: bind.TypeChan, GoString: gs, Elem: &elem}

	case *types.Signature:
		params, results := tupleRefs(t.Params()), tupleRefs(t.Results())
		return bind.FuncOf(params, results, t.Variadic())

	case *types.Interface:
		if t.Empty() {
			return bind.Basic("any")
		}
		return bind.TypeRef{Kind: bind.TypeInterface, GoString: types.TypeString(t, nil)}

	case *types.Struct:
		return bind.TypeRef{Kind: bind.TypeStruct, GoString: types.TypeString(t, nil)}
	}
	return bind.TypeRef{Kind: bind.TypeNamed, GoString: types.TypeString(t, nil)}
}

var chanDir = map[types.ChanDir]string{
	types.SendRecv: "chan ",
	types.SendOnly: "chan<- ",
	types.RecvOnly: "<-chan ",
}

func tupleRefs(tuple *types.Tuple) []bind.TypeRef {
	out := make([]bind.TypeRef, tuple.Len())
	for i := range out {
		out[i] = typeRef(tuple.At(i).Type())
	}
	return out
}

func tupleParams(tuple *types.Tuple) []bind.Param {
	out := make([]bind.Param, tuple.Len())
	for i := range out {
		v := tuple.At(i)
		out[i] = bind.Param{Name: v.Name(), Type: typeRef(v.Type())}
	}
	return out
}

// isErrorType checks if a type is the error interface.
func isErrorType(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}

// isGetter reports whether sig is func() V with V not error. recv is
// ignored, so methods and functions are treated alike.
func isGetter(sig *types.Signature) bool {
	return sig.TypeParams() == nil && sig.Params().Len() == 0 && sig.Results().Len() == 1 &&
		!isErrorType(sig.Results().At(0).Type())
}

// isSetterOf reports whether sig is func(V) with V identical to v.
func isSetterOf(sig *types.Signature, v types.Type) bool {
	return sig.TypeParams() == nil && sig.Params().Len() == 1 && sig.Results().Len() == 0 && !sig.Variadic() &&
		types.Identical(sig.Params().At(0).Type(), v)
}

// setterName returns the setter paired with getter: SetX for exported
// getters, setX for unexported ones.
func setterName(getter string) string {
	if getter == "" {
		return ""
	}
	if token.IsExported(getter) {
		return "Set" + getter
	}
	return "set" + string(upper(getter[0])) + getter[1:]
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

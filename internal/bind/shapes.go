package bind

import "github.com/funvibe/tamper/pkg/tamper"

// MaxParams mirrors the runtime ceiling on invoker arity.
const MaxParams = tamper.MaxParams

type invokerKey struct {
	arity int
	void  bool
}

// invokerShape is the runtime factory pair for one (arity, void) entry.
type invokerShape struct {
	instance Factory
	static   Factory
}

func (s invokerShape) factory(static bool) Factory {
	if static {
		return s.static
	}
	return s.instance
}

// invokerShapes has one entry per arity 0..MaxParams and void-ness. A
// missing key means the arity is not supported.
var invokerShapes = func() map[invokerKey]invokerShape {
	m := make(map[invokerKey]invokerShape, 2*(MaxParams+1))
	for n := 0; n <= MaxParams; n++ {
		m[invokerKey{n, false}] = invokerShape{instance: FactoryCall, static: FactoryCallStatic}
		m[invokerKey{n, true}] = invokerShape{instance: FactoryCallVoid, static: FactoryCallStaticVoid}
	}
	return m
}()

func lookupInvoker(arity int, void bool) (invokerShape, bool) {
	s, ok := invokerShapes[invokerKey{arity, void}]
	return s, ok
}

// invokerCell returns the cell type of an invoker and the type arguments
// of its factory. entity is nil for static calls; owner is the target type
// static factories are keyed by.
func invokerCell(entity *TypeRef, owner TypeRef, params, results []TypeRef, variadic bool) (TypeRef, []TypeRef) {
	in := params
	if entity != nil {
		in = append([]TypeRef{*entity}, params...)
	}
	ft := FuncOf(in, results, variadic)
	if entity != nil {
		return ft, []TypeRef{*entity, ft}
	}
	return ft, []TypeRef{owner, ft}
}

type accessorKey struct {
	set     bool
	static  bool
	byValue bool
}

// accessorShape builds the cell type and factory type arguments from the
// entity (or owner) type and the value type.
type accessorShape struct {
	factory Factory
	build   func(entity, value TypeRef) (cell TypeRef, typeArgs []TypeRef)
}

var accessorShapes = map[accessorKey]accessorShape{
	{set: false, static: false}: {FactoryGet, func(e, v TypeRef) (TypeRef, []TypeRef) {
		return FuncOf([]TypeRef{e}, []TypeRef{v}, false), []TypeRef{e, v}
	}},
	{set: false, static: false, byValue: true}: {FactoryGet, func(e, v TypeRef) (TypeRef, []TypeRef) {
		return FuncOf([]TypeRef{e}, []TypeRef{v}, false), []TypeRef{e, v}
	}},
	{set: false, static: true}: {FactoryGetStatic, func(t, v TypeRef) (TypeRef, []TypeRef) {
		return FuncOf(nil, []TypeRef{v}, false), []TypeRef{t, v}
	}},
	{set: true, static: false}: {FactorySet, func(e, v TypeRef) (TypeRef, []TypeRef) {
		return FuncOf([]TypeRef{e, v}, nil, false), []TypeRef{e, v}
	}},
	{set: true, static: false, byValue: true}: {FactorySetValue, func(t, v TypeRef) (TypeRef, []TypeRef) {
		return FuncOf([]TypeRef{PointerTo(t), v}, nil, false), []TypeRef{t, v}
	}},
	{set: true, static: true}: {FactorySetStatic, func(t, v TypeRef) (TypeRef, []TypeRef) {
		return FuncOf([]TypeRef{v}, nil, false), []TypeRef{t, v}
	}},
}

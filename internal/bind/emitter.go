package bind

// Factory names a factory function of the runtime package.
type Factory string

const (
	FactoryGet            Factory = "Get"
	FactoryGetStatic      Factory = "GetStatic"
	FactorySet            Factory = "Set"
	FactorySetValue       Factory = "SetValue"
	FactorySetStatic      Factory = "SetStatic"
	FactoryCall           Factory = "Call"
	FactoryCallVoid       Factory = "CallVoid"
	FactoryCallStatic     Factory = "CallStatic"
	FactoryCallStaticVoid Factory = "CallStaticVoid"
)

// Cell is the storage cell of one thunk: a package-level variable holding
// the bound accessor or invoker.
type Cell struct {
	Name string
	Type TypeRef // always a func type
}

// HeldField is the proxy field holding the wrapped target instance.
type HeldField struct {
	Name string
	Type TypeRef
}

// Body receives the instructions of one function body. Instructions work
// on an operand stack:
//
//	LoadArg        push argument n (0 is the receiver of methods)
//	LoadString     push a string constant
//	LoadCell       push a storage cell
//	StoreCell      pop a value into a storage cell
//	LoadField      pop a proxy, push its held field
//	LoadFieldAddr  pop a proxy, push the address of its held field
//	CallFactory    pop a member name, push the bound accessor or invoker
//	CallValue      pop args and a callee, push the result unless void
//	Construct      pop a value, push a new proxy holding it
//	Return         pop the result, if any, and return
type Body interface {
	LoadArg(n int)
	LoadString(s string)
	LoadCell(c *Cell)
	StoreCell(c *Cell)
	LoadField(f *HeldField)
	LoadFieldAddr(f *HeldField)
	CallFactory(f Factory, typeArgs ...TypeRef)
	CallValue(args int, void bool)
	Construct(p *Proxy, f *HeldField)
	Return()

	// Commit flushes the body. It fails when the instruction sequence is
	// malformed.
	Commit() error
}

// Emitter receives the declarations and bodies synthesized for proxies.
type Emitter interface {
	// DeclareProxy declares the proxy type; held is nil unless the proxy
	// wraps an instance.
	DeclareProxy(p *Proxy, held *HeldField) error

	DeclareCell(c *Cell) error

	// InitBody returns the body of the initialization function shared by
	// all cells of the proxy.
	InitBody() Body

	StubBody(p *Proxy, s *StubMember) Body
	ConstructorBody(p *Proxy, c *Constructor) Body
}

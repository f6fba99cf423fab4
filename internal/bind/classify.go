package bind

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// PassContext is the state of binding one proxy. A new context is created
// for every proxy; nothing carries over between proxies.
type PassContext struct {
	proxy  *Proxy
	target TypeRef
	refl   Reflector
	out    Emitter
	log    logrus.FieldLogger

	// stub is the stub being bound, nil outside the stub loop.
	stub *StubMember

	// held is created by the first stub that needs the wrapped instance.
	held *HeldField
}

func newPass(p *Proxy, refl Reflector, out Emitter, log logrus.FieldLogger) *PassContext {
	return &PassContext{
		proxy:  p,
		target: p.Target,
		refl:   refl,
		out:    out,
		log:    log.WithField("proxy", p.Name),
	}
}

func (pc *PassContext) fail(kind Kind, format string, args ...any) error {
	e := &Error{
		Kind:   kind,
		Proxy:  pc.proxy.Name,
		Target: pc.target.GoString,
		Pos:    pc.proxy.Pos,
		Detail: fmt.Sprintf(format, args...),
	}
	if pc.stub != nil {
		e.Stub = pc.stub.Name
		if pc.stub.Pos != "" {
			e.Pos = pc.stub.Pos
		}
	}
	return e
}

// run binds every stub in declaration order and stops at the first failure.
func (pc *PassContext) run() error {
	for _, s := range pc.proxy.Stubs {
		pc.stub = s
		if err := pc.bindStub(s); err != nil {
			return err
		}
	}
	pc.stub = nil

	// A declared constructor is rewritten even when no stub used the
	// instance, so New<Proxy> always returns a usable value.
	if pc.held == nil && pc.proxy.Constructor != nil {
		if _, err := pc.heldInstance(); err != nil {
			return err
		}
	}
	return pc.out.DeclareProxy(pc.proxy, pc.held)
}

func (pc *PassContext) bindStub(s *StubMember) error {
	name := s.Bind
	if name == "" {
		name = s.Name
	}

	if fp, ok := findFieldOrProp(pc.refl, pc.target, name); ok {
		return pc.bindAccess(s, fp)
	}

	if s.Special != SpecialNone {
		if len(pc.refl.FindMethods(pc.target, name)) > 0 {
			return pc.fail(MethodNotIntrospectable,
				"%q is a method; %s stubs bind fields and properties only", name, s.Special)
		}
		return pc.fail(MemberNotFound, "no field or property named %q", name)
	}

	m, err := pc.matchMethod(s, name)
	if err != nil {
		return err
	}
	return pc.bindCall(s, m)
}

// bindAccess synthesizes a getter or setter thunk for a field or property.
func (pc *PassContext) bindAccess(s *StubMember, fp FieldOrProp) error {
	info := fp.Info()

	if s.Special != SpecialNone && s.Static && !info.Static {
		return pc.fail(StaticPropertyOnInstanceMember,
			"%s %q belongs to each instance; declare a plain stub taking the instance instead", fp.Kind(), info.Name)
	}

	if info.Type.Unspellable() {
		return pc.fail(ParameterShapeMismatch,
			"%s %q has type %s, which generated code cannot name", fp.Kind(), info.Name, info.Type)
	}

	if len(s.Results) == 1 && s.Results[0].IsPointer() && pc.refl.SameType(*s.Results[0].Elem, info.Type) {
		return pc.fail(ReturnByReferenceUnsupported,
			"stub returns %s, a reference to %s %q", s.Results[0], fp.Kind(), info.Name)
	}

	// explicit is the number of leading parameters that carry the instance.
	explicit := 0
	if !info.Static && s.Static {
		explicit = 1
	}

	var set bool
	switch s.Special {
	case SpecialGet:
	case SpecialSet:
		set = true
	default:
		switch len(s.Params) {
		case explicit:
		case explicit + 1:
			set = true
		default:
			return pc.fail(ParameterShapeMismatch,
				"%s %q takes %d parameters to read or %d to write, stub declares %d",
				fp.Kind(), info.Name, explicit, explicit+1, len(s.Params))
		}
	}

	if set && !info.Writable {
		return pc.fail(PropertyNotWritable, "%s %q has no setter", fp.Kind(), info.Name)
	}

	want := explicit
	if set {
		want++
	}
	if len(s.Params) != want {
		return pc.fail(ParameterShapeMismatch,
			"%s stub for %s %q takes %d parameters, stub declares %d", verb(set), fp.Kind(), info.Name, want, len(s.Params))
	}
	if set {
		if !s.IsVoid() {
			return pc.fail(ParameterShapeMismatch, "setter stub must not return a value, returns %s", describeTypes(s.Results))
		}
		if v := s.Params[want-1].Type; !pc.refl.SameType(v, info.Type) {
			return pc.fail(ParameterShapeMismatch, "%s %q is %s, stub passes %s", fp.Kind(), info.Name, info.Type, v)
		}
	} else if len(s.Results) != 1 || !pc.refl.SameType(s.Results[0], info.Type) {
		return pc.fail(ParameterShapeMismatch, "%s %q is %s, stub returns %s", fp.Kind(), info.Name, info.Type, describeTypes(s.Results))
	}

	key := accessorKey{set: set, static: info.Static}
	entity := pc.target
	var held *HeldField
	switch {
	case info.Static:
	case s.Static:
		entity = s.Params[0].Type
		if !pc.isEntity(entity) {
			return pc.fail(ParameterShapeMismatch,
				"first parameter of %s is %s, want %s or *%s", s.Name, entity, pc.target, pc.target)
		}
		if !entity.IsPointer() {
			if set {
				return pc.fail(ParameterShapeMismatch,
					"%s is passed by value so the write would be lost; take *%s", entity, pc.target)
			}
			key.byValue = true
		}
	default:
		var err error
		if held, err = pc.heldInstance(); err != nil {
			return err
		}
		entity = held.Type
		key.byValue = !entity.IsPointer()
	}

	shape := accessorShapes[key]
	cellType, typeArgs := shape.build(entity, info.Type)
	cell := &Cell{Name: pc.cellName(verb(set), s), Type: cellType}
	if err := pc.initCell(cell, info.Name, shape.factory, typeArgs); err != nil {
		return err
	}

	body := pc.out.StubBody(pc.proxy, s)
	body.LoadCell(cell)
	args := len(s.Params)
	if held != nil {
		body.LoadArg(0)
		if key.byValue && set {
			body.LoadFieldAddr(held)
		} else {
			body.LoadField(held)
		}
		args++
	}
	for i := range s.Params {
		body.LoadArg(i + 1)
	}
	body.CallValue(args, set)
	body.Return()
	if err := body.Commit(); err != nil {
		return err
	}

	pc.log.WithFields(logrus.Fields{
		"stub":   s.Name,
		"member": info.Name,
		"kind":   fp.Kind().String(),
	}).Debugf("bound %s", shape.factory)
	return nil
}

// bindCall synthesizes an invoker thunk for a matched method or function.
func (pc *PassContext) bindCall(s *StubMember, mm methodMatch) error {
	m := mm.method
	shape, ok := lookupInvoker(len(m.Params), len(m.Results) == 0)
	if !ok {
		return pc.fail(ParameterLimitExceeded, "%s has %d parameters, at most %d supported", m, len(m.Params), MaxParams)
	}

	var (
		entity *TypeRef
		held   *HeldField
	)
	switch {
	case m.Static:
	case mm.viaEntity:
		e := s.Params[0].Type
		entity = &e
	default:
		var err error
		if held, err = pc.heldInstance(); err != nil {
			return err
		}
		// Methods are always called through a pointer to a value-held
		// instance so pointer-receiver methods mutate the proxy's copy.
		e := held.Type
		if !e.IsPointer() {
			e = PointerTo(e)
		}
		entity = &e
	}

	factory := shape.factory(m.Static)
	cellType, typeArgs := invokerCell(entity, pc.target, paramTypes(m.Params), m.Results, m.Variadic)
	cell := &Cell{Name: pc.cellName("method", s), Type: cellType}
	if err := pc.initCell(cell, m.Name, factory, typeArgs); err != nil {
		return err
	}

	void := len(m.Results) == 0
	body := pc.out.StubBody(pc.proxy, s)
	body.LoadCell(cell)
	args := len(s.Params)
	if held != nil {
		body.LoadArg(0)
		if held.Type.IsPointer() {
			body.LoadField(held)
		} else {
			body.LoadFieldAddr(held)
		}
		args++
	}
	for i := range s.Params {
		body.LoadArg(i + 1)
	}
	body.CallValue(args, void)
	body.Return()
	if err := body.Commit(); err != nil {
		return err
	}

	pc.log.WithFields(logrus.Fields{
		"stub":   s.Name,
		"method": m.Name,
	}).Debugf("bound %s", factory)
	return nil
}

// initCell declares cell and appends its initialization to the shared init
// body.
func (pc *PassContext) initCell(cell *Cell, member string, f Factory, typeArgs []TypeRef) error {
	if err := pc.out.DeclareCell(cell); err != nil {
		return err
	}
	init := pc.out.InitBody()
	init.LoadString(member)
	init.CallFactory(f, typeArgs...)
	init.StoreCell(cell)
	return init.Commit()
}

// cellName returns _<Proxy>_call_<verb>_<Stub>.
func (pc *PassContext) cellName(verb string, s *StubMember) string {
	return "_" + pc.proxy.Name + "_call_" + verb + "_" + s.Name
}

func verb(set bool) string {
	if set {
		return "set"
	}
	return "get"
}

package bind

// HeldFieldName is the proxy field that holds the wrapped target.
const HeldFieldName = "instance"

// heldInstance returns the held-instance field of the proxy, creating it on
// first use. Creating the field also rewrites the constructor to store its
// argument, so that happens at most once per proxy.
func (pc *PassContext) heldInstance() (*HeldField, error) {
	if pc.held != nil {
		return pc.held, nil
	}

	ctor := pc.proxy.Constructor
	if ctor == nil {
		return nil, pc.fail(MissingInstanceConstructor,
			"instance stubs need func New%s(x *%s) *%s", pc.proxy.Name, pc.target, pc.proxy.Name)
	}
	if !pc.isEntity(ctor.Param.Type) {
		return nil, pc.fail(MissingInstanceConstructor,
			"%s takes %s, want %s or *%s", ctor.Name, ctor.Param.Type, pc.target, pc.target)
	}

	held := &HeldField{Name: HeldFieldName, Type: ctor.Param.Type}
	body := pc.out.ConstructorBody(pc.proxy, ctor)
	body.LoadArg(0)
	body.Construct(pc.proxy, held)
	body.Return()
	if err := body.Commit(); err != nil {
		return nil, err
	}

	pc.held = held
	pc.log.WithField("type", held.Type.String()).Debug("proxy wraps an instance")
	return held, nil
}

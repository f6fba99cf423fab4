package bind

import (
	"fmt"
	"strings"
)

// OpCode identifies a Body instruction.
type OpCode int

const (
	OpLoadArg OpCode = iota
	OpLoadString
	OpLoadCell
	OpStoreCell
	OpLoadField
	OpLoadFieldAddr
	OpCallFactory
	OpCallValue
	OpConstruct
	OpReturn
)

// Op is one recorded instruction.
type Op struct {
	Code     OpCode
	Arg      int
	Str      string
	Cell     *Cell
	Field    *HeldField
	Factory  Factory
	TypeArgs []TypeRef
	Void     bool
	Proxy    *Proxy
}

func (o Op) String() string {
	switch o.Code {
	case OpLoadArg:
		return fmt.Sprintf("ldarg %d", o.Arg)
	case OpLoadString:
		return fmt.Sprintf("ldstr %q", o.Str)
	case OpLoadCell:
		return "ldcell " + o.Cell.Name
	case OpStoreCell:
		return "stcell " + o.Cell.Name
	case OpLoadField:
		return "ldfld " + o.Field.Name
	case OpLoadFieldAddr:
		return "ldflda " + o.Field.Name
	case OpCallFactory:
		args := make([]string, len(o.TypeArgs))
		for i, t := range o.TypeArgs {
			args[i] = t.GoString
		}
		return fmt.Sprintf("call %s[%s]", o.Factory, strings.Join(args, ", "))
	case OpCallValue:
		if o.Void {
			return fmt.Sprintf("callvoid %d", o.Arg)
		}
		return fmt.Sprintf("callvalue %d", o.Arg)
	case OpConstruct:
		return fmt.Sprintf("new %s{%s}", o.Proxy.Name, o.Field.Name)
	case OpReturn:
		return "ret"
	}
	return fmt.Sprintf("op(%d)", int(o.Code))
}

// RecordedBody is the instruction list of one stub or constructor.
type RecordedBody struct {
	Stub        *StubMember
	Constructor *Constructor
	Ops         []Op
}

// Recorder is an Emitter that buffers everything it receives. The engine
// binds each proxy into a Recorder and replays it only when the whole proxy
// succeeded.
type Recorder struct {
	Proxy *Proxy
	Held  *HeldField
	Cells []*Cell
	Init  []Op
	Ctor  *RecordedBody
	Stubs []*RecordedBody
}

func (r *Recorder) DeclareProxy(p *Proxy, held *HeldField) error {
	if r.Proxy != nil {
		return fmt.Errorf("proxy %s declared twice", p.Name)
	}
	r.Proxy, r.Held = p, held
	return nil
}

func (r *Recorder) DeclareCell(c *Cell) error {
	for _, existing := range r.Cells {
		if existing.Name == c.Name {
			return fmt.Errorf("cell %s declared twice", c.Name)
		}
	}
	r.Cells = append(r.Cells, c)
	return nil
}

func (r *Recorder) InitBody() Body {
	return &recordedBody{ops: &r.Init}
}

func (r *Recorder) StubBody(p *Proxy, s *StubMember) Body {
	rb := &RecordedBody{Stub: s}
	r.Stubs = append(r.Stubs, rb)
	return &recordedBody{ops: &rb.Ops}
}

func (r *Recorder) ConstructorBody(p *Proxy, c *Constructor) Body {
	r.Ctor = &RecordedBody{Constructor: c}
	return &recordedBody{ops: &r.Ctor.Ops}
}

// Stub returns the recorded body of the named stub, or nil.
func (r *Recorder) Stub(name string) *RecordedBody {
	for _, rb := range r.Stubs {
		if rb.Stub.Name == name {
			return rb
		}
	}
	return nil
}

// Replay sends the recorded proxy to dst in declaration order.
func (r *Recorder) Replay(dst Emitter) error {
	if r.Proxy == nil {
		return fmt.Errorf("nothing recorded")
	}
	if err := dst.DeclareProxy(r.Proxy, r.Held); err != nil {
		return err
	}
	for _, c := range r.Cells {
		if err := dst.DeclareCell(c); err != nil {
			return err
		}
	}
	if err := replayOps(dst.InitBody(), r.Init); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if r.Ctor != nil {
		if err := replayOps(dst.ConstructorBody(r.Proxy, r.Ctor.Constructor), r.Ctor.Ops); err != nil {
			return fmt.Errorf("%s: %w", r.Ctor.Constructor.Name, err)
		}
	}
	for _, rb := range r.Stubs {
		if err := replayOps(dst.StubBody(r.Proxy, rb.Stub), rb.Ops); err != nil {
			return fmt.Errorf("%s.%s: %w", r.Proxy.Name, rb.Stub.Name, err)
		}
	}
	return nil
}

func replayOps(b Body, ops []Op) error {
	for _, o := range ops {
		switch o.Code {
		case OpLoadArg:
			b.LoadArg(o.Arg)
		case OpLoadString:
			b.LoadString(o.Str)
		case OpLoadCell:
			b.LoadCell(o.Cell)
		case OpStoreCell:
			b.StoreCell(o.Cell)
		case OpLoadField:
			b.LoadField(o.Field)
		case OpLoadFieldAddr:
			b.LoadFieldAddr(o.Field)
		case OpCallFactory:
			b.CallFactory(o.Factory, o.TypeArgs...)
		case OpCallValue:
			b.CallValue(o.Arg, o.Void)
		case OpConstruct:
			b.Construct(o.Proxy, o.Field)
		case OpReturn:
			b.Return()
		}
	}
	return b.Commit()
}

// recordedBody appends to an op list and tracks the operand stack depth so
// malformed sequences fail at Commit.
type recordedBody struct {
	ops   *[]Op
	depth int
	err   error
}

func (b *recordedBody) push(o Op, pop, push int) {
	if b.err == nil && b.depth < pop {
		b.err = fmt.Errorf("%s: stack underflow (depth %d)", o, b.depth)
	}
	b.depth += push - pop
	*b.ops = append(*b.ops, o)
}

func (b *recordedBody) LoadArg(n int) { b.push(Op{Code: OpLoadArg, Arg: n}, 0, 1) }

func (b *recordedBody) LoadString(s string) { b.push(Op{Code: OpLoadString, Str: s}, 0, 1) }

func (b *recordedBody) LoadCell(c *Cell) { b.push(Op{Code: OpLoadCell, Cell: c}, 0, 1) }

func (b *recordedBody) StoreCell(c *Cell) { b.push(Op{Code: OpStoreCell, Cell: c}, 1, 0) }

func (b *recordedBody) LoadField(f *HeldField) { b.push(Op{Code: OpLoadField, Field: f}, 1, 1) }

func (b *recordedBody) LoadFieldAddr(f *HeldField) {
	b.push(Op{Code: OpLoadFieldAddr, Field: f}, 1, 1)
}

func (b *recordedBody) CallFactory(f Factory, typeArgs ...TypeRef) {
	b.push(Op{Code: OpCallFactory, Factory: f, TypeArgs: typeArgs}, 1, 1)
}

func (b *recordedBody) CallValue(args int, void bool) {
	push := 1
	if void {
		push = 0
	}
	b.push(Op{Code: OpCallValue, Arg: args, Void: void}, args+1, push)
}

func (b *recordedBody) Construct(p *Proxy, f *HeldField) {
	b.push(Op{Code: OpConstruct, Proxy: p, Field: f}, 1, 1)
}

func (b *recordedBody) Return() {
	pop := 0
	if b.depth > 0 {
		pop = 1
	}
	b.push(Op{Code: OpReturn}, pop, 0)
}

func (b *recordedBody) Commit() error {
	if b.err != nil {
		return b.err
	}
	if b.depth != 0 {
		return fmt.Errorf("%d values left on the stack", b.depth)
	}
	return nil
}

// Package gen renders bound proxies and exposure tables as Go source.
package gen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/tamper/internal/bind"
)

// SourceEmitter is a bind.Emitter that collects one generated file. It
// evaluates the instruction stream of every body on a stack of Go
// expressions.
type SourceEmitter struct {
	pkgName  string
	buildTag string
	imports  *importSet

	proxies []*proxyDecl
	byName  map[string]*proxyDecl
	cells   []cellDecl
	init    []string
}

// NewSourceEmitter creates an emitter for a file of package pkgName at
// import path pkgPath. buildTag is the stub tag; the file is compiled only
// without it.
func NewSourceEmitter(pkgName, pkgPath, buildTag string) *SourceEmitter {
	return &SourceEmitter{
		pkgName:  pkgName,
		buildTag: buildTag,
		imports:  newImportSet(pkgPath),
		byName:   make(map[string]*proxyDecl),
	}
}

type proxyDecl struct {
	Name   string
	Target string
	Held   *fieldDecl
	Ctor   *funcDecl
	Stubs  []*funcDecl
}

type fieldDecl struct {
	Name string
	Type string
}

type cellDecl struct {
	Name string
	Type string
}

type funcDecl struct {
	Signature string
	Body      []string
}

// Empty reports whether nothing was emitted.
func (e *SourceEmitter) Empty() bool { return len(e.proxies) == 0 }

func (e *SourceEmitter) proxy(p *bind.Proxy) *proxyDecl {
	if d, ok := e.byName[p.Name]; ok {
		return d
	}
	d := &proxyDecl{Name: p.Name, Target: p.Target.GoString}
	e.byName[p.Name] = d
	e.proxies = append(e.proxies, d)
	return d
}

func (e *SourceEmitter) DeclareProxy(p *bind.Proxy, held *bind.HeldField) error {
	d := e.proxy(p)
	if held != nil {
		d.Held = &fieldDecl{Name: held.Name, Type: e.imports.qualify(held.Type)}
	}
	return nil
}

func (e *SourceEmitter) DeclareCell(c *bind.Cell) error {
	for _, existing := range e.cells {
		if existing.Name == c.Name {
			return fmt.Errorf("cell %s declared twice", c.Name)
		}
	}
	e.cells = append(e.cells, cellDecl{Name: c.Name, Type: e.imports.qualify(c.Type)})
	return nil
}

func (e *SourceEmitter) InitBody() bind.Body {
	return &exprBody{e: e, commit: func(stmts []string) {
		e.init = append(e.init, stmts...)
	}}
}

func (e *SourceEmitter) StubBody(p *bind.Proxy, s *bind.StubMember) bind.Body {
	d := e.proxy(p)
	names := stubNames(s)
	decl := &funcDecl{Signature: e.stubSignature(p, s, names)}
	return &exprBody{
		e:        e,
		names:    names,
		variadic: s.Variadic,
		commit: func(stmts []string) {
			decl.Body = stmts
			d.Stubs = append(d.Stubs, decl)
		},
	}
}

func (e *SourceEmitter) ConstructorBody(p *bind.Proxy, c *bind.Constructor) bind.Body {
	d := e.proxy(p)
	name := c.Param.Name
	if name == "" || name == "_" {
		name = "x"
	}
	decl := &funcDecl{Signature: fmt.Sprintf("%s(%s %s) *%s", c.Name, name, e.imports.qualify(c.Param.Type), p.Name)}
	return &exprBody{
		e:     e,
		names: []string{name},
		commit: func(stmts []string) {
			decl.Body = stmts
			d.Ctor = decl
		},
	}
}

// stubNames returns the receiver name followed by one name per parameter.
// Blank, missing and clashing names are replaced.
func stubNames(s *bind.StubMember) []string {
	recv := s.Receiver
	if recv == "" || recv == "_" {
		recv = "p"
	}
	names := []string{recv}
	used := map[string]bool{recv: true}
	for i, p := range s.Params {
		n := p.Name
		if n == "" || n == "_" || used[n] {
			n = "a" + strconv.Itoa(i)
			for used[n] {
				n += "_"
			}
		}
		used[n] = true
		names = append(names, n)
	}
	return names
}

func (e *SourceEmitter) stubSignature(p *bind.Proxy, s *bind.StubMember, names []string) string {
	recv := "*" + p.Name
	if s.Static {
		recv = p.Name
	}
	params := make([]string, len(s.Params))
	for i, prm := range s.Params {
		t := prm.Type
		if s.Variadic && i == len(s.Params)-1 && t.Elem != nil {
			params[i] = names[i+1] + " ..." + e.imports.qualify(*t.Elem)
			continue
		}
		params[i] = names[i+1] + " " + e.imports.qualify(t)
	}
	return fmt.Sprintf("(%s %s) %s(%s)%s", names[0], recv, s.Name, strings.Join(params, ", "), e.imports.results(s.Results))
}

// exprBody evaluates body instructions on a stack of Go expressions and
// collects the resulting statements.
type exprBody struct {
	e        *SourceEmitter
	names    []string
	variadic bool
	commit   func([]string)

	stack []string
	stmts []string
	err   error
}

func (b *exprBody) push(expr string) { b.stack = append(b.stack, expr) }

func (b *exprBody) pop(op string) string {
	if len(b.stack) == 0 {
		if b.err == nil {
			b.err = fmt.Errorf("%s: stack underflow", op)
		}
		return ""
	}
	v := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return v
}

func (b *exprBody) LoadArg(n int) {
	if n < 0 || n >= len(b.names) {
		if b.err == nil {
			b.err = fmt.Errorf("ldarg %d: function has %d arguments", n, len(b.names))
		}
		b.push("")
		return
	}
	name := b.names[n]
	if b.variadic && n == len(b.names)-1 && n > 0 {
		name += "..."
	}
	b.push(name)
}

func (b *exprBody) LoadString(s string) { b.push(strconv.Quote(s)) }

func (b *exprBody) LoadCell(c *bind.Cell) { b.push(c.Name) }

func (b *exprBody) StoreCell(c *bind.Cell) {
	v := b.pop("stcell")
	b.stmts = append(b.stmts, c.Name+" = "+v)
}

func (b *exprBody) LoadField(f *bind.HeldField) { b.push(b.pop("ldfld") + "." + f.Name) }

func (b *exprBody) LoadFieldAddr(f *bind.HeldField) { b.push("&" + b.pop("ldflda") + "." + f.Name) }

func (b *exprBody) CallFactory(f bind.Factory, typeArgs ...bind.TypeRef) {
	name := b.pop("call")
	args := make([]string, len(typeArgs))
	for i, t := range typeArgs {
		args[i] = b.e.imports.qualify(t)
	}
	rt := b.e.imports.runtime()
	b.push(fmt.Sprintf("%s.Must(%s.%s[%s](%s))", rt, rt, f, strings.Join(args, ", "), name))
}

func (b *exprBody) CallValue(n int, void bool) {
	args := make([]string, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = b.pop("callvalue")
	}
	call := b.pop("callvalue") + "(" + strings.Join(args, ", ") + ")"
	if void {
		b.stmts = append(b.stmts, call)
		return
	}
	b.push(call)
}

func (b *exprBody) Construct(p *bind.Proxy, f *bind.HeldField) {
	v := b.pop("new")
	b.push(fmt.Sprintf("&%s{%s: %s}", p.Name, f.Name, v))
}

func (b *exprBody) Return() {
	if len(b.stack) > 0 {
		b.stmts = append(b.stmts, "return "+b.pop("ret"))
	}
}

func (b *exprBody) Commit() error {
	if b.err != nil {
		return b.err
	}
	if len(b.stack) != 0 {
		return fmt.Errorf("%d values left on the stack", len(b.stack))
	}
	b.commit(b.stmts)
	return nil
}

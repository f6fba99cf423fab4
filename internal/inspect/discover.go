package inspect

import (
	"fmt"
	"go/ast"
	"go/build/constraint"
	"go/token"
	"go/types"
	"runtime"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/tools/go/packages"

	"github.com/funvibe/tamper/internal/bind"
	"github.com/funvibe/tamper/internal/config"
)

// Discovery is the result of scanning packages for proxies. Problems are
// declaration errors that make a proxy unusable; the remaining proxies are
// still valid.
type Discovery struct {
	Proxies  []*bind.Proxy
	Problems []error

	// StubFiles lists every stub file seen, by package path.
	StubFiles map[string][]string
}

// Discover scans the stub files of pkgs for proxy declarations.
func (ins *Inspector) Discover(pkgs []*packages.Package) *Discovery {
	d := &Discovery{StubFiles: make(map[string][]string)}
	for _, pkg := range pkgs {
		ins.discoverPackage(pkg, d)
	}
	return d
}

type fileScan struct {
	pkg  *packages.Package
	file *ast.File
	name string
	stub bool
}

func (ins *Inspector) discoverPackage(pkg *packages.Package, d *Discovery) {
	if pkg.Types == nil || pkg.TypesInfo == nil {
		return
	}

	var files []fileScan
	for _, f := range pkg.Syntax {
		fs := fileScan{pkg: pkg, file: f, name: pkg.Fset.Position(f.Package).Filename}
		fs.stub = isStubFile(f, ins.tag)
		if fs.stub {
			d.StubFiles[pkg.PkgPath] = append(d.StubFiles[pkg.PkgPath], fs.name)
		}
		files = append(files, fs)
	}

	proxies := make(map[string]*bind.Proxy)
	var order []*bind.Proxy
	problem := func(pos token.Pos, format string, args ...any) {
		d.Problems = append(d.Problems, fmt.Errorf("%s: %s", pkg.Fset.Position(pos), fmt.Sprintf(format, args...)))
	}

	for _, fs := range files {
		for _, decl := range fs.file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts := spec.(*ast.TypeSpec)
				doc := ts.Doc
				if doc == nil && len(gd.Specs) == 1 {
					doc = gd.Doc
				}
				arg, ok := directive(doc, config.DirectiveTarget)
				if !ok {
					continue
				}
				p, err := ins.proxyDecl(fs, ts, arg)
				if err != nil {
					problem(ts.Pos(), "%v", err)
					continue
				}
				if p == nil {
					continue
				}
				proxies[p.Name] = p
				order = append(order, p)
			}
		}
	}

	for _, fs := range files {
		for _, decl := range fs.file.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok {
				continue
			}
			if fd.Recv == nil {
				name := strings.TrimPrefix(fd.Name.Name, "New")
				if p, ok := proxies[name]; ok && name != fd.Name.Name && fs.stub {
					ctor, err := constructor(fs, fd, p)
					if err != nil {
						problem(fd.Pos(), "%v", err)
						continue
					}
					p.Constructor = ctor
				}
				continue
			}
			p, ok := proxies[recvTypeName(fd.Recv)]
			if !ok {
				continue
			}
			if !fs.stub {
				problem(fd.Pos(), "stub %s.%s must be declared in a file with //go:build %s", p.Name, fd.Name.Name, ins.tag)
				continue
			}
			s, err := stubMember(fs, fd)
			if err != nil {
				problem(fd.Pos(), "stub %s.%s: %v", p.Name, fd.Name.Name, err)
				continue
			}
			p.Stubs = append(p.Stubs, s)
		}
	}

	for _, p := range order {
		ins.log.WithFields(logrus.Fields{
			"proxy":  p.Name,
			"target": p.Target.GoString,
			"stubs":  len(p.Stubs),
		}).Debug("discovered proxy")
	}
	d.Proxies = append(d.Proxies, order...)
}

// proxyDecl builds a proxy from a type declaration carrying a target
// directive. It returns nil, nil for declarations that are skipped.
func (ins *Inspector) proxyDecl(fs fileScan, ts *ast.TypeSpec, arg string) (*bind.Proxy, error) {
	obj, ok := fs.pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
	if !ok {
		return nil, nil
	}
	switch u := obj.Type().Underlying().(type) {
	case *types.Interface:
		ins.log.WithField("type", ts.Name.Name).Debug("skipping interface proxy")
		return nil, nil
	case *types.Struct:
		if u.NumFields() != 0 {
			return nil, fmt.Errorf("proxy %s must be an empty struct", ts.Name.Name)
		}
	default:
		ins.log.WithField("type", ts.Name.Name).Debug("skipping non-struct proxy")
		return nil, nil
	}
	if !fs.stub {
		return nil, fmt.Errorf("proxy %s must be declared in a file with //go:build %s", ts.Name.Name, ins.tag)
	}
	if ts.TypeParams != nil {
		return nil, fmt.Errorf("proxy %s must not be generic", ts.Name.Name)
	}

	target, err := ins.resolveTarget(fs, arg)
	if err != nil {
		return nil, fmt.Errorf("proxy %s: %w", ts.Name.Name, err)
	}
	if _, ok := target.Underlying().(*types.Interface); ok {
		return nil, fmt.Errorf("proxy %s: target %s is an interface", ts.Name.Name, arg)
	}
	if target.TypeParams().Len() > 0 {
		return nil, fmt.Errorf("proxy %s: target %s is generic", ts.Name.Name, arg)
	}

	return &bind.Proxy{
		Name:    ts.Name.Name,
		PkgPath: fs.pkg.PkgPath,
		Target:  typeRef(target),
		File:    fs.name,
		Pos:     fs.pkg.Fset.Position(ts.Name.Pos()).String(),
	}, nil
}

// resolveTarget resolves a target directive argument: a bare type name in
// the proxy's package, pkg.Type through the file's imports, or a full
// import path such as example.com/game/dummies.Dummy.
func (ins *Inspector) resolveTarget(fs fileScan, arg string) (*types.Named, error) {
	dot := strings.LastIndex(arg, ".")
	var pkg *types.Package
	name := arg[dot+1:]

	switch {
	case dot < 0:
		pkg = fs.pkg.Types
	case strings.Contains(arg[:dot], "/"):
		p, ok := ins.loaded[arg[:dot]]
		if !ok || p.Types == nil {
			return nil, fmt.Errorf("package %s is not loaded; import it from the stub file or list it under references", arg[:dot])
		}
		pkg = p.Types
	default:
		pkg = importedAs(fs, arg[:dot])
		if pkg == nil {
			return nil, fmt.Errorf("%s is not imported by %s", arg[:dot], fs.name)
		}
	}

	obj, ok := pkg.Scope().Lookup(name).(*types.TypeName)
	if !ok {
		return nil, fmt.Errorf("target %s not found", arg)
	}
	named, ok := types.Unalias(obj.Type()).(*types.Named)
	if !ok {
		return nil, fmt.Errorf("target %s is not a named type", arg)
	}
	return named, nil
}

// importedAs finds the package a file imports under the local name.
func importedAs(fs fileScan, local string) *types.Package {
	for _, imp := range fs.file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		dep, ok := fs.pkg.Imports[path]
		if !ok || dep.Types == nil {
			continue
		}
		name := dep.Types.Name()
		if imp.Name != nil {
			name = imp.Name.Name
		}
		if name == local {
			return dep.Types
		}
	}
	return nil
}

func constructor(fs fileScan, fd *ast.FuncDecl, p *bind.Proxy) (*bind.Constructor, error) {
	fn, ok := fs.pkg.TypesInfo.Defs[fd.Name].(*types.Func)
	if !ok {
		return nil, fmt.Errorf("%s has no type information", fd.Name.Name)
	}
	sig := fn.Signature()
	if sig.TypeParams() != nil || sig.Params().Len() != 1 || sig.Results().Len() != 1 || sig.Variadic() {
		return nil, fmt.Errorf("%s must be func(x %s) *%s", fd.Name.Name, p.Target.TypeName, p.Name)
	}
	res, ok := sig.Results().At(0).Type().(*types.Pointer)
	if !ok {
		return nil, fmt.Errorf("%s must return *%s", fd.Name.Name, p.Name)
	}
	if n, ok := types.Unalias(res.Elem()).(*types.Named); !ok || n.Obj().Name() != p.Name || n.Obj().Pkg() != fs.pkg.Types {
		return nil, fmt.Errorf("%s must return *%s", fd.Name.Name, p.Name)
	}
	return &bind.Constructor{
		Name:  fd.Name.Name,
		Param: tupleParams(sig.Params())[0],
		Pos:   fs.pkg.Fset.Position(fd.Name.Pos()).String(),
	}, nil
}

func stubMember(fs fileScan, fd *ast.FuncDecl) (*bind.StubMember, error) {
	fn, ok := fs.pkg.TypesInfo.Defs[fd.Name].(*types.Func)
	if !ok {
		return nil, fmt.Errorf("no type information")
	}
	sig := fn.Signature()
	if sig.TypeParams() != nil {
		return nil, fmt.Errorf("stubs must not be generic")
	}

	s := &bind.StubMember{
		Name:     fd.Name.Name,
		Bind:     fd.Name.Name,
		Params:   tupleParams(sig.Params()),
		Results:  tupleRefs(sig.Results()),
		Variadic: sig.Variadic(),
		Pos:      fs.pkg.Fset.Position(fd.Name.Pos()).String(),
	}
	recv := fd.Recv.List[0]
	if len(recv.Names) > 0 {
		s.Receiver = recv.Names[0].Name
	}
	_, ptr := recv.Type.(*ast.StarExpr)
	s.Static = !ptr

	if fd.Doc == nil {
		return s, nil
	}
	for _, c := range fd.Doc.List {
		key, arg, ok := parseDirective(c.Text)
		if !ok {
			continue
		}
		if arg == "" {
			return nil, fmt.Errorf("//tamper:%s needs a member name", key)
		}
		switch key {
		case config.DirectiveName:
			s.Bind = arg
		case config.DirectiveGet, config.DirectiveSet:
			if s.Special != bind.SpecialNone {
				return nil, fmt.Errorf("only one of //tamper:get and //tamper:set may be given")
			}
			s.Special = bind.SpecialGet
			if key == config.DirectiveSet {
				s.Special = bind.SpecialSet
			}
			s.Bind = arg
		default:
			return nil, fmt.Errorf("unknown directive //tamper:%s", key)
		}
	}
	return s, nil
}

// recvTypeName returns T for receivers of type T or *T.
func recvTypeName(recv *ast.FieldList) string {
	if recv == nil || len(recv.List) == 0 {
		return ""
	}
	t := recv.List[0].Type
	if star, ok := t.(*ast.StarExpr); ok {
		t = star.X
	}
	if id, ok := t.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}

// directive returns the argument of the first //tamper:key line in doc.
func directive(doc *ast.CommentGroup, key string) (string, bool) {
	if doc == nil {
		return "", false
	}
	for _, c := range doc.List {
		if k, arg, ok := parseDirective(c.Text); ok && k == key {
			return arg, arg != ""
		}
	}
	return "", false
}

// parseDirective splits "//tamper:key arg".
func parseDirective(text string) (key, arg string, ok bool) {
	rest, ok := strings.CutPrefix(text, config.DirectivePrefix)
	if !ok {
		return "", "", false
	}
	key, arg, _ = strings.Cut(rest, " ")
	return key, strings.TrimSpace(arg), key != ""
}

// isStubFile reports whether f carries a //go:build line that holds with
// the stub tag and fails without it.
func isStubFile(f *ast.File, tag string) bool {
	for _, cg := range f.Comments {
		if cg.Pos() > f.Package {
			break
		}
		for _, c := range cg.List {
			if !constraint.IsGoBuild(c.Text) {
				continue
			}
			expr, err := constraint.Parse(c.Text)
			if err != nil {
				return false
			}
			platform := func(t string) bool { return t == runtime.GOOS || t == runtime.GOARCH }
			with := expr.Eval(func(t string) bool { return t == tag || platform(t) })
			without := expr.Eval(platform)
			return with && !without
		}
	}
	return false
}

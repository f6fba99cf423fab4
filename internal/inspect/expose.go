package inspect

import (
	"context"
	"fmt"
	"go/token"
	"go/types"
	"os"
	"path/filepath"

	"golang.org/x/tools/go/packages"

	"github.com/funvibe/tamper/internal/config"
	"github.com/funvibe/tamper/internal/gen"
)

// LoadForExpose loads packages for exposure generation. An existing
// exposure file is replaced by an empty one while loading, so stale entries
// for members that no longer exist do not break type checking.
func (ins *Inspector) LoadForExpose(ctx context.Context, patterns ...string) ([]*packages.Package, error) {
	cfg := &packages.Config{
		Context: ctx,
		Mode:    packages.NeedName | packages.NeedFiles,
		Dir:     ins.dir,
		Env:     os.Environ(),
	}
	roots, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}

	overlay := make(map[string][]byte)
	for _, pkg := range roots {
		if len(pkg.GoFiles) == 0 {
			continue
		}
		file := filepath.Join(filepath.Dir(pkg.GoFiles[0]), config.ExposeFileName)
		if _, err := os.Stat(file); err == nil {
			overlay[file] = []byte("package " + pkg.Name + "\n")
		}
	}
	return ins.load(ctx, overlay, patterns...)
}

// ExposeTargets builds the exposure table of the named types of pkg: every
// package-level variable and function plus the unexported methods of each
// type.
func (ins *Inspector) ExposeTargets(pkg *packages.Package, typeNames []string) (*gen.ExposePackage, error) {
	if pkg.Types == nil || len(pkg.GoFiles) == 0 {
		return nil, fmt.Errorf("package %s has no type information", pkg.PkgPath)
	}
	out := &gen.ExposePackage{
		Name: pkg.Types.Name(),
		Path: pkg.PkgPath,
		Dir:  filepath.Dir(pkg.GoFiles[0]),
	}

	statics := staticMembers(pkg.Types)
	for _, name := range typeNames {
		obj, ok := pkg.Types.Scope().Lookup(name).(*types.TypeName)
		if !ok {
			return nil, fmt.Errorf("%s.%s: type not found", pkg.PkgPath, name)
		}
		named, ok := types.Unalias(obj.Type()).(*types.Named)
		if !ok || named.TypeParams().Len() > 0 {
			return nil, fmt.Errorf("%s.%s: not a non-generic named type", pkg.PkgPath, name)
		}
		if _, ok := named.Underlying().(*types.Interface); ok {
			return nil, fmt.Errorf("%s.%s: interfaces cannot be exposed", pkg.PkgPath, name)
		}

		// Static lookups go through the target type, so every type carries
		// the package-level members.
		members := append(append([]gen.ExposeMember(nil), statics...), hiddenMethods(named, pkg.Types)...)
		out.Types = append(out.Types, gen.ExposeType{Name: name, Members: members})
	}
	ins.log.WithField("package", pkg.PkgPath).Debugf("exposing %d types", len(out.Types))
	return out, nil
}

func staticMembers(pkg *types.Package) []gen.ExposeMember {
	scope := pkg.Scope()
	var out []gen.ExposeMember
	for _, name := range scope.Names() {
		if name == "_" || name == "init" {
			continue
		}
		switch obj := scope.Lookup(name).(type) {
		case *types.Var:
			out = append(out, gen.ExposeMember{Kind: gen.ExposeVar, Name: name})
		case *types.Func:
			sig := obj.Signature()
			if sig.TypeParams() != nil {
				continue
			}
			if isGetter(sig) {
				m := gen.ExposeMember{Kind: gen.ExposeStaticProp, Name: name}
				if s, ok := scope.Lookup(setterName(name)).(*types.Func); ok && isSetterOf(s.Signature(), sig.Results().At(0).Type()) {
					m.Setter = s.Name()
				}
				out = append(out, m)
			}
			out = append(out, gen.ExposeMember{Kind: gen.ExposeFunc, Name: name})
		}
	}
	return out
}

// hiddenMethods lists the unexported methods declared in pkg on named or on
// types it embeds. Method sets are sorted by name.
func hiddenMethods(named *types.Named, pkg *types.Package) []gen.ExposeMember {
	ms := types.NewMethodSet(types.NewPointer(named))
	var out []gen.ExposeMember
	for i := 0; i < ms.Len(); i++ {
		fn, ok := ms.At(i).Obj().(*types.Func)
		if !ok || token.IsExported(fn.Name()) || fn.Pkg() != pkg {
			continue
		}
		sig := fn.Signature()
		if isGetter(sig) {
			m := gen.ExposeMember{Kind: gen.ExposeProp, Name: fn.Name()}
			if s := method(named, pkg, setterName(fn.Name())); s != nil && isSetterOf(s.Signature(), sig.Results().At(0).Type()) {
				m.Setter = s.Name()
			}
			out = append(out, m)
		}
		out = append(out, gen.ExposeMember{Kind: gen.ExposeMethod, Name: fn.Name()})
	}
	return out
}

package gen

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/funvibe/tamper/internal/bind"
	"github.com/funvibe/tamper/internal/config"
)

// runtimeAlias is the fixed alias of the runtime package. It is reserved,
// so no other import can take it.
const runtimeAlias = "tamper"

// goReservedWords are Go keywords that cannot be used as import aliases.
var goReservedWords = map[string]bool{
	"break": true, "default": true, "func": true, "interface": true, "select": true,
	"case": true, "defer": true, "go": true, "map": true, "struct": true,
	"chan": true, "else": true, "goto": true, "package": true, "switch": true,
	"const": true, "fallthrough": true, "if": true, "range": true, "type": true,
	"continue": true, "for": true, "import": true, "return": true, "var": true,
	// Generated code uses these identifiers, so avoid them as aliases
	"tamper": true, "init": true, "instance": true,
}

// ImportAlias returns a valid Go identifier for an import path.
// Handles hyphens (go-redis → goredis), versioned paths (v9 → parent),
// and reserved words (map → pkgMap).
func ImportAlias(pkgPath string) string {
	parts := strings.Split(pkgPath, "/")
	last := parts[len(parts)-1]
	if isVersion(last) && len(parts) > 1 {
		last = parts[len(parts)-2]
	}

	alias := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return -1
	}, last)

	if alias == "" {
		alias = "pkg"
	}
	if unicode.IsDigit(rune(alias[0])) {
		alias = "pkg" + alias
	}
	if goReservedWords[alias] {
		alias = "pkg" + strings.ToUpper(alias[:1]) + alias[1:]
	}
	return alias
}

func isVersion(seg string) bool {
	if len(seg) < 2 || seg[0] != 'v' {
		return false
	}
	for _, c := range seg[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

type importEntry struct {
	Path  string
	Alias string
}

// importSet assigns unique aliases to the packages a generated file
// references. The file's own package is never imported.
type importSet struct {
	self    string
	byPath  map[string]string
	byAlias map[string]string
}

func newImportSet(self string) *importSet {
	return &importSet{self: self, byPath: make(map[string]string), byAlias: make(map[string]string)}
}

// add returns the alias of pkgPath, importing it on first use.
func (s *importSet) add(pkgPath string) string {
	if alias, ok := s.byPath[pkgPath]; ok {
		return alias
	}
	base := ImportAlias(pkgPath)
	alias := base
	for n := 2; ; n++ {
		if _, taken := s.byAlias[alias]; !taken {
			break
		}
		alias = base + strconv.Itoa(n)
	}
	s.byPath[pkgPath] = alias
	s.byAlias[alias] = pkgPath
	return alias
}

// runtime imports the runtime package on first use.
func (s *importSet) runtime() string {
	if _, ok := s.byPath[config.RuntimeImport]; !ok {
		s.byPath[config.RuntimeImport] = runtimeAlias
		s.byAlias[runtimeAlias] = config.RuntimeImport
	}
	return runtimeAlias
}

func (s *importSet) sorted() []importEntry {
	entries := make([]importEntry, 0, len(s.byPath))
	for path, alias := range s.byPath {
		entries = append(entries, importEntry{Path: path, Alias: alias})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries
}

// qualify renders ref as Go source, importing every package it names.
func (s *importSet) qualify(ref bind.TypeRef) string {
	switch ref.Kind {
	case bind.TypeBasic, bind.TypeError:
		return ref.GoString
	case bind.TypePtr:
		if ref.Elem != nil {
			return "*" + s.qualify(*ref.Elem)
		}
	case bind.TypeSlice:
		if ref.Elem != nil {
			return "[]" + s.qualify(*ref.Elem)
		}
	case bind.TypeArray:
		if ref.Elem != nil {
			return "[" + strconv.FormatInt(ref.Len, 10) + "]" + s.qualify(*ref.Elem)
		}
	case bind.TypeMap:
		if ref.Key != nil && ref.Elem != nil {
			return "map[" + s.qualify(*ref.Key) + "]" + s.qualify(*ref.Elem)
		}
	case bind.TypeChan:
		if ref.Elem != nil {
			return chanPrefix(ref.GoString) + s.qualify(*ref.Elem)
		}
	case bind.TypeFunc:
		if ref.Func != nil {
			return "func" + s.signature(ref.Func.Params, ref.Func.Results, ref.Func.Variadic)
		}
	}

	if ref.PkgPath == "" || ref.TypeName == "" {
		return ref.GoString
	}
	name := ref.TypeName
	if ref.PkgPath != s.self {
		name = s.add(ref.PkgPath) + "." + name
	}
	if len(ref.Args) > 0 {
		args := make([]string, len(ref.Args))
		for i, a := range ref.Args {
			args[i] = s.qualify(a)
		}
		name += "[" + strings.Join(args, ", ") + "]"
	}
	return name
}

// signature renders "(params) results" without parameter names.
func (s *importSet) signature(params, results []bind.TypeRef, variadic bool) string {
	ps := make([]string, len(params))
	for i, p := range params {
		if variadic && i == len(params)-1 && p.Elem != nil {
			ps[i] = "..." + s.qualify(*p.Elem)
			continue
		}
		ps[i] = s.qualify(p)
	}
	return "(" + strings.Join(ps, ", ") + ")" + s.results(results)
}

func (s *importSet) results(results []bind.TypeRef) string {
	switch len(results) {
	case 0:
		return ""
	case 1:
		return " " + s.qualify(results[0])
	}
	rs := make([]string, len(results))
	for i, r := range results {
		rs[i] = s.qualify(r)
	}
	return " (" + strings.Join(rs, ", ") + ")"
}

func chanPrefix(goString string) string {
	switch {
	case strings.HasPrefix(goString, "<-chan "):
		return "<-chan "
	case strings.HasPrefix(goString, "chan<- "):
		return "chan<- "
	}
	return "chan "
}

package gen

import (
	"fmt"
	"path/filepath"
	"strconv"
	"text/template"

	"github.com/funvibe/tamper/internal/config"
)

// ExposeKind selects the runtime constructor of an exposure entry.
type ExposeKind int

const (
	ExposeVar        ExposeKind = iota // package-level variable
	ExposeStaticProp                   // package-level getter/setter pair
	ExposeFunc                         // package-level function
	ExposeMethod                       // unexported method
	ExposeProp                         // unexported getter/setter method pair
)

// ExposeMember is one entry of an exposure table.
type ExposeMember struct {
	Kind ExposeKind
	Name string

	// Setter names the setter of properties; empty when read-only.
	Setter string
}

// ExposeType lists the hidden members of one target type.
type ExposeType struct {
	Name    string
	Members []ExposeMember
}

// ExposePackage is the input of GenerateExpose.
type ExposePackage struct {
	Name  string
	Path  string
	Dir   string
	Types []ExposeType
}

// GenerateExpose renders the exposure file of a target package.
func GenerateExpose(pkg *ExposePackage) (GeneratedFile, error) {
	type typeData struct {
		Name    string
		Entries []string
	}

	types := make([]typeData, 0, len(pkg.Types))
	for _, t := range pkg.Types {
		td := typeData{Name: t.Name}
		for _, m := range t.Members {
			entry, err := exposeEntry(t.Name, m)
			if err != nil {
				return GeneratedFile{}, fmt.Errorf("%s.%s: %w", pkg.Path, t.Name, err)
			}
			td.Entries = append(td.Entries, entry)
		}
		types = append(types, td)
	}

	data := struct {
		Header  string
		Package string
		Runtime string
		Types   []typeData
	}{
		Header:  config.GeneratedHeader,
		Package: pkg.Name,
		Runtime: config.RuntimeImport,
		Types:   types,
	}

	src, err := execute(exposeFileTmpl, data)
	if err != nil {
		return GeneratedFile{}, err
	}
	return format(filepath.Join(pkg.Dir, config.ExposeFileName), src)
}

func exposeEntry(typeName string, m ExposeMember) (string, error) {
	q := strconv.Quote(m.Name)
	method := func(name string) string { return "(*" + typeName + ")." + name }
	setter := "nil"

	switch m.Kind {
	case ExposeVar:
		return fmt.Sprintf("tamper.Var(%s, &%s)", q, m.Name), nil
	case ExposeStaticProp:
		if m.Setter != "" {
			setter = m.Setter
		}
		return fmt.Sprintf("tamper.StaticProp(%s, %s, %s)", q, m.Name, setter), nil
	case ExposeFunc:
		return fmt.Sprintf("tamper.Func(%s, %s)", q, m.Name), nil
	case ExposeMethod:
		return fmt.Sprintf("tamper.Method(%s, %s)", q, method(m.Name)), nil
	case ExposeProp:
		if m.Setter != "" {
			setter = method(m.Setter)
		}
		return fmt.Sprintf("tamper.Prop(%s, %s, %s)", q, method(m.Name), setter), nil
	}
	return "", fmt.Errorf("member %s: unknown kind %d", m.Name, m.Kind)
}

var exposeFileTmpl = template.Must(template.New("expose").Parse(exposeFileTemplate))

const exposeFileTemplate = `{{.Header}}

package {{.Package}}

import "{{.Runtime}}"

func init() {
{{- range .Types}}
	tamper.Expose[{{.Name}}](
{{- range .Entries}}
		{{.}},
{{- end}}
	)
{{- end}}
}
`

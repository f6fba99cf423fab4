package gen

import (
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/funvibe/tamper/internal/config"
)

// GeneratedFile represents a generated Go source file.
type GeneratedFile struct {
	// Filename is the path the file is written to.
	Filename string

	// Content is the full, formatted Go source code.
	Content string
}

// Render produces the generated file collected by the emitter.
func (e *SourceEmitter) Render(filename string) (GeneratedFile, error) {
	type proxyData struct {
		Name   string
		Target string
		Held   *fieldDecl
		Ctor   *renderedFunc
		Stubs  []renderedFunc
	}

	proxies := make([]proxyData, len(e.proxies))
	for i, p := range e.proxies {
		pd := proxyData{Name: p.Name, Target: p.Target, Held: p.Held}
		if p.Ctor != nil {
			f := renderFunc(p.Ctor)
			pd.Ctor = &f
		}
		for _, s := range p.Stubs {
			pd.Stubs = append(pd.Stubs, renderFunc(s))
		}
		proxies[i] = pd
	}

	data := struct {
		Header  string
		Tag     string
		Package string
		Imports []importEntry
		Proxies []proxyData
		Cells   []cellDecl
		Init    string
	}{
		Header:  config.GeneratedHeader,
		Tag:     e.buildTag,
		Package: e.pkgName,
		Imports: e.imports.sorted(),
		Proxies: proxies,
		Cells:   e.cells,
		Init:    indentCode(strings.Join(e.init, "\n"), "\t"),
	}

	src, err := execute(proxyFileTmpl, data)
	if err != nil {
		return GeneratedFile{}, err
	}
	return format(filename, src)
}

type renderedFunc struct {
	Signature string
	Body      string
}

func renderFunc(f *funcDecl) renderedFunc {
	return renderedFunc{Signature: f.Signature, Body: indentCode(strings.Join(f.Body, "\n"), "\t")}
}

func execute(tmpl *template.Template, data any) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// format runs the source through goimports formatting. Imports are
// computed by the emitter, so only formatting is requested.
func format(filename, src string) (GeneratedFile, error) {
	out, err := imports.Process(filename, []byte(src), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return GeneratedFile{}, fmt.Errorf("formatting %s: %w\n%s", filename, err, src)
	}
	return GeneratedFile{Filename: filename, Content: string(out)}, nil
}

// indentCode prefixes every non-empty line of code.
func indentCode(code, prefix string) string {
	if strings.TrimSpace(code) == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(code, "\n"), "\n")
	var result strings.Builder
	for i, line := range lines {
		if i > 0 {
			result.WriteString("\n")
		}
		if line != "" {
			result.WriteString(prefix)
			result.WriteString(line)
		}
	}
	result.WriteString("\n")
	return result.String()
}

// Templates

var proxyFileTmpl = template.Must(template.New("proxy").Parse(proxyFileTemplate))

const proxyFileTemplate = `{{.Header}}

//go:build !{{.Tag}}

package {{.Package}}
{{- if .Imports}}

import (
{{- range .Imports}}
	{{.Alias}} "{{.Path}}"
{{- end}}
)
{{- end}}
{{- range .Proxies}}

// {{.Name}} is bound to {{.Target}}.
type {{.Name}} struct {
{{- if .Held}}
	{{.Held.Name}} {{.Held.Type}}
{{- end}}
}
{{- if .Ctor}}

func {{.Ctor.Signature}} {
{{.Ctor.Body}}}
{{- end}}
{{- range .Stubs}}

func {{.Signature}} {
{{.Body}}}
{{- end}}
{{- end}}
{{- if .Cells}}

var (
{{- range .Cells}}
	{{.Name}} {{.Type}}
{{- end}}
)

func init() {
{{.Init}}}
{{- end}}
`

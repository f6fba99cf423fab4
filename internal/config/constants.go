package config

// Files and paths
const (
	ConfigFileName    = "tamper.yaml"
	AltConfigFileName = "tamper.yml"
	ExposeFileName    = "tamper_expose.go"
	CacheDir          = ".tamper/cache"
	StubFileSuffix    = "_stub.go"
)

// Defaults for omitted config keys
const (
	DefaultBuildTag = "tamperstub"
	DefaultSuffix   = "_tamper.go"
	DefaultOnError  = "isolate"
	DefaultPattern  = "./..."
)

// RuntimeImport is the import path of the runtime package generated code
// calls into.
const RuntimeImport = "github.com/funvibe/tamper/pkg/tamper"

// GeneratorVersion is part of every cache key; bump it whenever generated
// output changes for the same input.
const GeneratorVersion = "tamper-gen-v1"

// GeneratedHeader starts every generated file.
const GeneratedHeader = "// Code generated by tamper. DO NOT EDIT."

// Stub directives, written as //tamper:<name> <arg>
const (
	DirectivePrefix = "//tamper:"
	DirectiveTarget = "target"
	DirectiveName   = "name"
	DirectiveGet    = "get"
	DirectiveSet    = "set"
)

// Package arg models one parsed compiler command-line argument and the
// dialect-specific parsers (MSVC, Clang) that produce them: every flag is
// exactly one of Input, Output, Flag, or Param, and carries a Scope
// deciding which sub-invocation receives it.
package arg

import "fmt"

// Scope routes a flag to the preprocessor sub-invocation, the compiler
// sub-invocation, both, or neither. An Ignore-scoped flag must never reach
// either sub-invocation.
type Scope int32

const (
	ScopePreprocessor Scope = iota
	ScopeCompiler
	ScopeShared
	ScopeIgnore
)

func (s Scope) String() string {
	switch s {
	case ScopePreprocessor:
		return "Preprocessor"
	case ScopeCompiler:
		return "Compiler"
	case ScopeShared:
		return "Shared"
	case ScopeIgnore:
		return "Ignore"
	default:
		return "Unknown"
	}
}

// InputKind distinguishes the three things an Input argument can name.
type InputKind int32

const (
	InputSource InputKind = iota
	InputPrecompiled
	InputMarker
)

// OutputKind distinguishes the two things an Output argument can name.
type OutputKind int32

const (
	OutputObject OutputKind = iota
	OutputMarker
)

// Kind tags which of the four Argument variants is populated. Go has no
// native sum type, so this is an enum-plus-payload discipline: every
// parser branch must produce a well-typed variant and every consumer
// switch must be exhaustive over Kind.
type Kind int32

const (
	KindInput Kind = iota
	KindOutput
	KindFlag
	KindParam
)

// Argument is one parsed command-line token, tagged by Kind. Exactly one
// of the field groups below is meaningful, selected by Kind.
type Argument struct {
	Kind Kind

	// KindInput / KindOutput
	InputKind  InputKind
	OutputKind OutputKind
	File       string // path for Input/Output as written on the command line; Extract absolutizes it

	// KindFlag / KindParam
	Scope Scope
	Name  string // flag name with sigil stripped, e.g. "D", "FI", "c"

	// KindParam only
	Value  string
	Spaced bool // true iff Value came from the next argv token
}

func NewInput(kind InputKind, file string) Argument {
	return Argument{Kind: KindInput, InputKind: kind, File: file}
}
func NewOutput(kind OutputKind, file string) Argument {
	return Argument{Kind: KindOutput, OutputKind: kind, File: file}
}
func NewFlag(scope Scope, name string) Argument {
	return Argument{Kind: KindFlag, Scope: scope, Name: name}
}
func NewParam(scope Scope, name, value string, spaced bool) Argument {
	return Argument{Kind: KindParam, Scope: scope, Name: name, Value: value, Spaced: spaced}
}

func (a Argument) String() string {
	switch a.Kind {
	case KindInput:
		return fmt.Sprintf("Input{%v, %q}", a.InputKind, a.File)
	case KindOutput:
		return fmt.Sprintf("Output{%v, %q}", a.OutputKind, a.File)
	case KindFlag:
		return fmt.Sprintf("Flag{%v, %q}", a.Scope, a.Name)
	case KindParam:
		return fmt.Sprintf("Param{%v, %q=%q, spaced=%v}", a.Scope, a.Name, a.Value, a.Spaced)
	default:
		return "Argument{?}"
	}
}

func (k InputKind) String() string {
	switch k {
	case InputSource:
		return "Source"
	case InputPrecompiled:
		return "Precompiled"
	case InputMarker:
		return "Marker"
	default:
		return "?"
	}
}
func (k OutputKind) String() string {
	switch k {
	case OutputObject:
		return "Object"
	case OutputMarker:
		return "Marker"
	default:
		return "?"
	}
}

/***************************************
 * PCHUsage
 ***************************************/

// PCHArgs names the precompiled header a compilation produces or consumes.
type PCHArgs struct {
	Path         string
	AbsolutePath string
	Marker       string // header stem this PCH precompiles, "" if none given
}

// PCHUsageKind discriminates the PCHUsage sum type: None | In | Out.
type PCHUsageKind int32

const (
	PCHNone PCHUsageKind = iota
	PCHIn
	PCHOut
)

type PCHUsage struct {
	Kind PCHUsageKind
	Args PCHArgs
}

func (p PCHUsage) String() string {
	switch p.Kind {
	case PCHNone:
		return "PCHUsage::None"
	case PCHIn:
		return fmt.Sprintf("PCHUsage::In{path=%q, marker=%q}", p.Args.Path, p.Args.Marker)
	case PCHOut:
		return fmt.Sprintf("PCHUsage::Out{path=%q, marker=%q}", p.Args.Path, p.Args.Marker)
	default:
		return "PCHUsage::?"
	}
}

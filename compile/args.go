package compile

import (
	"strings"

	"github.com/cachecc/occ/arg"
)

// CompilationArgs is the immutable, shared-ownership representation of one
// parsed invocation: every CompilationTask produced from the same argv
// holds a pointer back to the same CompilationArgs value. It must outlive
// any one task, so callers are expected to keep it alive via a plain
// pointer (Go's GC is the reference count here — no explicit refcounting
// needed, unlike the systems-language original this was modeled on).
type CompilationArgs struct {
	Arguments        []arg.Argument
	PCH              arg.PCHUsage
	WorkingDirectory string
	DependencyFile   string // "" if /sourceDependencies was not requested
	RerunOnPreprocessed bool
}

// NewCompilationArgs builds the shared argument set from one parsed argv.
// DependencyFile is read off the Preprocessor-scope "sourceDependencies"
// param if present.
func NewCompilationArgs(args []arg.Argument, workingDir string, pch arg.PCHUsage) *CompilationArgs {
	shared := &CompilationArgs{
		Arguments:        args,
		PCH:              pch,
		WorkingDirectory: workingDir,
	}
	for _, a := range args {
		if a.Kind == arg.KindParam && a.Name == "sourceDependencies" {
			shared.DependencyFile = a.Value
		}
	}
	return shared
}

// ScopedArgv renders the subset of Arguments routed to one sub-invocation,
// in their original encounter order. ScopeShared is included in both the
// preprocessor and compiler argv; ScopeIgnore reaches neither.
func (c *CompilationArgs) ScopedArgv(scope arg.Scope) []string {
	var out []string
	for _, a := range c.Arguments {
		if !routesTo(a, scope) {
			continue
		}
		if rendered := renderFlag(a); rendered != "" {
			out = append(out, rendered)
		}
	}
	return out
}

func routesTo(a arg.Argument, target arg.Scope) bool {
	if a.Kind != arg.KindFlag && a.Kind != arg.KindParam {
		return false
	}
	if a.Scope == arg.ScopeIgnore {
		return false
	}
	if a.Scope == arg.ScopeShared {
		return true
	}
	return a.Scope == target
}

func renderFlag(a arg.Argument) string {
	switch a.Kind {
	case arg.KindFlag:
		return "/" + a.Name
	case arg.KindParam:
		if a.Spaced {
			return "/" + a.Name + " " + a.Value
		}
		return "/" + a.Name + a.Value
	default:
		return ""
	}
}

// NormalizedString renders the compile-scope and shared-scope flags (the
// ones that matter for fingerprinting) as one deterministic string, with
// Preprocessor-only and Ignore flags excluded. This is the "normalized
// argument set" component fed into the task fingerprint. Flags appear in
// their original encounter order, each zero-byte terminated, so the same
// argv always yields the same string; reordering flags changes it.
func (c *CompilationArgs) NormalizedString() string {
	var b strings.Builder
	for _, a := range c.Arguments {
		if a.Kind != arg.KindFlag && a.Kind != arg.KindParam {
			continue
		}
		if a.Scope != arg.ScopeCompiler && a.Scope != arg.ScopeShared {
			continue
		}
		b.WriteString(renderFlag(a))
		b.WriteByte(0)
	}
	return b.String()
}

package arg

import "strings"

// spaceablePrefix is one entry of the MSVC "spaceable-prefix" table: a
// flag like /D or /I whose value is either joined (/DTEST) or, when the
// token is exactly the prefix, supplied by the next argv token
// (/D TEST2, spaced=true). Longer/more specific prefixes are listed before
// the shorter ones they could otherwise shadow (wd/we/wo before w).
type spaceablePrefix struct {
	prefix string
	scope  Scope
}

var msvcSpaceablePrefixes = []spaceablePrefix{
	{"sourceDependencies", ScopePreprocessor},
	{"wd", ScopeCompiler},
	{"we", ScopeCompiler},
	{"wo", ScopeCompiler},
	{"W", ScopeCompiler},
	{"w", ScopeCompiler},
	{"I", ScopePreprocessor},
	{"D", ScopeShared},
}

var msvcIgnoreExact = map[string]bool{
	"c":      true,
	"nologo": true,
}

var msvcCompilerExact = map[string]bool{
	"bigobj": true,
}

var msvcCompilerPrefixes = []string{"MP"}

var msvcPreprocessorExact = map[string]bool{
	"X": true,
}

var msvcSharedExact = map[string]bool{
	"FC":             true,
	"d2vzeroupper":   true,
	"fastfail":       true,
}

var msvcSharedPrefixes = []string{
	"O", "G", "RTC", "Z", "d2Zi+", "std:", "fsanitize=", "MD", "MT", "EH",
	"fp:", "arch:", "errorReport:", "source-charset:", "execution-charset:",
	"favor:", "Yl", "analyze",
}

// ParseMSVC tokenizes a cl.exe-style command line into Argument values.
// workingDir resolves response files and relative input/output paths.
func ParseMSVC(argv []string, workingDir string) ([]Argument, error) {
	expanded, err := ExpandResponseFiles(argv, workingDir)
	if err != nil {
		return nil, err
	}

	var (
		result  []Argument
		unknown []string
	)

	for i := 0; i < len(expanded); i++ {
		tok := expanded[i]

		if !isFlagToken(tok) {
			result = append(result, NewInput(InputSource, tok))
			continue
		}

		body := tok[1:]
		hasNext := i+1 < len(expanded)
		var next string
		if hasNext {
			next = expanded[i+1]
		}

		argument, consumeNext, ok, perr := classifyMSVC(body, next, hasNext)
		if perr != nil {
			return nil, perr
		}
		if !ok {
			unknown = append(unknown, tok)
			continue
		}

		result = append(result, argument)
		if consumeNext {
			i++
		}
	}

	if len(unknown) > 0 {
		return nil, &ParseError{Unknown: unknown}
	}
	return result, nil
}

func isFlagToken(tok string) bool {
	return len(tok) > 0 && (tok[0] == '/' || tok[0] == '-')
}

// classifyMSVC implements the four-step ordered classification from the
// spec: spaceable-prefix table, exact flags, structural flags, unknown.
func classifyMSVC(body, next string, hasNext bool) (arg Argument, consumeNext bool, ok bool, err error) {
	// 1. Spaceable-prefix table.
	for _, p := range msvcSpaceablePrefixes {
		if !strings.HasPrefix(body, p.prefix) {
			continue
		}
		remainder := body[len(p.prefix):]
		if remainder != "" {
			return NewParam(p.scope, p.prefix, remainder, false), false, true, nil
		}
		// body == prefix exactly: value must come from the next token.
		if hasNext && isFlagToken(next) {
			return Argument{}, false, false, nil // reported as unknown by caller
		}
		if !hasNext {
			return Argument{}, false, false, &MissingValueError{Flag: "/" + p.prefix}
		}
		return NewParam(p.scope, p.prefix, next, true), true, true, nil
	}

	// 2. Exact flags.
	if msvcIgnoreExact[body] {
		return NewFlag(ScopeIgnore, body), false, true, nil
	}
	if msvcCompilerExact[body] {
		return NewFlag(ScopeCompiler, body), false, true, nil
	}
	for _, p := range msvcCompilerPrefixes {
		if strings.HasPrefix(body, p) {
			return NewFlag(ScopeCompiler, body), false, true, nil
		}
	}
	if msvcPreprocessorExact[body] {
		return NewFlag(ScopePreprocessor, body), false, true, nil
	}
	if msvcSharedExact[body] {
		return NewFlag(ScopeShared, body), false, true, nil
	}
	for _, p := range msvcSharedPrefixes {
		if strings.HasPrefix(body, p) {
			return NewFlag(ScopeShared, body), false, true, nil
		}
	}

	// 3. Structural flags.
	if len(body) == 2 && body[0] == 'T' {
		return NewParam(ScopeIgnore, "T", body[1:], false), false, true, nil
	}
	if strings.HasPrefix(body, "Fo") {
		return NewOutput(OutputObject, body[len("Fo"):]), false, true, nil
	}
	if strings.HasPrefix(body, "Fp") {
		return NewInput(InputPrecompiled, body[len("Fp"):]), false, true, nil
	}
	if strings.HasPrefix(body, "Yc") {
		return NewOutput(OutputMarker, body[len("Yc"):]), false, true, nil
	}
	if strings.HasPrefix(body, "Yu") {
		return NewInput(InputMarker, body[len("Yu"):]), false, true, nil
	}
	if strings.HasPrefix(body, "FI") {
		return NewParam(ScopePreprocessor, "FI", body[len("FI"):], false), false, true, nil
	}

	// 4. Unknown.
	return Argument{}, false, false, nil
}

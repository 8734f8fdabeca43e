package arg

import "strings"

// ParseClang tokenizes a Clang-style ("-" sigil) command line into the
// same Argument model ParseMSVC produces, so everything downstream of
// parsing is dialect-agnostic: -D/-I/-W…/-c/-o/-include-pch/-emit-pch/-x.
func ParseClang(argv []string, workingDir string) ([]Argument, error) {
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

		body := strings.TrimPrefix(tok[1:], "-") // allow both "-I" and "--include"-style double dash
		hasNext := i+1 < len(expanded)
		var next string
		if hasNext {
			next = expanded[i+1]
		}

		if body == "include-pch" {
			if !hasNext {
				return nil, &MissingValueError{Flag: "-include-pch"}
			}
			// single flag plays both roles the MSVC dialect splits across
			// /Fp and /Yu: the precompiled file itself, and the PCH marker.
			result = append(result, NewInput(InputPrecompiled, next), NewInput(InputMarker, next))
			i++
			continue
		}

		argument, consumeNext, ok, perr := classifyClang(body, next, hasNext)
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

var clangSpaceablePrefixes = []spaceablePrefix{
	{"I", ScopePreprocessor},
	{"D", ScopeShared},
	{"o", ScopeShared}, // never matched: classifyClang handles -o as an output before this table and skips this entry
}

var clangIgnoreExact = map[string]bool{
	"c": true,
}

func classifyClang(body, next string, hasNext bool) (a Argument, consumeNext bool, ok bool, err error) {
	// Dedicated structural flags checked first: -o, -x, -include-pch, -emit-pch.
	if body == "o" {
		if !hasNext {
			return Argument{}, false, false, &MissingValueError{Flag: "-o"}
		}
		return NewOutput(OutputObject, next), true, true, nil
	}
	if strings.HasPrefix(body, "o") && len(body) > 1 {
		return NewOutput(OutputObject, body[1:]), false, true, nil
	}
	if body == "x" {
		if !hasNext {
			return Argument{}, false, false, &MissingValueError{Flag: "-x"}
		}
		return NewParam(ScopeIgnore, "T", normalizeClangLanguage(next), true), true, true, nil
	}
	if body == "emit-pch" {
		return NewOutput(OutputMarker, ""), false, true, nil
	}

	// Warning flags: whole token is the flag name, Compiler scope.
	if strings.HasPrefix(body, "W") {
		return NewFlag(ScopeCompiler, body), false, true, nil
	}

	// Spaceable-prefix table (D, I).
	for _, p := range clangSpaceablePrefixes {
		if p.prefix == "o" {
			continue // handled by the dedicated -o case above
		}
		if !strings.HasPrefix(body, p.prefix) {
			continue
		}
		remainder := body[len(p.prefix):]
		if remainder != "" {
			return NewParam(p.scope, p.prefix, remainder, false), false, true, nil
		}
		if hasNext && isFlagToken(next) {
			return Argument{}, false, false, nil
		}
		if !hasNext {
			return Argument{}, false, false, &MissingValueError{Flag: "-" + p.prefix}
		}
		return NewParam(p.scope, p.prefix, next, true), true, true, nil
	}

	if clangIgnoreExact[body] {
		return NewFlag(ScopeIgnore, body), false, true, nil
	}

	return Argument{}, false, false, nil
}

// normalizeClangLanguage maps clang's -x language names onto the shared
// "C"/"P" vocabulary CompilationTask.Language uses.
func normalizeClangLanguage(value string) string {
	if strings.HasPrefix(value, "c++") {
		return "P"
	}
	return "C"
}

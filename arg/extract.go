package arg

import (
	"path/filepath"
	"strings"
)

// ExtractedArgs is the dialect-agnostic result of post-parse extraction:
// downstream components (fingerprinting, cache, task construction) only
// ever see this shape, regardless of whether the Arguments came from the
// MSVC or Clang dialect.
type ExtractedArgs struct {
	InputSources     []string
	PrecompiledFile  string // "" if none given
	PCH              PCHUsage
	OutputObject     string // "" if absent
	ExplicitLanguage string // "C", "P", or "" if not explicit
}

// findParam returns the single Argument matching pred, or an error if more
// than one matches. Zero matches is not an error — callers decide whether
// that's acceptable.
func findParam(args []Argument, pred func(Argument) bool, what string) (*Argument, error) {
	var found *Argument
	for i := range args {
		if !pred(args[i]) {
			continue
		}
		if found != nil {
			return nil, &TooManyError{What: what}
		}
		found = &args[i]
	}
	return found, nil
}

func absolutize(path, workingDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	joined := filepath.Join(workingDir, path)
	// keep a trailing separator: it marks an output path naming a directory
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		joined += string(filepath.Separator)
	}
	return joined
}

// Extract walks a parsed argument list into ExtractedArgs, shared by every
// dialect since the Argument model they produce is identical.
func Extract(args []Argument, workingDir string) (ExtractedArgs, error) {
	var result ExtractedArgs

	for _, a := range args {
		if a.Kind == KindInput && a.InputKind == InputSource {
			result.InputSources = append(result.InputSources, absolutize(a.File, workingDir))
		}
	}
	if len(result.InputSources) == 0 {
		return result, &MissingSourceError{}
	}

	precompiled, err := findParam(args, func(a Argument) bool {
		return a.Kind == KindInput && a.InputKind == InputPrecompiled
	}, "/Fp precompiled header")
	if err != nil {
		return result, err
	}
	if precompiled != nil {
		result.PrecompiledFile = precompiled.File
	}

	output, err := findParam(args, func(a Argument) bool {
		return a.Kind == KindOutput && a.OutputKind == OutputObject
	}, "/Fo output object")
	if err != nil {
		return result, err
	}
	if output != nil {
		result.OutputObject = absolutize(output.File, workingDir)
	}

	marker, err := findParam(args, func(a Argument) bool {
		return (a.Kind == KindInput && a.InputKind == InputMarker) ||
			(a.Kind == KindOutput && a.OutputKind == OutputMarker)
	}, "PCH marker (/Yc or /Yu)")
	if err != nil {
		return result, err
	}
	if marker != nil {
		stem := marker.File
		path := result.PrecompiledFile
		isOut := marker.Kind == KindOutput
		if path == "" && isOut {
			// a PCH-producing compile (/Yc, clang -emit-pch) commonly names
			// its output through the regular object-output flag.
			path = result.OutputObject
		}
		if path == "" {
			path = derivePCHPath(stem)
		}
		usage := PCHUsage{
			Args: PCHArgs{
				Path:         path,
				AbsolutePath: absolutize(path, workingDir),
				Marker:       stem,
			},
		}
		if isOut {
			usage.Kind = PCHOut
		} else {
			usage.Kind = PCHIn
		}
		result.PCH = usage
	}

	lang, err := findParam(args, func(a Argument) bool {
		return a.Kind == KindParam && a.Scope == ScopeIgnore && a.Name == "T"
	}, "/T language flag")
	if err != nil {
		return result, err
	}
	if lang != nil {
		result.ExplicitLanguage = lang.Value
	}

	return result, nil
}

// derivePCHPath replaces a marker stem's own extension with ".pch", e.g.
// "sample.h" -> "sample.pch", the implicit path MSVC derives when /Yu
// names a marker without an explicit /Fp.
func derivePCHPath(stem string) string {
	ext := filepath.Ext(stem)
	base := strings.TrimSuffix(stem, ext)
	return base + ".pch"
}

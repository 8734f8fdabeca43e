package compile

import (
	"path/filepath"
	"strings"

	"github.com/cachecc/occ/arg"
)

const (
	LanguageC   = "C"
	LanguageCPP = "P"
)

// CompilationTask is one (shared, input_source, language, output_object)
// tuple. InputSource and OutputObject are always absolute paths.
type CompilationTask struct {
	Shared       *CompilationArgs
	InputSource  string
	Language     string
	OutputObject string
}

// NewCompilationTasks expands one Extract() result into one task per input
// source, since an invocation may list many sources sharing the same
// CompilationArgs.
func NewCompilationTasks(shared *CompilationArgs, extracted arg.ExtractedArgs) []CompilationTask {
	tasks := make([]CompilationTask, 0, len(extracted.InputSources))
	for _, source := range extracted.InputSources {
		lang := extracted.ExplicitLanguage
		if lang == "" {
			lang = detectLanguage(source)
		}
		output := extracted.OutputObject
		if output == "" {
			output = defaultObjectPath(source)
		} else if isDirectoryPath(output) {
			output = filepath.Join(output, objectBasename(source))
		}
		tasks = append(tasks, CompilationTask{
			Shared:       shared,
			InputSource:  source,
			Language:     lang,
			OutputObject: output,
		})
	}
	return tasks
}

// detectLanguage infers the language code from a source file's extension
// when no explicit /T or -x flag was given.
func detectLanguage(source string) string {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".c":
		return LanguageC
	case ".cpp", ".cc", ".cxx":
		return LanguageCPP
	default:
		return LanguageCPP
	}
}

func objectBasename(source string) string {
	base := filepath.Base(source)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + ".obj"
}

func defaultObjectPath(source string) string {
	dir := filepath.Dir(source)
	return filepath.Join(dir, objectBasename(source))
}

// isDirectoryPath is a syntactic heuristic only — a real implementation
// would stat the path, but the extraction layer does not have filesystem
// access. MSVC's "/Fo names a directory" rule is conventionally signaled
// by a trailing separator in command lines that mean it.
func isDirectoryPath(path string) bool {
	return strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator))
}

package arg

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandResponseFiles splices the whitespace-split contents of any
// "@file" token in place, recursively, resolving relative paths against
// workingDir. Cycles (a response file that, transitively, includes
// itself) are detected and reported rather than looped forever.
func ExpandResponseFiles(argv []string, workingDir string) ([]string, error) {
	return expandResponseFiles(argv, workingDir, nil)
}

func expandResponseFiles(argv []string, workingDir string, chain []string) ([]string, error) {
	result := make([]string, 0, len(argv))
	for _, tok := range argv {
		if !strings.HasPrefix(tok, "@") {
			result = append(result, tok)
			continue
		}

		path := tok[1:]
		if !filepath.IsAbs(path) {
			path = filepath.Join(workingDir, path)
		}
		path = filepath.Clean(path)

		for _, seen := range chain {
			if seen == path {
				return nil, &CycleError{Chain: append(append([]string{}, chain...), path)}
			}
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		nested := strings.Fields(string(data))
		expanded, err := expandResponseFiles(nested, filepath.Dir(path), append(chain, path))
		if err != nil {
			return nil, err
		}
		result = append(result, expanded...)
	}
	return result, nil
}

package compile

import (
	"strings"
	"testing"

	"github.com/cachecc/occ/arg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseAndExtract(t *testing.T, argv []string, workingDir string) (*CompilationArgs, arg.ExtractedArgs) {
	t.Helper()
	parsed, err := arg.ParseMSVC(argv, workingDir)
	require.NoError(t, err)
	extracted, err := arg.Extract(parsed, workingDir)
	require.NoError(t, err)
	shared := NewCompilationArgs(parsed, workingDir, extracted.PCH)
	return shared, extracted
}

func TestCompilationTaskLanguageAndOutputDefaults(t *testing.T) {
	shared, extracted := parseAndExtract(t, []string{"sample.cpp"}, "/work")
	tasks := NewCompilationTasks(shared, extracted)

	require.Len(t, tasks, 1)
	assert.Equal(t, LanguageCPP, tasks[0].Language)
	assert.Equal(t, "/work/sample.obj", tasks[0].OutputObject)
	assert.Equal(t, "/work/sample.cpp", tasks[0].InputSource)
}

func TestCompilationTaskExplicitOutputAndLanguage(t *testing.T) {
	shared, extracted := parseAndExtract(t, []string{"/TP", "/Fosample.cpp.o", "sample.cpp"}, "/work")
	tasks := NewCompilationTasks(shared, extracted)

	require.Len(t, tasks, 1)
	assert.Equal(t, LanguageCPP, tasks[0].Language)
	assert.Equal(t, "/work/sample.cpp.o", tasks[0].OutputObject)
}

func TestCompilationTaskCLanguageFromExtension(t *testing.T) {
	shared, extracted := parseAndExtract(t, []string{"sample.c"}, "/work")
	tasks := NewCompilationTasks(shared, extracted)

	require.Len(t, tasks, 1)
	assert.Equal(t, LanguageC, tasks[0].Language)
}

func TestScopedArgvSplitsByScope(t *testing.T) {
	shared, _ := parseAndExtract(t, []string{
		"/Iinclude", "/DTEST", "/W4", "sample.cpp",
	}, "/work")

	pre := shared.ScopedArgv(arg.ScopePreprocessor)
	cc := shared.ScopedArgv(arg.ScopeCompiler)

	assert.True(t, containsPrefix(pre, "/Iinclude"))
	assert.True(t, containsPrefix(pre, "/DTEST")) // shared flags reach both
	assert.True(t, containsPrefix(cc, "/DTEST"))
	assert.True(t, containsPrefix(cc, "/W4"))
	assert.False(t, containsPrefix(pre, "/W4")) // compiler-only never reaches preprocessor
}

func TestNormalizedStringExcludesPreprocessorAndIgnore(t *testing.T) {
	sharedA, _ := parseAndExtract(t, []string{"/Iinclude", "/DTEST", "sample.cpp"}, "/work")
	sharedB, _ := parseAndExtract(t, []string{"/Iother", "/DTEST", "sample.cpp"}, "/work")

	assert.Equal(t, sharedA.NormalizedString(), sharedB.NormalizedString())
}

func TestFingerprintStableAcrossPreprocessorOnlyDifferences(t *testing.T) {
	sharedA, extractedA := parseAndExtract(t, []string{"/Iinclude", "/DTEST", "sample.cpp"}, "/work")
	sharedB, extractedB := parseAndExtract(t, []string{"/Iother", "/DTEST", "sample.cpp"}, "/work")

	taskA := NewCompilationTasks(sharedA, extractedA)[0]
	taskB := NewCompilationTasks(sharedB, extractedB)[0]

	toolchain := ToolchainIdentity{Name: "msvc", Version: "19.38"}
	fpA, err := taskA.Fingerprint(strings.NewReader("int main(){}"), toolchain)
	require.NoError(t, err)
	fpB, err := taskB.Fingerprint(strings.NewReader("int main(){}"), toolchain)
	require.NoError(t, err)

	assert.Equal(t, fpA, fpB)
}

func TestFingerprintChangesWithSource(t *testing.T) {
	shared, extracted := parseAndExtract(t, []string{"sample.cpp"}, "/work")
	task := NewCompilationTasks(shared, extracted)[0]
	toolchain := ToolchainIdentity{Name: "msvc", Version: "19.38"}

	fp1, err := task.Fingerprint(strings.NewReader("int main(){return 0;}"), toolchain)
	require.NoError(t, err)
	fp2, err := task.Fingerprint(strings.NewReader("int main(){return 1;}"), toolchain)
	require.NoError(t, err)

	assert.NotEqual(t, fp1, fp2)
}

func containsPrefix(argv []string, prefix string) bool {
	for _, a := range argv {
		if strings.HasPrefix(a, prefix) {
			return true
		}
	}
	return false
}

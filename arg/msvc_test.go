package arg

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinimalCompile(t *testing.T) {
	args, err := ParseMSVC([]string{"/TP", "/c", "/Fosample.cpp.o", "sample.cpp"}, "/work")
	require.NoError(t, err)

	extracted, err := Extract(args, "/work")
	require.NoError(t, err)

	assert.Equal(t, "P", extracted.ExplicitLanguage)
	assert.Equal(t, "/work/sample.cpp.o", extracted.OutputObject)
	assert.Equal(t, PCHNone, extracted.PCH.Kind)
	require.Len(t, extracted.InputSources, 1)
	assert.Equal(t, "/work/sample.cpp", extracted.InputSources[0])
}

func TestSpacedDefine(t *testing.T) {
	args, err := ParseMSVC([]string{"/D", "TEST2", "sample.cpp"}, "/work")
	require.NoError(t, err)

	require.Len(t, args, 2)
	assert.Equal(t, NewParam(ScopeShared, "D", "TEST2", true), args[0])
}

func TestJoinedDefine(t *testing.T) {
	args, err := ParseMSVC([]string{"/DTEST", "sample.cpp"}, "/work")
	require.NoError(t, err)

	require.Len(t, args, 2)
	assert.Equal(t, NewParam(ScopeShared, "D", "TEST", false), args[0])
}

func TestPCHProduction(t *testing.T) {
	args, err := ParseMSVC([]string{"/Ycsample.h", "/Fpsample.h.pch", "/c", "sample.cpp"}, "/work")
	require.NoError(t, err)

	extracted, err := Extract(args, "/work")
	require.NoError(t, err)

	require.Equal(t, PCHOut, extracted.PCH.Kind)
	assert.Equal(t, "sample.h.pch", extracted.PCH.Args.Path)
	assert.Equal(t, "sample.h", extracted.PCH.Args.Marker)
}

func TestPCHConsumptionImplicitPath(t *testing.T) {
	args, err := ParseMSVC([]string{"/Yusample.h", "/c", "sample.cpp"}, "/work")
	require.NoError(t, err)

	extracted, err := Extract(args, "/work")
	require.NoError(t, err)

	require.Equal(t, PCHIn, extracted.PCH.Kind)
	assert.Equal(t, "sample.pch", extracted.PCH.Args.Path)
	assert.Equal(t, "sample.h", extracted.PCH.Args.Marker)
}

func TestUnknownFlagError(t *testing.T) {
	_, err := ParseMSVC([]string{"/Qbogus", "sample.cpp"}, "/work")
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Unknown, "/Qbogus")
}

func TestFullFixtureOrderedSequence(t *testing.T) {
	args, err := ParseMSVC([]string{
		"/TP", "/c", "/Yusample.h", "/Fpsample.h.pch", "/Fosample.cpp.o",
		"/DTEST", "/D", "TEST2", "/arch:AVX", "/fsanitize=address", "sample.cpp",
	}, "/work")
	require.NoError(t, err)

	require.Len(t, args, 10)
	assert.Equal(t, NewParam(ScopeIgnore, "T", "P", false), args[0])
	assert.Equal(t, NewFlag(ScopeIgnore, "c"), args[1])
	assert.Equal(t, NewInput(InputMarker, "sample.h"), args[2])
	assert.Equal(t, NewInput(InputPrecompiled, "sample.h.pch"), args[3])
	assert.Equal(t, NewOutput(OutputObject, "sample.cpp.o"), args[4])
	assert.Equal(t, NewParam(ScopeShared, "D", "TEST", false), args[5])
	assert.Equal(t, NewParam(ScopeShared, "D", "TEST2", true), args[6])
	assert.Equal(t, NewFlag(ScopeShared, "arch:AVX"), args[7])
	assert.Equal(t, NewFlag(ScopeShared, "fsanitize=address"), args[8])
	assert.Equal(t, NewInput(InputSource, "sample.cpp"), args[9])
}

func TestMissingValueAtEndOfArgv(t *testing.T) {
	_, err := ParseMSVC([]string{"sample.cpp", "/D"}, "/work")
	require.Error(t, err)
	var missing *MissingValueError
	assert.ErrorAs(t, err, &missing)

	_, err = ParseMSVC([]string{"sample.cpp", "/I"}, "/work")
	require.Error(t, err)
	assert.ErrorAs(t, err, &missing)
}

func TestResponseFileExpansion(t *testing.T) {
	dir := t.TempDir()
	rsp := dir + "/flags.rsp"
	require.NoError(t, os.WriteFile(rsp, []byte("/DTEST sample.cpp"), 0o644))

	args, err := ParseMSVC([]string{"@flags.rsp"}, dir)
	require.NoError(t, err)
	require.Len(t, args, 2)
}

func TestResponseFileCycleDetected(t *testing.T) {
	dir := t.TempDir()
	a := dir + "/a.rsp"
	b := dir + "/b.rsp"
	require.NoError(t, os.WriteFile(a, []byte("@b.rsp"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("@a.rsp"), 0o644))

	_, err := ParseMSVC([]string{"@a.rsp"}, dir)
	require.Error(t, err)
	var cycleErr *CycleError
	assert.ErrorAs(t, err, &cycleErr)
}

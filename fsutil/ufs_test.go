package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIsAtomic(t *testing.T) {
	dir := MakeDirectory(t.TempDir())
	f := dir.File("entry.cache")

	err := UFS.Create(f, func(w io.Writer) error {
		_, err := w.Write([]byte("payload"))
		return err
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir.Path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "entry.cache", entries[0].Name())

	data, err := os.ReadFile(f.String())
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestCreateCleansUpOnFailure(t *testing.T) {
	dir := MakeDirectory(t.TempDir())
	f := dir.File("broken.cache")

	err := UFS.Create(f, func(w io.Writer) error {
		return assertErr
	})
	require.Error(t, err)

	entries, err := os.ReadDir(dir.Path)
	require.NoError(t, err)
	assert.Len(t, entries, 0)
}

var assertErr = os.ErrInvalid

func TestFilenameReplaceExt(t *testing.T) {
	f := MakeFilename(filepath.Join("a", "b", "sample.cpp"))
	obj := f.ReplaceExt("obj")
	assert.Equal(t, "sample.obj", obj.Basename)
}

func TestFileSetSortAndContains(t *testing.T) {
	set := FileSet{MakeFilename("b.obj"), MakeFilename("a.obj")}
	set.Sort()
	assert.True(t, set.IsSorted())
	assert.True(t, set.Contains(MakeFilename("a.obj")))
}

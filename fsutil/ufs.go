package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cachecc/occ/internal/base"
)

var LogUFS = base.NewLogCategory("UFS")

// ufsT is the filesystem facade used instead of raw os calls. Its Root
// field is not consulted: every method takes paths as given.
type ufsT struct {
	Root Directory
}

var UFS = ufsT{Root: MakeDirectory(".")}

func (ufsT) Mkdir(d Directory) error {
	if d.Exists() {
		return nil
	}
	return os.MkdirAll(d.Path, 0o755)
}

func (ufsT) Open(f Filename, read func(io.Reader) error) error {
	file, err := os.Open(f.String())
	if err != nil {
		return err
	}
	defer file.Close()
	return read(file)
}

func (ufsT) OpenFile(f Filename, read func(*os.File) error) error {
	file, err := os.Open(f.String())
	if err != nil {
		return err
	}
	defer file.Close()
	return read(file)
}

// Create materializes f atomically: write into a temporary sibling file,
// then rename into place, so a reader never observes a partially-written
// cache entry.
func (u ufsT) Create(f Filename, write func(io.Writer) error) error {
	if err := u.Mkdir(f.Dirname); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.Dirname.Path, f.Basename+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	succeeded := false
	defer func() {
		tmp.Close()
		if !succeeded {
			os.Remove(tmpName)
		}
	}()

	if err := write(tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, f.String()); err != nil {
		return err
	}
	succeeded = true
	return nil
}

func (u ufsT) CreateFile(f Filename, write func(*os.File) error) error {
	if err := u.Mkdir(f.Dirname); err != nil {
		return err
	}
	file, err := os.Create(f.String())
	if err != nil {
		return err
	}
	defer file.Close()
	return write(file)
}

func (ufsT) Remove(f Filename) error {
	err := os.Remove(f.String())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (ufsT) Touch(f Filename) error {
	now := time.Now()
	return os.Chtimes(f.String(), now, now)
}

// CreateTemp writes a scratch file under sub (relative to a process-wide
// temporary root) and returns its path, used by the builder to stage a
// job's preprocessed source before compiling it.
func (u ufsT) CreateTemp(sub string, write func(io.Writer) error) (Filename, error) {
	dir := MakeDirectory(filepath.Join(os.TempDir(), sub))
	if err := u.Mkdir(dir); err != nil {
		return Filename{}, err
	}
	tmp, err := os.CreateTemp(dir.Path, "occ-*.tmp")
	if err != nil {
		return Filename{}, err
	}
	defer tmp.Close()
	if err := write(tmp); err != nil {
		return Filename{}, err
	}
	return MakeFilename(tmp.Name()), nil
}

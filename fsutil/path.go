// Package fsutil provides the Directory/Filename path value types and the
// UFS filesystem facade; some packages (cache among them) still call os
// directly.
package fsutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type Directory struct {
	Path string
}

func MakeDirectory(str string) Directory {
	return Directory{Path: filepath.Clean(str)}
}
func (d Directory) Valid() bool { return len(d.Path) > 0 }
func (d Directory) String() string {
	return d.Path
}
func (d Directory) Folder(names ...string) Directory {
	parts := append([]string{d.Path}, names...)
	return MakeDirectory(filepath.Join(parts...))
}
func (d Directory) File(names ...string) Filename {
	if len(names) == 0 {
		return Filename{}
	}
	dir := d
	if len(names) > 1 {
		dir = d.Folder(names[:len(names)-1]...)
	}
	return Filename{Dirname: dir, Basename: names[len(names)-1]}
}
func (d Directory) Equals(o Directory) bool { return d.Path == o.Path }
func (d Directory) Exists() bool {
	info, err := os.Stat(d.Path)
	return err == nil && info.IsDir()
}

type Filename struct {
	Dirname  Directory
	Basename string
}

func MakeFilename(str string) Filename {
	dir, base := filepath.Split(filepath.Clean(str))
	return Filename{Dirname: MakeDirectory(dir), Basename: base}
}
func (f Filename) Valid() bool { return len(f.Basename) > 0 }
func (f Filename) String() string {
	return filepath.Join(f.Dirname.Path, f.Basename)
}
func (f Filename) Ext() string {
	return strings.TrimPrefix(filepath.Ext(f.Basename), ".")
}
func (f Filename) TrimExt() string {
	return strings.TrimSuffix(f.Basename, filepath.Ext(f.Basename))
}
func (f Filename) ReplaceExt(ext string) Filename {
	return Filename{Dirname: f.Dirname, Basename: f.TrimExt() + "." + strings.TrimPrefix(ext, ".")}
}
func (f Filename) Equals(o Filename) bool {
	return f.Dirname.Equals(o.Dirname) && f.Basename == o.Basename
}
func (f Filename) Exists() bool {
	info, err := os.Stat(f.String())
	return err == nil && !info.IsDir()
}
func (f Filename) Info() (os.FileInfo, error) {
	return os.Stat(f.String())
}
func (f Filename) Relative(to Directory) string {
	rel, err := filepath.Rel(to.Path, f.String())
	if err != nil {
		return f.String()
	}
	return rel
}
func (f Filename) IsAbsolute() bool {
	return filepath.IsAbs(f.String())
}

// FileSet is an ordered collection of Filenames, the unit in which the
// cache contract expects output lists. It keeps the order it is built in;
// Sort orders it by path on request, and nothing deduplicates it.
type FileSet []Filename

func (list FileSet) Len() int      { return len(list) }
func (list FileSet) Swap(i, j int) { list[i], list[j] = list[j], list[i] }
func (list FileSet) Less(i, j int) bool {
	return list[i].String() < list[j].String()
}
func (list FileSet) IsSorted() bool { return sort.IsSorted(list) }
func (list FileSet) Sort()          { sort.Sort(list) }
func (list FileSet) Contains(f Filename) bool {
	for _, it := range list {
		if it.Equals(f) {
			return true
		}
	}
	return false
}
func (list FileSet) Equals(o FileSet) bool {
	if len(list) != len(o) {
		return false
	}
	for i, it := range list {
		if !it.Equals(o[i]) {
			return false
		}
	}
	return true
}
func (list *FileSet) Append(f ...Filename) {
	*list = append(*list, f...)
}
func (list FileSet) Concat(o ...Filename) FileSet {
	result := make(FileSet, 0, len(list)+len(o))
	result = append(result, list...)
	result = append(result, o...)
	return result
}

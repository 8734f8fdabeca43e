package cache

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cachecc/occ/fsutil"
	"github.com/cachecc/occ/internal/base"
	"github.com/danjacques/gofslock/fslock"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/client_golang/prometheus"
)

var log = base.NewLogCategory("Cache")

// Store is the filesystem-backed content-addressed object cache. Entries
// are sharded two levels deep by the first two hex bytes of their
// fingerprint (ab/cd/abcd....cache) to keep any one directory from
// accumulating enough entries to slow down directory listing at scale.
type Store struct {
	Root        fsutil.Directory
	Compression base.CompressionFormat
}

func NewStore(root fsutil.Directory, compression base.CompressionFormat) *Store {
	return &Store{Root: root, Compression: compression}
}

func (s *Store) entryPath(fp base.Fingerprint) fsutil.Filename {
	hex := fp.String()
	return s.Root.Folder(hex[0:2], hex[2:4]).File(hex + ".cache")
}

func (s *Store) lockPath(fp base.Fingerprint) string {
	return s.Root.Folder(".locks").File(fp.String() + ".lock").String()
}

// Worker produces the files listed in outputPaths, in order, when
// invoked on a cache miss.
type Worker func() error

// RunCached consults the entry for fp and either replays the cached
// outputs or runs worker and stores what it produced. At most one worker
// execution per fingerprint per host is guaranteed by a named filesystem
// lock; in-process callers racing on the same fingerprint simply queue on
// that lock.
func (s *Store) RunCached(fp base.Fingerprint, outputPaths fsutil.FileSet, worker Worker) (hit bool, err error) {
	if err := fsutil.UFS.Mkdir(s.Root.Folder(".locks")); err != nil {
		return false, err
	}
	lock, err := fslock.LockBlocking(s.lockPath(fp), func() error {
		time.Sleep(10 * time.Millisecond)
		return nil
	})
	if err != nil {
		return false, err
	}
	defer lock.Unlock()

	ok, err := s.tryLoad(fp, outputPaths)
	if err != nil {
		return false, err
	}
	if ok {
		statHits.Inc()
		return true, nil
	}

	statMisses.Inc()
	if err := worker(); err != nil {
		return false, err
	}

	if err := s.store(fp, outputPaths); err != nil {
		return false, err
	}
	statStores.Inc()
	return false, nil
}

// tryLoad attempts a cache hit, writing outputPaths in order on success.
// Any structural problem with the entry (bad magic, wrong output count,
// truncated blob) is downgraded to a miss rather than propagated, per the
// spec's corruption-handling invariant.
func (s *Store) tryLoad(fp base.Fingerprint, outputPaths fsutil.FileSet) (bool, error) {
	entryFile := s.entryPath(fp)
	if !entryFile.Exists() {
		return false, nil
	}

	var outputs [][]byte
	err := fsutil.UFS.Open(entryFile, func(r io.Reader) error {
		decompressed, derr := base.DecompressReader(r, s.Compression)
		if derr != nil {
			// A stream that doesn't decode under the store's configured
			// codec (e.g. written under a different CompressionFormat) is
			// as structurally unusable as a bad magic or truncated blob.
			return &ErrCorruptEntry{Reason: "decompression failed: " + derr.Error()}
		}
		defer decompressed.Close()

		var uerr error
		outputs, uerr = unpackEntry(decompressed, len(outputPaths))
		return uerr
	})

	if err != nil {
		if _, corrupt := err.(*ErrCorruptEntry); corrupt {
			base.LogWarning(log, "discarding corrupt cache entry %s: %v", entryFile, err)
			_ = fsutil.UFS.Remove(entryFile)
			return false, nil
		}
		return false, err
	}

	for i, out := range outputs {
		blob := out
		if err := fsutil.UFS.Create(outputPaths[i], func(w io.Writer) error {
			_, err := w.Write(blob)
			return err
		}); err != nil {
			return false, err
		}
	}
	return true, nil
}

// store reads outputPaths (already produced by worker) and packs them
// into a new entry, written atomically via a temp-file-then-rename.
func (s *Store) store(fp base.Fingerprint, outputPaths fsutil.FileSet) error {
	outputs := make([][]byte, len(outputPaths))
	for i, f := range outputPaths {
		data, err := os.ReadFile(f.String())
		if err != nil {
			return err
		}
		outputs[i] = data
	}

	entryFile := s.entryPath(fp)
	return fsutil.UFS.Create(entryFile, func(w io.Writer) error {
		compressed, err := base.CompressWriter(w, s.Compression)
		if err != nil {
			return err
		}
		if err := packEntry(compressed, outputs); err != nil {
			compressed.Close()
			return err
		}
		return compressed.Close()
	})
}

// EntryInfo is one row of Iterate's enumeration, letting an external
// policy (LRU, size-cap) implement eviction without this package
// dictating a policy itself.
type EntryInfo struct {
	Fingerprint base.Fingerprint
	Path        fsutil.Filename
	Size        int64
	ModTime     int64 // unix seconds
}

// Iterate walks every entry currently on disk, invoking visit for each.
// Returning an error from visit stops the walk and propagates the error.
// Non-entry files (the .locks directory, stray files) are skipped rather
// than treated as errors.
func (s *Store) Iterate(visit func(EntryInfo) error) error {
	return filepath.WalkDir(s.Root.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".cache") {
			return nil
		}

		var fp base.Fingerprint
		name := strings.TrimSuffix(d.Name(), ".cache")
		if setErr := fp.Set(name); setErr != nil {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		return visit(EntryInfo{
			Fingerprint: fp,
			Path:        fsutil.MakeFilename(path),
			Size:        info.Size(),
			ModTime:     info.ModTime().Unix(),
		})
	})
}

var (
	statHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "occ",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Number of cache lookups that returned a valid entry.",
	})
	statMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "occ",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Number of cache lookups that found no usable entry.",
	})
	statStores = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "occ",
		Subsystem: "cache",
		Name:      "stores_total",
		Help:      "Number of new entries written after a worker ran.",
	})
)

func init() {
	prometheus.MustRegister(statHits, statMisses, statStores)
}

// Stats snapshots the counters for the "occ cache stats" CLI command.
type Stats struct {
	Hits   float64
	Misses float64
	Stores float64
}

func CurrentStats() Stats {
	return Stats{
		Hits:   readCounter(statHits),
		Misses: readCounter(statMisses),
		Stores: readCounter(statStores),
	}
}

func readCounter(c prometheus.Counter) float64 {
	var m dto.Metric
	_ = c.Write(&m)
	return m.GetCounter().GetValue()
}

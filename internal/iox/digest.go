package iox

import (
	"io"

	"github.com/cachecc/occ/fsutil"
	"github.com/cachecc/occ/internal/base"
)

// FileDigest records the content fingerprint observed for one input file at
// cache-write time, so a later cache-read can detect that a dependency
// changed underneath an otherwise-matching cache key.
type FileDigest struct {
	Source      fsutil.Filename
	Fingerprint base.Fingerprint
}

// DigestFile hashes one file's contents, seeded so that the same bytes at
// two different paths still produce the same digest (only the path is
// recorded separately, the fingerprint is of content alone).
func DigestFile(f fsutil.Filename) (FileDigest, error) {
	var digest FileDigest
	digest.Source = f
	err := fsutil.UFS.Open(f, func(r io.Reader) error {
		fp, err := base.ReaderFingerprint(r, base.Fingerprint{})
		if err != nil {
			return err
		}
		digest.Fingerprint = fp
		return nil
	})
	return digest, err
}

// DigestFiles computes digests for every input concurrently.
func DigestFiles(files fsutil.FileSet) ([]FileDigest, error) {
	return base.ParallelMap(func(f fsutil.Filename) (FileDigest, error) {
		return DigestFile(f)
	}, files...)
}

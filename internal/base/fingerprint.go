package base

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/minio/sha256-simd"
)

// Fingerprint is the opaque content-addressed digest that keys compile
// tasks in the cache and identifies per-file digests. It is 160 bits
// wide: SHA-256 is computed with the SIMD-accelerated implementation and
// truncated to the low 20 bytes, so the hot path (hashing preprocessed
// translation units, sometimes megabytes) still runs on the accelerated
// implementation instead of stdlib sha1.
const FingerprintSize = 20

type Fingerprint [FingerprintSize]byte

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}
func (f Fingerprint) ShortString() string {
	return hex.EncodeToString(f[:4])
}
func (f Fingerprint) Valid() bool {
	for _, b := range f {
		if b != 0 {
			return true
		}
	}
	return false
}
func (f Fingerprint) Equals(o Fingerprint) bool {
	return f == o
}
func (f *Fingerprint) Set(str string) error {
	data, err := hex.DecodeString(str)
	if err != nil {
		return err
	}
	if len(data) != FingerprintSize {
		return fmt.Errorf("fingerprint: unexpected string length %q", str)
	}
	copy(f[:], data)
	return nil
}

// FingerprintWriter accumulates bytes in a fixed, caller-controlled order
// and yields a Fingerprint on Sum(). Each segment is zero-byte terminated,
// exactly as the cache contract demands, so that e.g. ("ab","c") and
// ("a","bc") never collide.
type FingerprintWriter struct {
	digester interface {
		io.Writer
		Sum([]byte) []byte
	}
}

func NewFingerprintWriter(seed Fingerprint) *FingerprintWriter {
	h := sha256.New()
	h.Write(seed[:])
	return &FingerprintWriter{digester: h}
}

func (w *FingerprintWriter) WriteSegment(p []byte) {
	w.digester.Write(p)
	w.digester.Write([]byte{0})
}
func (w *FingerprintWriter) WriteString(s string) {
	w.WriteSegment([]byte(s))
}
func (w *FingerprintWriter) Sum() Fingerprint {
	var result Fingerprint
	full := w.digester.Sum(nil)
	copy(result[:], full[:FingerprintSize])
	return result
}

// StringFingerprint hashes a single string with no seed, used to derive
// stable namespacing seeds such as a cache format version or protocol
// version string.
func StringFingerprint(s string) Fingerprint {
	h := sha256.Sum256([]byte(s))
	var result Fingerprint
	copy(result[:], h[:FingerprintSize])
	return result
}

// ReaderFingerprint hashes the full contents of rd, used for per-file
// digests ahead of fingerprinting a whole compile task.
func ReaderFingerprint(rd io.Reader, seed Fingerprint) (Fingerprint, error) {
	h := sha256.New()
	h.Write(seed[:])
	if _, err := io.Copy(h, rd); err != nil {
		return Fingerprint{}, err
	}
	var result Fingerprint
	copy(result[:], h.Sum(nil)[:FingerprintSize])
	return result, nil
}

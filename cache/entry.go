package cache

import (
	"encoding/binary"
	"fmt"
	"io"
)

// magic identifies the on-disk cache entry format: 'O','B','C','F', then a
// two-byte format version. Readers reject anything else outright rather
// than attempting a best-effort parse of an unknown layout.
var magic = [6]byte{'O', 'B', 'C', 'F', 0x00, 0x01}

// ErrCorruptEntry is returned (and in this package's callers, always
// downgraded to a cache miss) whenever an entry's header or length
// fields don't describe a well-formed payload.
type ErrCorruptEntry struct {
	Reason string
}

func (e *ErrCorruptEntry) Error() string {
	return fmt.Sprintf("cache: corrupt entry: %s", e.Reason)
}

// packEntry writes the §6 wire format: magic, N outputs, then each
// output as a length-prefixed blob, in the same order as outputs.
func packEntry(w io.Writer, outputs [][]byte) error {
	if len(outputs) > 0xFFFF {
		return &ErrCorruptEntry{Reason: "too many outputs"}
	}
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	var nbuf [2]byte
	binary.LittleEndian.PutUint16(nbuf[:], uint16(len(outputs)))
	if _, err := w.Write(nbuf[:]); err != nil {
		return err
	}
	var lbuf [4]byte
	for _, out := range outputs {
		binary.LittleEndian.PutUint32(lbuf[:], uint32(len(out)))
		if _, err := w.Write(lbuf[:]); err != nil {
			return err
		}
		if _, err := w.Write(out); err != nil {
			return err
		}
	}
	return nil
}

// unpackEntry parses the §6 format, rejecting a mismatched magic, a
// declared output count that disagrees with wantOutputs, or any length
// field whose blob would run past the available data — all reported as
// ErrCorruptEntry so callers treat them uniformly as a miss.
func unpackEntry(r io.Reader, wantOutputs int) ([][]byte, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, &ErrCorruptEntry{Reason: "short header"}
	}
	if [6]byte(header[:6]) != magic {
		return nil, &ErrCorruptEntry{Reason: "bad magic"}
	}
	n := int(binary.LittleEndian.Uint16(header[6:8]))
	if n != wantOutputs {
		return nil, &ErrCorruptEntry{Reason: "output count mismatch"}
	}

	outputs := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		var lbuf [4]byte
		if _, err := io.ReadFull(r, lbuf[:]); err != nil {
			return nil, &ErrCorruptEntry{Reason: "truncated length field"}
		}
		length := binary.LittleEndian.Uint32(lbuf[:])
		blob := make([]byte, length)
		if _, err := io.ReadFull(r, blob); err != nil {
			return nil, &ErrCorruptEntry{Reason: "truncated output blob"}
		}
		outputs = append(outputs, blob)
	}
	return outputs, nil
}

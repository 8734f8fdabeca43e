package base

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintDeterministic(t *testing.T) {
	seed := StringFingerprint("test-seed")

	w1 := NewFingerprintWriter(seed)
	w1.WriteString("hello")
	w1.WriteString("world")

	w2 := NewFingerprintWriter(seed)
	w2.WriteString("hello")
	w2.WriteString("world")

	assert.Equal(t, w1.Sum(), w2.Sum())
}

func TestFingerprintSegmentBoundarySensitive(t *testing.T) {
	seed := StringFingerprint("test-seed")

	w1 := NewFingerprintWriter(seed)
	w1.WriteString("ab")
	w1.WriteString("c")

	w2 := NewFingerprintWriter(seed)
	w2.WriteString("a")
	w2.WriteString("bc")

	assert.NotEqual(t, w1.Sum(), w2.Sum())
}

func TestFingerprintStringRoundTrip(t *testing.T) {
	f := StringFingerprint("occ")
	var parsed Fingerprint
	require.NoError(t, parsed.Set(f.String()))
	assert.Equal(t, f, parsed)
}

func TestReaderFingerprintIsValid(t *testing.T) {
	seed := StringFingerprint("reader-seed")
	r, err := ReaderFingerprint(strings.NewReader("payload"), seed)
	require.NoError(t, err)
	assert.True(t, r.Valid())
}

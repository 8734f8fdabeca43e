package toolchain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFamily struct {
	name    string
	handles []Handle
	err     error
}

func (f fakeFamily) Name() string { return f.name }
func (f fakeFamily) Discover(ctx context.Context) ([]Handle, error) {
	return f.handles, f.err
}

func TestRegistryDiscoverMergesFamilies(t *testing.T) {
	r := NewRegistry()
	a := fakeFamily{name: "a", handles: []Handle{{Identifier: "msvc-19.38", Executable: "/usr/bin/cl"}}}
	b := fakeFamily{name: "b", handles: []Handle{{Identifier: "clang-17", Executable: "/usr/bin/clang"}}}

	require.NoError(t, r.Discover(context.Background(), a, b))

	h, ok := r.Lookup("msvc-19.38")
	require.True(t, ok)
	assert.Equal(t, "/usr/bin/cl", h.Executable)

	h, ok = r.Lookup("clang-17")
	require.True(t, ok)
	assert.Equal(t, "/usr/bin/clang", h.Executable)

	assert.Len(t, r.Identifiers(), 2)
}

func TestRegistryDiscoverCollisionLastWriteWins(t *testing.T) {
	r := NewRegistry()
	a := fakeFamily{name: "a", handles: []Handle{{Identifier: "dup", Executable: "/first"}}}
	b := fakeFamily{name: "b", handles: []Handle{{Identifier: "dup", Executable: "/second"}}}

	require.NoError(t, r.Discover(context.Background(), a, b))

	h, ok := r.Lookup("dup")
	require.True(t, ok)
	assert.Equal(t, "/second", h.Executable)
}

func TestRegistryDiscoverToleratesFamilyError(t *testing.T) {
	r := NewRegistry()
	ok := fakeFamily{name: "ok", handles: []Handle{{Identifier: "fine", Executable: "/bin/fine"}}}
	broken := fakeFamily{name: "broken", err: assertError{"boom"}}

	require.NoError(t, r.Discover(context.Background(), ok, broken))

	_, found := r.Lookup("fine")
	assert.True(t, found)
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }

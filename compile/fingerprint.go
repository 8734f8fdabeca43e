package compile

import (
	"io"

	"github.com/cachecc/occ/internal/base"
)

// ToolchainIdentity is the (name, version) pair a CompilationTask's
// fingerprint binds itself to, so two hosts with different compiler
// builds never collide on the same cache entry.
type ToolchainIdentity struct {
	Name    string
	Version string
}

func (t ToolchainIdentity) String() string {
	return t.Name + "-" + t.Version
}

// Fingerprint computes the task's content-addressed key: normalized
// compile/shared-scope argument string, preprocessed source bytes,
// toolchain identity, and language code, in that fixed order, each
// segment zero-byte terminated so no concatenation can alias a different
// input set.
func (t CompilationTask) Fingerprint(preprocessed io.Reader, toolchain ToolchainIdentity) (base.Fingerprint, error) {
	source, err := io.ReadAll(preprocessed)
	if err != nil {
		return base.Fingerprint{}, err
	}

	w := base.NewFingerprintWriter(base.Fingerprint{})
	w.WriteString(t.Shared.NormalizedString())
	w.WriteSegment(source)
	w.WriteString(toolchain.String())
	w.WriteString(t.Language)
	return w.Sum(), nil
}

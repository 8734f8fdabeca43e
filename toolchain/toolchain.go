package toolchain

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/cachecc/occ/internal/base"
)

// Handle is what a builder actually invokes: the resolved path to the
// compiler driver binary plus the family it belongs to. Identifier is
// what clients match against when choosing a builder for a job.
type Handle struct {
	Identifier string
	Family     string
	Executable string
	Version    string
}

// Family enumerates one compiler's discovery logic: given the host's
// PATH and a set of well-known install roots, produce every toolchain
// instance it can find.
type Family interface {
	Name() string
	Discover(ctx context.Context) ([]Handle, error)
}

var log = base.NewLogCategory("Toolchain")

// Registry is the builder's immutable-after-startup map from identifier
// to Handle, atomically swappable on Reload per the service's state
// machine contract.
type Registry struct {
	mu       sync.RWMutex
	handles  map[string]Handle
}

func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]Handle)}
}

// Discover runs every family's discovery and replaces the registry's
// contents atomically. Collisions on Identifier resolve last-write-wins,
// with a warning.
func (r *Registry) Discover(ctx context.Context, families ...Family) error {
	next := make(map[string]Handle)
	for _, f := range families {
		handles, err := f.Discover(ctx)
		if err != nil {
			base.LogWarning(log, "%s: discovery failed: %v", f.Name(), err)
			continue
		}
		for _, h := range handles {
			if existing, found := next[h.Identifier]; found {
				base.LogWarning(log, "toolchain identifier collision %q: %s overrides %s", h.Identifier, h.Executable, existing.Executable)
			}
			next[h.Identifier] = h
		}
	}

	r.mu.Lock()
	r.handles = next
	r.mu.Unlock()
	return nil
}

func (r *Registry) Lookup(identifier string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[identifier]
	return h, ok
}

func (r *Registry) Identifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handles))
	for id := range r.handles {
		out = append(out, id)
	}
	return out
}

// ClangFamily discovers clang/clang-cl binaries reachable from PATH.
type ClangFamily struct{}

func (ClangFamily) Name() string { return "clang" }

func (ClangFamily) Discover(ctx context.Context) ([]Handle, error) {
	candidates := []string{"clang-cl", "clang"}
	if runtime.GOOS != "windows" {
		candidates = []string{"clang"}
	}
	return discoverByExecutable(ctx, "clang", candidates)
}

// MsvcFamily discovers cl.exe on PATH. A full implementation would also
// probe vswhere.exe and the well-known Program Files install roots; PATH
// resolution covers the common case of a developer command prompt.
type MsvcFamily struct{}

func (MsvcFamily) Name() string { return "msvc" }

func (MsvcFamily) Discover(ctx context.Context) ([]Handle, error) {
	if runtime.GOOS != "windows" {
		return nil, nil
	}
	return discoverByExecutable(ctx, "msvc", []string{"cl"})
}

func discoverByExecutable(ctx context.Context, family string, names []string) ([]Handle, error) {
	var handles []Handle
	for _, name := range names {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		version := queryVersion(ctx, path)
		handles = append(handles, Handle{
			Identifier: family + "-" + filepath.Base(path) + "-" + version,
			Family:     family,
			Executable: path,
			Version:    version,
		})
	}
	return handles, nil
}

var versionMemo sync.Map // executable path -> func() string

// queryVersion best-efforts a version string by invoking the compiler
// with --version; an empty string is an acceptable identifier component,
// it just widens the collision surface. The subprocess only runs once per
// executable path for the lifetime of the process, since Reload re-probes
// every known family on every call.
func queryVersion(ctx context.Context, executable string) string {
	cached, _ := versionMemo.LoadOrStore(executable, base.Memoize(func() string {
		cmd := exec.CommandContext(ctx, executable, "--version")
		var out bytes.Buffer
		cmd.Stdout = &out
		if err := cmd.Run(); err != nil {
			return "unknown"
		}
		line := strings.SplitN(out.String(), "\n", 2)[0]
		return strings.TrimSpace(line)
	}))
	return cached.(func() string)()
}

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/cachecc/occ/arg"
	"github.com/cachecc/occ/cache"
	"github.com/cachecc/occ/compile"
	"github.com/cachecc/occ/fsutil"
	"github.com/cachecc/occ/internal/base"
	"github.com/cachecc/occ/internal/iox"
	"github.com/cachecc/occ/toolchain"
)

type dialect int

const (
	dialectMSVC dialect = iota
	dialectClang
)

// runCompilePassthrough implements the core dataflow: raw argv -> parser
// -> tasks; each task is preprocessed locally, fingerprinted, looked up
// in the cache, and on a miss the real compiler is invoked and its
// outputs stored. Any parse error or unexpected local failure falls
// through to direct compiler execution: a misbehaving cache degrades to a
// slow passthrough rather than a broken build.
func runCompilePassthrough(executable string, argv []string, d dialect) error {
	workingDir, err := os.Getwd()
	if err != nil {
		return err
	}

	parsed, extracted, err := parseArgs(argv, workingDir, d)
	if err != nil {
		base.LogWarning(log, "parse failed, falling back to direct compile: %v", err)
		return runDirect(executable, argv, workingDir)
	}

	shared := compile.NewCompilationArgs(parsed, workingDir, extracted.PCH)
	tasks := compile.NewCompilationTasks(shared, extracted)

	store := cacheStoreFromEnv()
	toolchainID := toolchainIdentityFor(executable, d)

	for _, task := range tasks {
		if err := compileOneTask(executable, argv, task, store, toolchainID); err != nil {
			base.LogWarning(log, "cached compile failed for %s, falling back to direct compile: %v", task.InputSource, err)
			return runDirect(executable, argv, workingDir)
		}
	}
	return nil
}

func parseArgs(argv []string, workingDir string, d dialect) ([]arg.Argument, arg.ExtractedArgs, error) {
	var parsed []arg.Argument
	var err error
	switch d {
	case dialectClang:
		parsed, err = arg.ParseClang(argv, workingDir)
	default:
		parsed, err = arg.ParseMSVC(argv, workingDir)
	}
	if err != nil {
		return nil, arg.ExtractedArgs{}, err
	}
	extracted, err := arg.Extract(parsed, workingDir)
	if err != nil {
		return nil, arg.ExtractedArgs{}, err
	}
	return parsed, extracted, nil
}

func compileOneTask(executable string, argv []string, task compile.CompilationTask, store *cache.Store, toolchainID compile.ToolchainIdentity) error {
	workingDir := fsutil.MakeDirectory(task.Shared.WorkingDirectory)

	preprocessed, err := preprocess(executable, task, workingDir)
	if err != nil {
		return err
	}

	fp, err := task.Fingerprint(bytes.NewReader(preprocessed), toolchainID)
	if err != nil {
		return err
	}

	outputPaths := fsutil.FileSet{fsutil.MakeFilename(task.OutputObject)}

	_, err = store.RunCached(fp, outputPaths, func() error {
		result, err := iox.RunProcess(context.Background(), executable, argv, workingDir)
		if err != nil {
			return err
		}
		os.Stdout.Write(result.Stdout)
		os.Stderr.Write(result.Stderr)
		if result.ExitCode != 0 {
			return fmt.Errorf("compiler exited %d", result.ExitCode)
		}
		return nil
	})
	return err
}

// preprocess re-runs the compiler in preprocess-only mode to obtain the
// bytes the fingerprint is computed over. MSVC's flag is /E, Clang's -E;
// both write the preprocessed translation unit to stdout. Preprocessor-
// scope flags (include paths, /sourceDependencies) are forwarded so the
// output reflects the headers this invocation would actually resolve;
// without them two invocations differing only in /I would preprocess
// identically and collide on the same cache key.
func preprocess(executable string, task compile.CompilationTask, workingDir fsutil.Directory) ([]byte, error) {
	flag := "/E"
	if executable == "clang" {
		flag = "-E"
	}
	argv := append([]string{flag}, task.Shared.ScopedArgv(arg.ScopePreprocessor)...)
	argv = append(argv, task.InputSource)
	result, err := iox.RunProcess(context.Background(), executable, argv, workingDir)
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("preprocess exited %d: %s", result.ExitCode, result.Stderr)
	}
	return result.Stdout, nil
}

func runDirect(executable string, argv []string, workingDir string) error {
	result, err := iox.RunProcess(context.Background(), executable, argv, fsutil.MakeDirectory(workingDir))
	if err != nil {
		return err
	}
	os.Stdout.Write(result.Stdout)
	os.Stderr.Write(result.Stderr)
	if result.ExitCode != 0 {
		os.Exit(result.ExitCode)
	}
	return nil
}

func cacheStoreFromEnv() *cache.Store {
	root := os.Getenv("OCC_CACHE_ROOT")
	if root == "" {
		root = ".occ-cache"
	}
	format := base.COMPRESSION_FORMAT_ZSTD
	if os.Getenv("OCC_CACHE_COMPRESSION") == "LZ4" {
		format = base.COMPRESSION_FORMAT_LZ4
	}
	return cache.NewStore(fsutil.MakeDirectory(root), format)
}

// toolchainIdentityFor resolves the (name, version) pair the fingerprint
// binds to. A full daemon keeps a long-lived toolchain.Registry; this
// one-shot passthrough only needs the identity of the compiler it was
// invoked as, so it runs discovery for just that family.
func toolchainIdentityFor(executable string, d dialect) compile.ToolchainIdentity {
	registry := toolchain.NewRegistry()
	var family toolchain.Family
	name := "msvc"
	if d == dialectClang {
		name = "clang"
		family = toolchain.ClangFamily{}
	} else {
		family = toolchain.MsvcFamily{}
	}

	if err := registry.Discover(context.Background(), family); err == nil {
		for _, id := range registry.Identifiers() {
			if handle, ok := registry.Lookup(id); ok && handle.Executable != "" {
				return compile.ToolchainIdentity{Name: name, Version: handle.Version}
			}
		}
	}
	return compile.ToolchainIdentity{Name: name, Version: "unknown"}
}

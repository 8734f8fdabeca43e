package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cachecc/occ/cluster"
	"github.com/cachecc/occ/fsutil"
	"github.com/cachecc/occ/internal/iox"
)

// handleBuilderJob is the builder's JobHandler: it stages the
// preprocessed source from the wire request to a temp file, re-parses
// the normalized argument string to locate the expected output path,
// invokes the local compiler against the staged source, and ships back
// the exit status, captured stdout/stderr, and the resulting object
// file bytes.
func handleBuilderJob(ctx context.Context, req cluster.JobRequest) (cluster.JobResponse, error) {
	executable, d := executableForToolchain(req.ToolchainID)

	argv := strings.Fields(req.Args)
	workingDir, err := os.Getwd()
	if err != nil {
		return cluster.JobResponse{}, err
	}

	_, extracted, err := parseArgs(argv, workingDir, d)
	if err != nil {
		return cluster.JobResponse{Status: 1, Stderr: []byte(err.Error())}, nil
	}

	stagedSource, err := fsutil.UFS.CreateTemp("occ-builder-jobs", func(w io.Writer) error {
		_, werr := w.Write(req.Source)
		return werr
	})
	if err != nil {
		return cluster.JobResponse{}, err
	}
	defer fsutil.UFS.Remove(stagedSource)

	rewritten := rewriteSourceArgument(argv, extracted.InputSources, stagedSource.String(), workingDir)

	result, err := iox.RunProcess(ctx, executable, rewritten, fsutil.MakeDirectory(workingDir))
	if err != nil {
		return cluster.JobResponse{}, err
	}

	resp := cluster.JobResponse{
		Status: uint32(result.ExitCode),
		Stdout: result.Stdout,
		Stderr: result.Stderr,
	}
	if result.ExitCode == 0 && extracted.OutputObject != "" {
		data, readErr := os.ReadFile(extracted.OutputObject)
		if readErr != nil {
			return cluster.JobResponse{}, readErr
		}
		resp.Outputs = [][]byte{data}
	}
	return resp, nil
}

// rewriteSourceArgument substitutes the staged temp file path for every
// original input source token, so the compiler invoked on the builder
// reads the client's preprocessed bytes rather than a path that only
// exists on the client's filesystem.
func rewriteSourceArgument(argv []string, originalSources []string, stagedPath string, workingDir string) []string {
	sourceSet := make(map[string]bool, len(originalSources))
	for _, s := range originalSources {
		sourceSet[s] = true
	}

	out := make([]string, 0, len(argv))
	replaced := false
	for _, tok := range argv {
		// originalSources are absolutized by arg.Extract; argv tokens may be relative
		if sourceSet[tok] || (!filepath.IsAbs(tok) && sourceSet[filepath.Join(workingDir, tok)]) {
			out = append(out, stagedPath)
			replaced = true
			continue
		}
		out = append(out, tok)
	}
	if !replaced {
		out = append(out, stagedPath)
	}
	return out
}

func executableForToolchain(toolchainID string) (string, dialect) {
	if strings.HasPrefix(toolchainID, "clang") {
		return "clang", dialectClang
	}
	return "cl", dialectMSVC
}

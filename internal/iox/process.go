// Package iox hosts the process-spawning and file-digesting primitives;
// cmd/occ uses RunProcess to invoke the real compiler.
package iox

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/cachecc/occ/fsutil"
	"github.com/cachecc/occ/internal/base"
)

var LogProcess = base.NewLogCategory("Process")

// ProcessResult mirrors what the builder job protocol needs to ship back
// to the client: exit status plus captured stdout/stderr.
type ProcessResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// RunProcess executes executable with arguments in workingDir, capturing
// its full stdout/stderr rather than streaming it — the real compiler's
// output is always surfaced verbatim to the caller once the process ends.
func RunProcess(ctx context.Context, executable string, arguments []string, workingDir fsutil.Directory) (ProcessResult, error) {
	cmd := exec.CommandContext(ctx, executable, arguments...)
	if workingDir.Valid() {
		cmd.Dir = workingDir.String()
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := ProcessResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if exitErr, ok := err.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
		return result, nil // nonzero compiler exit is not a system error
	}
	if err != nil {
		return result, err
	}
	return result, nil
}

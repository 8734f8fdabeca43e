// Command occ is the drop-in compiler-driver replacement: invoked in
// place of cl.exe/clang-cl/clang it parses, caches, and optionally
// dispatches the compile step, or runs as one of the cluster daemons.
package main

import (
	"fmt"
	"os"

	"github.com/cachecc/occ/internal/base"
)

var log = base.NewLogCategory("Occ")

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: occ <cl|clang-cl|clang|coordinator|builder|agent|cache> [args...]")
		os.Exit(2)
	}

	command, rest := os.Args[1], os.Args[2:]

	var err error
	switch command {
	case "cl", "clang-cl":
		err = runCompilePassthrough(command, rest, dialectMSVC)
	case "clang":
		err = runCompilePassthrough(command, rest, dialectClang)
	case "coordinator":
		err = runCoordinator(rest)
	case "builder":
		err = runBuilder(rest)
	case "agent":
		err = runAgent(rest)
	case "cache":
		err = runCache(rest)
	default:
		fmt.Fprintf(os.Stderr, "occ: unknown command %q\n", command)
		os.Exit(2)
	}

	if err != nil {
		base.LogError(log, "%v", err)
		os.Exit(1)
	}
}

// Command apl is the interpreter's CLI entry point (spec §6.1):
// `apl [file1 …]` launches the REPL with no arguments, or loads each
// argument as an APL source file and exits. Grounded on the teacher's
// cmd/sentra/main.go dispatch shape, trimmed to the single behaviour
// spec.md actually describes rather than sentra's many subcommands.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/sigfpe8/toy-apl/internal/memory"
	"github.com/sigfpe8/toy-apl/internal/repl"
	"github.com/sigfpe8/toy-apl/internal/workspace"
)

func main() {
	size := flag.Int("size", memory.DefaultSize, "workspace arena size in bytes")
	flag.Parse()

	ws, err := newWorkspace(*size)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	files := flag.Args()
	if len(files) == 0 {
		interactive := repl.IsInteractiveStdin(os.Stdin)
		os.Exit(repl.New(ws, os.Stdout, os.Stderr, interactive).Run(os.Stdin))
	}

	r := repl.New(ws, os.Stdout, os.Stderr, false)
	for _, f := range files {
		if err := r.LoadFile(f); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	os.Exit(0)
}

// newWorkspace wraps the one fatal-startup failure spec §6.1 names
// (out of memory / misconfigured size invariants) with pkg/errors so
// main can report a cause chain, the single place SPEC_FULL §A calls
// for annotated wrapping rather than the typed *InterpError used
// internally.
func newWorkspace(size int) (*workspace.Workspace, error) {
	ws, err := workspace.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "apl: failed to allocate workspace")
	}
	return ws, nil
}

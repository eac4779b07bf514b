// Package cli implements the pectl subcommands.
package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aristath/petracker/internal/di"
	"github.com/google/subcommands"
)

// Opener builds the container a command runs against. The caller closes it.
type Opener func() (*di.Container, error)

// Commands returns every pectl subcommand, writing to out
func Commands(open Opener, out io.Writer) []subcommands.Command {
	return []subcommands.Command{
		&acquireCmd{open: open, out: out},
		&historyCmd{open: open, out: out},
		&runsCmd{open: open, out: out},
	}
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func fail(out io.Writer, format string, args ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(out, format+"\n", args...)
	return subcommands.ExitFailure
}

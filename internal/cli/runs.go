package cli

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/google/subcommands"
)

type runsCmd struct {
	open  Opener
	out   io.Writer
	limit int
}

func (*runsCmd) Name() string     { return "runs" }
func (*runsCmd) Synopsis() string { return "list recent acquisition runs" }
func (*runsCmd) Usage() string {
	return `pectl runs [-n <count>]

  Lists the most recent acquisition runs, newest first.
`
}

func (c *runsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 10, "Number of runs to list.")
}

func (c *runsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.limit < 1 {
		fmt.Fprintln(c.out, "-n must be at least 1")
		return subcommands.ExitUsageError
	}

	container, err := c.open()
	if err != nil {
		return fail(c.out, "%v", err)
	}
	defer container.Close()

	runs, err := container.ObservationRepo.ListRuns(ctx, c.limit)
	if err != nil {
		return fail(c.out, "%v", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "no runs recorded")
		return subcommands.ExitSuccess
	}

	tw := newTable(c.out)
	fmt.Fprintln(tw, "STARTED\tTRIGGER\tSTATUS\tDATE\tACQUIRED\tWRITTEN\tERROR")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%d\t%s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Trigger,
			run.Status,
			run.Date,
			run.SymbolsSucceeded,
			run.SymbolsAttempted,
			run.RowsWritten,
			run.Error,
		)
	}
	if err := tw.Flush(); err != nil {
		return fail(c.out, "%v", err)
	}
	return subcommands.ExitSuccess
}

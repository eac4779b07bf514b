package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aristath/petracker/internal/domain"
	"github.com/google/subcommands"
)

type acquireCmd struct {
	open   Opener
	out    io.Writer
	asJSON bool
}

func (*acquireCmd) Name() string     { return "acquire" }
func (*acquireCmd) Synopsis() string { return "run one acquisition now and print its report" }
func (*acquireCmd) Usage() string {
	return `pectl acquire [-json]

  Acquires today's P/E ratio for every security in the universe and
  stores the new observations. Dates already recorded are left untouched.
`
}

func (c *acquireCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "Print the run report as JSON.")
}

func (c *acquireCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	container, err := c.open()
	if err != nil {
		return fail(c.out, "%v", err)
	}
	defer container.Close()

	report, runErr := container.AcquisitionService.TriggerNow(ctx)
	if report != nil {
		if err := c.print(report); err != nil {
			return fail(c.out, "%v", err)
		}
	}
	if runErr != nil {
		return fail(c.out, "acquisition failed: %v", runErr)
	}
	return subcommands.ExitSuccess
}

func (c *acquireCmd) print(report *domain.RunReport) error {
	if c.asJSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	tiers := make([]string, 0, len(report.ByTier))
	for tier, n := range report.ByTier {
		if n > 0 {
			tiers = append(tiers, fmt.Sprintf("%s=%d", tier, n))
		}
	}
	sort.Strings(tiers)

	tw := newTable(c.out)
	fmt.Fprintf(tw, "run\t%s\n", report.RunID)
	fmt.Fprintf(tw, "date\t%s\n", report.Date)
	fmt.Fprintf(tw, "acquired\t%d/%d\n", report.SymbolsSucceeded, report.SymbolsAttempted)
	fmt.Fprintf(tw, "written\t%d\n", report.RowsWritten)
	fmt.Fprintf(tw, "tiers\t%s\n", strings.Join(tiers, " "))
	fmt.Fprintf(tw, "took\t%s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	return tw.Flush()
}

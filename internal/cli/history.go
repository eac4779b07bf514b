package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aristath/petracker/internal/domain"
	"github.com/aristath/petracker/internal/modules/observations"
	"github.com/google/subcommands"
)

type historyCmd struct {
	open   Opener
	out    io.Writer
	from   string
	to     string
	asJSON bool
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "print the stored P/E series of one security" }
func (*historyCmd) Usage() string {
	return `pectl history [-from YYYY-MM-DD] [-to YYYY-MM-DD] [-json] <symbol>

  Prints every stored observation of <symbol> in ascending date order.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First date to include (inclusive).")
	f.StringVar(&c.to, "to", "", "Last date to include (inclusive).")
	f.BoolVar(&c.asJSON, "json", false, "Print the series as JSON.")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(c.out, c.Usage())
		return subcommands.ExitUsageError
	}
	symbol := strings.ToUpper(strings.TrimSpace(f.Arg(0)))

	for _, d := range []string{c.from, c.to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(domain.DateLayout, d); err != nil {
			fmt.Fprintf(c.out, "invalid date %q, expected YYYY-MM-DD\n", d)
			return subcommands.ExitUsageError
		}
	}

	container, err := c.open()
	if err != nil {
		return fail(c.out, "%v", err)
	}
	defer container.Close()

	sec, err := container.ObservationRepo.GetSecurityBySymbol(ctx, symbol)
	if err != nil {
		return fail(c.out, "%v", err)
	}
	if sec == nil {
		return fail(c.out, "no observations recorded for %s", symbol)
	}

	series, err := container.ObservationRepo.ListObservations(ctx, sec.ID, observations.DateRange{From: c.from, To: c.to})
	if err != nil {
		return fail(c.out, "%v", err)
	}

	if c.asJSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]interface{}{"company": sec, "data": series}); err != nil {
			return fail(c.out, "%v", err)
		}
		return subcommands.ExitSuccess
	}

	fmt.Fprintf(c.out, "%s  %s\n", sec.Symbol, sec.Name)
	tw := newTable(c.out)
	fmt.Fprintln(tw, "DATE\tP/E\tSOURCE")
	for _, obs := range series {
		fmt.Fprintf(tw, "%s\t%.2f\t%s\n", obs.Date, obs.PERatio, obs.Tier)
	}
	if err := tw.Flush(); err != nil {
		return fail(c.out, "%v", err)
	}
	return subcommands.ExitSuccess
}

// Command pectl runs acquisitions and inspects stored P/E history from the
// command line, against the same store and configuration as the server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/aristath/petracker/internal/cli"
	"github.com/aristath/petracker/internal/config"
	"github.com/aristath/petracker/internal/di"
	"github.com/aristath/petracker/pkg/logger"
	"github.com/google/subcommands"
)

func main() {
	verbose := flag.Bool("v", false, "Log at debug level to stderr.")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	open := func() (*di.Container, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		level := "warn"
		if *verbose {
			level = "debug"
		}
		log := logger.New(logger.Config{Level: level, Pretty: true, Output: os.Stderr})
		return di.Wire(cfg, log)
	}

	for _, c := range cli.Commands(open, os.Stdout) {
		commander.Register(c, "")
	}

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}

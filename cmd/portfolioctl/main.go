package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/app"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/cli"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/config"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := logging.NewWithOutput(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	env := &cli.Env{
		Open: func(ctx context.Context) (*app.App, error) {
			return app.New(ctx, cfg, log)
		},
		Out: os.Stdout,
		Err: os.Stderr,
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range cli.Commands(env) {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// Package cli implements the portfolioctl maintenance commands.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/google/subcommands"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/app"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/database"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
)

// Env is what every command runs against.
type Env struct {
	// Open builds a migrated App. Commands close it when done.
	Open func(ctx context.Context) (*app.App, error)
	Out  io.Writer
	Err  io.Writer
}

// Commands returns every portfolioctl command bound to env.
func Commands(env *Env) []subcommands.Command {
	return []subcommands.Command{
		&migrateCmd{env: env},
		&snapshotCmd{env: env},
		&backfillCmd{env: env},
		&benchmarksCmd{env: env},
		&seedCmd{env: env},
	}
}

// run opens the App, hands it to fn and reports any error on env.Err.
func (env *Env) run(ctx context.Context, fn func(*app.App) error) subcommands.ExitStatus {
	a, err := env.Open(ctx)
	if err != nil {
		fmt.Fprintln(env.Err, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := fn(a); err != nil {
		fmt.Fprintln(env.Err, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func eur(v float64) string {
	return money.NewFromFloat(v, money.EUR).Display()
}

type migrateCmd struct {
	env *Env
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending database migrations" }
func (*migrateCmd) Usage() string {
	return `portfolioctl migrate

  Applies every pending schema migration and prints the resulting schema version.
`
}
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (c *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, func(a *app.App) error {
		v, err := database.Version(a.DB)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.env.Out, "schema version %d\n", v)
		return nil
	})
}

type snapshotCmd struct {
	env   *Env
	value float64
}

func (*snapshotCmd) Name() string { return "snapshot" }
func (*snapshotCmd) Synopsis() string {
	return "store the portfolio snapshot of the current 15-minute bucket"
}
func (*snapshotCmd) Usage() string {
	return `portfolioctl snapshot [-value <eur>]

  Values the portfolio and stores the snapshot of the current 15-minute bucket.
  Running it again within the same bucket overwrites the snapshot, so it is safe
  to call from system cron.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.value, "value", -1, "Portfolio value in EUR. Computed from current prices when omitted.")
}

func (c *snapshotCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, func(a *app.App) error {
		var (
			snap model.PortfolioSnapshot
			err  error
		)
		if c.value >= 0 {
			snap, err = a.Snapshot.CreateSnapshot(ctx, c.value)
		} else {
			snap, err = a.Snapshot.CaptureSnapshot(ctx)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(c.env.Out, "snapshot %s: value %s, invested %s\n",
			snap.Bucket.Format("2006-01-02 15:04"), eur(snap.TotalValueEUR), eur(snap.TotalInvestedEUR))
		return nil
	})
}

type backfillCmd struct {
	env *Env
}

func (*backfillCmd) Name() string     { return "backfill" }
func (*backfillCmd) Synopsis() string { return "record benchmarks for buys that have none" }
func (*backfillCmd) Usage() string {
	return `portfolioctl backfill

  Records a benchmark for every BUY transaction without one, using index closes
  on or before the transaction date and the EUR/USD rate of that date.
`
}
func (*backfillCmd) SetFlags(*flag.FlagSet) {}

func (c *backfillCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, func(a *app.App) error {
		res, err := a.Benchmark.BackfillBenchmarks(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.env.Out, "processed %d, recorded %d, skipped %d\n", res.Processed, res.Recorded, res.Skipped)
		return nil
	})
}

type benchmarksCmd struct {
	env *Env
}

func (*benchmarksCmd) Name() string { return "benchmarks" }
func (*benchmarksCmd) Synopsis() string {
	return "show what the invested money would be worth in each index"
}
func (*benchmarksCmd) Usage() string {
	return `portfolioctl benchmarks

  Prints the theoretical units held in each tracked index and their current value.
`
}
func (*benchmarksCmd) SetFlags(*flag.FlagSet) {}

func (c *benchmarksCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, func(a *app.App) error {
		values, err := a.Benchmark.CurrentBenchmarkValues(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(c.env.Out, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "INDEX\tUNITS\tPRICE\tVALUE\t")
		for _, b := range values.Benchmarks {
			fmt.Fprintf(w, "%s\t%.6f\t%s\t%s\t\n", b.Name, b.Units, eur(b.CurrentPrice), eur(b.CurrentValue))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(c.env.Out, "invested %s\n", eur(values.TotalInvested))
		return nil
	})
}

package cli_test

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/app"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/cli"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/config"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/testutil"
)

type testEnv struct {
	*cli.Env
	out *bytes.Buffer
	err *bytes.Buffer
}

// newTestEnv runs commands against a file database in a temp dir so that
// consecutive commands see each other's writes.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "portfolio.db")},
		Quote:    config.QuoteConfig{Source: "static", CacheTTL: time.Minute},
	}
	log, _ := testutil.NewTestLogger()

	env := &testEnv{out: &bytes.Buffer{}, err: &bytes.Buffer{}}
	env.Env = &cli.Env{
		Open: func(ctx context.Context) (*app.App, error) { return app.New(ctx, cfg, log) },
		Out:  env.out,
		Err:  env.err,
	}
	return env
}

func (e *testEnv) run(t *testing.T, name string, args ...string) subcommands.ExitStatus {
	t.Helper()
	e.out.Reset()
	e.err.Reset()

	for _, c := range cli.Commands(e.Env) {
		if c.Name() != name {
			continue
		}
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		c.SetFlags(fs)
		require.NoError(t, fs.Parse(args))
		return c.Execute(t.Context(), fs)
	}
	t.Fatalf("unknown command %s", name)
	return subcommands.ExitUsageError
}

func TestCommands_Registered(t *testing.T) {
	var names []string
	for _, c := range cli.Commands(&cli.Env{}) {
		names = append(names, c.Name())
		assert.NotEmpty(t, c.Synopsis())
		assert.NotEmpty(t, c.Usage())
	}
	assert.Equal(t, []string{"migrate", "snapshot", "backfill", "benchmarks", "seed"}, names)
}

func TestMigrate(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, subcommands.ExitSuccess, env.run(t, "migrate"))
	assert.Equal(t, "schema version 1\n", env.out.String())
}

func TestSeed(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, subcommands.ExitSuccess, env.run(t, "seed"), env.err.String())
	assert.Equal(t, "seeded 6 transactions across 4 assets\n", env.out.String())

	// second run refuses without -force
	assert.Equal(t, subcommands.ExitFailure, env.run(t, "seed"))
	assert.Contains(t, env.err.String(), "-force")

	assert.Equal(t, subcommands.ExitSuccess, env.run(t, "seed", "-force"), env.err.String())
}

func TestSnapshot(t *testing.T) {
	t.Run("with explicit value", func(t *testing.T) {
		env := newTestEnv(t)

		require.Equal(t, subcommands.ExitSuccess, env.run(t, "snapshot", "-value", "1234.5"), env.err.String())
		assert.Contains(t, env.out.String(), "1,234.50")
	})

	t.Run("computed value", func(t *testing.T) {
		env := newTestEnv(t)
		require.Equal(t, subcommands.ExitSuccess, env.run(t, "seed"), env.err.String())

		assert.Equal(t, subcommands.ExitSuccess, env.run(t, "snapshot"), env.err.String())
		assert.Contains(t, env.out.String(), "snapshot ")
	})
}

func TestBenchmarksAndBackfill(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, subcommands.ExitSuccess, env.run(t, "seed"), env.err.String())

	// seeded buys were benchmarked on entry
	require.Equal(t, subcommands.ExitSuccess, env.run(t, "backfill"), env.err.String())
	assert.Equal(t, "processed 0, recorded 0, skipped 0\n", env.out.String())

	require.Equal(t, subcommands.ExitSuccess, env.run(t, "benchmarks"), env.err.String())
	out := env.out.String()
	assert.Contains(t, out, "S&P 500")
	assert.Contains(t, out, "CAC 40")
	assert.Contains(t, out, "invested €")
}

func TestOpenFailure(t *testing.T) {
	var errOut bytes.Buffer
	env := &cli.Env{
		Open: func(context.Context) (*app.App, error) { return nil, assert.AnError },
		Out:  &bytes.Buffer{},
		Err:  &errOut,
	}

	for _, c := range cli.Commands(env) {
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		assert.Equal(t, subcommands.ExitFailure, c.Execute(t.Context(), fs), c.Name())
	}
	assert.Contains(t, errOut.String(), assert.AnError.Error())
}

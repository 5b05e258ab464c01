package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/api/request"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/app"
)

func rate(v float64) *float64 { return &v }

// sampleTransactions is a small demo ledger across crypto, a stock and an ETF.
var sampleTransactions = []request.CreateTransactionRequest{
	{Ticker: "BTC", Name: "Bitcoin", AssetType: "CRYPTO", Date: "2024-01-15", Type: "BUY",
		Quantity: 0.1, UnitPrice: 42000, Currency: "USD", ExchangeRate: rate(0.92), Fees: 10},
	{Ticker: "BTC", Date: "2024-02-20", Type: "BUY",
		Quantity: 0.05, UnitPrice: 52000, Currency: "USD", ExchangeRate: rate(0.93), Fees: 5},
	{Ticker: "ETH", Name: "Ethereum", AssetType: "CRYPTO", Date: "2024-03-10", Type: "BUY",
		Quantity: 1.5, UnitPrice: 3200, Currency: "USD", ExchangeRate: rate(0.91), Fees: 8},
	{Ticker: "AAPL", Name: "Apple Inc.", AssetType: "STOCK", Date: "2024-04-05", Type: "BUY",
		Quantity: 20, UnitPrice: 170, Currency: "USD", ExchangeRate: rate(0.92), Fees: 5},
	{Ticker: "AAPL", Date: "2024-05-15", Type: "SELL",
		Quantity: 5, UnitPrice: 185, Currency: "USD", ExchangeRate: rate(0.91), Fees: 5},
	{Ticker: "VOO", Name: "Vanguard S&P 500 ETF", AssetType: "ETF", Date: "2024-06-01", Type: "BUY",
		Quantity: 10, UnitPrice: 450, Currency: "USD", ExchangeRate: rate(0.93)},
}

type seedCmd struct {
	env   *Env
	force bool
}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "load a sample ledger into an empty database" }
func (*seedCmd) Usage() string {
	return `portfolioctl seed [-force]

  Adds sample BTC, ETH, AAPL and VOO transactions. Refuses to run when the database
  already holds transactions unless -force is given.
`
}

func (c *seedCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "Seed even when transactions already exist.")
}

func (c *seedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, func(a *app.App) error {
		existing, err := a.Transaction.GetTransactions(ctx)
		if err != nil {
			return err
		}
		if len(existing) > 0 && !c.force {
			return fmt.Errorf("database already holds %d transactions, use -force to seed anyway", len(existing))
		}

		for _, req := range sampleTransactions {
			if _, err := a.Transaction.AddTransaction(ctx, req); err != nil {
				return fmt.Errorf("failed to seed %s %s: %w", req.Type, req.Ticker, err)
			}
		}

		assets, err := a.Transaction.GetAssets(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.env.Out, "seeded %d transactions across %d assets\n", len(sampleTransactions), len(assets))
		return nil
	})
}

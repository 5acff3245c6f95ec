package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/lotwise-backend/internal/adapter/render"
	"github.com/simaogato/lotwise-backend/internal/domain"
	"github.com/simaogato/lotwise-backend/internal/usecase/portfolio"
)

// buyCmd holds the flags for the 'buy' subcommand.
type buyCmd struct {
	date      string
	symbol    string
	shares    string
	costBasis string
	notes     string
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record a purchase as a new lot" }
func (*buyCmd) Usage() string {
	return `lotctl buy -s <symbol> -q <shares> -p <cost per share> [-d <date>] [-n <notes>]

  Adds an open lot. The date defaults to today.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", time.Now().Format(domain.DateLayout), "Purchase date (YYYY-MM-DD)")
	f.StringVar(&c.symbol, "s", "", "Ticker symbol")
	f.StringVar(&c.shares, "q", "", "Number of shares")
	f.StringVar(&c.costBasis, "p", "", "Cost basis per share")
	f.StringVar(&c.notes, "n", "", "Free-form notes")
}

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := domain.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	shares, err := decimal.NewFromString(c.shares)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing shares %q: %v\n", c.shares, err)
		return subcommands.ExitUsageError
	}
	costBasis, err := decimal.NewFromString(c.costBasis)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing cost basis %q: %v\n", c.costBasis, err)
		return subcommands.ExitUsageError
	}

	service, done, err := openPortfolio(ctx)
	if err != nil {
		return failure("opening ledger", err)
	}
	defer done()

	lot, err := service.Buy(ctx, portfolio.BuyInput{
		Symbol: c.symbol, Shares: shares, CostBasis: costBasis, PurchaseDate: on, Notes: c.notes,
	})
	if err != nil {
		return failure("recording purchase", err)
	}

	fmt.Printf("Added lot %s: %s %s @ %s on %s\n", lot.ID, lot.Shares, lot.Symbol, lot.CostBasis, lot.PurchaseDate.Format(domain.DateLayout))
	return subcommands.ExitSuccess
}

// sellCmd holds the flags for the 'sell' subcommand.
type sellCmd struct {
	date     string
	lot      string
	shares   string
	proceeds string
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "dispose of shares from a lot" }
func (*sellCmd) Usage() string {
	return `lotctl sell -l <lot id> -q <shares> -p <proceeds per share> [-d <date>]

  Sells shares from an open lot. A partial sale leaves the remainder open
  under the same lot id.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", time.Now().Format(domain.DateLayout), "Sale date (YYYY-MM-DD)")
	f.StringVar(&c.lot, "l", "", "Lot id")
	f.StringVar(&c.shares, "q", "", "Number of shares to sell")
	f.StringVar(&c.proceeds, "p", "", "Proceeds per share")
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := domain.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	lotID, err := uuid.Parse(c.lot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing lot id %q: %v\n", c.lot, err)
		return subcommands.ExitUsageError
	}
	shares, err := decimal.NewFromString(c.shares)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing shares %q: %v\n", c.shares, err)
		return subcommands.ExitUsageError
	}
	proceeds, err := decimal.NewFromString(c.proceeds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing proceeds %q: %v\n", c.proceeds, err)
		return subcommands.ExitUsageError
	}

	service, done, err := openPortfolio(ctx)
	if err != nil {
		return failure("opening ledger", err)
	}
	defer done()

	sale, err := service.Sell(ctx, portfolio.SellInput{LotID: lotID, Shares: shares, ProceedsPerShare: proceeds, SaleDate: on})
	if err != nil {
		return failure("recording sale", err)
	}

	fmt.Printf("Sold %s %s from lot %s, realized %s\n", sale.Shares, sale.Symbol, sale.LotID, sale.RealizedGain.StringFixed(2))
	return subcommands.ExitSuccess
}

// removeCmd holds the flags for the 'remove' subcommand.
type removeCmd struct {
	lot string
}

func (*removeCmd) Name() string     { return "remove" }
func (*removeCmd) Synopsis() string { return "delete an open lot entered by mistake" }
func (*removeCmd) Usage() string {
	return `lotctl remove -l <lot id>

  Deletes an open lot that has no sales.
`
}

func (c *removeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.lot, "l", "", "Lot id")
}

func (c *removeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	lotID, err := uuid.Parse(c.lot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing lot id %q: %v\n", c.lot, err)
		return subcommands.ExitUsageError
	}

	service, done, err := openPortfolio(ctx)
	if err != nil {
		return failure("opening ledger", err)
	}
	defer done()

	if err := service.Remove(ctx, lotID); err != nil {
		return failure("removing lot", err)
	}
	fmt.Printf("Removed lot %s\n", lotID)
	return subcommands.ExitSuccess
}

// annotateCmd holds the flags for the 'annotate' subcommand.
type annotateCmd struct {
	lot   string
	notes string
}

func (*annotateCmd) Name() string     { return "annotate" }
func (*annotateCmd) Synopsis() string { return "replace the notes on a lot" }
func (*annotateCmd) Usage() string {
	return `lotctl annotate -l <lot id> -n <notes>

  Replaces a lot's notes. An empty -n clears them.
`
}

func (c *annotateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.lot, "l", "", "Lot id")
	f.StringVar(&c.notes, "n", "", "Notes")
}

func (c *annotateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	lotID, err := uuid.Parse(c.lot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing lot id %q: %v\n", c.lot, err)
		return subcommands.ExitUsageError
	}

	service, done, err := openPortfolio(ctx)
	if err != nil {
		return failure("opening ledger", err)
	}
	defer done()

	lot, err := service.Annotate(ctx, lotID, c.notes)
	if err != nil {
		return failure("updating notes", err)
	}
	fmt.Printf("Updated notes on lot %s: %q\n", lot.ID, lot.Notes)
	return subcommands.ExitSuccess
}

// lotsCmd holds the flags for the 'lots' subcommand.
type lotsCmd struct {
	all bool
}

func (*lotsCmd) Name() string     { return "lots" }
func (*lotsCmd) Synopsis() string { return "list lots" }
func (*lotsCmd) Usage() string {
	return `lotctl lots [-a]

  Lists open lots, or every lot including closed portions with -a.
`
}

func (c *lotsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.all, "a", false, "include closed lots")
}

func (c *lotsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	service, done, err := openPortfolio(ctx)
	if err != nil {
		return failure("opening ledger", err)
	}
	defer done()

	printMarkdown(render.LotsMarkdown(service.Lots(ctx, c.all)))
	return subcommands.ExitSuccess
}

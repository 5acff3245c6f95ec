package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/simaogato/lotwise-backend/internal/adapter/render"
	"github.com/simaogato/lotwise-backend/internal/domain"
)

type gainsCmd struct{}

func (*gainsCmd) Name() string     { return "gains" }
func (*gainsCmd) Synopsis() string { return "display unrealized and realized gains" }
func (*gainsCmd) Usage() string {
	return `lotctl gains

  Values every open lot at current quotes and lists realized gains.
`
}

func (c *gainsCmd) SetFlags(f *flag.FlagSet) {}

func (c *gainsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	service, done, err := openPortfolio(ctx)
	if err != nil {
		return failure("opening ledger", err)
	}
	defer done()

	printMarkdown(render.Markdown(service.Gains(ctx)))
	return subcommands.ExitSuccess
}

type washSalesCmd struct{}

func (*washSalesCmd) Name() string     { return "washsales" }
func (*washSalesCmd) Synopsis() string { return "list wash sales and disallowed losses" }
func (*washSalesCmd) Usage() string {
	return `lotctl washsales

  Flags losing sales with a replacement purchase within 30 days.
`
}

func (c *washSalesCmd) SetFlags(f *flag.FlagSet) {}

func (c *washSalesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	service, done, err := openPortfolio(ctx)
	if err != nil {
		return failure("opening ledger", err)
	}
	defer done()

	printMarkdown(render.Markdown(service.WashSales(ctx)))
	return subcommands.ExitSuccess
}

// harvestCmd holds the flags for the 'harvest' subcommand.
type harvestCmd struct {
	threshold string
}

func (*harvestCmd) Name() string     { return "harvest" }
func (*harvestCmd) Synopsis() string { return "rank tax-loss harvesting candidates" }
func (*harvestCmd) Usage() string {
	return `lotctl harvest [-t <minimum loss>]

  Lists open lots whose unrealized loss exceeds the threshold.
`
}

func (c *harvestCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.threshold, "t", "0", "Minimum loss")
}

func (c *harvestCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	threshold, err := decimal.NewFromString(c.threshold)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing threshold %q: %v\n", c.threshold, err)
		return subcommands.ExitUsageError
	}

	service, done, err := openPortfolio(ctx)
	if err != nil {
		return failure("opening ledger", err)
	}
	defer done()

	printMarkdown(render.Markdown(service.Harvest(ctx, threshold)))
	return subcommands.ExitSuccess
}

type snapshotCmd struct{}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "record a portfolio snapshot at current quotes" }
func (*snapshotCmd) Usage() string {
	return `lotctl snapshot

  Appends a valuation of the portfolio to the snapshot history.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {}

func (c *snapshotCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	service, done, err := openPortfolio(ctx)
	if err != nil {
		return failure("opening ledger", err)
	}
	defer done()

	snapshot, err := service.RecordSnapshot(ctx)
	if err != nil {
		return failure("recording snapshot", err)
	}
	fmt.Printf("Recorded snapshot at %s: value %s, cost basis %s\n",
		snapshot.Timestamp.Format(time.RFC3339), snapshot.TotalValue.StringFixed(2), snapshot.TotalCostBasis.StringFixed(2))
	return subcommands.ExitSuccess
}

// attributionCmd holds the flags for the 'attribution' subcommand.
type attributionCmd struct {
	start string
	end   string
}

func (*attributionCmd) Name() string     { return "attribution" }
func (*attributionCmd) Synopsis() string { return "split a value change by symbol" }
func (*attributionCmd) Usage() string {
	return `lotctl attribution -from <when> [-to <when>]

  Compares the snapshots at or before each point. Without -to the end point
  is valued at current quotes. <when> is a date, an RFC 3339 timestamp or "now".
`
}

func (c *attributionCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "from", "", "Start of the interval")
	f.StringVar(&c.end, "to", "", "End of the interval; empty for live quotes")
}

func (c *attributionCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	now := time.Now()
	if c.start == "" {
		fmt.Fprintln(os.Stderr, "Error: -from is required")
		return subcommands.ExitUsageError
	}
	start, err := parseWhen(c.start, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -from: %v\n", err)
		return subcommands.ExitUsageError
	}
	var end *time.Time
	if c.end != "" {
		t, err := parseWhen(c.end, now)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -to: %v\n", err)
			return subcommands.ExitUsageError
		}
		if t.Before(start) {
			return failure("computing attribution", domain.ErrInvalidInterval)
		}
		end = &t
	}

	service, done, err := openPortfolio(ctx)
	if err != nil {
		return failure("opening ledger", err)
	}
	defer done()

	report, err := service.Attribution(ctx, start, end)
	if err != nil {
		return failure("computing attribution", err)
	}
	printMarkdown(render.Markdown(report))
	return subcommands.ExitSuccess
}

// trendCmd holds the flags for the 'trend' subcommand.
type trendCmd struct {
	from string
	to   string
}

func (*trendCmd) Name() string     { return "trend" }
func (*trendCmd) Synopsis() string { return "summarize the snapshot history" }
func (*trendCmd) Usage() string {
	return `lotctl trend [-from <when>] [-to <when>]

  Reports value change, range and volatility over the snapshots in range.
  The default range is the last 30 days.
`
}

func (c *trendCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "Start of the range; defaults to 30 days ago")
	f.StringVar(&c.to, "to", "now", "End of the range")
}

func (c *trendCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	now := time.Now()
	to, err := parseWhen(c.to, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -to: %v\n", err)
		return subcommands.ExitUsageError
	}
	from := to.AddDate(0, 0, -30)
	if c.from != "" {
		if from, err = parseWhen(c.from, now); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -from: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	if to.Before(from) {
		return failure("computing trend", domain.ErrInvalidInterval)
	}

	service, done, err := openPortfolio(ctx)
	if err != nil {
		return failure("opening ledger", err)
	}
	defer done()

	printMarkdown(render.Markdown(service.Trend(ctx, from, to)))
	return subcommands.ExitSuccess
}

// Command lotctl manages a local lot ledger and prints its tax reports.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/google/subcommands"

	"github.com/simaogato/lotwise-backend/internal/adapter/render"
	"github.com/simaogato/lotwise-backend/internal/app"
	"github.com/simaogato/lotwise-backend/internal/config"
	"github.com/simaogato/lotwise-backend/internal/domain"
	"github.com/simaogato/lotwise-backend/internal/logger"
	"github.com/simaogato/lotwise-backend/internal/usecase/portfolio"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	dbPath   = flag.String("db", "data/portfolio.db", "Path to the SQLite ledger file")
	quotes   = flag.String("quotes", "", "Static quotes as SYM=PRICE,SYM=PRICE; empty uses QUOTE_SOURCE")
	style    = flag.String("style", "", "Markdown style (dark, light, notty); empty detects the terminal")
	width    = flag.Int("width", 100, "Word wrap width")
	verbose  = flag.Bool("v", false, "Log to stderr")
	plainOut = flag.Bool("markdown", false, "Print raw markdown instead of styled output")
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&buyCmd{}, "lots")
	commander.Register(&sellCmd{}, "lots")
	commander.Register(&removeCmd{}, "lots")
	commander.Register(&annotateCmd{}, "lots")
	commander.Register(&lotsCmd{}, "lots")

	commander.Register(&gainsCmd{}, "reports")
	commander.Register(&washSalesCmd{}, "reports")
	commander.Register(&harvestCmd{}, "reports")

	commander.Register(&snapshotCmd{}, "history")
	commander.Register(&attributionCmd{}, "history")
	commander.Register(&trendCmd{}, "history")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// openPortfolio loads the ledger stored at -db. Environment configuration
// supplies the quote source unless -quotes is given.
func openPortfolio(ctx context.Context) (*portfolio.PortfolioService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	cfg.DBDriver = config.DriverSQLite
	cfg.SQLitePath = *dbPath
	if *quotes != "" {
		cfg.QuoteSource = config.QuoteSourceStatic
		cfg.StaticQuotes = *quotes
	}

	logCfg := logger.Config{Level: "disabled"}
	if *verbose {
		logCfg = logger.Config{Level: cfg.LogLevel, Pretty: true}
	}
	log := logger.New(logCfg)

	service, store, err := app.NewPortfolio(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return service, func() { store.Close() }, nil
}

func printMarkdown(md string) {
	if *plainOut {
		fmt.Print(md)
		return
	}
	out, err := render.Terminal(md, *style, *width)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// parseWhen accepts "now", a calendar date (midnight UTC) or an RFC 3339 timestamp
func parseWhen(s string, now time.Time) (time.Time, error) {
	switch s {
	case "", "now":
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return domain.ParseDate(s)
}

// failure prints err and maps it to an exit status. Invalid input is a usage error.
func failure(action string, err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", action, err)
	switch {
	case errors.Is(err, domain.ErrInvalidLot),
		errors.Is(err, domain.ErrInvalidSale),
		errors.Is(err, domain.ErrInvalidInterval):
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

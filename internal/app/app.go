// Package app wires configuration into storage, quotes and the portfolio
// service. Both binaries build on it.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/simaogato/lotwise-backend/internal/adapter/quote"
	"github.com/simaogato/lotwise-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/lotwise-backend/internal/adapter/repository/sqlite"
	"github.com/simaogato/lotwise-backend/internal/config"
	"github.com/simaogato/lotwise-backend/internal/domain"
	"github.com/simaogato/lotwise-backend/internal/usecase/portfolio"
)

// Store bundles the repositories of one backend
type Store struct {
	Lots      domain.LotRepository
	Sales     domain.SaleRepository
	Snapshots domain.SnapshotRepository
	io.Closer
}

// OpenStore connects to the configured backend and applies its schema
func OpenStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := postgres.NewDB(cfg.DBConnStr)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &Store{
			Lots:      postgres.NewLotRepository(db),
			Sales:     postgres.NewSaleRepository(db),
			Snapshots: postgres.NewSnapshotRepository(db),
			Closer:    db,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.NewDB(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		lots := sqlite.NewLotRepository(db)
		return &Store{
			Lots:      lots,
			Sales:     lots.SaleRepository(),
			Snapshots: sqlite.NewSnapshotRepository(db),
			Closer:    db,
		}, nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
}

// NewQuoteGateway builds the configured quote source, cached for QuoteTTL.
// Remote sources are throttled to QuoteRate lookups per minute.
func NewQuoteGateway(cfg *config.Config, log zerolog.Logger) (domain.QuoteGateway, error) {
	var source domain.QuoteGateway
	switch cfg.QuoteSource {
	case config.QuoteSourceStatic:
		static, err := quote.ParseStatic(cfg.StaticQuotes)
		if err != nil {
			return nil, err
		}
		source = static
	case config.QuoteSourceYahoo:
		source = quote.NewYahoo(quote.DefaultYahooBaseURL, log)
		if cfg.QuoteRate > 0 {
			source = quote.NewThrottled(source, cfg.QuoteRate, log)
		}
	default:
		return nil, fmt.Errorf("unsupported QUOTE_SOURCE %q", cfg.QuoteSource)
	}

	if cfg.QuoteTTL == 0 {
		return source, nil
	}
	return quote.NewCached(source, cfg.QuoteTTL), nil
}

// NewPortfolio opens storage and quotes and loads the persisted ledger.
// Close the returned Store when done.
func NewPortfolio(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*portfolio.PortfolioService, *Store, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s store: %w", cfg.DBDriver, err)
	}

	quotes, err := NewQuoteGateway(cfg, log)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	service := portfolio.NewPortfolioService(store.Lots, store.Sales, store.Snapshots, quotes, log)
	if err := service.Load(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	return service, store, nil
}

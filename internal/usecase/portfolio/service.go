package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/lotwise-backend/internal/domain"
	"github.com/simaogato/lotwise-backend/internal/usecase/attribution"
	"github.com/simaogato/lotwise-backend/internal/usecase/gains"
	"github.com/simaogato/lotwise-backend/internal/usecase/harvest"
	"github.com/simaogato/lotwise-backend/internal/usecase/history"
	"github.com/simaogato/lotwise-backend/internal/usecase/ledger"
	"github.com/simaogato/lotwise-backend/internal/usecase/washsale"
)

// BuyInput represents the input for recording a purchase
type BuyInput struct {
	Symbol       string
	Shares       decimal.Decimal
	CostBasis    decimal.Decimal // Per share
	PurchaseDate time.Time
	Notes        string
}

// SellInput represents the input for selling shares from a lot
type SellInput struct {
	LotID            uuid.UUID
	Shares           decimal.Decimal
	ProceedsPerShare decimal.Decimal
	SaleDate         time.Time
}

// PortfolioService owns the in-memory ledger and snapshot history and keeps
// them in step with persistence.
// Mutations are serialized; each one is staged on a copy of the ledger,
// persisted, and only then made visible, so a failed write changes nothing.
// Quotes are resolved before any analytics run, outside the lock.
type PortfolioService struct {
	LotRepo      domain.LotRepository
	SaleRepo     domain.SaleRepository
	SnapshotRepo domain.SnapshotRepository
	Quotes       domain.QuoteGateway

	// Now is the service clock. Defaults to time.Now.
	Now func() time.Time

	log     zerolog.Logger
	mu      sync.RWMutex
	ledger  *ledger.Ledger
	version uint64 // Bumped on every committed ledger change
	history *history.History
}

// snapshotAttempts bounds how often RecordSnapshot revalues when the ledger
// changes underneath it
const snapshotAttempts = 3

// NewPortfolioService creates a new PortfolioService instance with an empty
// ledger. Call Load to read persisted state.
func NewPortfolioService(
	lotRepo domain.LotRepository,
	saleRepo domain.SaleRepository,
	snapshotRepo domain.SnapshotRepository,
	quotes domain.QuoteGateway,
	log zerolog.Logger,
) *PortfolioService {
	s := &PortfolioService{
		LotRepo:      lotRepo,
		SaleRepo:     saleRepo,
		SnapshotRepo: snapshotRepo,
		Quotes:       quotes,
		Now:          time.Now,
		log:          log.With().Str("component", "portfolio").Logger(),
		history:      history.New(),
	}
	s.ledger = ledger.New(ledger.WithClock(s.now))
	return s
}

func (s *PortfolioService) now() time.Time {
	return s.Now()
}

// Load replaces the in-memory state with what the repositories hold
func (s *PortfolioService) Load(ctx context.Context) error {
	lots, err := s.LotRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list lots: %w", err)
	}
	sales, err := s.SaleRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sales: %w", err)
	}
	snapshots, err := s.SnapshotRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	l, err := ledger.Restore(derefLots(lots), derefSales(sales), ledger.WithClock(s.now))
	if err != nil {
		return fmt.Errorf("failed to restore ledger: %w", err)
	}
	h, err := history.Restore(derefSnapshots(snapshots))
	if err != nil {
		return fmt.Errorf("failed to restore snapshot history: %w", err)
	}

	s.mu.Lock()
	s.ledger = l
	s.history = h
	s.version++
	s.mu.Unlock()

	s.log.Info().Int("lots", len(lots)).Int("sales", len(sales)).Int("snapshots", len(snapshots)).Msg("portfolio loaded")
	return nil
}

// Buy records a purchase lot
func (s *PortfolioService) Buy(ctx context.Context, input BuyInput) (*domain.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.ledger.Clone()
	id, err := next.AddLot(input.Symbol, input.Shares, input.CostBasis, input.PurchaseDate)
	if err != nil {
		return nil, err
	}
	if input.Notes != "" {
		if err := next.SetNotes(id, input.Notes); err != nil {
			return nil, err
		}
	}
	lot, _ := next.Lot(id)

	if err := s.LotRepo.Create(ctx, &lot); err != nil {
		return nil, fmt.Errorf("failed to save lot: %w", err)
	}
	s.ledger = next
	s.version++

	s.log.Info().Str("lot_id", id.String()).Str("symbol", lot.Symbol).
		Str("shares", lot.Shares.String()).Str("cost_basis", lot.CostBasis.String()).Msg("lot added")
	return &lot, nil
}

// Sell disposes shares from an open lot
func (s *PortfolioService) Sell(ctx context.Context, input SellInput) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.ledger.Clone()
	sale, err := next.DisposeLot(input.LotID, input.Shares, input.ProceedsPerShare, input.SaleDate)
	if err != nil {
		return nil, err
	}

	disposal := &domain.Disposal{Sale: sale}
	disposal.Lot, _ = next.Lot(sale.LotID)
	if sale.ClosedLotID != sale.LotID {
		closed, _ := next.Lot(sale.ClosedLotID)
		disposal.ClosedPortion = &closed
	}

	if err := s.LotRepo.ApplyDisposal(ctx, disposal); err != nil {
		return nil, fmt.Errorf("failed to save disposal: %w", err)
	}
	s.ledger = next
	s.version++

	s.log.Info().Str("lot_id", sale.LotID.String()).Str("sale_id", sale.ID.String()).
		Str("shares", sale.Shares.String()).Str("realized_gain", sale.RealizedGain.String()).Msg("lot disposed")
	return &sale, nil
}

// Remove deletes an open, never-sold lot
func (s *PortfolioService) Remove(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.ledger.Clone()
	if err := next.RemoveLot(id); err != nil {
		return err
	}
	if err := s.LotRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete lot: %w", err)
	}
	s.ledger = next
	s.version++

	s.log.Info().Str("lot_id", id.String()).Msg("lot removed")
	return nil
}

// Annotate replaces the notes on a lot. Notes do not affect valuation, so
// the ledger version is left alone.
func (s *PortfolioService) Annotate(ctx context.Context, id uuid.UUID, notes string) (*domain.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.ledger.Clone()
	if err := next.SetNotes(id, notes); err != nil {
		return nil, err
	}
	lot, _ := next.Lot(id)
	if err := s.LotRepo.UpdateNotes(ctx, id, lot.Notes); err != nil {
		return nil, fmt.Errorf("failed to save notes: %w", err)
	}
	s.ledger = next

	s.log.Info().Str("lot_id", id.String()).Msg("lot annotated")
	return &lot, nil
}

// Lots returns the lots in insertion order. Closed lots are included only
// when includeClosed is set.
func (s *PortfolioService) Lots(ctx context.Context, includeClosed bool) []domain.Lot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if includeClosed {
		return s.ledger.Lots()
	}
	return s.ledger.OpenLots()
}

// Gains builds the gain report against current quotes. Realized rows carry
// the loss wash sales disallow on them.
func (s *PortfolioService) Gains(ctx context.Context) domain.GainReport {
	view := s.view()
	quotes := s.resolveQuotes(ctx, view.Symbols())
	disallowed := washsale.DisallowedBySale(washsale.Detect(view.Purchases(), view.Sales()))
	return gains.Report(view.OpenLots(), view.Sales(), quotes, disallowed, s.now())
}

// WashSales scans the full purchase and sale timeline for wash sales
func (s *PortfolioService) WashSales(ctx context.Context) domain.WashSaleReport {
	view := s.view()
	return washsale.Report(view.Purchases(), view.Sales())
}

// Harvest ranks open lots with an unrealized loss above threshold
func (s *PortfolioService) Harvest(ctx context.Context, threshold decimal.Decimal) domain.HarvestReport {
	view := s.view()
	quotes := s.resolveQuotes(ctx, view.Symbols())
	return harvest.Advise(view.OpenLots(), quotes, threshold, s.now())
}

// RecordSnapshot values the portfolio at current quotes and appends the result
// to the snapshot history. The timestamp is read together with the lots being
// valued; if a buy or sell commits while quotes are resolved, the valuation is
// redone against the new lots.
func (s *PortfolioService) RecordSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	for attempt := 1; attempt <= snapshotAttempts; attempt++ {
		view, version, at := s.stampedView()
		quotes := s.resolveQuotes(ctx, view.Symbols())
		snapshot, unavailable := history.Valuate(view.Lots(), quotes, at)

		recorded, err := s.appendSnapshot(ctx, &snapshot, version)
		if err != nil {
			return nil, err
		}
		if !recorded {
			s.log.Debug().Int("attempt", attempt).Msg("ledger changed during valuation, retrying")
			continue
		}

		if len(unavailable) > 0 {
			s.log.Warn().Strs("symbols", unavailable).Msg("snapshot excludes symbols without a quote")
		}
		s.log.Info().Str("snapshot_id", snapshot.ID.String()).Str("total_value", snapshot.TotalValue.String()).Msg("snapshot recorded")
		return &snapshot, nil
	}
	return nil, fmt.Errorf("%w: gave up after %d attempts", domain.ErrLedgerChanged, snapshotAttempts)
}

// appendSnapshot persists and appends snapshot unless the ledger moved past
// version. Reports false, with no error, when it did.
func (s *PortfolioService) appendSnapshot(ctx context.Context, snapshot *domain.Snapshot, version uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version != version {
		return false, nil
	}
	if err := s.history.CanAppend(snapshot.Timestamp); err != nil {
		return false, err
	}
	if err := s.SnapshotRepo.Add(ctx, snapshot); err != nil {
		return false, fmt.Errorf("failed to save snapshot: %w", err)
	}
	if err := s.history.Append(*snapshot); err != nil {
		return false, err
	}
	return true, nil
}

// Snapshots returns the recorded snapshots with timestamp in [from, to]
func (s *PortfolioService) Snapshots(ctx context.Context, from, to time.Time) []domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Range(from, to)
}

// Attribution computes per-symbol contributions from the snapshot nearest at
// or before start to the snapshot nearest at or before end. When end is nil
// the end point is a live valuation at current quotes.
func (s *PortfolioService) Attribution(ctx context.Context, start time.Time, end *time.Time) (domain.AttributionReport, error) {
	s.mu.RLock()
	view := s.ledger.Clone()
	at := s.now()
	startSnap, ok := s.history.NearestAtOrBefore(start)
	var endSnap domain.Snapshot
	endOK := true
	if end != nil {
		endSnap, endOK = s.history.NearestAtOrBefore(*end)
	}
	s.mu.RUnlock()

	if !ok {
		return domain.AttributionReport{}, fmt.Errorf("%w: %s", domain.ErrNoSnapshot, start.Format(time.RFC3339))
	}
	if !endOK {
		return domain.AttributionReport{}, fmt.Errorf("%w: %s", domain.ErrNoSnapshot, end.Format(time.RFC3339))
	}

	if end == nil {
		quotes := s.resolveQuotes(ctx, view.Symbols())
		endSnap, _ = history.Valuate(view.Lots(), quotes, at)
	}

	return attribution.Attribute(view.Lots(), startSnap, endSnap)
}

// Trend summarizes the snapshot history in [from, to]
func (s *PortfolioService) Trend(ctx context.Context, from, to time.Time) domain.TrendReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Trend(from, to)
}

// view returns a copy of the ledger that analytics can read without the lock
func (s *PortfolioService) view() *ledger.Ledger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Clone()
}

// stampedView is view plus the ledger version and the clock reading taken
// under the same lock
func (s *PortfolioService) stampedView() (*ledger.Ledger, uint64, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Clone(), s.version, s.now()
}

// resolveQuotes fetches a quote per symbol. A symbol whose lookup fails is
// left out of the book, which degrades its rows in every report.
func (s *PortfolioService) resolveQuotes(ctx context.Context, symbols []string) domain.QuoteBook {
	book := make(domain.QuoteBook, len(symbols))
	for _, symbol := range symbols {
		q, err := s.Quotes.GetQuote(ctx, symbol)
		if err != nil {
			if errors.Is(err, domain.ErrNoQuote) {
				s.log.Warn().Str("symbol", symbol).Msg("no quote available")
			} else {
				s.log.Error().Err(err).Str("symbol", symbol).Msg("quote lookup failed")
			}
			continue
		}
		book[symbol] = q
	}
	return book
}

func derefLots(in []*domain.Lot) []domain.Lot {
	out := make([]domain.Lot, 0, len(in))
	for _, l := range in {
		out = append(out, *l)
	}
	return out
}

func derefSales(in []*domain.Sale) []domain.Sale {
	out := make([]domain.Sale, 0, len(in))
	for _, s := range in {
		out = append(out, *s)
	}
	return out
}

func derefSnapshots(in []*domain.Snapshot) []domain.Snapshot {
	out := make([]domain.Snapshot, 0, len(in))
	for _, s := range in {
		out = append(out, *s)
	}
	return out
}

// Package ledger holds the lot ledger, the system of record for purchase lots
// and the sales made from them.
//
// A Ledger is not safe for concurrent use. Callers serialize mutations and
// take a Clone when analytics must run against a stable view.
package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/lotwise-backend/internal/domain"
)

// Ledger stores lots and sales
type Ledger struct {
	lots  map[uuid.UUID]domain.Lot
	order []uuid.UUID // Insertion order, for display only
	sales []domain.Sale
	now   func() time.Time
	newID func() uuid.UUID
}

// Option configures a Ledger
type Option func(*Ledger)

// WithClock sets the clock used to reject future-dated buys and sales
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator sets the generator for lot and sale ids
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(l *Ledger) { l.newID = newID }
}

// New creates an empty Ledger
func New(opts ...Option) *Ledger {
	l := &Ledger{
		lots:  make(map[uuid.UUID]domain.Lot),
		now:   time.Now,
		newID: uuid.New,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Restore rebuilds a ledger from persisted lots and sales.
// Closed lots are re-attached to their sale through Sale.ClosedLotID.
func Restore(lots []domain.Lot, sales []domain.Sale, opts ...Option) (*Ledger, error) {
	l := New(opts...)

	byClosedLot := make(map[uuid.UUID]domain.Sale, len(sales))
	for _, sale := range sales {
		byClosedLot[sale.ClosedLotID] = sale
	}

	for _, lot := range lots {
		if lot.Closed {
			sale, ok := byClosedLot[lot.ID]
			if !ok {
				return nil, fmt.Errorf("closed lot %s has no matching sale", lot.ID)
			}
			lot.Sale = &sale
		}
		if err := lot.Validate(); err != nil {
			return nil, fmt.Errorf("failed to restore lot %s: %w", lot.ID, err)
		}
		if _, dup := l.lots[lot.ID]; dup {
			return nil, fmt.Errorf("duplicate lot id %s", lot.ID)
		}
		l.lots[lot.ID] = lot
		l.order = append(l.order, lot.ID)
	}
	l.sales = append(l.sales, sales...)

	return l, nil
}

// Clone returns an independent copy sharing the same clock and id generator.
// Sales are immutable once recorded, so closed lots may share Sale pointers.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{
		lots:  make(map[uuid.UUID]domain.Lot, len(l.lots)),
		order: append([]uuid.UUID(nil), l.order...),
		sales: append([]domain.Sale(nil), l.sales...),
		now:   l.now,
		newID: l.newID,
	}
	for id, lot := range l.lots {
		c.lots[id] = lot
	}
	return c
}

// AddLot records a purchase and returns the new lot's id
func (l *Ledger) AddLot(symbol string, shares, costBasis decimal.Decimal, purchaseDate time.Time) (uuid.UUID, error) {
	id := l.newID()
	lot := domain.Lot{
		ID:           id,
		OriginID:     id,
		Symbol:       domain.NormalizeSymbol(symbol),
		Shares:       shares,
		CostBasis:    costBasis,
		PurchaseDate: domain.DateOf(purchaseDate),
	}

	if err := lot.Validate(); err != nil {
		return uuid.Nil, err
	}
	if lot.PurchaseDate.After(l.today()) {
		return uuid.Nil, fmt.Errorf("%w: purchase date %s is in the future",
			domain.ErrInvalidLot, lot.PurchaseDate.Format(domain.DateLayout))
	}

	l.lots[id] = lot
	l.order = append(l.order, id)
	return id, nil
}

// SetNotes replaces the free-form notes on a lot. Notes carry over to the
// closed portion of later partial sales.
func (l *Ledger) SetNotes(id uuid.UUID, notes string) error {
	lot, ok := l.lots[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownLot, id)
	}
	lot.Notes = strings.TrimSpace(notes)
	l.lots[id] = lot
	return nil
}

// DisposeLot sells sharesToSell shares from an open lot.
// A full disposal closes the lot. A partial disposal keeps the lot open with
// the remaining shares and records the sold shares as a new closed lot.
// On error the ledger is unchanged.
func (l *Ledger) DisposeLot(id uuid.UUID, sharesToSell, proceedsPerShare decimal.Decimal, saleDate time.Time) (domain.Sale, error) {
	lot, ok := l.lots[id]
	if !ok || lot.Closed {
		return domain.Sale{}, fmt.Errorf("%w: %s", domain.ErrUnknownLot, id)
	}

	if !sharesToSell.IsPositive() {
		return domain.Sale{}, fmt.Errorf("%w: shares to sell must be positive, got %s", domain.ErrInvalidSale, sharesToSell)
	}
	if sharesToSell.GreaterThan(lot.Shares) {
		return domain.Sale{}, fmt.Errorf("%w: lot %s holds %s shares, cannot sell %s",
			domain.ErrOverDisposal, id, lot.Shares, sharesToSell)
	}
	if proceedsPerShare.IsNegative() {
		return domain.Sale{}, fmt.Errorf("%w: proceeds per share cannot be negative, got %s", domain.ErrInvalidSale, proceedsPerShare)
	}
	if saleDate.IsZero() {
		return domain.Sale{}, fmt.Errorf("%w: sale date is required", domain.ErrInvalidSale)
	}
	saleDate = domain.DateOf(saleDate)
	if saleDate.Before(lot.PurchaseDate) {
		return domain.Sale{}, fmt.Errorf("%w: sale date %s precedes purchase date %s", domain.ErrInvalidSale,
			saleDate.Format(domain.DateLayout), lot.PurchaseDate.Format(domain.DateLayout))
	}
	if saleDate.After(l.today()) {
		return domain.Sale{}, fmt.Errorf("%w: sale date %s is in the future", domain.ErrInvalidSale, saleDate.Format(domain.DateLayout))
	}

	sale := domain.Sale{
		ID:               l.newID(),
		LotID:            lot.ID,
		Symbol:           lot.Symbol,
		Shares:           sharesToSell,
		CostBasis:        lot.CostBasis,
		PurchaseDate:     lot.PurchaseDate,
		SaleDate:         saleDate,
		ProceedsPerShare: proceedsPerShare,
		RealizedGain:     sharesToSell.Mul(proceedsPerShare.Sub(lot.CostBasis)),
	}

	if sharesToSell.Equal(lot.Shares) {
		sale.ClosedLotID = lot.ID
		lot.Closed = true
		lot.Sale = &sale
		l.lots[lot.ID] = lot
	} else {
		closed := lot
		closed.ID = l.newID()
		closed.Shares = sharesToSell
		closed.Closed = true
		sale.ClosedLotID = closed.ID
		closed.Sale = &sale

		lot.Shares = lot.Shares.Sub(sharesToSell)
		l.lots[lot.ID] = lot
		l.lots[closed.ID] = closed
		l.order = append(l.order, closed.ID)
	}

	l.sales = append(l.sales, sale)
	return sale, nil
}

// RemoveLot deletes an open lot that was never sold from, for correcting a
// mistaken buy. Sold history is never removed.
func (l *Ledger) RemoveLot(id uuid.UUID) error {
	lot, ok := l.lots[id]
	if !ok || lot.Closed {
		return fmt.Errorf("%w: %s", domain.ErrUnknownLot, id)
	}
	for _, sale := range l.sales {
		if sale.LotID == id {
			return fmt.Errorf("%w: lot %s has sales and cannot be removed", domain.ErrInvalidLot, id)
		}
	}

	delete(l.lots, id)
	for i, oid := range l.order {
		if oid == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return nil
}

// Lot returns the lot with the given id, open or closed
func (l *Ledger) Lot(id uuid.UUID) (domain.Lot, bool) {
	lot, ok := l.lots[id]
	return lot, ok
}

// Lots returns every lot, open and closed, in insertion order
func (l *Ledger) Lots() []domain.Lot {
	out := make([]domain.Lot, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.lots[id])
	}
	return out
}

// OpenLots returns the open lots in insertion order
func (l *Ledger) OpenLots() []domain.Lot {
	out := make([]domain.Lot, 0, len(l.order))
	for _, id := range l.order {
		if lot := l.lots[id]; !lot.Closed {
			out = append(out, lot)
		}
	}
	return out
}

// Sales returns every sale in the order it was recorded
func (l *Ledger) Sales() []domain.Sale {
	return append([]domain.Sale(nil), l.sales...)
}

// Purchases returns one entry per buy, with its original share count
func (l *Ledger) Purchases() []domain.Purchase {
	shares := make(map[uuid.UUID]decimal.Decimal)
	for _, lot := range l.lots {
		shares[lot.OriginID] = shares[lot.OriginID].Add(lot.Shares)
	}

	var out []domain.Purchase
	for _, id := range l.order {
		lot := l.lots[id]
		if lot.ID != lot.OriginID {
			continue
		}
		out = append(out, domain.Purchase{
			LotID:         lot.ID,
			Symbol:        lot.Symbol,
			Shares:        shares[lot.ID],
			PricePerShare: lot.CostBasis,
			Date:          lot.PurchaseDate,
		})
	}
	return out
}

// Symbols returns the sorted symbols that have at least one open lot
func (l *Ledger) Symbols() []string {
	seen := make(map[string]struct{})
	for _, lot := range l.lots {
		if !lot.Closed {
			seen[lot.Symbol] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (l *Ledger) today() time.Time {
	return domain.DateOf(l.now())
}

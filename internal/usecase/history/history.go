// Package history keeps the append-only series of portfolio valuations
package history

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/lotwise-backend/internal/domain"
	"github.com/simaogato/lotwise-backend/internal/usecase/gains"
	"gonum.org/v1/gonum/stat"
)

// History is an ordered, append-only list of snapshots.
// It is not safe for concurrent use.
type History struct {
	snapshots []domain.Snapshot
}

// New creates an empty History
func New() *History {
	return &History{}
}

// Restore builds a History from persisted snapshots in any order.
// Fails if two snapshots share a timestamp.
func Restore(snapshots []domain.Snapshot) (*History, error) {
	sorted := append([]domain.Snapshot(nil), snapshots...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Timestamp.Equal(sorted[i-1].Timestamp) {
			return nil, fmt.Errorf("%w: duplicate timestamp %s", domain.ErrSnapshotOrder, sorted[i].Timestamp)
		}
	}
	return &History{snapshots: sorted}, nil
}

// CanAppend reports whether a snapshot at ts would keep the history ordered
func (h *History) CanAppend(ts time.Time) error {
	if n := len(h.snapshots); n > 0 && !ts.After(h.snapshots[n-1].Timestamp) {
		return fmt.Errorf("%w: %s is not after %s", domain.ErrSnapshotOrder, ts, h.snapshots[n-1].Timestamp)
	}
	return nil
}

// Append adds a snapshot strictly after the latest one
func (h *History) Append(s domain.Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := h.CanAppend(s.Timestamp); err != nil {
		return err
	}
	h.snapshots = append(h.snapshots, s)
	return nil
}

// Range returns the snapshots with timestamp in [from, to], ascending
func (h *History) Range(from, to time.Time) []domain.Snapshot {
	if to.Before(from) {
		return nil
	}
	lo := sort.Search(len(h.snapshots), func(i int) bool { return !h.snapshots[i].Timestamp.Before(from) })
	hi := sort.Search(len(h.snapshots), func(i int) bool { return h.snapshots[i].Timestamp.After(to) })
	if lo >= hi {
		return nil
	}
	return append([]domain.Snapshot(nil), h.snapshots[lo:hi]...)
}

// NearestAtOrBefore returns the latest snapshot with timestamp <= t.
// Returns false if t precedes the first snapshot.
func (h *History) NearestAtOrBefore(t time.Time) (domain.Snapshot, bool) {
	i := sort.Search(len(h.snapshots), func(i int) bool { return h.snapshots[i].Timestamp.After(t) })
	if i == 0 {
		return domain.Snapshot{}, false
	}
	return h.snapshots[i-1], true
}

// Trend summarizes the snapshots in [from, to]
func (h *History) Trend(from, to time.Time) domain.TrendReport {
	report := domain.TrendReport{From: from, To: to, Snapshots: h.Range(from, to)}
	if len(report.Snapshots) == 0 {
		return report
	}

	first := report.Snapshots[0]
	last := report.Snapshots[len(report.Snapshots)-1]
	report.StartValue = first.TotalValue
	report.EndValue = last.TotalValue
	report.Change = last.TotalValue.Sub(first.TotalValue)
	report.ChangePct = gains.Percent(report.Change, first.TotalValue)

	report.High, report.HighAt = first.TotalValue, first.Timestamp
	report.Low, report.LowAt = first.TotalValue, first.Timestamp
	var returns []float64
	for i, s := range report.Snapshots {
		if s.TotalValue.GreaterThan(report.High) {
			report.High, report.HighAt = s.TotalValue, s.Timestamp
		}
		if s.TotalValue.LessThan(report.Low) {
			report.Low, report.LowAt = s.TotalValue, s.Timestamp
		}
		if i > 0 {
			prev := report.Snapshots[i-1].TotalValue
			if prev.IsPositive() {
				returns = append(returns, s.TotalValue.Div(prev).Sub(decimal.NewFromInt(1)).InexactFloat64())
			}
		}
	}

	// Volatility is a dimensionless statistic, so float math is acceptable here
	if len(returns) >= 2 {
		report.Volatility = stat.StdDev(returns, nil)
	}
	return report
}

// Valuate builds a snapshot at time at from the lots held at that date and
// the given quotes. Symbols without a quote stay in the breakdown as unpriced
// holdings, are left out of the total value, and are returned as unavailable.
func Valuate(lots []domain.Lot, quotes domain.QuoteBook, at time.Time) (domain.Snapshot, []string) {
	snapshot := domain.Snapshot{ID: uuid.New(), Timestamp: at, Date: domain.DateOf(at)}

	shares := make(map[string]decimal.Decimal)
	for _, lot := range lots {
		if !lot.HeldOn(at) {
			continue
		}
		shares[lot.Symbol] = shares[lot.Symbol].Add(lot.Shares)
		snapshot.TotalCostBasis = snapshot.TotalCostBasis.Add(lot.TotalCost())
	}

	symbols := make([]string, 0, len(shares))
	for s := range shares {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	var unavailable []string
	for _, symbol := range symbols {
		price, ok := quotes.Price(symbol)
		if !ok {
			unavailable = append(unavailable, symbol)
			snapshot.Breakdown = append(snapshot.Breakdown, domain.SymbolValue{
				Symbol:   symbol,
				Shares:   shares[symbol],
				Unpriced: true,
			})
			continue
		}
		value := shares[symbol].Mul(price)
		snapshot.Breakdown = append(snapshot.Breakdown, domain.SymbolValue{
			Symbol: symbol,
			Shares: shares[symbol],
			Price:  price,
			Value:  value,
		})
		snapshot.TotalValue = snapshot.TotalValue.Add(value)
	}

	return snapshot, unavailable
}

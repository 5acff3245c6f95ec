package history

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/lotwise-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 1, 1, 16, 0, 0, 0, time.UTC)

func snap(offset time.Duration, value int64) domain.Snapshot {
	return domain.Snapshot{
		ID:         uuid.New(),
		Timestamp:  base.Add(offset),
		TotalValue: decimal.NewFromInt(value),
	}
}

func TestAppend_Ordering(t *testing.T) {
	h := New()
	require.NoError(t, h.Append(snap(0, 100)))
	require.NoError(t, h.Append(snap(time.Hour, 110)))

	err := h.Append(snap(time.Hour, 120))
	assert.ErrorIs(t, err, domain.ErrSnapshotOrder, "duplicate timestamp")

	err = h.Append(snap(30*time.Minute, 120))
	assert.ErrorIs(t, err, domain.ErrSnapshotOrder, "earlier timestamp")

	kept := h.Range(base, base.Add(2*time.Hour))
	require.Len(t, kept, 2)
	assert.True(t, decimal.NewFromInt(110).Equal(kept[1].TotalValue))
}

func TestAppend_RejectsInvalid(t *testing.T) {
	h := New()
	assert.Error(t, h.Append(domain.Snapshot{TotalValue: decimal.NewFromInt(1)}))
	assert.Error(t, h.Append(domain.Snapshot{Timestamp: base, TotalValue: decimal.NewFromInt(-1)}))
	_, ok := h.NearestAtOrBefore(base.Add(time.Hour))
	assert.False(t, ok)
}

func TestNearestAtOrBefore_NonUniformSpacing(t *testing.T) {
	h := New()
	require.NoError(t, h.Append(snap(0, 100)))
	require.NoError(t, h.Append(snap(2*time.Minute, 101)))
	require.NoError(t, h.Append(snap(72*time.Hour, 130)))
	require.NoError(t, h.Append(snap(73*time.Hour, 125)))

	tests := []struct {
		name   string
		at     time.Time
		want   int64
		wantOK bool
	}{
		{name: "Before first", at: base.Add(-time.Second), wantOK: false},
		{name: "Exactly first", at: base, want: 100, wantOK: true},
		{name: "Between first and second", at: base.Add(time.Minute), want: 100, wantOK: true},
		{name: "Long gap", at: base.Add(48 * time.Hour), want: 101, wantOK: true},
		{name: "Exactly third", at: base.Add(72 * time.Hour), want: 130, wantOK: true},
		{name: "After last", at: base.Add(1000 * time.Hour), want: 125, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := h.NearestAtOrBefore(tt.at)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, decimal.NewFromInt(tt.want).Equal(got.TotalValue), "got %s", got.TotalValue)
			}
		})
	}
}

func TestNearestAtOrBefore_Empty(t *testing.T) {
	_, ok := New().NearestAtOrBefore(base)
	assert.False(t, ok)
}

func TestRange_Inclusive(t *testing.T) {
	h := New()
	for i := 0; i < 5; i++ {
		require.NoError(t, h.Append(snap(time.Duration(i)*24*time.Hour, int64(100+i))))
	}

	got := h.Range(base.Add(24*time.Hour), base.Add(72*time.Hour))
	require.Len(t, got, 3)
	assert.True(t, decimal.NewFromInt(101).Equal(got[0].TotalValue))
	assert.True(t, decimal.NewFromInt(103).Equal(got[2].TotalValue))

	assert.Empty(t, h.Range(base.Add(72*time.Hour), base))
	assert.Empty(t, h.Range(base.Add(-48*time.Hour), base.Add(-24*time.Hour)))
}

func TestRestore_SortsAndRejectsDuplicates(t *testing.T) {
	h, err := Restore([]domain.Snapshot{snap(time.Hour, 2), snap(0, 1)})
	require.NoError(t, err)
	all := h.Range(base, base.Add(time.Hour))
	require.Len(t, all, 2)
	assert.True(t, all[0].Timestamp.Before(all[1].Timestamp))

	_, err = Restore([]domain.Snapshot{snap(0, 1), snap(0, 2)})
	assert.ErrorIs(t, err, domain.ErrSnapshotOrder)
}

func TestTrend(t *testing.T) {
	h := New()
	require.NoError(t, h.Append(snap(0, 100)))
	require.NoError(t, h.Append(snap(24*time.Hour, 120)))
	require.NoError(t, h.Append(snap(48*time.Hour, 90)))
	require.NoError(t, h.Append(snap(72*time.Hour, 110)))

	report := h.Trend(base, base.Add(72*time.Hour))
	require.Len(t, report.Snapshots, 4)
	assert.True(t, decimal.NewFromInt(100).Equal(report.StartValue))
	assert.True(t, decimal.NewFromInt(110).Equal(report.EndValue))
	assert.True(t, decimal.NewFromInt(10).Equal(report.Change))
	assert.True(t, decimal.NewFromInt(10).Equal(report.ChangePct))
	assert.True(t, decimal.NewFromInt(120).Equal(report.High))
	assert.Equal(t, base.Add(24*time.Hour), report.HighAt)
	assert.True(t, decimal.NewFromInt(90).Equal(report.Low))
	assert.Equal(t, base.Add(48*time.Hour), report.LowAt)
	assert.Greater(t, report.Volatility, 0.0)
	assert.Equal(t, domain.ReportKindTrend, report.Kind())

	empty := h.Trend(base.Add(100*time.Hour), base.Add(200*time.Hour))
	assert.Empty(t, empty.Snapshots)
	assert.True(t, empty.Change.IsZero())
}

func TestValuate(t *testing.T) {
	purchased := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	mk := func(symbol string, shares, cost int64) domain.Lot {
		id := uuid.New()
		return domain.Lot{ID: id, OriginID: id, Symbol: symbol, Shares: decimal.NewFromInt(shares),
			CostBasis: decimal.NewFromInt(cost), PurchaseDate: purchased}
	}
	lots := []domain.Lot{mk("MSFT", 2, 300), mk("AAPL", 10, 100), mk("AAPL", 5, 120), mk("META", 1, 500)}
	quotes := domain.QuoteBook{
		"AAPL": {Symbol: "AAPL", Price: decimal.NewFromInt(110)},
		"MSFT": {Symbol: "MSFT", Price: decimal.NewFromInt(310)},
	}

	s, unavailable := Valuate(lots, quotes, purchased.Add(12*time.Hour))
	assert.Equal(t, []string{"META"}, unavailable)
	assert.Equal(t, purchased, s.Date)
	require.Len(t, s.Breakdown, 3)
	assert.Equal(t, "AAPL", s.Breakdown[0].Symbol)
	assert.True(t, decimal.NewFromInt(15).Equal(s.Breakdown[0].Shares))
	assert.True(t, decimal.NewFromInt(1650).Equal(s.Breakdown[0].Value))
	assert.Equal(t, "META", s.Breakdown[1].Symbol)
	assert.True(t, s.Breakdown[1].Unpriced, "held without a quote")
	assert.True(t, decimal.NewFromInt(1).Equal(s.Breakdown[1].Shares))
	assert.True(t, s.Breakdown[1].Value.IsZero())
	assert.True(t, decimal.NewFromInt(2270).Equal(s.TotalValue))
	assert.True(t, decimal.NewFromInt(2700).Equal(s.TotalCostBasis))

	before, unavailable := Valuate(lots, quotes, purchased.Add(-time.Hour))
	assert.Empty(t, before.Breakdown)
	assert.Empty(t, unavailable)
}

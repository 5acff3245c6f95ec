package portfolio

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/lotwise-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockLotRepository is a mock implementation of LotRepository for testing
type MockLotRepository struct {
	mock.Mock
}

func (m *MockLotRepository) Create(ctx context.Context, lot *domain.Lot) error {
	args := m.Called(ctx, lot)
	return args.Error(0)
}

func (m *MockLotRepository) ApplyDisposal(ctx context.Context, disposal *domain.Disposal) error {
	args := m.Called(ctx, disposal)
	return args.Error(0)
}

func (m *MockLotRepository) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	args := m.Called(ctx, id, notes)
	return args.Error(0)
}

func (m *MockLotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLotRepository) List(ctx context.Context) ([]*domain.Lot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Lot), args.Error(1)
}

// MockSaleRepository is a mock implementation of SaleRepository for testing
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) List(ctx context.Context) ([]*domain.Sale, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Sale), args.Error(1)
}

// MockSnapshotRepository is a mock implementation of SnapshotRepository for testing
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) Add(ctx context.Context, snapshot *domain.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockSnapshotRepository) List(ctx context.Context) ([]*domain.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Snapshot), args.Error(1)
}

// MockQuoteGateway is a mock implementation of QuoteGateway for testing
type MockQuoteGateway struct {
	mock.Mock
}

func (m *MockQuoteGateway) GetQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(domain.Quote), args.Error(1)
}

type fixture struct {
	service   *PortfolioService
	lots      *MockLotRepository
	sales     *MockSaleRepository
	snapshots *MockSnapshotRepository
	quotes    *MockQuoteGateway
	now       time.Time
}

func newFixture() *fixture {
	f := &fixture{
		lots:      new(MockLotRepository),
		sales:     new(MockSaleRepository),
		snapshots: new(MockSnapshotRepository),
		quotes:    new(MockQuoteGateway),
		now:       time.Date(2024, 6, 1, 16, 0, 0, 0, time.UTC),
	}
	f.service = NewPortfolioService(f.lots, f.sales, f.snapshots, f.quotes, zerolog.Nop())
	f.service.Now = func() time.Time { return f.now }
	return f
}

func (f *fixture) quote(symbol string, price int64) {
	f.quotes.On("GetQuote", mock.Anything, symbol).
		Return(domain.Quote{Symbol: symbol, Price: decimal.NewFromInt(price), Timestamp: f.now}, nil)
}

func (f *fixture) noQuote(symbol string) {
	f.quotes.On("GetQuote", mock.Anything, symbol).
		Return(domain.Quote{}, fmt.Errorf("%w: %s", domain.ErrNoQuote, symbol))
}

func day(s string) time.Time {
	t, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (f *fixture) buy(t *testing.T, symbol string, shares, cost int64, date string) *domain.Lot {
	t.Helper()
	lot, err := f.service.Buy(context.Background(), BuyInput{
		Symbol:       symbol,
		Shares:       decimal.NewFromInt(shares),
		CostBasis:    decimal.NewFromInt(cost),
		PurchaseDate: day(date),
	})
	require.NoError(t, err)
	return lot
}

func TestBuy_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.lots.On("Create", ctx, mock.MatchedBy(func(l *domain.Lot) bool {
		return l.Symbol == "AAPL" && l.Shares.Equal(decimal.NewFromInt(10))
	})).Return(nil)

	lot, err := f.service.Buy(ctx, BuyInput{
		Symbol:       " aapl ",
		Shares:       decimal.NewFromInt(10),
		CostBasis:    decimal.NewFromInt(150),
		PurchaseDate: day("2024-01-15"),
	})

	require.NoError(t, err)
	assert.Equal(t, "AAPL", lot.Symbol)
	assert.Equal(t, lot.ID, lot.OriginID)
	assert.Len(t, f.service.Lots(ctx, false), 1)
	f.lots.AssertExpectations(t)
}

func TestBuy_WithNotes(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.lots.On("Create", ctx, mock.MatchedBy(func(l *domain.Lot) bool {
		return l.Notes == "employer match"
	})).Return(nil)

	lot, err := f.service.Buy(ctx, BuyInput{
		Symbol:       "VTI",
		Shares:       decimal.NewFromInt(3),
		CostBasis:    decimal.NewFromInt(220),
		PurchaseDate: day("2024-01-15"),
		Notes:        " employer match ",
	})

	require.NoError(t, err)
	assert.Equal(t, "employer match", lot.Notes)
	f.lots.AssertExpectations(t)
}

func TestBuy_ValidationErrorSkipsRepository(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.service.Buy(ctx, BuyInput{
		Symbol:       "AAPL",
		Shares:       decimal.Zero,
		CostBasis:    decimal.NewFromInt(150),
		PurchaseDate: day("2024-01-15"),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidLot)
	f.lots.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBuy_RepositoryErrorLeavesLedgerUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.lots.On("Create", ctx, mock.Anything).Return(errors.New("database error"))

	_, err := f.service.Buy(ctx, BuyInput{
		Symbol:       "AAPL",
		Shares:       decimal.NewFromInt(10),
		CostBasis:    decimal.NewFromInt(150),
		PurchaseDate: day("2024-01-15"),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save lot")
	assert.Empty(t, f.service.Lots(ctx, true))
}

func TestSell_PartialDisposal(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.lots.On("Create", ctx, mock.Anything).Return(nil)
	lot := f.buy(t, "AAPL", 100, 100, "2024-01-02")

	f.lots.On("ApplyDisposal", ctx, mock.MatchedBy(func(d *domain.Disposal) bool {
		return d.Lot.ID == lot.ID && !d.Lot.Closed && d.Lot.Shares.Equal(decimal.NewFromInt(60)) &&
			d.ClosedPortion != nil && d.ClosedPortion.Shares.Equal(decimal.NewFromInt(40)) &&
			d.ClosedPortion.ID == d.Sale.ClosedLotID
	})).Return(nil)

	sale, err := f.service.Sell(ctx, SellInput{
		LotID:            lot.ID,
		Shares:           decimal.NewFromInt(40),
		ProceedsPerShare: decimal.NewFromInt(120),
		SaleDate:         day("2024-03-01"),
	})

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(800).Equal(sale.RealizedGain))
	assert.Len(t, f.service.Lots(ctx, false), 1)
	assert.Len(t, f.service.Lots(ctx, true), 2)
	f.lots.AssertExpectations(t)
}

func TestSell_FullDisposal(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.lots.On("Create", ctx, mock.Anything).Return(nil)
	lot := f.buy(t, "AAPL", 10, 100, "2024-01-02")

	f.lots.On("ApplyDisposal", ctx, mock.MatchedBy(func(d *domain.Disposal) bool {
		return d.Lot.Closed && d.ClosedPortion == nil && d.Sale.ClosedLotID == lot.ID
	})).Return(nil)

	_, err := f.service.Sell(ctx, SellInput{
		LotID:            lot.ID,
		Shares:           decimal.NewFromInt(10),
		ProceedsPerShare: decimal.NewFromInt(90),
		SaleDate:         day("2024-03-01"),
	})

	require.NoError(t, err)
	assert.Empty(t, f.service.Lots(ctx, false))
	f.lots.AssertExpectations(t)
}

func TestSell_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.lots.On("Create", ctx, mock.Anything).Return(nil)
	lot := f.buy(t, "AAPL", 10, 100, "2024-01-02")

	tests := []struct {
		name    string
		input   SellInput
		wantErr error
	}{
		{
			name:    "Unknown lot",
			input:   SellInput{LotID: uuid.New(), Shares: decimal.NewFromInt(1), ProceedsPerShare: decimal.NewFromInt(1), SaleDate: day("2024-03-01")},
			wantErr: domain.ErrUnknownLot,
		},
		{
			name:    "Over disposal",
			input:   SellInput{LotID: lot.ID, Shares: decimal.NewFromInt(11), ProceedsPerShare: decimal.NewFromInt(1), SaleDate: day("2024-03-01")},
			wantErr: domain.ErrOverDisposal,
		},
		{
			name:    "Sale before purchase",
			input:   SellInput{LotID: lot.ID, Shares: decimal.NewFromInt(1), ProceedsPerShare: decimal.NewFromInt(1), SaleDate: day("2023-12-01")},
			wantErr: domain.ErrInvalidSale,
		},
		{
			name:    "Sale in the future",
			input:   SellInput{LotID: lot.ID, Shares: decimal.NewFromInt(1), ProceedsPerShare: decimal.NewFromInt(1), SaleDate: day("2024-07-01")},
			wantErr: domain.ErrInvalidSale,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Sell(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	f.lots.AssertNotCalled(t, "ApplyDisposal", mock.Anything, mock.Anything)
}

func TestSell_RepositoryErrorLeavesLedgerUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.lots.On("Create", ctx, mock.Anything).Return(nil)
	lot := f.buy(t, "AAPL", 10, 100, "2024-01-02")
	f.lots.On("ApplyDisposal", ctx, mock.Anything).Return(errors.New("database error"))

	_, err := f.service.Sell(ctx, SellInput{
		LotID:            lot.ID,
		Shares:           decimal.NewFromInt(4),
		ProceedsPerShare: decimal.NewFromInt(90),
		SaleDate:         day("2024-03-01"),
	})

	require.Error(t, err)
	open := f.service.Lots(ctx, true)
	require.Len(t, open, 1)
	assert.True(t, decimal.NewFromInt(10).Equal(open[0].Shares))
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.lots.On("Create", ctx, mock.Anything).Return(nil)
	lot := f.buy(t, "AAPL", 10, 100, "2024-01-02")
	f.lots.On("Delete", ctx, lot.ID).Return(nil)

	require.NoError(t, f.service.Remove(ctx, lot.ID))
	assert.Empty(t, f.service.Lots(ctx, true))

	err := f.service.Remove(ctx, lot.ID)
	assert.ErrorIs(t, err, domain.ErrUnknownLot)
	f.lots.AssertNumberOfCalls(t, "Delete", 1)
}

func TestAnnotate(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.lots.On("Create", ctx, mock.Anything).Return(nil)
	lot := f.buy(t, "AAPL", 10, 100, "2024-01-02")
	f.lots.On("UpdateNotes", ctx, lot.ID, "hold past a year").Return(nil).Once()

	got, err := f.service.Annotate(ctx, lot.ID, "hold past a year ")
	require.NoError(t, err)
	assert.Equal(t, "hold past a year", got.Notes)
	assert.Equal(t, "hold past a year", f.service.Lots(ctx, false)[0].Notes)

	_, err = f.service.Annotate(ctx, uuid.New(), "x")
	assert.ErrorIs(t, err, domain.ErrUnknownLot)
	f.lots.AssertNumberOfCalls(t, "UpdateNotes", 1)
}

func TestAnnotate_RepositoryErrorLeavesLedgerUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.lots.On("Create", ctx, mock.Anything).Return(nil)
	lot := f.buy(t, "AAPL", 10, 100, "2024-01-02")
	f.lots.On("UpdateNotes", ctx, lot.ID, "x").Return(errors.New("database error"))

	_, err := f.service.Annotate(ctx, lot.ID, "x")
	require.Error(t, err)
	assert.Empty(t, f.service.Lots(ctx, false)[0].Notes)
}

func TestGains_DegradesSymbolWithoutQuote(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.lots.On("Create", ctx, mock.Anything).Return(nil)
	f.buy(t, "AAPL", 10, 100, "2023-01-02")
	f.buy(t, "MSFT", 5, 300, "2024-02-01")
	f.quote("AAPL", 150)
	f.noQuote("MSFT")

	report := f.service.Gains(ctx)

	assert.Equal(t, []string{"MSFT"}, report.Unavailable)
	require.Len(t, report.Lots, 2)
	assert.True(t, decimal.NewFromInt(500).Equal(report.Totals.Unrealized))
	assert.True(t, decimal.NewFromInt(500).Equal(report.Totals.UnrealizedLongTerm))
	f.quotes.AssertExpectations(t)
}

func TestWashSales_ThroughService(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.lots.On("Create", ctx, mock.Anything).Return(nil)
	f.lots.On("ApplyDisposal", ctx, mock.Anything).Return(nil)

	lot := f.buy(t, "AAPL", 100, 200, "2024-01-10")
	_, err := f.service.Sell(ctx, SellInput{
		LotID:            lot.ID,
		Shares:           decimal.NewFromInt(100),
		ProceedsPerShare: decimal.NewFromInt(150),
		SaleDate:         day("2024-02-01"),
	})
	require.NoError(t, err)
	f.buy(t, "AAPL", 100, 155, "2024-02-15")

	report := f.service.WashSales(ctx)

	require.Len(t, report.Flags, 1)
	assert.True(t, decimal.NewFromInt(5000).Equal(report.TotalDisallowed))
	f.quotes.AssertNotCalled(t, "GetQuote", mock.Anything, mock.Anything)
}

func TestGains_RealizedRowsCarryDisallowedLoss(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.lots.On("Create", ctx, mock.Anything).Return(nil)
	f.lots.On("ApplyDisposal", ctx, mock.Anything).Return(nil)

	lot := f.buy(t, "AAPL", 100, 200, "2024-01-10")
	sale, err := f.service.Sell(ctx, SellInput{
		LotID:            lot.ID,
		Shares:           decimal.NewFromInt(100),
		ProceedsPerShare: decimal.NewFromInt(150),
		SaleDate:         day("2024-02-01"),
	})
	require.NoError(t, err)
	f.buy(t, "AAPL", 40, 155, "2024-02-15")
	f.quote("AAPL", 160)

	report := f.service.Gains(ctx)

	require.Len(t, report.Realized, 1)
	assert.Equal(t, sale.ID, report.Realized[0].SaleID)
	assert.True(t, decimal.NewFromInt(-5000).Equal(report.Realized[0].Gain))
	assert.True(t, decimal.NewFromInt(2000).Equal(report.Realized[0].DisallowedLoss), "40 replacement shares at 50 loss each")
	assert.True(t, decimal.NewFromInt(2000).Equal(report.Totals.DisallowedLoss))
}

func TestHarvest_ThroughService(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.lots.On("Create", ctx, mock.Anything).Return(nil)
	f.buy(t, "TSLA", 10, 250, "2024-01-02")
	f.buy(t, "AAPL", 10, 100, "2024-01-02")
	f.quote("TSLA", 200)
	f.quote("AAPL", 120)

	report := f.service.Harvest(ctx, decimal.NewFromInt(100))

	require.Len(t, report.Candidates, 1)
	assert.Equal(t, "TSLA", report.Candidates[0].Symbol)
	assert.True(t, decimal.NewFromInt(500).Equal(report.TotalHarvestableLoss))
}

func TestRecordSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.lots.On("Create", ctx, mock.Anything).Return(nil)
	f.buy(t, "AAPL", 10, 100, "2024-01-02")
	f.quote("AAPL", 110)
	f.snapshots.On("Add", ctx, mock.Anything).Return(nil)

	snap, err := f.service.RecordSnapshot(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1100).Equal(snap.TotalValue))
	assert.Equal(t, f.now, snap.Timestamp)

	// Same clock reading: second snapshot is out of order and never persisted
	_, err = f.service.RecordSnapshot(ctx)
	assert.ErrorIs(t, err, domain.ErrSnapshotOrder)
	f.snapshots.AssertNumberOfCalls(t, "Add", 1)
}

func TestRecordSnapshot_RepositoryError(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.snapshots.On("Add", ctx, mock.Anything).Return(errors.New("database error"))

	_, err := f.service.RecordSnapshot(ctx)
	require.Error(t, err)
	assert.Empty(t, f.service.Snapshots(ctx, f.now.Add(-time.Hour), f.now.Add(time.Hour)))
}

func TestRecordSnapshot_RevaluesWhenLedgerChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.lots.On("Create", ctx, mock.Anything).Return(nil)
	f.snapshots.On("Add", ctx, mock.Anything).Return(nil)
	f.buy(t, "AAPL", 10, 100, "2024-05-01")

	// A purchase commits while the first valuation is looking up quotes
	f.quotes.On("GetQuote", mock.Anything, "AAPL").
		Run(func(mock.Arguments) { f.buy(t, "AAPL", 10, 105, "2024-06-01") }).
		Return(domain.Quote{Symbol: "AAPL", Price: decimal.NewFromInt(110)}, nil).Once()
	f.quote("AAPL", 110)

	snap, err := f.service.RecordSnapshot(ctx)
	require.NoError(t, err)

	aapl, ok := snap.Holding("AAPL")
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(20).Equal(aapl.Shares), "snapshot includes the purchase it raced with")
	assert.True(t, decimal.NewFromInt(2200).Equal(snap.TotalValue))
	f.quotes.AssertNumberOfCalls(t, "GetQuote", 2)
	f.snapshots.AssertNumberOfCalls(t, "Add", 1)
}

func TestRecordSnapshot_GivesUpWhenLedgerKeepsChanging(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.lots.On("Create", ctx, mock.Anything).Return(nil)
	f.buy(t, "AAPL", 10, 100, "2024-05-01")

	f.quotes.On("GetQuote", mock.Anything, "AAPL").
		Run(func(mock.Arguments) { f.buy(t, "AAPL", 1, 105, "2024-06-01") }).
		Return(domain.Quote{Symbol: "AAPL", Price: decimal.NewFromInt(110)}, nil)

	_, err := f.service.RecordSnapshot(ctx)
	assert.ErrorIs(t, err, domain.ErrLedgerChanged)
	f.quotes.AssertNumberOfCalls(t, "GetQuote", snapshotAttempts)
	f.snapshots.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	assert.Empty(t, f.service.Snapshots(ctx, f.now.Add(-time.Hour), f.now.Add(time.Hour)))
}

func TestAttribution_LiveEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.lots.On("Create", ctx, mock.Anything).Return(nil)
	f.snapshots.On("Add", ctx, mock.Anything).Return(nil)
	f.buy(t, "AAPL", 10, 100, "2024-01-02")

	f.quotes.On("GetQuote", mock.Anything, "AAPL").
		Return(domain.Quote{Symbol: "AAPL", Price: decimal.NewFromInt(110)}, nil).Once()
	_, err := f.service.RecordSnapshot(ctx)
	require.NoError(t, err)
	start := f.now

	f.now = f.now.Add(48 * time.Hour)
	f.quotes.On("GetQuote", mock.Anything, "AAPL").
		Return(domain.Quote{Symbol: "AAPL", Price: decimal.NewFromInt(125)}, nil).Once()

	report, err := f.service.Attribution(ctx, start, nil)
	require.NoError(t, err)
	require.Len(t, report.Contributions, 1)
	assert.True(t, decimal.NewFromInt(150).Equal(report.Contributions[0].Contribution))
	assert.True(t, report.SnapshotChange.Equal(report.TotalChange))
}

func TestAttribution_NoSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.service.Attribution(ctx, f.now, nil)
	assert.ErrorIs(t, err, domain.ErrNoSnapshot)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	id := uuid.New()
	closedID := uuid.New()
	sale := &domain.Sale{
		ID: uuid.New(), LotID: id, ClosedLotID: closedID, Symbol: "AAPL",
		Shares: decimal.NewFromInt(4), CostBasis: decimal.NewFromInt(100),
		PurchaseDate: day("2024-01-02"), SaleDate: day("2024-02-01"),
		ProceedsPerShare: decimal.NewFromInt(90), RealizedGain: decimal.NewFromInt(-40),
	}
	lots := []*domain.Lot{
		{ID: id, OriginID: id, Symbol: "AAPL", Shares: decimal.NewFromInt(6), CostBasis: decimal.NewFromInt(100), PurchaseDate: day("2024-01-02")},
		{ID: closedID, OriginID: id, Symbol: "AAPL", Shares: decimal.NewFromInt(4), CostBasis: decimal.NewFromInt(100), PurchaseDate: day("2024-01-02"), Closed: true},
	}
	snapshots := []*domain.Snapshot{{ID: uuid.New(), Timestamp: day("2024-02-01"), TotalValue: decimal.NewFromInt(600)}}

	f.lots.On("List", ctx).Return(lots, nil)
	f.sales.On("List", ctx).Return([]*domain.Sale{sale}, nil)
	f.snapshots.On("List", ctx).Return(snapshots, nil)

	require.NoError(t, f.service.Load(ctx))

	all := f.service.Lots(ctx, true)
	require.Len(t, all, 2)
	require.NotNil(t, all[1].Sale)
	assert.Equal(t, sale.ID, all[1].Sale.ID)
	assert.Len(t, f.service.Snapshots(ctx, day("2024-01-01"), day("2024-12-31")), 1)

	report := f.service.WashSales(ctx)
	assert.Empty(t, report.Flags)
}

func TestLoad_RepositoryError(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.lots.On("List", ctx).Return(nil, errors.New("connection refused"))

	err := f.service.Load(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list lots")
}

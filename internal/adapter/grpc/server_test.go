package grpc

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/simaogato/lotwise-backend/internal/adapter/quote"
	"github.com/simaogato/lotwise-backend/internal/adapter/repository/sqlite"
	"github.com/simaogato/lotwise-backend/internal/domain"
	"github.com/simaogato/lotwise-backend/internal/usecase/portfolio"
)

const testToken = "test-token"

type testEnv struct {
	client *LotwiseServiceClient
	quotes *quote.Static
	now    *time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "lots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	lots := sqlite.NewLotRepository(db)
	quotes := quote.NewStatic(nil)
	service := portfolio.NewPortfolioService(lots, lots.SaleRepository(), sqlite.NewSnapshotRepository(db), quotes, zerolog.Nop())
	now := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)
	service.Now = func() time.Time { return now }

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		LoggingInterceptor(zerolog.Nop()),
		AuthInterceptor(testToken),
	))
	RegisterLotwiseServiceServer(srv, NewServer(service))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &testEnv{client: NewLotwiseServiceClient(conn), quotes: quotes, now: &now}
}

func authed() context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", testToken)
}

func TestServer_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.client.ListLots(context.Background(), &ListLotsRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestServer_LotLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := authed()

	added, err := env.client.AddLot(ctx, &AddLotRequest{Symbol: "aapl", Shares: "100", CostBasis: "200", PurchaseDate: "2024-01-10", Notes: "starter"})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", added.Lot.Symbol)
	assert.Equal(t, "2024-01-10", added.Lot.PurchaseDate)
	assert.Equal(t, "starter", added.Lot.Notes)

	annotated, err := env.client.AnnotateLot(ctx, &AnnotateLotRequest{LotId: added.Lot.Id, Notes: "trim above 150"})
	require.NoError(t, err)
	assert.Equal(t, "trim above 150", annotated.Lot.Notes)

	sold, err := env.client.DisposeLot(ctx, &DisposeLotRequest{LotId: added.Lot.Id, Shares: "40", ProceedsPerShare: "150", SaleDate: "2024-02-01"})
	require.NoError(t, err)
	assert.Equal(t, "-2000", sold.Sale.RealizedGain)
	assert.Equal(t, added.Lot.Id, sold.Sale.LotId)

	_, err = env.client.AddLot(ctx, &AddLotRequest{Symbol: "AAPL", Shares: "10", CostBasis: "155", PurchaseDate: "2024-02-15"})
	require.NoError(t, err)

	open, err := env.client.ListLots(ctx, &ListLotsRequest{})
	require.NoError(t, err)
	assert.Len(t, open.Lots, 2)

	all, err := env.client.ListLots(ctx, &ListLotsRequest{IncludeClosed: true})
	require.NoError(t, err)
	require.Len(t, all.Lots, 3)
	var closed *Lot
	for _, l := range all.Lots {
		if l.Closed {
			closed = l
		}
	}
	require.NotNil(t, closed)
	require.NotNil(t, closed.Sale)
	assert.Equal(t, added.Lot.Id, closed.OriginId)
	assert.Equal(t, "trim above 150", closed.Notes)

	wash, err := env.client.GetWashSales(ctx, &GetWashSalesRequest{})
	require.NoError(t, err)
	require.Len(t, wash.Report.Flags, 1)
	assert.True(t, decimal.NewFromInt(500).Equal(wash.Report.TotalDisallowed))

	env.quotes.Set("AAPL", decimal.NewFromInt(180))
	gains, err := env.client.GetGainReport(ctx, &GetGainReportRequest{})
	require.NoError(t, err)
	require.Len(t, gains.Report.Lots, 2)
	assert.True(t, decimal.NewFromInt(-2000).Equal(gains.Report.Totals.Realized))
	require.Len(t, gains.Report.Realized, 1)
	assert.True(t, decimal.NewFromInt(500).Equal(gains.Report.Realized[0].DisallowedLoss))
	assert.Empty(t, gains.Report.Unavailable)

	harvest, err := env.client.GetHarvest(ctx, &GetHarvestRequest{Threshold: "100"})
	require.NoError(t, err)
	require.Len(t, harvest.Report.Candidates, 1)
	assert.Equal(t, added.Lot.Id, harvest.Report.Candidates[0].LotID.String())
	assert.False(t, harvest.Report.Candidates[0].WouldTriggerWashSale, "replacement bought more than 30 days ago")
}

func TestServer_ErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	ctx := authed()

	added, err := env.client.AddLot(ctx, &AddLotRequest{Symbol: "MSFT", Shares: "5", CostBasis: "300", PurchaseDate: "2024-01-10"})
	require.NoError(t, err)

	tests := []struct {
		name string
		call func() error
		want codes.Code
	}{
		{
			name: "Bad decimal",
			call: func() error {
				_, err := env.client.AddLot(ctx, &AddLotRequest{Symbol: "MSFT", Shares: "five", CostBasis: "1", PurchaseDate: "2024-01-10"})
				return err
			},
			want: codes.InvalidArgument,
		},
		{
			name: "Invalid lot",
			call: func() error {
				_, err := env.client.AddLot(ctx, &AddLotRequest{Symbol: "", Shares: "1", CostBasis: "1", PurchaseDate: "2024-01-10"})
				return err
			},
			want: codes.InvalidArgument,
		},
		{
			name: "Unknown lot",
			call: func() error {
				_, err := env.client.RemoveLot(ctx, &RemoveLotRequest{LotId: "00000000-0000-0000-0000-000000000001"})
				return err
			},
			want: codes.NotFound,
		},
		{
			name: "Annotate unknown lot",
			call: func() error {
				_, err := env.client.AnnotateLot(ctx, &AnnotateLotRequest{LotId: "00000000-0000-0000-0000-000000000001", Notes: "x"})
				return err
			},
			want: codes.NotFound,
		},
		{
			name: "Over disposal",
			call: func() error {
				_, err := env.client.DisposeLot(ctx, &DisposeLotRequest{LotId: added.Lot.Id, Shares: "6", ProceedsPerShare: "1", SaleDate: "2024-02-01"})
				return err
			},
			want: codes.FailedPrecondition,
		},
		{
			name: "Future sale",
			call: func() error {
				_, err := env.client.DisposeLot(ctx, &DisposeLotRequest{LotId: added.Lot.Id, Shares: "1", ProceedsPerShare: "1", SaleDate: "2030-01-01"})
				return err
			},
			want: codes.InvalidArgument,
		},
		{
			name: "No snapshot",
			call: func() error {
				_, err := env.client.GetAttribution(ctx, &GetAttributionRequest{Start: timestamppb.New(*env.now)})
				return err
			},
			want: codes.NotFound,
		},
		{
			name: "Missing trend bound",
			call: func() error {
				_, err := env.client.GetTrend(ctx, &GetTrendRequest{From: timestamppb.New(*env.now)})
				return err
			},
			want: codes.InvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(tt.call()))
		})
	}
}

func TestServer_SnapshotsAndAttribution(t *testing.T) {
	env := newTestEnv(t)
	ctx := authed()

	_, err := env.client.AddLot(ctx, &AddLotRequest{Symbol: "AAPL", Shares: "10", CostBasis: "100", PurchaseDate: "2024-01-10"})
	require.NoError(t, err)
	_, err = env.client.AddLot(ctx, &AddLotRequest{Symbol: "MSFT", Shares: "2", CostBasis: "300", PurchaseDate: "2024-01-10"})
	require.NoError(t, err)

	env.quotes.Set("AAPL", decimal.NewFromInt(110))
	env.quotes.Set("MSFT", decimal.NewFromInt(320))
	first, err := env.client.RecordSnapshot(ctx, &RecordSnapshotRequest{})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1740).Equal(first.Snapshot.TotalValue))
	start := *env.now

	_, err = env.client.RecordSnapshot(ctx, &RecordSnapshotRequest{})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err), "same timestamp")

	*env.now = env.now.Add(24 * time.Hour)
	env.quotes.Set("AAPL", decimal.NewFromInt(120))
	env.quotes.Set("MSFT", decimal.NewFromInt(310))
	_, err = env.client.RecordSnapshot(ctx, &RecordSnapshotRequest{})
	require.NoError(t, err)
	end := *env.now

	attr, err := env.client.GetAttribution(ctx, &GetAttributionRequest{Start: timestamppb.New(start), End: timestamppb.New(end)})
	require.NoError(t, err)
	require.Len(t, attr.Report.Contributions, 2)
	assert.Equal(t, "AAPL", attr.Report.Contributions[0].Symbol)
	assert.True(t, decimal.NewFromInt(100).Equal(attr.Report.Contributions[0].Contribution))
	assert.True(t, decimal.NewFromInt(-20).Equal(attr.Report.Contributions[1].Contribution))
	assert.True(t, attr.Report.TotalChange.Equal(attr.Report.SnapshotChange))

	trend, err := env.client.GetTrend(ctx, &GetTrendRequest{From: timestamppb.New(start), To: timestamppb.New(end)})
	require.NoError(t, err)
	assert.Len(t, trend.Report.Snapshots, 2)
	assert.True(t, decimal.NewFromInt(80).Equal(trend.Report.Change))
	assert.Equal(t, domain.ReportKindTrend, trend.Report.Kind())
}

func TestMapError_LedgerChanged(t *testing.T) {
	err := mapError(fmt.Errorf("%w: gave up after 3 attempts", domain.ErrLedgerChanged))
	assert.Equal(t, codes.Aborted, status.Code(err))
}

package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/simaogato/lotwise-backend/internal/domain"
	"github.com/simaogato/lotwise-backend/internal/usecase/portfolio"
)

// Server implements the LotwiseService gRPC server
type Server struct {
	UnimplementedLotwiseServiceServer

	PortfolioService *portfolio.PortfolioService
}

// NewServer creates a new gRPC server instance
func NewServer(portfolioService *portfolio.PortfolioService) *Server {
	return &Server{PortfolioService: portfolioService}
}

// AddLot handles the AddLot RPC
func (s *Server) AddLot(ctx context.Context, req *AddLotRequest) (*AddLotResponse, error) {
	shares, err := parseDecimal("shares", req.Shares)
	if err != nil {
		return nil, err
	}
	costBasis, err := parseDecimal("cost_basis", req.CostBasis)
	if err != nil {
		return nil, err
	}
	purchaseDate, err := parseDate("purchase_date", req.PurchaseDate)
	if err != nil {
		return nil, err
	}

	lot, err := s.PortfolioService.Buy(ctx, portfolio.BuyInput{
		Symbol:       req.Symbol,
		Shares:       shares,
		CostBasis:    costBasis,
		PurchaseDate: purchaseDate,
		Notes:        req.Notes,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return &AddLotResponse{Lot: domainLotToMessage(*lot)}, nil
}

// DisposeLot handles the DisposeLot RPC
func (s *Server) DisposeLot(ctx context.Context, req *DisposeLotRequest) (*DisposeLotResponse, error) {
	lotID, err := parseUUID("lot_id", req.LotId)
	if err != nil {
		return nil, err
	}
	shares, err := parseDecimal("shares", req.Shares)
	if err != nil {
		return nil, err
	}
	proceeds, err := parseDecimal("proceeds_per_share", req.ProceedsPerShare)
	if err != nil {
		return nil, err
	}
	saleDate, err := parseDate("sale_date", req.SaleDate)
	if err != nil {
		return nil, err
	}

	sale, err := s.PortfolioService.Sell(ctx, portfolio.SellInput{
		LotID:            lotID,
		Shares:           shares,
		ProceedsPerShare: proceeds,
		SaleDate:         saleDate,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return &DisposeLotResponse{Sale: domainSaleToMessage(*sale)}, nil
}

// RemoveLot handles the RemoveLot RPC
func (s *Server) RemoveLot(ctx context.Context, req *RemoveLotRequest) (*RemoveLotResponse, error) {
	lotID, err := parseUUID("lot_id", req.LotId)
	if err != nil {
		return nil, err
	}
	if err := s.PortfolioService.Remove(ctx, lotID); err != nil {
		return nil, mapError(err)
	}
	return &RemoveLotResponse{}, nil
}

// AnnotateLot handles the AnnotateLot RPC
func (s *Server) AnnotateLot(ctx context.Context, req *AnnotateLotRequest) (*AnnotateLotResponse, error) {
	lotID, err := parseUUID("lot_id", req.LotId)
	if err != nil {
		return nil, err
	}
	lot, err := s.PortfolioService.Annotate(ctx, lotID, req.Notes)
	if err != nil {
		return nil, mapError(err)
	}
	return &AnnotateLotResponse{Lot: domainLotToMessage(*lot)}, nil
}

// ListLots handles the ListLots RPC
func (s *Server) ListLots(ctx context.Context, req *ListLotsRequest) (*ListLotsResponse, error) {
	lots := s.PortfolioService.Lots(ctx, req.IncludeClosed)

	out := make([]*Lot, 0, len(lots))
	for _, lot := range lots {
		out = append(out, domainLotToMessage(lot))
	}
	return &ListLotsResponse{Lots: out}, nil
}

// GetGainReport handles the GetGainReport RPC
func (s *Server) GetGainReport(ctx context.Context, req *GetGainReportRequest) (*GetGainReportResponse, error) {
	return &GetGainReportResponse{Report: s.PortfolioService.Gains(ctx)}, nil
}

// GetWashSales handles the GetWashSales RPC
func (s *Server) GetWashSales(ctx context.Context, req *GetWashSalesRequest) (*GetWashSalesResponse, error) {
	return &GetWashSalesResponse{Report: s.PortfolioService.WashSales(ctx)}, nil
}

// GetHarvest handles the GetHarvest RPC
func (s *Server) GetHarvest(ctx context.Context, req *GetHarvestRequest) (*GetHarvestResponse, error) {
	threshold := decimal.Zero
	if req.Threshold != "" {
		var err error
		if threshold, err = parseDecimal("threshold", req.Threshold); err != nil {
			return nil, err
		}
	}
	return &GetHarvestResponse{Report: s.PortfolioService.Harvest(ctx, threshold)}, nil
}

// RecordSnapshot handles the RecordSnapshot RPC
func (s *Server) RecordSnapshot(ctx context.Context, req *RecordSnapshotRequest) (*RecordSnapshotResponse, error) {
	snapshot, err := s.PortfolioService.RecordSnapshot(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return &RecordSnapshotResponse{Snapshot: *snapshot}, nil
}

// GetAttribution handles the GetAttribution RPC
func (s *Server) GetAttribution(ctx context.Context, req *GetAttributionRequest) (*GetAttributionResponse, error) {
	start, err := parseTimestamp("start", req.Start)
	if err != nil {
		return nil, err
	}
	var end *time.Time
	if req.End != nil {
		t, err := parseTimestamp("end", req.End)
		if err != nil {
			return nil, err
		}
		end = &t
	}

	report, err := s.PortfolioService.Attribution(ctx, start, end)
	if err != nil {
		return nil, mapError(err)
	}
	return &GetAttributionResponse{Report: report}, nil
}

// GetTrend handles the GetTrend RPC
func (s *Server) GetTrend(ctx context.Context, req *GetTrendRequest) (*GetTrendResponse, error) {
	from, err := parseTimestamp("from", req.From)
	if err != nil {
		return nil, err
	}
	to, err := parseTimestamp("to", req.To)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, mapError(domain.ErrInvalidInterval)
	}
	return &GetTrendResponse{Report: s.PortfolioService.Trend(ctx, from, to)}, nil
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", field, err)
	}
	return d, nil
}

func parseUUID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", field, err)
	}
	return id, nil
}

func parseDate(field, value string) (time.Time, error) {
	t, err := domain.ParseDate(value)
	if err != nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "invalid %s: %v", field, err)
	}
	return t, nil
}

func parseTimestamp(field string, ts *timestamppb.Timestamp) (time.Time, error) {
	if ts == nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "%s is required", field)
	}
	if err := ts.CheckValid(); err != nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "invalid %s: %v", field, err)
	}
	return ts.AsTime(), nil
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrInvalidLot),
		errors.Is(err, domain.ErrInvalidSale),
		errors.Is(err, domain.ErrInvalidInterval):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrUnknownLot),
		errors.Is(err, domain.ErrNoSnapshot):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrOverDisposal),
		errors.Is(err, domain.ErrSnapshotOrder):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrNoQuote):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, domain.ErrLedgerChanged):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	// Default to Internal error for unknown errors
	return status.Error(codes.Internal, err.Error())
}

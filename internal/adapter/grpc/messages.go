package grpc

import (
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/simaogato/lotwise-backend/internal/domain"
)

// Decimals travel as strings and calendar dates as YYYY-MM-DD.

// Lot is the wire form of domain.Lot
type Lot struct {
	Id           string `json:"id"`
	OriginId     string `json:"origin_id"`
	Symbol       string `json:"symbol"`
	Shares       string `json:"shares"`
	CostBasis    string `json:"cost_basis"`
	PurchaseDate string `json:"purchase_date"`
	Closed       bool   `json:"closed"`
	Sale         *Sale  `json:"sale,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Sale is the wire form of domain.Sale
type Sale struct {
	Id               string `json:"id"`
	LotId            string `json:"lot_id"`
	ClosedLotId      string `json:"closed_lot_id"`
	Symbol           string `json:"symbol"`
	Shares           string `json:"shares"`
	CostBasis        string `json:"cost_basis"`
	PurchaseDate     string `json:"purchase_date"`
	SaleDate         string `json:"sale_date"`
	ProceedsPerShare string `json:"proceeds_per_share"`
	RealizedGain     string `json:"realized_gain"`
}

type AddLotRequest struct {
	Symbol       string `json:"symbol"`
	Shares       string `json:"shares"`
	CostBasis    string `json:"cost_basis"`
	PurchaseDate string `json:"purchase_date"`
	Notes        string `json:"notes,omitempty"`
}

type AddLotResponse struct {
	Lot *Lot `json:"lot"`
}

type DisposeLotRequest struct {
	LotId            string `json:"lot_id"`
	Shares           string `json:"shares"`
	ProceedsPerShare string `json:"proceeds_per_share"`
	SaleDate         string `json:"sale_date"`
}

type DisposeLotResponse struct {
	Sale *Sale `json:"sale"`
}

type RemoveLotRequest struct {
	LotId string `json:"lot_id"`
}

type RemoveLotResponse struct{}

type AnnotateLotRequest struct {
	LotId string `json:"lot_id"`
	Notes string `json:"notes"`
}

type AnnotateLotResponse struct {
	Lot *Lot `json:"lot"`
}

type ListLotsRequest struct {
	IncludeClosed bool `json:"include_closed"`
}

type ListLotsResponse struct {
	Lots []*Lot `json:"lots"`
}

type GetGainReportRequest struct{}

type GetGainReportResponse struct {
	Report domain.GainReport `json:"report"`
}

type GetWashSalesRequest struct{}

type GetWashSalesResponse struct {
	Report domain.WashSaleReport `json:"report"`
}

type GetHarvestRequest struct {
	// Minimum loss a lot must exceed. Empty means zero.
	Threshold string `json:"threshold"`
}

type GetHarvestResponse struct {
	Report domain.HarvestReport `json:"report"`
}

type RecordSnapshotRequest struct{}

type RecordSnapshotResponse struct {
	Snapshot domain.Snapshot `json:"snapshot"`
}

type GetAttributionRequest struct {
	Start *timestamppb.Timestamp `json:"start"`
	// Nil values the end point at current quotes
	End *timestamppb.Timestamp `json:"end,omitempty"`
}

type GetAttributionResponse struct {
	Report domain.AttributionReport `json:"report"`
}

type GetTrendRequest struct {
	From *timestamppb.Timestamp `json:"from"`
	To   *timestamppb.Timestamp `json:"to"`
}

type GetTrendResponse struct {
	Report domain.TrendReport `json:"report"`
}

func domainLotToMessage(lot domain.Lot) *Lot {
	m := &Lot{
		Id:           lot.ID.String(),
		OriginId:     lot.OriginID.String(),
		Symbol:       lot.Symbol,
		Shares:       lot.Shares.String(),
		CostBasis:    lot.CostBasis.String(),
		PurchaseDate: lot.PurchaseDate.Format(domain.DateLayout),
		Closed:       lot.Closed,
		Notes:        lot.Notes,
	}
	if lot.Sale != nil {
		m.Sale = domainSaleToMessage(*lot.Sale)
	}
	return m
}

func domainSaleToMessage(s domain.Sale) *Sale {
	return &Sale{
		Id:               s.ID.String(),
		LotId:            s.LotID.String(),
		ClosedLotId:      s.ClosedLotID.String(),
		Symbol:           s.Symbol,
		Shares:           s.Shares.String(),
		CostBasis:        s.CostBasis.String(),
		PurchaseDate:     s.PurchaseDate.Format(domain.DateLayout),
		SaleDate:         s.SaleDate.Format(domain.DateLayout),
		ProceedsPerShare: s.ProceedsPerShare.String(),
		RealizedGain:     s.RealizedGain.String(),
	}
}

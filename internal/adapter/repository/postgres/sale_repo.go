package postgres

import (
	"context"
	"fmt"

	"github.com/simaogato/lotwise-backend/internal/adapter/repository/rowcodec"
	"github.com/simaogato/lotwise-backend/internal/domain"
)

// saleRepository implements domain.SaleRepository
type saleRepository struct {
	db *DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *DB) domain.SaleRepository {
	return &saleRepository{db: db}
}

// List retrieves all sales in the order they were recorded
func (r *saleRepository) List(ctx context.Context) ([]*domain.Sale, error) {
	query := `
		SELECT id, lot_id, closed_lot_id, symbol, shares, cost_basis,
			purchase_date, sale_date, proceeds_per_share, realized_gain
		FROM sales
		ORDER BY seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []*domain.Sale
	for rows.Next() {
		var s domain.Sale
		var sharesStr, costStr, proceedsStr, gainStr string

		if err := rows.Scan(
			&s.ID,
			&s.LotID,
			&s.ClosedLotID,
			&s.Symbol,
			&sharesStr,
			&costStr,
			&s.PurchaseDate,
			&s.SaleDate,
			&proceedsStr,
			&gainStr,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}

		if err := rowcodec.Decimals(
			[]string{"shares", "cost_basis", "proceeds_per_share", "realized_gain"},
			[]string{sharesStr, costStr, proceedsStr, gainStr},
			&s.Shares, &s.CostBasis, &s.ProceedsPerShare, &s.RealizedGain,
		); err != nil {
			return nil, err
		}
		s.PurchaseDate = domain.DateOf(s.PurchaseDate)
		s.SaleDate = domain.DateOf(s.SaleDate)

		sales = append(sales, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales: %w", err)
	}

	return sales, nil
}

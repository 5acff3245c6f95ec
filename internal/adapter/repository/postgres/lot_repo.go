package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/lotwise-backend/internal/adapter/repository/rowcodec"
	"github.com/simaogato/lotwise-backend/internal/domain"
)

// lotRepository implements domain.LotRepository
type lotRepository struct {
	db *DB
}

// NewLotRepository creates a new lot repository
func NewLotRepository(db *DB) domain.LotRepository {
	return &lotRepository{db: db}
}

const insertLotQuery = `
	INSERT INTO lots (id, origin_id, symbol, shares, cost_basis, purchase_date, closed, notes)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertLot(ctx context.Context, db execer, lot *domain.Lot) error {
	_, err := db.ExecContext(ctx, insertLotQuery,
		lot.ID,
		lot.OriginID,
		lot.Symbol,
		lot.Shares.String(),
		lot.CostBasis.String(),
		lot.PurchaseDate,
		lot.Closed,
		lot.Notes,
	)
	return err
}

// Create inserts a new open lot
func (r *lotRepository) Create(ctx context.Context, lot *domain.Lot) error {
	if err := insertLot(ctx, r.db, lot); err != nil {
		return fmt.Errorf("failed to insert lot: %w", err)
	}
	return nil
}

// ApplyDisposal writes the sold-from lot, the closed portion and the sale in
// one database transaction
func (r *lotRepository) ApplyDisposal(ctx context.Context, d *domain.Disposal) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	updateQuery := `
		UPDATE lots SET shares = $2, closed = $3
		WHERE id = $1 AND closed = FALSE
	`
	res, err := dbTx.ExecContext(ctx, updateQuery, d.Lot.ID, d.Lot.Shares.String(), d.Lot.Closed)
	if err != nil {
		return fmt.Errorf("failed to update lot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrUnknownLot, d.Lot.ID)
	}

	if d.ClosedPortion != nil {
		if err := insertLot(ctx, dbTx, d.ClosedPortion); err != nil {
			return fmt.Errorf("failed to insert closed lot: %w", err)
		}
	}

	insertSaleQuery := `
		INSERT INTO sales (id, lot_id, closed_lot_id, symbol, shares, cost_basis,
			purchase_date, sale_date, proceeds_per_share, realized_gain)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	s := d.Sale
	_, err = dbTx.ExecContext(ctx, insertSaleQuery,
		s.ID,
		s.LotID,
		s.ClosedLotID,
		s.Symbol,
		s.Shares.String(),
		s.CostBasis.String(),
		s.PurchaseDate,
		s.SaleDate,
		s.ProceedsPerShare.String(),
		s.RealizedGain.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateNotes replaces the notes on a lot, open or closed
func (r *lotRepository) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE lots SET notes = $2 WHERE id = $1`, id, notes)
	if err != nil {
		return fmt.Errorf("failed to update notes: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrUnknownLot, id)
	}
	return nil
}

// Delete removes an open lot that has no sales
func (r *lotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM lots
		WHERE id = $1 AND closed = FALSE
		AND NOT EXISTS (SELECT 1 FROM sales WHERE lot_id = $1)
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete lot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrUnknownLot, id)
	}
	return nil
}

// List retrieves all lots in insertion order
func (r *lotRepository) List(ctx context.Context) ([]*domain.Lot, error) {
	query := `
		SELECT id, origin_id, symbol, shares, cost_basis, purchase_date, closed, notes
		FROM lots
		ORDER BY seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query lots: %w", err)
	}
	defer rows.Close()

	var lots []*domain.Lot
	for rows.Next() {
		var lot domain.Lot
		var sharesStr, costStr string

		if err := rows.Scan(
			&lot.ID,
			&lot.OriginID,
			&lot.Symbol,
			&sharesStr,
			&costStr,
			&lot.PurchaseDate,
			&lot.Closed,
			&lot.Notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan lot: %w", err)
		}

		if err := rowcodec.Decimals([]string{"shares", "cost_basis"},
			[]string{sharesStr, costStr}, &lot.Shares, &lot.CostBasis); err != nil {
			return nil, err
		}
		lot.PurchaseDate = domain.DateOf(lot.PurchaseDate)

		lots = append(lots, &lot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lots: %w", err)
	}

	return lots, nil
}

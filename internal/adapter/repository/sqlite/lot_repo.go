package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/lotwise-backend/internal/adapter/repository/rowcodec"
	"github.com/simaogato/lotwise-backend/internal/domain"
)

// LotRepository implements domain.LotRepository and domain.SaleRepository
// over one SQLite database
type LotRepository struct {
	db *DB
}

// NewLotRepository creates a new lot repository
func NewLotRepository(db *DB) *LotRepository {
	return &LotRepository{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertLot(ctx context.Context, db execer, lot *domain.Lot) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO lots (id, origin_id, symbol, shares, cost_basis, purchase_date, closed, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		lot.ID.String(),
		lot.OriginID.String(),
		lot.Symbol,
		lot.Shares.String(),
		lot.CostBasis.String(),
		formatDate(lot.PurchaseDate),
		lot.Closed,
		lot.Notes,
	)
	return err
}

// Create inserts a new open lot
func (r *LotRepository) Create(ctx context.Context, lot *domain.Lot) error {
	if err := insertLot(ctx, r.db, lot); err != nil {
		return fmt.Errorf("failed to insert lot: %w", err)
	}
	return nil
}

// ApplyDisposal writes the sold-from lot, the closed portion and the sale in
// one database transaction
func (r *LotRepository) ApplyDisposal(ctx context.Context, d *domain.Disposal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE lots SET shares = ?, closed = ? WHERE id = ? AND closed = 0`,
		d.Lot.Shares.String(), d.Lot.Closed, d.Lot.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update lot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrUnknownLot, d.Lot.ID)
	}

	if d.ClosedPortion != nil {
		if err := insertLot(ctx, tx, d.ClosedPortion); err != nil {
			return fmt.Errorf("failed to insert closed lot: %w", err)
		}
	}

	s := d.Sale
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, lot_id, closed_lot_id, symbol, shares, cost_basis,
			purchase_date, sale_date, proceeds_per_share, realized_gain)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID.String(),
		s.LotID.String(),
		s.ClosedLotID.String(),
		s.Symbol,
		s.Shares.String(),
		s.CostBasis.String(),
		formatDate(s.PurchaseDate),
		formatDate(s.SaleDate),
		s.ProceedsPerShare.String(),
		s.RealizedGain.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateNotes replaces the notes on a lot, open or closed
func (r *LotRepository) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE lots SET notes = ? WHERE id = ?`, notes, id.String())
	if err != nil {
		return fmt.Errorf("failed to update notes: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrUnknownLot, id)
	}
	return nil
}

// Delete removes an open lot that has no sales
func (r *LotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM lots
		WHERE id = ? AND closed = 0
		AND NOT EXISTS (SELECT 1 FROM sales WHERE lot_id = ?)`, id.String(), id.String())
	if err != nil {
		return fmt.Errorf("failed to delete lot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrUnknownLot, id)
	}
	return nil
}

// List retrieves all lots in insertion order
func (r *LotRepository) List(ctx context.Context) ([]*domain.Lot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, origin_id, symbol, shares, cost_basis, purchase_date, closed, notes
		FROM lots
		ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query lots: %w", err)
	}
	defer rows.Close()

	var lots []*domain.Lot
	for rows.Next() {
		var lot domain.Lot
		var idStr, originStr, sharesStr, costStr, dateStr string

		if err := rows.Scan(&idStr, &originStr, &lot.Symbol, &sharesStr, &costStr, &dateStr, &lot.Closed, &lot.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan lot: %w", err)
		}
		if lot.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("failed to parse lot id: %w", err)
		}
		if lot.OriginID, err = uuid.Parse(originStr); err != nil {
			return nil, fmt.Errorf("failed to parse origin id: %w", err)
		}
		if err := rowcodec.Decimals([]string{"shares", "cost_basis"},
			[]string{sharesStr, costStr}, &lot.Shares, &lot.CostBasis); err != nil {
			return nil, err
		}
		if lot.PurchaseDate, err = parseDate("purchase_date", dateStr); err != nil {
			return nil, err
		}

		lots = append(lots, &lot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lots: %w", err)
	}
	return lots, nil
}

// SaleRepository returns a domain.SaleRepository over the same database
func (r *LotRepository) SaleRepository() domain.SaleRepository {
	return saleRepository{db: r.db}
}

type saleRepository struct {
	db *DB
}

// List retrieves all sales in the order they were recorded
func (r saleRepository) List(ctx context.Context) ([]*domain.Sale, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lot_id, closed_lot_id, symbol, shares, cost_basis,
			purchase_date, sale_date, proceeds_per_share, realized_gain
		FROM sales
		ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []*domain.Sale
	for rows.Next() {
		var s domain.Sale
		var id, lotID, closedID, sharesStr, costStr, purchased, sold, proceedsStr, gainStr string

		if err := rows.Scan(&id, &lotID, &closedID, &s.Symbol, &sharesStr, &costStr,
			&purchased, &sold, &proceedsStr, &gainStr); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		for _, f := range []struct {
			dst *uuid.UUID
			src string
		}{{&s.ID, id}, {&s.LotID, lotID}, {&s.ClosedLotID, closedID}} {
			if *f.dst, err = uuid.Parse(f.src); err != nil {
				return nil, fmt.Errorf("failed to parse sale id: %w", err)
			}
		}
		if err := rowcodec.Decimals(
			[]string{"shares", "cost_basis", "proceeds_per_share", "realized_gain"},
			[]string{sharesStr, costStr, proceedsStr, gainStr},
			&s.Shares, &s.CostBasis, &s.ProceedsPerShare, &s.RealizedGain,
		); err != nil {
			return nil, err
		}
		if s.PurchaseDate, err = parseDate("purchase_date", purchased); err != nil {
			return nil, err
		}
		if s.SaleDate, err = parseDate("sale_date", sold); err != nil {
			return nil, err
		}

		sales = append(sales, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales: %w", err)
	}
	return sales, nil
}

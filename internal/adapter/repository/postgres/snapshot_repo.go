package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/simaogato/lotwise-backend/internal/adapter/repository/rowcodec"
	"github.com/simaogato/lotwise-backend/internal/domain"
)

// snapshotRepository implements domain.SnapshotRepository
type snapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *DB) domain.SnapshotRepository {
	return &snapshotRepository{db: db}
}

// Add appends a valuation snapshot
func (r *snapshotRepository) Add(ctx context.Context, snapshot *domain.Snapshot) error {
	breakdown, err := rowcodec.EncodeBreakdown(snapshot.Breakdown)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO snapshots (id, taken_at, valued_on, total_value, total_cost_basis, breakdown)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.db.ExecContext(ctx, query,
		snapshot.ID,
		snapshot.Timestamp,
		snapshot.ValuationDate().Format(domain.DateLayout),
		snapshot.TotalValue.String(),
		snapshot.TotalCostBasis.String(),
		breakdown,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return nil
}

// List retrieves all snapshots ordered by timestamp ascending
func (r *snapshotRepository) List(ctx context.Context) ([]*domain.Snapshot, error) {
	query := `
		SELECT id, taken_at, valued_on, total_value, total_cost_basis, breakdown
		FROM snapshots
		ORDER BY taken_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.Snapshot
	for rows.Next() {
		var s domain.Snapshot
		var valueStr, costStr string
		var valuedOn sql.NullTime
		var breakdown []byte

		if err := rows.Scan(&s.ID, &s.Timestamp, &valuedOn, &valueStr, &costStr, &breakdown); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		if err := rowcodec.Decimals([]string{"total_value", "total_cost_basis"},
			[]string{valueStr, costStr}, &s.TotalValue, &s.TotalCostBasis); err != nil {
			return nil, err
		}
		if s.Breakdown, err = rowcodec.DecodeBreakdown(breakdown); err != nil {
			return nil, err
		}
		s.Timestamp = s.Timestamp.In(time.UTC)
		if valuedOn.Valid {
			s.Date = domain.DateOf(valuedOn.Time)
		}

		snapshots = append(snapshots, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}

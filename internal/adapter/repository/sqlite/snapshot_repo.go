package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"
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

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, taken_at, valued_on, total_value, total_cost_basis, breakdown)
		VALUES (?, ?, ?, ?, ?, ?)`,
		snapshot.ID.String(),
		formatTimestamp(snapshot.Timestamp),
		formatDate(snapshot.ValuationDate()),
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
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, taken_at, valued_on, total_value, total_cost_basis, breakdown
		FROM snapshots
		ORDER BY taken_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.Snapshot
	for rows.Next() {
		var s domain.Snapshot
		var id, takenAt, valuedOn, valueStr, costStr string
		var breakdown []byte

		if err := rows.Scan(&id, &takenAt, &valuedOn, &valueStr, &costStr, &breakdown); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if s.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot id: %w", err)
		}
		if s.Timestamp, err = parseTimestamp(takenAt); err != nil {
			return nil, err
		}
		if valuedOn != "" {
			if s.Date, err = parseDate("valued_on", valuedOn); err != nil {
				return nil, err
			}
		}
		if err := rowcodec.Decimals([]string{"total_value", "total_cost_basis"},
			[]string{valueStr, costStr}, &s.TotalValue, &s.TotalCostBasis); err != nil {
			return nil, err
		}
		if s.Breakdown, err = rowcodec.DecodeBreakdown(breakdown); err != nil {
			return nil, err
		}

		snapshots = append(snapshots, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return snapshots, nil
}

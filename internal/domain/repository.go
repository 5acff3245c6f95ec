package domain

import (
	"context"

	"github.com/google/uuid"
)

// Disposal is the set of ledger changes produced by one sale
type Disposal struct {
	// Lot is the lot that was sold from, after the sale.
	// On a full disposal it is closed and carries the Sale.
	Lot Lot
	// ClosedPortion holds the sold shares of a partial disposal. Nil on a full disposal.
	ClosedPortion *Lot
	Sale          Sale
}

// LotRepository defines the interface for lot persistence operations
type LotRepository interface {
	// Create creates a new open lot
	Create(ctx context.Context, lot *Lot) error

	// ApplyDisposal persists a sale atomically: the updated lot, the closed
	// portion (if any) and the sale record
	ApplyDisposal(ctx context.Context, disposal *Disposal) error

	// UpdateNotes replaces the notes on a lot
	UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error

	// Delete removes an open lot that was never sold from
	Delete(ctx context.Context, id uuid.UUID) error

	// List retrieves all lots, open and closed, in insertion order
	List(ctx context.Context) ([]*Lot, error)
}

// SaleRepository defines the interface for sale persistence operations
type SaleRepository interface {
	// List retrieves all sales in insertion order
	List(ctx context.Context) ([]*Sale, error)
}

// SnapshotRepository defines the interface for snapshot persistence operations
// Snapshots are never updated or deleted through this interface
type SnapshotRepository interface {
	// Add appends a snapshot
	Add(ctx context.Context, snapshot *Snapshot) error

	// List retrieves all snapshots ordered by timestamp ascending
	List(ctx context.Context) ([]*Snapshot, error)
}

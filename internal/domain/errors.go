package domain

import "errors"

// Ledger errors are caller-correctable input errors. They are always wrapped
// with detail, so compare with errors.Is.
var (
	// ErrInvalidLot is returned for a malformed buy (empty symbol, non-positive
	// shares, negative cost basis, purchase date in the future)
	ErrInvalidLot = errors.New("invalid lot")

	// ErrUnknownLot is returned when an operation references a lot id that does
	// not exist or is no longer open
	ErrUnknownLot = errors.New("lot not found")

	// ErrOverDisposal is returned when a sale asks for more shares than the lot holds
	ErrOverDisposal = errors.New("disposal exceeds open shares")

	// ErrInvalidSale is returned for a sale dated before the purchase, dated in
	// the future, or with a non-positive share count or negative proceeds
	ErrInvalidSale = errors.New("invalid sale")
)

// Analytics and history errors.
var (
	// ErrNoQuote means no price is available for a symbol. Reports degrade that
	// symbol's rows to "unavailable" instead of failing.
	ErrNoQuote = errors.New("quote not found")

	// ErrSnapshotOrder is returned when a snapshot is not strictly later than
	// the latest recorded one
	ErrSnapshotOrder = errors.New("snapshot timestamp must be after the latest snapshot")

	// ErrNoSnapshot is returned when no snapshot exists at or before a requested time
	ErrNoSnapshot = errors.New("no snapshot at or before requested time")

	// ErrLedgerChanged is returned when lots kept changing while a snapshot was
	// being valued
	ErrLedgerChanged = errors.New("ledger changed during valuation")

	// ErrInvalidInterval is returned when an interval ends before it starts
	ErrInvalidInterval = errors.New("interval end precedes start")
)

package ledger

import "errors"

// Sentinel errors surfaced by entry mutators. The application layer maps
// these onto the API error taxonomy.
var (
	// ErrInsufficientQuota means the mutation would overdraw the entry's
	// available quota.
	ErrInsufficientQuota = errors.New("insufficient available quota")

	// ErrEntryNotActive means the entry cannot be consumed or allocated
	// from in its current status.
	ErrEntryNotActive = errors.New("ledger entry is not active")

	// ErrInvalidAmount means the requested amount is not positive.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Package invitation defines the shareable invitation code and the
// redemption record written when an end user signs up through one.
package invitation

import (
	"fmt"
	"time"
)

// CodeStatus represents the invitation code state.
type CodeStatus string

const (
	CodeStatusActive   CodeStatus = "active"
	CodeStatusInactive CodeStatus = "inactive"
)

// Code represents a partner-owned shareable invitation token. A code is
// active only while it points at a ledger entry that can be drawn from.
type Code struct {
	id                   uint
	code                 string
	ownerPartnerID       uint
	currentLedgerEntryID *uint
	status               CodeStatus
	totalCumulativeUses  int64
	version              int
	createdAt            time.Time
	updatedAt            time.Time
}

// NewCode creates an inactive code for a partner. Codes start inactive and
// are pointed at a ledger entry through Activate once quota exists.
func NewCode(code string, ownerPartnerID uint) (*Code, error) {
	if code == "" {
		return nil, fmt.Errorf("code token is required")
	}
	if ownerPartnerID == 0 {
		return nil, fmt.Errorf("owner partner ID is required")
	}

	now := time.Now().UTC()
	return &Code{
		code:           code,
		ownerPartnerID: ownerPartnerID,
		status:         CodeStatusInactive,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructCode rebuilds a code from persistence.
func ReconstructCode(
	id uint,
	code string,
	ownerPartnerID uint,
	currentLedgerEntryID *uint,
	status CodeStatus,
	totalCumulativeUses int64,
	version int,
	createdAt, updatedAt time.Time,
) (*Code, error) {
	if id == 0 {
		return nil, fmt.Errorf("code ID cannot be zero")
	}
	if code == "" {
		return nil, fmt.Errorf("code token is required")
	}
	if status != CodeStatusActive && status != CodeStatusInactive {
		return nil, fmt.Errorf("invalid code status: %s", status)
	}
	if status == CodeStatusActive && currentLedgerEntryID == nil {
		return nil, fmt.Errorf("active code %s has no ledger entry", code)
	}

	return &Code{
		id:                   id,
		code:                 code,
		ownerPartnerID:       ownerPartnerID,
		currentLedgerEntryID: currentLedgerEntryID,
		status:               status,
		totalCumulativeUses:  totalCumulativeUses,
		version:              version,
		createdAt:            createdAt,
		updatedAt:            updatedAt,
	}, nil
}

// ID returns the code ID
func (c *Code) ID() uint { return c.id }

// Value returns the shareable token itself
func (c *Code) Value() string { return c.code }

// OwnerPartnerID returns the owning partner's ID
func (c *Code) OwnerPartnerID() uint { return c.ownerPartnerID }

// CurrentLedgerEntryID returns the entry the code currently draws from
func (c *Code) CurrentLedgerEntryID() *uint { return c.currentLedgerEntryID }

// Status returns the code status
func (c *Code) Status() CodeStatus { return c.status }

// TotalCumulativeUses returns the lifetime redemption count
func (c *Code) TotalCumulativeUses() int64 { return c.totalCumulativeUses }

// Version returns the aggregate version for optimistic locking
func (c *Code) Version() int { return c.version }

// CreatedAt returns when the code was created
func (c *Code) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns when the code was last updated
func (c *Code) UpdatedAt() time.Time { return c.updatedAt }

// SetID sets the code ID (only for persistence layer use)
func (c *Code) SetID(id uint) error {
	if c.id != 0 {
		return fmt.Errorf("code ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("code ID cannot be zero")
	}
	c.id = id
	return nil
}

// touch refreshes the update timestamp; the version stays at the loaded
// value for the repository's check-and-set.
func (c *Code) touch() {
	c.updatedAt = time.Now().UTC()
}

// IsActive reports whether the code can currently be redeemed.
func (c *Code) IsActive() bool {
	return c.status == CodeStatusActive
}

// Activate points the code at a ledger entry and marks it redeemable.
func (c *Code) Activate(ledgerEntryID uint) error {
	if ledgerEntryID == 0 {
		return fmt.Errorf("ledger entry ID is required")
	}

	entryID := ledgerEntryID
	c.currentLedgerEntryID = &entryID
	c.status = CodeStatusActive
	c.touch()
	return nil
}

// Deactivate detaches the code from its entry. Redemptions against an
// inactive code are rejected until the partner re-activates.
func (c *Code) Deactivate() {
	if c.status == CodeStatusInactive && c.currentLedgerEntryID == nil {
		return
	}
	c.status = CodeStatusInactive
	c.currentLedgerEntryID = nil
	c.touch()
}

// RecordUse increments the lifetime redemption counter.
func (c *Code) RecordUse() {
	c.totalCumulativeUses++
	c.touch()
}

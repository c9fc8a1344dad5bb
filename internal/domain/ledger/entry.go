// Package ledger defines the quota ledger entry aggregate, the unit of
// accounting for trial-invitation quota. An entry is held by one partner
// and sourced either from a campaign (root entries) or from a parent
// partner's entry (derived entries).
//
// The conservation invariant is local to each entry:
//
//	0 <= consumedByOwnInvites + allocatedToChildren <= totalAllocated
//
// and is enforced by every mutator. Cross-entry bookkeeping (a parent's
// allocatedToChildren matching its children's totals) is the allocation
// use cases' responsibility, inside one storage transaction.
package ledger

import (
	"fmt"
	"time"
)

// Status represents the ledger entry lifecycle state.
type Status string

const (
	// StatusActive means the entry can be consumed and allocated from.
	StatusActive Status = "active"
	// StatusExhausted means available quota reached zero; flips back to
	// active when a revocation frees quota.
	StatusExhausted Status = "exhausted"
	// StatusExpired means the owning campaign is no longer usable.
	StatusExpired Status = "expired"
	// StatusPaused means the entry was revoked down to zero total; kept as
	// audit history, never deleted.
	StatusPaused Status = "paused"
)

// ValidStatuses enumerates every acceptable status value.
var ValidStatuses = map[Status]bool{
	StatusActive:    true,
	StatusExhausted: true,
	StatusExpired:   true,
	StatusPaused:    true,
}

// Entry represents the ledger entry aggregate root.
type Entry struct {
	id                   uint
	sid                  string
	partnerID            uint
	sourceCampaignID     uint
	sourceParentEntryID  *uint
	allocatedByPartnerID *uint
	totalAllocated       int64
	consumedByOwnInvites int64
	allocatedToChildren  int64
	status               Status
	version              int
	createdAt            time.Time
	updatedAt            time.Time
}

// NewRootEntry creates the root entry for a campaign grant. Root entries
// have no parent entry and are allocated by the central authority.
func NewRootEntry(sid string, partnerID, campaignID uint, amount int64) (*Entry, error) {
	if sid == "" {
		return nil, fmt.Errorf("entry SID is required")
	}
	if partnerID == 0 {
		return nil, fmt.Errorf("partner ID is required")
	}
	if campaignID == 0 {
		return nil, fmt.Errorf("campaign ID is required")
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	now := time.Now().UTC()
	return &Entry{
		sid:              sid,
		partnerID:        partnerID,
		sourceCampaignID: campaignID,
		totalAllocated:   amount,
		status:           StatusActive,
		version:          1,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// NewChildEntry creates a derived entry sourced from a parent entry.
func NewChildEntry(sid string, partnerID, campaignID, parentEntryID, allocatedByPartnerID uint, amount int64) (*Entry, error) {
	if sid == "" {
		return nil, fmt.Errorf("entry SID is required")
	}
	if partnerID == 0 {
		return nil, fmt.Errorf("partner ID is required")
	}
	if campaignID == 0 {
		return nil, fmt.Errorf("campaign ID is required")
	}
	if parentEntryID == 0 {
		return nil, fmt.Errorf("parent entry ID is required")
	}
	if allocatedByPartnerID == 0 {
		return nil, fmt.Errorf("allocating partner ID is required")
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	now := time.Now().UTC()
	parentID := parentEntryID
	allocatedBy := allocatedByPartnerID
	return &Entry{
		sid:                  sid,
		partnerID:            partnerID,
		sourceCampaignID:     campaignID,
		sourceParentEntryID:  &parentID,
		allocatedByPartnerID: &allocatedBy,
		totalAllocated:       amount,
		status:               StatusActive,
		version:              1,
		createdAt:            now,
		updatedAt:            now,
	}, nil
}

// ReconstructEntry rebuilds an entry from persistence.
func ReconstructEntry(
	id uint,
	sid string,
	partnerID, sourceCampaignID uint,
	sourceParentEntryID, allocatedByPartnerID *uint,
	totalAllocated, consumedByOwnInvites, allocatedToChildren int64,
	status Status,
	version int,
	createdAt, updatedAt time.Time,
) (*Entry, error) {
	if id == 0 {
		return nil, fmt.Errorf("entry ID cannot be zero")
	}
	if sid == "" {
		return nil, fmt.Errorf("entry SID is required")
	}
	if partnerID == 0 {
		return nil, fmt.Errorf("partner ID is required")
	}
	if sourceCampaignID == 0 {
		return nil, fmt.Errorf("campaign ID is required")
	}
	if !ValidStatuses[status] {
		return nil, fmt.Errorf("invalid entry status: %s", status)
	}
	if consumedByOwnInvites < 0 || allocatedToChildren < 0 {
		return nil, fmt.Errorf("negative counters on entry %s", sid)
	}
	if consumedByOwnInvites+allocatedToChildren > totalAllocated {
		return nil, fmt.Errorf("conservation violated on entry %s: consumed %d + delegated %d > total %d",
			sid, consumedByOwnInvites, allocatedToChildren, totalAllocated)
	}

	return &Entry{
		id:                   id,
		sid:                  sid,
		partnerID:            partnerID,
		sourceCampaignID:     sourceCampaignID,
		sourceParentEntryID:  sourceParentEntryID,
		allocatedByPartnerID: allocatedByPartnerID,
		totalAllocated:       totalAllocated,
		consumedByOwnInvites: consumedByOwnInvites,
		allocatedToChildren:  allocatedToChildren,
		status:               status,
		version:              version,
		createdAt:            createdAt,
		updatedAt:            updatedAt,
	}, nil
}

// ID returns the entry ID
func (e *Entry) ID() uint { return e.id }

// SID returns the external identifier (le_xxx)
func (e *Entry) SID() string { return e.sid }

// PartnerID returns the holding partner's ID
func (e *Entry) PartnerID() uint { return e.partnerID }

// SourceCampaignID returns the originating campaign's ID
func (e *Entry) SourceCampaignID() uint { return e.sourceCampaignID }

// SourceParentEntryID returns the parent entry's ID, nil for root entries
func (e *Entry) SourceParentEntryID() *uint { return e.sourceParentEntryID }

// AllocatedByPartnerID returns the granting partner's ID, nil for root entries
func (e *Entry) AllocatedByPartnerID() *uint { return e.allocatedByPartnerID }

// TotalAllocated returns the quota granted into this entry
func (e *Entry) TotalAllocated() int64 { return e.totalAllocated }

// ConsumedByOwnInvites returns quota spent through the holder's own codes
func (e *Entry) ConsumedByOwnInvites() int64 { return e.consumedByOwnInvites }

// AllocatedToChildren returns quota delegated further down the tree
func (e *Entry) AllocatedToChildren() int64 { return e.allocatedToChildren }

// Status returns the entry status
func (e *Entry) Status() Status { return e.status }

// Version returns the aggregate version for optimistic locking
func (e *Entry) Version() int { return e.version }

// CreatedAt returns when the entry was created
func (e *Entry) CreatedAt() time.Time { return e.createdAt }

// UpdatedAt returns when the entry was last updated
func (e *Entry) UpdatedAt() time.Time { return e.updatedAt }

// SetID sets the entry ID (only for persistence layer use)
func (e *Entry) SetID(id uint) error {
	if e.id != 0 {
		return fmt.Errorf("entry ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("entry ID cannot be zero")
	}
	e.id = id
	return nil
}

// IsRoot reports whether the entry was sourced directly from a campaign.
func (e *Entry) IsRoot() bool {
	return e.sourceParentEntryID == nil
}

// AvailableQuota returns quota neither consumed nor delegated.
func (e *Entry) AvailableQuota() int64 {
	return e.totalAllocated - e.consumedByOwnInvites - e.allocatedToChildren
}

// IsActive reports whether the entry can be drawn from.
func (e *Entry) IsActive() bool {
	return e.status == StatusActive
}

// touch refreshes the update timestamp. The version is not bumped here;
// it stays at the loaded value so the repository's check-and-set can
// compare against it, incrementing on successful write.
func (e *Entry) touch() {
	e.updatedAt = time.Now().UTC()
}

// settleStatus flips between active and exhausted based on available quota.
// Paused and expired are sticky and only left by explicit transitions.
func (e *Entry) settleStatus() {
	switch e.status {
	case StatusActive:
		if e.AvailableQuota() == 0 {
			e.status = StatusExhausted
		}
	case StatusExhausted:
		if e.AvailableQuota() > 0 {
			e.status = StatusActive
		}
	}
}

// AllocateToChild reserves amount for delegation to a child entry. The
// caller must create the matching child entry in the same transaction.
func (e *Entry) AllocateToChild(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if e.status == StatusExhausted {
		return fmt.Errorf("%w: entry %s is exhausted", ErrInsufficientQuota, e.sid)
	}
	if e.status != StatusActive {
		return fmt.Errorf("%w: status %s", ErrEntryNotActive, e.status)
	}
	if e.AvailableQuota() < amount {
		return fmt.Errorf("%w: available %d, requested %d", ErrInsufficientQuota, e.AvailableQuota(), amount)
	}

	e.allocatedToChildren += amount
	e.settleStatus()
	e.touch()
	return nil
}

// Consume spends one unit through the holder's own invitation code. The
// caller must insert the matching redemption record in the same transaction.
func (e *Entry) Consume() error {
	if e.status == StatusExhausted {
		return fmt.Errorf("%w: entry %s is exhausted", ErrInsufficientQuota, e.sid)
	}
	if e.status != StatusActive {
		return fmt.Errorf("%w: status %s", ErrEntryNotActive, e.status)
	}
	if e.AvailableQuota() < 1 {
		return fmt.Errorf("%w: entry %s has no available quota", ErrInsufficientQuota, e.sid)
	}

	e.consumedByOwnInvites++
	e.settleStatus()
	e.touch()
	return nil
}

// Revoke reclaims amount of this entry's own available quota (the child
// side of a revocation). Quota already consumed or re-delegated is out of
// reach. Revoked-to-zero entries pause and remain as audit history.
func (e *Entry) Revoke(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if e.status != StatusActive && e.status != StatusExhausted {
		return fmt.Errorf("%w: status %s", ErrEntryNotActive, e.status)
	}
	if e.AvailableQuota() < amount {
		return fmt.Errorf("%w: available %d, requested %d", ErrInsufficientQuota, e.AvailableQuota(), amount)
	}

	e.totalAllocated -= amount
	if e.totalAllocated == 0 {
		e.status = StatusPaused
	} else {
		e.settleStatus()
	}
	e.touch()
	return nil
}

// ReclaimFromChild returns previously delegated quota to this entry (the
// parent side of a revocation). An exhausted parent reactivates when the
// reclaim frees quota.
func (e *Entry) ReclaimFromChild(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > e.allocatedToChildren {
		return fmt.Errorf("cannot reclaim %d, only %d delegated", amount, e.allocatedToChildren)
	}

	e.allocatedToChildren -= amount
	e.settleStatus()
	e.touch()
	return nil
}

// MarkExpired forces the entry out of circulation when its campaign is
// deactivated or expires. Paused audit entries stay paused.
func (e *Entry) MarkExpired() {
	if e.status == StatusExpired || e.status == StatusPaused {
		return
	}
	e.status = StatusExpired
	e.touch()
}

// Reactivate returns an expired entry to circulation when its campaign is
// re-activated. Entries with no remaining quota settle to exhausted.
func (e *Entry) Reactivate() error {
	if e.status != StatusExpired {
		return fmt.Errorf("cannot reactivate entry with status %s", e.status)
	}
	if e.AvailableQuota() > 0 {
		e.status = StatusActive
	} else {
		e.status = StatusExhausted
	}
	e.touch()
	return nil
}

// IncreaseTotal grows the entry's total (campaign top-up mirrored onto the
// root entry).
func (e *Entry) IncreaseTotal(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !e.IsRoot() {
		return fmt.Errorf("only root entries can be topped up")
	}

	e.totalAllocated += amount
	e.settleStatus()
	e.touch()
	return nil
}

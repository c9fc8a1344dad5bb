package ledger

import (
	"context"
)

// Repository persists ledger entries. Entries are never physically deleted;
// revoked-to-zero entries remain as paused audit history.
//
// Update performs an optimistic version check-and-set: the row is written
// only if its stored version matches the aggregate's pre-mutation version.
// A stale version must surface as a transaction-aborted error so the
// calling use case can retry the whole operation.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, id uint) (*Entry, error)
	GetBySID(ctx context.Context, sid string) (*Entry, error)
	Update(ctx context.Context, entry *Entry) error

	// GetRootByCampaignID returns the campaign's root entry, nil if not
	// yet granted.
	GetRootByCampaignID(ctx context.Context, campaignID uint) (*Entry, error)

	// GetByPartnerID returns all entries held by a partner, oldest first.
	GetByPartnerID(ctx context.Context, partnerID uint) ([]*Entry, error)

	// GetActiveByPartnerID returns the partner's entries with status
	// active and available quota, ordered by creation time ascending so
	// callers drain the oldest grant first.
	GetActiveByPartnerID(ctx context.Context, partnerID uint) ([]*Entry, error)

	// GetChildrenOf returns entries sourced from the given parent entry.
	GetChildrenOf(ctx context.Context, parentEntryID uint) ([]*Entry, error)

	// GetByCampaignID returns every entry tracing to a campaign, for the
	// status cascade.
	GetByCampaignID(ctx context.Context, campaignID uint) ([]*Entry, error)

	// GetByPartnerIDs returns entries held by any of the given partners,
	// used by subtree aggregation.
	GetByPartnerIDs(ctx context.Context, partnerIDs []uint) ([]*Entry, error)

	// ListAllocations returns derived entries granted by one partner to
	// another, newest first, for allocation history.
	ListAllocations(ctx context.Context, allocatedByPartnerID, holderPartnerID uint) ([]*Entry, error)
}

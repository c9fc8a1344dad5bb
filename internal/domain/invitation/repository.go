package invitation

import (
	"context"
	"time"
)

// CodeRepository persists invitation codes.
type CodeRepository interface {
	Create(ctx context.Context, code *Code) error
	GetByID(ctx context.Context, id uint) (*Code, error)
	GetByValue(ctx context.Context, value string) (*Code, error)
	Update(ctx context.Context, code *Code) error

	// GetByPartnerID returns all codes owned by a partner.
	GetByPartnerID(ctx context.Context, partnerID uint) ([]*Code, error)

	// GetByLedgerEntryID returns the codes currently pointing at an entry,
	// for the deactivation cascades.
	GetByLedgerEntryID(ctx context.Context, ledgerEntryID uint) ([]*Code, error)

	// GetByLedgerEntryIDs is the batch variant used by the campaign
	// status cascade.
	GetByLedgerEntryIDs(ctx context.Context, ledgerEntryIDs []uint) ([]*Code, error)
}

// RedemptionRepository persists redemption records.
type RedemptionRepository interface {
	Create(ctx context.Context, redemption *Redemption) error
	GetByID(ctx context.Context, id uint) (*Redemption, error)
	GetBySID(ctx context.Context, sid string) (*Redemption, error)
	Update(ctx context.Context, redemption *Redemption) error

	// GetByInvitedUserID returns a prior redemption by the same end user,
	// nil when the user has not redeemed before.
	GetByInvitedUserID(ctx context.Context, invitedUserID uint) (*Redemption, error)

	// CountStats returns invitation and conversion totals for the given
	// partners, optionally restricted by campaign and time window.
	CountStats(ctx context.Context, filter StatsFilter) (invitations int64, conversions int64, err error)

	List(ctx context.Context, filter ListFilter) ([]*Redemption, int64, error)
}

// StatsFilter scopes redemption aggregation.
type StatsFilter struct {
	InviterPartnerIDs []uint
	RootCampaignID    *uint
	From              *time.Time
	To                *time.Time
}

// ListFilter narrows redemption listings.
type ListFilter struct {
	InviterPartnerID *uint
	RootCampaignID   *uint
	Page             int
	PageSize         int
}

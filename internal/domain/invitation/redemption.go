package invitation

import (
	"fmt"
	"time"
)

// Redemption records one end-user signup through an invitation code. It is
// the only action that consumes quota from a ledger entry; the two writes
// happen in one storage transaction.
type Redemption struct {
	id               uint
	sid              string
	invitedUserID    uint
	inviterPartnerID uint
	invitationCodeID uint
	ledgerEntryID    uint
	rootCampaignID   uint
	didRenew         bool
	renewedAt        *time.Time
	redeemedAt       time.Time
	createdAt        time.Time
	updatedAt        time.Time
}

// NewRedemption creates a redemption record.
func NewRedemption(sid string, invitedUserID, inviterPartnerID, invitationCodeID, ledgerEntryID, rootCampaignID uint) (*Redemption, error) {
	if sid == "" {
		return nil, fmt.Errorf("redemption SID is required")
	}
	if invitedUserID == 0 {
		return nil, fmt.Errorf("invited user ID is required")
	}
	if inviterPartnerID == 0 {
		return nil, fmt.Errorf("inviter partner ID is required")
	}
	if invitationCodeID == 0 {
		return nil, fmt.Errorf("invitation code ID is required")
	}
	if ledgerEntryID == 0 {
		return nil, fmt.Errorf("ledger entry ID is required")
	}
	if rootCampaignID == 0 {
		return nil, fmt.Errorf("root campaign ID is required")
	}

	now := time.Now().UTC()
	return &Redemption{
		sid:              sid,
		invitedUserID:    invitedUserID,
		inviterPartnerID: inviterPartnerID,
		invitationCodeID: invitationCodeID,
		ledgerEntryID:    ledgerEntryID,
		rootCampaignID:   rootCampaignID,
		redeemedAt:       now,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// ReconstructRedemption rebuilds a redemption from persistence.
func ReconstructRedemption(
	id uint,
	sid string,
	invitedUserID, inviterPartnerID, invitationCodeID, ledgerEntryID, rootCampaignID uint,
	didRenew bool,
	renewedAt *time.Time,
	redeemedAt, createdAt, updatedAt time.Time,
) (*Redemption, error) {
	if id == 0 {
		return nil, fmt.Errorf("redemption ID cannot be zero")
	}
	if sid == "" {
		return nil, fmt.Errorf("redemption SID is required")
	}

	return &Redemption{
		id:               id,
		sid:              sid,
		invitedUserID:    invitedUserID,
		inviterPartnerID: inviterPartnerID,
		invitationCodeID: invitationCodeID,
		ledgerEntryID:    ledgerEntryID,
		rootCampaignID:   rootCampaignID,
		didRenew:         didRenew,
		renewedAt:        renewedAt,
		redeemedAt:       redeemedAt,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}, nil
}

// ID returns the redemption ID
func (r *Redemption) ID() uint { return r.id }

// SID returns the external identifier (red_xxx)
func (r *Redemption) SID() string { return r.sid }

// InvitedUserID returns the end user who redeemed
func (r *Redemption) InvitedUserID() uint { return r.invitedUserID }

// InviterPartnerID returns the partner whose code was used
func (r *Redemption) InviterPartnerID() uint { return r.inviterPartnerID }

// InvitationCodeID returns the code used
func (r *Redemption) InvitationCodeID() uint { return r.invitationCodeID }

// LedgerEntryID returns the entry the unit was drawn from
func (r *Redemption) LedgerEntryID() uint { return r.ledgerEntryID }

// RootCampaignID returns the originating campaign, for downstream linkage
func (r *Redemption) RootCampaignID() uint { return r.rootCampaignID }

// DidRenew reports whether the invited user converted
func (r *Redemption) DidRenew() bool { return r.didRenew }

// RenewedAt returns when the conversion happened, nil if it has not
func (r *Redemption) RenewedAt() *time.Time { return r.renewedAt }

// RedeemedAt returns when the redemption happened
func (r *Redemption) RedeemedAt() time.Time { return r.redeemedAt }

// CreatedAt returns when the record was created
func (r *Redemption) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns when the record was last updated
func (r *Redemption) UpdatedAt() time.Time { return r.updatedAt }

// SetID sets the redemption ID (only for persistence layer use)
func (r *Redemption) SetID(id uint) error {
	if r.id != 0 {
		return fmt.Errorf("redemption ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("redemption ID cannot be zero")
	}
	r.id = id
	return nil
}

// MarkConverted records that the invited user renewed into a paying
// subscription. Idempotent.
func (r *Redemption) MarkConverted() {
	if r.didRenew {
		return
	}
	now := time.Now().UTC()
	r.didRenew = true
	r.renewedAt = &now
	r.updatedAt = now
}

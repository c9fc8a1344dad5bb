package models

import (
	"time"

	"github.com/trellis-inc/trellis/internal/shared/constants"
)

// RedemptionModel represents the database persistence model for redemptions.
// The unique index on InvitedUserID is the database-level backstop for the
// one-redemption-per-user rule.
type RedemptionModel struct {
	ID               uint   `gorm:"primarykey"`
	SID              string `gorm:"not null;size:16;uniqueIndex:idx_redemption_sid"`
	InvitedUserID    uint   `gorm:"not null;uniqueIndex:idx_redemption_user"`
	InviterPartnerID uint   `gorm:"not null;index:idx_redemption_inviter"`
	InvitationCodeID uint   `gorm:"not null;index:idx_redemption_code"`
	LedgerEntryID    uint   `gorm:"not null;index:idx_redemption_entry"`
	RootCampaignID   uint   `gorm:"not null;index:idx_redemption_campaign"`
	DidRenew         bool   `gorm:"not null;default:false"`
	RenewedAt        *time.Time
	RedeemedAt       time.Time `gorm:"not null;index:idx_redemption_redeemed_at"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName specifies the table name for GORM.
func (RedemptionModel) TableName() string {
	return constants.TableRedemptions
}

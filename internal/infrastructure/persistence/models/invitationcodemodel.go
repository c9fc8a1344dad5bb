package models

import (
	"time"

	"github.com/trellis-inc/trellis/internal/shared/constants"
)

// InvitationCodeModel represents the database persistence model for
// invitation codes.
type InvitationCodeModel struct {
	ID                   uint   `gorm:"primarykey"`
	Code                 string `gorm:"not null;size:32;uniqueIndex:idx_code_value"`
	OwnerPartnerID       uint   `gorm:"not null;index:idx_code_partner"`
	CurrentLedgerEntryID *uint  `gorm:"index:idx_code_entry"`
	Status               string `gorm:"not null;size:20"`
	TotalCumulativeUses  int64  `gorm:"not null;default:0"`
	Version              int    `gorm:"not null;default:0"` // optimistic lock
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TableName specifies the table name for GORM.
func (InvitationCodeModel) TableName() string {
	return constants.TableInvitationCodes
}

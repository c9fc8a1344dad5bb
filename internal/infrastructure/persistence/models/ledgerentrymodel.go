package models

import (
	"time"

	"github.com/trellis-inc/trellis/internal/shared/constants"
)

// LedgerEntryModel represents the database persistence model for quota
// ledger entries. Conservation is enforced in the domain layer; the model
// stores the three counters verbatim.
type LedgerEntryModel struct {
	ID                   uint   `gorm:"primarykey"`
	SID                  string `gorm:"not null;size:16;uniqueIndex:idx_entry_sid"`
	PartnerID            uint   `gorm:"not null;index:idx_entry_partner"`
	SourceCampaignID     uint   `gorm:"not null;index:idx_entry_campaign"`
	SourceParentEntryID  *uint  `gorm:"index:idx_entry_parent"`
	AllocatedByPartnerID *uint  `gorm:"index:idx_entry_allocated_by"`
	TotalAllocated       int64  `gorm:"not null"`
	ConsumedByOwnInvites int64  `gorm:"not null;default:0"`
	AllocatedToChildren  int64  `gorm:"not null;default:0"`
	Status               string `gorm:"not null;size:20;index:idx_entry_status"`
	Version              int    `gorm:"not null;default:0"` // optimistic lock
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TableName specifies the table name for GORM.
func (LedgerEntryModel) TableName() string {
	return constants.TableLedgerEntries
}

package models

import (
	"time"

	"github.com/trellis-inc/trellis/internal/shared/constants"
)

// CampaignModel represents the database persistence model for campaigns.
type CampaignModel struct {
	ID                 uint   `gorm:"primarykey"`
	SID                string `gorm:"not null;size:16;uniqueIndex:idx_campaign_sid"`
	OwnerPartnerID     uint   `gorm:"not null;index:idx_campaign_owner"`
	TotalAllocated     int64  `gorm:"not null"`
	RenewalRequirement int64  `gorm:"not null;default:0"`
	Status             string `gorm:"not null;size:20;index:idx_campaign_status"`
	StartDate          time.Time
	EndDate            time.Time
	Version            int `gorm:"not null;default:0"` // optimistic lock
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName specifies the table name for GORM.
func (CampaignModel) TableName() string {
	return constants.TableCampaigns
}

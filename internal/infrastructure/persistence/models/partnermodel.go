package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/trellis-inc/trellis/internal/shared/constants"
)

// PartnerModel represents the database persistence model for partner nodes.
type PartnerModel struct {
	ID       uint   `gorm:"primarykey"`
	SID      string `gorm:"not null;size:16;uniqueIndex:idx_partner_sid"` // external API identifier
	Name     string `gorm:"not null;size:100"`
	ParentID *uint  `gorm:"index:idx_partner_parent_id"`
	Level    int    `gorm:"not null;default:0;index:idx_partner_level"`
	// AncestorPath is the materialized root-to-parent ID chain, used for
	// subtree containment queries.
	AncestorPath datatypes.JSON `gorm:"type:json"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name for GORM.
func (PartnerModel) TableName() string {
	return constants.TablePartners
}

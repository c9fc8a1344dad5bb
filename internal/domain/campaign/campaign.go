// Package campaign defines the root-level quota grant aggregate. A campaign
// is issued by the central authority to one top-level partner and caps the
// total quota that may ever flow through its ledger tree.
package campaign

import (
	"fmt"
	"time"
)

// Status represents the campaign lifecycle state.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusExpired  Status = "expired"
	StatusDeleted  Status = "deleted"
)

// ValidStatuses enumerates every acceptable status value.
var ValidStatuses = map[Status]bool{
	StatusActive:   true,
	StatusInactive: true,
	StatusExpired:  true,
	StatusDeleted:  true,
}

// CanTransitionTo reports whether the lifecycle allows moving to target.
// Deleted is terminal; expired campaigns may only be deleted.
func (s Status) CanTransitionTo(target Status) bool {
	if s == target {
		return true
	}
	switch s {
	case StatusActive:
		return target == StatusInactive || target == StatusExpired || target == StatusDeleted
	case StatusInactive:
		return target == StatusActive || target == StatusExpired || target == StatusDeleted
	case StatusExpired:
		return target == StatusDeleted
	default:
		return false
	}
}

// Campaign represents the campaign aggregate root.
type Campaign struct {
	id                 uint
	sid                string
	ownerPartnerID     uint
	totalAllocated     int64
	renewalRequirement int64
	status             Status
	startDate          time.Time
	endDate            time.Time
	version            int
	createdAt          time.Time
	updatedAt          time.Time
}

// NewCampaign creates a new campaign grant.
func NewCampaign(sid string, ownerPartnerID uint, totalAllocated int64, startDate, endDate time.Time, renewalRequirement int64) (*Campaign, error) {
	if sid == "" {
		return nil, fmt.Errorf("campaign SID is required")
	}
	if ownerPartnerID == 0 {
		return nil, fmt.Errorf("owner partner ID is required")
	}
	if totalAllocated <= 0 {
		return nil, fmt.Errorf("total allocated must be positive")
	}
	if renewalRequirement < 0 {
		return nil, fmt.Errorf("renewal requirement cannot be negative")
	}
	if !endDate.After(startDate) {
		return nil, fmt.Errorf("end date must be after start date")
	}

	now := time.Now().UTC()
	return &Campaign{
		sid:                sid,
		ownerPartnerID:     ownerPartnerID,
		totalAllocated:     totalAllocated,
		renewalRequirement: renewalRequirement,
		status:             StatusActive,
		startDate:          startDate,
		endDate:            endDate,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// ReconstructCampaign rebuilds a campaign from persistence.
func ReconstructCampaign(
	id uint,
	sid string,
	ownerPartnerID uint,
	totalAllocated, renewalRequirement int64,
	status Status,
	startDate, endDate time.Time,
	version int,
	createdAt, updatedAt time.Time,
) (*Campaign, error) {
	if id == 0 {
		return nil, fmt.Errorf("campaign ID cannot be zero")
	}
	if sid == "" {
		return nil, fmt.Errorf("campaign SID is required")
	}
	if ownerPartnerID == 0 {
		return nil, fmt.Errorf("owner partner ID is required")
	}
	if !ValidStatuses[status] {
		return nil, fmt.Errorf("invalid campaign status: %s", status)
	}

	return &Campaign{
		id:                 id,
		sid:                sid,
		ownerPartnerID:     ownerPartnerID,
		totalAllocated:     totalAllocated,
		renewalRequirement: renewalRequirement,
		status:             status,
		startDate:          startDate,
		endDate:            endDate,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}, nil
}

// ID returns the campaign ID
func (c *Campaign) ID() uint { return c.id }

// SID returns the external identifier (cmp_xxx)
func (c *Campaign) SID() string { return c.sid }

// OwnerPartnerID returns the top-level partner the grant was issued to
func (c *Campaign) OwnerPartnerID() uint { return c.ownerPartnerID }

// TotalAllocated returns the campaign quota ceiling
func (c *Campaign) TotalAllocated() int64 { return c.totalAllocated }

// RenewalRequirement returns the conversion threshold attached to the grant
func (c *Campaign) RenewalRequirement() int64 { return c.renewalRequirement }

// Status returns the campaign status
func (c *Campaign) Status() Status { return c.status }

// StartDate returns the campaign start date
func (c *Campaign) StartDate() time.Time { return c.startDate }

// EndDate returns the campaign end date
func (c *Campaign) EndDate() time.Time { return c.endDate }

// Version returns the aggregate version for optimistic locking
func (c *Campaign) Version() int { return c.version }

// CreatedAt returns when the campaign was created
func (c *Campaign) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns when the campaign was last updated
func (c *Campaign) UpdatedAt() time.Time { return c.updatedAt }

// SetID sets the campaign ID (only for persistence layer use)
func (c *Campaign) SetID(id uint) error {
	if c.id != 0 {
		return fmt.Errorf("campaign ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("campaign ID cannot be zero")
	}
	c.id = id
	return nil
}

// touch refreshes the update timestamp; the version stays at the loaded
// value for the repository's check-and-set.
func (c *Campaign) touch() {
	c.updatedAt = time.Now().UTC()
}

// IsActive reports whether the campaign is usable for consumption right now.
func (c *Campaign) IsActive() bool {
	now := time.Now().UTC()
	return c.status == StatusActive && !now.Before(c.startDate) && now.Before(c.endDate)
}

// IsPastEndDate reports whether the campaign window has closed.
func (c *Campaign) IsPastEndDate() bool {
	return time.Now().UTC().After(c.endDate)
}

// SetStatus moves the campaign through its lifecycle. Deletion is a soft
// status change; ledger entries referencing the campaign stay resolvable.
func (c *Campaign) SetStatus(target Status) error {
	if !ValidStatuses[target] {
		return fmt.Errorf("invalid campaign status: %s", target)
	}
	if c.status == target {
		return nil
	}
	if !c.status.CanTransitionTo(target) {
		return fmt.Errorf("invalid status transition from %s to %s", c.status, target)
	}

	c.status = target
	c.touch()
	return nil
}

// IncreaseAllocation tops up the campaign ceiling. Decreases are rejected;
// quota already granted into the ledger tree cannot be un-promised here.
func (c *Campaign) IncreaseAllocation(newTotal int64) error {
	if newTotal < c.totalAllocated {
		return fmt.Errorf("total allocated can only be increased (current %d, requested %d)", c.totalAllocated, newTotal)
	}
	if newTotal == c.totalAllocated {
		return nil
	}

	c.totalAllocated = newTotal
	c.touch()
	return nil
}

// UpdateDates changes the campaign window.
func (c *Campaign) UpdateDates(startDate, endDate time.Time) error {
	if !endDate.After(startDate) {
		return fmt.Errorf("end date must be after start date")
	}

	c.startDate = startDate
	c.endDate = endDate
	c.touch()
	return nil
}

// UpdateRenewalRequirement changes the conversion threshold.
func (c *Campaign) UpdateRenewalRequirement(requirement int64) error {
	if requirement < 0 {
		return fmt.Errorf("renewal requirement cannot be negative")
	}

	c.renewalRequirement = requirement
	c.touch()
	return nil
}

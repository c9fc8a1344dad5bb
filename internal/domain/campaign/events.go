package campaign

import (
	"time"

	"github.com/trellis-inc/trellis/internal/domain/shared/events"
)

// Event types published by the campaign registry.
const (
	EventTypeCampaignCreated       = "campaign.created"
	EventTypeCampaignStatusChanged = "campaign.status_changed"
	EventTypeCampaignExpiring      = "campaign.expiring"
)

// CreatedEvent is published when a campaign grant is issued.
type CreatedEvent struct {
	events.BaseEvent
	CampaignSID    string
	OwnerPartnerID uint
	TotalAllocated int64
	EndDate        time.Time
}

// NewCreatedEvent builds a CreatedEvent for the given campaign.
func NewCreatedEvent(c *Campaign) *CreatedEvent {
	return &CreatedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: c.SID(),
			EventType:   EventTypeCampaignCreated,
			OccurredAt:  time.Now().UTC(),
		},
		CampaignSID:    c.SID(),
		OwnerPartnerID: c.OwnerPartnerID(),
		TotalAllocated: c.TotalAllocated(),
		EndDate:        c.EndDate(),
	}
}

// StatusChangedEvent is published after a lifecycle transition, including
// the scheduler-driven expiry.
type StatusChangedEvent struct {
	events.BaseEvent
	CampaignSID string
	OldStatus   Status
	NewStatus   Status
}

// NewStatusChangedEvent builds a StatusChangedEvent.
func NewStatusChangedEvent(c *Campaign, oldStatus Status) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: c.SID(),
			EventType:   EventTypeCampaignStatusChanged,
			OccurredAt:  time.Now().UTC(),
		},
		CampaignSID: c.SID(),
		OldStatus:   oldStatus,
		NewStatus:   c.Status(),
	}
}

// ExpiringEvent is published when a campaign approaches its end date.
type ExpiringEvent struct {
	events.BaseEvent
	CampaignSID    string
	OwnerPartnerID uint
	EndDate        time.Time
}

// NewExpiringEvent builds an ExpiringEvent.
func NewExpiringEvent(c *Campaign) *ExpiringEvent {
	return &ExpiringEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: c.SID(),
			EventType:   EventTypeCampaignExpiring,
			OccurredAt:  time.Now().UTC(),
		},
		CampaignSID:    c.SID(),
		OwnerPartnerID: c.OwnerPartnerID(),
		EndDate:        c.EndDate(),
	}
}

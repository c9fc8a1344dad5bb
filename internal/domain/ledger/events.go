package ledger

import (
	"time"

	"github.com/trellis-inc/trellis/internal/domain/shared/events"
)

// Event types published by the allocation engine.
const (
	EventTypeQuotaGranted   = "ledger.quota_granted"
	EventTypeQuotaAllocated = "ledger.quota_allocated"
	EventTypeQuotaRevoked   = "ledger.quota_revoked"
	EventTypeQuotaConsumed  = "ledger.quota_consumed"
	EventTypeQuotaExhausted = "ledger.quota_exhausted"
)

// QuotaGrantedEvent is published when a campaign's root entry is created.
type QuotaGrantedEvent struct {
	events.BaseEvent
	EntrySID    string
	PartnerID   uint
	CampaignID  uint
	Amount      int64
}

// NewQuotaGrantedEvent builds a QuotaGrantedEvent.
func NewQuotaGrantedEvent(e *Entry) *QuotaGrantedEvent {
	return &QuotaGrantedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: e.SID(),
			EventType:   EventTypeQuotaGranted,
			OccurredAt:  time.Now().UTC(),
		},
		EntrySID:   e.SID(),
		PartnerID:  e.PartnerID(),
		CampaignID: e.SourceCampaignID(),
		Amount:     e.TotalAllocated(),
	}
}

// QuotaAllocatedEvent is published when quota moves from a parent entry to
// a new child entry.
type QuotaAllocatedEvent struct {
	events.BaseEvent
	SourceEntrySID string
	ChildEntrySID  string
	FromPartnerID  uint
	ToPartnerID    uint
	Amount         int64
}

// NewQuotaAllocatedEvent builds a QuotaAllocatedEvent.
func NewQuotaAllocatedEvent(source, child *Entry, amount int64) *QuotaAllocatedEvent {
	return &QuotaAllocatedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: child.SID(),
			EventType:   EventTypeQuotaAllocated,
			OccurredAt:  time.Now().UTC(),
		},
		SourceEntrySID: source.SID(),
		ChildEntrySID:  child.SID(),
		FromPartnerID:  source.PartnerID(),
		ToPartnerID:    child.PartnerID(),
		Amount:         amount,
	}
}

// QuotaRevokedEvent is published when a grantor claws back unused quota.
type QuotaRevokedEvent struct {
	events.BaseEvent
	ChildEntrySID  string
	ParentEntrySID string
	Amount         int64
	ChildPaused    bool
}

// NewQuotaRevokedEvent builds a QuotaRevokedEvent.
func NewQuotaRevokedEvent(child, parent *Entry, amount int64) *QuotaRevokedEvent {
	return &QuotaRevokedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: child.SID(),
			EventType:   EventTypeQuotaRevoked,
			OccurredAt:  time.Now().UTC(),
		},
		ChildEntrySID:  child.SID(),
		ParentEntrySID: parent.SID(),
		Amount:         amount,
		ChildPaused:    child.Status() == StatusPaused,
	}
}

// QuotaConsumedEvent is published on every redemption.
type QuotaConsumedEvent struct {
	events.BaseEvent
	EntrySID      string
	PartnerID     uint
	CampaignID    uint
	InvitedUserID uint
	Remaining     int64
}

// NewQuotaConsumedEvent builds a QuotaConsumedEvent.
func NewQuotaConsumedEvent(e *Entry, invitedUserID uint) *QuotaConsumedEvent {
	return &QuotaConsumedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: e.SID(),
			EventType:   EventTypeQuotaConsumed,
			OccurredAt:  time.Now().UTC(),
		},
		EntrySID:      e.SID(),
		PartnerID:     e.PartnerID(),
		CampaignID:    e.SourceCampaignID(),
		InvitedUserID: invitedUserID,
		Remaining:     e.AvailableQuota(),
	}
}

// QuotaExhaustedEvent is published when an entry's available quota hits
// zero; external notifiers subscribe to it.
type QuotaExhaustedEvent struct {
	events.BaseEvent
	EntrySID   string
	PartnerID  uint
	CampaignID uint
}

// NewQuotaExhaustedEvent builds a QuotaExhaustedEvent.
func NewQuotaExhaustedEvent(e *Entry) *QuotaExhaustedEvent {
	return &QuotaExhaustedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: e.SID(),
			EventType:   EventTypeQuotaExhausted,
			OccurredAt:  time.Now().UTC(),
		},
		EntrySID:   e.SID(),
		PartnerID:  e.PartnerID(),
		CampaignID: e.SourceCampaignID(),
	}
}

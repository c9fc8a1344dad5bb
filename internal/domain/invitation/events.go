package invitation

import (
	"time"

	"github.com/trellis-inc/trellis/internal/domain/shared/events"
)

// EventTypeCodeActivated is published when a partner's codes are pointed
// at a ledger entry.
const EventTypeCodeActivated = "invitation.code_activated"

// CodeActivatedEvent carries the re-pointing outcome.
type CodeActivatedEvent struct {
	events.BaseEvent
	CodeValue      string
	OwnerPartnerID uint
	LedgerEntryID  uint
}

// NewCodeActivatedEvent builds a CodeActivatedEvent.
func NewCodeActivatedEvent(c *Code, ledgerEntryID uint) *CodeActivatedEvent {
	return &CodeActivatedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: c.Value(),
			EventType:   EventTypeCodeActivated,
			OccurredAt:  time.Now().UTC(),
		},
		CodeValue:      c.Value(),
		OwnerPartnerID: c.OwnerPartnerID(),
		LedgerEntryID:  ledgerEntryID,
	}
}

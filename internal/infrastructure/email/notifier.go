package email

import (
	"fmt"

	"github.com/trellis-inc/trellis/internal/domain/campaign"
	"github.com/trellis-inc/trellis/internal/domain/ledger"
	"github.com/trellis-inc/trellis/internal/domain/shared/events"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

// Notifier turns ledger and campaign events into admin email notices.
// Handlers run on the dispatcher's goroutines; send failures are logged
// and dropped, never propagated back into the write path.
type Notifier struct {
	service      *SMTPEmailService
	adminAddress string
	logger       logger.Interface
}

// NewNotifier creates a notifier sending to the configured admin address
func NewNotifier(service *SMTPEmailService, adminAddress string, logger logger.Interface) *Notifier {
	return &Notifier{
		service:      service,
		adminAddress: adminAddress,
		logger:       logger,
	}
}

// Register subscribes the notifier's handlers on the dispatcher
func (n *Notifier) Register(subscriber events.EventSubscriber) error {
	if err := subscriber.Subscribe(ledger.EventTypeQuotaExhausted,
		events.NewSimpleEventHandler(ledger.EventTypeQuotaExhausted, n.handleQuotaExhausted)); err != nil {
		return fmt.Errorf("failed to subscribe quota exhausted handler: %w", err)
	}
	if err := subscriber.Subscribe(campaign.EventTypeCampaignExpiring,
		events.NewSimpleEventHandler(campaign.EventTypeCampaignExpiring, n.handleCampaignExpiring)); err != nil {
		return fmt.Errorf("failed to subscribe campaign expiring handler: %w", err)
	}
	return nil
}

func (n *Notifier) handleQuotaExhausted(event events.DomainEvent) error {
	exhausted, ok := event.(*ledger.QuotaExhaustedEvent)
	if !ok {
		return nil
	}

	if err := n.service.SendQuotaExhaustedNotice(n.adminAddress, exhausted.EntrySID, exhausted.PartnerID); err != nil {
		n.logger.Errorw("failed to send quota exhausted notice",
			"entry_sid", exhausted.EntrySID,
			"partner_id", exhausted.PartnerID,
			"error", err)
		return err
	}

	n.logger.Infow("quota exhausted notice sent", "entry_sid", exhausted.EntrySID)
	return nil
}

func (n *Notifier) handleCampaignExpiring(event events.DomainEvent) error {
	expiring, ok := event.(*campaign.ExpiringEvent)
	if !ok {
		return nil
	}

	note := fmt.Sprintf("on %s", expiring.EndDate.Format("2006-01-02"))
	if err := n.service.SendCampaignExpiringNotice(n.adminAddress, expiring.CampaignSID, note); err != nil {
		n.logger.Errorw("failed to send campaign expiring notice",
			"campaign_sid", expiring.CampaignSID,
			"error", err)
		return err
	}

	n.logger.Infow("campaign expiring notice sent", "campaign_sid", expiring.CampaignSID)
	return nil
}

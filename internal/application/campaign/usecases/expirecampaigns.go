package usecases

import (
	"context"
	"fmt"

	"github.com/trellis-inc/trellis/internal/domain/campaign"
	"github.com/trellis-inc/trellis/internal/domain/shared/events"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

type ExpireCampaignsResult struct {
	Expired  int
	Expiring int
}

// ExpireCampaignsUseCase is the scheduled sweep: campaigns whose window has
// closed are transitioned to expired (with the full ledger cascade), and
// campaigns approaching their end date emit an expiring notice event.
type ExpireCampaignsUseCase struct {
	campaignRepo       campaign.Repository
	setStatus          *SetCampaignStatusUseCase
	publisher          events.EventPublisher
	expiringNoticeDays int
	logger             logger.Interface
}

func NewExpireCampaignsUseCase(
	campaignRepo campaign.Repository,
	setStatus *SetCampaignStatusUseCase,
	publisher events.EventPublisher,
	expiringNoticeDays int,
	logger logger.Interface,
) *ExpireCampaignsUseCase {
	return &ExpireCampaignsUseCase{
		campaignRepo:       campaignRepo,
		setStatus:          setStatus,
		publisher:          publisher,
		expiringNoticeDays: expiringNoticeDays,
		logger:             logger,
	}
}

func (uc *ExpireCampaignsUseCase) Execute(ctx context.Context) (*ExpireCampaignsResult, error) {
	result := &ExpireCampaignsResult{}

	pastEnd, err := uc.campaignRepo.FindPastEndDate(ctx)
	if err != nil {
		uc.logger.Errorw("failed to find campaigns past end date", "error", err)
		return nil, fmt.Errorf("failed to find campaigns past end date: %w", err)
	}
	for _, cmp := range pastEnd {
		if _, err := uc.setStatus.Execute(ctx, SetCampaignStatusCommand{
			CampaignSID: cmp.SID(),
			Status:      campaign.StatusExpired,
		}); err != nil {
			// One stuck campaign must not stall the sweep.
			uc.logger.Errorw("failed to expire campaign", "error", err, "campaign_sid", cmp.SID())
			continue
		}
		result.Expired++
	}

	expiring, err := uc.campaignRepo.FindExpiring(ctx, uc.expiringNoticeDays)
	if err != nil {
		uc.logger.Errorw("failed to find expiring campaigns", "error", err)
		return result, fmt.Errorf("failed to find expiring campaigns: %w", err)
	}
	for _, cmp := range expiring {
		if err := uc.publisher.Publish(campaign.NewExpiringEvent(cmp)); err != nil {
			uc.logger.Warnw("failed to publish expiring event", "error", err, "campaign_sid", cmp.SID())
			continue
		}
		result.Expiring++
	}

	if result.Expired > 0 || result.Expiring > 0 {
		uc.logger.Infow("campaign expiry sweep finished",
			"expired", result.Expired, "expiring_notices", result.Expiring)
	}
	return result, nil
}

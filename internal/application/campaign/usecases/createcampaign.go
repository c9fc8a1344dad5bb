// Package usecases implements campaign registry operations: grant creation,
// edits, and the lifecycle cascade into the ledger tree.
package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/trellis-inc/trellis/internal/domain/campaign"
	"github.com/trellis-inc/trellis/internal/domain/partner"
	"github.com/trellis-inc/trellis/internal/domain/shared/events"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/id"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

type CreateCampaignCommand struct {
	OwnerPartnerSID    string
	TotalAllocated     int64
	RenewalRequirement int64
	StartDate          time.Time
	EndDate            time.Time
}

type CreateCampaignResult struct {
	Campaign *campaign.Campaign
}

type CreateCampaignUseCase struct {
	campaignRepo campaign.Repository
	partnerRepo  partner.Repository
	publisher    events.EventPublisher
	logger       logger.Interface
}

func NewCreateCampaignUseCase(
	campaignRepo campaign.Repository,
	partnerRepo partner.Repository,
	publisher events.EventPublisher,
	logger logger.Interface,
) *CreateCampaignUseCase {
	return &CreateCampaignUseCase{
		campaignRepo: campaignRepo,
		partnerRepo:  partnerRepo,
		publisher:    publisher,
		logger:       logger,
	}
}

func (uc *CreateCampaignUseCase) Execute(ctx context.Context, cmd CreateCampaignCommand) (*CreateCampaignResult, error) {
	owner, err := uc.partnerRepo.GetBySID(ctx, cmd.OwnerPartnerSID)
	if err != nil {
		uc.logger.Errorw("failed to get owner partner", "error", err, "partner_sid", cmd.OwnerPartnerSID)
		return nil, fmt.Errorf("failed to get owner partner: %w", err)
	}
	if owner == nil {
		return nil, errors.NewNotFoundError("owner partner not found")
	}

	cmp, err := campaign.NewCampaign(
		id.MustGenerateWithPrefix(id.PrefixCampaign, id.DefaultLength),
		owner.ID(), cmd.TotalAllocated, cmd.StartDate, cmd.EndDate, cmd.RenewalRequirement)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	if err := uc.campaignRepo.Create(ctx, cmp); err != nil {
		uc.logger.Errorw("failed to create campaign", "error", err, "owner_partner_sid", cmd.OwnerPartnerSID)
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	if err := uc.publisher.Publish(campaign.NewCreatedEvent(cmp)); err != nil {
		uc.logger.Warnw("failed to publish campaign created event", "error", err, "campaign_sid", cmp.SID())
	}

	uc.logger.Infow("campaign created",
		"campaign_sid", cmp.SID(), "owner_partner_sid", owner.SID(), "total_allocated", cmd.TotalAllocated)
	return &CreateCampaignResult{Campaign: cmp}, nil
}

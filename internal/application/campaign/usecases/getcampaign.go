package usecases

import (
	"context"
	"fmt"

	"github.com/trellis-inc/trellis/internal/domain/campaign"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

type GetCampaignUseCase struct {
	campaignRepo campaign.Repository
	logger       logger.Interface
}

func NewGetCampaignUseCase(campaignRepo campaign.Repository, logger logger.Interface) *GetCampaignUseCase {
	return &GetCampaignUseCase{campaignRepo: campaignRepo, logger: logger}
}

func (uc *GetCampaignUseCase) Execute(ctx context.Context, campaignSID string) (*campaign.Campaign, error) {
	cmp, err := uc.campaignRepo.GetBySID(ctx, campaignSID)
	if err != nil {
		uc.logger.Errorw("failed to get campaign", "error", err, "campaign_sid", campaignSID)
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	if cmp == nil || cmp.Status() == campaign.StatusDeleted {
		return nil, errors.NewNotFoundError("campaign not found")
	}
	return cmp, nil
}

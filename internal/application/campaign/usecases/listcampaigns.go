package usecases

import (
	"context"
	"fmt"

	"github.com/trellis-inc/trellis/internal/domain/campaign"
	"github.com/trellis-inc/trellis/internal/domain/partner"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/logger"
	"github.com/trellis-inc/trellis/internal/shared/utils"
)

type ListCampaignsQuery struct {
	Status          string
	OwnerPartnerSID string
	Page            int
	PageSize        int
}

type ListCampaignsResult struct {
	Campaigns []*campaign.Campaign
	Total     int64
	Page      int
	PageSize  int
}

type ListCampaignsUseCase struct {
	campaignRepo campaign.Repository
	partnerRepo  partner.Repository
	logger       logger.Interface
}

func NewListCampaignsUseCase(
	campaignRepo campaign.Repository,
	partnerRepo partner.Repository,
	logger logger.Interface,
) *ListCampaignsUseCase {
	return &ListCampaignsUseCase{
		campaignRepo: campaignRepo,
		partnerRepo:  partnerRepo,
		logger:       logger,
	}
}

func (uc *ListCampaignsUseCase) Execute(ctx context.Context, query ListCampaignsQuery) (*ListCampaignsResult, error) {
	page := utils.ValidatePagination(query.Page, query.PageSize)
	filter := campaign.Filter{Page: page.Page, PageSize: page.PageSize}

	if query.Status != "" {
		status := campaign.Status(query.Status)
		if !campaign.ValidStatuses[status] {
			return nil, errors.NewValidationError(fmt.Sprintf("invalid campaign status: %s", query.Status))
		}
		filter.Status = &status
	}

	if query.OwnerPartnerSID != "" {
		owner, err := uc.partnerRepo.GetBySID(ctx, query.OwnerPartnerSID)
		if err != nil {
			uc.logger.Errorw("failed to get owner partner", "error", err, "partner_sid", query.OwnerPartnerSID)
			return nil, fmt.Errorf("failed to get owner partner: %w", err)
		}
		if owner == nil {
			return nil, errors.NewNotFoundError("owner partner not found")
		}
		ownerID := owner.ID()
		filter.OwnerPartnerID = &ownerID
	}

	campaigns, total, err := uc.campaignRepo.List(ctx, filter)
	if err != nil {
		uc.logger.Errorw("failed to list campaigns", "error", err)
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	return &ListCampaignsResult{
		Campaigns: campaigns,
		Total:     total,
		Page:      page.Page,
		PageSize:  page.PageSize,
	}, nil
}

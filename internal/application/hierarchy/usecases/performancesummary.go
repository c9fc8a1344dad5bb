package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/trellis-inc/trellis/internal/domain/campaign"
	"github.com/trellis-inc/trellis/internal/domain/invitation"
	"github.com/trellis-inc/trellis/internal/domain/partner"
	"github.com/trellis-inc/trellis/internal/shared/authorization"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

type PerformanceSummaryQuery struct {
	PartnerSID  string
	CampaignSID string
	From        *time.Time
	To          *time.Time
	// FullHierarchy rolls the summary up over the partner's whole subtree
	// instead of the partner alone.
	FullHierarchy bool

	ActorPartnerID uint
	ActorRole      authorization.Role
}

// PerformanceSummary is the aggregate returned to dashboards.
type PerformanceSummary struct {
	PartnerSID     string  `json:"partner_sid"`
	FullHierarchy  bool    `json:"full_hierarchy"`
	Invitations    int64   `json:"invitations"`
	Conversions    int64   `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
}

type PerformanceSummaryUseCase struct {
	partnerRepo    partner.Repository
	campaignRepo   campaign.Repository
	redemptionRepo invitation.RedemptionRepository
	cache          SummaryCache
	logger         logger.Interface
}

func NewPerformanceSummaryUseCase(
	partnerRepo partner.Repository,
	campaignRepo campaign.Repository,
	redemptionRepo invitation.RedemptionRepository,
	cache SummaryCache,
	logger logger.Interface,
) *PerformanceSummaryUseCase {
	return &PerformanceSummaryUseCase{
		partnerRepo:    partnerRepo,
		campaignRepo:   campaignRepo,
		redemptionRepo: redemptionRepo,
		cache:          cache,
		logger:         logger,
	}
}

func (uc *PerformanceSummaryUseCase) Execute(ctx context.Context, query PerformanceSummaryQuery) (*PerformanceSummary, error) {
	p, err := uc.partnerRepo.GetBySID(ctx, query.PartnerSID)
	if err != nil {
		uc.logger.Errorw("failed to get partner", "error", err, "partner_sid", query.PartnerSID)
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}
	if p == nil {
		return nil, errors.NewNotFoundError("partner not found")
	}
	if !authorization.CanActForPartner(query.ActorPartnerID, query.ActorRole, p.ID()) {
		return nil, errors.NewForbiddenError("caller may not view this partner's summary")
	}

	// Only unfiltered summaries are cached; filtered queries are rare and
	// cheap enough to hit storage directly.
	cacheable := uc.cache != nil && query.CampaignSID == "" && query.From == nil && query.To == nil
	cacheKey := summaryCacheKey(query.PartnerSID, query.FullHierarchy)
	if cacheable {
		if cached, ok, err := uc.cache.Get(ctx, cacheKey); err == nil && ok {
			return cached, nil
		}
	}

	partnerIDs := []uint{p.ID()}
	if query.FullHierarchy {
		descendants, err := uc.partnerRepo.GetSubtree(ctx, p.ID())
		if err != nil {
			uc.logger.Errorw("failed to get subtree", "error", err, "partner_id", p.ID())
			return nil, fmt.Errorf("failed to get subtree: %w", err)
		}
		for _, d := range descendants {
			partnerIDs = append(partnerIDs, d.ID())
		}
	}

	filter := invitation.StatsFilter{
		InviterPartnerIDs: partnerIDs,
		From:              query.From,
		To:                query.To,
	}
	if query.CampaignSID != "" {
		cmp, err := uc.campaignRepo.GetBySID(ctx, query.CampaignSID)
		if err != nil {
			return nil, fmt.Errorf("failed to get campaign: %w", err)
		}
		if cmp == nil {
			return nil, errors.NewNotFoundError("campaign not found")
		}
		cmpID := cmp.ID()
		filter.RootCampaignID = &cmpID
	}

	invitations, conversions, err := uc.redemptionRepo.CountStats(ctx, filter)
	if err != nil {
		uc.logger.Errorw("failed to count redemption stats", "error", err, "partner_sid", query.PartnerSID)
		return nil, fmt.Errorf("failed to count redemption stats: %w", err)
	}

	summary := &PerformanceSummary{
		PartnerSID:    query.PartnerSID,
		FullHierarchy: query.FullHierarchy,
		Invitations:   invitations,
		Conversions:   conversions,
	}
	if invitations > 0 {
		summary.ConversionRate = float64(conversions) / float64(invitations)
	}

	if cacheable {
		if err := uc.cache.Set(ctx, cacheKey, summary); err != nil {
			uc.logger.Warnw("failed to cache performance summary", "error", err, "key", cacheKey)
		}
	}
	return summary, nil
}

func summaryCacheKey(partnerSID string, fullHierarchy bool) string {
	if fullHierarchy {
		return fmt.Sprintf("summary:%s:subtree", partnerSID)
	}
	return fmt.Sprintf("summary:%s:self", partnerSID)
}

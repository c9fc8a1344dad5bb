package usecases

import (
	"context"
	"fmt"

	"github.com/trellis-inc/trellis/internal/domain/partner"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/logger"
	"github.com/trellis-inc/trellis/internal/shared/utils"
)

type ListPartnersQuery struct {
	ParentSID string
	Level     *int
	Page      int
	PageSize  int
}

type ListPartnersResult struct {
	Partners []*partner.Partner
	Total    int64
	Page     int
	PageSize int
}

type ListPartnersUseCase struct {
	partnerRepo partner.Repository
	logger      logger.Interface
}

func NewListPartnersUseCase(partnerRepo partner.Repository, logger logger.Interface) *ListPartnersUseCase {
	return &ListPartnersUseCase{partnerRepo: partnerRepo, logger: logger}
}

func (uc *ListPartnersUseCase) Execute(ctx context.Context, query ListPartnersQuery) (*ListPartnersResult, error) {
	page := utils.ValidatePagination(query.Page, query.PageSize)
	filter := partner.Filter{Level: query.Level, Page: page.Page, PageSize: page.PageSize}

	if query.ParentSID != "" {
		parent, err := uc.partnerRepo.GetBySID(ctx, query.ParentSID)
		if err != nil {
			uc.logger.Errorw("failed to get parent partner", "error", err, "parent_sid", query.ParentSID)
			return nil, fmt.Errorf("failed to get parent partner: %w", err)
		}
		if parent == nil {
			return nil, errors.NewNotFoundError("parent partner not found")
		}
		parentID := parent.ID()
		filter.ParentID = &parentID
	}

	partners, total, err := uc.partnerRepo.List(ctx, filter)
	if err != nil {
		uc.logger.Errorw("failed to list partners", "error", err)
		return nil, fmt.Errorf("failed to list partners: %w", err)
	}

	return &ListPartnersResult{
		Partners: partners,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}

package usecases

import (
	"context"
	"fmt"

	"github.com/trellis-inc/trellis/internal/domain/partner"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

type GetPartnerUseCase struct {
	partnerRepo partner.Repository
	logger      logger.Interface
}

func NewGetPartnerUseCase(partnerRepo partner.Repository, logger logger.Interface) *GetPartnerUseCase {
	return &GetPartnerUseCase{partnerRepo: partnerRepo, logger: logger}
}

func (uc *GetPartnerUseCase) Execute(ctx context.Context, partnerSID string) (*partner.Partner, error) {
	p, err := uc.partnerRepo.GetBySID(ctx, partnerSID)
	if err != nil {
		uc.logger.Errorw("failed to get partner", "error", err, "partner_sid", partnerSID)
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}
	if p == nil {
		return nil, errors.NewNotFoundError("partner not found")
	}
	return p, nil
}

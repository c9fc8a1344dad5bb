package usecases

import (
	"context"
	"fmt"

	"github.com/trellis-inc/trellis/internal/domain/invitation"
	"github.com/trellis-inc/trellis/internal/domain/partner"
	"github.com/trellis-inc/trellis/internal/shared/authorization"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

type GetCodesByPartnerQuery struct {
	PartnerSID string

	ActorPartnerID uint
	ActorRole      authorization.Role
}

type GetCodesByPartnerResult struct {
	Codes []*invitation.Code
}

type GetCodesByPartnerUseCase struct {
	codeRepo    invitation.CodeRepository
	partnerRepo partner.Repository
	logger      logger.Interface
}

func NewGetCodesByPartnerUseCase(
	codeRepo invitation.CodeRepository,
	partnerRepo partner.Repository,
	logger logger.Interface,
) *GetCodesByPartnerUseCase {
	return &GetCodesByPartnerUseCase{
		codeRepo:    codeRepo,
		partnerRepo: partnerRepo,
		logger:      logger,
	}
}

func (uc *GetCodesByPartnerUseCase) Execute(ctx context.Context, query GetCodesByPartnerQuery) (*GetCodesByPartnerResult, error) {
	p, err := uc.partnerRepo.GetBySID(ctx, query.PartnerSID)
	if err != nil {
		uc.logger.Errorw("failed to get partner", "error", err, "partner_sid", query.PartnerSID)
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}
	if p == nil {
		return nil, errors.NewNotFoundError("partner not found")
	}
	if !authorization.CanActForPartner(query.ActorPartnerID, query.ActorRole, p.ID()) {
		return nil, errors.NewForbiddenError("caller may not view this partner's codes")
	}

	codes, err := uc.codeRepo.GetByPartnerID(ctx, p.ID())
	if err != nil {
		uc.logger.Errorw("failed to get partner codes", "error", err, "partner_id", p.ID())
		return nil, fmt.Errorf("failed to get partner codes: %w", err)
	}
	return &GetCodesByPartnerResult{Codes: codes}, nil
}

package usecases

import (
	"context"
	"fmt"

	"github.com/trellis-inc/trellis/internal/domain/partner"
	"github.com/trellis-inc/trellis/internal/shared/authorization"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

type SubtreeQuery struct {
	PartnerSID string

	ActorPartnerID uint
	ActorRole      authorization.Role
}

type SubtreeResult struct {
	Root        *partner.Partner
	Descendants []*partner.Partner
}

type SubtreeUseCase struct {
	partnerRepo partner.Repository
	logger      logger.Interface
}

func NewSubtreeUseCase(partnerRepo partner.Repository, logger logger.Interface) *SubtreeUseCase {
	return &SubtreeUseCase{partnerRepo: partnerRepo, logger: logger}
}

func (uc *SubtreeUseCase) Execute(ctx context.Context, query SubtreeQuery) (*SubtreeResult, error) {
	p, err := uc.partnerRepo.GetBySID(ctx, query.PartnerSID)
	if err != nil {
		uc.logger.Errorw("failed to get partner", "error", err, "partner_sid", query.PartnerSID)
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}
	if p == nil {
		return nil, errors.NewNotFoundError("partner not found")
	}
	if !authorization.CanActForPartner(query.ActorPartnerID, query.ActorRole, p.ID()) {
		return nil, errors.NewForbiddenError("caller may not view this partner's subtree")
	}

	descendants, err := uc.partnerRepo.GetSubtree(ctx, p.ID())
	if err != nil {
		uc.logger.Errorw("failed to get subtree", "error", err, "partner_id", p.ID())
		return nil, fmt.Errorf("failed to get subtree: %w", err)
	}

	return &SubtreeResult{Root: p, Descendants: descendants}, nil
}

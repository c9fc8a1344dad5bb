package usecases

import (
	"context"
	"fmt"

	"github.com/trellis-inc/trellis/internal/domain/ledger"
	"github.com/trellis-inc/trellis/internal/domain/partner"
	"github.com/trellis-inc/trellis/internal/shared/authorization"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

type AllocationHistoryQuery struct {
	GranterPartnerSID string
	HolderPartnerSID  string

	ActorPartnerID uint
	ActorRole      authorization.Role
}

type AllocationHistoryResult struct {
	Entries []*ledger.Entry
}

// AllocationHistoryUseCase lists the quota grants one partner made to
// another, newest first. Paused entries stay in the listing as audit
// history of fully revoked grants.
type AllocationHistoryUseCase struct {
	entryRepo   ledger.Repository
	partnerRepo partner.Repository
	logger      logger.Interface
}

func NewAllocationHistoryUseCase(
	entryRepo ledger.Repository,
	partnerRepo partner.Repository,
	logger logger.Interface,
) *AllocationHistoryUseCase {
	return &AllocationHistoryUseCase{
		entryRepo:   entryRepo,
		partnerRepo: partnerRepo,
		logger:      logger,
	}
}

func (uc *AllocationHistoryUseCase) Execute(ctx context.Context, query AllocationHistoryQuery) (*AllocationHistoryResult, error) {
	granter, err := uc.partnerRepo.GetBySID(ctx, query.GranterPartnerSID)
	if err != nil {
		uc.logger.Errorw("failed to get granter partner", "error", err, "partner_sid", query.GranterPartnerSID)
		return nil, fmt.Errorf("failed to get granter partner: %w", err)
	}
	if granter == nil {
		return nil, errors.NewNotFoundError("granter partner not found")
	}

	holder, err := uc.partnerRepo.GetBySID(ctx, query.HolderPartnerSID)
	if err != nil {
		uc.logger.Errorw("failed to get holder partner", "error", err, "partner_sid", query.HolderPartnerSID)
		return nil, fmt.Errorf("failed to get holder partner: %w", err)
	}
	if holder == nil {
		return nil, errors.NewNotFoundError("holder partner not found")
	}

	// Either side of the grant may inspect the history.
	if !authorization.CanActForPartner(query.ActorPartnerID, query.ActorRole, granter.ID()) &&
		!authorization.CanActForPartner(query.ActorPartnerID, query.ActorRole, holder.ID()) {
		return nil, errors.NewForbiddenError("caller is not a party to this allocation history")
	}

	entries, err := uc.entryRepo.ListAllocations(ctx, granter.ID(), holder.ID())
	if err != nil {
		uc.logger.Errorw("failed to list allocations", "error", err,
			"granter_id", granter.ID(), "holder_id", holder.ID())
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}

	return &AllocationHistoryResult{Entries: entries}, nil
}

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

type QuotaUtilizationQuery struct {
	PartnerSID string

	ActorPartnerID uint
	ActorRole      authorization.Role
}

// EntryUtilization reports one ledger entry's stored counters. The numbers
// are read verbatim from the entry; nothing is rederived here.
type EntryUtilization struct {
	EntrySID            string        `json:"entry_sid"`
	Status              ledger.Status `json:"status"`
	TotalAllocated      int64         `json:"total_allocated"`
	Consumed            int64         `json:"consumed"`
	AllocatedToChildren int64         `json:"allocated_to_children"`
	Available           int64         `json:"available"`
}

type QuotaUtilizationResult struct {
	PartnerSID string             `json:"partner_sid"`
	Entries    []EntryUtilization `json:"entries"`

	TotalAllocated      int64 `json:"total_allocated"`
	Consumed            int64 `json:"consumed"`
	AllocatedToChildren int64 `json:"allocated_to_children"`
	Available           int64 `json:"available"`
}

type QuotaUtilizationUseCase struct {
	entryRepo   ledger.Repository
	partnerRepo partner.Repository
	logger      logger.Interface
}

func NewQuotaUtilizationUseCase(
	entryRepo ledger.Repository,
	partnerRepo partner.Repository,
	logger logger.Interface,
) *QuotaUtilizationUseCase {
	return &QuotaUtilizationUseCase{
		entryRepo:   entryRepo,
		partnerRepo: partnerRepo,
		logger:      logger,
	}
}

func (uc *QuotaUtilizationUseCase) Execute(ctx context.Context, query QuotaUtilizationQuery) (*QuotaUtilizationResult, error) {
	p, err := uc.partnerRepo.GetBySID(ctx, query.PartnerSID)
	if err != nil {
		uc.logger.Errorw("failed to get partner", "error", err, "partner_sid", query.PartnerSID)
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}
	if p == nil {
		return nil, errors.NewNotFoundError("partner not found")
	}
	if !authorization.CanActForPartner(query.ActorPartnerID, query.ActorRole, p.ID()) {
		return nil, errors.NewForbiddenError("caller may not view this partner's utilization")
	}

	entries, err := uc.entryRepo.GetByPartnerID(ctx, p.ID())
	if err != nil {
		uc.logger.Errorw("failed to get partner entries", "error", err, "partner_id", p.ID())
		return nil, fmt.Errorf("failed to get partner entries: %w", err)
	}

	result := &QuotaUtilizationResult{
		PartnerSID: query.PartnerSID,
		Entries:    make([]EntryUtilization, 0, len(entries)),
	}
	for _, entry := range entries {
		row := EntryUtilization{
			EntrySID:            entry.SID(),
			Status:              entry.Status(),
			TotalAllocated:      entry.TotalAllocated(),
			Consumed:            entry.ConsumedByOwnInvites(),
			AllocatedToChildren: entry.AllocatedToChildren(),
			Available:           entry.AvailableQuota(),
		}
		result.Entries = append(result.Entries, row)
		result.TotalAllocated += row.TotalAllocated
		result.Consumed += row.Consumed
		result.AllocatedToChildren += row.AllocatedToChildren
		result.Available += row.Available
	}
	return result, nil
}

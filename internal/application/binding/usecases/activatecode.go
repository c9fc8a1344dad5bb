// Package usecases implements invitation code binding: pointing a partner's
// codes at the ledger entry they draw from, and the redemption follow-ups.
package usecases

import (
	"context"
	"fmt"

	"github.com/trellis-inc/trellis/internal/domain/campaign"
	"github.com/trellis-inc/trellis/internal/domain/invitation"
	"github.com/trellis-inc/trellis/internal/domain/ledger"
	"github.com/trellis-inc/trellis/internal/domain/partner"
	"github.com/trellis-inc/trellis/internal/domain/shared/events"
	"github.com/trellis-inc/trellis/internal/shared/authorization"
	"github.com/trellis-inc/trellis/internal/shared/db"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

type ActivateCodeCommand struct {
	PartnerSID string

	ActorPartnerID uint
	ActorRole      authorization.Role
}

type ActivateCodeResult struct {
	Codes []*invitation.Code
	Entry *ledger.Entry
}

// ActivateCodeUseCase binds all of a partner's invitation codes to the
// partner's oldest eligible ledger entry: active, quota available, campaign
// usable. Draining the oldest grant first keeps consumption in grant order.
type ActivateCodeUseCase struct {
	codeRepo     invitation.CodeRepository
	entryRepo    ledger.Repository
	campaignRepo campaign.Repository
	partnerRepo  partner.Repository
	txMgr        db.TxManager
	publisher    events.EventPublisher
	logger       logger.Interface
}

func NewActivateCodeUseCase(
	codeRepo invitation.CodeRepository,
	entryRepo ledger.Repository,
	campaignRepo campaign.Repository,
	partnerRepo partner.Repository,
	txMgr db.TxManager,
	publisher events.EventPublisher,
	logger logger.Interface,
) *ActivateCodeUseCase {
	return &ActivateCodeUseCase{
		codeRepo:     codeRepo,
		entryRepo:    entryRepo,
		campaignRepo: campaignRepo,
		partnerRepo:  partnerRepo,
		txMgr:        txMgr,
		publisher:    publisher,
		logger:       logger,
	}
}

func (uc *ActivateCodeUseCase) Execute(ctx context.Context, cmd ActivateCodeCommand) (*ActivateCodeResult, error) {
	p, err := uc.partnerRepo.GetBySID(ctx, cmd.PartnerSID)
	if err != nil {
		uc.logger.Errorw("failed to get partner", "error", err, "partner_sid", cmd.PartnerSID)
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}
	if p == nil {
		return nil, errors.NewNotFoundError("partner not found")
	}
	if !authorization.CanActForPartner(cmd.ActorPartnerID, cmd.ActorRole, p.ID()) {
		return nil, errors.NewForbiddenError("caller may not activate codes for this partner")
	}

	codes, err := uc.codeRepo.GetByPartnerID(ctx, p.ID())
	if err != nil {
		uc.logger.Errorw("failed to get partner codes", "error", err, "partner_id", p.ID())
		return nil, fmt.Errorf("failed to get partner codes: %w", err)
	}
	if len(codes) == 0 {
		return nil, errors.NewNotFoundError("partner has no invitation codes")
	}

	entry, sawInactiveCampaign, err := uc.pickEntry(ctx, p.ID())
	if err != nil {
		return nil, err
	}
	if entry == nil {
		if sawInactiveCampaign {
			// The quota exists but its campaign is out of service; leave
			// the codes unusable rather than bound to dead quota.
			if err := uc.deactivateAll(ctx, codes); err != nil {
				return nil, err
			}
			return nil, errors.NewCampaignInactiveError("remaining quota belongs to inactive campaigns")
		}
		return nil, errors.NewInsufficientQuotaError("partner has no active quota to bind")
	}

	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		for _, code := range codes {
			if err := code.Activate(entry.ID()); err != nil {
				return errors.NewConflictError(err.Error())
			}
			if err := uc.codeRepo.Update(txCtx, code); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, code := range codes {
		if err := uc.publisher.Publish(invitation.NewCodeActivatedEvent(code, entry.ID())); err != nil {
			uc.logger.Warnw("failed to publish code activated event", "error", err, "code", code.Value())
		}
	}

	uc.logger.Infow("invitation codes activated",
		"partner_sid", p.SID(), "entry_sid", entry.SID(), "codes", len(codes))
	return &ActivateCodeResult{Codes: codes, Entry: entry}, nil
}

// pickEntry returns the partner's oldest entry that is active, has quota,
// and traces to a usable campaign. The second return reports whether any
// otherwise-eligible entry was skipped for an inactive campaign.
func (uc *ActivateCodeUseCase) pickEntry(ctx context.Context, partnerID uint) (*ledger.Entry, bool, error) {
	entries, err := uc.entryRepo.GetActiveByPartnerID(ctx, partnerID)
	if err != nil {
		uc.logger.Errorw("failed to get active entries", "error", err, "partner_id", partnerID)
		return nil, false, fmt.Errorf("failed to get active entries: %w", err)
	}

	sawInactiveCampaign := false
	for _, entry := range entries {
		if entry.AvailableQuota() <= 0 {
			continue
		}
		cmp, err := uc.campaignRepo.GetByID(ctx, entry.SourceCampaignID())
		if err != nil {
			return nil, false, fmt.Errorf("failed to get campaign: %w", err)
		}
		if cmp == nil || !cmp.IsActive() {
			sawInactiveCampaign = true
			continue
		}
		return entry, false, nil
	}
	return nil, sawInactiveCampaign, nil
}

func (uc *ActivateCodeUseCase) deactivateAll(ctx context.Context, codes []*invitation.Code) error {
	return uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		for _, code := range codes {
			if !code.IsActive() {
				continue
			}
			code.Deactivate()
			if err := uc.codeRepo.Update(txCtx, code); err != nil {
				return err
			}
		}
		return nil
	})
}

package usecases

import (
	"context"
	"fmt"

	"github.com/trellis-inc/trellis/internal/domain/campaign"
	"github.com/trellis-inc/trellis/internal/domain/ledger"
	"github.com/trellis-inc/trellis/internal/domain/partner"
	"github.com/trellis-inc/trellis/internal/domain/shared/events"
	"github.com/trellis-inc/trellis/internal/shared/authorization"
	"github.com/trellis-inc/trellis/internal/shared/db"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/id"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

type AllocateToChildCommand struct {
	SourceEntrySID  string
	ChildPartnerSID string
	Amount          int64

	ActorPartnerID uint
	ActorRole      authorization.Role
}

type AllocateToChildResult struct {
	ChildEntry  *ledger.Entry
	SourceEntry *ledger.Entry
}

// AllocateToChildUseCase moves quota from a partner's entry into a new
// entry held by one of its direct children. The parent increment and the
// child creation commit together or not at all.
type AllocateToChildUseCase struct {
	entryRepo    ledger.Repository
	campaignRepo campaign.Repository
	partnerRepo  partner.Repository
	txMgr        db.TxManager
	publisher    events.EventPublisher
	logger       logger.Interface
}

func NewAllocateToChildUseCase(
	entryRepo ledger.Repository,
	campaignRepo campaign.Repository,
	partnerRepo partner.Repository,
	txMgr db.TxManager,
	publisher events.EventPublisher,
	logger logger.Interface,
) *AllocateToChildUseCase {
	return &AllocateToChildUseCase{
		entryRepo:    entryRepo,
		campaignRepo: campaignRepo,
		partnerRepo:  partnerRepo,
		txMgr:        txMgr,
		publisher:    publisher,
		logger:       logger,
	}
}

func (uc *AllocateToChildUseCase) Execute(ctx context.Context, cmd AllocateToChildCommand) (*AllocateToChildResult, error) {
	if cmd.Amount <= 0 {
		return nil, errors.NewValidationError("allocation amount must be positive")
	}

	child, err := uc.partnerRepo.GetBySID(ctx, cmd.ChildPartnerSID)
	if err != nil {
		uc.logger.Errorw("failed to get child partner", "error", err, "partner_sid", cmd.ChildPartnerSID)
		return nil, fmt.Errorf("failed to get child partner: %w", err)
	}
	if child == nil {
		return nil, errors.NewNotFoundError("child partner not found")
	}

	var source, childEntry *ledger.Entry
	err = runWithRetry(ctx, uc.txMgr, uc.logger, "allocate_to_child", func(txCtx context.Context) error {
		// Fresh load inside the transaction so a retry sees the
		// post-conflict state.
		var err error
		source, err = uc.entryRepo.GetBySID(txCtx, cmd.SourceEntrySID)
		if err != nil {
			return fmt.Errorf("failed to get source entry: %w", err)
		}
		if source == nil {
			return errors.NewNotFoundError("source ledger entry not found")
		}

		if !authorization.CanActForPartner(cmd.ActorPartnerID, cmd.ActorRole, source.PartnerID()) {
			return errors.NewForbiddenError("entry is not held by the calling partner")
		}
		// The tree is fixed at onboarding time; quota only flows along
		// existing parent-child edges.
		if !child.IsDirectChildOf(source.PartnerID()) {
			return errors.NewInvalidRelationshipError("target partner is not a direct child of the entry holder")
		}

		cmp, err := uc.campaignRepo.GetByID(txCtx, source.SourceCampaignID())
		if err != nil {
			return fmt.Errorf("failed to get campaign: %w", err)
		}
		if cmp == nil {
			return errors.NewNotFoundError("source campaign not found")
		}
		if !cmp.IsActive() {
			return errors.NewCampaignInactiveError("source campaign is not active")
		}

		if err := source.AllocateToChild(cmd.Amount); err != nil {
			return mapEntryErr(err)
		}
		if err := uc.entryRepo.Update(txCtx, source); err != nil {
			return err
		}

		childEntry, err = ledger.NewChildEntry(
			id.MustGenerateWithPrefix(id.PrefixLedgerEntry, id.DefaultLength),
			child.ID(), source.SourceCampaignID(), source.ID(), source.PartnerID(), cmd.Amount)
		if err != nil {
			return errors.NewValidationError(err.Error())
		}
		if err := uc.entryRepo.Create(txCtx, childEntry); err != nil {
			uc.logger.Errorw("failed to create child entry", "error", err, "source_entry_sid", cmd.SourceEntrySID)
			return fmt.Errorf("failed to create child entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := uc.publisher.Publish(ledger.NewQuotaAllocatedEvent(source, childEntry, cmd.Amount)); err != nil {
		uc.logger.Warnw("failed to publish quota allocated event", "error", err, "entry_sid", childEntry.SID())
	}

	uc.logger.Infow("quota allocated to child",
		"source_entry_sid", source.SID(), "child_entry_sid", childEntry.SID(),
		"child_partner_sid", child.SID(), "amount", cmd.Amount)
	return &AllocateToChildResult{ChildEntry: childEntry, SourceEntry: source}, nil
}

package usecases

import (
	"context"
	"fmt"

	"github.com/trellis-inc/trellis/internal/domain/campaign"
	"github.com/trellis-inc/trellis/internal/domain/ledger"
	"github.com/trellis-inc/trellis/internal/domain/partner"
	"github.com/trellis-inc/trellis/internal/domain/shared/events"
	"github.com/trellis-inc/trellis/internal/shared/db"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/id"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

type GrantRootCommand struct {
	CampaignSID string
	Amount      int64
}

type GrantRootResult struct {
	Entry *ledger.Entry
}

// GrantRootUseCase creates the root ledger entry for a campaign, handing
// the campaign's full grant to its owner partner. One root per campaign.
type GrantRootUseCase struct {
	entryRepo    ledger.Repository
	campaignRepo campaign.Repository
	partnerRepo  partner.Repository
	txMgr        db.TxManager
	publisher    events.EventPublisher
	logger       logger.Interface
}

func NewGrantRootUseCase(
	entryRepo ledger.Repository,
	campaignRepo campaign.Repository,
	partnerRepo partner.Repository,
	txMgr db.TxManager,
	publisher events.EventPublisher,
	logger logger.Interface,
) *GrantRootUseCase {
	return &GrantRootUseCase{
		entryRepo:    entryRepo,
		campaignRepo: campaignRepo,
		partnerRepo:  partnerRepo,
		txMgr:        txMgr,
		publisher:    publisher,
		logger:       logger,
	}
}

func (uc *GrantRootUseCase) Execute(ctx context.Context, cmd GrantRootCommand) (*GrantRootResult, error) {
	cmp, err := uc.campaignRepo.GetBySID(ctx, cmd.CampaignSID)
	if err != nil {
		uc.logger.Errorw("failed to get campaign", "error", err, "campaign_sid", cmd.CampaignSID)
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	if cmp == nil {
		return nil, errors.NewNotFoundError("campaign not found")
	}

	if !cmp.IsActive() {
		return nil, errors.NewCampaignInactiveError("campaign is not active")
	}
	if cmd.Amount != cmp.TotalAllocated() {
		return nil, errors.NewValidationError(
			fmt.Sprintf("grant amount %d must equal campaign total allocation %d", cmd.Amount, cmp.TotalAllocated()))
	}

	owner, err := uc.partnerRepo.GetByID(ctx, cmp.OwnerPartnerID())
	if err != nil {
		uc.logger.Errorw("failed to get owner partner", "error", err, "partner_id", cmp.OwnerPartnerID())
		return nil, fmt.Errorf("failed to get owner partner: %w", err)
	}
	if owner == nil {
		return nil, errors.NewNotFoundError("owner partner not found")
	}

	var entry *ledger.Entry
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		existing, err := uc.entryRepo.GetRootByCampaignID(txCtx, cmp.ID())
		if err != nil {
			return fmt.Errorf("failed to check existing root entry: %w", err)
		}
		if existing != nil {
			return errors.NewConflictError("campaign already has a root ledger entry")
		}

		entry, err = ledger.NewRootEntry(id.MustGenerateWithPrefix(id.PrefixLedgerEntry, id.DefaultLength), owner.ID(), cmp.ID(), cmd.Amount)
		if err != nil {
			return errors.NewValidationError(err.Error())
		}
		if err := uc.entryRepo.Create(txCtx, entry); err != nil {
			if errors.IsDuplicateError(err) {
				return errors.NewConflictError("campaign already has a root ledger entry")
			}
			uc.logger.Errorw("failed to create root entry", "error", err, "campaign_sid", cmd.CampaignSID)
			return fmt.Errorf("failed to create root entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := uc.publisher.Publish(ledger.NewQuotaGrantedEvent(entry)); err != nil {
		uc.logger.Warnw("failed to publish quota granted event", "error", err, "entry_sid", entry.SID())
	}

	uc.logger.Infow("root entry granted",
		"entry_sid", entry.SID(), "campaign_sid", cmp.SID(), "partner_sid", owner.SID(), "amount", cmd.Amount)
	return &GrantRootResult{Entry: entry}, nil
}

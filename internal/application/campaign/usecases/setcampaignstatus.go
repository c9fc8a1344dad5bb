package usecases

import (
	"context"
	"fmt"

	"github.com/trellis-inc/trellis/internal/domain/campaign"
	"github.com/trellis-inc/trellis/internal/domain/invitation"
	"github.com/trellis-inc/trellis/internal/domain/ledger"
	"github.com/trellis-inc/trellis/internal/domain/shared/events"
	"github.com/trellis-inc/trellis/internal/shared/db"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

type SetCampaignStatusCommand struct {
	CampaignSID string
	Status      campaign.Status
}

type SetCampaignStatusResult struct {
	Campaign *campaign.Campaign
}

// SetCampaignStatusUseCase moves a campaign through its lifecycle and
// cascades the change into the ledger tree: leaving active forces every
// entry tracing to the campaign out of circulation and deactivates the
// codes bound to them; returning to active brings expired entries back.
// The campaign write and the full cascade commit as one transaction.
type SetCampaignStatusUseCase struct {
	campaignRepo campaign.Repository
	entryRepo    ledger.Repository
	codeRepo     invitation.CodeRepository
	txMgr        db.TxManager
	publisher    events.EventPublisher
	logger       logger.Interface
}

func NewSetCampaignStatusUseCase(
	campaignRepo campaign.Repository,
	entryRepo ledger.Repository,
	codeRepo invitation.CodeRepository,
	txMgr db.TxManager,
	publisher events.EventPublisher,
	logger logger.Interface,
) *SetCampaignStatusUseCase {
	return &SetCampaignStatusUseCase{
		campaignRepo: campaignRepo,
		entryRepo:    entryRepo,
		codeRepo:     codeRepo,
		txMgr:        txMgr,
		publisher:    publisher,
		logger:       logger,
	}
}

func (uc *SetCampaignStatusUseCase) Execute(ctx context.Context, cmd SetCampaignStatusCommand) (*SetCampaignStatusResult, error) {
	if !campaign.ValidStatuses[cmd.Status] {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid campaign status: %s", cmd.Status))
	}

	var cmp *campaign.Campaign
	var oldStatus campaign.Status
	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		cmp, err = uc.campaignRepo.GetBySID(txCtx, cmd.CampaignSID)
		if err != nil {
			return fmt.Errorf("failed to get campaign: %w", err)
		}
		if cmp == nil {
			return errors.NewNotFoundError("campaign not found")
		}

		oldStatus = cmp.Status()
		if oldStatus == cmd.Status {
			return nil
		}
		if err := cmp.SetStatus(cmd.Status); err != nil {
			return errors.NewConflictError(err.Error())
		}
		if err := uc.campaignRepo.Update(txCtx, cmp); err != nil {
			return err
		}

		switch {
		case oldStatus == campaign.StatusActive:
			return uc.expireTree(txCtx, cmp.ID())
		case cmd.Status == campaign.StatusActive:
			return uc.reactivateTree(txCtx, cmp.ID())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if oldStatus != cmp.Status() {
		if err := uc.publisher.Publish(campaign.NewStatusChangedEvent(cmp, oldStatus)); err != nil {
			uc.logger.Warnw("failed to publish status changed event", "error", err, "campaign_sid", cmp.SID())
		}
	}

	uc.logger.Infow("campaign status changed",
		"campaign_sid", cmp.SID(), "old_status", oldStatus, "new_status", cmp.Status())
	return &SetCampaignStatusResult{Campaign: cmp}, nil
}

// expireTree forces every entry tracing to the campaign out of circulation
// and deactivates codes bound to them. Paused audit entries are untouched.
func (uc *SetCampaignStatusUseCase) expireTree(ctx context.Context, campaignID uint) error {
	entries, err := uc.entryRepo.GetByCampaignID(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("failed to load campaign entries: %w", err)
	}

	entryIDs := make([]uint, 0, len(entries))
	for _, entry := range entries {
		entryIDs = append(entryIDs, entry.ID())
		if entry.Status() == ledger.StatusExpired || entry.Status() == ledger.StatusPaused {
			continue
		}
		entry.MarkExpired()
		if err := uc.entryRepo.Update(ctx, entry); err != nil {
			return err
		}
	}

	if len(entryIDs) == 0 {
		return nil
	}
	codes, err := uc.codeRepo.GetByLedgerEntryIDs(ctx, entryIDs)
	if err != nil {
		return fmt.Errorf("failed to load codes bound to campaign entries: %w", err)
	}
	for _, code := range codes {
		if !code.IsActive() {
			continue
		}
		code.Deactivate()
		if err := uc.codeRepo.Update(ctx, code); err != nil {
			return fmt.Errorf("failed to deactivate code %s: %w", code.Value(), err)
		}
	}
	return nil
}

// reactivateTree returns the campaign's expired entries to circulation.
// Codes stay inactive until their owners rebind them.
func (uc *SetCampaignStatusUseCase) reactivateTree(ctx context.Context, campaignID uint) error {
	entries, err := uc.entryRepo.GetByCampaignID(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("failed to load campaign entries: %w", err)
	}
	for _, entry := range entries {
		if entry.Status() != ledger.StatusExpired {
			continue
		}
		if err := entry.Reactivate(); err != nil {
			return fmt.Errorf("failed to reactivate entry %s: %w", entry.SID(), err)
		}
		if err := uc.entryRepo.Update(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

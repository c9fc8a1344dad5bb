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
	"github.com/trellis-inc/trellis/internal/shared/id"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

type ConsumeCommand struct {
	CodeValue     string
	InvitedUserID uint
}

type ConsumeResult struct {
	Redemption *invitation.Redemption
	Entry      *ledger.Entry
}

// ConsumeUseCase spends one unit of quota through an invitation code: the
// entry increment and the redemption insert commit atomically. This is the
// highest-contention write in the engine; the optimistic version check on
// the entry guarantees two concurrent redemptions of the last unit cannot
// both succeed.
type ConsumeUseCase struct {
	entryRepo      ledger.Repository
	campaignRepo   campaign.Repository
	codeRepo       invitation.CodeRepository
	redemptionRepo invitation.RedemptionRepository
	txMgr          db.TxManager
	publisher      events.EventPublisher
	logger         logger.Interface
}

func NewConsumeUseCase(
	entryRepo ledger.Repository,
	campaignRepo campaign.Repository,
	codeRepo invitation.CodeRepository,
	redemptionRepo invitation.RedemptionRepository,
	txMgr db.TxManager,
	publisher events.EventPublisher,
	logger logger.Interface,
) *ConsumeUseCase {
	return &ConsumeUseCase{
		entryRepo:      entryRepo,
		campaignRepo:   campaignRepo,
		codeRepo:       codeRepo,
		redemptionRepo: redemptionRepo,
		txMgr:          txMgr,
		publisher:      publisher,
		logger:         logger,
	}
}

func (uc *ConsumeUseCase) Execute(ctx context.Context, cmd ConsumeCommand) (*ConsumeResult, error) {
	if cmd.InvitedUserID == 0 {
		return nil, errors.NewValidationError("invited user ID is required")
	}
	if cmd.CodeValue == "" {
		return nil, errors.NewValidationError("invitation code is required")
	}

	prior, err := uc.redemptionRepo.GetByInvitedUserID(ctx, cmd.InvitedUserID)
	if err != nil {
		uc.logger.Errorw("failed to check prior redemption", "error", err, "invited_user_id", cmd.InvitedUserID)
		return nil, fmt.Errorf("failed to check prior redemption: %w", err)
	}
	if prior != nil {
		return nil, errors.NewConflictError("user has already redeemed an invitation code")
	}

	var entry *ledger.Entry
	var redemption *invitation.Redemption
	err = runWithRetry(ctx, uc.txMgr, uc.logger, "consume", func(txCtx context.Context) error {
		code, err := uc.codeRepo.GetByValue(txCtx, cmd.CodeValue)
		if err != nil {
			return fmt.Errorf("failed to get invitation code: %w", err)
		}
		if code == nil {
			return errors.NewNotFoundError("invitation code not found")
		}
		if !code.IsActive() || code.CurrentLedgerEntryID() == nil {
			return errors.NewConflictError("invitation code is not active")
		}

		entry, err = uc.entryRepo.GetByID(txCtx, *code.CurrentLedgerEntryID())
		if err != nil {
			return fmt.Errorf("failed to get ledger entry: %w", err)
		}
		if entry == nil {
			return errors.NewNotFoundError("ledger entry not found")
		}

		cmp, err := uc.campaignRepo.GetByID(txCtx, entry.SourceCampaignID())
		if err != nil {
			return fmt.Errorf("failed to get campaign: %w", err)
		}
		if cmp == nil {
			return errors.NewNotFoundError("campaign not found")
		}
		if !cmp.IsActive() {
			return errors.NewCampaignInactiveError("campaign is not active")
		}

		if err := entry.Consume(); err != nil {
			return mapEntryErr(err)
		}
		if err := uc.entryRepo.Update(txCtx, entry); err != nil {
			return err
		}

		redemption, err = invitation.NewRedemption(
			id.MustGenerateWithPrefix(id.PrefixRedemption, id.DefaultLength),
			cmd.InvitedUserID, code.OwnerPartnerID(), code.ID(), entry.ID(), cmp.ID())
		if err != nil {
			return errors.NewValidationError(err.Error())
		}
		if err := uc.redemptionRepo.Create(txCtx, redemption); err != nil {
			if errors.IsDuplicateError(err) {
				return errors.NewConflictError("user has already redeemed an invitation code")
			}
			return fmt.Errorf("failed to create redemption: %w", err)
		}

		code.RecordUse()
		if err := uc.codeRepo.Update(txCtx, code); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := uc.publisher.Publish(ledger.NewQuotaConsumedEvent(entry, cmd.InvitedUserID)); err != nil {
		uc.logger.Warnw("failed to publish quota consumed event", "error", err, "entry_sid", entry.SID())
	}
	if entry.Status() == ledger.StatusExhausted {
		if err := uc.publisher.Publish(ledger.NewQuotaExhaustedEvent(entry)); err != nil {
			uc.logger.Warnw("failed to publish quota exhausted event", "error", err, "entry_sid", entry.SID())
		}
	}

	uc.logger.Infow("quota consumed",
		"redemption_sid", redemption.SID(), "entry_sid", entry.SID(),
		"invited_user_id", cmd.InvitedUserID, "remaining", entry.AvailableQuota())
	return &ConsumeResult{Redemption: redemption, Entry: entry}, nil
}

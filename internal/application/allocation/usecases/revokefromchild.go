package usecases

import (
	"context"
	"fmt"

	"github.com/trellis-inc/trellis/internal/domain/invitation"
	"github.com/trellis-inc/trellis/internal/domain/ledger"
	"github.com/trellis-inc/trellis/internal/domain/shared/events"
	"github.com/trellis-inc/trellis/internal/shared/authorization"
	"github.com/trellis-inc/trellis/internal/shared/db"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

type RevokeFromChildCommand struct {
	ChildEntrySID string
	// Amount of quota to reclaim. Zero with All unset is rejected.
	Amount int64
	// All reclaims everything still available on the child at commit time.
	All bool

	ActorPartnerID uint
	ActorRole      authorization.Role
}

type RevokeFromChildResult struct {
	ChildEntry    *ledger.Entry
	ParentEntry   *ledger.Entry
	RevokedAmount int64
}

// RevokeFromChildUseCase claws back a child entry's available quota into
// its parent entry. Only the direct grantor may revoke, and only quota the
// child has neither consumed nor re-allocated is reachable.
type RevokeFromChildUseCase struct {
	entryRepo ledger.Repository
	codeRepo  invitation.CodeRepository
	txMgr     db.TxManager
	publisher events.EventPublisher
	logger    logger.Interface
}

func NewRevokeFromChildUseCase(
	entryRepo ledger.Repository,
	codeRepo invitation.CodeRepository,
	txMgr db.TxManager,
	publisher events.EventPublisher,
	logger logger.Interface,
) *RevokeFromChildUseCase {
	return &RevokeFromChildUseCase{
		entryRepo: entryRepo,
		codeRepo:  codeRepo,
		txMgr:     txMgr,
		publisher: publisher,
		logger:    logger,
	}
}

func (uc *RevokeFromChildUseCase) Execute(ctx context.Context, cmd RevokeFromChildCommand) (*RevokeFromChildResult, error) {
	if !cmd.All && cmd.Amount <= 0 {
		return nil, errors.NewValidationError("revocation amount must be positive")
	}

	var childEntry, parentEntry *ledger.Entry
	var revoked int64
	err := runWithRetry(ctx, uc.txMgr, uc.logger, "revoke_from_child", func(txCtx context.Context) error {
		var err error
		childEntry, err = uc.entryRepo.GetBySID(txCtx, cmd.ChildEntrySID)
		if err != nil {
			return fmt.Errorf("failed to get child entry: %w", err)
		}
		if childEntry == nil {
			return errors.NewNotFoundError("child ledger entry not found")
		}
		if childEntry.IsRoot() {
			return errors.NewInvalidRelationshipError("root entries are granted by campaigns and cannot be revoked here")
		}

		if !authorization.CanActForPartner(cmd.ActorPartnerID, cmd.ActorRole, *childEntry.AllocatedByPartnerID()) {
			return errors.NewForbiddenError("only the granting partner may revoke this entry")
		}

		parentEntry, err = uc.entryRepo.GetByID(txCtx, *childEntry.SourceParentEntryID())
		if err != nil {
			return fmt.Errorf("failed to get parent entry: %w", err)
		}
		if parentEntry == nil {
			return errors.NewNotFoundError("parent ledger entry not found")
		}

		revoked = cmd.Amount
		if cmd.All {
			revoked = childEntry.AvailableQuota()
			if revoked == 0 {
				return errors.NewInsufficientQuotaError("child entry has no available quota to revoke")
			}
		}

		if err := parentEntry.ReclaimFromChild(revoked); err != nil {
			return errors.NewValidationError(err.Error())
		}
		if err := childEntry.Revoke(revoked); err != nil {
			return mapEntryErr(err)
		}

		// Parent before child, matching the allocation write order, so
		// concurrent engine operations contend in a fixed sequence.
		if err := uc.entryRepo.Update(txCtx, parentEntry); err != nil {
			return err
		}
		if err := uc.entryRepo.Update(txCtx, childEntry); err != nil {
			return err
		}

		if childEntry.Status() == ledger.StatusPaused {
			codes, err := uc.codeRepo.GetByLedgerEntryID(txCtx, childEntry.ID())
			if err != nil {
				return fmt.Errorf("failed to load codes bound to revoked entry: %w", err)
			}
			for _, code := range codes {
				code.Deactivate()
				if err := uc.codeRepo.Update(txCtx, code); err != nil {
					return fmt.Errorf("failed to deactivate code %s: %w", code.Value(), err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := uc.publisher.Publish(ledger.NewQuotaRevokedEvent(childEntry, parentEntry, revoked)); err != nil {
		uc.logger.Warnw("failed to publish quota revoked event", "error", err, "entry_sid", childEntry.SID())
	}

	uc.logger.Infow("quota revoked from child",
		"child_entry_sid", childEntry.SID(), "parent_entry_sid", parentEntry.SID(),
		"amount", revoked, "child_status", childEntry.Status())
	return &RevokeFromChildResult{ChildEntry: childEntry, ParentEntry: parentEntry, RevokedAmount: revoked}, nil
}

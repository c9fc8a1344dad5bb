package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/trellis-inc/trellis/internal/domain/campaign"
	"github.com/trellis-inc/trellis/internal/domain/ledger"
	"github.com/trellis-inc/trellis/internal/shared/db"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

type UpdateCampaignCommand struct {
	CampaignSID string

	// Nil fields are left untouched.
	TotalAllocated     *int64
	RenewalRequirement *int64
	StartDate          *time.Time
	EndDate            *time.Time
}

type UpdateCampaignResult struct {
	Campaign *campaign.Campaign
}

// UpdateCampaignUseCase edits a campaign's dates, renewal requirement, and
// total allocation. Allocation can only grow; a top-up is mirrored onto the
// campaign's root ledger entry in the same transaction so the root's total
// keeps matching the campaign ceiling.
type UpdateCampaignUseCase struct {
	campaignRepo campaign.Repository
	entryRepo    ledger.Repository
	txMgr        db.TxManager
	logger       logger.Interface
}

func NewUpdateCampaignUseCase(
	campaignRepo campaign.Repository,
	entryRepo ledger.Repository,
	txMgr db.TxManager,
	logger logger.Interface,
) *UpdateCampaignUseCase {
	return &UpdateCampaignUseCase{
		campaignRepo: campaignRepo,
		entryRepo:    entryRepo,
		txMgr:        txMgr,
		logger:       logger,
	}
}

func (uc *UpdateCampaignUseCase) Execute(ctx context.Context, cmd UpdateCampaignCommand) (*UpdateCampaignResult, error) {
	var cmp *campaign.Campaign
	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		cmp, err = uc.campaignRepo.GetBySID(txCtx, cmd.CampaignSID)
		if err != nil {
			return fmt.Errorf("failed to get campaign: %w", err)
		}
		if cmp == nil {
			return errors.NewNotFoundError("campaign not found")
		}
		if cmp.Status() == campaign.StatusDeleted {
			return errors.NewConflictError("campaign is deleted")
		}

		if cmd.StartDate != nil || cmd.EndDate != nil {
			start := cmp.StartDate()
			end := cmp.EndDate()
			if cmd.StartDate != nil {
				start = *cmd.StartDate
			}
			if cmd.EndDate != nil {
				end = *cmd.EndDate
			}
			if err := cmp.UpdateDates(start, end); err != nil {
				return errors.NewValidationError(err.Error())
			}
		}

		if cmd.RenewalRequirement != nil {
			if err := cmp.UpdateRenewalRequirement(*cmd.RenewalRequirement); err != nil {
				return errors.NewValidationError(err.Error())
			}
		}

		var topUp int64
		if cmd.TotalAllocated != nil {
			topUp = *cmd.TotalAllocated - cmp.TotalAllocated()
			if err := cmp.IncreaseAllocation(*cmd.TotalAllocated); err != nil {
				return errors.NewValidationError(err.Error())
			}
		}

		if err := uc.campaignRepo.Update(txCtx, cmp); err != nil {
			return err
		}

		if topUp > 0 {
			root, err := uc.entryRepo.GetRootByCampaignID(txCtx, cmp.ID())
			if err != nil {
				return fmt.Errorf("failed to get root entry: %w", err)
			}
			// No root yet means the campaign has not been granted; the
			// eventual grant picks up the new total.
			if root != nil {
				if err := root.IncreaseTotal(topUp); err != nil {
					return errors.NewValidationError(err.Error())
				}
				if err := uc.entryRepo.Update(txCtx, root); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("campaign updated", "campaign_sid", cmp.SID())
	return &UpdateCampaignResult{Campaign: cmp}, nil
}

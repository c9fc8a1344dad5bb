package usecases

import (
	"context"
	"fmt"

	"github.com/trellis-inc/trellis/internal/domain/invitation"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

type MarkConversionCommand struct {
	RedemptionSID string
}

type MarkConversionResult struct {
	Redemption *invitation.Redemption
}

// MarkConversionUseCase records that an invited user converted (renewed a
// paid subscription downstream). Idempotent; the first conversion timestamp
// is kept.
type MarkConversionUseCase struct {
	redemptionRepo invitation.RedemptionRepository
	logger         logger.Interface
}

func NewMarkConversionUseCase(redemptionRepo invitation.RedemptionRepository, logger logger.Interface) *MarkConversionUseCase {
	return &MarkConversionUseCase{redemptionRepo: redemptionRepo, logger: logger}
}

func (uc *MarkConversionUseCase) Execute(ctx context.Context, cmd MarkConversionCommand) (*MarkConversionResult, error) {
	redemption, err := uc.redemptionRepo.GetBySID(ctx, cmd.RedemptionSID)
	if err != nil {
		uc.logger.Errorw("failed to get redemption", "error", err, "redemption_sid", cmd.RedemptionSID)
		return nil, fmt.Errorf("failed to get redemption: %w", err)
	}
	if redemption == nil {
		return nil, errors.NewNotFoundError("redemption not found")
	}

	if !redemption.DidRenew() {
		redemption.MarkConverted()
		if err := uc.redemptionRepo.Update(ctx, redemption); err != nil {
			uc.logger.Errorw("failed to update redemption", "error", err, "redemption_sid", cmd.RedemptionSID)
			return nil, fmt.Errorf("failed to update redemption: %w", err)
		}
		uc.logger.Infow("redemption marked converted", "redemption_sid", redemption.SID())
	}

	return &MarkConversionResult{Redemption: redemption}, nil
}

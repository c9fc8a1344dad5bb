// Package usecases implements partner onboarding and directory reads. The
// tree is fixed at onboarding: a partner's parent never changes afterwards.
package usecases

import (
	"context"
	"fmt"

	"github.com/trellis-inc/trellis/internal/domain/invitation"
	"github.com/trellis-inc/trellis/internal/domain/partner"
	"github.com/trellis-inc/trellis/internal/shared/db"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/id"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

type CreatePartnerCommand struct {
	Name string
	// ParentSID empty creates a top-level partner.
	ParentSID string
}

type CreatePartnerResult struct {
	Partner *partner.Partner
	Code    *invitation.Code
}

// CreatePartnerUseCase onboards a partner node and mints its invitation
// code in one transaction. The code starts inactive; it becomes usable once
// the partner holds quota and activates it.
type CreatePartnerUseCase struct {
	partnerRepo partner.Repository
	codeRepo    invitation.CodeRepository
	txMgr       db.TxManager
	logger      logger.Interface
}

func NewCreatePartnerUseCase(
	partnerRepo partner.Repository,
	codeRepo invitation.CodeRepository,
	txMgr db.TxManager,
	logger logger.Interface,
) *CreatePartnerUseCase {
	return &CreatePartnerUseCase{
		partnerRepo: partnerRepo,
		codeRepo:    codeRepo,
		txMgr:       txMgr,
		logger:      logger,
	}
}

func (uc *CreatePartnerUseCase) Execute(ctx context.Context, cmd CreatePartnerCommand) (*CreatePartnerResult, error) {
	if cmd.Name == "" {
		return nil, errors.NewValidationError("partner name is required")
	}

	var parent *partner.Partner
	if cmd.ParentSID != "" {
		var err error
		parent, err = uc.partnerRepo.GetBySID(ctx, cmd.ParentSID)
		if err != nil {
			uc.logger.Errorw("failed to get parent partner", "error", err, "parent_sid", cmd.ParentSID)
			return nil, fmt.Errorf("failed to get parent partner: %w", err)
		}
		if parent == nil {
			return nil, errors.NewNotFoundError("parent partner not found")
		}
	}

	p, err := partner.NewPartner(id.MustGenerateWithPrefix(id.PrefixPartner, id.DefaultLength), cmd.Name, parent)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	var code *invitation.Code
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.partnerRepo.Create(txCtx, p); err != nil {
			uc.logger.Errorw("failed to create partner", "error", err, "name", cmd.Name)
			return fmt.Errorf("failed to create partner: %w", err)
		}

		code, err = invitation.NewCode(id.MustGenerate(id.CodeLength), p.ID())
		if err != nil {
			return errors.NewValidationError(err.Error())
		}
		if err := uc.codeRepo.Create(txCtx, code); err != nil {
			if errors.IsDuplicateError(err) {
				return errors.NewConflictError("generated invitation code collided, retry the request")
			}
			uc.logger.Errorw("failed to create invitation code", "error", err, "partner_sid", p.SID())
			return fmt.Errorf("failed to create invitation code: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("partner onboarded",
		"partner_sid", p.SID(), "level", p.Level(), "code", code.Value())
	return &CreatePartnerResult{Partner: p, Code: code}, nil
}

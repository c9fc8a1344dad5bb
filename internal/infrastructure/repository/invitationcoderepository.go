package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/trellis-inc/trellis/internal/domain/invitation"
	"github.com/trellis-inc/trellis/internal/infrastructure/persistence/models"
	"github.com/trellis-inc/trellis/internal/shared/db"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

// InvitationCodeRepositoryImpl implements the invitation.CodeRepository interface
type InvitationCodeRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewInvitationCodeRepository creates a new invitation code repository instance
func NewInvitationCodeRepository(db *gorm.DB, logger logger.Interface) invitation.CodeRepository {
	return &InvitationCodeRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Create persists a new invitation code
func (r *InvitationCodeRepositoryImpl) Create(ctx context.Context, code *invitation.Code) error {
	model := &models.InvitationCodeModel{
		Code:                 code.Value(),
		OwnerPartnerID:       code.OwnerPartnerID(),
		CurrentLedgerEntryID: code.CurrentLedgerEntryID(),
		Status:               string(code.Status()),
		TotalCumulativeUses:  code.TotalCumulativeUses(),
		Version:              code.Version(),
		CreatedAt:            code.CreatedAt(),
		UpdatedAt:            code.UpdatedAt(),
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("invitation code already exists")
		}
		r.logger.Errorw("failed to create invitation code", "owner_partner_id", code.OwnerPartnerID(), "error", err)
		return fmt.Errorf("failed to create invitation code: %w", err)
	}

	if err := code.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set invitation code ID", "error", err)
		return fmt.Errorf("failed to set invitation code ID: %w", err)
	}

	r.logger.Infow("invitation code created", "id", model.ID, "owner_partner_id", model.OwnerPartnerID)
	return nil
}

// GetByID retrieves a code by internal ID, nil when not found
func (r *InvitationCodeRepositoryImpl) GetByID(ctx context.Context, id uint) (*invitation.Code, error) {
	var model models.InvitationCodeModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get invitation code by ID", "error", err, "code_id", id)
		return nil, fmt.Errorf("failed to get invitation code: %w", err)
	}

	return r.toEntity(&model)
}

// GetByValue retrieves a code by its shareable token, nil when not found
func (r *InvitationCodeRepositoryImpl) GetByValue(ctx context.Context, value string) (*invitation.Code, error) {
	var model models.InvitationCodeModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).Where("code = ?", value).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get invitation code by value", "error", err)
		return nil, fmt.Errorf("failed to get invitation code: %w", err)
	}

	return r.toEntity(&model)
}

// Update persists code state guarded by the optimistic version
func (r *InvitationCodeRepositoryImpl) Update(ctx context.Context, code *invitation.Code) error {
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.WithContext(ctx).Model(&models.InvitationCodeModel{}).
		Where("id = ? AND version = ?", code.ID(), code.Version()).
		Updates(map[string]interface{}{
			"current_ledger_entry_id": code.CurrentLedgerEntryID(),
			"status":                  string(code.Status()),
			"total_cumulative_uses":   code.TotalCumulativeUses(),
			"version":                 code.Version() + 1,
			"updated_at":              code.UpdatedAt(),
		})

	if result.Error != nil {
		r.logger.Errorw("failed to update invitation code", "id", code.ID(), "error", result.Error)
		return fmt.Errorf("failed to update invitation code: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewTransactionAbortedError("invitation code was modified concurrently")
	}

	r.logger.Infow("invitation code updated", "id", code.ID(), "status", code.Status())
	return nil
}

// GetByPartnerID retrieves all codes owned by a partner
func (r *InvitationCodeRepositoryImpl) GetByPartnerID(ctx context.Context, partnerID uint) ([]*invitation.Code, error) {
	var codeModels []*models.InvitationCodeModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).
		Where("owner_partner_id = ?", partnerID).
		Order("created_at ASC").
		Find(&codeModels).Error; err != nil {
		r.logger.Errorw("failed to get invitation codes by partner", "error", err, "partner_id", partnerID)
		return nil, fmt.Errorf("failed to get invitation codes: %w", err)
	}

	return r.toEntities(codeModels)
}

// GetByLedgerEntryID retrieves the codes currently pointing at an entry
func (r *InvitationCodeRepositoryImpl) GetByLedgerEntryID(ctx context.Context, ledgerEntryID uint) ([]*invitation.Code, error) {
	var codeModels []*models.InvitationCodeModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).
		Where("current_ledger_entry_id = ?", ledgerEntryID).
		Find(&codeModels).Error; err != nil {
		r.logger.Errorw("failed to get invitation codes by ledger entry", "error", err, "ledger_entry_id", ledgerEntryID)
		return nil, fmt.Errorf("failed to get invitation codes: %w", err)
	}

	return r.toEntities(codeModels)
}

// GetByLedgerEntryIDs is the batch variant used by status cascades
func (r *InvitationCodeRepositoryImpl) GetByLedgerEntryIDs(ctx context.Context, ledgerEntryIDs []uint) ([]*invitation.Code, error) {
	if len(ledgerEntryIDs) == 0 {
		return []*invitation.Code{}, nil
	}

	var codeModels []*models.InvitationCodeModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).
		Where("current_ledger_entry_id IN ?", ledgerEntryIDs).
		Find(&codeModels).Error; err != nil {
		r.logger.Errorw("failed to get invitation codes by ledger entries", "error", err)
		return nil, fmt.Errorf("failed to get invitation codes: %w", err)
	}

	return r.toEntities(codeModels)
}

func (r *InvitationCodeRepositoryImpl) toEntity(model *models.InvitationCodeModel) (*invitation.Code, error) {
	code, err := invitation.ReconstructCode(
		model.ID,
		model.Code,
		model.OwnerPartnerID,
		model.CurrentLedgerEntryID,
		invitation.CodeStatus(model.Status),
		model.TotalCumulativeUses,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct invitation code %d: %w", model.ID, err)
	}
	return code, nil
}

func (r *InvitationCodeRepositoryImpl) toEntities(codeModels []*models.InvitationCodeModel) ([]*invitation.Code, error) {
	codes := make([]*invitation.Code, 0, len(codeModels))
	for _, model := range codeModels {
		code, err := r.toEntity(model)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}

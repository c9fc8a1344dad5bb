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

// RedemptionRepositoryImpl implements the invitation.RedemptionRepository interface
type RedemptionRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewRedemptionRepository creates a new redemption repository instance
func NewRedemptionRepository(db *gorm.DB, logger logger.Interface) invitation.RedemptionRepository {
	return &RedemptionRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Create persists a new redemption. The unique index on the invited user
// rejects a second redemption by the same user at the database level.
func (r *RedemptionRepositoryImpl) Create(ctx context.Context, redemption *invitation.Redemption) error {
	model := &models.RedemptionModel{
		SID:              redemption.SID(),
		InvitedUserID:    redemption.InvitedUserID(),
		InviterPartnerID: redemption.InviterPartnerID(),
		InvitationCodeID: redemption.InvitationCodeID(),
		LedgerEntryID:    redemption.LedgerEntryID(),
		RootCampaignID:   redemption.RootCampaignID(),
		DidRenew:         redemption.DidRenew(),
		RenewedAt:        redemption.RenewedAt(),
		RedeemedAt:       redemption.RedeemedAt(),
		CreatedAt:        redemption.CreatedAt(),
		UpdatedAt:        redemption.UpdatedAt(),
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("user has already redeemed an invitation")
		}
		r.logger.Errorw("failed to create redemption",
			"invited_user_id", redemption.InvitedUserID(),
			"error", err)
		return fmt.Errorf("failed to create redemption: %w", err)
	}

	if err := redemption.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set redemption ID", "error", err)
		return fmt.Errorf("failed to set redemption ID: %w", err)
	}

	r.logger.Infow("redemption created",
		"id", model.ID,
		"sid", model.SID,
		"invited_user_id", model.InvitedUserID,
		"inviter_partner_id", model.InviterPartnerID)
	return nil
}

// GetByID retrieves a redemption by internal ID, nil when not found
func (r *RedemptionRepositoryImpl) GetByID(ctx context.Context, id uint) (*invitation.Redemption, error) {
	var model models.RedemptionModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get redemption by ID", "error", err, "redemption_id", id)
		return nil, fmt.Errorf("failed to get redemption: %w", err)
	}

	return r.toEntity(&model)
}

// GetBySID retrieves a redemption by external SID, nil when not found
func (r *RedemptionRepositoryImpl) GetBySID(ctx context.Context, sid string) (*invitation.Redemption, error) {
	var model models.RedemptionModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get redemption by SID", "error", err, "sid", sid)
		return nil, fmt.Errorf("failed to get redemption: %w", err)
	}

	return r.toEntity(&model)
}

// Update persists conversion state for a redemption
func (r *RedemptionRepositoryImpl) Update(ctx context.Context, redemption *invitation.Redemption) error {
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.WithContext(ctx).Model(&models.RedemptionModel{}).
		Where("id = ?", redemption.ID()).
		Updates(map[string]interface{}{
			"did_renew":  redemption.DidRenew(),
			"renewed_at": redemption.RenewedAt(),
			"updated_at": redemption.UpdatedAt(),
		})

	if result.Error != nil {
		r.logger.Errorw("failed to update redemption", "id", redemption.ID(), "error", result.Error)
		return fmt.Errorf("failed to update redemption: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("redemption not found")
	}

	r.logger.Infow("redemption updated", "id", redemption.ID(), "did_renew", redemption.DidRenew())
	return nil
}

// GetByInvitedUserID retrieves a prior redemption by the end user, nil when
// the user has not redeemed before
func (r *RedemptionRepositoryImpl) GetByInvitedUserID(ctx context.Context, invitedUserID uint) (*invitation.Redemption, error) {
	var model models.RedemptionModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).Where("invited_user_id = ?", invitedUserID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get redemption by invited user", "error", err, "invited_user_id", invitedUserID)
		return nil, fmt.Errorf("failed to get redemption: %w", err)
	}

	return r.toEntity(&model)
}

// CountStats returns invitation and conversion totals for the given partners
func (r *RedemptionRepositoryImpl) CountStats(ctx context.Context, filter invitation.StatsFilter) (int64, int64, error) {
	if len(filter.InviterPartnerIDs) == 0 {
		return 0, 0, nil
	}

	// Each count gets a fresh builder; GORM accumulates conditions on a
	// reused statement.
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.RedemptionModel{}).
			Where("inviter_partner_id IN ?", filter.InviterPartnerIDs)
		if filter.RootCampaignID != nil {
			query = query.Where("root_campaign_id = ?", *filter.RootCampaignID)
		}
		if filter.From != nil {
			query = query.Where("redeemed_at >= ?", *filter.From)
		}
		if filter.To != nil {
			query = query.Where("redeemed_at < ?", *filter.To)
		}
		return query
	}

	var invitations int64
	if err := scoped().Count(&invitations).Error; err != nil {
		r.logger.Errorw("failed to count invitations", "error", err)
		return 0, 0, fmt.Errorf("failed to count invitations: %w", err)
	}

	var conversions int64
	if err := scoped().Where("did_renew = ?", true).Count(&conversions).Error; err != nil {
		r.logger.Errorw("failed to count conversions", "error", err)
		return 0, 0, fmt.Errorf("failed to count conversions: %w", err)
	}

	return invitations, conversions, nil
}

// List retrieves redemptions matching the filter with pagination
func (r *RedemptionRepositoryImpl) List(ctx context.Context, filter invitation.ListFilter) ([]*invitation.Redemption, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.RedemptionModel{})

	if filter.InviterPartnerID != nil {
		query = query.Where("inviter_partner_id = ?", *filter.InviterPartnerID)
	}
	if filter.RootCampaignID != nil {
		query = query.Where("root_campaign_id = ?", *filter.RootCampaignID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		r.logger.Errorw("failed to count redemptions", "error", err)
		return nil, 0, fmt.Errorf("failed to count redemptions: %w", err)
	}

	var redemptionModels []*models.RedemptionModel
	offset := (filter.Page - 1) * filter.PageSize
	if err := query.
		Order("redeemed_at DESC").
		Offset(offset).
		Limit(filter.PageSize).
		Find(&redemptionModels).Error; err != nil {
		r.logger.Errorw("failed to list redemptions", "error", err)
		return nil, 0, fmt.Errorf("failed to list redemptions: %w", err)
	}

	redemptions := make([]*invitation.Redemption, 0, len(redemptionModels))
	for _, model := range redemptionModels {
		redemption, err := r.toEntity(model)
		if err != nil {
			return nil, 0, err
		}
		redemptions = append(redemptions, redemption)
	}
	return redemptions, total, nil
}

func (r *RedemptionRepositoryImpl) toEntity(model *models.RedemptionModel) (*invitation.Redemption, error) {
	redemption, err := invitation.ReconstructRedemption(
		model.ID,
		model.SID,
		model.InvitedUserID,
		model.InviterPartnerID,
		model.InvitationCodeID,
		model.LedgerEntryID,
		model.RootCampaignID,
		model.DidRenew,
		model.RenewedAt,
		model.RedeemedAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct redemption %d: %w", model.ID, err)
	}
	return redemption, nil
}

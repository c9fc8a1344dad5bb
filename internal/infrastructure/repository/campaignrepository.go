package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/trellis-inc/trellis/internal/domain/campaign"
	"github.com/trellis-inc/trellis/internal/infrastructure/persistence/models"
	"github.com/trellis-inc/trellis/internal/shared/db"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

// CampaignRepositoryImpl implements the campaign.Repository interface
type CampaignRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewCampaignRepository creates a new campaign repository instance
func NewCampaignRepository(db *gorm.DB, logger logger.Interface) campaign.Repository {
	return &CampaignRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Create persists a new campaign
func (r *CampaignRepositoryImpl) Create(ctx context.Context, c *campaign.Campaign) error {
	model := &models.CampaignModel{
		SID:                c.SID(),
		OwnerPartnerID:     c.OwnerPartnerID(),
		TotalAllocated:     c.TotalAllocated(),
		RenewalRequirement: c.RenewalRequirement(),
		Status:             string(c.Status()),
		StartDate:          c.StartDate(),
		EndDate:            c.EndDate(),
		Version:            c.Version(),
		CreatedAt:          c.CreatedAt(),
		UpdatedAt:          c.UpdatedAt(),
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("campaign already exists")
		}
		r.logger.Errorw("failed to create campaign", "sid", c.SID(), "error", err)
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	if err := c.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set campaign ID", "error", err)
		return fmt.Errorf("failed to set campaign ID: %w", err)
	}

	r.logger.Infow("campaign created", "id", model.ID, "sid", model.SID, "total_allocated", model.TotalAllocated)
	return nil
}

// GetByID retrieves a campaign by internal ID, nil when not found
func (r *CampaignRepositoryImpl) GetByID(ctx context.Context, id uint) (*campaign.Campaign, error) {
	var model models.CampaignModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get campaign by ID", "error", err, "campaign_id", id)
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return r.toEntity(&model)
}

// GetBySID retrieves a campaign by external SID, nil when not found
func (r *CampaignRepositoryImpl) GetBySID(ctx context.Context, sid string) (*campaign.Campaign, error) {
	var model models.CampaignModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get campaign by SID", "error", err, "sid", sid)
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return r.toEntity(&model)
}

// Update persists campaign changes guarded by the optimistic version. The
// row is written only when the stored version still matches the version the
// aggregate was loaded at; a mismatch aborts the surrounding transaction so
// the use case can retry.
func (r *CampaignRepositoryImpl) Update(ctx context.Context, c *campaign.Campaign) error {
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.WithContext(ctx).Model(&models.CampaignModel{}).
		Where("id = ? AND version = ?", c.ID(), c.Version()).
		Updates(map[string]interface{}{
			"total_allocated":     c.TotalAllocated(),
			"renewal_requirement": c.RenewalRequirement(),
			"status":              string(c.Status()),
			"start_date":          c.StartDate(),
			"end_date":            c.EndDate(),
			"version":             c.Version() + 1,
			"updated_at":          c.UpdatedAt(),
		})

	if result.Error != nil {
		r.logger.Errorw("failed to update campaign", "id", c.ID(), "error", result.Error)
		return fmt.Errorf("failed to update campaign: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewTransactionAbortedError("campaign was modified concurrently")
	}

	r.logger.Infow("campaign updated", "id", c.ID(), "status", c.Status())
	return nil
}

// List retrieves campaigns matching the filter with pagination
func (r *CampaignRepositoryImpl) List(ctx context.Context, filter campaign.Filter) ([]*campaign.Campaign, int64, error) {
	query := db.GetTxFromContext(ctx, r.db).WithContext(ctx).Model(&models.CampaignModel{})

	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.OwnerPartnerID != nil {
		query = query.Where("owner_partner_id = ?", *filter.OwnerPartnerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		r.logger.Errorw("failed to count campaigns", "error", err)
		return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
	}

	var campaignModels []*models.CampaignModel
	offset := (filter.Page - 1) * filter.PageSize
	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.PageSize).
		Find(&campaignModels).Error; err != nil {
		r.logger.Errorw("failed to list campaigns", "error", err)
		return nil, 0, fmt.Errorf("failed to list campaigns: %w", err)
	}

	campaigns, err := r.toEntities(campaignModels)
	if err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

// FindExpiring retrieves active campaigns ending within the next `days` days
func (r *CampaignRepositoryImpl) FindExpiring(ctx context.Context, days int) ([]*campaign.Campaign, error) {
	now := time.Now()
	cutoff := now.AddDate(0, 0, days)

	var campaignModels []*models.CampaignModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND end_date > ? AND end_date <= ?", string(campaign.StatusActive), now, cutoff).
		Find(&campaignModels).Error; err != nil {
		r.logger.Errorw("failed to find expiring campaigns", "error", err, "days", days)
		return nil, fmt.Errorf("failed to find expiring campaigns: %w", err)
	}

	return r.toEntities(campaignModels)
}

// FindPastEndDate retrieves active campaigns whose window has closed
func (r *CampaignRepositoryImpl) FindPastEndDate(ctx context.Context) ([]*campaign.Campaign, error) {
	var campaignModels []*models.CampaignModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND end_date <= ?", string(campaign.StatusActive), time.Now()).
		Find(&campaignModels).Error; err != nil {
		r.logger.Errorw("failed to find campaigns past end date", "error", err)
		return nil, fmt.Errorf("failed to find campaigns past end date: %w", err)
	}

	return r.toEntities(campaignModels)
}

func (r *CampaignRepositoryImpl) toEntity(model *models.CampaignModel) (*campaign.Campaign, error) {
	c, err := campaign.ReconstructCampaign(
		model.ID,
		model.SID,
		model.OwnerPartnerID,
		model.TotalAllocated,
		model.RenewalRequirement,
		campaign.Status(model.Status),
		model.StartDate,
		model.EndDate,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct campaign %d: %w", model.ID, err)
	}
	return c, nil
}

func (r *CampaignRepositoryImpl) toEntities(campaignModels []*models.CampaignModel) ([]*campaign.Campaign, error) {
	campaigns := make([]*campaign.Campaign, 0, len(campaignModels))
	for _, model := range campaignModels {
		c, err := r.toEntity(model)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, nil
}

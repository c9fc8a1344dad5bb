package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/trellis-inc/trellis/internal/domain/partner"
	"github.com/trellis-inc/trellis/internal/infrastructure/persistence/models"
	"github.com/trellis-inc/trellis/internal/shared/db"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

// PartnerRepositoryImpl implements the partner.Repository interface
type PartnerRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewPartnerRepository creates a new partner repository instance
func NewPartnerRepository(db *gorm.DB, logger logger.Interface) partner.Repository {
	return &PartnerRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Create persists a new partner node
func (r *PartnerRepositoryImpl) Create(ctx context.Context, p *partner.Partner) error {
	path, err := json.Marshal(p.AncestorPath())
	if err != nil {
		return fmt.Errorf("failed to marshal ancestor path: %w", err)
	}

	model := &models.PartnerModel{
		SID:          p.SID(),
		Name:         p.Name(),
		ParentID:     p.ParentID(),
		Level:        p.Level(),
		AncestorPath: datatypes.JSON(path),
		CreatedAt:    p.CreatedAt(),
		UpdatedAt:    p.UpdatedAt(),
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("partner already exists")
		}
		r.logger.Errorw("failed to create partner", "sid", p.SID(), "error", err)
		return fmt.Errorf("failed to create partner: %w", err)
	}

	if err := p.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set partner ID", "error", err)
		return fmt.Errorf("failed to set partner ID: %w", err)
	}

	r.logger.Infow("partner created", "id", model.ID, "sid", model.SID, "level", model.Level)
	return nil
}

// GetByID retrieves a partner by internal ID, nil when not found
func (r *PartnerRepositoryImpl) GetByID(ctx context.Context, id uint) (*partner.Partner, error) {
	var model models.PartnerModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get partner by ID", "error", err, "partner_id", id)
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}

	return r.toEntity(&model)
}

// GetBySID retrieves a partner by external SID, nil when not found
func (r *PartnerRepositoryImpl) GetBySID(ctx context.Context, sid string) (*partner.Partner, error) {
	var model models.PartnerModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get partner by SID", "error", err, "sid", sid)
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}

	return r.toEntity(&model)
}

// GetChildren retrieves the direct children of a partner
func (r *PartnerRepositoryImpl) GetChildren(ctx context.Context, parentID uint) ([]*partner.Partner, error) {
	var partnerModels []*models.PartnerModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&partnerModels).Error; err != nil {
		r.logger.Errorw("failed to get partner children", "error", err, "parent_id", parentID)
		return nil, fmt.Errorf("failed to get partner children: %w", err)
	}

	return r.toEntities(partnerModels)
}

// GetSubtree retrieves every descendant of a partner via ancestor-path
// containment. The partner itself is excluded.
func (r *PartnerRepositoryImpl) GetSubtree(ctx context.Context, partnerID uint) ([]*partner.Partner, error) {
	var partnerModels []*models.PartnerModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).
		Where(datatypes.JSONArrayQuery("ancestor_path").Contains(partnerID)).
		Order("level ASC, created_at ASC").
		Find(&partnerModels).Error; err != nil {
		r.logger.Errorw("failed to get partner subtree", "error", err, "partner_id", partnerID)
		return nil, fmt.Errorf("failed to get partner subtree: %w", err)
	}

	return r.toEntities(partnerModels)
}

// List retrieves partners matching the filter with pagination
func (r *PartnerRepositoryImpl) List(ctx context.Context, filter partner.Filter) ([]*partner.Partner, int64, error) {
	query := db.GetTxFromContext(ctx, r.db).WithContext(ctx).Model(&models.PartnerModel{})

	if filter.ParentID != nil {
		query = query.Where("parent_id = ?", *filter.ParentID)
	}
	if filter.Level != nil {
		query = query.Where("level = ?", *filter.Level)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		r.logger.Errorw("failed to count partners", "error", err)
		return nil, 0, fmt.Errorf("failed to count partners: %w", err)
	}

	var partnerModels []*models.PartnerModel
	offset := (filter.Page - 1) * filter.PageSize
	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.PageSize).
		Find(&partnerModels).Error; err != nil {
		r.logger.Errorw("failed to list partners", "error", err)
		return nil, 0, fmt.Errorf("failed to list partners: %w", err)
	}

	partners, err := r.toEntities(partnerModels)
	if err != nil {
		return nil, 0, err
	}
	return partners, total, nil
}

func (r *PartnerRepositoryImpl) toEntity(model *models.PartnerModel) (*partner.Partner, error) {
	var path []uint
	if len(model.AncestorPath) > 0 {
		if err := json.Unmarshal(model.AncestorPath, &path); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ancestor path for partner %d: %w", model.ID, err)
		}
	}

	p, err := partner.ReconstructPartner(
		model.ID,
		model.SID,
		model.Name,
		model.ParentID,
		model.Level,
		path,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct partner %d: %w", model.ID, err)
	}
	return p, nil
}

func (r *PartnerRepositoryImpl) toEntities(partnerModels []*models.PartnerModel) ([]*partner.Partner, error) {
	partners := make([]*partner.Partner, 0, len(partnerModels))
	for _, model := range partnerModels {
		p, err := r.toEntity(model)
		if err != nil {
			return nil, err
		}
		partners = append(partners, p)
	}
	return partners, nil
}

package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/trellis-inc/trellis/internal/domain/ledger"
	"github.com/trellis-inc/trellis/internal/infrastructure/persistence/models"
	"github.com/trellis-inc/trellis/internal/shared/db"
	"github.com/trellis-inc/trellis/internal/shared/errors"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

// LedgerEntryRepositoryImpl implements the ledger.Repository interface
type LedgerEntryRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewLedgerEntryRepository creates a new ledger entry repository instance
func NewLedgerEntryRepository(db *gorm.DB, logger logger.Interface) ledger.Repository {
	return &LedgerEntryRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Create persists a new ledger entry
func (r *LedgerEntryRepositoryImpl) Create(ctx context.Context, entry *ledger.Entry) error {
	model := &models.LedgerEntryModel{
		SID:                  entry.SID(),
		PartnerID:            entry.PartnerID(),
		SourceCampaignID:     entry.SourceCampaignID(),
		SourceParentEntryID:  entry.SourceParentEntryID(),
		AllocatedByPartnerID: entry.AllocatedByPartnerID(),
		TotalAllocated:       entry.TotalAllocated(),
		ConsumedByOwnInvites: entry.ConsumedByOwnInvites(),
		AllocatedToChildren:  entry.AllocatedToChildren(),
		Status:               string(entry.Status()),
		Version:              entry.Version(),
		CreatedAt:            entry.CreatedAt(),
		UpdatedAt:            entry.UpdatedAt(),
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("ledger entry already exists")
		}
		r.logger.Errorw("failed to create ledger entry", "sid", entry.SID(), "error", err)
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}

	if err := entry.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set ledger entry ID", "error", err)
		return fmt.Errorf("failed to set ledger entry ID: %w", err)
	}

	r.logger.Infow("ledger entry created",
		"id", model.ID,
		"sid", model.SID,
		"partner_id", model.PartnerID,
		"total_allocated", model.TotalAllocated)
	return nil
}

// GetByID retrieves an entry by internal ID, nil when not found
func (r *LedgerEntryRepositoryImpl) GetByID(ctx context.Context, id uint) (*ledger.Entry, error) {
	var model models.LedgerEntryModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get ledger entry by ID", "error", err, "entry_id", id)
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	return r.toEntity(&model)
}

// GetBySID retrieves an entry by external SID, nil when not found
func (r *LedgerEntryRepositoryImpl) GetBySID(ctx context.Context, sid string) (*ledger.Entry, error) {
	var model models.LedgerEntryModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get ledger entry by SID", "error", err, "sid", sid)
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	return r.toEntity(&model)
}

// Update persists entry counters guarded by the optimistic version. A stale
// version writes zero rows and surfaces as a transaction-aborted error so
// the caller retries against fresh state.
func (r *LedgerEntryRepositoryImpl) Update(ctx context.Context, entry *ledger.Entry) error {
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.WithContext(ctx).Model(&models.LedgerEntryModel{}).
		Where("id = ? AND version = ?", entry.ID(), entry.Version()).
		Updates(map[string]interface{}{
			"total_allocated":         entry.TotalAllocated(),
			"consumed_by_own_invites": entry.ConsumedByOwnInvites(),
			"allocated_to_children":   entry.AllocatedToChildren(),
			"status":                  string(entry.Status()),
			"version":                 entry.Version() + 1,
			"updated_at":              entry.UpdatedAt(),
		})

	if result.Error != nil {
		r.logger.Errorw("failed to update ledger entry", "id", entry.ID(), "error", result.Error)
		return fmt.Errorf("failed to update ledger entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewTransactionAbortedError("ledger entry was modified concurrently")
	}

	r.logger.Infow("ledger entry updated", "id", entry.ID(), "status", entry.Status())
	return nil
}

// GetRootByCampaignID retrieves the campaign's root entry, nil when the
// grant has not been issued yet
func (r *LedgerEntryRepositoryImpl) GetRootByCampaignID(ctx context.Context, campaignID uint) (*ledger.Entry, error) {
	var model models.LedgerEntryModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).
		Where("source_campaign_id = ? AND source_parent_entry_id IS NULL", campaignID).
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get root ledger entry", "error", err, "campaign_id", campaignID)
		return nil, fmt.Errorf("failed to get root ledger entry: %w", err)
	}

	return r.toEntity(&model)
}

// GetByPartnerID retrieves all entries held by a partner, oldest first
func (r *LedgerEntryRepositoryImpl) GetByPartnerID(ctx context.Context, partnerID uint) ([]*ledger.Entry, error) {
	var entryModels []*models.LedgerEntryModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("created_at ASC").
		Find(&entryModels).Error; err != nil {
		r.logger.Errorw("failed to get ledger entries by partner", "error", err, "partner_id", partnerID)
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}

	return r.toEntities(entryModels)
}

// GetActiveByPartnerID retrieves the partner's drawable entries ordered by
// creation time ascending, so callers drain the oldest grant first
func (r *LedgerEntryRepositoryImpl) GetActiveByPartnerID(ctx context.Context, partnerID uint) ([]*ledger.Entry, error) {
	var entryModels []*models.LedgerEntryModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).
		Where("partner_id = ? AND status = ? AND consumed_by_own_invites + allocated_to_children < total_allocated",
			partnerID, string(ledger.StatusActive)).
		Order("created_at ASC").
		Find(&entryModels).Error; err != nil {
		r.logger.Errorw("failed to get active ledger entries", "error", err, "partner_id", partnerID)
		return nil, fmt.Errorf("failed to get active ledger entries: %w", err)
	}

	return r.toEntities(entryModels)
}

// GetChildrenOf retrieves entries sourced from the given parent entry
func (r *LedgerEntryRepositoryImpl) GetChildrenOf(ctx context.Context, parentEntryID uint) ([]*ledger.Entry, error) {
	var entryModels []*models.LedgerEntryModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).
		Where("source_parent_entry_id = ?", parentEntryID).
		Order("created_at ASC").
		Find(&entryModels).Error; err != nil {
		r.logger.Errorw("failed to get child ledger entries", "error", err, "parent_entry_id", parentEntryID)
		return nil, fmt.Errorf("failed to get child ledger entries: %w", err)
	}

	return r.toEntities(entryModels)
}

// GetByCampaignID retrieves every entry tracing to a campaign
func (r *LedgerEntryRepositoryImpl) GetByCampaignID(ctx context.Context, campaignID uint) ([]*ledger.Entry, error) {
	var entryModels []*models.LedgerEntryModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).
		Where("source_campaign_id = ?", campaignID).
		Order("created_at ASC").
		Find(&entryModels).Error; err != nil {
		r.logger.Errorw("failed to get ledger entries by campaign", "error", err, "campaign_id", campaignID)
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}

	return r.toEntities(entryModels)
}

// GetByPartnerIDs retrieves entries held by any of the given partners
func (r *LedgerEntryRepositoryImpl) GetByPartnerIDs(ctx context.Context, partnerIDs []uint) ([]*ledger.Entry, error) {
	if len(partnerIDs) == 0 {
		return []*ledger.Entry{}, nil
	}

	var entryModels []*models.LedgerEntryModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).
		Where("partner_id IN ?", partnerIDs).
		Order("created_at ASC").
		Find(&entryModels).Error; err != nil {
		r.logger.Errorw("failed to get ledger entries by partners", "error", err)
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}

	return r.toEntities(entryModels)
}

// ListAllocations retrieves derived entries granted by one partner to
// another, newest first
func (r *LedgerEntryRepositoryImpl) ListAllocations(ctx context.Context, allocatedByPartnerID, holderPartnerID uint) ([]*ledger.Entry, error) {
	var entryModels []*models.LedgerEntryModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.WithContext(ctx).
		Where("allocated_by_partner_id = ? AND partner_id = ?", allocatedByPartnerID, holderPartnerID).
		Order("created_at DESC").
		Find(&entryModels).Error; err != nil {
		r.logger.Errorw("failed to list allocations",
			"error", err,
			"allocated_by_partner_id", allocatedByPartnerID,
			"holder_partner_id", holderPartnerID)
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}

	return r.toEntities(entryModels)
}

func (r *LedgerEntryRepositoryImpl) toEntity(model *models.LedgerEntryModel) (*ledger.Entry, error) {
	entry, err := ledger.ReconstructEntry(
		model.ID,
		model.SID,
		model.PartnerID,
		model.SourceCampaignID,
		model.SourceParentEntryID,
		model.AllocatedByPartnerID,
		model.TotalAllocated,
		model.ConsumedByOwnInvites,
		model.AllocatedToChildren,
		ledger.Status(model.Status),
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct ledger entry %d: %w", model.ID, err)
	}
	return entry, nil
}

func (r *LedgerEntryRepositoryImpl) toEntities(entryModels []*models.LedgerEntryModel) ([]*ledger.Entry, error) {
	entries := make([]*ledger.Entry, 0, len(entryModels))
	for _, model := range entryModels {
		entry, err := r.toEntity(model)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

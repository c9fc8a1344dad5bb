package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/trellis-inc/trellis/internal/infrastructure/persistence/models"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

// AutoMigrateModels returns every persistence model in dependency order.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.PartnerModel{},
		&models.CampaignModel{},
		&models.LedgerEntryModel{},
		&models.InvitationCodeModel{},
		&models.RedemptionModel{},
	}
}

// Run applies GORM auto-migration for all models.
func Run(db *gorm.DB) error {
	modelList := AutoMigrateModels()
	logger.Info("starting database migration", "models_count", len(modelList))

	if err := db.AutoMigrate(modelList...); err != nil {
		logger.Error("migration failed", "error", err)
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("database migration completed")
	return nil
}

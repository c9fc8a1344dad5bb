// Package scheduler runs the campaign maintenance jobs on gocron v2.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	campaignUsecases "github.com/trellis-inc/trellis/internal/application/campaign/usecases"
	"github.com/trellis-inc/trellis/internal/shared/biztime"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

// Manager owns the single gocron scheduler instance.
type Manager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface
	started   bool
}

// NewManager creates a scheduler bound to the business timezone, so cron
// expressions read in local business time.
func NewManager(log logger.Interface) (*Manager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Manager{
		scheduler: scheduler,
		logger:    log.Named("scheduler"),
	}, nil
}

// RegisterCampaignExpiry schedules the campaign expiry scan. The scan
// transitions past-end-date campaigns to expired and publishes expiring
// notices; running it twice is harmless, transitions are idempotent.
func (m *Manager) RegisterCampaignExpiry(cronExpr string, expire *campaignUsecases.ExpireCampaignsUseCase) error {
	_, err := m.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			result, err := expire.Execute(ctx)
			if err != nil {
				m.logger.Errorw("campaign expiry scan failed", "error", err)
				return
			}
			m.logger.Infow("campaign expiry scan completed",
				"expired", result.Expired,
				"expiring", result.Expiring)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to register campaign expiry job: %w", err)
	}

	m.logger.Infow("campaign expiry job registered", "cron", cronExpr)
	return nil
}

// Start begins job execution
func (m *Manager) Start() {
	if m.started {
		return
	}
	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler started")
}

// Stop shuts the scheduler down, waiting for running jobs
func (m *Manager) Stop() error {
	if !m.started {
		return nil
	}
	if err := m.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shut down scheduler: %w", err)
	}
	m.started = false
	m.logger.Infow("scheduler stopped")
	return nil
}

// Package jobs runs the periodic maintenance tasks for the catalog store.
package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/toolgrid/toolgrid/internal/repository"
)

// Performance log rows older than this are purged by the daily sweep
const performanceLogRetention = 30 * 24 * time.Hour

// Sweeper periodically purges expired duplicate-cache rows and old
// performance logs
type Sweeper struct {
	store     repository.Store
	scheduler *gocron.Scheduler
	logger    *zap.Logger
}

// NewSweeper creates a sweeper bound to the given store
func NewSweeper(store repository.Store, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		store:     store,
		scheduler: gocron.NewScheduler(time.UTC),
		logger:    logger.Named("jobs"),
	}
}

// Start registers the sweep jobs and starts the scheduler in the background
func (s *Sweeper) Start() error {
	if _, err := s.scheduler.Every(1).Hour().Do(s.sweepDuplicates); err != nil {
		return err
	}
	if _, err := s.scheduler.Every(1).Day().At("03:00").Do(s.sweepPerformanceLogs); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("maintenance jobs started")
	return nil
}

// Stop stops the scheduler, waiting for any running job to finish
func (s *Sweeper) Stop() {
	s.scheduler.Stop()
	s.logger.Info("maintenance jobs stopped")
}

func (s *Sweeper) sweepDuplicates() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	purged, err := s.store.PurgeExpiredDuplicates(ctx)
	if err != nil {
		s.logger.Warn("failed to purge expired duplicate cache rows", zap.Error(err))
		return
	}
	if purged > 0 {
		s.logger.Info("purged expired duplicate cache rows", zap.Int64("rows", purged))
	}
}

func (s *Sweeper) sweepPerformanceLogs() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().UTC().Add(-performanceLogRetention)
	purged, err := s.store.PurgePerformanceLogs(ctx, cutoff)
	if err != nil {
		s.logger.Warn("failed to purge old performance logs", zap.Error(err))
		return
	}
	if purged > 0 {
		s.logger.Info("purged old performance logs", zap.Int64("rows", purged))
	}
}

// Package jobs runs the background cron tasks.
package jobs

import (
	"context"
	"fmt"
	"time"

	"scamfeed/internal/logger"

	"github.com/robfig/cron/v3"
)

// TrendingRefresher recomputes and caches the trending scam types.
type TrendingRefresher interface {
	RefreshTrending(ctx context.Context) error
}

type Scheduler struct {
	cron     *cron.Cron
	trending TrendingRefresher
	spec     string
}

// NewScheduler schedules jobs in loc, the same zone that defines the reward day.
func NewScheduler(trending TrendingRefresher, spec string, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		trending: trending,
		spec:     spec,
	}
}

// Start registers the jobs and starts the cron loop. ctx bounds each run.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.refreshTrending(ctx) }); err != nil {
		return fmt.Errorf("schedule trending refresh %q: %w", s.spec, err)
	}

	s.cron.Start()
	logger.Info("scheduler started", "trending_spec", s.spec)

	// warm the cache instead of waiting for the first tick
	go s.refreshTrending(ctx)
	return nil
}

func (s *Scheduler) refreshTrending(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := s.trending.RefreshTrending(ctx); err != nil {
		logger.Error("trending refresh failed", "error", err)
		return
	}
	logger.Debug("trending refreshed")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("scheduler stopped")
}

package cronjob

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
)

// Sweeper drops expired cache entries and idle limiter state.
type Sweeper interface {
	Sweep(ctx context.Context) (cacheRemoved, clientsRemoved int, err error)
}

const sweepTimeout = 30 * time.Second

type Scheduler struct {
	cron     *cron.Cron
	sweeper  Sweeper
	schedule string
}

func NewScheduler(sweeper Sweeper, schedule string) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		sweeper:  sweeper,
		schedule: schedule,
	}
}

// Start registers the sweep job and starts the cron runner.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.RunSweep); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	log.Info("Cron scheduler started", "schedule", s.schedule)
	s.cron.Start()
	return nil
}

// Stop halts the runner and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunSweep performs one sweep.
func (s *Scheduler) RunSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	cacheRemoved, clientsRemoved, err := s.sweeper.Sweep(ctx)
	if err != nil {
		log.Error("Sweep failed", "error", err)
		return
	}
	if cacheRemoved > 0 || clientsRemoved > 0 {
		log.Debug("Sweep completed", "cache_removed", cacheRemoved, "clients_removed", clientsRemoved)
	}
}

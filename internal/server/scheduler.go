package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps gocron for periodic rebuilds. A scheduled rebuild picks up
// future-dated posts whose publish time has passed since the last build.
type Scheduler struct {
	scheduler gocron.Scheduler
	debouncer *Debouncer
}

// NewScheduler creates a scheduler feeding the given debouncer.
func NewScheduler(debouncer *Debouncer) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, debouncer: debouncer}, nil
}

// SchedulePeriodicRebuild registers a rebuild every interval.
// Returns the job ID for later management.
func (s *Scheduler) SchedulePeriodicRebuild(interval time.Duration) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.requestRebuild),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		return "", fmt.Errorf("create periodic rebuild job: %w", err)
	}
	return job.ID().String(), nil
}

func (s *Scheduler) requestRebuild() {
	slog.Debug("Scheduled rebuild requested")
	s.debouncer.Request(RebuildRequest{Reason: "schedule"})
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts the scheduler down.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// Package scheduler runs browse jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// jobTimeout bounds one scheduled run; a wedged browser must not block the
// next scheduled slot forever.
const jobTimeout = 30 * time.Minute

// Job represents a scheduled task
type Job func(ctx context.Context) error

// Scheduler manages periodic tasks
type Scheduler struct {
	cron     *cron.Cron
	jobs     map[string]cron.EntryID
	timezone *time.Location
	log      *slog.Logger
}

// New creates a new scheduler for the given timezone ("" or "Local" for
// the system zone).
func New(timezone string, log *slog.Logger) (*Scheduler, error) {
	if timezone == "" {
		timezone = "Local"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
	}
	if log == nil {
		log = slog.Default()
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		jobs:     make(map[string]cron.EntryID),
		timezone: loc,
		log:      log,
	}, nil
}

// AddJob adds a job with a cron schedule.
// schedule format: "0 7 * * *" (at 7:00 AM daily)
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		s.log.Info("job started", "job", name)
		start := time.Now()

		if err := job(ctx); err != nil {
			s.log.Error("job failed", "job", name, "error", err)
			return
		}
		s.log.Info("job completed", "job", name, "took", time.Since(start).Round(time.Second))
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	s.log.Info("job scheduled", "job", name, "schedule", schedule, "timezone", s.timezone.String())
	return nil
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) {
	if entryID, ok := s.jobs[name]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
		s.log.Info("job removed", "job", name)
	}
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling. The returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name    string
	NextRun time.Time
	LastRun time.Time
}

// ListJobs returns info about scheduled jobs
func (s *Scheduler) ListJobs() []JobInfo {
	entries := s.cron.Entries()
	infos := make([]JobInfo, 0, len(entries))

	for name, entryID := range s.jobs {
		for _, entry := range entries {
			if entry.ID == entryID {
				infos = append(infos, JobInfo{
					Name:    name,
					NextRun: entry.Next,
					LastRun: entry.Prev,
				})
				break
			}
		}
	}

	return infos
}

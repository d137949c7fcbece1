// Package maintenance runs periodic housekeeping alongside the HTTP server.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Sweeper drops idle entries and reports how many went.
type Sweeper interface {
	Cleanup() int
}

type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger))),
		logger: logger,
	}
}

// Sweep registers sw to be cleaned on schedule, a cron expression such as
// "@every 10m".
func (s *Scheduler) Sweep(schedule, name string, sw Sweeper) error {
	_, err := s.cron.AddFunc(schedule, func() { s.sweep(name, sw) })
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

func (s *Scheduler) sweep(name string, sw Sweeper) {
	if n := sw.Cleanup(); n > 0 {
		s.logger.Info("swept idle entries", "job", name, "count", n)
	}
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs or ctx, whichever is first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

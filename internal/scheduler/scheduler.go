// Package scheduler runs the periodic daily and weekly task resets.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	cronlib "github.com/robfig/cron/v3"

	"teahouse/internal/storage"
)

// cronParser parses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// Resetter is implemented by engine.Service.
type Resetter interface {
	ResetAll(ctx context.Context, period storage.TaskPeriod) (int, error)
}

type Config struct {
	Resetter    Resetter
	Logger      *slog.Logger
	DailyReset  string
	WeeklyReset string
}

type Scheduler struct {
	cron     *cronlib.Cron
	resetter Resetter
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

// New validates the expressions and registers one job per non-empty expression.
func New(cfg Config) (*Scheduler, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:     cronlib.New(cronlib.WithParser(cronParser)),
		resetter: cfg.Resetter,
		logger:   logger.With("component", "scheduler"),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	jobs := []struct {
		expr   string
		period storage.TaskPeriod
	}{
		{cfg.DailyReset, storage.PeriodDaily},
		{cfg.WeeklyReset, storage.PeriodWeekly},
	}
	for _, j := range jobs {
		if j.expr == "" {
			continue
		}
		period := j.period
		if _, err := s.cron.AddFunc(j.expr, func() { s.Run(s.ctx, period) }); err != nil {
			s.cancel()
			return nil, fmt.Errorf("schedule %s reset %q: %w", period, j.expr, err)
		}
	}
	return s, nil
}

// Run performs one reset pass. Failures are logged, never returned.
func (s *Scheduler) Run(ctx context.Context, period storage.TaskPeriod) {
	n, err := s.resetter.ResetAll(ctx, period)
	if err != nil {
		s.logger.Error("scheduled reset failed", "period", string(period), "reset_users", n, "error", err)
		return
	}
	s.logger.Info("scheduled reset done", "period", string(period), "users", n)
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", s.Jobs())
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

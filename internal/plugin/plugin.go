// Package plugin is the boundary the chat-bot host talks to: it initializes the
// store when loaded, hands out per-user accessor bundles and runs the reset
// scheduler.
package plugin

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"teahouse/internal/config"
	"teahouse/internal/engine"
	"teahouse/internal/scheduler"
	"teahouse/internal/storage"
)

const (
	Name    = "teahouse"
	Version = "1.0.0"
)

type Plugin struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB
	svc    *engine.Service
	sched  *scheduler.Scheduler
}

// New opens the store at cfg.Database.Path, creating schema and default rows.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts engine.Options) (*Plugin, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("plugin", Name)

	db, err := storage.Open(ctx, cfg.Database.Path)
	if err != nil {
		logger.Error("store init failed", "path", cfg.Database.Path, "error", err)
		return nil, fmt.Errorf("init store: %w", err)
	}

	if opts.Logger == nil {
		opts.Logger = logger
	}
	svc := engine.NewService(db, opts)

	sched, err := scheduler.New(scheduler.Config{
		Resetter:    svc,
		Logger:      logger,
		DailyReset:  cfg.Schedule.DailyReset,
		WeeklyReset: cfg.Schedule.WeeklyReset,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Plugin{cfg: cfg, logger: logger, db: db, svc: svc, sched: sched}, nil
}

// OnLoaded is the host's "loaded" hook.
func (p *Plugin) OnLoaded(ctx context.Context) {
	p.logger.Info("------ " + Name + " ------")
	p.logger.Info("tea house store plugin loaded", "version", Version, "db", p.DBPath())
	p.logger.Info("------ " + Name + " ------")
}

// Databases yields the accessor bundle for userID. The caller must Close it.
func (p *Plugin) Databases(ctx context.Context, userID string) (*engine.Session, error) {
	return p.svc.Open(ctx, userID)
}

// WithDatabases runs fn with the bundle for userID and always releases it.
func (p *Plugin) WithDatabases(ctx context.Context, userID string, fn func(*engine.Session) error) error {
	return p.svc.WithSession(ctx, userID, fn)
}

func (p *Plugin) DBPath() string { return p.cfg.Database.Path }

func (p *Plugin) Config() *config.Config { return p.cfg }

func (p *Plugin) Service() *engine.Service { return p.svc }

// Start launches the reset scheduler.
func (p *Plugin) Start() { p.sched.Start() }

// Stop halts the scheduler and waits for a running reset.
func (p *Plugin) Stop() { p.sched.Stop() }

func (p *Plugin) Close() error {
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

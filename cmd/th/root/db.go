package root

import (
	"context"
	"errors"
	"os"

	"teahouse/internal/config"
	"teahouse/internal/engine"
	"teahouse/internal/plugin"
	"teahouse/internal/storage"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.dbPath != "" || os.Getenv(storage.EnvDBPath) != "" {
		cfg.Database.Path = storage.ResolveDBPath(flags.dbPath)
	}
	return cfg, nil
}

func openPlugin(ctx context.Context) (*plugin.Plugin, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := cfg.Logging.NewLogger(os.Stderr)
	p, err := plugin.New(ctx, cfg, logger, engine.Options{})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = p.Close()
	}
	return p, cleanup, nil
}

func requireUser() (string, error) {
	if flags.userID == "" {
		return "", errors.New("--user is required")
	}
	return flags.userID, nil
}

// withUser opens the plugin and runs fn inside a session for --user.
func withUser(ctx context.Context, fn func(p *plugin.Plugin, s *engine.Session) error) error {
	user, err := requireUser()
	if err != nil {
		return err
	}
	p, cleanup, err := openPlugin(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	return p.WithDatabases(ctx, user, func(s *engine.Session) error {
		return fn(p, s)
	})
}

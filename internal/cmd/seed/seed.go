// Package seed parses seed command flags and loads fixtures into the store.
package seed

import (
	"context"
	"flag"
	"fmt"

	"go.uber.org/zap"

	platformcmd "github.com/louisbranch/kingsroad.gg/internal/platform/cmd"
	"github.com/louisbranch/kingsroad.gg/internal/platform/logging"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/storage/sqlite"
	"github.com/louisbranch/kingsroad.gg/internal/seed"
)

// Config holds seed command configuration.
type Config struct {
	DBPath  string `env:"KINGSROAD_DB_PATH" envDefault:"kingsroad.db"`
	Fixture string `env:"KINGSROAD_FIXTURE" envDefault:"fixtures/demo.yaml"`
	Debug   bool   `env:"KINGSROAD_DEBUG"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to the gateway SQLite database")
	fs.StringVar(&cfg.Fixture, "fixture", cfg.Fixture, "path to the YAML fixture file")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run loads the fixture file and writes its rows into the store.
func Run(ctx context.Context, cfg Config) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceSeed, func(ctx context.Context) error {
		logger, err := logging.New(platformcmd.ServiceSeed, cfg.Debug)
		if err != nil {
			return fmt.Errorf("configure logging: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		fixture, err := seed.Load(cfg.Fixture)
		if err != nil {
			return fmt.Errorf("load fixture: %w", err)
		}

		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("close store", zap.Error(err))
			}
		}()

		if err := seed.Apply(ctx, store, fixture); err != nil {
			return fmt.Errorf("apply fixture: %w", err)
		}

		logger.Info("fixture applied",
			zap.String("fixture", cfg.Fixture),
			zap.Int("editors", len(fixture.Editors)),
			zap.Int("applications", len(fixture.Applications)),
			zap.Int("team_members", len(fixture.TeamMembers)),
			zap.Int("funds", len(fixture.Funds)),
			zap.Int("transferees", len(fixture.Transferees)),
			zap.Int("messages", len(fixture.Messages)),
		)
		return nil
	})
}

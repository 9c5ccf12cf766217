// Package dashboard parses recruiter dashboard flags and runs the MCP session.
package dashboard

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/louisbranch/kingsroad.gg/internal/dashboard"
	"github.com/louisbranch/kingsroad.gg/internal/mcp/service"
	platformcmd "github.com/louisbranch/kingsroad.gg/internal/platform/cmd"
	"github.com/louisbranch/kingsroad.gg/internal/platform/logging"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/changefeed"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/storage/sqlite"
)

// Config holds dashboard command configuration.
type Config struct {
	DBPath      string        `env:"KINGSROAD_DB_PATH"       envDefault:"kingsroad.db"`
	RecruiterID string        `env:"KINGSROAD_RECRUITER_ID"`
	Transport   string        `env:"KINGSROAD_MCP_TRANSPORT" envDefault:"stdio"`
	HTTPAddr    string        `env:"KINGSROAD_MCP_HTTP_ADDR" envDefault:"localhost:8081"`
	StaleWindow time.Duration `env:"KINGSROAD_STALE_WINDOW"  envDefault:"30s"`
	Debug       bool          `env:"KINGSROAD_DEBUG"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to the gateway SQLite database")
	fs.StringVar(&cfg.RecruiterID, "recruiter", cfg.RecruiterID, "recruiter user ID to open the session as")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "MCP transport: stdio or http")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "listen address for the HTTP transport")
	fs.DurationVar(&cfg.StaleWindow, "stale-window", cfg.StaleWindow, "dashboard cache staleness window")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run opens a recruiter session and serves it over MCP until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceDashboard, func(ctx context.Context) error {
		if cfg.RecruiterID == "" {
			return fmt.Errorf("recruiter ID is required")
		}

		logger, err := logging.New(platformcmd.ServiceDashboard, cfg.Debug)
		if err != nil {
			return fmt.Errorf("configure logging: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("close store", zap.Error(err))
			}
		}()

		session, err := dashboard.OpenSession(ctx, store, cfg.RecruiterID, dashboard.SessionConfig{
			Localizer:   message.NewPrinter(language.English),
			Logger:      logger,
			StaleWindow: cfg.StaleWindow,
		})
		if err != nil {
			return fmt.Errorf("open session: %w", err)
		}
		defer session.Close()

		reconciler := dashboard.NewReconciler(store, session, logger, nil)

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		group, groupCtx := errgroup.WithContext(ctx)
		group.Go(func() error {
			err := reconciler.Run(groupCtx)
			if errors.Is(err, context.Canceled) || errors.Is(err, changefeed.ErrHubClosed) {
				return nil
			}
			return err
		})
		group.Go(func() error {
			// The reconciler stops once the MCP session ends.
			defer cancel()
			return service.Run(groupCtx, session, service.Config{
				Transport: service.TransportKind(cfg.Transport),
				HTTPAddr:  cfg.HTTPAddr,
			})
		})

		logger.Info("dashboard session started",
			zap.String("recruiter", session.UserID()),
			zap.String("kingdom", session.KingdomID()),
			zap.String("transport", cfg.Transport),
		)

		return group.Wait()
	})
}

package modules

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/fx"

	"github.com/kazuma11121125/rt-bot/internal/config"
	"github.com/kazuma11121125/rt-bot/internal/event"
	"github.com/kazuma11121125/rt-bot/internal/i18n"
	"github.com/kazuma11121125/rt-bot/internal/logger"
	"github.com/kazuma11121125/rt-bot/internal/schedule"
)

// ConfigPath is the TOML file the application is built from.
type ConfigPath string

const jobTimeout = 2 * time.Minute

var InfraModule = fx.Module(
	"infra",
	fx.Provide(
		provideConfig,
		provideLogger,
		provideLocalizer,
		provideEventHub,
		provideEventPublisher,
		provideEventSubscriber,
		provideScheduler,
	),
)

// ---------------------------------------------------------------------------
// infrastructure providers
// ---------------------------------------------------------------------------

func provideConfig(path ConfigPath) (config.Config, error) {
	cfg, err := config.Load(string(path))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideLocalizer(cfg config.Config) (*i18n.Localizer, error) {
	return i18n.New(cfg.FreeChannel.DefaultLocale)
}

func provideEventHub() *event.Hub {
	return event.NewHub()
}

func provideEventPublisher(h *event.Hub) event.Publisher {
	return h
}

func provideEventSubscriber(h *event.Hub) event.Subscriber {
	return h
}

func provideScheduler(lc fx.Lifecycle, log *slog.Logger) *schedule.Service {
	svc := schedule.NewService(log, jobTimeout)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			svc.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return svc.Stop(ctx)
		},
	})
	return svc
}

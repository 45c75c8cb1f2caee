package modules

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/kazuma11121125/rt-bot/db"
	"github.com/kazuma11121125/rt-bot/internal/channelstatus"
	"github.com/kazuma11121125/rt-bot/internal/config"
	dbpkg "github.com/kazuma11121125/rt-bot/internal/db"
	"github.com/kazuma11121125/rt-bot/internal/event"
	"github.com/kazuma11121125/rt-bot/internal/i18n"
	"github.com/kazuma11121125/rt-bot/internal/platform"
	"github.com/kazuma11121125/rt-bot/internal/schedule"
)

var StatusModule = fx.Module(
	"status",
	fx.Provide(
		provideStatusStore,
		provideStatusUpdater,
		provideCommandHandler(provideStatusCommands),
	),
	fx.Invoke(startStatusUpdater),
)

// ---------------------------------------------------------------------------
// channel status providers
// ---------------------------------------------------------------------------

// provideStatusStore migrates and opens the status database; nil when the feature is disabled.
func provideStatusStore(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) (*channelstatus.Store, error) {
	if !cfg.Status.Enabled {
		return nil, nil
	}
	path := cfg.Status.DatabasePath
	if err := dbpkg.RunMigrate(log, path, db.Migrations(), "up", nil); err != nil {
		return nil, fmt.Errorf("status migrations: %w", err)
	}
	sqlDB, err := dbpkg.Open(context.Background(), path)
	if err != nil {
		return nil, fmt.Errorf("status db: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return sqlDB.Close()
		},
	})
	return channelstatus.NewStore(sqlDB), nil
}

func provideStatusUpdater(log *slog.Logger, p platform.Platform, store *channelstatus.Store, events event.Subscriber) *channelstatus.Updater {
	if store == nil {
		return nil
	}
	return channelstatus.NewUpdater(log, p, store, events)
}

func provideStatusCommands(log *slog.Logger, cfg config.Config, p platform.Platform, store *channelstatus.Store, updater *channelstatus.Updater, loc *i18n.Localizer) *channelstatus.Commands {
	var refresher channelstatus.Refresher
	if updater != nil {
		refresher = updater
	}
	return channelstatus.NewCommands(log, p, store, refresher, loc, cfg.Discord.CommandPrefix, cfg.FreeChannel.Durations().ReplyTTL)
}

func startStatusUpdater(lc fx.Lifecycle, cfg config.Config, scheduler *schedule.Service, updater *channelstatus.Updater) error {
	if updater == nil {
		return nil
	}
	err := scheduler.Add("channel_status", cfg.Status.UpdateSpec, func(ctx context.Context) error {
		_, err := updater.RefreshAll(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("schedule channel status: %w", err)
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			updater.Start(ctx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			updater.Stop()
			return nil
		},
	})
	return nil
}

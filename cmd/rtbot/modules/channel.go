package modules

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/kazuma11121125/rt-bot/internal/channel"
	"github.com/kazuma11121125/rt-bot/internal/channel/adapters/discord"
	"github.com/kazuma11121125/rt-bot/internal/config"
	"github.com/kazuma11121125/rt-bot/internal/freechannel"
	"github.com/kazuma11121125/rt-bot/internal/platform"
	"github.com/kazuma11121125/rt-bot/internal/router"
)

var ChannelModule = fx.Module(
	"channel",
	fx.Provide(
		provideDiscordAdapter,
		providePlatform,
		provideInboundRouter,
		provideChannelManager,
	),
	fx.Invoke(startChannelManager),
)

// ---------------------------------------------------------------------------
// channel providers
// ---------------------------------------------------------------------------

func provideDiscordAdapter(log *slog.Logger, cfg config.Config) (*discord.Adapter, error) {
	return discord.New(log, discord.Config{
		Token:         cfg.Discord.Token,
		MutationRate:  cfg.Discord.MutationRate,
		MutationBurst: cfg.Discord.MutationBurst,
	})
}

func providePlatform(adapter *discord.Adapter) platform.Platform {
	return adapter
}

type routerParams struct {
	fx.In

	Logger   *slog.Logger
	Config   config.Config
	Filter   *freechannel.Filter
	Handlers []router.CommandHandler `group:"command_handlers"`
}

func provideInboundRouter(params routerParams) *router.InboundRouter {
	return router.NewInboundRouter(params.Logger, params.Config.Discord.CommandPrefix, params.Filter, params.Handlers...)
}

func provideChannelManager(log *slog.Logger, cfg config.Config, inboundRouter *router.InboundRouter, adapter *discord.Adapter) *channel.Manager {
	mgr := channel.NewManager(log, inboundRouter, channel.Options{
		InboundWorkers:   cfg.FreeChannel.InboundWorkers,
		InboundQueueSize: cfg.FreeChannel.InboundQueueSize,
	})
	mgr.Use(channel.RecoverMiddleware(), channel.TimingMiddleware())
	mgr.RegisterAdapter(channel.Config{Type: discord.Type}, adapter)
	return mgr
}

func startChannelManager(lc fx.Lifecycle, channelManager *channel.Manager) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return channelManager.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return channelManager.Shutdown(ctx)
		},
	})
}

// provideCommandHandler tags a constructor's result into the command_handlers group.
func provideCommandHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(router.CommandHandler)),
		fx.ResultTags(`group:"command_handlers"`),
	)
}

package modules

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/fx"

	"github.com/kazuma11121125/rt-bot/internal/config"
	"github.com/kazuma11121125/rt-bot/internal/event"
	"github.com/kazuma11121125/rt-bot/internal/freechannel"
	"github.com/kazuma11121125/rt-bot/internal/i18n"
	"github.com/kazuma11121125/rt-bot/internal/platform"
	"github.com/kazuma11121125/rt-bot/internal/schedule"
)

const cooldownPruneSpec = "@every 10m"

var FreeChannelModule = fx.Module(
	"freechannel",
	fx.Provide(
		provideProvisioner,
		provideHubFilter,
		provideCooldowns,
		provideCommandHandler(provideFreeChannelCommands),
	),
	fx.Invoke(scheduleCooldownPrune),
)

// ---------------------------------------------------------------------------
// free channel providers
// ---------------------------------------------------------------------------

func provideProvisioner(log *slog.Logger, cfg config.Config, p platform.Platform, loc *i18n.Localizer, events event.Publisher) *freechannel.Provisioner {
	return freechannel.NewProvisioner(log, p, loc, events, freechannel.Options{
		MaxQuota:      cfg.FreeChannel.MaxQuota,
		StrictQuota:   cfg.FreeChannel.StrictQuota,
		PerKindQuota:  cfg.FreeChannel.PerKindQuota,
		CommandPrefix: cfg.Discord.CommandPrefix,
	})
}

func provideHubFilter(log *slog.Logger, cfg config.Config, p platform.Platform, prov *freechannel.Provisioner, loc *i18n.Localizer) *freechannel.Filter {
	return freechannel.NewFilter(log, p, prov, loc, cfg.FreeChannel.Durations().ReplyTTL)
}

func provideCooldowns(cfg config.Config) *freechannel.Cooldowns {
	d := cfg.FreeChannel.Durations()
	return freechannel.NewCooldowns(map[freechannel.Action]time.Duration{
		freechannel.ActionRegister:   d.RegisterCooldown,
		freechannel.ActionDeregister: d.RegisterCooldown,
		freechannel.ActionRename:     d.CommandCooldown,
		freechannel.ActionRemove:     d.CommandCooldown,
	})
}

func provideFreeChannelCommands(log *slog.Logger, cfg config.Config, p platform.Platform, prov *freechannel.Provisioner, cooldowns *freechannel.Cooldowns, loc *i18n.Localizer) *freechannel.Commands {
	return freechannel.NewCommands(log, p, prov, cooldowns, loc, freechannel.CommandOptions{
		DefaultQuota:  cfg.FreeChannel.DefaultQuota,
		MaxQuota:      cfg.FreeChannel.MaxQuota,
		DefaultLocale: cfg.FreeChannel.DefaultLocale,
		CommandPrefix: cfg.Discord.CommandPrefix,
		ReplyTTL:      cfg.FreeChannel.Durations().ReplyTTL,
	})
}

func scheduleCooldownPrune(log *slog.Logger, scheduler *schedule.Service, cooldowns *freechannel.Cooldowns) error {
	return scheduler.Add("cooldown_prune", cooldownPruneSpec, func(ctx context.Context) error {
		if n := cooldowns.Prune(); n > 0 {
			log.Debug("cooldowns pruned", slog.Int("removed", n), slog.Int("remaining", cooldowns.Len()))
		}
		return nil
	})
}

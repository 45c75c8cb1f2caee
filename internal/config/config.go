// Package config loads and exposes application configuration (TOML).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath       = "config.toml"
	DefaultHTTPAddr         = ":8080"
	DefaultCommandPrefix    = "rt!"
	DefaultQuota            = 4
	DefaultMaxQuota         = 100
	DefaultRegisterCooldown = "300s"
	DefaultCommandCooldown  = "300s"
	DefaultReplyTTL         = "5s"
	DefaultLocale           = "ja"
	DefaultInboundWorkers   = 4
	DefaultInboundQueueSize = 256
	DefaultMutationRate     = 2.5
	DefaultMutationBurst    = 2
	DefaultStatusDBPath     = "data/rtbot.db"
	DefaultStatusUpdateSpec = "@every 5m"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log         LogConfig         `toml:"log"`
	Server      ServerConfig      `toml:"server"`
	Discord     DiscordConfig     `toml:"discord"`
	FreeChannel FreeChannelConfig `toml:"freechannel"`
	Status      StatusConfig      `toml:"status"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the health HTTP server listen address. Empty disables the server.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// DiscordConfig holds the bot token, command prefix and the pacing of channel mutations.
type DiscordConfig struct {
	Token         string  `toml:"token"`
	CommandPrefix string  `toml:"command_prefix"`
	MutationRate  float64 `toml:"mutation_rate"`
	MutationBurst int     `toml:"mutation_burst"`
}

// FreeChannelConfig holds hub quota bounds, cooldowns and dispatcher sizing.
type FreeChannelConfig struct {
	DefaultQuota     int    `toml:"default_quota"`
	MaxQuota         int    `toml:"max_quota"`
	RegisterCooldown string `toml:"register_cooldown"`
	CommandCooldown  string `toml:"command_cooldown"`
	ReplyTTL         string `toml:"reply_ttl"`
	StrictQuota      bool   `toml:"strict_quota"`
	PerKindQuota     bool   `toml:"per_kind_quota"`
	DefaultLocale    string `toml:"default_locale"`
	InboundWorkers   int    `toml:"inbound_workers"`
	InboundQueueSize int    `toml:"inbound_queue_size"`
}

// StatusConfig holds the channel status updater settings.
type StatusConfig struct {
	Enabled      bool   `toml:"enabled"`
	DatabasePath string `toml:"database_path"`
	UpdateSpec   string `toml:"update_spec"`
}

// Default returns a Config populated with the default values.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Discord: DiscordConfig{
			CommandPrefix: DefaultCommandPrefix,
			MutationRate:  DefaultMutationRate,
			MutationBurst: DefaultMutationBurst,
		},
		FreeChannel: FreeChannelConfig{
			DefaultQuota:     DefaultQuota,
			MaxQuota:         DefaultMaxQuota,
			RegisterCooldown: DefaultRegisterCooldown,
			CommandCooldown:  DefaultCommandCooldown,
			ReplyTTL:         DefaultReplyTTL,
			DefaultLocale:    DefaultLocale,
			InboundWorkers:   DefaultInboundWorkers,
			InboundQueueSize: DefaultInboundQueueSize,
		},
		Status: StatusConfig{
			Enabled:      true,
			DatabasePath: DefaultStatusDBPath,
			UpdateSpec:   DefaultStatusUpdateSpec,
		},
	}
}

// Load reads and parses the TOML config file at path and applies default values for missing fields.
// DISCORD_TOKEN overrides discord.token.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return cfg, err
		}
	} else if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	if value := strings.TrimSpace(os.Getenv("DISCORD_TOKEN")); value != "" {
		cfg.Discord.Token = value
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	fc := c.FreeChannel
	if fc.MaxQuota < 1 {
		return errors.New("freechannel.max_quota must be at least 1")
	}
	if fc.DefaultQuota < 1 || fc.DefaultQuota > fc.MaxQuota {
		return fmt.Errorf("freechannel.default_quota must be within [1, %d]", fc.MaxQuota)
	}
	if fc.InboundWorkers < 1 {
		return errors.New("freechannel.inbound_workers must be positive")
	}
	if fc.InboundQueueSize < 1 {
		return errors.New("freechannel.inbound_queue_size must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(fc.DefaultLocale)) {
	case "ja", "en":
	default:
		return fmt.Errorf("freechannel.default_locale must be ja or en, got %q", fc.DefaultLocale)
	}
	for name, raw := range map[string]string{
		"freechannel.register_cooldown": fc.RegisterCooldown,
		"freechannel.command_cooldown":  fc.CommandCooldown,
		"freechannel.reply_ttl":         fc.ReplyTTL,
	} {
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	if strings.TrimSpace(c.Discord.CommandPrefix) == "" {
		return errors.New("discord.command_prefix is required")
	}
	if c.Status.Enabled && strings.TrimSpace(c.Status.DatabasePath) == "" {
		return errors.New("status.database_path is required when status is enabled")
	}
	return nil
}

// Durations holds the parsed duration settings of the free channel section.
type Durations struct {
	RegisterCooldown time.Duration
	CommandCooldown  time.Duration
	ReplyTTL         time.Duration
}

// Durations parses the duration strings. Call Validate first; unparsable values fall back to defaults.
func (c FreeChannelConfig) Durations() Durations {
	parse := func(raw, fallback string) time.Duration {
		d, err := time.ParseDuration(raw)
		if err != nil {
			d, _ = time.ParseDuration(fallback)
		}
		return d
	}
	return Durations{
		RegisterCooldown: parse(c.RegisterCooldown, DefaultRegisterCooldown),
		CommandCooldown:  parse(c.CommandCooldown, DefaultCommandCooldown),
		ReplyTTL:         parse(c.ReplyTTL, DefaultReplyTTL),
	}
}

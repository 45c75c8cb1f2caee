package freechannel

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kazuma11121125/rt-bot/internal/i18n"
	"github.com/kazuma11121125/rt-bot/internal/logger"
	"github.com/kazuma11121125/rt-bot/internal/platform"
)

var (
	hubCommandNames = []string{"freechannel", "fc", "FreeChannel", "自由チャンネル"}
	registerAliases = []string{"register", "add", "rg"}
)

// CommandOptions tunes the command surface.
type CommandOptions struct {
	DefaultQuota  int
	MaxQuota      int
	DefaultLocale string
	CommandPrefix string
	ReplyTTL      time.Duration
}

// Commands implements the prefixed free-channel commands.
type Commands struct {
	logger      *slog.Logger
	platform    platform.Platform
	provisioner *Provisioner
	cooldowns   *Cooldowns
	i18n        *i18n.Localizer
	opts        CommandOptions
}

// NewCommands creates the command handlers.
func NewCommands(log *slog.Logger, p platform.Platform, prov *Provisioner, cooldowns *Cooldowns, loc *i18n.Localizer, opts CommandOptions) *Commands {
	if log == nil {
		log = slog.Default()
	}
	return &Commands{
		logger:      log.With(slog.String("component", "freechannel_commands")),
		platform:    p,
		provisioner: prov,
		cooldowns:   cooldowns,
		i18n:        loc,
		opts:        opts,
	}
}

// Names returns the command names handled here.
func (c *Commands) Names() []string {
	return append(append([]string(nil), hubCommandNames...), "rename", "remove")
}

// HandleCommand runs one prefixed command.
func (c *Commands) HandleCommand(ctx context.Context, msg platform.Message, name string, args []string) error {
	if msg.GuildID == "" {
		return nil
	}
	switch {
	case slices.Contains(hubCommandNames, name):
		if len(args) == 0 {
			c.transient(ctx, msg, "hub.usage", c.opts.CommandPrefix)
			return nil
		}
		switch {
		case slices.Contains(registerAliases, args[0]):
			return c.register(ctx, msg, args[1:])
		case args[0] == "remove":
			return c.deregister(ctx, msg)
		default:
			c.transient(ctx, msg, "hub.usage", c.opts.CommandPrefix)
			return nil
		}
	case name == "rename":
		return c.rename(ctx, msg, args)
	case name == "remove":
		return c.remove(ctx, msg, args)
	}
	return nil
}

func (c *Commands) register(ctx context.Context, msg platform.Message, args []string) error {
	if !c.canManage(ctx, msg) {
		return nil
	}
	quota := c.opts.DefaultQuota
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > c.opts.MaxQuota {
			c.transient(ctx, msg, "hub.bad_quota", c.opts.MaxQuota)
			return nil
		}
		quota = n
	}
	lang := c.opts.DefaultLocale
	if len(args) > 1 {
		lang = strings.ToLower(args[1])
		if lang != "ja" && lang != "en" {
			c.transient(ctx, msg, "hub.bad_locale")
			return nil
		}
	}
	if !c.tryCooldown(ctx, msg, ActionRegister) {
		return nil
	}

	_, err := c.provisioner.RegisterHub(ctx, msg.ChannelID, quota, lang)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotInGroup):
		c.transient(ctx, msg, "hub.not_in_group")
	case errors.Is(err, ErrAlreadyHub):
		c.transient(ctx, msg, "hub.already")
	case errors.Is(err, ErrMalformedCommand):
		c.transient(ctx, msg, "hub.bad_quota", c.opts.MaxQuota)
	default:
		c.failed(ctx, msg, "register hub", err)
	}
	return nil
}

func (c *Commands) deregister(ctx context.Context, msg platform.Message) error {
	if !c.canManage(ctx, msg) || !c.tryCooldown(ctx, msg, ActionDeregister) {
		return nil
	}
	err := c.provisioner.DeregisterHub(ctx, msg.ChannelID)
	switch {
	case err == nil:
		c.persistent(ctx, msg, "hub.removed")
	case errors.Is(err, ErrNotAHub):
		c.transient(ctx, msg, "hub.not_a_hub")
	default:
		c.failed(ctx, msg, "deregister hub", err)
	}
	return nil
}

func (c *Commands) rename(ctx context.Context, msg platform.Message, args []string) error {
	if len(args) == 0 {
		c.transient(ctx, msg, "command.rename_usage", c.opts.CommandPrefix)
		return nil
	}
	group, ok := c.groupOf(ctx, msg)
	if !ok || !c.tryCooldown(ctx, msg, ActionRename) {
		return nil
	}

	var err error
	if len(args) == 1 {
		_, err = c.provisioner.RenameChannel(ctx, msg.ChannelID, msg.AuthorID, args[0])
	} else {
		var m ManagedChannel
		m, err = c.provisioner.Lookup(ctx, group, msg.AuthorID, args[0], Voice, Text)
		if err == nil {
			_, err = c.provisioner.RenameManaged(ctx, m, strings.Join(args[1:], " "))
		}
	}
	switch {
	case err == nil:
		c.persistent(ctx, msg, "channel.renamed")
	case errors.Is(err, ErrNotFound):
		c.transient(ctx, msg, "channel.not_found")
	case errors.Is(err, ErrNameTooLong):
		c.transient(ctx, msg, "channel.name_too_long")
	case errors.Is(err, ErrMalformedCommand):
		c.transient(ctx, msg, "command.rename_usage", c.opts.CommandPrefix)
	default:
		c.failed(ctx, msg, "rename channel", err)
	}
	return nil
}

func (c *Commands) remove(ctx context.Context, msg platform.Message, args []string) error {
	group, ok := c.groupOf(ctx, msg)
	if !ok || !c.tryCooldown(ctx, msg, ActionRemove) {
		return nil
	}

	var (
		removed ManagedChannel
		err     error
	)
	if len(args) == 0 {
		removed, err = c.provisioner.RemoveChannel(ctx, msg.ChannelID, msg.AuthorID)
	} else {
		removed, err = c.provisioner.Lookup(ctx, group, msg.AuthorID, strings.Join(args, " "), Voice, Text)
		if err == nil {
			err = c.provisioner.RemoveManaged(ctx, removed)
		}
	}
	switch {
	case err == nil:
		if removed.Channel.ID != msg.ChannelID {
			c.persistent(ctx, msg, "channel.removed")
		}
	case errors.Is(err, ErrNotFound):
		c.transient(ctx, msg, "channel.not_found")
	default:
		c.failed(ctx, msg, "remove channel", err)
	}
	return nil
}

// groupOf requires the invoking channel to sit inside a channel group.
func (c *Commands) groupOf(ctx context.Context, msg platform.Message) (Group, bool) {
	ch, err := c.platform.Channel(ctx, msg.ChannelID)
	if err != nil {
		c.failed(ctx, msg, "get channel", err)
		return Group{}, false
	}
	if !ch.InGroup() {
		c.transient(ctx, msg, "command.not_in_group")
		return Group{}, false
	}
	return Group{GuildID: ch.GuildID, ID: ch.ParentID}, true
}

func (c *Commands) canManage(ctx context.Context, msg platform.Message) bool {
	ok, err := c.platform.CanManageChannels(ctx, msg.ChannelID, msg.AuthorID)
	if err != nil {
		c.failed(ctx, msg, "check permissions", err)
		return false
	}
	if !ok {
		c.transient(ctx, msg, "command.forbidden")
	}
	return ok
}

func (c *Commands) tryCooldown(ctx context.Context, msg platform.Message, action Action) bool {
	err := c.cooldowns.Try(msg.AuthorID, action)
	if err == nil {
		return true
	}
	var cd *CooldownError
	if errors.As(err, &cd) {
		c.transient(ctx, msg, "command.cooldown", cd.Seconds())
	}
	return false
}

func (c *Commands) failed(ctx context.Context, msg platform.Message, op string, err error) {
	logger.Scoped(ctx, c.logger).Error(op+" failed", slog.String("author_id", msg.AuthorID), slog.Any("error", err))
	c.transient(ctx, msg, "error.generic")
}

func (c *Commands) transient(ctx context.Context, msg platform.Message, key string, args ...any) {
	c.send(ctx, msg, c.opts.ReplyTTL, key, args...)
}

func (c *Commands) persistent(ctx context.Context, msg platform.Message, key string, args ...any) {
	c.send(ctx, msg, 0, key, args...)
}

func (c *Commands) send(ctx context.Context, msg platform.Message, ttl time.Duration, key string, args ...any) {
	text := c.i18n.Sprintf(msg.Locale, key, args...)
	_, err := c.platform.SendMessage(ctx, msg.ChannelID, text, platform.SendOptions{
		DeleteAfter:   ttl,
		MentionUserID: msg.AuthorID,
	})
	if err != nil {
		logger.Scoped(ctx, c.logger).Warn("send command reply failed", slog.String("key", key), slog.Any("error", err))
	}
}

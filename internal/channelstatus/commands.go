package channelstatus

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/kazuma11121125/rt-bot/internal/i18n"
	"github.com/kazuma11121125/rt-bot/internal/logger"
	"github.com/kazuma11121125/rt-bot/internal/platform"
)

var disableWords = []string{"off", "false", "disable", "0"}

// Refresher renders a guild's templates right away.
type Refresher interface {
	RefreshGuild(ctx context.Context, guildID string) (int, error)
}

// Commands implements the status command. A nil store answers that the feature is disabled.
type Commands struct {
	logger    *slog.Logger
	platform  platform.Platform
	store     *Store
	refresher Refresher
	i18n      *i18n.Localizer
	prefix    string
	replyTTL  time.Duration
}

// NewCommands creates the status command handler; refresher may be nil.
func NewCommands(log *slog.Logger, p platform.Platform, store *Store, refresher Refresher, loc *i18n.Localizer, prefix string, replyTTL time.Duration) *Commands {
	if log == nil {
		log = slog.Default()
	}
	return &Commands{
		logger:    log.With(slog.String("component", "status_commands")),
		platform:  p,
		store:     store,
		refresher: refresher,
		i18n:      loc,
		prefix:    prefix,
		replyTTL:  replyTTL,
	}
}

func (c *Commands) Names() []string {
	return []string{"status"}
}

// HandleCommand stores, replaces or clears the template of the invoking channel.
func (c *Commands) HandleCommand(ctx context.Context, msg platform.Message, _ string, args []string) error {
	if msg.GuildID == "" {
		return nil
	}
	if c.store == nil {
		c.reply(ctx, msg, c.replyTTL, "status.disabled")
		return nil
	}
	allowed, err := c.platform.CanManageChannels(ctx, msg.ChannelID, msg.AuthorID)
	if err != nil {
		c.failed(ctx, msg, "check permissions", err)
		return nil
	}
	if !allowed {
		c.reply(ctx, msg, c.replyTTL, "command.forbidden")
		return nil
	}
	template := strings.TrimSpace(strings.Join(args, " "))
	if template == "" {
		c.reply(ctx, msg, c.replyTTL, "status.usage", c.prefix)
		return nil
	}

	if isDisable(template) {
		if _, err := c.store.Delete(ctx, msg.GuildID, msg.ChannelID); err != nil {
			c.failed(ctx, msg, "delete status", err)
			return nil
		}
		c.reply(ctx, msg, 0, "status.off")
		return nil
	}

	if err := c.store.Set(ctx, msg.GuildID, msg.ChannelID, template); err != nil {
		c.failed(ctx, msg, "save status", err)
		return nil
	}
	c.reply(ctx, msg, 0, "status.set")
	if c.refresher != nil {
		if _, err := c.refresher.RefreshGuild(ctx, msg.GuildID); err != nil {
			logger.Scoped(ctx, c.logger).Warn("status refresh failed", slog.Any("error", err))
		}
	}
	return nil
}

func isDisable(template string) bool {
	for _, word := range disableWords {
		if strings.EqualFold(template, word) {
			return true
		}
	}
	return false
}

func (c *Commands) failed(ctx context.Context, msg platform.Message, op string, err error) {
	logger.Scoped(ctx, c.logger).Error(op+" failed", slog.String("author_id", msg.AuthorID), slog.Any("error", err))
	c.reply(ctx, msg, c.replyTTL, "error.generic")
}

func (c *Commands) reply(ctx context.Context, msg platform.Message, ttl time.Duration, key string, args ...any) {
	text := c.i18n.Sprintf(msg.Locale, key, args...)
	if _, err := c.platform.SendMessage(ctx, msg.ChannelID, text, platform.SendOptions{
		DeleteAfter:   ttl,
		MentionUserID: msg.AuthorID,
	}); err != nil {
		logger.Scoped(ctx, c.logger).Warn("send status reply failed", slog.String("key", key), slog.Any("error", err))
	}
}

package freechannel

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/kazuma11121125/rt-bot/internal/i18n"
	"github.com/kazuma11121125/rt-bot/internal/logger"
	"github.com/kazuma11121125/rt-bot/internal/platform"
)

// taggedReplyMarker is contained in every addressed bot reply ("<@id>, ...").
const taggedReplyMarker = ">,"

// Outcome is the terminal state of one filter pass.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeDeleted
	OutcomeRejected
	OutcomeCreated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDeleted:
		return "deleted"
	case OutcomeRejected:
		return "rejected"
	case OutcomeCreated:
		return "created"
	default:
		return "ignored"
	}
}

// Filter keeps hub channels clean and turns create intents into channels.
type Filter struct {
	logger      *slog.Logger
	platform    platform.Platform
	provisioner *Provisioner
	i18n        *i18n.Localizer
	replyTTL    time.Duration
}

// NewFilter creates a hub message filter.
func NewFilter(log *slog.Logger, p platform.Platform, prov *Provisioner, loc *i18n.Localizer, replyTTL time.Duration) *Filter {
	if log == nil {
		log = slog.Default()
	}
	return &Filter{
		logger:      log.With(slog.String("component", "hub_filter")),
		platform:    p,
		provisioner: prov,
		i18n:        loc,
		replyTTL:    replyTTL,
	}
}

// Handle runs one message through the filter. Errors are reported to the author
// and logged; the returned error is only set for failures nobody was told about.
func (f *Filter) Handle(ctx context.Context, msg platform.Message) (Outcome, error) {
	hub, ok, err := f.activeHub(ctx, msg)
	if err != nil || !ok {
		return OutcomeIgnored, err
	}
	f.deleteMessage(ctx, msg)
	if msg.AuthorIsBot || !LooksLikeIntent(msg.Content) {
		return OutcomeDeleted, nil
	}

	ch := hub.Channel
	log := logger.Scoped(ctx, f.logger)
	intent, ok := ParseIntent(msg.Content)
	if !ok {
		f.reply(ctx, ch.ID, msg, "channel.intent_usage")
		return OutcomeRejected, nil
	}
	m, err := f.provisioner.Create(ctx, hub.Group(), msg.AuthorID, intent, hub.Config.Quota)
	switch {
	case err == nil:
		f.reply(ctx, ch.ID, msg, "channel.created."+m.Kind.String())
		return OutcomeCreated, nil
	case errors.Is(err, ErrQuotaExceeded):
		f.reply(ctx, ch.ID, msg, "channel.quota_exceeded")
	case errors.Is(err, ErrNameTooLong):
		f.reply(ctx, ch.ID, msg, "channel.name_too_long")
	case errors.Is(err, ErrMalformedCommand):
		f.reply(ctx, ch.ID, msg, "channel.intent_usage")
	default:
		log.Error("create channel failed", slog.String("owner_id", msg.AuthorID), slog.Any("error", err))
		f.reply(ctx, ch.ID, msg, "error.generic")
	}
	return OutcomeRejected, nil
}

// Sweep deletes msg when it was posted in an active hub. Commands typed into a
// hub go through here after they ran.
func (f *Filter) Sweep(ctx context.Context, msg platform.Message) (bool, error) {
	_, ok, err := f.activeHub(ctx, msg)
	if err != nil || !ok {
		return false, err
	}
	f.deleteMessage(ctx, msg)
	return true, nil
}

// activeHub resolves the enabled hub msg was posted in.
func (f *Filter) activeHub(ctx context.Context, msg platform.Message) (Hub, bool, error) {
	if msg.GuildID == "" || f.isOwnReply(msg) {
		return Hub{}, false, nil
	}
	ch, err := f.platform.Channel(ctx, msg.ChannelID)
	if err != nil {
		if errors.Is(err, platform.ErrChannelNotFound) {
			return Hub{}, false, nil
		}
		return Hub{}, false, err
	}
	if ch.Type != platform.ChannelText || !ch.InGroup() {
		return Hub{}, false, nil
	}
	hub, ok := DecodeHubChannel(ch)
	if !ok || !hub.Config.Enabled {
		return Hub{}, false, nil
	}
	return hub, true, nil
}

func (f *Filter) deleteMessage(ctx context.Context, msg platform.Message) {
	if err := f.platform.DeleteMessage(ctx, msg.ChannelID, msg.ID); err != nil {
		logger.Scoped(ctx, f.logger).Warn("delete hub message failed", slog.String("message_id", msg.ID), slog.Any("error", err))
	}
}

// isOwnReply matches the bot's addressed replies and its content-less panels.
func (f *Filter) isOwnReply(msg platform.Message) bool {
	if msg.AuthorID != f.platform.BotUserID() {
		return false
	}
	return strings.Contains(msg.Content, taggedReplyMarker) || strings.TrimSpace(msg.Content) == ""
}

func (f *Filter) reply(ctx context.Context, channelID string, msg platform.Message, key string, args ...any) {
	text := f.i18n.Sprintf(msg.Locale, key, args...)
	_, err := f.platform.SendMessage(ctx, channelID, text, platform.SendOptions{
		DeleteAfter:   f.replyTTL,
		MentionUserID: msg.AuthorID,
	})
	if err != nil {
		logger.Scoped(ctx, f.logger).Warn("send hub reply failed", slog.String("key", key), slog.Any("error", err))
	}
}

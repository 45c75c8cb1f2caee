// Package discord connects the bot to the Discord gateway and implements platform.Platform
// over the Discord REST API.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"github.com/kazuma11121125/rt-bot/internal/channel"
	"github.com/kazuma11121125/rt-bot/internal/platform"
)

// Type is the adapter's channel type.
const Type channel.ChannelType = "discord"

const (
	deleteTimeout   = 10 * time.Second
	memberPageLimit = 1000
)

// Config holds the bot token and the pacing of channel mutations.
type Config struct {
	Token         string
	MutationRate  float64
	MutationBurst int
}

// Adapter is a Discord gateway receiver and the platform surface used by the handlers.
type Adapter struct {
	logger  *slog.Logger
	session *discordgo.Session
	limiter *rate.Limiter

	mu    sync.RWMutex
	botID string
}

// New creates an adapter; the gateway is opened by Connect.
func New(log *slog.Logger, cfg Config) (*Adapter, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("discord token is required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		logger:  log.With(slog.String("adapter", Type.String())),
		session: session,
		limiter: newMutationLimiter(cfg.MutationRate, cfg.MutationBurst),
	}, nil
}

func newMutationLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (a *Adapter) Type() channel.ChannelType {
	return Type
}

// Connect opens the gateway and forwards guild messages to handler.
func (a *Adapter) Connect(ctx context.Context, cfg channel.Config, handler channel.InboundHandler) (channel.Connection, error) {
	if handler == nil {
		return nil, errors.New("inbound handler is required")
	}
	remove := a.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m == nil || m.Message == nil || m.GuildID == "" {
			return
		}
		msg := toMessage(m.Message, a.guildLocale(m.GuildID))
		err := handler(context.Background(), cfg, channel.InboundMessage{
			Channel: Type,
			Message: msg,
		})
		if err != nil {
			a.logger.Warn("inbound dispatch failed",
				slog.String("message_id", msg.ID),
				slog.String("channel_id", msg.ChannelID),
				slog.Any("error", err))
		}
	})

	if err := a.session.Open(); err != nil {
		remove()
		return nil, fmt.Errorf("open discord session: %w", err)
	}
	me, err := a.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		remove()
		_ = a.session.Close()
		return nil, fmt.Errorf("fetch discord bot identity: %w", err)
	}
	a.mu.Lock()
	a.botID = me.ID
	a.mu.Unlock()
	a.logger.Info("discord bot connected", slog.String("username", me.Username), slog.String("id", me.ID))

	return channel.NewConnection(cfg, func(context.Context) error {
		remove()
		return a.session.Close()
	}), nil
}

func (a *Adapter) guildLocale(guildID string) string {
	if a.session.State == nil {
		return ""
	}
	guild, err := a.session.State.Guild(guildID)
	if err != nil || guild == nil {
		return ""
	}
	return guild.PreferredLocale
}

func (a *Adapter) BotUserID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.botID
}

func (a *Adapter) Channel(ctx context.Context, channelID string) (platform.Channel, error) {
	if a.session.State != nil {
		if ch, err := a.session.State.Channel(channelID); err == nil && ch != nil {
			return toChannel(ch), nil
		}
	}
	ch, err := a.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Channel{}, mapError(err)
	}
	return toChannel(ch), nil
}

// GroupChannels always reads through REST so quota counts see fresh topics.
func (a *Adapter) GroupChannels(ctx context.Context, guildID, parentID string) ([]platform.Channel, error) {
	all, err := a.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err)
	}
	items := make([]platform.Channel, 0)
	for _, ch := range all {
		if ch != nil && ch.ParentID == parentID {
			items = append(items, toChannel(ch))
		}
	}
	return items, nil
}

func (a *Adapter) CreateChannel(ctx context.Context, req platform.CreateChannelRequest) (platform.Channel, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return platform.Channel{}, err
	}
	ch, err := a.session.GuildChannelCreateComplex(req.GuildID, discordgo.GuildChannelCreateData{
		Name:     req.Name,
		Type:     toDiscordType(req.Type),
		Topic:    req.Topic,
		ParentID: req.ParentID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Channel{}, mapError(err)
	}
	return toChannel(ch), nil
}

// EditChannel sends a raw PATCH so an empty topic is transmitted instead of omitted.
func (a *Adapter) EditChannel(ctx context.Context, channelID string, req platform.EditChannelRequest) (platform.Channel, error) {
	payload := editPayload(req)
	if len(payload) == 0 {
		return a.Channel(ctx, channelID)
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return platform.Channel{}, err
	}
	endpoint := discordgo.EndpointChannel(channelID)
	body, err := a.session.RequestWithBucketID(http.MethodPatch, endpoint, payload, endpoint, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Channel{}, mapError(err)
	}
	var ch discordgo.Channel
	if err := discordgo.Unmarshal(body, &ch); err != nil {
		return platform.Channel{}, fmt.Errorf("decode edited channel: %w", err)
	}
	return toChannel(&ch), nil
}

func (a *Adapter) DeleteChannel(ctx context.Context, channelID string) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := a.session.ChannelDelete(channelID, discordgo.WithContext(ctx)); err != nil {
		return mapError(err)
	}
	return nil
}

func (a *Adapter) SendMessage(ctx context.Context, channelID, content string, opts platform.SendOptions) (string, error) {
	msg, err := a.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:         composeContent(content, opts.MentionUserID),
		AllowedMentions: allowedMentions(opts.MentionUserID),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", mapError(err)
	}
	if opts.DeleteAfter > 0 {
		a.scheduleDelete(channelID, msg.ID, opts.DeleteAfter)
	}
	return msg.ID, nil
}

func (a *Adapter) SendPanel(ctx context.Context, channelID string, panel platform.Panel) (string, error) {
	msg, err := a.session.ChannelMessageSendEmbed(channelID, toEmbed(panel), discordgo.WithContext(ctx))
	if err != nil {
		return "", mapError(err)
	}
	return msg.ID, nil
}

func (a *Adapter) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return mapError(a.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)))
}

// scheduleDelete removes a reply after ttl; failures are logged and dropped.
func (a *Adapter) scheduleDelete(channelID, messageID string, ttl time.Duration) {
	time.AfterFunc(ttl, func() {
		ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
		defer cancel()
		if err := a.DeleteMessage(ctx, channelID, messageID); err != nil && !errors.Is(err, platform.ErrChannelNotFound) {
			a.logger.Debug("auto delete failed",
				slog.String("channel_id", channelID),
				slog.String("message_id", messageID),
				slog.Any("error", err))
		}
	})
}

func (a *Adapter) CanManageChannels(ctx context.Context, channelID, userID string) (bool, error) {
	perms, err := a.session.UserChannelPermissions(userID, channelID, discordgo.WithContext(ctx))
	if err != nil {
		return false, mapError(err)
	}
	return hasManageChannels(perms), nil
}

func (a *Adapter) GuildStats(ctx context.Context, guildID string, withMembers bool) (platform.GuildStats, error) {
	channels, err := a.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return platform.GuildStats{}, mapError(err)
	}
	stats := platform.GuildStats{TextChannels: countText(channels)}
	if !withMembers {
		return stats, nil
	}
	after := ""
	for {
		page, err := a.session.GuildMembers(guildID, after, memberPageLimit, discordgo.WithContext(ctx))
		if err != nil {
			return platform.GuildStats{}, mapError(err)
		}
		members, bots := countMembers(page)
		stats.Members += members
		stats.Bots += bots
		if len(page) < memberPageLimit {
			return stats, nil
		}
		last := page[len(page)-1]
		if last == nil || last.User == nil {
			return stats, nil
		}
		after = last.User.ID
	}
}

var (
	_ channel.Adapter   = (*Adapter)(nil)
	_ channel.Receiver  = (*Adapter)(nil)
	_ platform.Platform = (*Adapter)(nil)
)

// Package platform describes the chat-platform surface the bot consumes: channel reads,
// channel mutations and message delivery. Adapters (Discord) and test fakes implement Platform.
package platform

import (
	"context"
	"errors"
	"time"
)

// ErrChannelNotFound is returned when a channel id does not resolve (deleted or foreign).
var ErrChannelNotFound = errors.New("channel not found")

// ChannelType is the platform kind of a channel.
type ChannelType string

const (
	ChannelText     ChannelType = "text"
	ChannelVoice    ChannelType = "voice"
	ChannelCategory ChannelType = "category"
	ChannelOther    ChannelType = "other"
)

// Channel is a snapshot of one platform channel.
type Channel struct {
	ID       string
	GuildID  string
	ParentID string // channel group (category) id, empty when ungrouped
	Type     ChannelType
	Name     string
	Topic    string
}

// InGroup reports whether the channel belongs to a channel group.
func (c Channel) InGroup() bool {
	return c.ParentID != ""
}

// CreateChannelRequest describes a channel to create inside a group.
type CreateChannelRequest struct {
	GuildID  string
	ParentID string
	Type     ChannelType
	Name     string
	Topic    string
}

// EditChannelRequest changes the name and/or topic. Nil fields are left untouched;
// a non-nil empty Topic clears it.
type EditChannelRequest struct {
	Name  *string
	Topic *string
}

// SendOptions controls delivery of a bot message.
type SendOptions struct {
	// DeleteAfter schedules a fire-and-forget delete; zero keeps the message.
	DeleteAfter time.Duration
	// MentionUserID prefixes the content with a mention of this user ("<@id>, ").
	MentionUserID string
}

// Panel is an informational embed.
type Panel struct {
	Title       string
	Description string
	Footer      string
}

// GuildStats carries the counters used by channel status templates.
type GuildStats struct {
	TextChannels int
	Members      int
	Bots         int
}

// Users returns the number of non-bot members.
func (s GuildStats) Users() int {
	return s.Members - s.Bots
}

// Platform is the chat-platform collaborator.
type Platform interface {
	BotUserID() string
	Channel(ctx context.Context, channelID string) (Channel, error)
	GroupChannels(ctx context.Context, guildID, parentID string) ([]Channel, error)
	CreateChannel(ctx context.Context, req CreateChannelRequest) (Channel, error)
	EditChannel(ctx context.Context, channelID string, req EditChannelRequest) (Channel, error)
	DeleteChannel(ctx context.Context, channelID string) error
	SendMessage(ctx context.Context, channelID, content string, opts SendOptions) (string, error)
	SendPanel(ctx context.Context, channelID string, panel Panel) (string, error)
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	CanManageChannels(ctx context.Context, channelID, userID string) (bool, error)
	GuildStats(ctx context.Context, guildID string, withMembers bool) (GuildStats, error)
}

// Message is one inbound chat message.
type Message struct {
	ID          string
	GuildID     string
	ChannelID   string
	AuthorID    string
	AuthorIsBot bool
	Content     string
	// Locale is the guild's preferred locale, empty when unknown.
	Locale string
}

// Mention renders a user mention.
func Mention(userID string) string {
	return "<@" + userID + ">"
}

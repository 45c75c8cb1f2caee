// Package platformtest provides an in-memory platform.Platform for tests.
package platformtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/kazuma11121125/rt-bot/internal/platform"
)

// SentMessage records one message or panel delivered through the fake.
type SentMessage struct {
	ID        string
	ChannelID string
	Content   string
	Options   platform.SendOptions
	Panel     *platform.Panel
}

// Fake is a concurrency-safe in-memory guild.
type Fake struct {
	mu       sync.Mutex
	botID    string
	nextID   int
	channels map[string]platform.Channel
	managers map[string]bool
	stats    map[string]platform.GuildStats

	Sent            []SentMessage
	DeletedMessages []string
	DeletedChannels []string
	Edits           []string
	CreateCalls     int

	// FailCreate makes CreateChannel return this error when set.
	FailCreate error
}

// New returns an empty fake whose bot user id is botID.
func New(botID string) *Fake {
	return &Fake{
		botID:    botID,
		nextID:   1000,
		channels: map[string]platform.Channel{},
		managers: map[string]bool{},
		stats:    map[string]platform.GuildStats{},
	}
}

func (f *Fake) id() string {
	f.nextID++
	return strconv.Itoa(f.nextID)
}

// AddChannel seeds a channel; an empty ID is assigned.
func (f *Fake) AddChannel(ch platform.Channel) platform.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch.ID == "" {
		ch.ID = f.id()
	}
	f.channels[ch.ID] = ch
	return ch
}

// GrantManage marks userID as holding the Manage Channels permission.
func (f *Fake) GrantManage(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.managers[userID] = true
}

// SetStats seeds guild counters.
func (f *Fake) SetStats(guildID string, stats platform.GuildStats) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats[guildID] = stats
}

// Get returns the current snapshot of a channel.
func (f *Fake) Get(channelID string) (platform.Channel, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	return ch, ok
}

// Children returns the channels inside parentID ordered by id.
func (f *Fake) Children(parentID string) []platform.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.children("", parentID)
}

// Messages returns a copy of the delivered messages.
func (f *Fake) Messages() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentMessage(nil), f.Sent...)
}

func (f *Fake) children(guildID, parentID string) []platform.Channel {
	items := make([]platform.Channel, 0)
	for _, ch := range f.channels {
		if ch.ParentID != parentID {
			continue
		}
		if guildID != "" && ch.GuildID != guildID {
			continue
		}
		items = append(items, ch)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (f *Fake) BotUserID() string { return f.botID }

func (f *Fake) Channel(_ context.Context, channelID string) (platform.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return platform.Channel{}, platform.ErrChannelNotFound
	}
	return ch, nil
}

func (f *Fake) GroupChannels(_ context.Context, guildID, parentID string) ([]platform.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.children(guildID, parentID), nil
}

func (f *Fake) CreateChannel(_ context.Context, req platform.CreateChannelRequest) (platform.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls++
	if f.FailCreate != nil {
		return platform.Channel{}, f.FailCreate
	}
	if req.Name == "" {
		return platform.Channel{}, errors.New("name is required")
	}
	ch := platform.Channel{
		ID:       f.id(),
		GuildID:  req.GuildID,
		ParentID: req.ParentID,
		Type:     req.Type,
		Name:     req.Name,
		Topic:    req.Topic,
	}
	f.channels[ch.ID] = ch
	return ch, nil
}

func (f *Fake) EditChannel(_ context.Context, channelID string, req platform.EditChannelRequest) (platform.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return platform.Channel{}, platform.ErrChannelNotFound
	}
	if req.Name != nil {
		ch.Name = *req.Name
	}
	if req.Topic != nil {
		ch.Topic = *req.Topic
	}
	f.channels[channelID] = ch
	f.Edits = append(f.Edits, channelID)
	return ch, nil
}

func (f *Fake) DeleteChannel(_ context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.channels[channelID]; !ok {
		return platform.ErrChannelNotFound
	}
	delete(f.channels, channelID)
	f.DeletedChannels = append(f.DeletedChannels, channelID)
	return nil
}

func (f *Fake) SendMessage(_ context.Context, channelID, content string, opts platform.SendOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if opts.MentionUserID != "" {
		content = fmt.Sprintf("%s, %s", platform.Mention(opts.MentionUserID), content)
	}
	msg := SentMessage{ID: f.id(), ChannelID: channelID, Content: content, Options: opts}
	f.Sent = append(f.Sent, msg)
	return msg.ID, nil
}

func (f *Fake) SendPanel(_ context.Context, channelID string, panel platform.Panel) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := panel
	msg := SentMessage{ID: f.id(), ChannelID: channelID, Panel: &p}
	f.Sent = append(f.Sent, msg)
	return msg.ID, nil
}

func (f *Fake) DeleteMessage(_ context.Context, _ string, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeletedMessages = append(f.DeletedMessages, messageID)
	return nil
}

func (f *Fake) CanManageChannels(_ context.Context, _ string, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.managers[userID], nil
}

func (f *Fake) GuildStats(_ context.Context, guildID string, withMembers bool) (platform.GuildStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := f.stats[guildID]
	text := 0
	for _, ch := range f.channels {
		if ch.GuildID == guildID && ch.Type == platform.ChannelText {
			text++
		}
	}
	stats.TextChannels = text
	if !withMembers {
		stats.Members, stats.Bots = 0, 0
	}
	return stats, nil
}

var _ platform.Platform = (*Fake)(nil)

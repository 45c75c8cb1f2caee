// Package event provides an in-process hub for free-channel lifecycle events.
package event

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultBufferSize is the default per-subscriber channel buffer.
	DefaultBufferSize = 64
	// AllGuilds subscribes to events of every guild.
	AllGuilds = "*"
)

// Type identifies the event category published by the hub.
type Type string

const (
	TypeChannelCreated Type = "channel_created"
	TypeChannelRenamed Type = "channel_renamed"
	TypeChannelRemoved Type = "channel_removed"
	TypeHubRegistered  Type = "hub_registered"
	TypeHubRemoved     Type = "hub_removed"
)

// Event describes one successful channel mutation.
type Event struct {
	Type      Type      `json:"type"`
	GuildID   string    `json:"guild_id"`
	GroupID   string    `json:"group_id,omitempty"`
	ChannelID string    `json:"channel_id"`
	OwnerID   string    `json:"owner_id,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	Name      string    `json:"name,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher publishes events to subscribers.
type Publisher interface {
	Publish(event Event)
}

// Subscriber subscribes to guild-scoped events.
type Subscriber interface {
	Subscribe(guildID string, buffer int) (string, <-chan Event, func())
}

// Hub is an in-process pub/sub dispatcher for guild-scoped events.
type Hub struct {
	mu      sync.RWMutex
	streams map[string]map[string]chan Event
}

// NewHub creates an empty event hub.
func NewHub() *Hub {
	return &Hub{
		streams: map[string]map[string]chan Event{},
	}
}

// Publish broadcasts one event to the subscribers of its guild and to AllGuilds subscribers.
// Slow subscribers are dropped in a non-blocking way.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	guildID := strings.TrimSpace(event.GuildID)
	if guildID == "" || guildID == AllGuilds {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, key := range []string{guildID, AllGuilds} {
		for _, ch := range h.streams[key] {
			select {
			case ch <- event:
			default:
				// Drop if receiver is slow to avoid blocking the provisioning path.
			}
		}
	}
}

// Subscribe registers one subscriber under a guild ID (or AllGuilds).
// It returns a stream ID, read-only event channel, and a cancel function.
func (h *Hub) Subscribe(guildID string, buffer int) (string, <-chan Event, func()) {
	if h == nil {
		ch := make(chan Event)
		close(ch)
		return "", ch, func() {}
	}
	guildID = strings.TrimSpace(guildID)
	if guildID == "" {
		ch := make(chan Event)
		close(ch)
		return "", ch, func() {}
	}
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}

	streamID := uuid.NewString()
	ch := make(chan Event, buffer)

	h.mu.Lock()
	streams, ok := h.streams[guildID]
	if !ok {
		streams = map[string]chan Event{}
		h.streams[guildID] = streams
	}
	streams[streamID] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			streams := h.streams[guildID]
			if streams != nil {
				if current, ok := streams[streamID]; ok {
					delete(streams, streamID)
					close(current)
				}
				if len(streams) == 0 {
					delete(h.streams, guildID)
				}
			}
			h.mu.Unlock()
		})
	}

	return streamID, ch, cancel
}

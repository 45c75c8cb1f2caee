// Package channel dispatches inbound chat events from platform adapters to a processor
// through a bounded queue drained by a worker pool.
package channel

import (
	"strings"
	"time"

	"github.com/kazuma11121125/rt-bot/internal/platform"
)

// ChannelType identifies an adapter ("discord").
type ChannelType string

func (c ChannelType) String() string {
	return string(c)
}

func normalizeChannelType(raw string) ChannelType {
	return ChannelType(strings.ToLower(strings.TrimSpace(raw)))
}

// Config describes one adapter connection.
type Config struct {
	ID   string
	Type ChannelType
}

// InboundMessage is one inbound platform event turned into a unit of work.
type InboundMessage struct {
	EventID    string
	Channel    ChannelType
	Message    platform.Message
	ReceivedAt time.Time
}

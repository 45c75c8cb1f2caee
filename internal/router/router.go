// Package router routes dequeued inbound events to the prefixed commands or the hub filter.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kazuma11121125/rt-bot/internal/channel"
	"github.com/kazuma11121125/rt-bot/internal/freechannel"
	"github.com/kazuma11121125/rt-bot/internal/logger"
	"github.com/kazuma11121125/rt-bot/internal/platform"
)

// CommandHandler serves one or more prefixed commands.
type CommandHandler interface {
	Names() []string
	HandleCommand(ctx context.Context, msg platform.Message, name string, args []string) error
}

// HubFilter processes non-command messages and clears commands out of hubs.
type HubFilter interface {
	Handle(ctx context.Context, msg platform.Message) (freechannel.Outcome, error)
	Sweep(ctx context.Context, msg platform.Message) (bool, error)
}

// InboundRouter implements channel.InboundProcessor.
type InboundRouter struct {
	logger   *slog.Logger
	prefix   string
	filter   HubFilter
	commands map[string]CommandHandler
}

// NewInboundRouter creates a router. Later handlers win on duplicate names.
func NewInboundRouter(log *slog.Logger, prefix string, filter HubFilter, handlers ...CommandHandler) *InboundRouter {
	if log == nil {
		log = slog.Default()
	}
	r := &InboundRouter{
		logger:   log.With(slog.String("component", "channel_router")),
		prefix:   prefix,
		filter:   filter,
		commands: map[string]CommandHandler{},
	}
	for _, h := range handlers {
		if h == nil {
			continue
		}
		for _, name := range h.Names() {
			r.commands[name] = h
		}
	}
	return r
}

// HandleInbound routes one message.
func (r *InboundRouter) HandleInbound(ctx context.Context, _ channel.Config, msg channel.InboundMessage) error {
	m := msg.Message
	log := logger.Scoped(ctx, r.logger)
	if name, args, ok := ParseCommand(r.prefix, m.Content); ok && !m.AuthorIsBot {
		if h, found := r.commands[name]; found {
			log.Debug("command", slog.String("name", name), slog.Int("args", len(args)))
			err := h.HandleCommand(ctx, m, name, args)
			if r.filter != nil {
				if _, sweepErr := r.filter.Sweep(ctx, m); sweepErr != nil {
					log.Warn("sweep command from hub failed", slog.Any("error", sweepErr))
				}
			}
			if err != nil {
				return fmt.Errorf("command %s: %w", name, err)
			}
			return nil
		}
	}
	if r.filter == nil {
		return nil
	}
	outcome, err := r.filter.Handle(ctx, m)
	if err != nil {
		return fmt.Errorf("hub filter: %w", err)
	}
	if outcome != freechannel.OutcomeIgnored {
		log.Debug("hub message", slog.String("outcome", outcome.String()))
	}
	return nil
}

// ParseCommand splits "<prefix><name> args..." into the name and whitespace-separated args.
func ParseCommand(prefix, content string) (string, []string, bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(content[len(prefix):])
	if len(fields) == 0 {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}

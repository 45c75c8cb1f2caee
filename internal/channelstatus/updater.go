package channelstatus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kazuma11121125/rt-bot/internal/event"
	"github.com/kazuma11121125/rt-bot/internal/platform"
)

// Updater renames status channels whose rendered template differs from their current name.
type Updater struct {
	logger   *slog.Logger
	platform platform.Platform
	store    *Store
	events   event.Subscriber

	// passes serializes refreshes so a scheduled pass and an event pass never race on renames.
	passes sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewUpdater creates an updater; events may be nil to disable event-driven refreshes.
func NewUpdater(log *slog.Logger, p platform.Platform, store *Store, events event.Subscriber) *Updater {
	if log == nil {
		log = slog.Default()
	}
	return &Updater{
		logger:   log.With(slog.String("component", "channel_status")),
		platform: p,
		store:    store,
		events:   events,
	}
}

// RefreshAll renders every stored template and returns the number of renamed channels.
func (u *Updater) RefreshAll(ctx context.Context) (int, error) {
	return u.refresh(ctx, "")
}

// RefreshGuild renders the templates of one guild.
func (u *Updater) RefreshGuild(ctx context.Context, guildID string) (int, error) {
	if guildID == "" {
		return 0, nil
	}
	return u.refresh(ctx, guildID)
}

func (u *Updater) refresh(ctx context.Context, guildID string) (int, error) {
	u.passes.Lock()
	defer u.passes.Unlock()

	entries, err := u.store.List(ctx, guildID)
	if err != nil {
		return 0, err
	}
	byGuild := map[string][]Entry{}
	order := make([]string, 0)
	for _, entry := range entries {
		if _, ok := byGuild[entry.GuildID]; !ok {
			order = append(order, entry.GuildID)
		}
		byGuild[entry.GuildID] = append(byGuild[entry.GuildID], entry)
	}

	var (
		renamed int
		errs    []error
	)
	for _, gid := range order {
		n, err := u.refreshGuild(ctx, gid, byGuild[gid])
		renamed += n
		if err != nil {
			errs = append(errs, err)
		}
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
	}
	return renamed, errors.Join(errs...)
}

func (u *Updater) refreshGuild(ctx context.Context, guildID string, entries []Entry) (int, error) {
	withMembers := false
	for _, entry := range entries {
		if NeedsMembers(entry.Template) {
			withMembers = true
			break
		}
	}
	stats, err := u.platform.GuildStats(ctx, guildID, withMembers)
	if err != nil {
		return 0, fmt.Errorf("guild %s stats: %w", guildID, err)
	}

	renamed := 0
	var errs []error
	for _, entry := range entries {
		ch, err := u.platform.Channel(ctx, entry.ChannelID)
		if errors.Is(err, platform.ErrChannelNotFound) {
			u.logger.Debug("status channel missing", slog.String("guild_id", guildID), slog.String("channel_id", entry.ChannelID))
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("channel %s: %w", entry.ChannelID, err))
			continue
		}
		name := Render(entry.Template, stats)
		if name == "" || name == ch.Name {
			continue
		}
		if _, err := u.platform.EditChannel(ctx, ch.ID, platform.EditChannelRequest{Name: &name}); err != nil {
			errs = append(errs, fmt.Errorf("rename %s: %w", ch.ID, err))
			continue
		}
		renamed++
		u.logger.Info("status channel renamed",
			slog.String("guild_id", guildID),
			slog.String("channel_id", ch.ID),
			slog.String("name", name))
	}
	return renamed, errors.Join(errs...)
}

// Start refreshes a guild whenever a free channel is created or removed in it.
func (u *Updater) Start(ctx context.Context) {
	if u.events == nil {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	_, stream, unsubscribe := u.events.Subscribe(event.AllGuilds, event.DefaultBufferSize)
	done := make(chan struct{})
	u.cancel, u.done = cancel, done
	go func() {
		defer close(done)
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-stream:
				if !ok {
					return
				}
				if !changesCounters(ev.Type) {
					continue
				}
				if _, err := u.RefreshGuild(ctx, ev.GuildID); err != nil && ctx.Err() == nil {
					u.logger.Warn("event refresh failed", slog.String("guild_id", ev.GuildID), slog.Any("error", err))
				}
			}
		}
	}()
}

// Stop ends the event loop and waits for it.
func (u *Updater) Stop() {
	u.mu.Lock()
	cancel, done := u.cancel, u.done
	u.cancel, u.done = nil, nil
	u.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func changesCounters(t event.Type) bool {
	return t == event.TypeChannelCreated || t == event.TypeChannelRemoved
}

package freechannel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kazuma11121125/rt-bot/internal/event"
	"github.com/kazuma11121125/rt-bot/internal/i18n"
	"github.com/kazuma11121125/rt-bot/internal/logger"
	"github.com/kazuma11121125/rt-bot/internal/platform"
)

// MaxChannelNameLength is the platform limit on channel names.
const MaxChannelNameLength = 100

// Options tunes provisioning.
type Options struct {
	MaxQuota      int
	StrictQuota   bool
	PerKindQuota  bool
	CommandPrefix string
}

// Provisioner performs hub and managed channel mutations.
type Provisioner struct {
	logger   *slog.Logger
	platform platform.Platform
	quota    *QuotaTracker
	i18n     *i18n.Localizer
	events   event.Publisher
	locks    *keyedMutex
	opts     Options
}

// NewProvisioner creates a provisioner. events may be nil.
func NewProvisioner(log *slog.Logger, p platform.Platform, loc *i18n.Localizer, events event.Publisher, opts Options) *Provisioner {
	if log == nil {
		log = slog.Default()
	}
	if opts.MaxQuota <= 0 {
		opts.MaxQuota = 100
	}
	return &Provisioner{
		logger:   log.With(slog.String("component", "freechannel")),
		platform: p,
		quota:    NewQuotaTracker(p, opts.PerKindQuota),
		i18n:     loc,
		events:   events,
		locks:    newKeyedMutex(),
		opts:     opts,
	}
}

// Quota returns the tracker used for admission checks.
func (p *Provisioner) Quota() *QuotaTracker {
	return p.quota
}

func (p *Provisioner) log(ctx context.Context) *slog.Logger {
	return logger.Scoped(ctx, p.logger)
}

// RegisterHub marks channelID as a hub with the given quota. The info panel is
// posted before the topic is written.
func (p *Provisioner) RegisterHub(ctx context.Context, channelID string, quota int, locale string) (Hub, error) {
	ch, err := p.platform.Channel(ctx, channelID)
	if err != nil {
		return Hub{}, fmt.Errorf("get channel: %w", err)
	}
	if !ch.InGroup() {
		return Hub{}, ErrNotInGroup
	}
	if cfg, ok := DecodeHub(ch.Topic); ok && cfg.Enabled {
		return Hub{}, ErrAlreadyHub
	}
	if quota < 1 || quota > p.opts.MaxQuota {
		return Hub{}, fmt.Errorf("%w: quota %d outside [1, %d]", ErrMalformedCommand, quota, p.opts.MaxQuota)
	}

	printer := p.i18n.Printer(p.i18n.Match(locale))
	panel := platform.Panel{
		Title:       printer.Sprintf("panel.title"),
		Description: printer.Sprintf("panel.description", p.opts.CommandPrefix),
		Footer:      printer.Sprintf("panel.footer", quota),
	}
	if _, err := p.platform.SendPanel(ctx, channelID, panel); err != nil {
		return Hub{}, fmt.Errorf("send panel: %w", err)
	}
	topic := EncodeHub(quota)
	updated, err := p.platform.EditChannel(ctx, channelID, platform.EditChannelRequest{Topic: &topic})
	if err != nil {
		return Hub{}, fmt.Errorf("write hub topic: %w", err)
	}

	hub := Hub{Channel: updated, Config: HubConfig{Enabled: true, Quota: quota, Note: DefaultHubNote}}
	p.publish(event.Event{Type: event.TypeHubRegistered, GuildID: ch.GuildID, GroupID: ch.ParentID, ChannelID: ch.ID})
	p.log(ctx).Info("hub registered", slog.String("hub_id", ch.ID), slog.Int("quota", quota))
	return hub, nil
}

// DeregisterHub clears the hub topic of channelID.
func (p *Provisioner) DeregisterHub(ctx context.Context, channelID string) error {
	ch, err := p.platform.Channel(ctx, channelID)
	if err != nil {
		return fmt.Errorf("get channel: %w", err)
	}
	if _, ok := DecodeHub(ch.Topic); !ok {
		return ErrNotAHub
	}
	empty := ""
	if _, err := p.platform.EditChannel(ctx, channelID, platform.EditChannelRequest{Topic: &empty}); err != nil {
		return fmt.Errorf("clear hub topic: %w", err)
	}
	p.publish(event.Event{Type: event.TypeHubRemoved, GuildID: ch.GuildID, GroupID: ch.ParentID, ChannelID: ch.ID})
	p.log(ctx).Info("hub removed", slog.String("hub_id", ch.ID))
	return nil
}

// Create provisions a managed channel for ownerID in group.
func (p *Provisioner) Create(ctx context.Context, group Group, ownerID string, intent Intent, quota int) (ManagedChannel, error) {
	name := strings.TrimSpace(intent.Name)
	if name == "" {
		return ManagedChannel{}, ErrMalformedCommand
	}
	codec := CodecFor(intent.Kind)
	enc := codec.Encode(name, ownerID)
	if utf8.RuneCountInString(enc.Name) > MaxChannelNameLength {
		return ManagedChannel{}, ErrNameTooLong
	}

	if p.opts.StrictQuota {
		unlock := p.locks.Lock(group.ID + "/" + ownerID)
		defer unlock()
	}
	ok, err := p.quota.Admits(ctx, group, ownerID, quota, intent.Kind)
	if err != nil {
		return ManagedChannel{}, err
	}
	if !ok {
		return ManagedChannel{}, ErrQuotaExceeded
	}

	created, err := p.platform.CreateChannel(ctx, platform.CreateChannelRequest{
		GuildID:  group.GuildID,
		ParentID: group.ID,
		Type:     intent.Kind.ChannelType(),
		Name:     enc.Name,
		Topic:    enc.Topic,
	})
	if err != nil {
		return ManagedChannel{}, fmt.Errorf("create %s channel: %w", intent.Kind, err)
	}
	m, ok := DecodeOwnership(created)
	if !ok {
		m = ManagedChannel{Channel: created, Kind: intent.Kind, OwnerID: ownerID, BaseName: name}
	}

	p.publish(p.channelEvent(event.TypeChannelCreated, m))
	p.log(ctx).Info("channel created",
		slog.String("managed_id", created.ID),
		slog.String("kind", intent.Kind.String()),
		slog.String("owner_id", ownerID),
	)
	return m, nil
}

// Lookup finds the managed channel named name owned by ownerID, trying kinds in order.
func (p *Provisioner) Lookup(ctx context.Context, group Group, ownerID, name string, kinds ...Kind) (ManagedChannel, error) {
	view, err := p.quota.View(ctx, group)
	if err != nil {
		return ManagedChannel{}, err
	}
	for _, kind := range kinds {
		m, err := view.Find(ownerID, kind, name)
		if err == nil {
			return m, nil
		}
	}
	return ManagedChannel{}, ErrNotFound
}

// Rename changes the base name of the owner's channel of kind named from.
func (p *Provisioner) Rename(ctx context.Context, group Group, ownerID string, kind Kind, from, to string) (ManagedChannel, error) {
	m, err := p.Lookup(ctx, group, ownerID, from, kind)
	if err != nil {
		return ManagedChannel{}, err
	}
	return p.RenameManaged(ctx, m, to)
}

// Remove deletes the owner's channel of kind named name.
func (p *Provisioner) Remove(ctx context.Context, group Group, ownerID string, kind Kind, name string) (ManagedChannel, error) {
	m, err := p.Lookup(ctx, group, ownerID, name, kind)
	if err != nil {
		return ManagedChannel{}, err
	}
	return m, p.RemoveManaged(ctx, m)
}

// OwnedText resolves channelID as a managed text channel owned by ownerID.
func (p *Provisioner) OwnedText(ctx context.Context, channelID, ownerID string) (ManagedChannel, error) {
	ch, err := p.platform.Channel(ctx, channelID)
	if err != nil {
		if errors.Is(err, platform.ErrChannelNotFound) {
			return ManagedChannel{}, ErrNotFound
		}
		return ManagedChannel{}, fmt.Errorf("get channel: %w", err)
	}
	m, ok := DecodeOwnership(ch)
	if !ok || m.Kind != Text || m.OwnerID != ownerID || !ch.InGroup() {
		return ManagedChannel{}, ErrNotFound
	}
	return m, nil
}

// RenameChannel renames the managed text channel channelID owned by ownerID.
func (p *Provisioner) RenameChannel(ctx context.Context, channelID, ownerID, to string) (ManagedChannel, error) {
	m, err := p.OwnedText(ctx, channelID, ownerID)
	if err != nil {
		return ManagedChannel{}, err
	}
	return p.RenameManaged(ctx, m, to)
}

// RemoveChannel deletes the managed text channel channelID owned by ownerID.
func (p *Provisioner) RemoveChannel(ctx context.Context, channelID, ownerID string) (ManagedChannel, error) {
	m, err := p.OwnedText(ctx, channelID, ownerID)
	if err != nil {
		return ManagedChannel{}, err
	}
	return m, p.RemoveManaged(ctx, m)
}

// RenameManaged applies a new base name while keeping the ownership encoding.
func (p *Provisioner) RenameManaged(ctx context.Context, m ManagedChannel, to string) (ManagedChannel, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return ManagedChannel{}, ErrMalformedCommand
	}
	codec := CodecFor(m.Kind)
	if utf8.RuneCountInString(codec.Encode(to, m.OwnerID).Name) > MaxChannelNameLength {
		return ManagedChannel{}, ErrNameTooLong
	}
	updated, err := p.platform.EditChannel(ctx, m.Channel.ID, codec.Rename(m, to))
	if err != nil {
		return ManagedChannel{}, mapMutationError("rename channel", err)
	}
	renamed, ok := DecodeOwnership(updated)
	if !ok {
		renamed = ManagedChannel{Channel: updated, Kind: m.Kind, OwnerID: m.OwnerID, BaseName: to}
	}
	p.publish(p.channelEvent(event.TypeChannelRenamed, renamed))
	p.log(ctx).Info("channel renamed",
		slog.String("managed_id", m.Channel.ID),
		slog.String("from", m.BaseName),
		slog.String("to", renamed.BaseName),
	)
	return renamed, nil
}

// RemoveManaged deletes a managed channel.
func (p *Provisioner) RemoveManaged(ctx context.Context, m ManagedChannel) error {
	if err := p.platform.DeleteChannel(ctx, m.Channel.ID); err != nil {
		return mapMutationError("delete channel", err)
	}
	p.publish(p.channelEvent(event.TypeChannelRemoved, m))
	p.log(ctx).Info("channel removed", slog.String("managed_id", m.Channel.ID), slog.String("owner_id", m.OwnerID))
	return nil
}

func (p *Provisioner) channelEvent(t event.Type, m ManagedChannel) event.Event {
	return event.Event{
		Type:      t,
		GuildID:   m.Channel.GuildID,
		GroupID:   m.Channel.ParentID,
		ChannelID: m.Channel.ID,
		OwnerID:   m.OwnerID,
		Kind:      m.Kind.String(),
		Name:      m.Channel.Name,
		At:        time.Now(),
	}
}

func (p *Provisioner) publish(ev event.Event) {
	if p.events == nil {
		return
	}
	p.events.Publish(ev)
}

// mapMutationError turns a vanished target into ErrNotFound.
func mapMutationError(op string, err error) error {
	if errors.Is(err, platform.ErrChannelNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

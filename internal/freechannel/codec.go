package freechannel

import (
	"slices"
	"strconv"
	"strings"

	"github.com/kazuma11121125/rt-bot/internal/platform"
)

const (
	hubMarker    = "RTフリーチャンネル"
	ownerMarker  = "作成者"
	quotaLabel   = "作成可能チャンネル数"
	disabledLine = "状態：無効"

	// DefaultHubNote is the human note written under the quota line.
	DefaultHubNote = "このトピックは消さないでください。/ Please do not delete this topic."
)

// HubConfig is the decoded configuration of a hub channel.
type HubConfig struct {
	Enabled bool
	Quota   int
	Note    string
}

// EncodeHub returns the topic of an enabled hub with the given quota.
func EncodeHub(quota int) string {
	return EncodeHubConfig(HubConfig{Enabled: true, Quota: quota})
}

// EncodeHubConfig returns the topic for cfg. A disabled hub carries an extra state line.
func EncodeHubConfig(cfg HubConfig) string {
	lines := []string{hubMarker, quotaLabel + "：" + strconv.Itoa(cfg.Quota)}
	if !cfg.Enabled {
		lines = append(lines, disabledLine)
	}
	note := strings.TrimSpace(cfg.Note)
	if note == "" {
		note = DefaultHubNote
	}
	lines = append(lines, note)
	return strings.Join(lines, "\n")
}

// DecodeHub parses a hub topic. It reports false for anything that is not a hub:
// missing marker, an owner marker, or no positive quota after the quota label.
func DecodeHub(topic string) (HubConfig, bool) {
	if !strings.Contains(topic, hubMarker) || strings.Contains(topic, ownerMarker) {
		return HubConfig{}, false
	}
	idx := strings.Index(topic, quotaLabel)
	if idx < 0 {
		return HubConfig{}, false
	}
	rest := strings.TrimLeft(topic[idx+len(quotaLabel):], "：: ")
	end := strings.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' })
	if end < 0 {
		end = len(rest)
	}
	quota, err := strconv.Atoi(rest[:end])
	if err != nil || quota < 1 {
		return HubConfig{}, false
	}

	cfg := HubConfig{Enabled: true, Quota: quota}
	notes := make([]string, 0, 1)
	for _, line := range strings.Split(rest[end:], "\n") {
		line = strings.TrimSpace(line)
		switch line {
		case "":
		case disabledLine:
			cfg.Enabled = false
		default:
			notes = append(notes, line)
		}
	}
	cfg.Note = strings.Join(notes, "\n")
	return cfg, true
}

// Group identifies a channel group (category) inside a guild.
type Group struct {
	GuildID string
	ID      string
}

// ManagedChannel is a decoded managed channel.
type ManagedChannel struct {
	Channel  platform.Channel
	Kind     Kind
	OwnerID  string
	BaseName string
}

// DecodeOwnership decodes the owner of a channel using the codec of its kind.
func DecodeOwnership(ch platform.Channel) (ManagedChannel, bool) {
	kind, ok := KindOf(ch.Type)
	if !ok {
		return ManagedChannel{}, false
	}
	base, owner, ok := CodecFor(kind).Decode(ch)
	if !ok {
		return ManagedChannel{}, false
	}
	return ManagedChannel{Channel: ch, Kind: kind, OwnerID: owner, BaseName: base}, true
}

// Hub is a decoded hub channel.
type Hub struct {
	Channel platform.Channel
	Config  HubConfig
}

// Group returns the channel group of the hub.
func (h Hub) Group() Group {
	return Group{GuildID: h.Channel.GuildID, ID: h.Channel.ParentID}
}

// DecodeHubChannel decodes a channel as a hub.
func DecodeHubChannel(ch platform.Channel) (Hub, bool) {
	cfg, ok := DecodeHub(ch.Topic)
	if !ok {
		return Hub{}, false
	}
	return Hub{Channel: ch, Config: cfg}, true
}

// GroupView is the decoded content of one channel group.
type GroupView struct {
	Group   Group
	Hubs    []Hub
	Managed []ManagedChannel
}

// Classify decodes every channel of a group once.
func Classify(group Group, channels []platform.Channel) GroupView {
	view := GroupView{Group: group}
	for _, ch := range channels {
		if m, ok := DecodeOwnership(ch); ok {
			view.Managed = append(view.Managed, m)
			continue
		}
		if h, ok := DecodeHubChannel(ch); ok {
			view.Hubs = append(view.Hubs, h)
		}
	}
	return view
}

// Owned returns the managed channels of ownerID, optionally restricted to kinds.
func (v GroupView) Owned(ownerID string, kinds ...Kind) []ManagedChannel {
	items := make([]ManagedChannel, 0)
	for _, m := range v.Managed {
		if m.OwnerID != ownerID {
			continue
		}
		if len(kinds) > 0 && !slices.Contains(kinds, m.Kind) {
			continue
		}
		items = append(items, m)
	}
	return items
}

// Find returns the first managed channel of kind owned by ownerID whose base name matches name.
func (v GroupView) Find(ownerID string, kind Kind, name string) (ManagedChannel, error) {
	for _, m := range v.Owned(ownerID, kind) {
		if baseNameMatches(m, name) {
			return m, nil
		}
	}
	return ManagedChannel{}, ErrNotFound
}

// baseNameMatches compares names the way the platform stores text channel names
// (lowercase, spaces folded into dashes).
func baseNameMatches(m ManagedChannel, name string) bool {
	name = strings.TrimSpace(name)
	if m.BaseName == name {
		return true
	}
	if m.Kind != Text {
		return false
	}
	return strings.EqualFold(m.BaseName, strings.Join(strings.Fields(name), "-"))
}

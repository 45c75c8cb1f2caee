package freechannel

import (
	"strconv"
	"strings"

	"github.com/kazuma11121125/rt-bot/internal/platform"
)

// Kind is the managed channel variant.
type Kind int

const (
	Text Kind = iota
	Voice
)

func (k Kind) String() string {
	if k == Voice {
		return "voice"
	}
	return "text"
}

// ChannelType maps the kind to the platform channel type.
func (k Kind) ChannelType() platform.ChannelType {
	if k == Voice {
		return platform.ChannelVoice
	}
	return platform.ChannelText
}

// KindOf maps a platform channel type to a managed kind.
func KindOf(t platform.ChannelType) (Kind, bool) {
	switch t {
	case platform.ChannelText:
		return Text, true
	case platform.ChannelVoice:
		return Voice, true
	default:
		return Text, false
	}
}

// Encoded is the platform representation of a managed channel.
type Encoded struct {
	Name  string
	Topic string
}

// OwnershipCodec encodes and decodes the owner of one kind of managed channel.
type OwnershipCodec interface {
	Kind() Kind
	Encode(base, ownerID string) Encoded
	// Decode returns the base name and owner id, false when the channel carries no ownership.
	Decode(ch platform.Channel) (base, ownerID string, ok bool)
	// Rename returns the edit that changes the base name while keeping the owner.
	Rename(ch ManagedChannel, base string) platform.EditChannelRequest
}

var codecs = map[Kind]OwnershipCodec{
	Text:  textCodec{},
	Voice: voiceCodec{},
}

// CodecFor returns the ownership codec of a kind.
func CodecFor(k Kind) OwnershipCodec {
	return codecs[k]
}

// textCodec stores the owner in the topic; the name is free.
type textCodec struct{}

func (textCodec) Kind() Kind { return Text }

func (textCodec) Encode(base, ownerID string) Encoded {
	return Encoded{Name: base, Topic: hubMarker + ", " + ownerMarker + "：" + ownerID}
}

func (textCodec) Decode(ch platform.Channel) (string, string, bool) {
	topic := ch.Topic
	if !strings.Contains(topic, hubMarker) {
		return "", "", false
	}
	idx := strings.Index(topic, ownerMarker)
	if idx < 0 {
		return "", "", false
	}
	rest := strings.TrimLeft(topic[idx+len(ownerMarker):], "：: ")
	end := strings.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' })
	if end >= 0 {
		rest = rest[:end]
	}
	if !validSnowflake(rest) {
		return "", "", false
	}
	return ch.Name, rest, true
}

func (textCodec) Rename(_ ManagedChannel, base string) platform.EditChannelRequest {
	return platform.EditChannelRequest{Name: &base}
}

// voiceCodec stores the owner as a "-<ownerId>" name suffix.
type voiceCodec struct{}

func (voiceCodec) Kind() Kind { return Voice }

func (voiceCodec) Encode(base, ownerID string) Encoded {
	return Encoded{Name: base + "-" + ownerID}
}

func (voiceCodec) Decode(ch platform.Channel) (string, string, bool) {
	idx := strings.LastIndex(ch.Name, "-")
	if idx <= 0 {
		return "", "", false
	}
	owner := ch.Name[idx+1:]
	if !validSnowflake(owner) {
		return "", "", false
	}
	return ch.Name[:idx], owner, true
}

func (c voiceCodec) Rename(ch ManagedChannel, base string) platform.EditChannelRequest {
	name := c.Encode(base, ch.OwnerID).Name
	return platform.EditChannelRequest{Name: &name}
}

func validSnowflake(id string) bool {
	_, err := strconv.ParseUint(id, 10, 64)
	return err == nil
}

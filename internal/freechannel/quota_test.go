package freechannel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazuma11121125/rt-bot/internal/platform"
	"github.com/kazuma11121125/rt-bot/internal/platform/platformtest"
)

func seedGroup(fake *platformtest.Fake) Group {
	textTopic := func(owner string) string { return CodecFor(Text).Encode("", owner).Topic }
	fake.AddChannel(platform.Channel{GuildID: "g", ParentID: "c", Type: platform.ChannelText, Name: "a1", Topic: textTopic("42")})
	fake.AddChannel(platform.Channel{GuildID: "g", ParentID: "c", Type: platform.ChannelVoice, Name: "room-42"})
	fake.AddChannel(platform.Channel{GuildID: "g", ParentID: "c", Type: platform.ChannelVoice, Name: "room-43"})
	fake.AddChannel(platform.Channel{GuildID: "g", ParentID: "c", Type: platform.ChannelText, Name: "hub", Topic: EncodeHub(2)})
	fake.AddChannel(platform.Channel{GuildID: "g", ParentID: "other", Type: platform.ChannelVoice, Name: "far-42"})
	return Group{GuildID: "g", ID: "c"}
}

func TestQuotaCount(t *testing.T) {
	fake := platformtest.New("1")
	group := seedGroup(fake)
	q := NewQuotaTracker(fake, false)
	ctx := context.Background()

	n, err := q.Count(ctx, group, "42")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = q.CountKind(ctx, group, "42", Voice)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = q.Count(ctx, group, "44")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestQuotaAdmits(t *testing.T) {
	fake := platformtest.New("1")
	group := seedGroup(fake)
	ctx := context.Background()

	total := NewQuotaTracker(fake, false)
	ok, err := total.Admits(ctx, group, "42", 2, Text)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = total.Admits(ctx, group, "42", 3, Voice)
	require.NoError(t, err)
	assert.True(t, ok)

	perKind := NewQuotaTracker(fake, true)
	ok, err = perKind.Admits(ctx, group, "42", 2, Text)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = perKind.Admits(ctx, group, "42", 1, Voice)
	require.NoError(t, err)
	assert.False(t, ok)
}

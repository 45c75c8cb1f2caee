package freechannel

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kazuma11121125/rt-bot/internal/event"
	"github.com/kazuma11121125/rt-bot/internal/i18n"
	"github.com/kazuma11121125/rt-bot/internal/platform"
	"github.com/kazuma11121125/rt-bot/internal/platform/platformtest"
)

const (
	testGuild    = "900"
	testCategory = "901"
	testHub      = "902"
	testBot      = "999"
	ownerA       = "111"
	ownerB       = "222"
)

type testEnv struct {
	fake        *platformtest.Fake
	hub         *event.Hub
	provisioner *Provisioner
	filter      *Filter
	commands    *Commands
	cooldowns   *Cooldowns
	now         time.Time
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	loc, err := i18n.New("ja")
	require.NoError(t, err)

	fake := platformtest.New(testBot)
	fake.AddChannel(platform.Channel{ID: testCategory, GuildID: testGuild, Type: platform.ChannelCategory, Name: "free"})
	fake.AddChannel(platform.Channel{ID: testHub, GuildID: testGuild, ParentID: testCategory, Type: platform.ChannelText, Name: "hub"})

	if opts.CommandPrefix == "" {
		opts.CommandPrefix = "rt!"
	}
	hub := event.NewHub()
	env := &testEnv{fake: fake, hub: hub, now: time.Unix(1_700_000_000, 0)}
	env.provisioner = NewProvisioner(discardLogger(), fake, loc, hub, opts)
	env.filter = NewFilter(discardLogger(), fake, env.provisioner, loc, 5*time.Second)
	env.cooldowns = NewCooldowns(map[Action]time.Duration{
		ActionRegister:   300 * time.Second,
		ActionDeregister: 300 * time.Second,
		ActionRename:     300 * time.Second,
		ActionRemove:     300 * time.Second,
	})
	env.cooldowns.SetClock(func() time.Time { return env.now })
	env.commands = NewCommands(discardLogger(), fake, env.provisioner, env.cooldowns, loc, CommandOptions{
		DefaultQuota:  4,
		MaxQuota:      100,
		DefaultLocale: "ja",
		CommandPrefix: "rt!",
		ReplyTTL:      5 * time.Second,
	})
	return env
}

func (e *testEnv) makeHub(t *testing.T, quota int) {
	t.Helper()
	_, err := e.provisioner.RegisterHub(context.Background(), testHub, quota, "ja")
	require.NoError(t, err)
}

func (e *testEnv) group() Group {
	return Group{GuildID: testGuild, ID: testCategory}
}

func hubMessage(id, author, content string) platform.Message {
	return platform.Message{ID: id, GuildID: testGuild, ChannelID: testHub, AuthorID: author, Content: content}
}

func (e *testEnv) lastReply() platformtest.SentMessage {
	msgs := e.fake.Messages()
	if len(msgs) == 0 {
		return platformtest.SentMessage{}
	}
	return msgs[len(msgs)-1]
}

// managedIn returns the managed channels currently in the test category.
func (e *testEnv) managedIn() []ManagedChannel {
	return Classify(e.group(), e.fake.Children(testCategory)).Managed
}

package router

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kazuma11121125/rt-bot/internal/event"
	"github.com/kazuma11121125/rt-bot/internal/freechannel"
	"github.com/kazuma11121125/rt-bot/internal/i18n"
	"github.com/kazuma11121125/rt-bot/internal/platform"
	"github.com/kazuma11121125/rt-bot/internal/platform/platformtest"
)

type freeChannelStack struct {
	platform *platformtest.Fake
	router   *InboundRouter
}

func newFreeChannelStack(t *testing.T) freeChannelStack {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	loc, err := i18n.New("ja")
	require.NoError(t, err)

	fake := platformtest.New("1")
	fake.AddChannel(platform.Channel{ID: "11", GuildID: "10", Type: platform.ChannelCategory, Name: "free"})
	fake.AddChannel(platform.Channel{ID: "12", GuildID: "10", ParentID: "11", Type: platform.ChannelText, Name: "hub"})
	fake.GrantManage("77")

	prov := freechannel.NewProvisioner(log, fake, loc, event.NewHub(), freechannel.Options{CommandPrefix: "rt!"})
	filter := freechannel.NewFilter(log, fake, prov, loc, 5*time.Second)
	cmds := freechannel.NewCommands(log, fake, prov, freechannel.NewCooldowns(nil), loc, freechannel.CommandOptions{
		DefaultQuota: 4, MaxQuota: 100, DefaultLocale: "ja", CommandPrefix: "rt!", ReplyTTL: 5 * time.Second,
	})
	return freeChannelStack{platform: fake, router: NewInboundRouter(log, "rt!", filter, cmds)}
}

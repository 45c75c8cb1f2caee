package channelstatus

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kazuma11121125/rt-bot/db"
	dbpkg "github.com/kazuma11121125/rt-bot/internal/db"
	"github.com/kazuma11121125/rt-bot/internal/event"
	"github.com/kazuma11121125/rt-bot/internal/i18n"
	"github.com/kazuma11121125/rt-bot/internal/platform"
	"github.com/kazuma11121125/rt-bot/internal/platform/platformtest"
)

const (
	testGuild   = "900"
	testStatus  = "500"
	testManager = "77"
)

type testEnv struct {
	log      *slog.Logger
	platform *platformtest.Fake
	store    *Store
	hub      *event.Hub
	updater  *Updater
	i18n     *i18n.Localizer
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "status.db")
	require.NoError(t, dbpkg.RunMigrate(discardLogger(), path, db.Migrations(), "up", nil))
	sqlDB, err := dbpkg.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	store := NewStore(sqlDB)
	store.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	loc, err := i18n.New("ja")
	require.NoError(t, err)

	fake := platformtest.New("1")
	fake.AddChannel(platform.Channel{ID: testStatus, GuildID: testGuild, Type: platform.ChannelText, Name: "old"})
	fake.AddChannel(platform.Channel{ID: "501", GuildID: testGuild, Type: platform.ChannelText, Name: "general"})
	fake.AddChannel(platform.Channel{ID: "502", GuildID: testGuild, Type: platform.ChannelVoice, Name: "lounge"})
	fake.SetStats(testGuild, platform.GuildStats{Members: 10, Bots: 3})
	fake.GrantManage(testManager)

	store := newTestStore(t)
	hub := event.NewHub()
	log := discardLogger()
	return &testEnv{
		log:      log,
		platform: fake,
		store:    store,
		hub:      hub,
		updater:  NewUpdater(log, fake, store, hub),
		i18n:     loc,
	}
}

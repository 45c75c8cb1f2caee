package modules

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/kazuma11121125/rt-bot/internal/config"
	"github.com/kazuma11121125/rt-bot/internal/platform/platformtest"
	"github.com/kazuma11121125/rt-bot/internal/schedule"
)

func TestModulesGraphIsComplete(t *testing.T) {
	err := fx.ValidateApp(
		fx.Supply(ConfigPath(filepath.Join(t.TempDir(), "absent.toml"))),
		InfraModule,
		ChannelModule,
		FreeChannelModule,
		StatusModule,
		ServerModule,
		fx.NopLogger,
	)
	require.NoError(t, err)
}

func TestProvideConfigValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[freechannel]\nmax_quota = 0\n"), 0o600))
	_, err := provideConfig(ConfigPath(path))
	assert.Error(t, err)
}

func TestStatusDisabledProvidesNothing(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Default()
	cfg.Status.Enabled = false

	store, err := provideStatusStore(lc, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
	require.NoError(t, err)
	assert.Nil(t, store)
	assert.Nil(t, provideStatusUpdater(nil, platformtest.New("1"), store, nil))

	scheduler := schedule.NewService(nil, 0)
	require.NoError(t, startStatusUpdater(lc, cfg, scheduler, nil))
	assert.Empty(t, scheduler.Names())
}

func TestStatusEnabledSchedulesUpdater(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default()
	cfg.Status.DatabasePath = filepath.Join(t.TempDir(), "status.db")

	store, err := provideStatusStore(lc, log, cfg)
	require.NoError(t, err)
	require.NotNil(t, store)

	updater := provideStatusUpdater(log, platformtest.New("1"), store, provideEventSubscriber(provideEventHub()))
	scheduler := schedule.NewService(log, 0)
	require.NoError(t, startStatusUpdater(lc, cfg, scheduler, updater))
	assert.Equal(t, []string{"channel_status"}, scheduler.Names())

	lc.RequireStart()
	n, err := updater.RefreshAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	lc.RequireStop()
}

func TestCooldownPruneJobRegistered(t *testing.T) {
	scheduler := schedule.NewService(nil, 0)
	cooldowns := provideCooldowns(config.Default())
	require.NoError(t, scheduleCooldownPrune(slog.New(slog.NewTextHandler(io.Discard, nil)), scheduler, cooldowns))
	_, ok := scheduler.Next("cooldown_prune")
	assert.True(t, ok)
}

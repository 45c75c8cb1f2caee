package channelstatus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazuma11121125/rt-bot/internal/platform"
)

func statusMessage(author string) platform.Message {
	return platform.Message{ID: "m1", GuildID: testGuild, ChannelID: testStatus, AuthorID: author, Content: "rt!status"}
}

func lastReply(t *testing.T, env *testEnv) string {
	t.Helper()
	sent := env.platform.Messages()
	require.NotEmpty(t, sent)
	return sent[len(sent)-1].Content
}

func TestStatusCommandRequiresManageChannels(t *testing.T) {
	env := newTestEnv(t)
	cmds := NewCommands(env.log, env.platform, env.store, env.updater, env.i18n, "rt!", 5*time.Second)

	require.NoError(t, cmds.HandleCommand(context.Background(), statusMessage("42"), "status", []string{"!ch!"}))
	assert.Equal(t, "<@42>, このコマンドを実行するにはチャンネル管理権限が必要です。", lastReply(t, env))

	_, ok, err := env.store.Get(context.Background(), testGuild, testStatus)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStatusCommandSetAndOff(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	cmds := NewCommands(env.log, env.platform, env.store, env.updater, env.i18n, "rt!", 5*time.Second)
	assert.Equal(t, []string{"status"}, cmds.Names())

	require.NoError(t, cmds.HandleCommand(ctx, statusMessage(testManager), "status", []string{"チャンネル数", "!ch!"}))
	assert.Equal(t, "<@77>, チャンネルステータスを設定しました。", lastReply(t, env))
	entry, ok, err := env.store.Get(ctx, testGuild, testStatus)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "チャンネル数 !ch!", entry.Template)
	assert.Equal(t, "チャンネル数 2", channelName(t, env, testStatus))

	require.NoError(t, cmds.HandleCommand(ctx, statusMessage(testManager), "status", []string{"OFF"}))
	assert.Equal(t, "<@77>, チャンネルステータスを解除しました。", lastReply(t, env))
	_, ok, err = env.store.Get(ctx, testGuild, testStatus)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStatusCommandUsage(t *testing.T) {
	env := newTestEnv(t)
	cmds := NewCommands(env.log, env.platform, env.store, nil, env.i18n, "rt!", 5*time.Second)

	require.NoError(t, cmds.HandleCommand(context.Background(), statusMessage(testManager), "status", nil))
	sent := env.platform.Messages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Content, "rt!status")
	assert.Equal(t, 5*time.Second, sent[0].Options.DeleteAfter)
}

func TestStatusUsageUsesConfiguredPrefix(t *testing.T) {
	env := newTestEnv(t)
	cmds := NewCommands(env.log, env.platform, env.store, nil, env.i18n, "fc?", 5*time.Second)

	require.NoError(t, cmds.HandleCommand(context.Background(), statusMessage(testManager), "status", []string{"  "}))
	reply := lastReply(t, env)
	assert.Contains(t, reply, "`fc?status テンプレート`")
	assert.NotContains(t, reply, "rt!")
}

func TestStatusCommandDisabled(t *testing.T) {
	env := newTestEnv(t)
	cmds := NewCommands(env.log, env.platform, nil, nil, env.i18n, "rt!", 5*time.Second)

	require.NoError(t, cmds.HandleCommand(context.Background(), statusMessage(testManager), "status", []string{"!ch!"}))
	assert.Equal(t, "<@77>, チャンネルステータス機能は無効になっています。", lastReply(t, env))
}

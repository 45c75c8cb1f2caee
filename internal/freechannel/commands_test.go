package freechannel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazuma11121125/rt-bot/internal/i18n"
	"github.com/kazuma11121125/rt-bot/internal/platform"
)

const admin = "333"

func commandMessage(channelID, author string) platform.Message {
	return platform.Message{ID: "cmd", GuildID: testGuild, ChannelID: channelID, AuthorID: author}
}

func TestRegisterCommandRequiresManageChannels(t *testing.T) {
	env := newTestEnv(t, Options{})
	require.NoError(t, env.commands.HandleCommand(context.Background(), commandMessage(testHub, ownerA), "fc", []string{"register"}))

	ch, _ := env.fake.Get(testHub)
	assert.Empty(t, ch.Topic)
	assert.Contains(t, env.lastReply().Content, "チャンネル管理権限")
}

func TestRegisterCommandAliases(t *testing.T) {
	for _, name := range []string{"freechannel", "fc", "FreeChannel", "自由チャンネル"} {
		for _, sub := range []string{"register", "add", "rg"} {
			t.Run(name+" "+sub, func(t *testing.T) {
				env := newTestEnv(t, Options{})
				env.fake.GrantManage(admin)
				require.NoError(t, env.commands.HandleCommand(context.Background(), commandMessage(testHub, admin), name, []string{sub, "3", "en"}))

				ch, _ := env.fake.Get(testHub)
				cfg, ok := DecodeHub(ch.Topic)
				require.True(t, ok)
				assert.Equal(t, 3, cfg.Quota)
				require.NotNil(t, env.lastReply().Panel)
				assert.Equal(t, "Free Channel", env.lastReply().Panel.Title)
			})
		}
	}
}

func TestRegisterCommandDefaultsAndValidation(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.fake.GrantManage(admin)
	ctx := context.Background()

	require.NoError(t, env.commands.HandleCommand(ctx, commandMessage(testHub, admin), "fc", []string{"rg", "zero"}))
	assert.Contains(t, env.lastReply().Content, "1から100")
	require.NoError(t, env.commands.HandleCommand(ctx, commandMessage(testHub, admin), "fc", []string{"rg", "2", "fr"}))
	assert.Contains(t, env.lastReply().Content, "`ja` か `en`")

	require.NoError(t, env.commands.HandleCommand(ctx, commandMessage(testHub, admin), "fc", []string{"rg"}))
	ch, _ := env.fake.Get(testHub)
	cfg, ok := DecodeHub(ch.Topic)
	require.True(t, ok)
	assert.Equal(t, 4, cfg.Quota)
	assert.Equal(t, "フリーチャンネル", env.lastReply().Panel.Title)
}

func TestRegisterCommandCooldown(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.fake.GrantManage(admin)
	ctx := context.Background()
	other := env.fake.AddChannel(platform.Channel{GuildID: testGuild, ParentID: testCategory, Type: platform.ChannelText, Name: "hub2"})

	require.NoError(t, env.commands.HandleCommand(ctx, commandMessage(testHub, admin), "fc", []string{"register"}))
	env.now = env.now.Add(30 * time.Second)
	require.NoError(t, env.commands.HandleCommand(ctx, commandMessage(other.ID, admin), "fc", []string{"register"}))

	reply := env.lastReply()
	assert.Regexp(t, `クールダウン中です。(269|270|271)秒後`, reply.Content)
	assert.Equal(t, 5*time.Second, reply.Options.DeleteAfter)
	ch, _ := env.fake.Get(other.ID)
	assert.Empty(t, ch.Topic)
}

func TestRegisterCommandErrors(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.fake.GrantManage(admin)
	ctx := context.Background()
	loose := env.fake.AddChannel(platform.Channel{GuildID: testGuild, Type: platform.ChannelText, Name: "loose"})

	require.NoError(t, env.commands.HandleCommand(ctx, commandMessage(loose.ID, admin), "fc", []string{"register"}))
	assert.Contains(t, env.lastReply().Content, "カテゴリーのあるチャンネル")

	env.makeHub(t, 2)
	env.now = env.now.Add(time.Hour)
	require.NoError(t, env.commands.HandleCommand(ctx, commandMessage(testHub, admin), "fc", []string{"register"}))
	assert.Contains(t, env.lastReply().Content, "既にフリーチャンネル作成用チャンネル")
}

func TestHubUsageReply(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	require.NoError(t, env.commands.HandleCommand(ctx, commandMessage(testHub, ownerA), "freechannel", nil))
	assert.Contains(t, env.lastReply().Content, "使用方法が違います")
	require.NoError(t, env.commands.HandleCommand(ctx, commandMessage(testHub, ownerA), "fc", []string{"dance"}))
	assert.Contains(t, env.lastReply().Content, "使用方法が違います")
	assert.Equal(t, 5*time.Second, env.lastReply().Options.DeleteAfter)
}

func TestDeregisterCommand(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.fake.GrantManage(admin)
	ctx := context.Background()
	env.makeHub(t, 2)

	require.NoError(t, env.commands.HandleCommand(ctx, commandMessage(testHub, admin), "fc", []string{"remove"}))
	ch, _ := env.fake.Get(testHub)
	assert.Empty(t, ch.Topic)
	assert.Contains(t, env.lastReply().Content, "無効化しました")
	assert.Zero(t, env.lastReply().Options.DeleteAfter)

	env.now = env.now.Add(time.Hour)
	require.NoError(t, env.commands.HandleCommand(ctx, commandMessage(testHub, admin), "fc", []string{"remove"}))
	assert.Contains(t, env.lastReply().Content, "ではありません")
}

func TestRenameCommandCurrentTextChannel(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	m, err := env.provisioner.Create(ctx, env.group(), ownerA, Intent{Kind: Text, Name: "old"}, 4)
	require.NoError(t, err)

	require.NoError(t, env.commands.HandleCommand(ctx, commandMessage(m.Channel.ID, ownerA), "rename", []string{"new"}))
	ch, _ := env.fake.Get(m.Channel.ID)
	assert.Equal(t, "new", ch.Name)
	assert.Contains(t, env.lastReply().Content, "チャンネル名を変更しました")

	require.NoError(t, env.commands.HandleCommand(ctx, commandMessage(m.Channel.ID, ownerB), "rename", []string{"hijack"}))
	ch, _ = env.fake.Get(m.Channel.ID)
	assert.Equal(t, "new", ch.Name)
	assert.Contains(t, env.lastReply().Content, "見つかりませんでした")
}

func TestRenameCommandVoiceByName(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	foo := env.fake.AddChannel(platform.Channel{GuildID: testGuild, ParentID: testCategory, Type: platform.ChannelVoice, Name: "foo-42"})

	require.NoError(t, env.commands.HandleCommand(ctx, commandMessage(testHub, "42"), "rename", []string{"foo", "bar", "baz"}))
	ch, _ := env.fake.Get(foo.ID)
	assert.Equal(t, "bar baz-42", ch.Name)

	env.now = env.now.Add(10 * time.Second)
	require.NoError(t, env.commands.HandleCommand(ctx, commandMessage(testHub, "42"), "rename", []string{"bar baz", "qux"}))
	assert.Contains(t, env.lastReply().Content, "クールダウン中です")
}

func TestRenameCommandUsageAndContext(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	loose := env.fake.AddChannel(platform.Channel{GuildID: testGuild, Type: platform.ChannelText, Name: "loose"})

	require.NoError(t, env.commands.HandleCommand(ctx, commandMessage(testHub, ownerA), "rename", nil))
	assert.Contains(t, env.lastReply().Content, "rt!rename")

	require.NoError(t, env.commands.HandleCommand(ctx, commandMessage(loose.ID, ownerA), "rename", []string{"x", "y"}))
	assert.Contains(t, env.lastReply().Content, "カテゴリー内のチャンネル")

	// Context failures do not consume the cooldown.
	require.NoError(t, env.commands.HandleCommand(ctx, commandMessage(testHub, ownerA), "rename", []string{"x", "y"}))
	assert.Contains(t, env.lastReply().Content, "見つかりませんでした")
}

func TestRemoveCommand(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	text, err := env.provisioner.Create(ctx, env.group(), ownerA, Intent{Kind: Text, Name: "notes"}, 4)
	require.NoError(t, err)
	voice, err := env.provisioner.Create(ctx, env.group(), ownerA, Intent{Kind: Voice, Name: "talk"}, 4)
	require.NoError(t, err)
	theirs, err := env.provisioner.Create(ctx, env.group(), ownerB, Intent{Kind: Voice, Name: "talk"}, 4)
	require.NoError(t, err)

	require.NoError(t, env.commands.HandleCommand(ctx, commandMessage(testHub, ownerA), "remove", []string{"talk"}))
	_, ok := env.fake.Get(voice.Channel.ID)
	assert.False(t, ok)
	_, ok = env.fake.Get(theirs.Channel.ID)
	assert.True(t, ok)
	assert.Contains(t, env.lastReply().Content, "チャンネルを削除しました")

	env.now = env.now.Add(time.Hour)
	sent := len(env.fake.Messages())
	require.NoError(t, env.commands.HandleCommand(ctx, commandMessage(text.Channel.ID, ownerA), "remove", nil))
	_, ok = env.fake.Get(text.Channel.ID)
	assert.False(t, ok)
	assert.Len(t, env.fake.Messages(), sent)
}

func TestRemoveCommandNotFound(t *testing.T) {
	env := newTestEnv(t, Options{})
	require.NoError(t, env.commands.HandleCommand(context.Background(), commandMessage(testHub, ownerA), "remove", []string{"nothing"}))
	assert.Contains(t, env.lastReply().Content, "見つかりませんでした")
	assert.Empty(t, env.fake.DeletedChannels)
}

func TestCommandsIgnoreDirectMessages(t *testing.T) {
	env := newTestEnv(t, Options{})
	msg := commandMessage(testHub, ownerA)
	msg.GuildID = ""
	require.NoError(t, env.commands.HandleCommand(context.Background(), msg, "remove", nil))
	assert.Empty(t, env.fake.Messages())
}

func TestCommandNames(t *testing.T) {
	env := newTestEnv(t, Options{})
	assert.ElementsMatch(t, []string{"freechannel", "fc", "FreeChannel", "自由チャンネル", "rename", "remove"}, env.commands.Names())
}

func TestUsageRepliesUseConfiguredPrefix(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	loc, err := i18n.New("en")
	require.NoError(t, err)
	cmds := NewCommands(discardLogger(), env.fake, env.provisioner, env.cooldowns, loc, CommandOptions{
		DefaultQuota:  4,
		MaxQuota:      100,
		DefaultLocale: "en",
		CommandPrefix: "fc?",
		ReplyTTL:      5 * time.Second,
	})

	require.NoError(t, cmds.HandleCommand(ctx, commandMessage(testHub, ownerA), "freechannel", nil))
	assert.Contains(t, env.lastReply().Content, "`fc?freechannel remove`")
	assert.NotContains(t, env.lastReply().Content, "rt!")

	require.NoError(t, cmds.HandleCommand(ctx, commandMessage(testHub, ownerA), "rename", nil))
	assert.Contains(t, env.lastReply().Content, "`fc?rename <new name>`")
}

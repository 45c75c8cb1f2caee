package discord

import (
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/kazuma11121125/rt-bot/internal/platform"
)

func toPlatformType(t discordgo.ChannelType) platform.ChannelType {
	switch t {
	case discordgo.ChannelTypeGuildText:
		return platform.ChannelText
	case discordgo.ChannelTypeGuildVoice:
		return platform.ChannelVoice
	case discordgo.ChannelTypeGuildCategory:
		return platform.ChannelCategory
	default:
		return platform.ChannelOther
	}
}

func toDiscordType(t platform.ChannelType) discordgo.ChannelType {
	switch t {
	case platform.ChannelVoice:
		return discordgo.ChannelTypeGuildVoice
	case platform.ChannelCategory:
		return discordgo.ChannelTypeGuildCategory
	default:
		return discordgo.ChannelTypeGuildText
	}
}

func toChannel(ch *discordgo.Channel) platform.Channel {
	if ch == nil {
		return platform.Channel{}
	}
	return platform.Channel{
		ID:       ch.ID,
		GuildID:  ch.GuildID,
		ParentID: ch.ParentID,
		Type:     toPlatformType(ch.Type),
		Name:     ch.Name,
		Topic:    ch.Topic,
	}
}

func toMessage(m *discordgo.Message, locale string) platform.Message {
	msg := platform.Message{
		ID:        m.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		Locale:    locale,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorIsBot = m.Author.Bot
	}
	return msg
}

func toEmbed(panel platform.Panel) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       panel.Title,
		Description: panel.Description,
	}
	if panel.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: panel.Footer}
	}
	return embed
}

// editPayload builds the PATCH body; a non-nil empty topic is kept so Discord clears it.
func editPayload(req platform.EditChannelRequest) map[string]any {
	payload := map[string]any{}
	if req.Name != nil {
		payload["name"] = *req.Name
	}
	if req.Topic != nil {
		payload["topic"] = *req.Topic
	}
	return payload
}

func composeContent(content, mentionUserID string) string {
	if mentionUserID == "" {
		return content
	}
	return platform.Mention(mentionUserID) + ", " + content
}

func allowedMentions(mentionUserID string) *discordgo.MessageAllowedMentions {
	if mentionUserID == "" {
		return &discordgo.MessageAllowedMentions{}
	}
	return &discordgo.MessageAllowedMentions{Users: []string{mentionUserID}}
}

func hasManageChannels(perms int64) bool {
	return perms&discordgo.PermissionManageChannels != 0
}

func countText(channels []*discordgo.Channel) int {
	n := 0
	for _, ch := range channels {
		if ch != nil && ch.Type == discordgo.ChannelTypeGuildText {
			n++
		}
	}
	return n
}

func countMembers(members []*discordgo.Member) (total, bots int) {
	for _, m := range members {
		if m == nil {
			continue
		}
		total++
		if m.User != nil && m.User.Bot {
			bots++
		}
	}
	return total, bots
}

// mapError turns Discord's 404 into platform.ErrChannelNotFound.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return errors.Join(platform.ErrChannelNotFound, err)
	}
	return err
}

package channelstatus

import (
	"strconv"
	"strings"

	"github.com/kazuma11121125/rt-bot/internal/platform"
)

// Template placeholders.
const (
	PlaceholderChannels = "!ch!"
	PlaceholderMembers  = "!mb!"
	PlaceholderBots     = "!bt!"
	PlaceholderUsers    = "!us!"
)

const maxNameLength = 100

// NeedsMembers reports whether rendering template requires the member list.
func NeedsMembers(template string) bool {
	return strings.Contains(template, PlaceholderMembers) ||
		strings.Contains(template, PlaceholderBots) ||
		strings.Contains(template, PlaceholderUsers)
}

// Render substitutes the placeholders and clips the result to a valid channel name length.
func Render(template string, stats platform.GuildStats) string {
	out := strings.NewReplacer(
		PlaceholderChannels, strconv.Itoa(stats.TextChannels),
		PlaceholderMembers, strconv.Itoa(stats.Members),
		PlaceholderBots, strconv.Itoa(stats.Bots),
		PlaceholderUsers, strconv.Itoa(stats.Users()),
	).Replace(template)
	out = strings.TrimSpace(out)
	if runes := []rune(out); len(runes) > maxNameLength {
		out = string(runes[:maxNameLength])
	}
	return out
}

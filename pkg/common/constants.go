package common

import "fmt"

const (
	// PlatformBaseURL is the base URL used when building canonical message links.
	PlatformBaseURL = "https://discord.com"

	// DirectMessageGuildPath is used in canonical links for messages outside a guild.
	DirectMessageGuildPath = "@me"
)

// CanonicalMessageURL builds the canonical link for a message,
// shaped <platform>/channels/<guild>/<channel>/<message>.
func CanonicalMessageURL(guildID, channelID, messageID string) string {
	if guildID == "" {
		guildID = DirectMessageGuildPath
	}
	return fmt.Sprintf("%s/channels/%s/%s/%s", PlatformBaseURL, guildID, channelID, messageID)
}

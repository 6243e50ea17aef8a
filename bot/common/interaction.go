package common

import "github.com/bwmarrin/discordgo"

// InteractionUserID returns the id of the user behind an interaction,
// whether it arrived from a guild or a direct message
func InteractionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

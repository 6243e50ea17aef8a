package settings

import (
	"github.com/bwmarrin/discordgo"

	"krypton/bot/common"
	"krypton/service"
	"krypton/setup"
)

// Feature handles guild settings management through the /config command
type Feature struct {
	session         *discordgo.Session
	settingsService service.GuildSettingsService
	newPrompter     func(i *discordgo.InteractionCreate) setup.Prompter
}

// NewFeature creates a new settings feature instance
func NewFeature(session *discordgo.Session, settingsService service.GuildSettingsService, newPrompter func(i *discordgo.InteractionCreate) setup.Prompter) *Feature {
	return &Feature{
		session:         session,
		settingsService: settingsService,
		newPrompter:     newPrompter,
	}
}

// HandleCommand routes config subcommands to appropriate handlers
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !common.IsAdmin(i) {
		common.RespondWithError(s, i, "You need administrator permissions to change the configuration.")
		return
	}

	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}

	switch options[0].Name {
	case "view":
		f.handleView(s, i)
	case "set":
		f.handleSet(s, i, options[0].Options)
	case "general":
		f.handleGroupWizard(s, i, generalQuestions(), "General Settings")
	case "welcome":
		f.handleGroupWizard(s, i, welcomeQuestions(), "Welcome Settings")
	case "tickets":
		f.handleGroupWizard(s, i, ticketQuestions(), "Ticket Settings")
	case "economy":
		f.handleGroupWizard(s, i, economyQuestions(), "Economy Settings")
	case "ticket-category":
		f.handleTicketCategory(s, i, options[0].Options)
	}
}

package customcommands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"krypton/bot/common"
	"krypton/messages"
	"krypton/models"
	"krypton/service"
	"krypton/setup"
)

// Prefix triggers custom commands in chat messages
const Prefix = "!"

// Feature manages admin-defined commands answered with templated embeds
type Feature struct {
	session         *discordgo.Session
	settingsService service.GuildSettingsService
	newPrompter     func(i *discordgo.InteractionCreate) setup.Prompter

	mu       sync.Mutex
	lastUsed map[string]time.Time
}

// NewFeature creates a new custom commands feature instance
func NewFeature(session *discordgo.Session, settingsService service.GuildSettingsService, newPrompter func(i *discordgo.InteractionCreate) setup.Prompter) *Feature {
	return &Feature{
		session:         session,
		settingsService: settingsService,
		newPrompter:     newPrompter,
		lastUsed:        make(map[string]time.Time),
	}
}

// HandleCommand routes the /custom admin subcommands
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !common.IsAdmin(i) {
		common.RespondWithError(s, i, "You need administrator permissions to manage custom commands.")
		return
	}

	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}

	name := strings.ToLower(stringOption(options[0].Options, "name"))

	switch options[0].Name {
	case "add":
		f.handleWizard(s, i, name, false)
	case "edit":
		f.handleWizard(s, i, name, true)
	case "remove":
		f.handleRemove(s, i, name)
	case "list":
		f.handleList(s, i)
	}
}

// HandleMessage executes a custom command when a chat message invokes one
func (f *Feature) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if !strings.HasPrefix(m.Content, Prefix) || m.GuildID == "" {
		return
	}

	fields := strings.Fields(strings.TrimPrefix(m.Content, Prefix))
	if len(fields) == 0 {
		return
	}
	name := strings.ToLower(fields[0])

	guildID, err := strconv.ParseInt(m.GuildID, 10, 64)
	if err != nil {
		return
	}

	settings, err := f.settingsService.GetOrCreateSettings(context.Background(), guildID)
	if err != nil {
		log.Errorf("Error loading settings for guild %d: %v", guildID, err)
		return
	}

	command, ok := settings.CustomCommands[name]
	if !ok || !command.Enabled {
		return
	}

	if !f.allowed(m.Member, command.Permissions) {
		return
	}

	if wait := f.cooldownRemaining(m.GuildID, name, m.Author.ID, command.Cooldown); wait > 0 {
		_, err := s.ChannelMessageSendReply(m.ChannelID,
			fmt.Sprintf("⏳ `%s%s` is on cooldown, try again in %s.", Prefix, name, wait.Round(time.Second)), m.Reference())
		if err != nil {
			log.Errorf("Error sending cooldown notice: %v", err)
		}
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       command.Response.Title,
		Description: command.Response.Description,
		Color:       messages.ParseColor(command.Response.Color),
	}
	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, embed); err != nil {
		log.Errorf("Error answering custom command %s in guild %d: %v", name, guildID, err)
	}
}

// allowed checks the command's permission roles; an empty list means everyone
func (f *Feature) allowed(member *discordgo.Member, permissions []string) bool {
	if len(permissions) == 0 {
		return true
	}
	if member == nil {
		return false
	}
	for _, required := range permissions {
		for _, role := range member.Roles {
			if role == required {
				return true
			}
		}
	}
	return false
}

// cooldownRemaining returns how long until the command may run again for
// this user, stamping the use when it is allowed now
func (f *Feature) cooldownRemaining(guildID, name, userID string, cooldown time.Duration) time.Duration {
	if cooldown <= 0 {
		return 0
	}

	key := guildID + ":" + name + ":" + userID
	now := time.Now()

	f.mu.Lock()
	defer f.mu.Unlock()

	if last, ok := f.lastUsed[key]; ok {
		if remaining := cooldown - now.Sub(last); remaining > 0 {
			return remaining
		}
	}
	f.lastUsed[key] = now
	return 0
}

func commandQuestions() []setup.Question {
	return []setup.Question{
		{Key: "description", Label: "Description", Type: setup.TypeText, Required: true},
		{Key: "enabled", Label: "Enabled", Type: setup.TypeBoolean},
		{Key: "cooldown", Label: "Cooldown Seconds", Type: setup.TypeNumber},
		{Key: "permissions", Label: "Allowed Roles", Description: "Leave empty to allow everyone", Type: setup.TypeRoles},
		{Key: "response", Label: "Response", Type: setup.TypeGroup, Required: true, Children: []setup.Question{
			{Key: "title", Label: "Embed Title", Type: setup.TypeText, Required: true},
			{Key: "color", Label: "Embed Color", Description: "Hex color like #57f287", Type: setup.TypeText, MaxLength: 7},
			{Key: "description", Label: "Embed Description", Type: setup.TypeText, Required: true, MaxLength: 2000},
		}},
	}
}

func (f *Feature) handleWizard(s *discordgo.Session, i *discordgo.InteractionCreate, name string, mustExist bool) {
	if name == "" || strings.ContainsAny(name, " \t") {
		common.RespondWithError(s, i, "Custom command names must be a single word.")
		return
	}

	ctx := context.Background()
	guildID, _ := strconv.ParseInt(i.GuildID, 10, 64)

	settings, err := f.settingsService.GetOrCreateSettings(ctx, guildID)
	if err != nil {
		log.Errorf("Error loading settings for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Unable to load the configuration.")
		return
	}

	existing, exists := settings.CustomCommands[name]
	if mustExist && !exists {
		common.RespondWithError(s, i, fmt.Sprintf("No custom command named `%s`.", name))
		return
	}

	initial := setup.Answers{}
	if exists {
		initial["description"] = existing.Description
		initial["enabled"] = existing.Enabled
		initial["cooldown"] = int64(existing.Cooldown / time.Second)
		initial["permissions"] = existing.Permissions
		initial["response"] = setup.Answers{
			"title":       existing.Response.Title,
			"color":       existing.Response.Color,
			"description": existing.Response.Description,
		}
	}

	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Error deferring custom command response: %v", err)
		return
	}

	wizard := setup.New(fmt.Sprintf("Custom Command %s%s", Prefix, name), commandQuestions(), f.newPrompter(i))
	answers, err := wizard.Run(ctx, initial)
	if err != nil {
		if setup.IsTimeout(err) {
			common.FollowUpWithError(s, i, "Configuration timed out, nothing was saved.")
			return
		}
		log.Errorf("Error running custom command wizard: %v", err)
		common.FollowUpWithError(s, i, "Unable to collect the command configuration.")
		return
	}
	if answers == nil {
		common.FollowUpWithSuccess(s, i, "Nothing was saved.", true)
		return
	}

	description, _ := answers["description"].(string)
	enabled, _ := answers["enabled"].(bool)
	cooldown, _ := answers["cooldown"].(int64)
	permissions, _ := answers["permissions"].([]string)
	response, _ := answers["response"].(setup.Answers)
	title, _ := response["title"].(string)
	color, _ := response["color"].(string)
	body, _ := response["description"].(string)

	// Reload so concurrent edits of other commands are not overwritten
	settings, err = f.settingsService.GetOrCreateSettings(ctx, guildID)
	if err != nil {
		log.Errorf("Error reloading settings for guild %d: %v", guildID, err)
		common.FollowUpWithError(s, i, "Unable to save the command.")
		return
	}

	if settings.CustomCommands == nil {
		settings.CustomCommands = map[string]models.CustomCommand{}
	}
	settings.CustomCommands[name] = models.CustomCommand{
		Enabled:     enabled,
		Description: description,
		Permissions: permissions,
		Cooldown:    time.Duration(cooldown) * time.Second,
		Response: models.CustomEmbed{
			Title:       title,
			Color:       color,
			Description: body,
		},
	}

	if err := f.settingsService.UpdateSettings(ctx, guildID, settings); err != nil {
		log.Errorf("Error saving custom command %s for guild %d: %v", name, guildID, err)
		common.FollowUpWithError(s, i, "Unable to save the command.")
		return
	}

	common.FollowUpWithSuccess(s, i, fmt.Sprintf("Custom command `%s%s` saved.", Prefix, name), true)
}

func (f *Feature) handleRemove(s *discordgo.Session, i *discordgo.InteractionCreate, name string) {
	ctx := context.Background()
	guildID, _ := strconv.ParseInt(i.GuildID, 10, 64)

	settings, err := f.settingsService.GetOrCreateSettings(ctx, guildID)
	if err != nil {
		log.Errorf("Error loading settings for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Unable to load the configuration.")
		return
	}

	if _, ok := settings.CustomCommands[name]; !ok {
		common.RespondWithError(s, i, fmt.Sprintf("No custom command named `%s`.", name))
		return
	}
	delete(settings.CustomCommands, name)

	if err := f.settingsService.UpdateSettings(ctx, guildID, settings); err != nil {
		log.Errorf("Error saving settings for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Unable to remove the command.")
		return
	}

	common.RespondWithSuccess(s, i, fmt.Sprintf("Custom command `%s%s` removed.", Prefix, name), true)
}

func (f *Feature) handleList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, _ := strconv.ParseInt(i.GuildID, 10, 64)

	settings, err := f.settingsService.GetOrCreateSettings(context.Background(), guildID)
	if err != nil {
		log.Errorf("Error loading settings for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Unable to load the configuration.")
		return
	}

	if len(settings.CustomCommands) == 0 {
		common.RespondWithSuccess(s, i, "No custom commands configured yet.", true)
		return
	}

	var lines []string
	for name, command := range settings.CustomCommands {
		state := "enabled"
		if !command.Enabled {
			state = "disabled"
		}
		lines = append(lines, fmt.Sprintf("`%s%s`: %s (%s)", Prefix, name, command.Description, state))
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Custom commands",
		Description: strings.Join(lines, "\n"),
		Color:       messages.DefaultColor,
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, true); err != nil {
		log.Errorf("Error responding to custom command list: %v", err)
	}
}

func stringOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}

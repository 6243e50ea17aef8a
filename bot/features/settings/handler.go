package settings

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"krypton/bot/common"
	"krypton/messages"
	"krypton/models"
	"krypton/setup"
)

// pathQuestion binds a wizard question to the dot-path it configures
type pathQuestion struct {
	question setup.Question
	path     string
}

func generalQuestions() []pathQuestion {
	return []pathQuestion{
		{setup.Question{Key: "logs", Label: "Logs Channel", Description: "Channel for moderation log messages", Type: setup.TypeChannel}, "logsChannelId"},
	}
}

func welcomeQuestions() []pathQuestion {
	return []pathQuestion{
		{setup.Question{Key: "enabled", Label: "Enabled", Type: setup.TypeBoolean}, "welcomeSettings.enabled"},
		{setup.Question{Key: "channel", Label: "Welcome Channel", Type: setup.TypeChannel, Required: true}, "welcomeSettings.channel"},
	}
}

func ticketQuestions() []pathQuestion {
	return []pathQuestion{
		{setup.Question{Key: "enabled", Label: "Enabled", Type: setup.TypeBoolean}, "ticketSettings.enabled"},
		{setup.Question{Key: "transcript-channel", Label: "Transcript Channel", Type: setup.TypeChannel}, "ticketSettings.transcriptChannel"},
		{setup.Question{Key: "max-tickets", Label: "Max Tickets Per User", Type: setup.TypeNumber}, "ticketSettings.maxTicketsPerUser"},
		{setup.Question{Key: "transcript-on-close", Label: "Transcript On Close", Type: setup.TypeBoolean}, "ticketSettings.transcriptOnClose"},
		{setup.Question{Key: "transcript-type", Label: "Transcript Type", Type: setup.TypeSelect, Options: []setup.Option{
			{Label: "Channel", Value: "channel"},
			{Label: "Direct Message", Value: "direct-message"},
		}}, "ticketSettings.transcriptType"},
		{setup.Question{Key: "save-images", Label: "Save Images In Transcript", Type: setup.TypeBoolean}, "ticketSettings.saveImagesInTranscript"},
	}
}

func economyQuestions() []pathQuestion {
	return []pathQuestion{
		{setup.Question{Key: "coin-symbol", Label: "Coin Symbol", Type: setup.TypeText, MaxLength: 10}, "economySettings.coinSymbol"},
		{setup.Question{Key: "min-work", Label: "Min Work Earnings", Type: setup.TypeNumber}, "economySettings.minWorkEarnings"},
		{setup.Question{Key: "max-work", Label: "Max Work Earnings", Type: setup.TypeNumber}, "economySettings.maxWorkEarnings"},
		{setup.Question{Key: "daily", Label: "Daily Reward", Type: setup.TypeNumber}, "economySettings.dailyReward"},
		{setup.Question{Key: "weekly", Label: "Weekly Reward", Type: setup.TypeNumber}, "economySettings.weeklyReward"},
	}
}

// handleView lists every configurable key with its current value
func (f *Feature) handleView(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, _ := strconv.ParseInt(i.GuildID, 10, 64)

	settings, err := f.settingsService.GetOrCreateSettings(context.Background(), guildID)
	if err != nil {
		log.Errorf("Error loading settings for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Unable to load the configuration.")
		return
	}

	paths := models.SettingsPaths()
	sort.Strings(paths)

	var lines []string
	for _, path := range paths {
		value, _ := settings.ValueByPath(path)
		lines = append(lines, fmt.Sprintf("`%s` = `%v`", path, value))
	}
	lines = append(lines, fmt.Sprintf("ticket categories: %d, custom commands: %d",
		len(settings.TicketCategories), len(settings.CustomCommands)))

	embed := &discordgo.MessageEmbed{
		Title:       "Guild configuration",
		Description: strings.Join(lines, "\n"),
		Color:       messages.DefaultColor,
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, true); err != nil {
		log.Errorf("Error responding to config view: %v", err)
	}
}

// handleSet assigns one dot-path addressed option directly
func (f *Feature) handleSet(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	var path, raw string
	for _, opt := range options {
		switch opt.Name {
		case "path":
			path = opt.StringValue()
		case "value":
			raw = opt.StringValue()
		}
	}

	ctx := context.Background()
	guildID, _ := strconv.ParseInt(i.GuildID, 10, 64)

	settings, err := f.settingsService.GetOrCreateSettings(ctx, guildID)
	if err != nil {
		log.Errorf("Error loading settings for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Unable to load the configuration.")
		return
	}

	current, ok := settings.ValueByPath(path)
	if !ok {
		common.RespondWithError(s, i, fmt.Sprintf("Unknown configuration key %q. See /config view for the available keys.", path))
		return
	}

	// Coerce the raw text to the type of the existing value
	var value any = raw
	if _, isBool := current.(bool); isBool {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			common.RespondWithError(s, i, fmt.Sprintf("%q expects true or false.", path))
			return
		}
		value = parsed
	}

	if _, err := f.settingsService.UpdateSetting(ctx, guildID, path, value); err != nil {
		common.RespondWithUserError(s, i, err, "Unable to update the configuration.")
		return
	}

	common.RespondWithSuccess(s, i, fmt.Sprintf("`%s` set to `%s`.", path, raw), true)
}

// handleGroupWizard drives one settings group through the wizard and
// writes each collected answer back to its dot-path
func (f *Feature) handleGroupWizard(s *discordgo.Session, i *discordgo.InteractionCreate, group []pathQuestion, title string) {
	ctx := context.Background()
	guildID, _ := strconv.ParseInt(i.GuildID, 10, 64)

	settings, err := f.settingsService.GetOrCreateSettings(ctx, guildID)
	if err != nil {
		log.Errorf("Error loading settings for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Unable to load the configuration.")
		return
	}

	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Error deferring config response: %v", err)
		return
	}

	questions := make([]setup.Question, len(group))
	initial := setup.Answers{}
	for idx, pq := range group {
		questions[idx] = pq.question
		if value, ok := settings.ValueByPath(pq.path); ok {
			initial[pq.question.Key] = wizardValue(value)
		}
	}

	wizard := setup.New(title, questions, f.newPrompter(i))
	answers, err := wizard.Run(ctx, initial)
	if err != nil {
		if setup.IsTimeout(err) {
			common.FollowUpWithError(s, i, "Configuration timed out, nothing was saved.")
			return
		}
		log.Errorf("Error running config wizard: %v", err)
		common.FollowUpWithError(s, i, "Unable to collect the configuration.")
		return
	}
	if answers == nil {
		common.FollowUpWithSuccess(s, i, "Configuration cancelled, nothing was saved.", true)
		return
	}

	for _, pq := range group {
		value, ok := answers[pq.question.Key]
		if !ok {
			continue
		}
		if _, err := f.settingsService.UpdateSetting(ctx, guildID, pq.path, value); err != nil {
			log.Errorf("Error updating %s for guild %d: %v", pq.path, guildID, err)
			common.FollowUpWithUserError(s, i, err, fmt.Sprintf("Unable to save %s.", pq.question.Label))
			return
		}
	}

	common.FollowUpWithSuccess(s, i, fmt.Sprintf("%s saved.", title), true)
}

// handleTicketCategory manages the ticket categories offered on panels
func (f *Feature) handleTicketCategory(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		return
	}

	switch options[0].Name {
	case "add":
		f.handleCategoryWizard(s, i, "")
	case "edit":
		f.handleCategoryWizard(s, i, stringOption(options[0].Options, "id"))
	case "remove":
		f.handleCategoryRemove(s, i, stringOption(options[0].Options, "id"))
	case "list":
		f.handleCategoryList(s, i)
	}
}

func categoryQuestions() []setup.Question {
	return []setup.Question{
		{Key: "name", Label: "Name", Description: "Shown on the panel button", Type: setup.TypeText, Required: true, MaxLength: 80},
		{Key: "emoji", Label: "Emoji", Type: setup.TypeText, MaxLength: 10},
		{Key: "category", Label: "Channel Category", Description: "Where ticket channels are created", Type: setup.TypeCategory, Required: true},
		{Key: "style", Label: "Button Style", Type: setup.TypeButtonStyle},
		{Key: "roles", Label: "Support Roles", Description: "Roles that can see the tickets", Type: setup.TypeRoles},
	}
}

func (f *Feature) handleCategoryWizard(s *discordgo.Session, i *discordgo.InteractionCreate, categoryID string) {
	ctx := context.Background()
	guildID, _ := strconv.ParseInt(i.GuildID, 10, 64)

	settings, err := f.settingsService.GetOrCreateSettings(ctx, guildID)
	if err != nil {
		log.Errorf("Error loading settings for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Unable to load the configuration.")
		return
	}

	initial := setup.Answers{}
	if categoryID != "" {
		existing := settings.TicketCategoryByID(categoryID)
		if existing == nil {
			common.RespondWithError(s, i, "No ticket category with that id. See /config ticket-category list.")
			return
		}
		initial["name"] = existing.Name
		initial["emoji"] = existing.Emoji
		initial["category"] = existing.CategoryID
		initial["style"] = existing.ButtonStyle.String()
		initial["roles"] = existing.Roles
	}

	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Error deferring category response: %v", err)
		return
	}

	wizard := setup.New("Ticket Category", categoryQuestions(), f.newPrompter(i))
	answers, err := wizard.Run(ctx, initial)
	if err != nil {
		if setup.IsTimeout(err) {
			common.FollowUpWithError(s, i, "Configuration timed out, nothing was saved.")
			return
		}
		log.Errorf("Error running category wizard: %v", err)
		common.FollowUpWithError(s, i, "Unable to collect the category configuration.")
		return
	}
	if answers == nil {
		common.FollowUpWithSuccess(s, i, "Category cancelled, nothing was saved.", true)
		return
	}

	if categoryID == "" {
		categoryID = uuid.New().String()
	}
	name, _ := answers["name"].(string)
	emoji, _ := answers["emoji"].(string)
	parent, _ := answers["category"].(string)
	style, _ := answers["style"].(string)
	roles, _ := answers["roles"].([]string)

	// Reload so a concurrent edit of another category is not overwritten
	settings, err = f.settingsService.GetOrCreateSettings(ctx, guildID)
	if err != nil {
		log.Errorf("Error reloading settings for guild %d: %v", guildID, err)
		common.FollowUpWithError(s, i, "Unable to save the category.")
		return
	}

	settings.UpsertTicketCategory(models.TicketCategory{
		ID:          categoryID,
		Name:        name,
		Emoji:       emoji,
		CategoryID:  parent,
		ButtonStyle: models.ParseButtonStyle(style),
		Roles:       roles,
	})

	if err := f.settingsService.UpdateSettings(ctx, guildID, settings); err != nil {
		log.Errorf("Error saving category for guild %d: %v", guildID, err)
		common.FollowUpWithError(s, i, "Unable to save the category.")
		return
	}

	common.FollowUpWithSuccess(s, i, fmt.Sprintf("Ticket category **%s** saved.", name), true)
}

func (f *Feature) handleCategoryRemove(s *discordgo.Session, i *discordgo.InteractionCreate, categoryID string) {
	ctx := context.Background()
	guildID, _ := strconv.ParseInt(i.GuildID, 10, 64)

	settings, err := f.settingsService.GetOrCreateSettings(ctx, guildID)
	if err != nil {
		log.Errorf("Error loading settings for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Unable to load the configuration.")
		return
	}

	if !settings.RemoveTicketCategory(categoryID) {
		common.RespondWithError(s, i, "No ticket category with that id. See /config ticket-category list.")
		return
	}

	if err := f.settingsService.UpdateSettings(ctx, guildID, settings); err != nil {
		log.Errorf("Error saving settings for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Unable to remove the category.")
		return
	}

	common.RespondWithSuccess(s, i, "Ticket category removed.", true)
}

func (f *Feature) handleCategoryList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, _ := strconv.ParseInt(i.GuildID, 10, 64)

	settings, err := f.settingsService.GetOrCreateSettings(context.Background(), guildID)
	if err != nil {
		log.Errorf("Error loading settings for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Unable to load the configuration.")
		return
	}

	if len(settings.TicketCategories) == 0 {
		common.RespondWithSuccess(s, i, "No ticket categories configured yet.", true)
		return
	}

	var lines []string
	for _, cat := range settings.TicketCategories {
		lines = append(lines, fmt.Sprintf("**%s** (`%s`): parent <#%s>, style %s, %d roles",
			cat.Name, cat.ID, cat.CategoryID, cat.ButtonStyle, len(cat.Roles)))
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Ticket categories",
		Description: strings.Join(lines, "\n"),
		Color:       messages.DefaultColor,
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, true); err != nil {
		log.Errorf("Error responding to category list: %v", err)
	}
}

// wizardValue converts a settings leaf into the answer type its question
// expects
func wizardValue(value any) any {
	switch v := value.(type) {
	case int:
		return int64(v)
	default:
		return v
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

package tickets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"krypton/bot/common"
	"krypton/events"
	"krypton/messages"
	"krypton/service"
	"krypton/setup"
)

// Custom ID prefixes and control buttons of the ticket workflow. Panel
// buttons carry the category id after the prefix.
const (
	PanelPrefix     = "ticket-"
	ComponentClaim  = "tkt-claim"
	ComponentClose  = "tkt-close"
	ComponentReopen = "tkt-reopen"
	ComponentDelete = "tkt-delete"
)

// Feature handles the ticket support workflow: panels, ticket channels
// and the claim/close/reopen/delete lifecycle
type Feature struct {
	session         *discordgo.Session
	ticketService   service.TicketService
	settingsService service.GuildSettingsService
	store           *messages.Store
	newPrompter     func(i *discordgo.InteractionCreate) setup.Prompter
}

// NewFeature creates a new tickets feature instance
func NewFeature(session *discordgo.Session, ticketService service.TicketService, settingsService service.GuildSettingsService, store *messages.Store, newPrompter func(i *discordgo.InteractionCreate) setup.Prompter) *Feature {
	return &Feature{
		session:         session,
		ticketService:   ticketService,
		settingsService: settingsService,
		store:           store,
		newPrompter:     newPrompter,
	}
}

// HandleCommand routes ticket subcommands to appropriate handlers
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}

	switch options[0].Name {
	case "panel":
		f.handlePanel(s, i, options[0].Options)
	case "claim":
		f.handleClaim(s, i)
	case "close":
		f.handleClose(s, i)
	case "reopen":
		f.handleReopen(s, i)
	case "delete":
		f.handleDelete(s, i)
	}
}

// HandleComponent reacts to panel and ticket control buttons
func (f *Feature) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	switch {
	case strings.HasPrefix(customID, PanelPrefix):
		f.handleOpen(s, i, strings.TrimPrefix(customID, PanelPrefix))
	case customID == ComponentClaim:
		f.handleClaim(s, i)
	case customID == ComponentClose:
		f.handleClose(s, i)
	case customID == ComponentReopen:
		f.handleReopen(s, i)
	case customID == ComponentDelete:
		f.handleDelete(s, i)
	}
}

// HandleClosed logs closed tickets to the transcript channel when one is
// configured
func (f *Feature) HandleClosed(ctx context.Context, event events.TicketClosedEvent) {
	settings, err := f.settingsService.GetOrCreateSettings(ctx, event.Ticket.GuildID)
	if err != nil {
		log.Errorf("Error loading settings for closed ticket %s: %v", event.Ticket.ID, err)
		return
	}
	if !settings.Tickets.TranscriptOnClose || settings.Tickets.TranscriptChannel == "" {
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Ticket #%04d closed", event.Ticket.Number),
		Description: fmt.Sprintf("Opened by <@%d>, closed by <@%d> in <#%d>.",
			event.Ticket.UserID, event.ClosedBy, event.Ticket.ChannelID),
		Color: messages.DefaultColor,
	}
	if _, err := f.session.ChannelMessageSendEmbed(settings.Tickets.TranscriptChannel, embed); err != nil {
		log.Errorf("Error writing transcript entry for ticket %s: %v", event.Ticket.ID, err)
	}
}

// HandleOpened writes new tickets to the moderation log channel when one
// is configured
func (f *Feature) HandleOpened(ctx context.Context, event events.TicketOpenedEvent) {
	settings, err := f.settingsService.GetOrCreateSettings(ctx, event.Ticket.GuildID)
	if err != nil {
		log.Errorf("Error loading settings for opened ticket %s: %v", event.Ticket.ID, err)
		return
	}
	if settings.LogsChannelID == "" {
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Ticket #%04d opened", event.Ticket.Number),
		Description: fmt.Sprintf("Opened by <@%d> in <#%d> (%s).",
			event.Ticket.UserID, event.Ticket.ChannelID, event.Category),
		Color: messages.DefaultColor,
	}
	if _, err := f.session.ChannelMessageSendEmbed(settings.LogsChannelID, embed); err != nil {
		log.Errorf("Error logging opened ticket %s: %v", event.Ticket.ID, err)
	}
}

// handleOpen creates a ticket channel for a panel button press
func (f *Feature) handleOpen(s *discordgo.Session, i *discordgo.InteractionCreate, categoryID string) {
	ctx := context.Background()
	guildID, _ := strconv.ParseInt(i.GuildID, 10, 64)
	userID, _ := strconv.ParseInt(common.InteractionUserID(i), 10, 64)

	settings, err := f.settingsService.GetOrCreateSettings(ctx, guildID)
	if err != nil {
		log.Errorf("Error loading settings for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Unable to open a ticket right now. Please try again.")
		return
	}

	category := settings.TicketCategoryByID(categoryID)
	if category == nil {
		common.RespondWithError(s, i, "This ticket category no longer exists.")
		return
	}

	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Error deferring ticket open response: %v", err)
		return
	}

	number, err := f.ticketService.NextNumber(ctx, guildID)
	if err != nil {
		log.Errorf("Error reserving ticket number for guild %d: %v", guildID, err)
		common.FollowUpWithError(s, i, "Unable to open a ticket right now. Please try again.")
		return
	}

	channel, err := s.GuildChannelCreateComplex(i.GuildID, discordgo.GuildChannelCreateData{
		Name:                 fmt.Sprintf("ticket-%04d", number),
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             category.CategoryID,
		PermissionOverwrites: ticketOverwrites(i.GuildID, common.InteractionUserID(i), category.Roles),
	})
	if err != nil {
		log.Errorf("Error creating ticket channel in guild %d: %v", guildID, err)
		common.FollowUpWithError(s, i, "Unable to create the ticket channel.")
		return
	}

	channelID, _ := strconv.ParseInt(channel.ID, 10, 64)
	ticket, err := f.ticketService.Open(ctx, guildID, userID, channelID, categoryID)
	if err != nil {
		// The channel is useless without its record
		if _, deleteErr := s.ChannelDelete(channel.ID); deleteErr != nil {
			log.Errorf("Error deleting orphaned ticket channel %s: %v", channel.ID, deleteErr)
		}
		common.FollowUpWithUserError(s, i, err, "Unable to open the ticket. Please try again.")
		return
	}

	embed, err := f.store.Render("ticket_opened", map[string]string{
		"ticket-number": fmt.Sprintf("%04d", ticket.Number),
		"user":          fmt.Sprintf("<@%d>", userID),
		"category":      category.Name,
	})
	if err != nil {
		log.Errorf("Error rendering ticket opened message: %v", err)
	} else {
		msg, err := s.ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{
			Content:    fmt.Sprintf("<@%d>", userID),
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: controlButtons(),
		})
		if err != nil {
			log.Errorf("Error sending ticket opened message: %v", err)
		} else {
			f.recordControlMessage(ctx, ticket.ID.String(), msg.ID)
		}
	}

	common.FollowUpWithSuccess(s, i, fmt.Sprintf("Your ticket is ready: <#%s>", channel.ID), true)
}

func (f *Feature) handleClaim(s *discordgo.Session, i *discordgo.InteractionCreate) {
	channelID, _ := strconv.ParseInt(i.ChannelID, 10, 64)
	userID, _ := strconv.ParseInt(common.InteractionUserID(i), 10, 64)

	_, err := f.ticketService.Claim(context.Background(), channelID, userID)
	if err != nil {
		common.RespondWithUserError(s, i, err, "Unable to claim this ticket.")
		return
	}

	embed, err := f.store.Render("ticket_claimed", map[string]string{
		"user": fmt.Sprintf("<@%d>", userID),
	})
	if err != nil {
		log.Errorf("Error rendering ticket claimed message: %v", err)
		common.RespondWithSuccess(s, i, "Ticket claimed.", false)
		return
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, false); err != nil {
		log.Errorf("Error responding to ticket claim: %v", err)
	}
}

func (f *Feature) handleClose(s *discordgo.Session, i *discordgo.InteractionCreate) {
	channelID, _ := strconv.ParseInt(i.ChannelID, 10, 64)
	userID, _ := strconv.ParseInt(common.InteractionUserID(i), 10, 64)

	ticket, err := f.ticketService.Close(context.Background(), channelID, userID)
	if err != nil {
		common.RespondWithUserError(s, i, err, "Unable to close this ticket.")
		return
	}

	// Lock the opener out until the ticket is reopened
	err = s.ChannelPermissionSet(i.ChannelID, strconv.FormatInt(ticket.UserID, 10),
		discordgo.PermissionOverwriteTypeMember, 0, discordgo.PermissionViewChannel)
	if err != nil {
		log.Errorf("Error locking closed ticket channel %s: %v", i.ChannelID, err)
	}

	embed, renderErr := f.store.Render("ticket_closed", map[string]string{
		"user": fmt.Sprintf("<@%d>", userID),
	})
	if renderErr != nil {
		log.Errorf("Error rendering ticket closed message: %v", renderErr)
		common.RespondWithSuccess(s, i, "Ticket closed.", false)
		return
	}

	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Reopen", Style: discordgo.SecondaryButton, CustomID: ComponentReopen},
			discordgo.Button{Label: "Delete", Style: discordgo.DangerButton, CustomID: ComponentDelete},
		}},
	}
	if err := common.RespondWithEmbed(s, i, embed, components, false); err != nil {
		log.Errorf("Error responding to ticket close: %v", err)
		return
	}

	// Interaction responses only expose their message through a fetch
	if msg, err := s.InteractionResponse(i.Interaction); err == nil {
		f.recordControlMessage(context.Background(), ticket.ID.String(), msg.ID)
	} else {
		log.Errorf("Error fetching close controls message for ticket %s: %v", ticket.ID, err)
	}
}

// recordControlMessage persists which message currently carries the
// ticket's lifecycle buttons
func (f *Feature) recordControlMessage(ctx context.Context, ticketID, messageID string) {
	id, err := strconv.ParseInt(messageID, 10, 64)
	if err != nil {
		return
	}
	if err := f.ticketService.RecordControlMessage(ctx, ticketID, id); err != nil {
		log.Errorf("Error recording control message for ticket %s: %v", ticketID, err)
	}
}

func (f *Feature) handleReopen(s *discordgo.Session, i *discordgo.InteractionCreate) {
	channelID, _ := strconv.ParseInt(i.ChannelID, 10, 64)

	ticket, err := f.ticketService.Reopen(context.Background(), channelID)
	if err != nil {
		common.RespondWithUserError(s, i, err, "Unable to reopen this ticket.")
		return
	}

	err = s.ChannelPermissionSet(i.ChannelID, strconv.FormatInt(ticket.UserID, 10),
		discordgo.PermissionOverwriteTypeMember, discordgo.PermissionViewChannel|discordgo.PermissionSendMessages, 0)
	if err != nil {
		log.Errorf("Error unlocking reopened ticket channel %s: %v", i.ChannelID, err)
	}

	common.RespondWithSuccess(s, i, fmt.Sprintf("Ticket #%04d reopened.", ticket.Number), false)
}

func (f *Feature) handleDelete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !common.IsAdmin(i) {
		common.RespondWithError(s, i, "You need administrator permissions to delete tickets.")
		return
	}

	channelID, _ := strconv.ParseInt(i.ChannelID, 10, 64)

	if err := f.ticketService.Delete(context.Background(), channelID); err != nil {
		common.RespondWithUserError(s, i, err, "Unable to delete this ticket.")
		return
	}

	common.RespondWithSuccess(s, i, "Deleting this ticket channel...", false)
	if _, err := s.ChannelDelete(i.ChannelID); err != nil {
		log.Errorf("Error deleting ticket channel %s: %v", i.ChannelID, err)
	}
}

// handlePanel collects the categories to offer through the wizard and
// posts a panel message with one button per category
func (f *Feature) handlePanel(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if !common.IsAdmin(i) {
		common.RespondWithError(s, i, "You need administrator permissions to send ticket panels.")
		return
	}

	ctx := context.Background()
	guildID, _ := strconv.ParseInt(i.GuildID, 10, 64)

	targetChannel := i.ChannelID
	for _, opt := range options {
		if opt.Name == "channel" {
			targetChannel = opt.ChannelValue(s).ID
		}
	}

	settings, err := f.settingsService.GetOrCreateSettings(ctx, guildID)
	if err != nil {
		log.Errorf("Error loading settings for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Unable to load the ticket configuration.")
		return
	}
	if len(settings.TicketCategories) == 0 {
		common.RespondWithError(s, i, "No ticket categories are configured. Add one with /config ticket-category first.")
		return
	}

	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Error deferring panel response: %v", err)
		return
	}

	categoryOptions := make([]setup.Option, 0, len(settings.TicketCategories))
	for _, cat := range settings.TicketCategories {
		categoryOptions = append(categoryOptions, setup.Option{Label: cat.Name, Value: cat.ID})
	}

	wizard := setup.New("Ticket Panel", []setup.Question{{
		Key:      "categories",
		Label:    "Categories",
		Type:     setup.TypeMultiSelect,
		Required: true,
		Options:  categoryOptions,
	}}, f.newPrompter(i))

	answers, err := wizard.Run(ctx, nil)
	if err != nil {
		if setup.IsTimeout(err) {
			common.FollowUpWithError(s, i, "Panel setup timed out.")
			return
		}
		log.Errorf("Error running panel wizard: %v", err)
		common.FollowUpWithError(s, i, "Unable to collect the panel configuration.")
		return
	}
	if answers == nil {
		common.FollowUpWithSuccess(s, i, "Panel cancelled.", true)
		return
	}

	selected, _ := answers["categories"].([]string)
	if len(selected) == 0 {
		common.FollowUpWithError(s, i, "Pick at least one category for the panel.")
		return
	}

	var buttons []discordgo.MessageComponent
	for _, id := range selected {
		category := settings.TicketCategoryByID(id)
		if category == nil {
			continue
		}
		button := discordgo.Button{
			Label:    category.Name,
			Style:    discordgo.ButtonStyle(category.ButtonStyle),
			CustomID: PanelPrefix + category.ID,
		}
		if category.Emoji != "" {
			button.Emoji = &discordgo.ComponentEmoji{Name: category.Emoji}
		}
		buttons = append(buttons, button)
	}

	embed, err := f.store.Render("ticket_panel", nil)
	if err != nil {
		log.Errorf("Error rendering ticket panel: %v", err)
		common.FollowUpWithError(s, i, "Unable to render the panel message.")
		return
	}

	_, err = s.ChannelMessageSendComplex(targetChannel, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}},
	})
	if err != nil {
		log.Errorf("Error sending ticket panel to channel %s: %v", targetChannel, err)
		common.FollowUpWithError(s, i, "Unable to post the panel in that channel.")
		return
	}

	common.FollowUpWithSuccess(s, i, fmt.Sprintf("Panel posted in <#%s>.", targetChannel), true)
}

// controlButtons are attached to the first message of a ticket channel
func controlButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Claim", Style: discordgo.SuccessButton, CustomID: ComponentClaim},
			discordgo.Button{Label: "Close", Style: discordgo.DangerButton, CustomID: ComponentClose},
		}},
	}
}

// ticketOverwrites hides the channel from everyone except the opener and
// the category's support roles
func ticketOverwrites(guildID, openerID string, roles []string) []*discordgo.PermissionOverwrite {
	memberAccess := int64(discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory)

	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    openerID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: memberAccess,
		},
	}
	for _, roleID := range roles {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    roleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: memberAccess,
		})
	}
	return overwrites
}

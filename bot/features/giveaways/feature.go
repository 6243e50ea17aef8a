package giveaways

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"krypton/bot/common"
	"krypton/events"
	"krypton/messages"
	"krypton/models"
	"krypton/service"
)

// Custom IDs of the entry buttons on giveaway announcements
const (
	ComponentEnter = "gw-enter"
	ComponentLeave = "gw-leave"
)

// Feature handles giveaway commands, entry buttons and completion events
type Feature struct {
	session         *discordgo.Session
	giveawayService service.GiveawayService
	store           *messages.Store
}

// NewFeature creates a new giveaways feature instance
func NewFeature(session *discordgo.Session, giveawayService service.GiveawayService, store *messages.Store) *Feature {
	return &Feature{
		session:         session,
		giveawayService: giveawayService,
		store:           store,
	}
}

// HandleCommand routes giveaway subcommands to appropriate handlers
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}

	switch options[0].Name {
	case "create":
		f.handleCreate(s, i, options[0].Options)
	case "list":
		f.handleList(s, i)
	case "reroll":
		f.handleReroll(s, i, options[0].Options)
	case "delete":
		f.handleDelete(s, i, options[0].Options)
	}
}

// HandleComponent reacts to the enter and leave buttons on announcements
func (f *Feature) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	messageID, err := strconv.ParseInt(i.Message.ID, 10, 64)
	if err != nil {
		log.Errorf("Error parsing giveaway message ID %s: %v", i.Message.ID, err)
		return
	}

	userID, err := strconv.ParseInt(common.InteractionUserID(i), 10, 64)
	if err != nil {
		log.Errorf("Error parsing user ID: %v", err)
		return
	}

	ctx := context.Background()

	switch i.MessageComponentData().CustomID {
	case ComponentEnter:
		giveaway, err := f.giveawayService.RegisterEntry(ctx, messageID, userID)
		if err != nil {
			common.RespondWithUserError(s, i, err, "Unable to enter the giveaway. Please try again.")
			return
		}
		f.refreshAnnouncement(giveaway)
		common.RespondWithSuccess(s, i, fmt.Sprintf("You entered the giveaway for **%s**! Entries so far: %d", giveaway.Prize, len(giveaway.Entries)), true)

	case ComponentLeave:
		giveaway, err := f.giveawayService.UnregisterEntry(ctx, messageID, userID)
		if err != nil {
			common.RespondWithUserError(s, i, err, "Unable to withdraw from the giveaway. Please try again.")
			return
		}
		f.refreshAnnouncement(giveaway)
		common.RespondWithSuccess(s, i, fmt.Sprintf("You withdrew from the giveaway for **%s**.", giveaway.Prize), true)
	}
}

// HandleCompleted updates the announcement and congratulates the winners
// once the sweep has finalized a giveaway
func (f *Feature) HandleCompleted(ctx context.Context, event events.GiveawayCompletedEvent) {
	giveaway := event.Giveaway
	channelID := strconv.FormatInt(giveaway.ChannelID, 10)
	messageID := strconv.FormatInt(giveaway.MessageID, 10)

	endedName := "giveaway_ended"
	if len(event.Winners) == 0 {
		endedName = "giveaway_no_winners"
	}
	embed, err := f.store.Render(endedName, giveawayVars(giveaway))
	if err != nil {
		log.Errorf("Error rendering ended giveaway %s: %v", giveaway.GiveawayID, err)
		return
	}

	ended := endedButtons()
	_, err = f.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &ended,
	})
	if err != nil {
		log.Errorf("Error updating announcement for giveaway %s: %v", giveaway.GiveawayID, err)
	}

	// No congratulatory message when nobody won
	if len(event.Winners) == 0 {
		return
	}

	congrats, err := f.store.Render("giveaway_winners", map[string]string{
		"winners": mentionList(event.Winners),
		"prize":   giveaway.Prize,
	})
	if err != nil {
		log.Errorf("Error rendering winner message for giveaway %s: %v", giveaway.GiveawayID, err)
		return
	}

	_, err = f.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: mentionList(event.Winners),
		Embeds:  []*discordgo.MessageEmbed{congrats},
		Reference: &discordgo.MessageReference{
			ChannelID: channelID,
			MessageID: messageID,
		},
	})
	if err != nil {
		log.Errorf("Error sending winner message for giveaway %s: %v", giveaway.GiveawayID, err)
	}
}

func (f *Feature) handleCreate(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if !common.IsAdmin(i) {
		common.RespondWithError(s, i, "You need administrator permissions to create giveaways.")
		return
	}

	var prize, durationText, description string
	var winnerCount int64
	channelID := i.ChannelID
	for _, opt := range options {
		switch opt.Name {
		case "prize":
			prize = opt.StringValue()
		case "duration":
			durationText = opt.StringValue()
		case "winners":
			winnerCount = opt.IntValue()
		case "description":
			description = opt.StringValue()
		case "channel":
			channelID = opt.ChannelValue(s).ID
		}
	}

	duration, err := parseDuration(durationText)
	if err != nil {
		common.RespondWithError(s, i, fmt.Sprintf("Invalid duration %q. Use forms like 30m, 12h or 2d.", durationText))
		return
	}

	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Error deferring giveaway create response: %v", err)
		return
	}

	guildID, _ := strconv.ParseInt(i.GuildID, 10, 64)
	hostID, _ := strconv.ParseInt(common.InteractionUserID(i), 10, 64)

	giveaway := &models.Giveaway{
		GuildID:     guildID,
		Prize:       prize,
		Description: description,
		HostedBy:    hostID,
		WinnerCount: int(winnerCount),
		EndDate:     time.Now().Add(duration),
	}

	embed, err := f.store.Render("giveaway_active", giveawayVars(giveaway))
	if err != nil {
		log.Errorf("Error rendering giveaway announcement: %v", err)
		common.FollowUpWithError(s, i, "Unable to render the giveaway announcement.")
		return
	}

	announcement, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: entryButtons(),
	})
	if err != nil {
		log.Errorf("Error sending giveaway announcement: %v", err)
		common.FollowUpWithError(s, i, "Unable to post the giveaway announcement in that channel.")
		return
	}

	giveaway.MessageID, _ = strconv.ParseInt(announcement.ID, 10, 64)
	giveaway.ChannelID, _ = strconv.ParseInt(announcement.ChannelID, 10, 64)

	created, err := f.giveawayService.Create(context.Background(), giveaway)
	if err != nil {
		// Drop the orphaned announcement so it cannot collect entries
		if deleteErr := s.ChannelMessageDelete(announcement.ChannelID, announcement.ID); deleteErr != nil {
			log.Errorf("Error deleting orphaned announcement: %v", deleteErr)
		}
		common.FollowUpWithUserError(s, i, err, "Unable to create the giveaway. Please try again.")
		return
	}

	common.FollowUpWithSuccess(s, i, fmt.Sprintf("Giveaway for **%s** started, ending %s.",
		created.Prize, common.FormatDiscordTimestamp(created.EndDate, "R")), true)
}

func (f *Feature) handleList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, _ := strconv.ParseInt(i.GuildID, 10, 64)

	giveaways, err := f.giveawayService.ListActive(context.Background(), guildID)
	if err != nil {
		log.Errorf("Error listing giveaways for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Unable to list giveaways. Please try again.")
		return
	}

	if len(giveaways) == 0 {
		common.RespondWithSuccess(s, i, "No giveaways are currently running.", true)
		return
	}

	var lines []string
	for _, g := range giveaways {
		lines = append(lines, fmt.Sprintf("**%s**: %d entries, ends %s - https://discord.com/channels/%d/%d/%d",
			g.Prize, len(g.Entries), common.FormatDiscordTimestamp(g.EndDate, "R"), g.GuildID, g.ChannelID, g.MessageID))
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Running giveaways",
		Description: strings.Join(lines, "\n"),
		Color:       messages.DefaultColor,
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, true); err != nil {
		log.Errorf("Error responding to giveaway list: %v", err)
	}
}

func (f *Feature) handleReroll(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if !common.IsAdmin(i) {
		common.RespondWithError(s, i, "You need administrator permissions to reroll giveaways.")
		return
	}

	messageID, err := messageIDOption(options)
	if err != nil {
		common.RespondWithError(s, i, "Invalid message id.")
		return
	}

	giveaway, err := f.giveawayService.Reroll(context.Background(), messageID)
	if err != nil {
		common.RespondWithUserError(s, i, err, "Unable to reroll the giveaway. Please try again.")
		return
	}

	if len(giveaway.Winners) == 0 {
		common.RespondWithSuccess(s, i, fmt.Sprintf("No entries in the giveaway for **%s**, nobody to pick.", giveaway.Prize), true)
		return
	}

	channelID := strconv.FormatInt(giveaway.ChannelID, 10)
	_, err = s.ChannelMessageSend(channelID, fmt.Sprintf("🎉 New winners for **%s**: %s", giveaway.Prize, mentionList(giveaway.Winners)))
	if err != nil {
		log.Errorf("Error announcing rerolled winners for giveaway %s: %v", giveaway.GiveawayID, err)
	}

	common.RespondWithSuccess(s, i, fmt.Sprintf("Rerolled **%s**: %s", giveaway.Prize, mentionList(giveaway.Winners)), true)
}

func (f *Feature) handleDelete(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if !common.IsAdmin(i) {
		common.RespondWithError(s, i, "You need administrator permissions to delete giveaways.")
		return
	}

	messageID, err := messageIDOption(options)
	if err != nil {
		common.RespondWithError(s, i, "Invalid message id.")
		return
	}

	if err := f.giveawayService.Delete(context.Background(), messageID); err != nil {
		common.RespondWithUserError(s, i, err, "Unable to delete the giveaway. Please try again.")
		return
	}

	// The announcement message is left in place on purpose
	common.RespondWithSuccess(s, i, "Giveaway deleted.", true)
}

// refreshAnnouncement re-renders the entry count on the announcement embed
func (f *Feature) refreshAnnouncement(giveaway *models.Giveaway) {
	embed, err := f.store.Render("giveaway_active", giveawayVars(giveaway))
	if err != nil {
		log.Errorf("Error rendering giveaway %s: %v", giveaway.GiveawayID, err)
		return
	}

	channelID := strconv.FormatInt(giveaway.ChannelID, 10)
	messageID := strconv.FormatInt(giveaway.MessageID, 10)
	_, err = f.session.ChannelMessageEditEmbed(channelID, messageID, embed)
	if err != nil {
		log.Errorf("Error refreshing announcement for giveaway %s: %v", giveaway.GiveawayID, err)
	}
}

// giveawayVars builds the template variables of a giveaway embed
func giveawayVars(g *models.Giveaway) map[string]string {
	return map[string]string{
		"prize":         g.Prize,
		"description":   g.Description,
		"end-date":      common.FormatDiscordTimestamp(g.EndDate, "R"),
		"hosted-by":     fmt.Sprintf("<@%d>", g.HostedBy),
		"entries-count": strconv.Itoa(len(g.Entries)),
		"winners-count": strconv.Itoa(g.WinnerCount),
		"winners":       mentionList(g.Winners),
	}
}

func entryButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Enter", Emoji: &discordgo.ComponentEmoji{Name: "🎉"}, Style: discordgo.PrimaryButton, CustomID: ComponentEnter},
			discordgo.Button{Label: "Leave", Style: discordgo.SecondaryButton, CustomID: ComponentLeave},
		}},
	}
}

// endedButtons replace the entry buttons once a giveaway is finalized
func endedButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Ended", Emoji: &discordgo.ComponentEmoji{Name: "🎉"}, Style: discordgo.SecondaryButton, CustomID: ComponentEnter, Disabled: true},
		}},
	}
}

func mentionList(userIDs []int64) string {
	if len(userIDs) == 0 {
		return "None"
	}
	mentions := make([]string, len(userIDs))
	for i, id := range userIDs {
		mentions[i] = fmt.Sprintf("<@%d>", id)
	}
	return strings.Join(mentions, ", ")
}

func messageIDOption(options []*discordgo.ApplicationCommandInteractionDataOption) (int64, error) {
	for _, opt := range options {
		if opt.Name == "message-id" {
			return strconv.ParseInt(opt.StringValue(), 10, 64)
		}
	}
	return 0, fmt.Errorf("missing message-id option")
}

// parseDuration understands the short forms users type into the duration
// option, including a day suffix time.ParseDuration lacks.
func parseDuration(text string) (time.Duration, error) {
	text = strings.TrimSpace(text)

	var duration time.Duration
	if strings.HasSuffix(text, "d") {
		days, err := strconv.ParseFloat(strings.TrimSuffix(text, "d"), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", text)
		}
		duration = time.Duration(days * float64(24*time.Hour))
	} else {
		parsed, err := time.ParseDuration(text)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", text, err)
		}
		duration = parsed
	}

	if duration <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}
	return duration, nil
}

package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"krypton/bot/features/customcommands"
	"krypton/bot/features/economy"
	"krypton/bot/features/giveaways"
	"krypton/bot/features/settings"
	"krypton/bot/features/tickets"
	"krypton/bot/features/welcome"
	"krypton/events"
	"krypton/messages"
	"krypton/service"
	"krypton/setup"
)

// Config holds bot configuration
type Config struct {
	Token   string
	GuildID string

	// WizardWindow bounds how long interactive prompts wait for input
	WizardWindow time.Duration
}

type Bot struct {
	config          Config
	session         *discordgo.Session
	collector       *Collector
	giveawayService service.GiveawayService

	giveaways      *giveaways.Feature
	tickets        *tickets.Feature
	economy        *economy.Feature
	settings       *settings.Feature
	welcome        *welcome.Feature
	customCommands *customcommands.Feature
}

func New(config Config, giveawayService service.GiveawayService, settingsService service.GuildSettingsService, ticketService service.TicketService, economyService service.EconomyService, store *messages.Store, eventBus *events.Bus) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsAll

	collector := NewCollector(dg, config.WizardWindow)
	newPrompter := func(i *discordgo.InteractionCreate) setup.Prompter {
		return newWizardPrompter(dg, collector, i)
	}

	bot := &Bot{
		config:          config,
		session:         dg,
		collector:       collector,
		giveawayService: giveawayService,
		giveaways:       giveaways.NewFeature(dg, giveawayService, store),
		tickets:         tickets.NewFeature(dg, ticketService, settingsService, store, newPrompter),
		economy:         economy.NewFeature(dg, economyService, settingsService, store),
		settings:        settings.NewFeature(dg, settingsService, newPrompter),
		welcome:         welcome.NewFeature(dg, settingsService, store),
		customCommands:  customcommands.NewFeature(dg, settingsService, newPrompter),
	}

	// Register slash command handlers
	dg.AddHandler(bot.handleCommands)

	// Register component interaction handlers
	dg.AddHandler(bot.handleComponents)

	// Register gateway event handlers
	dg.AddHandler(bot.welcome.HandleJoin)
	dg.AddHandler(bot.handleMessageCreate)

	// Announcement updates run after the finalizing transaction commits
	eventBus.Subscribe(events.EventTypeGiveawayCompleted, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.GiveawayCompletedEvent); ok {
			bot.giveaways.HandleCompleted(ctx, e)
		}
	})
	eventBus.Subscribe(events.EventTypeTicketOpened, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.TicketOpenedEvent); ok {
			bot.tickets.HandleOpened(ctx, e)
		}
	})
	eventBus.Subscribe(events.EventTypeTicketClosed, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.TicketClosedEvent); ok {
			bot.tickets.HandleClosed(ctx, e)
		}
	})
	eventBus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.BalanceChangeEvent); ok {
			bot.economy.HandleBalanceChange(ctx, e)
		}
	})

	// Open websocket connection
	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	// Register slash commands with Discord
	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// handleCommands dispatches slash commands to their feature handlers
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "giveaway":
		b.giveaways.HandleCommand(s, i)
	case "ticket":
		b.tickets.HandleCommand(s, i)
	case "balance", "daily", "weekly", "work", "deposit", "withdraw", "messages":
		b.economy.HandleCommand(s, i)
	case "config":
		b.settings.HandleCommand(s, i)
	case "custom":
		b.customCommands.HandleCommand(s, i)
	}
}

// handleComponents dispatches component clicks by custom id prefix.
// Wizard components carry the "wizard:" prefix and are consumed by the
// collector instead.
func (b *Bot) handleComponents(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	customID := i.MessageComponentData().CustomID
	switch {
	case strings.HasPrefix(customID, "gw-"):
		b.giveaways.HandleComponent(s, i)
	case strings.HasPrefix(customID, tickets.PanelPrefix), strings.HasPrefix(customID, "tkt-"):
		b.tickets.HandleComponent(s, i)
	}
}

// handleMessageCreate counts guild messages for the economy and executes
// custom commands
func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	guildID, err := strconv.ParseInt(m.GuildID, 10, 64)
	if err != nil {
		log.Errorf("Error parsing guild ID %s: %v", m.GuildID, err)
		return
	}
	userID, err := strconv.ParseInt(m.Author.ID, 10, 64)
	if err != nil {
		log.Errorf("Error parsing user ID %s: %v", m.Author.ID, err)
		return
	}

	b.economy.RecordMessage(guildID, userID)
	b.customCommands.HandleMessage(s, m)
}

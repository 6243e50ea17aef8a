package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sirupsen/logrus"

	"krypton/bot"
	"krypton/config"
	"krypton/database"
	"krypton/events"
	"krypton/messages"
	"krypton/repository"
	"krypton/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting krypton bot...")

	// Load configuration
	cfg := config.Get()

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	log.Println("Initializing event bus...")
	eventBus := events.NewBus()
	log.Println("Event bus initialized successfully")

	// Initialize unit of work factory
	log.Println("Initializing unit of work factory...")
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	log.Println("Unit of work factory initialized successfully")

	// Initialize services
	log.Println("Initializing services...")
	giveawayService := service.NewGiveawayService(uowFactory)
	settingsService := service.NewGuildSettingsService(uowFactory)
	ticketService := service.NewTicketService(uowFactory)
	economyService := service.NewEconomyService(uowFactory)
	log.Println("Services initialized successfully")

	// Load message templates
	var store *messages.Store
	if cfg.TemplatesPath != "" {
		store, err = messages.NewStoreFromFile(cfg.TemplatesPath)
	} else {
		store, err = messages.NewStore()
	}
	if err != nil {
		return fmt.Errorf("failed to load message templates: %w", err)
	}

	// Initialize Discord bot
	log.Println("Initializing Discord bot...")
	botConfig := bot.Config{
		Token:        cfg.DiscordToken,
		GuildID:      cfg.DiscordGuildID,
		WizardWindow: time.Duration(cfg.WizardTimeout) * time.Second,
	}
	discordBot, err := bot.New(botConfig, giveawayService, settingsService, ticketService, economyService, store, eventBus)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	log.Println("Discord bot initialized successfully")

	// Start the giveaway sweep worker
	stopSweep := discordBot.StartGiveawaySweepWorker(ctx, time.Duration(cfg.SweepInterval)*time.Second)

	// Wait for context cancellation
	log.Printf("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down bot...")
	stopSweep()

	// Close Discord bot connection
	if err := discordBot.Close(); err != nil {
		log.Printf("Error closing Discord bot: %v", err)
	}

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close database connection
	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}

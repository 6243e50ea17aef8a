package service

import (
	"context"
	"time"

	"krypton/events"
	"krypton/models"
)

// GiveawayRepository defines the interface for giveaway data access
type GiveawayRepository interface {
	// Create persists a new giveaway
	Create(ctx context.Context, giveaway *models.Giveaway) error

	// GetByID retrieves a giveaway by its ID
	GetByID(ctx context.Context, giveawayID string) (*models.Giveaway, error)

	// GetByMessageID retrieves a giveaway by its Discord message ID
	GetByMessageID(ctx context.Context, messageID int64) (*models.Giveaway, error)

	// GetActiveByGuild returns all running giveaways of a guild
	GetActiveByGuild(ctx context.Context, guildID int64) ([]*models.Giveaway, error)

	// GetExpired returns giveaways past their end date that are not yet ended
	GetExpired(ctx context.Context, now time.Time) ([]*models.Giveaway, error)

	// AddEntry appends a participant if the giveaway is still running and
	// the participant is not already entered. Returns whether a row changed.
	AddEntry(ctx context.Context, giveawayID string, userID int64) (bool, error)

	// RemoveEntry withdraws a participant from a running giveaway.
	// Returns whether a row changed.
	RemoveEntry(ctx context.Context, giveawayID string, userID int64) (bool, error)

	// Finalize marks the giveaway ended and records its winners. The
	// update only applies while the giveaway is not already ended;
	// returns whether this call won the transition.
	Finalize(ctx context.Context, giveawayID string, winners []int64) (bool, error)

	// UpdateWinners replaces the winner list of an ended giveaway
	UpdateWinners(ctx context.Context, giveawayID string, winners []int64) error

	// Delete removes a giveaway
	Delete(ctx context.Context, giveawayID string) error
}

// GuildRepository defines the interface for guild settings data access
type GuildRepository interface {
	// Get retrieves a guild row, nil when the guild has never been seen
	Get(ctx context.Context, guildID int64) (*models.Guild, error)

	// Upsert inserts or replaces the guild settings document
	Upsert(ctx context.Context, guild *models.Guild) error
}

// TicketRepository defines the interface for ticket data access
type TicketRepository interface {
	// Create persists a new ticket
	Create(ctx context.Context, ticket *models.Ticket) error

	// GetByChannelID retrieves the ticket bound to a channel
	GetByChannelID(ctx context.Context, channelID int64) (*models.Ticket, error)

	// CountOpenByUser returns how many tickets a user currently has open
	CountOpenByUser(ctx context.Context, guildID, userID int64) (int, error)

	// NextNumber returns the next sequential ticket number for a guild
	NextNumber(ctx context.Context, guildID int64) (int, error)

	// Claim records the staff member handling the ticket
	Claim(ctx context.Context, ticketID string, claimedBy int64) error

	// SetControlMessage records the message carrying the lifecycle buttons
	SetControlMessage(ctx context.Context, ticketID string, messageID int64) error

	// SetOpen toggles the open flag, stamping closed_at on close
	SetOpen(ctx context.Context, ticketID string, open bool) error

	// Delete removes a ticket row
	Delete(ctx context.Context, ticketID string) error
}

// MemberRepository defines the interface for economy profile data access
type MemberRepository interface {
	// GetOrCreate retrieves a member profile, creating a zeroed row on first sight
	GetOrCreate(ctx context.Context, guildID, userID int64) (*models.Member, error)

	// AddWallet credits the wallet atomically
	AddWallet(ctx context.Context, guildID, userID int64, amount int64) error

	// Deposit moves an amount from wallet to bank in a single statement
	Deposit(ctx context.Context, guildID, userID int64, amount int64) error

	// Withdraw moves an amount from bank to wallet in a single statement
	Withdraw(ctx context.Context, guildID, userID int64, amount int64) error

	// ClaimDaily credits the reward and stamps last_daily, guarded by the
	// cooldown so concurrent claims cannot double-pay
	ClaimDaily(ctx context.Context, guildID, userID int64, amount int64, now time.Time) (bool, error)

	// ClaimWeekly credits the reward and stamps last_weekly under the weekly cooldown
	ClaimWeekly(ctx context.Context, guildID, userID int64, amount int64, now time.Time) (bool, error)

	// IncrementMessageCount bumps the message counter
	IncrementMessageCount(ctx context.Context, guildID, userID int64) error
}

// GiveawayService defines the interface for giveaway operations
type GiveawayService interface {
	// Create validates and starts a new giveaway
	Create(ctx context.Context, giveaway *models.Giveaway) (*models.Giveaway, error)

	// GetByMessageID retrieves a giveaway by its Discord message ID
	GetByMessageID(ctx context.Context, messageID int64) (*models.Giveaway, error)

	// ListActive returns running giveaways for a guild
	ListActive(ctx context.Context, guildID int64) ([]*models.Giveaway, error)

	// RegisterEntry adds a participant to a running giveaway
	RegisterEntry(ctx context.Context, messageID int64, userID int64) (*models.Giveaway, error)

	// UnregisterEntry withdraws a participant from a running giveaway
	UnregisterEntry(ctx context.Context, messageID int64, userID int64) (*models.Giveaway, error)

	// Reroll picks fresh winners for an ended giveaway
	Reroll(ctx context.Context, messageID int64) (*models.Giveaway, error)

	// Delete removes a giveaway regardless of state
	Delete(ctx context.Context, messageID int64) error

	// FinalizeExpired ends every giveaway past its end date, selecting
	// winners and emitting completion events. Failures on one giveaway
	// do not block the rest.
	FinalizeExpired(ctx context.Context) error
}

// GuildSettingsService defines the interface for guild configuration operations
type GuildSettingsService interface {
	// GetOrCreateSettings retrieves guild settings or creates defaults if not found
	GetOrCreateSettings(ctx context.Context, guildID int64) (*models.GuildSettings, error)

	// UpdateSetting assigns one dot-path addressed option
	UpdateSetting(ctx context.Context, guildID int64, path string, value any) (*models.GuildSettings, error)

	// UpdateSettings replaces the whole settings document
	UpdateSettings(ctx context.Context, guildID int64, settings *models.GuildSettings) error
}

// TicketService defines the interface for ticket operations
type TicketService interface {
	// Open creates a ticket for a user in a category, enforcing the
	// per-user open ticket quota
	Open(ctx context.Context, guildID, userID, channelID int64, categoryID string) (*models.Ticket, error)

	// GetByChannel retrieves the ticket bound to a channel
	GetByChannel(ctx context.Context, channelID int64) (*models.Ticket, error)

	// NextNumber reserves the next ticket number for naming the channel
	NextNumber(ctx context.Context, guildID int64) (int, error)

	// Claim records the staff member handling a ticket
	Claim(ctx context.Context, channelID int64, claimedBy int64) (*models.Ticket, error)

	// RecordControlMessage stores the message holding the ticket's
	// current lifecycle buttons
	RecordControlMessage(ctx context.Context, ticketID string, messageID int64) error

	// Close closes an open ticket
	Close(ctx context.Context, channelID int64, closedBy int64) (*models.Ticket, error)

	// Reopen reopens a closed ticket
	Reopen(ctx context.Context, channelID int64) (*models.Ticket, error)

	// Delete removes a ticket record
	Delete(ctx context.Context, channelID int64) error
}

// EconomyService defines the interface for economy operations
type EconomyService interface {
	// GetProfile retrieves a member economy profile, creating it when absent
	GetProfile(ctx context.Context, guildID, userID int64) (*models.Member, error)

	// ClaimDaily pays the daily reward if the cooldown elapsed
	ClaimDaily(ctx context.Context, guildID, userID int64) (int64, error)

	// ClaimWeekly pays the weekly reward if the cooldown elapsed
	ClaimWeekly(ctx context.Context, guildID, userID int64) (int64, error)

	// Work pays a random amount within the configured range
	Work(ctx context.Context, guildID, userID int64) (int64, error)

	// Deposit moves wallet funds into the bank; amount <= 0 means everything
	Deposit(ctx context.Context, guildID, userID int64, amount int64) (*models.Member, error)

	// Withdraw moves bank funds into the wallet; amount <= 0 means everything
	Withdraw(ctx context.Context, guildID, userID int64, amount int64) (*models.Member, error)

	// RecordMessage bumps the member's message counter
	RecordMessage(ctx context.Context, guildID, userID int64) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	GiveawayRepository() GiveawayRepository
	GuildRepository() GuildRepository
	TicketRepository() TicketRepository
	MemberRepository() MemberRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}

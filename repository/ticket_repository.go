package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"krypton/database"
	"krypton/models"
)

// TicketRepository implements the TicketRepository interface
type TicketRepository struct {
	q queryable
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{q: db.Pool}
}

// newTicketRepositoryWithTx creates a new ticket repository with a transaction
func newTicketRepositoryWithTx(tx queryable) *TicketRepository {
	return &TicketRepository{q: tx}
}

// Create persists a new ticket
func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets (id, guild_id, channel_id, user_id, category_id, number, open, claimed_by, control_message_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.Exec(ctx, query,
		ticket.ID,
		ticket.GuildID,
		ticket.ChannelID,
		ticket.UserID,
		ticket.CategoryID,
		ticket.Number,
		ticket.Open,
		ticket.ClaimedBy,
		ticket.ControlMessageID,
	)
	if err != nil {
		return fmt.Errorf("failed to create ticket %s: %w", ticket.ID, err)
	}

	return nil
}

// GetByChannelID retrieves the ticket bound to a channel
func (r *TicketRepository) GetByChannelID(ctx context.Context, channelID int64) (*models.Ticket, error) {
	query := `
		SELECT id, guild_id, channel_id, user_id, category_id, number, open,
			claimed_by, control_message_id, created_at, COALESCE(closed_at, 'epoch'::timestamptz)
		FROM tickets
		WHERE channel_id = $1
	`

	var ticket models.Ticket
	err := r.q.QueryRow(ctx, query, channelID).Scan(
		&ticket.ID,
		&ticket.GuildID,
		&ticket.ChannelID,
		&ticket.UserID,
		&ticket.CategoryID,
		&ticket.Number,
		&ticket.Open,
		&ticket.ClaimedBy,
		&ticket.ControlMessageID,
		&ticket.CreatedAt,
		&ticket.ClosedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket by channel %d: %w", channelID, err)
	}

	return &ticket, nil
}

// CountOpenByUser returns how many tickets a user currently has open
func (r *TicketRepository) CountOpenByUser(ctx context.Context, guildID, userID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM tickets
		WHERE guild_id = $1 AND user_id = $2 AND open = TRUE
	`

	var count int
	if err := r.q.QueryRow(ctx, query, guildID, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count open tickets for user %d: %w", userID, err)
	}

	return count, nil
}

// NextNumber returns the next sequential ticket number for a guild
func (r *TicketRepository) NextNumber(ctx context.Context, guildID int64) (int, error) {
	query := `
		SELECT COALESCE(MAX(number), 0) + 1
		FROM tickets
		WHERE guild_id = $1
	`

	var number int
	if err := r.q.QueryRow(ctx, query, guildID).Scan(&number); err != nil {
		return 0, fmt.Errorf("failed to get next ticket number for guild %d: %w", guildID, err)
	}

	return number, nil
}

// Claim records the staff member handling the ticket
func (r *TicketRepository) Claim(ctx context.Context, ticketID string, claimedBy int64) error {
	query := `
		UPDATE tickets
		SET claimed_by = $2
		WHERE id = $1 AND open = TRUE
	`

	result, err := r.q.Exec(ctx, query, ticketID, claimedBy)
	if err != nil {
		return fmt.Errorf("failed to claim ticket %s: %w", ticketID, err)
	}

	if result.RowsAffected() == 0 {
		return models.NewNotFoundError("open ticket", ticketID)
	}

	return nil
}

// SetControlMessage records the message carrying the lifecycle buttons
func (r *TicketRepository) SetControlMessage(ctx context.Context, ticketID string, messageID int64) error {
	query := `
		UPDATE tickets
		SET control_message_id = $2
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, ticketID, messageID)
	if err != nil {
		return fmt.Errorf("failed to set control message for ticket %s: %w", ticketID, err)
	}

	if result.RowsAffected() == 0 {
		return models.NewNotFoundError("ticket", ticketID)
	}

	return nil
}

// SetOpen toggles the open flag, stamping closed_at on close
func (r *TicketRepository) SetOpen(ctx context.Context, ticketID string, open bool) error {
	query := `
		UPDATE tickets
		SET open = $2,
			closed_at = CASE WHEN $2 THEN NULL ELSE NOW() END
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, ticketID, open)
	if err != nil {
		return fmt.Errorf("failed to update ticket %s: %w", ticketID, err)
	}

	if result.RowsAffected() == 0 {
		return models.NewNotFoundError("ticket", ticketID)
	}

	return nil
}

// Delete removes a ticket row
func (r *TicketRepository) Delete(ctx context.Context, ticketID string) error {
	query := `DELETE FROM tickets WHERE id = $1`

	result, err := r.q.Exec(ctx, query, ticketID)
	if err != nil {
		return fmt.Errorf("failed to delete ticket %s: %w", ticketID, err)
	}

	if result.RowsAffected() == 0 {
		return models.NewNotFoundError("ticket", ticketID)
	}

	return nil
}

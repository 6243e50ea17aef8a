package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"krypton/database"
	"krypton/models"
)

// GiveawayRepository implements the GiveawayRepository interface
type GiveawayRepository struct {
	q queryable
}

// NewGiveawayRepository creates a new giveaway repository
func NewGiveawayRepository(db *database.DB) *GiveawayRepository {
	return &GiveawayRepository{q: db.Pool}
}

// newGiveawayRepositoryWithTx creates a new giveaway repository with a transaction
func newGiveawayRepositoryWithTx(tx queryable) *GiveawayRepository {
	return &GiveawayRepository{q: tx}
}

const giveawayColumns = `
	giveaway_id, guild_id, message_id, channel_id, prize, description,
	hosted_by, winner_count, start_date, end_date, ended, entries, winners
`

func scanGiveaway(row pgx.Row) (*models.Giveaway, error) {
	var g models.Giveaway
	err := row.Scan(
		&g.GiveawayID,
		&g.GuildID,
		&g.MessageID,
		&g.ChannelID,
		&g.Prize,
		&g.Description,
		&g.HostedBy,
		&g.WinnerCount,
		&g.StartDate,
		&g.EndDate,
		&g.Ended,
		&g.Entries,
		&g.Winners,
	)
	if err != nil {
		return nil, err
	}
	if g.Entries == nil {
		g.Entries = []int64{}
	}
	if g.Winners == nil {
		g.Winners = []int64{}
	}
	return &g, nil
}

// Create persists a new giveaway
func (r *GiveawayRepository) Create(ctx context.Context, giveaway *models.Giveaway) error {
	query := `
		INSERT INTO giveaways (giveaway_id, guild_id, message_id, channel_id, prize,
			description, hosted_by, winner_count, start_date, end_date, ended, entries, winners)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.q.Exec(ctx, query,
		giveaway.GiveawayID,
		giveaway.GuildID,
		giveaway.MessageID,
		giveaway.ChannelID,
		giveaway.Prize,
		giveaway.Description,
		giveaway.HostedBy,
		giveaway.WinnerCount,
		giveaway.StartDate,
		giveaway.EndDate,
		giveaway.Ended,
		giveaway.Entries,
		giveaway.Winners,
	)
	if err != nil {
		return fmt.Errorf("failed to create giveaway %s: %w", giveaway.GiveawayID, err)
	}

	return nil
}

// GetByID retrieves a giveaway by its ID
func (r *GiveawayRepository) GetByID(ctx context.Context, giveawayID string) (*models.Giveaway, error) {
	query := `SELECT ` + giveawayColumns + ` FROM giveaways WHERE giveaway_id = $1`

	giveaway, err := scanGiveaway(r.q.QueryRow(ctx, query, giveawayID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get giveaway %s: %w", giveawayID, err)
	}

	return giveaway, nil
}

// GetByMessageID retrieves a giveaway by its Discord message ID
func (r *GiveawayRepository) GetByMessageID(ctx context.Context, messageID int64) (*models.Giveaway, error) {
	query := `SELECT ` + giveawayColumns + ` FROM giveaways WHERE message_id = $1`

	giveaway, err := scanGiveaway(r.q.QueryRow(ctx, query, messageID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get giveaway by message ID %d: %w", messageID, err)
	}

	return giveaway, nil
}

// GetActiveByGuild returns all running giveaways of a guild
func (r *GiveawayRepository) GetActiveByGuild(ctx context.Context, guildID int64) ([]*models.Giveaway, error) {
	query := `
		SELECT ` + giveawayColumns + `
		FROM giveaways
		WHERE guild_id = $1 AND ended = FALSE
		ORDER BY end_date ASC
	`

	rows, err := r.q.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active giveaways for guild %d: %w", guildID, err)
	}
	defer rows.Close()

	return collectGiveaways(rows)
}

// GetExpired returns giveaways past their end date that are not yet ended
func (r *GiveawayRepository) GetExpired(ctx context.Context, now time.Time) ([]*models.Giveaway, error) {
	query := `
		SELECT ` + giveawayColumns + `
		FROM giveaways
		WHERE ended = FALSE AND end_date <= $1
		ORDER BY end_date ASC
	`

	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired giveaways: %w", err)
	}
	defer rows.Close()

	return collectGiveaways(rows)
}

func collectGiveaways(rows pgx.Rows) ([]*models.Giveaway, error) {
	var giveaways []*models.Giveaway
	for rows.Next() {
		giveaway, err := scanGiveaway(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan giveaway: %w", err)
		}
		giveaways = append(giveaways, giveaway)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate giveaways: %w", err)
	}

	return giveaways, nil
}

// AddEntry appends a participant if the giveaway is still running and not
// already entered. The guards live in the statement itself so concurrent
// entries and a concurrent finalization cannot interleave badly.
func (r *GiveawayRepository) AddEntry(ctx context.Context, giveawayID string, userID int64) (bool, error) {
	query := `
		UPDATE giveaways
		SET entries = array_append(entries, $2)
		WHERE giveaway_id = $1
		  AND ended = FALSE
		  AND NOT entries @> ARRAY[$2]::BIGINT[]
	`

	result, err := r.q.Exec(ctx, query, giveawayID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to add entry for giveaway %s: %w", giveawayID, err)
	}

	return result.RowsAffected() > 0, nil
}

// RemoveEntry withdraws a participant from a running giveaway
func (r *GiveawayRepository) RemoveEntry(ctx context.Context, giveawayID string, userID int64) (bool, error) {
	query := `
		UPDATE giveaways
		SET entries = array_remove(entries, $2)
		WHERE giveaway_id = $1
		  AND ended = FALSE
		  AND entries @> ARRAY[$2]::BIGINT[]
	`

	result, err := r.q.Exec(ctx, query, giveawayID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove entry for giveaway %s: %w", giveawayID, err)
	}

	return result.RowsAffected() > 0, nil
}

// Finalize marks the giveaway ended and records its winners. Only one
// caller can win the ended = FALSE transition, making finalization
// idempotent under concurrent sweeps.
func (r *GiveawayRepository) Finalize(ctx context.Context, giveawayID string, winners []int64) (bool, error) {
	if winners == nil {
		winners = []int64{}
	}

	query := `
		UPDATE giveaways
		SET ended = TRUE, winners = $2
		WHERE giveaway_id = $1 AND ended = FALSE
	`

	result, err := r.q.Exec(ctx, query, giveawayID, winners)
	if err != nil {
		return false, fmt.Errorf("failed to finalize giveaway %s: %w", giveawayID, err)
	}

	return result.RowsAffected() > 0, nil
}

// UpdateWinners replaces the winner list of an ended giveaway, used by reroll
func (r *GiveawayRepository) UpdateWinners(ctx context.Context, giveawayID string, winners []int64) error {
	if winners == nil {
		winners = []int64{}
	}

	query := `
		UPDATE giveaways
		SET winners = $2
		WHERE giveaway_id = $1 AND ended = TRUE
	`

	result, err := r.q.Exec(ctx, query, giveawayID, winners)
	if err != nil {
		return fmt.Errorf("failed to update winners for giveaway %s: %w", giveawayID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("giveaway %s is not ended", giveawayID)
	}

	return nil
}

// Delete removes a giveaway
func (r *GiveawayRepository) Delete(ctx context.Context, giveawayID string) error {
	query := `DELETE FROM giveaways WHERE giveaway_id = $1`

	result, err := r.q.Exec(ctx, query, giveawayID)
	if err != nil {
		return fmt.Errorf("failed to delete giveaway %s: %w", giveawayID, err)
	}

	if result.RowsAffected() == 0 {
		return models.NewNotFoundError("giveaway", giveawayID)
	}

	return nil
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"krypton/database"
	"krypton/models"
)

// GuildRepository implements the GuildRepository interface. Settings are
// stored as a single JSONB document per guild.
type GuildRepository struct {
	q queryable
}

// NewGuildRepository creates a new guild repository
func NewGuildRepository(db *database.DB) *GuildRepository {
	return &GuildRepository{q: db.Pool}
}

// newGuildRepositoryWithTx creates a new guild repository with a transaction
func newGuildRepositoryWithTx(tx queryable) *GuildRepository {
	return &GuildRepository{q: tx}
}

// Get retrieves a guild row, nil when the guild has never been seen
func (r *GuildRepository) Get(ctx context.Context, guildID int64) (*models.Guild, error) {
	query := `
		SELECT guild_id, settings, created_at, updated_at
		FROM guilds
		WHERE guild_id = $1
	`

	var guild models.Guild
	var raw []byte
	err := r.q.QueryRow(ctx, query, guildID).Scan(
		&guild.GuildID,
		&raw,
		&guild.CreatedAt,
		&guild.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guild %d: %w", guildID, err)
	}

	settings := models.DefaultGuildSettings()
	if err := json.Unmarshal(raw, settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings for guild %d: %w", guildID, err)
	}
	guild.Settings = settings

	return &guild, nil
}

// Upsert inserts or replaces the guild settings document
func (r *GuildRepository) Upsert(ctx context.Context, guild *models.Guild) error {
	raw, err := json.Marshal(guild.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings for guild %d: %w", guild.GuildID, err)
	}

	query := `
		INSERT INTO guilds (guild_id, settings)
		VALUES ($1, $2)
		ON CONFLICT (guild_id)
		DO UPDATE SET settings = EXCLUDED.settings, updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, guild.GuildID, raw); err != nil {
		return fmt.Errorf("failed to upsert guild %d: %w", guild.GuildID, err)
	}

	return nil
}

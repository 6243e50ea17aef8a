package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"krypton/database"
	"krypton/models"
)

// MemberRepository implements the MemberRepository interface
type MemberRepository struct {
	q queryable
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *database.DB) *MemberRepository {
	return &MemberRepository{q: db.Pool}
}

// newMemberRepositoryWithTx creates a new member repository with a transaction
func newMemberRepositoryWithTx(tx queryable) *MemberRepository {
	return &MemberRepository{q: tx}
}

const memberColumns = `
	guild_id, user_id, message_count, wallet, bank, last_daily, last_weekly,
	created_at, updated_at
`

func scanMember(row pgx.Row) (*models.Member, error) {
	var m models.Member
	err := row.Scan(
		&m.GuildID,
		&m.UserID,
		&m.MessageCount,
		&m.Wallet,
		&m.Bank,
		&m.LastDaily,
		&m.LastWeekly,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetOrCreate retrieves a member profile, creating a zeroed row on first sight
func (r *MemberRepository) GetOrCreate(ctx context.Context, guildID, userID int64) (*models.Member, error) {
	query := `
		INSERT INTO members (guild_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (guild_id, user_id) DO UPDATE SET guild_id = EXCLUDED.guild_id
		RETURNING ` + memberColumns

	member, err := scanMember(r.q.QueryRow(ctx, query, guildID, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get or create member %d/%d: %w", guildID, userID, err)
	}

	return member, nil
}

// AddWallet credits the wallet atomically
func (r *MemberRepository) AddWallet(ctx context.Context, guildID, userID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE members
		SET wallet = wallet + $3, updated_at = NOW()
		WHERE guild_id = $1 AND user_id = $2
	`

	result, err := r.q.Exec(ctx, query, guildID, userID, amount)
	if err != nil {
		return fmt.Errorf("failed to add wallet balance for member %d/%d: %w", guildID, userID, err)
	}

	if result.RowsAffected() == 0 {
		return models.NewNotFoundError("member", fmt.Sprintf("%d/%d", guildID, userID))
	}

	return nil
}

// Deposit moves an amount from wallet to bank in a single statement so
// the total balance never transiently changes
func (r *MemberRepository) Deposit(ctx context.Context, guildID, userID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE members
		SET wallet = wallet - $3, bank = bank + $3, updated_at = NOW()
		WHERE guild_id = $1 AND user_id = $2 AND wallet >= $3
	`

	result, err := r.q.Exec(ctx, query, guildID, userID, amount)
	if err != nil {
		return fmt.Errorf("failed to deposit for member %d/%d: %w", guildID, userID, err)
	}

	if result.RowsAffected() == 0 {
		member, err := r.GetOrCreate(ctx, guildID, userID)
		if err != nil {
			return err
		}
		return models.NewInsufficientFundsError(member.Wallet, amount)
	}

	return nil
}

// Withdraw moves an amount from bank to wallet in a single statement
func (r *MemberRepository) Withdraw(ctx context.Context, guildID, userID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE members
		SET wallet = wallet + $3, bank = bank - $3, updated_at = NOW()
		WHERE guild_id = $1 AND user_id = $2 AND bank >= $3
	`

	result, err := r.q.Exec(ctx, query, guildID, userID, amount)
	if err != nil {
		return fmt.Errorf("failed to withdraw for member %d/%d: %w", guildID, userID, err)
	}

	if result.RowsAffected() == 0 {
		member, err := r.GetOrCreate(ctx, guildID, userID)
		if err != nil {
			return err
		}
		return models.NewInsufficientFundsError(member.Bank, amount)
	}

	return nil
}

// ClaimDaily credits the reward and stamps last_daily. The cooldown guard
// is part of the statement so concurrent claims cannot double-pay.
func (r *MemberRepository) ClaimDaily(ctx context.Context, guildID, userID int64, amount int64, now time.Time) (bool, error) {
	query := `
		UPDATE members
		SET wallet = wallet + $3, last_daily = $4, updated_at = NOW()
		WHERE guild_id = $1 AND user_id = $2 AND last_daily <= $4 - INTERVAL '24 hours'
	`

	result, err := r.q.Exec(ctx, query, guildID, userID, amount, now)
	if err != nil {
		return false, fmt.Errorf("failed to claim daily for member %d/%d: %w", guildID, userID, err)
	}

	return result.RowsAffected() > 0, nil
}

// ClaimWeekly credits the reward and stamps last_weekly under the weekly cooldown
func (r *MemberRepository) ClaimWeekly(ctx context.Context, guildID, userID int64, amount int64, now time.Time) (bool, error) {
	query := `
		UPDATE members
		SET wallet = wallet + $3, last_weekly = $4, updated_at = NOW()
		WHERE guild_id = $1 AND user_id = $2 AND last_weekly <= $4 - INTERVAL '7 days'
	`

	result, err := r.q.Exec(ctx, query, guildID, userID, amount, now)
	if err != nil {
		return false, fmt.Errorf("failed to claim weekly for member %d/%d: %w", guildID, userID, err)
	}

	return result.RowsAffected() > 0, nil
}

// IncrementMessageCount bumps the message counter
func (r *MemberRepository) IncrementMessageCount(ctx context.Context, guildID, userID int64) error {
	query := `
		UPDATE members
		SET message_count = message_count + 1, updated_at = NOW()
		WHERE guild_id = $1 AND user_id = $2
	`

	result, err := r.q.Exec(ctx, query, guildID, userID)
	if err != nil {
		return fmt.Errorf("failed to increment message count for member %d/%d: %w", guildID, userID, err)
	}

	if result.RowsAffected() == 0 {
		return models.NewNotFoundError("member", fmt.Sprintf("%d/%d", guildID, userID))
	}

	return nil
}

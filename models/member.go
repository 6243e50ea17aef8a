package models

import (
	"time"
)

// Member is the per-guild economy profile of a user. A row is lazily
// created with zero balances the first time the user is seen.
type Member struct {
	GuildID      int64     `db:"guild_id"`
	UserID       int64     `db:"user_id"`
	MessageCount int64     `db:"message_count"`
	Wallet       int64     `db:"wallet"`
	Bank         int64     `db:"bank"`
	LastDaily    time.Time `db:"last_daily"`
	LastWeekly   time.Time `db:"last_weekly"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Total returns the combined wallet and bank balance
func (m *Member) Total() int64 {
	return m.Wallet + m.Bank
}

// CanClaimDaily reports whether the daily cooldown has elapsed
func (m *Member) CanClaimDaily(now time.Time) bool {
	return now.Sub(m.LastDaily) >= 24*time.Hour
}

// CanClaimWeekly reports whether the weekly cooldown has elapsed
func (m *Member) CanClaimWeekly(now time.Time) bool {
	return now.Sub(m.LastWeekly) >= 7*24*time.Hour
}

// NextDaily returns when the daily reward becomes claimable again
func (m *Member) NextDaily() time.Time {
	return m.LastDaily.Add(24 * time.Hour)
}

// NextWeekly returns when the weekly reward becomes claimable again
func (m *Member) NextWeekly() time.Time {
	return m.LastWeekly.Add(7 * 24 * time.Hour)
}

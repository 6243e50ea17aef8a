package models

import (
	"time"
)

// Giveaway represents a timed giveaway collecting entries and selecting
// winners at expiry
type Giveaway struct {
	GiveawayID  string    `db:"giveaway_id"`
	GuildID     int64     `db:"guild_id"`
	MessageID   int64     `db:"message_id"`
	ChannelID   int64     `db:"channel_id"`
	Prize       string    `db:"prize"`
	Description string    `db:"description"`
	HostedBy    int64     `db:"hosted_by"`
	WinnerCount int       `db:"winner_count"`
	StartDate   time.Time `db:"start_date"`
	EndDate     time.Time `db:"end_date"`
	Ended       bool      `db:"ended"`
	Entries     []int64   `db:"entries"`
	Winners     []int64   `db:"winners"`
}

// IsExpired checks if the giveaway's end date has passed
func (g *Giveaway) IsExpired() bool {
	return time.Now().After(g.EndDate)
}

// CanAcceptEntries checks if the giveaway is still open for entries
func (g *Giveaway) CanAcceptEntries() bool {
	return !g.Ended && !g.IsExpired()
}

// HasEntry checks whether the user already entered the giveaway
func (g *Giveaway) HasEntry(userID int64) bool {
	for _, id := range g.Entries {
		if id == userID {
			return true
		}
	}
	return false
}

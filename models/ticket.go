package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Ticket is one support channel opened from a ticket panel
type Ticket struct {
	ID         uuid.UUID `db:"id"`
	GuildID    int64     `db:"guild_id"`
	ChannelID  int64     `db:"channel_id"`
	UserID     int64     `db:"user_id"`
	CategoryID string    `db:"category_id"`
	Number     int       `db:"number"`
	Open       bool      `db:"open"`
	ClaimedBy  int64     `db:"claimed_by"`

	// ControlMessageID points at the message carrying the current
	// lifecycle buttons, refreshed on open and close
	ControlMessageID int64 `db:"control_message_id"`

	CreatedAt  time.Time `db:"created_at"`
	ClosedAt   time.Time `db:"closed_at"`
}

// ChannelName returns the zero-padded channel name for this ticket
func (t *Ticket) ChannelName() string {
	return fmt.Sprintf("ticket-%04d", t.Number)
}

// IsClaimed reports whether a staff member has claimed the ticket
func (t *Ticket) IsClaimed() bool {
	return t.ClaimedBy != 0
}

package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"krypton/models"
)

// CreateTestGiveaway creates a running giveaway with default values
func CreateTestGiveaway(guildID, messageID int64) *models.Giveaway {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.Giveaway{
		GiveawayID:  uuid.New().String(),
		GuildID:     guildID,
		MessageID:   messageID,
		ChannelID:   messageID + 1,
		Prize:       "Nitro",
		Description: "test giveaway",
		HostedBy:    1,
		WinnerCount: 1,
		StartDate:   now,
		EndDate:     now.Add(time.Hour),
		Entries:     []int64{},
		Winners:     []int64{},
	}
}

// CreateTestTicket creates an open ticket with default values
func CreateTestTicket(guildID, channelID int64, number int) *models.Ticket {
	return &models.Ticket{
		ID:         uuid.New(),
		GuildID:    guildID,
		ChannelID:  channelID,
		UserID:     200,
		CategoryID: fmt.Sprintf("cat-%d", number),
		Number:     number,
		Open:       true,
	}
}

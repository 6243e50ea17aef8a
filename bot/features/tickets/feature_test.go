package tickets

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"krypton/events"
	"krypton/models"
	"krypton/service"
)

func settingsServiceWithGuild(guild *models.Guild) service.GuildSettingsService {
	uow := service.NewStubUnitOfWork()
	uow.Guilds.On("Get", context.Background(), guild.GuildID).Return(guild, nil)
	return service.NewGuildSettingsService(&service.StubUnitOfWorkFactory{UOW: uow})
}

func TestHandleOpened_NoLogChannelConfigured(t *testing.T) {
	guild := &models.Guild{GuildID: 100, Settings: models.DefaultGuildSettings()}
	// Session stays nil: with no log channel the handler must return
	// before touching Discord.
	feature := NewFeature(nil, nil, settingsServiceWithGuild(guild), nil, nil)

	ticket := &models.Ticket{ID: uuid.New(), GuildID: 100, ChannelID: 42, UserID: 200, Number: 3, Open: true}

	assert.NotPanics(t, func() {
		feature.HandleOpened(context.Background(), events.TicketOpenedEvent{Ticket: ticket, Category: "Support"})
	})
}

func TestTicketOverwrites(t *testing.T) {
	overwrites := ticketOverwrites("100", "200", []string{"300", "301"})

	assert.Len(t, overwrites, 4)
	assert.Equal(t, "100", overwrites[0].ID, "everyone role is denied first")
	assert.NotZero(t, overwrites[0].Deny)
	assert.Equal(t, "200", overwrites[1].ID)
	assert.NotZero(t, overwrites[1].Allow)
	assert.Equal(t, "300", overwrites[2].ID)
	assert.Equal(t, "301", overwrites[3].ID)
}

package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"krypton/events"
	"krypton/models"
)

func newTicketServiceWithStub() (TicketService, *StubUnitOfWork) {
	uow := NewStubUnitOfWork()
	svc := NewTicketService(&StubUnitOfWorkFactory{UOW: uow})
	return svc, uow
}

func guildWithTickets(maxPerUser int) *models.Guild {
	settings := models.DefaultGuildSettings()
	settings.Tickets.Enabled = true
	settings.Tickets.MaxTicketsPerUser = maxPerUser
	settings.TicketCategories = []models.TicketCategory{
		{ID: "cat-1", Name: "Support", CategoryID: "9000", ButtonStyle: models.ButtonStylePrimary},
	}
	return &models.Guild{GuildID: 100, Settings: settings}
}

func TestTicketService_Open(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, uow := newTicketServiceWithStub()
		uow.Guilds.On("Get", ctx, int64(100)).Return(guildWithTickets(1), nil)
		uow.Tickets.On("CountOpenByUser", ctx, int64(100), int64(200)).Return(0, nil)
		uow.Tickets.On("NextNumber", ctx, int64(100)).Return(7, nil)
		uow.Tickets.On("Create", ctx, mock.AnythingOfType("*models.Ticket")).Return(nil)

		ticket, err := svc.Open(ctx, 100, 200, 42, "cat-1")
		require.NoError(t, err)

		assert.Equal(t, 7, ticket.Number)
		assert.Equal(t, "ticket-0007", ticket.ChannelName())
		assert.True(t, ticket.Open)
		assert.False(t, ticket.IsClaimed())

		require.Len(t, uow.Bus.Events, 1)
		opened := uow.Bus.Events[0].(events.TicketOpenedEvent)
		assert.Equal(t, "Support", opened.Category)
	})

	t.Run("quota exceeded", func(t *testing.T) {
		svc, uow := newTicketServiceWithStub()
		uow.Guilds.On("Get", ctx, int64(100)).Return(guildWithTickets(1), nil)
		uow.Tickets.On("CountOpenByUser", ctx, int64(100), int64(200)).Return(1, nil)

		_, err := svc.Open(ctx, 100, 200, 42, "cat-1")
		assert.True(t, models.IsValidation(err))
		assert.Contains(t, err.Error(), "limit is 1")
	})

	t.Run("system disabled", func(t *testing.T) {
		svc, uow := newTicketServiceWithStub()
		guild := guildWithTickets(1)
		guild.Settings.Tickets.Enabled = false
		uow.Guilds.On("Get", ctx, int64(100)).Return(guild, nil)

		_, err := svc.Open(ctx, 100, 200, 42, "cat-1")
		assert.True(t, models.IsValidation(err))
	})

	t.Run("unknown category", func(t *testing.T) {
		svc, uow := newTicketServiceWithStub()
		uow.Guilds.On("Get", ctx, int64(100)).Return(guildWithTickets(1), nil)

		_, err := svc.Open(ctx, 100, 200, 42, "missing")
		assert.True(t, models.IsNotFound(err))
	})
}

func TestTicketService_Claim(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, uow := newTicketServiceWithStub()
		ticket := &models.Ticket{ID: uuid.New(), GuildID: 100, ChannelID: 42, UserID: 200, Open: true}

		uow.Tickets.On("GetByChannelID", ctx, int64(42)).Return(ticket, nil)
		uow.Tickets.On("Claim", ctx, ticket.ID.String(), int64(300)).Return(nil)

		claimed, err := svc.Claim(ctx, 42, 300)
		require.NoError(t, err)
		assert.Equal(t, int64(300), claimed.ClaimedBy)
	})

	t.Run("already claimed", func(t *testing.T) {
		svc, uow := newTicketServiceWithStub()
		ticket := &models.Ticket{ID: uuid.New(), ChannelID: 42, Open: true, ClaimedBy: 999}

		uow.Tickets.On("GetByChannelID", ctx, int64(42)).Return(ticket, nil)

		_, err := svc.Claim(ctx, 42, 300)
		assert.True(t, models.IsValidation(err))
	})
}

func TestTicketService_RecordControlMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, uow := newTicketServiceWithStub()
		id := uuid.New().String()

		uow.Tickets.On("SetControlMessage", ctx, id, int64(555)).Return(nil)

		require.NoError(t, svc.RecordControlMessage(ctx, id, 555))
		uow.Tickets.AssertExpectations(t)
	})

	t.Run("unknown ticket", func(t *testing.T) {
		svc, uow := newTicketServiceWithStub()
		id := uuid.New().String()

		uow.Tickets.On("SetControlMessage", ctx, id, int64(555)).
			Return(models.NewNotFoundError("ticket", id))

		err := svc.RecordControlMessage(ctx, id, 555)
		assert.True(t, models.IsNotFound(err))
	})
}

func TestTicketService_CloseAndReopen(t *testing.T) {
	ctx := context.Background()

	t.Run("close emits event", func(t *testing.T) {
		svc, uow := newTicketServiceWithStub()
		ticket := &models.Ticket{ID: uuid.New(), GuildID: 100, ChannelID: 42, UserID: 200, Open: true}

		uow.Tickets.On("GetByChannelID", ctx, int64(42)).Return(ticket, nil)
		uow.Tickets.On("SetOpen", ctx, ticket.ID.String(), false).Return(nil)

		closed, err := svc.Close(ctx, 42, 300)
		require.NoError(t, err)
		assert.False(t, closed.Open)

		require.Len(t, uow.Bus.Events, 1)
		event := uow.Bus.Events[0].(events.TicketClosedEvent)
		assert.Equal(t, int64(300), event.ClosedBy)
	})

	t.Run("close already closed", func(t *testing.T) {
		svc, uow := newTicketServiceWithStub()
		ticket := &models.Ticket{ID: uuid.New(), ChannelID: 42, Open: false}

		uow.Tickets.On("GetByChannelID", ctx, int64(42)).Return(ticket, nil)

		_, err := svc.Close(ctx, 42, 300)
		assert.True(t, models.IsValidation(err))
	})

	t.Run("reopen", func(t *testing.T) {
		svc, uow := newTicketServiceWithStub()
		ticket := &models.Ticket{ID: uuid.New(), ChannelID: 42, Open: false}

		uow.Tickets.On("GetByChannelID", ctx, int64(42)).Return(ticket, nil)
		uow.Tickets.On("SetOpen", ctx, ticket.ID.String(), true).Return(nil)

		reopened, err := svc.Reopen(ctx, 42)
		require.NoError(t, err)
		assert.True(t, reopened.Open)
	})

	t.Run("unknown channel", func(t *testing.T) {
		svc, uow := newTicketServiceWithStub()
		uow.Tickets.On("GetByChannelID", ctx, int64(42)).Return(nil, nil)

		_, err := svc.Close(ctx, 42, 300)
		assert.True(t, models.IsNotFound(err))
	})
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"krypton/models"
)

func newSettingsServiceWithStub() (GuildSettingsService, *StubUnitOfWork) {
	uow := NewStubUnitOfWork()
	svc := NewGuildSettingsService(&StubUnitOfWorkFactory{UOW: uow})
	return svc, uow
}

func TestGuildSettingsService_GetOrCreateSettings(t *testing.T) {
	ctx := context.Background()

	t.Run("creates defaults on first sight", func(t *testing.T) {
		svc, uow := newSettingsServiceWithStub()
		uow.Guilds.On("Get", ctx, int64(100)).Return(nil, nil)
		uow.Guilds.On("Upsert", ctx, mock.AnythingOfType("*models.Guild")).Return(nil)

		settings, err := svc.GetOrCreateSettings(ctx, 100)
		require.NoError(t, err)

		assert.Equal(t, 1, settings.Tickets.MaxTicketsPerUser)
		assert.Equal(t, int64(100), settings.Economy.DailyReward)
		uow.Guilds.AssertExpectations(t)
	})

	t.Run("returns stored settings", func(t *testing.T) {
		svc, uow := newSettingsServiceWithStub()
		stored := models.DefaultGuildSettings()
		stored.Tickets.MaxTicketsPerUser = 3
		uow.Guilds.On("Get", ctx, int64(100)).Return(&models.Guild{GuildID: 100, Settings: stored}, nil)

		settings, err := svc.GetOrCreateSettings(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, 3, settings.Tickets.MaxTicketsPerUser)
		uow.Guilds.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})
}

func TestGuildSettingsService_UpdateSetting(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip preserves siblings", func(t *testing.T) {
		svc, uow := newSettingsServiceWithStub()
		stored := models.DefaultGuildSettings()
		stored.Tickets.TranscriptChannel = "12345"
		uow.Guilds.On("Get", ctx, int64(100)).Return(&models.Guild{GuildID: 100, Settings: stored}, nil)
		uow.Guilds.On("Upsert", ctx, mock.AnythingOfType("*models.Guild")).Return(nil)

		settings, err := svc.UpdateSetting(ctx, 100, "ticketSettings.maxTicketsPerUser", 5)
		require.NoError(t, err)

		value, ok := settings.ValueByPath("ticketSettings.maxTicketsPerUser")
		require.True(t, ok)
		assert.Equal(t, 5, value)

		// Sibling leaf untouched
		assert.Equal(t, "12345", settings.Tickets.TranscriptChannel)
		// Unrelated groups untouched
		assert.Equal(t, int64(100), settings.Economy.DailyReward)
	})

	t.Run("unknown path", func(t *testing.T) {
		svc, uow := newSettingsServiceWithStub()
		uow.Guilds.On("Get", ctx, int64(100)).Return(&models.Guild{GuildID: 100, Settings: models.DefaultGuildSettings()}, nil)

		_, err := svc.UpdateSetting(ctx, 100, "no.such.key", true)
		assert.True(t, models.IsValidation(err))
		uow.Guilds.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("wrong value type", func(t *testing.T) {
		svc, uow := newSettingsServiceWithStub()
		uow.Guilds.On("Get", ctx, int64(100)).Return(&models.Guild{GuildID: 100, Settings: models.DefaultGuildSettings()}, nil)

		_, err := svc.UpdateSetting(ctx, 100, "welcomeSettings.enabled", "not a bool")
		assert.True(t, models.IsValidation(err))
	})
}

func TestGuildSettingsService_UpdateSettings_NilRejected(t *testing.T) {
	svc, _ := newSettingsServiceWithStub()
	err := svc.UpdateSettings(context.Background(), 100, nil)
	assert.True(t, models.IsValidation(err))
}

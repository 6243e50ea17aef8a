package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krypton/models"
	"krypton/repository/testutil"
)

func TestTicketRepository_ControlMessage(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewTicketRepository(testDB.DB)
	ctx := context.Background()

	t.Run("recorded id survives a round trip", func(t *testing.T) {
		ticket := testutil.CreateTestTicket(100, 5000, 1)
		require.NoError(t, repo.Create(ctx, ticket))

		require.NoError(t, repo.SetControlMessage(ctx, ticket.ID.String(), 7777))

		stored, err := repo.GetByChannelID(ctx, 5000)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, int64(7777), stored.ControlMessageID)
	})

	t.Run("unknown ticket", func(t *testing.T) {
		err := repo.SetControlMessage(ctx, "00000000-0000-0000-0000-000000000000", 7777)
		assert.True(t, models.IsNotFound(err))
	})
}

func TestTicketRepository_NextNumber(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewTicketRepository(testDB.DB)
	ctx := context.Background()

	t.Run("starts at one", func(t *testing.T) {
		number, err := repo.NextNumber(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, 1, number)
	})

	t.Run("numbers are per guild", func(t *testing.T) {
		ticket := testutil.CreateTestTicket(100, 5001, 1)
		require.NoError(t, repo.Create(ctx, ticket))

		number, err := repo.NextNumber(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, 2, number)

		number, err = repo.NextNumber(ctx, 101)
		require.NoError(t, err)
		assert.Equal(t, 1, number)
	})
}

package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krypton/repository/testutil"
)

func TestGiveawayRepository_AddEntry(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewGiveawayRepository(testDB.DB)
	ctx := context.Background()

	t.Run("first entry is recorded", func(t *testing.T) {
		giveaway := testutil.CreateTestGiveaway(100, 1000)
		require.NoError(t, repo.Create(ctx, giveaway))

		added, err := repo.AddEntry(ctx, giveaway.GiveawayID, 200)
		require.NoError(t, err)
		assert.True(t, added)

		stored, err := repo.GetByID(ctx, giveaway.GiveawayID)
		require.NoError(t, err)
		assert.Equal(t, []int64{200}, stored.Entries)
	})

	t.Run("duplicate entry changes nothing", func(t *testing.T) {
		giveaway := testutil.CreateTestGiveaway(100, 1001)
		require.NoError(t, repo.Create(ctx, giveaway))

		added, err := repo.AddEntry(ctx, giveaway.GiveawayID, 200)
		require.NoError(t, err)
		require.True(t, added)

		added, err = repo.AddEntry(ctx, giveaway.GiveawayID, 200)
		require.NoError(t, err)
		assert.False(t, added)

		stored, err := repo.GetByID(ctx, giveaway.GiveawayID)
		require.NoError(t, err)
		assert.Equal(t, []int64{200}, stored.Entries, "entry must not be duplicated")
	})

	t.Run("concurrent entries record each user once", func(t *testing.T) {
		giveaway := testutil.CreateTestGiveaway(100, 1002)
		require.NoError(t, repo.Create(ctx, giveaway))

		const attempts = 8
		results := make(chan bool, attempts)
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				added, err := repo.AddEntry(ctx, giveaway.GiveawayID, 300)
				assert.NoError(t, err)
				results <- added
			}()
		}
		wg.Wait()
		close(results)

		var wins int
		for added := range results {
			if added {
				wins++
			}
		}
		assert.Equal(t, 1, wins, "exactly one concurrent attempt may append the entry")

		stored, err := repo.GetByID(ctx, giveaway.GiveawayID)
		require.NoError(t, err)
		assert.Equal(t, []int64{300}, stored.Entries)
	})

	t.Run("ended giveaway rejects entries", func(t *testing.T) {
		giveaway := testutil.CreateTestGiveaway(100, 1003)
		require.NoError(t, repo.Create(ctx, giveaway))

		won, err := repo.Finalize(ctx, giveaway.GiveawayID, []int64{})
		require.NoError(t, err)
		require.True(t, won)

		added, err := repo.AddEntry(ctx, giveaway.GiveawayID, 200)
		require.NoError(t, err)
		assert.False(t, added)

		stored, err := repo.GetByID(ctx, giveaway.GiveawayID)
		require.NoError(t, err)
		assert.Empty(t, stored.Entries)
	})
}

func TestGiveawayRepository_RemoveEntry(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewGiveawayRepository(testDB.DB)
	ctx := context.Background()

	t.Run("withdraws an existing entry", func(t *testing.T) {
		giveaway := testutil.CreateTestGiveaway(100, 2000)
		require.NoError(t, repo.Create(ctx, giveaway))

		_, err := repo.AddEntry(ctx, giveaway.GiveawayID, 200)
		require.NoError(t, err)

		removed, err := repo.RemoveEntry(ctx, giveaway.GiveawayID, 200)
		require.NoError(t, err)
		assert.True(t, removed)

		stored, err := repo.GetByID(ctx, giveaway.GiveawayID)
		require.NoError(t, err)
		assert.Empty(t, stored.Entries)
	})

	t.Run("absent entry changes nothing", func(t *testing.T) {
		giveaway := testutil.CreateTestGiveaway(100, 2001)
		require.NoError(t, repo.Create(ctx, giveaway))

		removed, err := repo.RemoveEntry(ctx, giveaway.GiveawayID, 999)
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("ended giveaway keeps its entries", func(t *testing.T) {
		giveaway := testutil.CreateTestGiveaway(100, 2002)
		require.NoError(t, repo.Create(ctx, giveaway))

		_, err := repo.AddEntry(ctx, giveaway.GiveawayID, 200)
		require.NoError(t, err)

		won, err := repo.Finalize(ctx, giveaway.GiveawayID, []int64{200})
		require.NoError(t, err)
		require.True(t, won)

		removed, err := repo.RemoveEntry(ctx, giveaway.GiveawayID, 200)
		require.NoError(t, err)
		assert.False(t, removed)

		stored, err := repo.GetByID(ctx, giveaway.GiveawayID)
		require.NoError(t, err)
		assert.Equal(t, []int64{200}, stored.Entries)
	})
}

func TestGiveawayRepository_Finalize(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewGiveawayRepository(testDB.DB)
	ctx := context.Background()

	t.Run("records winners and ends the giveaway", func(t *testing.T) {
		giveaway := testutil.CreateTestGiveaway(100, 3000)
		require.NoError(t, repo.Create(ctx, giveaway))

		_, err := repo.AddEntry(ctx, giveaway.GiveawayID, 200)
		require.NoError(t, err)

		won, err := repo.Finalize(ctx, giveaway.GiveawayID, []int64{200})
		require.NoError(t, err)
		assert.True(t, won)

		stored, err := repo.GetByID(ctx, giveaway.GiveawayID)
		require.NoError(t, err)
		assert.True(t, stored.Ended)
		assert.Equal(t, []int64{200}, stored.Winners)
	})

	t.Run("second finalization loses the transition", func(t *testing.T) {
		giveaway := testutil.CreateTestGiveaway(100, 3001)
		require.NoError(t, repo.Create(ctx, giveaway))

		won, err := repo.Finalize(ctx, giveaway.GiveawayID, []int64{200})
		require.NoError(t, err)
		require.True(t, won)

		won, err = repo.Finalize(ctx, giveaway.GiveawayID, []int64{999})
		require.NoError(t, err)
		assert.False(t, won)

		stored, err := repo.GetByID(ctx, giveaway.GiveawayID)
		require.NoError(t, err)
		assert.Equal(t, []int64{200}, stored.Winners, "losing sweep must not overwrite winners")
	})

	t.Run("concurrent sweeps produce one winner transition", func(t *testing.T) {
		giveaway := testutil.CreateTestGiveaway(100, 3002)
		require.NoError(t, repo.Create(ctx, giveaway))

		const sweeps = 4
		results := make(chan bool, sweeps)
		var wg sync.WaitGroup
		for i := 0; i < sweeps; i++ {
			wg.Add(1)
			go func(winner int64) {
				defer wg.Done()
				won, err := repo.Finalize(ctx, giveaway.GiveawayID, []int64{winner})
				assert.NoError(t, err)
				results <- won
			}(int64(400 + i))
		}
		wg.Wait()
		close(results)

		var wins int
		for won := range results {
			if won {
				wins++
			}
		}
		assert.Equal(t, 1, wins)
	})
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"krypton/events"
	"krypton/models"
)

func newGiveawayServiceWithStub() (GiveawayService, *StubUnitOfWork) {
	uow := NewStubUnitOfWork()
	svc := NewGiveawayService(&StubUnitOfWorkFactory{UOW: uow})
	return svc, uow
}

func activeGiveaway(entries ...int64) *models.Giveaway {
	if entries == nil {
		entries = []int64{}
	}
	return &models.Giveaway{
		GiveawayID:  "g-1",
		GuildID:     100,
		MessageID:   555,
		ChannelID:   42,
		Prize:       "Nitro",
		HostedBy:    1,
		WinnerCount: 1,
		StartDate:   time.Now().Add(-time.Hour),
		EndDate:     time.Now().Add(time.Hour),
		Entries:     entries,
		Winners:     []int64{},
	}
}

func TestGiveawayService_Create_Validation(t *testing.T) {
	svc, _ := newGiveawayServiceWithStub()
	ctx := context.Background()

	tests := []struct {
		name     string
		giveaway *models.Giveaway
	}{
		{
			name:     "empty prize",
			giveaway: &models.Giveaway{Prize: "  ", WinnerCount: 1, EndDate: time.Now().Add(time.Hour)},
		},
		{
			name:     "zero winners",
			giveaway: &models.Giveaway{Prize: "Nitro", WinnerCount: 0, EndDate: time.Now().Add(time.Hour)},
		},
		{
			name:     "too many winners",
			giveaway: &models.Giveaway{Prize: "Nitro", WinnerCount: MaxWinnerCount + 1, EndDate: time.Now().Add(time.Hour)},
		},
		{
			name:     "end date in the past",
			giveaway: &models.Giveaway{Prize: "Nitro", WinnerCount: 1, EndDate: time.Now().Add(-time.Minute)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.giveaway)
			assert.True(t, models.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestGiveawayService_Create_Success(t *testing.T) {
	svc, uow := newGiveawayServiceWithStub()
	ctx := context.Background()

	uow.Giveaways.On("Create", ctx, mock.AnythingOfType("*models.Giveaway")).Return(nil)

	created, err := svc.Create(ctx, &models.Giveaway{
		GuildID:     100,
		Prize:       "Nitro",
		WinnerCount: 2,
		EndDate:     time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.GiveawayID)
	assert.False(t, created.StartDate.IsZero())
	assert.NotNil(t, created.Entries)
	assert.False(t, created.Ended)
	uow.Giveaways.AssertExpectations(t)
}

func TestGiveawayService_RegisterEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, uow := newGiveawayServiceWithStub()
		g := activeGiveaway()
		updated := activeGiveaway(200)

		uow.Giveaways.On("GetByMessageID", ctx, int64(555)).Return(g, nil)
		uow.Giveaways.On("AddEntry", ctx, "g-1", int64(200)).Return(true, nil)
		uow.Giveaways.On("GetByID", ctx, "g-1").Return(updated, nil)

		result, err := svc.RegisterEntry(ctx, 555, 200)
		require.NoError(t, err)
		assert.Equal(t, []int64{200}, result.Entries)
	})

	t.Run("duplicate entry rejected", func(t *testing.T) {
		svc, uow := newGiveawayServiceWithStub()
		g := activeGiveaway(200)

		uow.Giveaways.On("GetByMessageID", ctx, int64(555)).Return(g, nil)
		uow.Giveaways.On("AddEntry", ctx, "g-1", int64(200)).Return(false, nil)

		_, err := svc.RegisterEntry(ctx, 555, 200)
		assert.True(t, models.IsValidation(err))
		assert.Contains(t, err.Error(), "already entered")
	})

	t.Run("ended giveaway rejected", func(t *testing.T) {
		svc, uow := newGiveawayServiceWithStub()
		g := activeGiveaway()
		g.Ended = true

		uow.Giveaways.On("GetByMessageID", ctx, int64(555)).Return(g, nil)
		uow.Giveaways.On("AddEntry", ctx, "g-1", int64(200)).Return(false, nil)

		_, err := svc.RegisterEntry(ctx, 555, 200)
		assert.True(t, models.IsValidation(err))
		assert.Contains(t, err.Error(), "ended")
	})

	t.Run("lost race against sweep", func(t *testing.T) {
		// Snapshot says running with no entry, but the conditional update
		// matched nothing: the sweep ended it in between.
		svc, uow := newGiveawayServiceWithStub()
		g := activeGiveaway()

		uow.Giveaways.On("GetByMessageID", ctx, int64(555)).Return(g, nil)
		uow.Giveaways.On("AddEntry", ctx, "g-1", int64(200)).Return(false, nil)

		_, err := svc.RegisterEntry(ctx, 555, 200)
		assert.True(t, models.IsValidation(err))
	})

	t.Run("unknown message", func(t *testing.T) {
		svc, uow := newGiveawayServiceWithStub()
		uow.Giveaways.On("GetByMessageID", ctx, int64(999)).Return(nil, nil)

		_, err := svc.RegisterEntry(ctx, 999, 200)
		assert.True(t, models.IsNotFound(err))
	})
}

func TestGiveawayService_UnregisterEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("not entered", func(t *testing.T) {
		svc, uow := newGiveawayServiceWithStub()
		g := activeGiveaway()

		uow.Giveaways.On("GetByMessageID", ctx, int64(555)).Return(g, nil)
		uow.Giveaways.On("RemoveEntry", ctx, "g-1", int64(200)).Return(false, nil)

		_, err := svc.UnregisterEntry(ctx, 555, 200)
		assert.True(t, models.IsValidation(err))
		assert.Contains(t, err.Error(), "not entered")
	})

	t.Run("success", func(t *testing.T) {
		svc, uow := newGiveawayServiceWithStub()
		g := activeGiveaway(200)
		updated := activeGiveaway()

		uow.Giveaways.On("GetByMessageID", ctx, int64(555)).Return(g, nil)
		uow.Giveaways.On("RemoveEntry", ctx, "g-1", int64(200)).Return(true, nil)
		uow.Giveaways.On("GetByID", ctx, "g-1").Return(updated, nil)

		result, err := svc.UnregisterEntry(ctx, 555, 200)
		require.NoError(t, err)
		assert.Empty(t, result.Entries)
	})
}

func TestGiveawayService_FinalizeExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("winners drawn from entries", func(t *testing.T) {
		svc, uow := newGiveawayServiceWithStub()
		g := activeGiveaway(10, 20, 30)
		g.WinnerCount = 2

		uow.Giveaways.On("GetExpired", ctx, mock.AnythingOfType("time.Time")).Return([]*models.Giveaway{g}, nil)
		uow.Giveaways.On("GetByID", ctx, "g-1").Return(g, nil)

		var drawn []int64
		uow.Giveaways.On("Finalize", ctx, "g-1", mock.AnythingOfType("[]int64")).
			Run(func(args mock.Arguments) {
				drawn = args.Get(2).([]int64)
			}).
			Return(true, nil)

		require.NoError(t, svc.FinalizeExpired(ctx))

		require.Len(t, drawn, 2)
		entrySet := map[int64]bool{10: true, 20: true, 30: true}
		seen := map[int64]bool{}
		for _, w := range drawn {
			assert.True(t, entrySet[w], "winner %d is not an entrant", w)
			assert.False(t, seen[w], "winner %d picked twice", w)
			seen[w] = true
		}

		require.Len(t, uow.Bus.Events, 1)
		completed, ok := uow.Bus.Events[0].(events.GiveawayCompletedEvent)
		require.True(t, ok)
		assert.Equal(t, drawn, completed.Winners)
		assert.True(t, completed.Giveaway.Ended)
	})

	t.Run("no entries means no winners", func(t *testing.T) {
		svc, uow := newGiveawayServiceWithStub()
		g := activeGiveaway()

		uow.Giveaways.On("GetExpired", ctx, mock.AnythingOfType("time.Time")).Return([]*models.Giveaway{g}, nil)
		uow.Giveaways.On("GetByID", ctx, "g-1").Return(g, nil)
		uow.Giveaways.On("Finalize", ctx, "g-1", []int64{}).Return(true, nil)

		require.NoError(t, svc.FinalizeExpired(ctx))

		require.Len(t, uow.Bus.Events, 1)
		completed := uow.Bus.Events[0].(events.GiveawayCompletedEvent)
		assert.Empty(t, completed.Winners)
	})

	t.Run("already finalized elsewhere emits nothing", func(t *testing.T) {
		svc, uow := newGiveawayServiceWithStub()
		g := activeGiveaway(10)

		uow.Giveaways.On("GetExpired", ctx, mock.AnythingOfType("time.Time")).Return([]*models.Giveaway{g}, nil)
		uow.Giveaways.On("GetByID", ctx, "g-1").Return(g, nil)
		uow.Giveaways.On("Finalize", ctx, "g-1", mock.AnythingOfType("[]int64")).Return(false, nil)

		require.NoError(t, svc.FinalizeExpired(ctx))
		assert.Empty(t, uow.Bus.Events)
	})

	t.Run("one failure does not block the rest", func(t *testing.T) {
		svc, uow := newGiveawayServiceWithStub()
		bad := activeGiveaway(10)
		good := activeGiveaway(20)
		good.GiveawayID = "g-2"

		uow.Giveaways.On("GetExpired", ctx, mock.AnythingOfType("time.Time")).Return([]*models.Giveaway{bad, good}, nil)
		uow.Giveaways.On("GetByID", ctx, "g-1").Return(nil, errors.New("connection reset"))
		uow.Giveaways.On("GetByID", ctx, "g-2").Return(good, nil)
		uow.Giveaways.On("Finalize", ctx, "g-2", mock.AnythingOfType("[]int64")).Return(true, nil)

		require.NoError(t, svc.FinalizeExpired(ctx))

		require.Len(t, uow.Bus.Events, 1)
		completed := uow.Bus.Events[0].(events.GiveawayCompletedEvent)
		assert.Equal(t, "g-2", completed.Giveaway.GiveawayID)
	})
}

func TestGiveawayService_Reroll_RunningGiveaway(t *testing.T) {
	svc, uow := newGiveawayServiceWithStub()
	ctx := context.Background()
	g := activeGiveaway(10, 20)

	uow.Giveaways.On("GetByMessageID", ctx, int64(555)).Return(g, nil)

	_, err := svc.Reroll(ctx, 555)
	assert.True(t, models.IsValidation(err))
}

func TestSampleWinners(t *testing.T) {
	t.Run("empty pool", func(t *testing.T) {
		winners, err := sampleWinners(nil, 3)
		require.NoError(t, err)
		assert.Empty(t, winners)
	})

	t.Run("fewer entries than winners", func(t *testing.T) {
		winners, err := sampleWinners([]int64{1, 2}, 5)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{1, 2}, winners)
	})

	t.Run("winners are distinct entrants", func(t *testing.T) {
		entries := []int64{1, 2, 3, 4, 5, 6, 7, 8}
		for i := 0; i < 50; i++ {
			winners, err := sampleWinners(entries, 3)
			require.NoError(t, err)
			require.Len(t, winners, 3)

			seen := map[int64]bool{}
			for _, w := range winners {
				assert.Contains(t, entries, w)
				assert.False(t, seen[w])
				seen[w] = true
			}
		}
	})

	t.Run("input slice is not mutated", func(t *testing.T) {
		entries := []int64{1, 2, 3, 4}
		_, err := sampleWinners(entries, 2)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3, 4}, entries)
	})
}

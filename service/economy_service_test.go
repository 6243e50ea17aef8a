package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"krypton/events"
	"krypton/models"
)

func newEconomyServiceWithStub() (EconomyService, *StubUnitOfWork) {
	uow := NewStubUnitOfWork()
	svc := NewEconomyService(&StubUnitOfWorkFactory{UOW: uow})
	return svc, uow
}

func guildWithEconomy() *models.Guild {
	settings := models.DefaultGuildSettings()
	return &models.Guild{GuildID: 100, Settings: settings}
}

func memberWith(wallet, bank int64) *models.Member {
	return &models.Member{GuildID: 100, UserID: 200, Wallet: wallet, Bank: bank}
}

func TestEconomyService_ClaimDaily(t *testing.T) {
	ctx := context.Background()

	t.Run("pays configured reward", func(t *testing.T) {
		svc, uow := newEconomyServiceWithStub()
		uow.Guilds.On("Get", ctx, int64(100)).Return(guildWithEconomy(), nil)
		uow.Members.On("GetOrCreate", ctx, int64(100), int64(200)).Return(memberWith(50, 0), nil)
		uow.Members.On("ClaimDaily", ctx, int64(100), int64(200), int64(100), mock.AnythingOfType("time.Time")).Return(true, nil)

		amount, err := svc.ClaimDaily(ctx, 100, 200)
		require.NoError(t, err)
		assert.Equal(t, int64(100), amount)

		require.Len(t, uow.Bus.Events, 1)
		change := uow.Bus.Events[0].(events.BalanceChangeEvent)
		assert.Equal(t, "daily", change.Reason)
		assert.Equal(t, int64(150), change.NewWallet)
	})

	t.Run("cooldown not elapsed", func(t *testing.T) {
		svc, uow := newEconomyServiceWithStub()
		member := memberWith(50, 0)
		member.LastDaily = time.Now().Add(-time.Hour)

		uow.Guilds.On("Get", ctx, int64(100)).Return(guildWithEconomy(), nil)
		uow.Members.On("GetOrCreate", ctx, int64(100), int64(200)).Return(member, nil)
		uow.Members.On("ClaimDaily", ctx, int64(100), int64(200), int64(100), mock.AnythingOfType("time.Time")).Return(false, nil)

		_, err := svc.ClaimDaily(ctx, 100, 200)
		assert.True(t, models.IsValidation(err))
		assert.Empty(t, uow.Bus.Events)
	})
}

func TestEconomyService_Work_WithinConfiguredRange(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		svc, uow := newEconomyServiceWithStub()
		uow.Guilds.On("Get", ctx, int64(100)).Return(guildWithEconomy(), nil)
		uow.Members.On("GetOrCreate", ctx, int64(100), int64(200)).Return(memberWith(0, 0), nil)

		var paid int64
		uow.Members.On("AddWallet", ctx, int64(100), int64(200), mock.AnythingOfType("int64")).
			Run(func(args mock.Arguments) {
				paid = args.Get(3).(int64)
			}).
			Return(nil)

		amount, err := svc.Work(ctx, 100, 200)
		require.NoError(t, err)
		assert.Equal(t, paid, amount)
		assert.GreaterOrEqual(t, amount, int64(10))
		assert.LessOrEqual(t, amount, int64(100))
	}
}

func TestEconomyService_Deposit(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit amount", func(t *testing.T) {
		svc, uow := newEconomyServiceWithStub()
		uow.Members.On("GetOrCreate", ctx, int64(100), int64(200)).Return(memberWith(500, 0), nil).Once()
		uow.Members.On("Deposit", ctx, int64(100), int64(200), int64(300)).Return(nil)
		uow.Members.On("GetOrCreate", ctx, int64(100), int64(200)).Return(memberWith(200, 300), nil).Once()

		member, err := svc.Deposit(ctx, 100, 200, 300)
		require.NoError(t, err)
		assert.Equal(t, int64(200), member.Wallet)
		assert.Equal(t, int64(300), member.Bank)

		require.Len(t, uow.Bus.Events, 1)
		change := uow.Bus.Events[0].(events.BalanceChangeEvent)
		assert.Equal(t, "deposit", change.Reason)
	})

	t.Run("zero amount means everything", func(t *testing.T) {
		svc, uow := newEconomyServiceWithStub()
		uow.Members.On("GetOrCreate", ctx, int64(100), int64(200)).Return(memberWith(500, 0), nil).Once()
		uow.Members.On("Deposit", ctx, int64(100), int64(200), int64(500)).Return(nil)
		uow.Members.On("GetOrCreate", ctx, int64(100), int64(200)).Return(memberWith(0, 500), nil).Once()

		member, err := svc.Deposit(ctx, 100, 200, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(0), member.Wallet)
		assert.Equal(t, int64(500), member.Bank)
	})

	t.Run("empty wallet", func(t *testing.T) {
		svc, uow := newEconomyServiceWithStub()
		uow.Members.On("GetOrCreate", ctx, int64(100), int64(200)).Return(memberWith(0, 100), nil)

		_, err := svc.Deposit(ctx, 100, 200, 0)
		assert.True(t, models.IsValidation(err))
	})

	t.Run("insufficient funds", func(t *testing.T) {
		svc, uow := newEconomyServiceWithStub()
		uow.Members.On("GetOrCreate", ctx, int64(100), int64(200)).Return(memberWith(100, 0), nil)
		uow.Members.On("Deposit", ctx, int64(100), int64(200), int64(300)).
			Return(models.NewInsufficientFundsError(100, 300))

		_, err := svc.Deposit(ctx, 100, 200, 300)
		assert.True(t, models.IsInsufficientFunds(err))
		assert.Empty(t, uow.Bus.Events)
	})
}

func TestEconomyService_Withdraw_AllFromBank(t *testing.T) {
	ctx := context.Background()
	svc, uow := newEconomyServiceWithStub()

	uow.Members.On("GetOrCreate", ctx, int64(100), int64(200)).Return(memberWith(0, 400), nil).Once()
	uow.Members.On("Withdraw", ctx, int64(100), int64(200), int64(400)).Return(nil)
	uow.Members.On("GetOrCreate", ctx, int64(100), int64(200)).Return(memberWith(400, 0), nil).Once()

	member, err := svc.Withdraw(ctx, 100, 200, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(400), member.Wallet)
	assert.Equal(t, int64(0), member.Bank)
}

func TestEconomyService_RecordMessage(t *testing.T) {
	ctx := context.Background()
	svc, uow := newEconomyServiceWithStub()

	uow.Members.On("GetOrCreate", ctx, int64(100), int64(200)).Return(memberWith(0, 0), nil)
	uow.Members.On("IncrementMessageCount", ctx, int64(100), int64(200)).Return(nil)

	require.NoError(t, svc.RecordMessage(ctx, 100, 200))
	uow.Members.AssertExpectations(t)
}

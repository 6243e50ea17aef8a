package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"krypton/events"
	"krypton/models"
)

// economyService implements the EconomyService interface
type economyService struct {
	uowFactory UnitOfWorkFactory
}

// NewEconomyService creates a new economy service
func NewEconomyService(uowFactory UnitOfWorkFactory) EconomyService {
	return &economyService{uowFactory: uowFactory}
}

// GetProfile retrieves a member economy profile, creating it when absent
func (s *economyService) GetProfile(ctx context.Context, guildID, userID int64) (*models.Member, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	member, err := uow.MemberRepository().GetOrCreate(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return member, nil
}

// ClaimDaily pays the daily reward if the cooldown elapsed. The amount
// comes from guild settings.
func (s *economyService) ClaimDaily(ctx context.Context, guildID, userID int64) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settings, err := getOrCreateSettings(ctx, uow, guildID)
	if err != nil {
		return 0, err
	}

	repo := uow.MemberRepository()
	member, err := repo.GetOrCreate(ctx, guildID, userID)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	amount := settings.Economy.DailyReward
	claimed, err := repo.ClaimDaily(ctx, guildID, userID, amount, now)
	if err != nil {
		return 0, err
	}
	if !claimed {
		return 0, models.NewValidationError("daily",
			fmt.Sprintf("already claimed, try again <t:%d:R>", member.NextDaily().Unix()))
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		GuildID:   guildID,
		UserID:    userID,
		OldWallet: member.Wallet,
		NewWallet: member.Wallet + amount,
		OldBank:   member.Bank,
		NewBank:   member.Bank,
		Reason:    "daily",
	})

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return amount, nil
}

// ClaimWeekly pays the weekly reward if the cooldown elapsed
func (s *economyService) ClaimWeekly(ctx context.Context, guildID, userID int64) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settings, err := getOrCreateSettings(ctx, uow, guildID)
	if err != nil {
		return 0, err
	}

	repo := uow.MemberRepository()
	member, err := repo.GetOrCreate(ctx, guildID, userID)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	amount := settings.Economy.WeeklyReward
	claimed, err := repo.ClaimWeekly(ctx, guildID, userID, amount, now)
	if err != nil {
		return 0, err
	}
	if !claimed {
		return 0, models.NewValidationError("weekly",
			fmt.Sprintf("already claimed, try again <t:%d:R>", member.NextWeekly().Unix()))
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		GuildID:   guildID,
		UserID:    userID,
		OldWallet: member.Wallet,
		NewWallet: member.Wallet + amount,
		OldBank:   member.Bank,
		NewBank:   member.Bank,
		Reason:    "weekly",
	})

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return amount, nil
}

// Work pays a random amount within the configured range
func (s *economyService) Work(ctx context.Context, guildID, userID int64) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settings, err := getOrCreateSettings(ctx, uow, guildID)
	if err != nil {
		return 0, err
	}

	min := settings.Economy.MinWorkEarnings
	max := settings.Economy.MaxWorkEarnings
	if max < min {
		min, max = max, min
	}
	amount := min
	if max > min {
		amount = min + rand.Int63n(max-min+1)
	}

	repo := uow.MemberRepository()
	member, err := repo.GetOrCreate(ctx, guildID, userID)
	if err != nil {
		return 0, err
	}
	if err := repo.AddWallet(ctx, guildID, userID, amount); err != nil {
		return 0, err
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		GuildID:   guildID,
		UserID:    userID,
		OldWallet: member.Wallet,
		NewWallet: member.Wallet + amount,
		OldBank:   member.Bank,
		NewBank:   member.Bank,
		Reason:    "work",
	})

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return amount, nil
}

// Deposit moves wallet funds into the bank; amount <= 0 means everything
func (s *economyService) Deposit(ctx context.Context, guildID, userID int64, amount int64) (*models.Member, error) {
	return s.moveFunds(ctx, guildID, userID, amount, true)
}

// Withdraw moves bank funds into the wallet; amount <= 0 means everything
func (s *economyService) Withdraw(ctx context.Context, guildID, userID int64, amount int64) (*models.Member, error) {
	return s.moveFunds(ctx, guildID, userID, amount, false)
}

func (s *economyService) moveFunds(ctx context.Context, guildID, userID int64, amount int64, toBank bool) (*models.Member, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	repo := uow.MemberRepository()
	member, err := repo.GetOrCreate(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}

	// Resolve "all" to the full source balance
	if amount <= 0 {
		if toBank {
			amount = member.Wallet
		} else {
			amount = member.Bank
		}
	}
	if amount <= 0 {
		return nil, models.NewValidationError("amount", "nothing to move")
	}

	reason := "withdraw"
	if toBank {
		reason = "deposit"
		err = repo.Deposit(ctx, guildID, userID, amount)
	} else {
		err = repo.Withdraw(ctx, guildID, userID, amount)
	}
	if err != nil {
		return nil, err
	}

	updated, err := repo.GetOrCreate(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		GuildID:   guildID,
		UserID:    userID,
		OldWallet: member.Wallet,
		NewWallet: updated.Wallet,
		OldBank:   member.Bank,
		NewBank:   updated.Bank,
		Reason:    reason,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"guildID": guildID,
		"userID":  userID,
		"amount":  amount,
		"reason":  reason,
	}).Debug("Balance moved")

	return updated, nil
}

// RecordMessage bumps the member's message counter
func (s *economyService) RecordMessage(ctx context.Context, guildID, userID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	repo := uow.MemberRepository()
	if _, err := repo.GetOrCreate(ctx, guildID, userID); err != nil {
		return err
	}
	if err := repo.IncrementMessageCount(ctx, guildID, userID); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

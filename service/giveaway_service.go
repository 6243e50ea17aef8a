package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"krypton/events"
	"krypton/models"
)

const (
	// MaxPrizeLength bounds the prize text shown in embeds
	MaxPrizeLength = 256

	// MaxWinnerCount bounds how many winners one giveaway may request
	MaxWinnerCount = 50
)

// giveawayService implements the GiveawayService interface
type giveawayService struct {
	uowFactory UnitOfWorkFactory
}

// NewGiveawayService creates a new giveaway service
func NewGiveawayService(uowFactory UnitOfWorkFactory) GiveawayService {
	return &giveawayService{uowFactory: uowFactory}
}

// Create validates and starts a new giveaway
func (s *giveawayService) Create(ctx context.Context, giveaway *models.Giveaway) (*models.Giveaway, error) {
	if err := validateGiveaway(giveaway); err != nil {
		return nil, err
	}

	if giveaway.GiveawayID == "" {
		giveaway.GiveawayID = uuid.New().String()
	}
	if giveaway.StartDate.IsZero() {
		giveaway.StartDate = time.Now()
	}
	if giveaway.Entries == nil {
		giveaway.Entries = []int64{}
	}
	if giveaway.Winners == nil {
		giveaway.Winners = []int64{}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.GiveawayRepository().Create(ctx, giveaway); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"giveawayID": giveaway.GiveawayID,
		"guildID":    giveaway.GuildID,
		"prize":      giveaway.Prize,
		"endDate":    giveaway.EndDate,
	}).Info("Giveaway created")

	return giveaway, nil
}

func validateGiveaway(giveaway *models.Giveaway) error {
	if strings.TrimSpace(giveaway.Prize) == "" {
		return models.NewValidationError("prize", "must not be empty")
	}
	if len(giveaway.Prize) > MaxPrizeLength {
		return models.NewValidationError("prize", fmt.Sprintf("must be at most %d characters", MaxPrizeLength))
	}
	if giveaway.WinnerCount < 1 {
		return models.NewValidationError("winners", "must be at least 1")
	}
	if giveaway.WinnerCount > MaxWinnerCount {
		return models.NewValidationError("winners", fmt.Sprintf("must be at most %d", MaxWinnerCount))
	}
	if !giveaway.EndDate.After(time.Now()) {
		return models.NewValidationError("duration", "end date must be in the future")
	}
	return nil
}

// GetByMessageID retrieves a giveaway by its Discord message ID
func (s *giveawayService) GetByMessageID(ctx context.Context, messageID int64) (*models.Giveaway, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	giveaway, err := uow.GiveawayRepository().GetByMessageID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if giveaway == nil {
		return nil, models.NewNotFoundError("giveaway", fmt.Sprintf("%d", messageID))
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return giveaway, nil
}

// ListActive returns running giveaways for a guild
func (s *giveawayService) ListActive(ctx context.Context, guildID int64) ([]*models.Giveaway, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	giveaways, err := uow.GiveawayRepository().GetActiveByGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return giveaways, nil
}

// RegisterEntry adds a participant to a running giveaway. Late entries
// against an ended giveaway and duplicate entries are both rejected.
func (s *giveawayService) RegisterEntry(ctx context.Context, messageID int64, userID int64) (*models.Giveaway, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	repo := uow.GiveawayRepository()
	giveaway, err := repo.GetByMessageID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if giveaway == nil {
		return nil, models.NewNotFoundError("giveaway", fmt.Sprintf("%d", messageID))
	}

	added, err := repo.AddEntry(ctx, giveaway.GiveawayID, userID)
	if err != nil {
		return nil, err
	}
	if !added {
		if giveaway.Ended {
			return nil, models.NewValidationError("entry", "this giveaway has ended")
		}
		if giveaway.HasEntry(userID) {
			return nil, models.NewValidationError("entry", "you already entered this giveaway")
		}
		// Lost the race against the sweep
		return nil, models.NewValidationError("entry", "this giveaway has ended")
	}

	giveaway, err = repo.GetByID(ctx, giveaway.GiveawayID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return giveaway, nil
}

// UnregisterEntry withdraws a participant from a running giveaway
func (s *giveawayService) UnregisterEntry(ctx context.Context, messageID int64, userID int64) (*models.Giveaway, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	repo := uow.GiveawayRepository()
	giveaway, err := repo.GetByMessageID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if giveaway == nil {
		return nil, models.NewNotFoundError("giveaway", fmt.Sprintf("%d", messageID))
	}

	removed, err := repo.RemoveEntry(ctx, giveaway.GiveawayID, userID)
	if err != nil {
		return nil, err
	}
	if !removed {
		if giveaway.Ended {
			return nil, models.NewValidationError("entry", "this giveaway has ended")
		}
		return nil, models.NewValidationError("entry", "you are not entered in this giveaway")
	}

	giveaway, err = repo.GetByID(ctx, giveaway.GiveawayID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return giveaway, nil
}

// Reroll picks fresh winners for an ended giveaway
func (s *giveawayService) Reroll(ctx context.Context, messageID int64) (*models.Giveaway, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	repo := uow.GiveawayRepository()
	giveaway, err := repo.GetByMessageID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if giveaway == nil {
		return nil, models.NewNotFoundError("giveaway", fmt.Sprintf("%d", messageID))
	}
	if !giveaway.Ended {
		return nil, models.NewValidationError("giveaway", "cannot reroll a running giveaway")
	}

	winners, err := sampleWinners(giveaway.Entries, giveaway.WinnerCount)
	if err != nil {
		return nil, err
	}

	if err := repo.UpdateWinners(ctx, giveaway.GiveawayID, winners); err != nil {
		return nil, err
	}
	giveaway.Winners = winners

	uow.EventBus().Publish(events.GiveawayCompletedEvent{Giveaway: giveaway, Winners: winners})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return giveaway, nil
}

// Delete removes a giveaway regardless of state
func (s *giveawayService) Delete(ctx context.Context, messageID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	repo := uow.GiveawayRepository()
	giveaway, err := repo.GetByMessageID(ctx, messageID)
	if err != nil {
		return err
	}
	if giveaway == nil {
		return models.NewNotFoundError("giveaway", fmt.Sprintf("%d", messageID))
	}

	if err := repo.Delete(ctx, giveaway.GiveawayID); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("giveawayID", giveaway.GiveawayID).Info("Giveaway deleted")
	return nil
}

// FinalizeExpired ends every giveaway past its end date. Each giveaway is
// finalized in its own transaction so one failure cannot block the rest.
func (s *giveawayService) FinalizeExpired(ctx context.Context) error {
	expired, err := s.listExpired(ctx)
	if err != nil {
		return err
	}

	for _, giveaway := range expired {
		if err := s.finalizeOne(ctx, giveaway); err != nil {
			log.WithFields(log.Fields{
				"giveawayID": giveaway.GiveawayID,
				"error":      err,
			}).Error("Failed to finalize giveaway")
		}
	}

	return nil
}

func (s *giveawayService) listExpired(ctx context.Context) ([]*models.Giveaway, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	expired, err := uow.GiveawayRepository().GetExpired(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return expired, nil
}

func (s *giveawayService) finalizeOne(ctx context.Context, giveaway *models.Giveaway) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	repo := uow.GiveawayRepository()

	// Re-read inside the transaction, entries may have changed since the sweep query
	current, err := repo.GetByID(ctx, giveaway.GiveawayID)
	if err != nil {
		return err
	}
	if current == nil || current.Ended {
		return nil
	}

	winners, err := sampleWinners(current.Entries, current.WinnerCount)
	if err != nil {
		return err
	}

	finalized, err := repo.Finalize(ctx, current.GiveawayID, winners)
	if err != nil {
		return err
	}
	if !finalized {
		// Another sweep got there first
		return nil
	}

	current.Ended = true
	current.Winners = winners
	uow.EventBus().Publish(events.GiveawayCompletedEvent{Giveaway: current, Winners: winners})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"giveawayID":  current.GiveawayID,
		"entryCount":  len(current.Entries),
		"winnerCount": len(winners),
	}).Info("Giveaway finalized")

	return nil
}

// sampleWinners draws up to count distinct winners from entries with a
// partial Fisher-Yates shuffle over a crypto-grade source. When fewer
// entries than requested winners exist, everyone wins.
func sampleWinners(entries []int64, count int) ([]int64, error) {
	if len(entries) == 0 {
		return []int64{}, nil
	}

	pool := make([]int64, len(entries))
	copy(pool, entries)

	if count > len(pool) {
		count = len(pool)
	}

	for i := 0; i < count; i++ {
		max := big.NewInt(int64(len(pool) - i))
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return nil, fmt.Errorf("failed to generate random index: %w", err)
		}
		j := i + int(n.Int64())
		pool[i], pool[j] = pool[j], pool[i]
	}

	return pool[:count], nil
}

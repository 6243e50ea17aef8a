package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"krypton/events"
	"krypton/models"
)

// ticketService implements the TicketService interface
type ticketService struct {
	uowFactory UnitOfWorkFactory
}

// NewTicketService creates a new ticket service
func NewTicketService(uowFactory UnitOfWorkFactory) TicketService {
	return &ticketService{uowFactory: uowFactory}
}

// Open creates a ticket for a user in a category. The per-user open
// ticket quota from guild settings is enforced inside the transaction.
func (s *ticketService) Open(ctx context.Context, guildID, userID, channelID int64, categoryID string) (*models.Ticket, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settings, err := getOrCreateSettings(ctx, uow, guildID)
	if err != nil {
		return nil, err
	}
	if !settings.Tickets.Enabled {
		return nil, models.NewValidationError("tickets", "the ticket system is disabled on this server")
	}

	category := settings.TicketCategoryByID(categoryID)
	if category == nil {
		return nil, models.NewNotFoundError("ticket category", categoryID)
	}

	repo := uow.TicketRepository()
	open, err := repo.CountOpenByUser(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if open >= settings.Tickets.MaxTicketsPerUser {
		return nil, models.NewValidationError("tickets",
			fmt.Sprintf("you already have %d open ticket(s), the limit is %d", open, settings.Tickets.MaxTicketsPerUser))
	}

	number, err := repo.NextNumber(ctx, guildID)
	if err != nil {
		return nil, err
	}

	ticket := &models.Ticket{
		ID:         uuid.New(),
		GuildID:    guildID,
		ChannelID:  channelID,
		UserID:     userID,
		CategoryID: categoryID,
		Number:     number,
		Open:       true,
	}
	if err := repo.Create(ctx, ticket); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.TicketOpenedEvent{Ticket: ticket, Category: category.Name})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"ticketID": ticket.ID,
		"guildID":  guildID,
		"userID":   userID,
		"number":   number,
	}).Info("Ticket opened")

	return ticket, nil
}

// GetByChannel retrieves the ticket bound to a channel
func (s *ticketService) GetByChannel(ctx context.Context, channelID int64) (*models.Ticket, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	ticket, err := uow.TicketRepository().GetByChannelID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, models.NewNotFoundError("ticket", fmt.Sprintf("%d", channelID))
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return ticket, nil
}

// NextNumber reserves the next ticket number for naming the channel
func (s *ticketService) NextNumber(ctx context.Context, guildID int64) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	number, err := uow.TicketRepository().NextNumber(ctx, guildID)
	if err != nil {
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return number, nil
}

// Claim records the staff member handling a ticket
func (s *ticketService) Claim(ctx context.Context, channelID int64, claimedBy int64) (*models.Ticket, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	repo := uow.TicketRepository()
	ticket, err := repo.GetByChannelID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, models.NewNotFoundError("ticket", fmt.Sprintf("%d", channelID))
	}
	if ticket.IsClaimed() {
		return nil, models.NewValidationError("ticket", "this ticket is already claimed")
	}

	if err := repo.Claim(ctx, ticket.ID.String(), claimedBy); err != nil {
		return nil, err
	}
	ticket.ClaimedBy = claimedBy

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return ticket, nil
}

// RecordControlMessage stores the message holding the ticket's current
// lifecycle buttons so later edits can find it
func (s *ticketService) RecordControlMessage(ctx context.Context, ticketID string, messageID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.TicketRepository().SetControlMessage(ctx, ticketID, messageID); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Close closes an open ticket
func (s *ticketService) Close(ctx context.Context, channelID int64, closedBy int64) (*models.Ticket, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	repo := uow.TicketRepository()
	ticket, err := repo.GetByChannelID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, models.NewNotFoundError("ticket", fmt.Sprintf("%d", channelID))
	}
	if !ticket.Open {
		return nil, models.NewValidationError("ticket", "this ticket is already closed")
	}

	if err := repo.SetOpen(ctx, ticket.ID.String(), false); err != nil {
		return nil, err
	}
	ticket.Open = false

	uow.EventBus().Publish(events.TicketClosedEvent{Ticket: ticket, ClosedBy: closedBy})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"ticketID": ticket.ID,
		"closedBy": closedBy,
	}).Info("Ticket closed")

	return ticket, nil
}

// Reopen reopens a closed ticket
func (s *ticketService) Reopen(ctx context.Context, channelID int64) (*models.Ticket, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	repo := uow.TicketRepository()
	ticket, err := repo.GetByChannelID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, models.NewNotFoundError("ticket", fmt.Sprintf("%d", channelID))
	}
	if ticket.Open {
		return nil, models.NewValidationError("ticket", "this ticket is already open")
	}

	if err := repo.SetOpen(ctx, ticket.ID.String(), true); err != nil {
		return nil, err
	}
	ticket.Open = true

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return ticket, nil
}

// Delete removes a ticket record
func (s *ticketService) Delete(ctx context.Context, channelID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	repo := uow.TicketRepository()
	ticket, err := repo.GetByChannelID(ctx, channelID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return models.NewNotFoundError("ticket", fmt.Sprintf("%d", channelID))
	}

	if err := repo.Delete(ctx, ticket.ID.String()); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

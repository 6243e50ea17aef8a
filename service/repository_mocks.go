package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"krypton/events"
	"krypton/models"
)

// MockGiveawayRepository is a mock implementation of GiveawayRepository
type MockGiveawayRepository struct {
	mock.Mock
}

func (m *MockGiveawayRepository) Create(ctx context.Context, giveaway *models.Giveaway) error {
	args := m.Called(ctx, giveaway)
	return args.Error(0)
}

func (m *MockGiveawayRepository) GetByID(ctx context.Context, giveawayID string) (*models.Giveaway, error) {
	args := m.Called(ctx, giveawayID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Giveaway), args.Error(1)
}

func (m *MockGiveawayRepository) GetByMessageID(ctx context.Context, messageID int64) (*models.Giveaway, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Giveaway), args.Error(1)
}

func (m *MockGiveawayRepository) GetActiveByGuild(ctx context.Context, guildID int64) ([]*models.Giveaway, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Giveaway), args.Error(1)
}

func (m *MockGiveawayRepository) GetExpired(ctx context.Context, now time.Time) ([]*models.Giveaway, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Giveaway), args.Error(1)
}

func (m *MockGiveawayRepository) AddEntry(ctx context.Context, giveawayID string, userID int64) (bool, error) {
	args := m.Called(ctx, giveawayID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGiveawayRepository) RemoveEntry(ctx context.Context, giveawayID string, userID int64) (bool, error) {
	args := m.Called(ctx, giveawayID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGiveawayRepository) Finalize(ctx context.Context, giveawayID string, winners []int64) (bool, error) {
	args := m.Called(ctx, giveawayID, winners)
	return args.Bool(0), args.Error(1)
}

func (m *MockGiveawayRepository) UpdateWinners(ctx context.Context, giveawayID string, winners []int64) error {
	args := m.Called(ctx, giveawayID, winners)
	return args.Error(0)
}

func (m *MockGiveawayRepository) Delete(ctx context.Context, giveawayID string) error {
	args := m.Called(ctx, giveawayID)
	return args.Error(0)
}

// MockGuildRepository is a mock implementation of GuildRepository
type MockGuildRepository struct {
	mock.Mock
}

func (m *MockGuildRepository) Get(ctx context.Context, guildID int64) (*models.Guild, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Guild), args.Error(1)
}

func (m *MockGuildRepository) Upsert(ctx context.Context, guild *models.Guild) error {
	args := m.Called(ctx, guild)
	return args.Error(0)
}

// MockTicketRepository is a mock implementation of TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockTicketRepository) GetByChannelID(ctx context.Context, channelID int64) (*models.Ticket, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketRepository) CountOpenByUser(ctx context.Context, guildID, userID int64) (int, error) {
	args := m.Called(ctx, guildID, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockTicketRepository) NextNumber(ctx context.Context, guildID int64) (int, error) {
	args := m.Called(ctx, guildID)
	return args.Int(0), args.Error(1)
}

func (m *MockTicketRepository) Claim(ctx context.Context, ticketID string, claimedBy int64) error {
	args := m.Called(ctx, ticketID, claimedBy)
	return args.Error(0)
}

func (m *MockTicketRepository) SetControlMessage(ctx context.Context, ticketID string, messageID int64) error {
	args := m.Called(ctx, ticketID, messageID)
	return args.Error(0)
}

func (m *MockTicketRepository) SetOpen(ctx context.Context, ticketID string, open bool) error {
	args := m.Called(ctx, ticketID, open)
	return args.Error(0)
}

func (m *MockTicketRepository) Delete(ctx context.Context, ticketID string) error {
	args := m.Called(ctx, ticketID)
	return args.Error(0)
}

// MockMemberRepository is a mock implementation of MemberRepository
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) GetOrCreate(ctx context.Context, guildID, userID int64) (*models.Member, error) {
	args := m.Called(ctx, guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MockMemberRepository) AddWallet(ctx context.Context, guildID, userID int64, amount int64) error {
	args := m.Called(ctx, guildID, userID, amount)
	return args.Error(0)
}

func (m *MockMemberRepository) Deposit(ctx context.Context, guildID, userID int64, amount int64) error {
	args := m.Called(ctx, guildID, userID, amount)
	return args.Error(0)
}

func (m *MockMemberRepository) Withdraw(ctx context.Context, guildID, userID int64, amount int64) error {
	args := m.Called(ctx, guildID, userID, amount)
	return args.Error(0)
}

func (m *MockMemberRepository) ClaimDaily(ctx context.Context, guildID, userID int64, amount int64, now time.Time) (bool, error) {
	args := m.Called(ctx, guildID, userID, amount, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockMemberRepository) ClaimWeekly(ctx context.Context, guildID, userID int64, amount int64, now time.Time) (bool, error) {
	args := m.Called(ctx, guildID, userID, amount, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockMemberRepository) IncrementMessageCount(ctx context.Context, guildID, userID int64) error {
	args := m.Called(ctx, guildID, userID)
	return args.Error(0)
}

// RecordingPublisher captures published events for assertions
type RecordingPublisher struct {
	Events []events.Event
}

func (p *RecordingPublisher) Publish(event events.Event) {
	p.Events = append(p.Events, event)
}

// StubUnitOfWork wires the repository mocks into the UnitOfWork shape so
// services can be exercised without a database. Begin, Commit and
// Rollback are no-ops.
type StubUnitOfWork struct {
	Giveaways *MockGiveawayRepository
	Guilds    *MockGuildRepository
	Tickets   *MockTicketRepository
	Members   *MockMemberRepository
	Bus       *RecordingPublisher
}

// NewStubUnitOfWork creates a stub unit of work with fresh mocks
func NewStubUnitOfWork() *StubUnitOfWork {
	return &StubUnitOfWork{
		Giveaways: &MockGiveawayRepository{},
		Guilds:    &MockGuildRepository{},
		Tickets:   &MockTicketRepository{},
		Members:   &MockMemberRepository{},
		Bus:       &RecordingPublisher{},
	}
}

func (u *StubUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *StubUnitOfWork) Commit() error                   { return nil }
func (u *StubUnitOfWork) Rollback() error                 { return nil }

func (u *StubUnitOfWork) GiveawayRepository() GiveawayRepository { return u.Giveaways }
func (u *StubUnitOfWork) GuildRepository() GuildRepository       { return u.Guilds }
func (u *StubUnitOfWork) TicketRepository() TicketRepository     { return u.Tickets }
func (u *StubUnitOfWork) MemberRepository() MemberRepository     { return u.Members }
func (u *StubUnitOfWork) EventBus() EventPublisher               { return u.Bus }

// StubUnitOfWorkFactory hands out the same stub unit of work on every Create
type StubUnitOfWorkFactory struct {
	UOW *StubUnitOfWork
}

func (f *StubUnitOfWorkFactory) Create() UnitOfWork { return f.UOW }

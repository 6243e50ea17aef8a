package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"krypton/models"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeGiveawayCompleted EventType = "giveaway_completed"
	EventTypeTicketOpened      EventType = "ticket_opened"
	EventTypeTicketClosed      EventType = "ticket_closed"
	EventTypeBalanceChange     EventType = "balance_change"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// GiveawayCompletedEvent fires after a giveaway is finalized and its
// winners recorded
type GiveawayCompletedEvent struct {
	Giveaway *models.Giveaway
	Winners  []int64
}

func (e GiveawayCompletedEvent) Type() EventType {
	return EventTypeGiveawayCompleted
}

// TicketOpenedEvent fires when a ticket channel is created
type TicketOpenedEvent struct {
	Ticket   *models.Ticket
	Category string
}

func (e TicketOpenedEvent) Type() EventType {
	return EventTypeTicketOpened
}

// TicketClosedEvent fires when a ticket is closed
type TicketClosedEvent struct {
	Ticket   *models.Ticket
	ClosedBy int64
}

func (e TicketClosedEvent) Type() EventType {
	return EventTypeTicketClosed
}

// BalanceChangeEvent fires when a member's wallet or bank balance moves
type BalanceChangeEvent struct {
	GuildID   int64
	UserID    int64
	OldWallet int64
	NewWallet int64
	OldBank   int64
	NewBank   int64
	Reason    string
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make([]Handler, 0)
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type on main event bus")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers on main event bus")

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events from transactional bus to main event bus")

	// Use background context for event emission so handlers outlive the
	// transaction context
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

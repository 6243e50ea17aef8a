package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"krypton/models"
)

// TestEventDeliveryIntegration tests the complete event flow from TransactionalBus to main Bus
func TestEventDeliveryIntegration(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan BalanceChangeEvent, 1)
	var wg sync.WaitGroup
	wg.Add(1)

	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		defer wg.Done()
		if balanceEvent, ok := event.(BalanceChangeEvent); ok {
			select {
			case eventReceived <- balanceEvent:
			case <-time.After(1 * time.Second):
				t.Error("Timeout sending event to channel")
			}
		} else {
			t.Errorf("Expected BalanceChangeEvent, got %T", event)
		}
	})

	testEvent := BalanceChangeEvent{
		GuildID:   789,
		UserID:    123456,
		OldWallet: 1000,
		NewWallet: 1500,
		Reason:    "daily",
	}

	// Publish event to transactional bus (simulating service layer)
	transactionalBus.Publish(testEvent)

	// Flush events (simulating successful transaction commit)
	ctx := context.Background()
	err := transactionalBus.Flush(ctx)
	assert.NoError(t, err)

	wg.Wait()

	select {
	case receivedEvent := <-eventReceived:
		assert.Equal(t, testEvent.UserID, receivedEvent.UserID)
		assert.Equal(t, testEvent.GuildID, receivedEvent.GuildID)
		assert.Equal(t, testEvent.OldWallet, receivedEvent.OldWallet)
		assert.Equal(t, testEvent.NewWallet, receivedEvent.NewWallet)
		assert.Equal(t, testEvent.Reason, receivedEvent.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

// TestMultipleEventsDelivery tests delivering multiple events in sequence
func TestMultipleEventsDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventsReceived := make(chan GiveawayCompletedEvent, 3)
	var wg sync.WaitGroup
	wg.Add(3)

	mainBus.Subscribe(EventTypeGiveawayCompleted, func(ctx context.Context, event Event) {
		defer wg.Done()
		if completed, ok := event.(GiveawayCompletedEvent); ok {
			eventsReceived <- completed
		}
	})

	giveaways := []GiveawayCompletedEvent{
		{Giveaway: &models.Giveaway{GiveawayID: "a", GuildID: 100}, Winners: []int64{1}},
		{Giveaway: &models.Giveaway{GiveawayID: "b", GuildID: 100}, Winners: []int64{2}},
		{Giveaway: &models.Giveaway{GiveawayID: "c", GuildID: 100}, Winners: []int64{3}},
	}

	for _, event := range giveaways {
		transactionalBus.Publish(event)
	}

	ctx := context.Background()
	err := transactionalBus.Flush(ctx)
	assert.NoError(t, err)

	wg.Wait()

	receivedEvents := make([]GiveawayCompletedEvent, 0, 3)
	for i := 0; i < 3; i++ {
		select {
		case event := <-eventsReceived:
			receivedEvents = append(receivedEvents, event)
		case <-time.After(2 * time.Second):
			t.Fatalf("Only received %d out of 3 events", len(receivedEvents))
		}
	}

	assert.Len(t, receivedEvents, 3)

	// Check that all original events were received (order may vary due to goroutines)
	ids := make(map[string]bool)
	for _, received := range receivedEvents {
		ids[received.Giveaway.GiveawayID] = true
	}

	assert.True(t, ids["a"])
	assert.True(t, ids["b"])
	assert.True(t, ids["c"])
}

// TestTransactionalBusDiscard tests that discarded events are not delivered
func TestTransactionalBusDiscard(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan bool, 1)

	mainBus.Subscribe(EventTypeTicketOpened, func(ctx context.Context, event Event) {
		eventReceived <- true
	})

	transactionalBus.Publish(TicketOpenedEvent{
		Ticket:   &models.Ticket{GuildID: 789, UserID: 123456, Number: 1},
		Category: "support",
	})

	// Discard instead of flush (simulating transaction rollback)
	transactionalBus.Discard()

	select {
	case <-eventReceived:
		t.Fatal("Event was received despite being discarded")
	case <-time.After(100 * time.Millisecond):
		// Expected - no event should be received
	}
}

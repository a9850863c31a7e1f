package infrastructure

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"prizepool/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher collects published events
type recordingPublisher struct {
	PublishedEvents []events.Event
	PublishError    error
}

func (m *recordingPublisher) Publish(event events.Event) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.PublishedEvents = append(m.PublishedEvents, event)
	return nil
}

func TestNATSTransactionalPublisher_FlushPublishesInOrder(t *testing.T) {
	t.Parallel()

	sink := &recordingPublisher{}
	publisher := NewNATSTransactionalPublisher(sink)

	opened := events.EpochOpenedEvent{EpochID: 1}
	unlocked := events.WithdrawalUnlockedEvent{EpochID: 1}

	require.NoError(t, publisher.Publish(opened))
	require.NoError(t, publisher.Publish(unlocked))

	assert.Empty(t, sink.PublishedEvents)
	assert.Equal(t, 2, publisher.Pending())

	require.NoError(t, publisher.Flush(context.Background()))

	assert.Equal(t, []events.Event{opened, unlocked}, sink.PublishedEvents)
	assert.Equal(t, 0, publisher.Pending())
}

func TestNATSTransactionalPublisher_Discard(t *testing.T) {
	t.Parallel()

	sink := &recordingPublisher{}
	publisher := NewNATSTransactionalPublisher(sink)

	require.NoError(t, publisher.Publish(events.WithdrawalUnlockedEvent{EpochID: 2}))
	publisher.Discard()
	require.NoError(t, publisher.Flush(context.Background()))

	assert.Empty(t, sink.PublishedEvents)
}

func TestNATSTransactionalPublisher_FlushSurvivesPublishErrors(t *testing.T) {
	t.Parallel()

	sink := &recordingPublisher{PublishError: errors.New("nats down")}
	publisher := NewNATSTransactionalPublisher(sink)

	require.NoError(t, publisher.Publish(events.WithdrawalUnlockedEvent{EpochID: 3}))

	assert.NoError(t, publisher.Flush(context.Background()))
	assert.Equal(t, 0, publisher.Pending())
}

func TestNATSEventPublisher_LocalHandlersWithoutConnection(t *testing.T) {
	t.Parallel()

	publisher := NewNATSEventPublisher(nil, NewEventSubjectMapper())

	var received []events.Event
	publisher.RegisterLocalHandler(events.EventTypeEpochConcluded, func(ctx context.Context, event events.Event) error {
		received = append(received, event)
		return nil
	})
	publisher.RegisterLocalHandler(events.EventTypeEpochConcluded, func(ctx context.Context, event events.Event) error {
		return errors.New("handler failure is logged, not returned")
	})

	concluded := events.EpochConcludedEvent{EpochID: 4, Winner: "bob"}
	require.NoError(t, publisher.Publish(concluded))
	require.NoError(t, publisher.Publish(events.EpochOpenedEvent{EpochID: 5}))

	publisher.Close()
	assert.Equal(t, []events.Event{concluded}, received)
	assert.NoError(t, publisher.EnsureEventStream())
}

func TestNATSEventPublisher_PublishDoesNotWaitForLocalHandlers(t *testing.T) {
	t.Parallel()

	publisher := NewNATSEventPublisher(nil, NewEventSubjectMapper())

	release := make(chan struct{})
	var (
		mu       sync.Mutex
		received []int64
	)
	publisher.RegisterLocalHandler(events.EventTypeWithdrawalUnlocked, func(ctx context.Context, event events.Event) error {
		<-release
		mu.Lock()
		defer mu.Unlock()
		received = append(received, event.(events.WithdrawalUnlockedEvent).EpochID)
		return nil
	})

	published := make(chan struct{})
	go func() {
		defer close(published)
		for id := int64(1); id <= 3; id++ {
			_ = publisher.Publish(events.WithdrawalUnlockedEvent{EpochID: id})
		}
	}()

	select {
	case <-published:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked on a local handler")
	}

	close(release)
	publisher.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{1, 2, 3}, received)
}

func TestEventSubjectMapper(t *testing.T) {
	t.Parallel()

	mapper := NewEventSubjectMapper()

	tests := []struct {
		event   events.Event
		subject string
	}{
		{events.EpochOpenedEvent{}, "prizepool.epoch.opened"},
		{events.TicketsPurchasedEvent{}, "prizepool.tickets.purchased"},
		{events.EpochConcludedEvent{}, "prizepool.epoch.concluded"},
		{events.WithdrawalUnlockedEvent{}, "prizepool.epoch.withdrawal_unlocked"},
		{events.PayoutClaimedEvent{}, "prizepool.payout.claimed"},
		{events.PoolSettingsChangedEvent{}, "prizepool.settings.changed"},
	}

	for _, tt := range tests {
		t.Run(string(tt.event.Type()), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.subject, mapper.MapEventToSubject(tt.event))
			assert.Equal(t, tt.event.Type(), mapper.MapSubjectToEventType(tt.subject))
		})
	}
}

func TestNATSClient_IsConnectedBeforeConnect(t *testing.T) {
	t.Parallel()

	client := NewNATSClient("nats://127.0.0.1:4222")
	assert.False(t, client.IsConnected())
	assert.NoError(t, client.Close())
}

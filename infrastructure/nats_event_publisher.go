package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"prizepool/domain/events"
	"prizepool/infrastructure/observability"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// EventEnvelope wraps every published event payload
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler reacts to an event inside this process
type EventHandler func(context.Context, events.Event) error

// NATSEventPublisher publishes events to NATS and to in-process handlers.
// With a nil client only the local handlers run. Local handlers run on a
// single background goroutine in publish order, so Publish never waits on them.
type NATSEventPublisher struct {
	natsClient    *NATSClient
	subjectMapper *EventSubjectMapper
	mu            sync.RWMutex
	localHandlers map[events.EventType][]EventHandler

	queueMu   sync.Mutex
	queue     []events.Event
	wake      chan struct{}
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewNATSEventPublisher creates a new NATS event publisher and starts its local dispatcher
func NewNATSEventPublisher(natsClient *NATSClient, subjectMapper *EventSubjectMapper) *NATSEventPublisher {
	p := &NATSEventPublisher{
		natsClient:    natsClient,
		subjectMapper: subjectMapper,
		localHandlers: make(map[events.EventType][]EventHandler),
		wake:          make(chan struct{}, 1),
		done:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go p.dispatchLocal()
	return p
}

// Publish queues the event for local handlers then publishes the event envelope to its subject
func (p *NATSEventPublisher) Publish(event events.Event) error {
	ctx := context.Background()
	eventType := event.Type()

	p.mu.RLock()
	hasHandlers := len(p.localHandlers[eventType]) > 0
	p.mu.RUnlock()
	if hasHandlers {
		p.enqueue(event)
	}

	if p.natsClient == nil {
		return nil
	}

	envelopeData, envelope, err := p.encode(event)
	if err != nil {
		return err
	}

	subject := p.subjectMapper.MapEventToSubject(event)
	if err := p.natsClient.Publish(ctx, subject, envelopeData); err != nil {
		if strings.Contains(err.Error(), "no response from stream") {
			return nil
		}
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}
	observability.GetMetrics().RecordNATSMessagePublished(string(eventType))

	log.WithFields(log.Fields{
		"eventType": eventType,
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Successfully published event to NATS")
	return nil
}

func (p *NATSEventPublisher) enqueue(event events.Event) {
	p.queueMu.Lock()
	p.queue = append(p.queue, event)
	p.queueMu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *NATSEventPublisher) dispatchLocal() {
	defer close(p.stopped)
	for {
		select {
		case <-p.done:
			p.drain()
			return
		case <-p.wake:
			p.drain()
		}
	}
}

func (p *NATSEventPublisher) drain() {
	for {
		p.queueMu.Lock()
		if len(p.queue) == 0 {
			p.queueMu.Unlock()
			return
		}
		event := p.queue[0]
		p.queue = p.queue[1:]
		p.queueMu.Unlock()

		p.runLocalHandlers(event)
	}
}

func (p *NATSEventPublisher) runLocalHandlers(event events.Event) {
	eventType := event.Type()

	p.mu.RLock()
	handlers := p.localHandlers[eventType]
	p.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(context.Background(), event); err != nil {
			log.WithFields(log.Fields{
				"eventType": eventType,
				"error":     err,
			}).Error("Local event handler failed")
		}
	}
}

// Close delivers queued events to local handlers and stops the dispatcher
func (p *NATSEventPublisher) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	<-p.stopped
}

func (p *NATSEventPublisher) encode(event events.Event) ([]byte, *EventEnvelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: "prizepool",
		Payload:       payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal event envelope: %w", err)
	}
	return data, envelope, nil
}

// RegisterLocalHandler registers a handler invoked in-process for the event type
func (p *NATSEventPublisher) RegisterLocalHandler(eventType events.EventType, handler EventHandler) {
	p.mu.Lock()
	p.localHandlers[eventType] = append(p.localHandlers[eventType], handler)
	count := len(p.localHandlers[eventType])
	p.mu.Unlock()

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": count,
	}).Info("Registered local event handler")
}

// EnsureEventStream creates the pool event stream
func (p *NATSEventPublisher) EnsureEventStream() error {
	if p.natsClient == nil {
		return nil
	}
	return p.natsClient.EnsureStream(StreamName, p.subjectMapper.GetAllSubjects())
}

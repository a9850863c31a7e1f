package infrastructure

import (
	"fmt"

	"prizepool/domain/events"
)

// StreamName is the JetStream stream holding every pool event
const StreamName = "prizepool_events"

var subjectsByType = map[events.EventType]string{
	events.EventTypeEpochOpened:         "prizepool.epoch.opened",
	events.EventTypeTicketsPurchased:    "prizepool.tickets.purchased",
	events.EventTypeEpochConcluded:      "prizepool.epoch.concluded",
	events.EventTypeWithdrawalUnlocked:  "prizepool.epoch.withdrawal_unlocked",
	events.EventTypePayoutClaimed:       "prizepool.payout.claimed",
	events.EventTypePoolSettingsChanged: "prizepool.settings.changed",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := subjectsByType[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("prizepool.unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range subjectsByType {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns the subject filter for the pool stream
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{"prizepool.>"}
}

package events

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeEpochOpened         EventType = "epoch_opened"
	EventTypeTicketsPurchased    EventType = "tickets_purchased"
	EventTypeEpochConcluded      EventType = "epoch_concluded"
	EventTypeWithdrawalUnlocked  EventType = "withdrawal_unlocked"
	EventTypePayoutClaimed       EventType = "payout_claimed"
	EventTypePoolSettingsChanged EventType = "pool_settings_changed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// EpochOpenedEvent is emitted when a new epoch starts accepting purchases
type EpochOpenedEvent struct {
	EpochID     int64       `json:"epoch_id"`
	TicketPrice sdkmath.Int `json:"ticket_price"`
	StartTime   time.Time   `json:"start_time"`
	Deadline    time.Time   `json:"deadline"`
}

func (e EpochOpenedEvent) Type() EventType {
	return EventTypeEpochOpened
}

// TicketsPurchasedEvent is emitted after a range has been assigned
type TicketsPurchasedEvent struct {
	EpochID          int64       `json:"epoch_id"`
	Participant      string      `json:"participant"`
	StartID          uint64      `json:"start_id"`
	FinalID          uint64      `json:"final_id"`
	Cost             sdkmath.Int `json:"cost"`
	InitialPrincipal sdkmath.Int `json:"initial_principal"`
}

func (e TicketsPurchasedEvent) Type() EventType {
	return EventTypeTicketsPurchased
}

// EpochConcludedEvent is emitted once a winning ticket has been drawn
type EpochConcludedEvent struct {
	EpochID          int64       `json:"epoch_id"`
	WinningTicketID  uint64      `json:"winning_ticket_id"`
	Winner           string      `json:"winner"`
	TotalTickets     uint64      `json:"total_tickets"`
	InitialPrincipal sdkmath.Int `json:"initial_principal"`
	FinalBalance     sdkmath.Int `json:"final_balance"`
}

func (e EpochConcludedEvent) Type() EventType {
	return EventTypeEpochConcluded
}

// WithdrawalUnlockedEvent is emitted when claims open for an epoch
type WithdrawalUnlockedEvent struct {
	EpochID int64 `json:"epoch_id"`
}

func (e WithdrawalUnlockedEvent) Type() EventType {
	return EventTypeWithdrawalUnlocked
}

// BonusSweepPaid is one bonus asset transfer inside a payout
type BonusSweepPaid struct {
	AssetID string      `json:"asset_id"`
	Amount  sdkmath.Int `json:"amount"`
}

// PayoutClaimedEvent is emitted for every successful claim
type PayoutClaimedEvent struct {
	EpochID     int64            `json:"epoch_id"`
	Participant string           `json:"participant"`
	Refund      sdkmath.Int      `json:"refund"`
	Prize       sdkmath.Int      `json:"prize"`
	IsWinner    bool             `json:"is_winner"`
	BonusSweeps []BonusSweepPaid `json:"bonus_sweeps,omitempty"`
}

func (e PayoutClaimedEvent) Type() EventType {
	return EventTypePayoutClaimed
}

// PoolSettingsChangedEvent is emitted after any administrative change
type PoolSettingsChangedEvent struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
	ActorID  string `json:"actor_id"`
}

func (e PoolSettingsChangedEvent) Type() EventType {
	return EventTypePoolSettingsChanged
}

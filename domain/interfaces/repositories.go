package interfaces

import (
	"context"
	"time"

	"prizepool/domain/entities"
	"prizepool/domain/events"
)

// EpochRepository defines the interface for epoch data access
type EpochRepository interface {
	// Create inserts a new epoch and populates its ID and CreatedAt
	Create(ctx context.Context, epoch *entities.Epoch) error

	// GetByID retrieves an epoch; returns nil if it does not exist
	GetByID(ctx context.Context, id int64) (*entities.Epoch, error)

	// GetByIDForUpdate retrieves an epoch with a row lock
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Epoch, error)

	// GetActive returns the active epoch, if any
	GetActive(ctx context.Context) (*entities.Epoch, error)

	// GetLatestConcluded returns the most recently concluded epoch, if any
	GetLatestConcluded(ctx context.Context) (*entities.Epoch, error)

	// GetRecent returns the newest epochs first
	GetRecent(ctx context.Context, limit int) ([]*entities.Epoch, error)

	// GetLockedConcludedBefore returns ended epochs still awaiting unlock
	GetLockedConcludedBefore(ctx context.Context, before time.Time) ([]*entities.Epoch, error)

	// Update persists the mutable fields of an epoch
	Update(ctx context.Context, epoch *entities.Epoch) error
}

// TicketRangeRepository defines the interface for ticket range data access
type TicketRangeRepository interface {
	// Append stores a new range for a participant
	Append(ctx context.Context, r *entities.TicketRange) error

	// GetByParticipant returns a participant's ranges in purchase order
	GetByParticipant(ctx context.Context, epochID int64, participant string) (entities.TicketSet, error)

	// GetByEpoch returns every range of an epoch ordered by start id
	GetByEpoch(ctx context.Context, epochID int64) ([]*entities.TicketRange, error)

	// CountByParticipant returns how many ranges a participant holds
	CountByParticipant(ctx context.Context, epochID int64, participant string) (int, error)

	// FindOwner returns the range holding the ticket id; nil if none
	FindOwner(ctx context.Context, epochID int64, ticketID uint64) (*entities.TicketRange, error)

	// GetParticipantSummary aggregates holdings per participant, largest first
	GetParticipantSummary(ctx context.Context, epochID int64) ([]*entities.ParticipantSummary, error)
}

// ClaimRepository defines the interface for claim flag storage
type ClaimRepository interface {
	// Insert records a claim if none exists; returns false if it already did
	Insert(ctx context.Context, record *entities.ClaimRecord) (bool, error)

	// Get returns the claim record; nil if unclaimed
	Get(ctx context.Context, epochID int64, participant string) (*entities.ClaimRecord, error)

	// GetByEpoch returns all claims for an epoch
	GetByEpoch(ctx context.Context, epochID int64) ([]*entities.ClaimRecord, error)
}

// PoolSettingsRepository defines the interface for the pool settings row
type PoolSettingsRepository interface {
	// Get returns the stored settings; nil if never initialized
	Get(ctx context.Context) (*entities.PoolSettings, error)

	// Initialize stores defaults unless settings exist and returns the stored row
	Initialize(ctx context.Context, defaults *entities.PoolSettings) (*entities.PoolSettings, error)

	// Update persists the settings
	Update(ctx context.Context, settings *entities.PoolSettings) error
}

// BonusAssetRepository defines the interface for the bonus asset registry
type BonusAssetRepository interface {
	// Add registers an asset; returns false if it was already present
	Add(ctx context.Context, asset *entities.BonusAsset) (bool, error)

	// Remove deletes an asset; returns false if it was not registered
	Remove(ctx context.Context, assetID string) (bool, error)

	// List returns registered assets in insertion order
	List(ctx context.Context) ([]*entities.BonusAsset, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding unit of work commits
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}

package application

import (
	"context"

	"prizepool/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	// Repository getters
	EpochRepository() interfaces.EpochRepository
	TicketRangeRepository() interfaces.TicketRangeRepository
	ClaimRepository() interfaces.ClaimRepository
	PoolSettingsRepository() interfaces.PoolSettingsRepository
	BonusAssetRepository() interfaces.BonusAssetRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

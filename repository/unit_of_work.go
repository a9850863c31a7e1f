package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prizepool/application"
	"prizepool/database"
	"prizepool/domain/interfaces"
	"prizepool/infrastructure/observability"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

var (
	_ interfaces.EpochRepository        = (*EpochRepository)(nil)
	_ interfaces.TicketRangeRepository  = (*TicketRangeRepository)(nil)
	_ interfaces.ClaimRepository        = (*ClaimRepository)(nil)
	_ interfaces.PoolSettingsRepository = (*PoolSettingsRepository)(nil)
	_ interfaces.BonusAssetRepository   = (*BonusAssetRepository)(nil)
)

// unitOfWork implements application.UnitOfWork over one pgx transaction
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	startedAt              time.Time
	transactionalPublisher interfaces.TransactionalEventPublisher
	epochRepo              interfaces.EpochRepository
	ticketRangeRepo        interfaces.TicketRangeRepository
	claimRepo              interfaces.ClaimRepository
	poolSettingsRepo       interfaces.PoolSettingsRepository
	bonusAssetRepo         interfaces.BonusAssetRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{db: db}
}

// UnitOfWorkFactory creates Postgres-backed units of work
type UnitOfWorkFactory struct {
	db *database.DB
}

// CreateWithPublisher creates a new UnitOfWork with a specific transactional publisher
func (f *UnitOfWorkFactory) CreateWithPublisher(transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: transactionalPublisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx
	u.startedAt = time.Now()

	u.epochRepo = newEpochRepositoryWithTx(tx)
	u.ticketRangeRepo = newTicketRangeRepositoryWithTx(tx)
	u.claimRepo = newClaimRepositoryWithTx(tx)
	u.poolSettingsRepo = newPoolSettingsRepositoryWithTx(tx)
	u.bonusAssetRepo = newBonusAssetRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil
	observability.GetMetrics().RecordDatabaseTransaction("commit", time.Since(u.startedAt))

	if u.transactionalPublisher != nil {
		if err := u.transactionalPublisher.Flush(u.ctx); err != nil {
			log.WithError(err).Warn("Failed to flush events after commit")
		}
	}

	return nil
}

// Rollback rolls back the transaction and discards pending events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil
	observability.GetMetrics().RecordDatabaseTransaction("rollback", time.Since(u.startedAt))

	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	return nil
}

// EpochRepository returns the epoch repository for this unit of work
func (u *unitOfWork) EpochRepository() interfaces.EpochRepository {
	if u.epochRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.epochRepo
}

// TicketRangeRepository returns the ticket range repository for this unit of work
func (u *unitOfWork) TicketRangeRepository() interfaces.TicketRangeRepository {
	if u.ticketRangeRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ticketRangeRepo
}

// ClaimRepository returns the claim repository for this unit of work
func (u *unitOfWork) ClaimRepository() interfaces.ClaimRepository {
	if u.claimRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.claimRepo
}

// PoolSettingsRepository returns the pool settings repository for this unit of work
func (u *unitOfWork) PoolSettingsRepository() interfaces.PoolSettingsRepository {
	if u.poolSettingsRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.poolSettingsRepo
}

// BonusAssetRepository returns the bonus asset repository for this unit of work
func (u *unitOfWork) BonusAssetRepository() interfaces.BonusAssetRepository {
	if u.bonusAssetRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.bonusAssetRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalPublisher
}

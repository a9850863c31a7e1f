package memory

import (
	"context"
	"fmt"

	"prizepool/application"
	"prizepool/domain/interfaces"
)

// UnitOfWorkFactory creates units of work over a Store
type UnitOfWorkFactory struct {
	store *Store
}

// NewUnitOfWorkFactory creates a new in-memory UnitOfWork factory
func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

// CreateWithPublisher creates a new UnitOfWork flushing to the given publisher on commit
func (f *UnitOfWorkFactory) CreateWithPublisher(transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		store:                  f.store,
		transactionalPublisher: transactionalPublisher,
	}
}

// unitOfWork holds the store lock from Begin until Commit or Rollback,
// which serializes units of work the way row locks do in Postgres
type unitOfWork struct {
	store                  *Store
	working                *state
	ctx                    context.Context
	transactionalPublisher interfaces.TransactionalEventPublisher
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.working != nil {
		return fmt.Errorf("transaction already started")
	}

	u.store.mu.Lock()
	u.working = u.store.state.clone()
	u.ctx = ctx
	return nil
}

// Commit publishes the working copy and flushes buffered events
func (u *unitOfWork) Commit() error {
	if u.working == nil {
		return fmt.Errorf("no transaction to commit")
	}

	u.store.state = u.working
	u.working = nil
	u.store.mu.Unlock()

	if u.transactionalPublisher != nil {
		_ = u.transactionalPublisher.Flush(u.ctx)
	}
	return nil
}

// Rollback discards the working copy and buffered events
func (u *unitOfWork) Rollback() error {
	if u.working == nil {
		return nil
	}

	u.working = nil
	u.store.mu.Unlock()

	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}
	return nil
}

func (u *unitOfWork) mustBegin() *state {
	if u.working == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.working
}

func (u *unitOfWork) EpochRepository() interfaces.EpochRepository {
	return &epochRepository{st: u.mustBegin()}
}

func (u *unitOfWork) TicketRangeRepository() interfaces.TicketRangeRepository {
	return &ticketRangeRepository{st: u.mustBegin()}
}

func (u *unitOfWork) ClaimRepository() interfaces.ClaimRepository {
	return &claimRepository{st: u.mustBegin()}
}

func (u *unitOfWork) PoolSettingsRepository() interfaces.PoolSettingsRepository {
	return &poolSettingsRepository{st: u.mustBegin()}
}

func (u *unitOfWork) BonusAssetRepository() interfaces.BonusAssetRepository {
	return &bonusAssetRepository{st: u.mustBegin()}
}

// EventBus returns the transactional event publisher
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("transactional publisher not configured")
	}
	return u.transactionalPublisher
}

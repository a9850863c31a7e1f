package infrastructure

import (
	"prizepool/application"
	"prizepool/domain/interfaces"
)

// RepositoryUnitOfWorkFactory is implemented by the Postgres and in-memory repository layers
type RepositoryUnitOfWorkFactory interface {
	CreateWithPublisher(transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork
}

// UnitOfWorkFactory gives every unit of work its own transactional publisher
type UnitOfWorkFactory struct {
	repoFactory    RepositoryUnitOfWorkFactory
	eventPublisher interfaces.EventPublisher
}

// NewUnitOfWorkFactory creates a new UnitOfWorkFactory
func NewUnitOfWorkFactory(repoFactory RepositoryUnitOfWorkFactory, eventPublisher interfaces.EventPublisher) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		repoFactory:    repoFactory,
		eventPublisher: eventPublisher,
	}
}

// Create creates a new UnitOfWork with a transactional event publisher
func (f *UnitOfWorkFactory) Create() application.UnitOfWork {
	return f.repoFactory.CreateWithPublisher(NewNATSTransactionalPublisher(f.eventPublisher))
}

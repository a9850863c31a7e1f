package testhelpers

import (
	"context"
	"time"

	"prizepool/domain/entities"
	"prizepool/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockEpochRepository is a mock implementation of EpochRepository
type MockEpochRepository struct {
	mock.Mock
}

func (m *MockEpochRepository) Create(ctx context.Context, epoch *entities.Epoch) error {
	args := m.Called(ctx, epoch)
	return args.Error(0)
}

func (m *MockEpochRepository) GetByID(ctx context.Context, id int64) (*entities.Epoch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Epoch), args.Error(1)
}

func (m *MockEpochRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Epoch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Epoch), args.Error(1)
}

func (m *MockEpochRepository) GetActive(ctx context.Context) (*entities.Epoch, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Epoch), args.Error(1)
}

func (m *MockEpochRepository) GetLatestConcluded(ctx context.Context) (*entities.Epoch, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Epoch), args.Error(1)
}

func (m *MockEpochRepository) GetRecent(ctx context.Context, limit int) ([]*entities.Epoch, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Epoch), args.Error(1)
}

func (m *MockEpochRepository) GetLockedConcludedBefore(ctx context.Context, before time.Time) ([]*entities.Epoch, error) {
	args := m.Called(ctx, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Epoch), args.Error(1)
}

func (m *MockEpochRepository) Update(ctx context.Context, epoch *entities.Epoch) error {
	args := m.Called(ctx, epoch)
	return args.Error(0)
}

// MockTicketRangeRepository is a mock implementation of TicketRangeRepository
type MockTicketRangeRepository struct {
	mock.Mock
}

func (m *MockTicketRangeRepository) Append(ctx context.Context, r *entities.TicketRange) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockTicketRangeRepository) GetByParticipant(ctx context.Context, epochID int64, participant string) (entities.TicketSet, error) {
	args := m.Called(ctx, epochID, participant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entities.TicketSet), args.Error(1)
}

func (m *MockTicketRangeRepository) GetByEpoch(ctx context.Context, epochID int64) ([]*entities.TicketRange, error) {
	args := m.Called(ctx, epochID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.TicketRange), args.Error(1)
}

func (m *MockTicketRangeRepository) CountByParticipant(ctx context.Context, epochID int64, participant string) (int, error) {
	args := m.Called(ctx, epochID, participant)
	return args.Int(0), args.Error(1)
}

func (m *MockTicketRangeRepository) FindOwner(ctx context.Context, epochID int64, ticketID uint64) (*entities.TicketRange, error) {
	args := m.Called(ctx, epochID, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TicketRange), args.Error(1)
}

func (m *MockTicketRangeRepository) GetParticipantSummary(ctx context.Context, epochID int64) ([]*entities.ParticipantSummary, error) {
	args := m.Called(ctx, epochID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ParticipantSummary), args.Error(1)
}

// MockClaimRepository is a mock implementation of ClaimRepository
type MockClaimRepository struct {
	mock.Mock
}

func (m *MockClaimRepository) Insert(ctx context.Context, record *entities.ClaimRecord) (bool, error) {
	args := m.Called(ctx, record)
	return args.Bool(0), args.Error(1)
}

func (m *MockClaimRepository) Get(ctx context.Context, epochID int64, participant string) (*entities.ClaimRecord, error) {
	args := m.Called(ctx, epochID, participant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ClaimRecord), args.Error(1)
}

func (m *MockClaimRepository) GetByEpoch(ctx context.Context, epochID int64) ([]*entities.ClaimRecord, error) {
	args := m.Called(ctx, epochID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ClaimRecord), args.Error(1)
}

// MockPoolSettingsRepository is a mock implementation of PoolSettingsRepository
type MockPoolSettingsRepository struct {
	mock.Mock
}

func (m *MockPoolSettingsRepository) Get(ctx context.Context) (*entities.PoolSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PoolSettings), args.Error(1)
}

func (m *MockPoolSettingsRepository) Initialize(ctx context.Context, defaults *entities.PoolSettings) (*entities.PoolSettings, error) {
	args := m.Called(ctx, defaults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PoolSettings), args.Error(1)
}

func (m *MockPoolSettingsRepository) Update(ctx context.Context, settings *entities.PoolSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

// MockBonusAssetRepository is a mock implementation of BonusAssetRepository
type MockBonusAssetRepository struct {
	mock.Mock
}

func (m *MockBonusAssetRepository) Add(ctx context.Context, asset *entities.BonusAsset) (bool, error) {
	args := m.Called(ctx, asset)
	return args.Bool(0), args.Error(1)
}

func (m *MockBonusAssetRepository) Remove(ctx context.Context, assetID string) (bool, error) {
	args := m.Called(ctx, assetID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBonusAssetRepository) List(ctx context.Context) ([]*entities.BonusAsset, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BonusAsset), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

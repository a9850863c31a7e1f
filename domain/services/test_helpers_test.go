package services

import (
	"context"
	"testing"
	"time"

	"prizepool/domain/entities"
	"prizepool/domain/testhelpers"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/mock"
)

const (
	testPoolAccount = "pool"
	testAuthority   = "999999"
	testParticipant = "111111"
)

var testStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// TestMocks holds all mocks for easy access
type TestMocks struct {
	EpochRepo      *testhelpers.MockEpochRepository
	RangeRepo      *testhelpers.MockTicketRangeRepository
	ClaimRepo      *testhelpers.MockClaimRepository
	SettingsRepo   *testhelpers.MockPoolSettingsRepository
	BonusRepo      *testhelpers.MockBonusAssetRepository
	Asset          *testhelpers.MockAssetTransfer
	Assets         *testhelpers.MockAssetDirectory
	Staking        *testhelpers.MockStakingAdapter
	Randomness     *testhelpers.MockRandomnessSource
	EventPublisher *testhelpers.MockEventPublisher
	Clock          *testhelpers.FixedClock
}

// NewTestMocks creates a new set of mocks
func NewTestMocks() *TestMocks {
	return &TestMocks{
		EpochRepo:      new(testhelpers.MockEpochRepository),
		RangeRepo:      new(testhelpers.MockTicketRangeRepository),
		ClaimRepo:      new(testhelpers.MockClaimRepository),
		SettingsRepo:   new(testhelpers.MockPoolSettingsRepository),
		BonusRepo:      new(testhelpers.MockBonusAssetRepository),
		Asset:          new(testhelpers.MockAssetTransfer),
		Assets:         new(testhelpers.MockAssetDirectory),
		Staking:        new(testhelpers.MockStakingAdapter),
		Randomness:     new(testhelpers.MockRandomnessSource),
		EventPublisher: new(testhelpers.MockEventPublisher),
		Clock:          &testhelpers.FixedClock{At: testStart.Add(10 * time.Minute)},
	}
}

// AssertAllExpectations asserts all mock expectations
func (m *TestMocks) AssertAllExpectations(t *testing.T) {
	m.EpochRepo.AssertExpectations(t)
	m.RangeRepo.AssertExpectations(t)
	m.ClaimRepo.AssertExpectations(t)
	m.SettingsRepo.AssertExpectations(t)
	m.BonusRepo.AssertExpectations(t)
	m.Asset.AssertExpectations(t)
	m.Assets.AssertExpectations(t)
	m.Staking.AssertExpectations(t)
	m.Randomness.AssertExpectations(t)
	m.EventPublisher.AssertExpectations(t)
}

func (m *TestMocks) ledger() *ticketLedger {
	return NewTicketLedger(m.EpochRepo, m.RangeRepo, m.SettingsRepo, m.Asset, m.Staking, m.Clock, m.EventPublisher, LedgerConfig{
		PoolAccount:             testPoolAccount,
		MaxRangesPerParticipant: 4,
	}).(*ticketLedger)
}

func (m *TestMocks) epochService() *epochService {
	selector := NewWinnerSelector(m.Randomness)
	return NewEpochService(m.EpochRepo, m.RangeRepo, m.SettingsRepo, selector, m.Staking, m.Clock, m.EventPublisher, testPoolAccount).(*epochService)
}

func (m *TestMocks) settlementService() *settlementService {
	return NewSettlementService(m.EpochRepo, m.RangeRepo, m.ClaimRepo, m.SettingsRepo, m.BonusRepo, m.Asset, m.Assets, m.Clock, m.EventPublisher, testPoolAccount).(*settlementService)
}

func (m *TestMocks) adminService() *adminService {
	return NewAdminService(m.SettingsRepo, m.BonusRepo, m.Assets, m.Clock, m.EventPublisher, AdminConfig{
		UnderlyingAssetID: "USDC",
		MaxBonusAssets:    2,
	}).(*adminService)
}

func (m *TestMocks) expectSettings(ctx context.Context, paused bool) *entities.PoolSettings {
	settings := testSettings()
	settings.Paused = paused
	m.SettingsRepo.On("Get", ctx).Return(settings, nil)
	return settings
}

func (m *TestMocks) expectPublish(eventType string) {
	m.EventPublisher.On("Publish", mock.AnythingOfType(eventType)).Return(nil).Once()
}

func testSettings() *entities.PoolSettings {
	return &entities.PoolSettings{
		Authority:   testAuthority,
		TicketPrice: sdkmath.NewInt(200),
		OpenWindow:  time.Hour,
	}
}

// activeEpoch returns an epoch started at testStart that has sold sold tickets at 200
func activeEpoch(id int64, sold uint64) *entities.Epoch {
	epoch := entities.NewEpoch(testStart, sdkmath.NewInt(200), time.Hour)
	epoch.ID = id
	epoch.InitialPrincipal = sdkmath.NewIntFromUint64(sold * 200)
	return epoch
}

// endedEpoch returns a concluded epoch with the given winner and final balance
func endedEpoch(id int64, sold, winner uint64, finalBalance int64, unlocked bool) *entities.Epoch {
	epoch := activeEpoch(id, sold)
	end := testStart.Add(time.Hour)
	epoch.Status = entities.EpochStatusEnded
	epoch.EndTime = &end
	epoch.WinningTicketID = &winner
	epoch.FinalBalance = sdkmath.NewInt(finalBalance)
	epoch.WithdrawalOpen = unlocked
	return epoch
}

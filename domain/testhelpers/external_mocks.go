package testhelpers

import (
	"context"
	"time"

	"prizepool/domain/interfaces"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/mock"
)

// MockAssetTransfer is a mock implementation of AssetTransfer
type MockAssetTransfer struct {
	mock.Mock
}

func (m *MockAssetTransfer) TransferFrom(ctx context.Context, from, to string, amount sdkmath.Int) error {
	args := m.Called(ctx, from, to, amount)
	return args.Error(0)
}

func (m *MockAssetTransfer) Transfer(ctx context.Context, to string, amount sdkmath.Int) error {
	args := m.Called(ctx, to, amount)
	return args.Error(0)
}

func (m *MockAssetTransfer) BalanceOf(ctx context.Context, holder string) (sdkmath.Int, error) {
	args := m.Called(ctx, holder)
	return args.Get(0).(sdkmath.Int), args.Error(1)
}

func (m *MockAssetTransfer) Approve(ctx context.Context, spender string, amount sdkmath.Int) error {
	args := m.Called(ctx, spender, amount)
	return args.Error(0)
}

// MockAssetDirectory is a mock implementation of AssetDirectory
type MockAssetDirectory struct {
	mock.Mock
}

func (m *MockAssetDirectory) Asset(assetID string) (interfaces.AssetTransfer, error) {
	args := m.Called(assetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(interfaces.AssetTransfer), args.Error(1)
}

// MockStakingAdapter is a mock implementation of StakingAdapter
type MockStakingAdapter struct {
	mock.Mock
}

func (m *MockStakingAdapter) Stake(ctx context.Context, amount sdkmath.Int) error {
	args := m.Called(ctx, amount)
	return args.Error(0)
}

func (m *MockStakingAdapter) UnstakeAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStakingAdapter) WithdrawAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStakingAdapter) GetUserShares(ctx context.Context, holder string) (sdkmath.Int, error) {
	args := m.Called(ctx, holder)
	return args.Get(0).(sdkmath.Int), args.Error(1)
}

func (m *MockStakingAdapter) GetTotalStakedPrincipal(ctx context.Context) (sdkmath.Int, error) {
	args := m.Called(ctx)
	return args.Get(0).(sdkmath.Int), args.Error(1)
}

func (m *MockStakingAdapter) GetTotalShares(ctx context.Context) (sdkmath.Int, error) {
	args := m.Called(ctx)
	return args.Get(0).(sdkmath.Int), args.Error(1)
}

// MockRandomnessSource is a mock implementation of RandomnessSource
type MockRandomnessSource struct {
	mock.Mock
}

func (m *MockRandomnessSource) FetchRandom(ctx context.Context) (sdkmath.Int, error) {
	args := m.Called(ctx)
	return args.Get(0).(sdkmath.Int), args.Error(1)
}

// FixedClock is a Clock returning a settable instant
type FixedClock struct {
	At time.Time
}

func (c *FixedClock) Now() time.Time {
	return c.At
}

// Advance moves the clock forward
func (c *FixedClock) Advance(d time.Duration) {
	c.At = c.At.Add(d)
}

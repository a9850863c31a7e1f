package interfaces

import (
	"context"
	"time"

	sdkmath "cosmossdk.io/math"
)

// AssetTransfer moves a fungible asset on behalf of the account it is bound to.
// Every call is atomic; insufficient balance or allowance is an error.
type AssetTransfer interface {
	// TransferFrom moves amount from one holder to another using the bound
	// account's allowance from the source
	TransferFrom(ctx context.Context, from, to string, amount sdkmath.Int) error

	// Transfer moves amount from the bound account to the recipient
	Transfer(ctx context.Context, to string, amount sdkmath.Int) error

	// BalanceOf returns the holder's balance
	BalanceOf(ctx context.Context, holder string) (sdkmath.Int, error)

	// Approve sets the allowance the spender may draw from the bound account
	Approve(ctx context.Context, spender string, amount sdkmath.Int) error
}

// AssetDirectory resolves bonus asset identifiers to transfer handles bound to the pool
type AssetDirectory interface {
	Asset(assetID string) (AssetTransfer, error)
}

// StakingAdapter manages the pool's yield-bearing position
type StakingAdapter interface {
	Stake(ctx context.Context, amount sdkmath.Int) error
	UnstakeAll(ctx context.Context) error
	WithdrawAll(ctx context.Context) error
	GetUserShares(ctx context.Context, holder string) (sdkmath.Int, error)
	GetTotalStakedPrincipal(ctx context.Context) (sdkmath.Int, error)
	GetTotalShares(ctx context.Context) (sdkmath.Int, error)
}

// RandomnessSource supplies one uniformly distributed 256-bit value per call
type RandomnessSource interface {
	FetchRandom(ctx context.Context) (sdkmath.Int, error)
}

// Clock supplies the current time for window gating
type Clock interface {
	Now() time.Time
}

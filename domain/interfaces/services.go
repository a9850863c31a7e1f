package interfaces

import (
	"context"
	"time"

	"prizepool/domain/entities"

	sdkmath "cosmossdk.io/math"
)

// TicketLedger allocates ticket ranges in the active epoch
type TicketLedger interface {
	// Purchase collects payment for count tickets and assigns the next range
	Purchase(ctx context.Context, participant string, count uint64) (*TicketPurchaseResult, error)

	// GetParticipantRanges returns a participant's ranges in purchase order
	GetParticipantRanges(ctx context.Context, epochID int64, participant string) (entities.TicketSet, error)

	// GetParticipantSummary aggregates holdings for an epoch
	GetParticipantSummary(ctx context.Context, epochID int64) ([]*entities.ParticipantSummary, error)
}

// EpochService drives the epoch state machine
type EpochService interface {
	Open(ctx context.Context) (*entities.Epoch, error)
	Conclude(ctx context.Context, epochID int64) (*EpochConclusion, error)
	UnlockWithdrawal(ctx context.Context, epochID int64) (*entities.Epoch, error)
	RestartWindow(ctx context.Context, epochID int64) (*entities.Epoch, error)

	GetEpoch(ctx context.Context, epochID int64) (*entities.Epoch, error)
	GetActiveEpoch(ctx context.Context) (*entities.Epoch, error)
	GetLatestConcluded(ctx context.Context) (*entities.Epoch, error)
	GetRecentEpochs(ctx context.Context, limit int) ([]*entities.Epoch, error)
	GetEpochsAwaitingUnlock(ctx context.Context, concludedBefore time.Time) ([]*entities.Epoch, error)
}

// WinnerSelector draws the winning ticket id of an epoch
type WinnerSelector interface {
	SelectWinner(ctx context.Context, epoch *entities.Epoch) (uint64, error)
}

// SettlementService pays refunds and prizes exactly once per participant
type SettlementService interface {
	// Claim pays the participant's refund, and the prize plus bonus sweep if they won
	Claim(ctx context.Context, epochID int64, participant string) (*entities.Payout, error)

	// ClaimLatest claims against the most recently concluded epoch
	ClaimLatest(ctx context.Context, participant string) (*entities.Payout, error)

	// PreviewPayout computes what a claim would pay without paying it
	PreviewPayout(ctx context.Context, epochID int64, participant string) (*entities.Payout, error)

	// GetClaim returns the claim record; nil if unclaimed
	GetClaim(ctx context.Context, epochID int64, participant string) (*entities.ClaimRecord, error)
}

// AdminService manages pool settings and the bonus asset registry
type AdminService interface {
	GetSettings(ctx context.Context) (*entities.PoolSettings, error)
	Authorize(ctx context.Context, cred entities.Credential) error

	SetTicketPrice(ctx context.Context, cred entities.Credential, price sdkmath.Int) (*entities.PoolSettings, error)
	SetOpenWindow(ctx context.Context, cred entities.Credential, window time.Duration) (*entities.PoolSettings, error)
	SetPaused(ctx context.Context, cred entities.Credential, paused bool) (*entities.PoolSettings, error)
	TransferAuthority(ctx context.Context, cred entities.Credential, newAuthority string) (*entities.PoolSettings, error)

	AddBonusAsset(ctx context.Context, cred entities.Credential, assetID string) (*entities.BonusAsset, error)
	RemoveBonusAsset(ctx context.Context, cred entities.Credential, assetID string) error
	ListBonusAssets(ctx context.Context) ([]*entities.BonusAsset, error)
}

// TicketPurchaseResult contains the results of a ticket purchase
type TicketPurchaseResult struct {
	Epoch *entities.Epoch
	Range *entities.TicketRange
	Cost  sdkmath.Int
}

// EpochConclusion contains the concluded epoch and the drawn winner
type EpochConclusion struct {
	Epoch  *entities.Epoch
	Winner *entities.TicketRange
}

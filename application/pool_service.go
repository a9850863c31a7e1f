package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"prizepool/domain"
	"prizepool/domain/entities"
	"prizepool/domain/interfaces"
	"prizepool/domain/services"
	"prizepool/infrastructure/observability"

	sdkmath "cosmossdk.io/math"
	log "github.com/sirupsen/logrus"
)

// ParticipantFunder prepares a participant's wallet before a purchase is collected
type ParticipantFunder interface {
	Prepare(ctx context.Context, participant string, amount sdkmath.Int) error
}

// PoolConfig holds the static wiring of a PoolService
type PoolConfig struct {
	PoolAccount             string
	UnderlyingAssetID       string
	MaxRangesPerParticipant int
	MaxBonusAssets          int
}

// PoolDependencies are the external systems the pool acts through
type PoolDependencies struct {
	Asset      interfaces.AssetTransfer // bound to the pool account
	Assets     interfaces.AssetDirectory
	Staking    interfaces.StakingAdapter
	Randomness interfaces.RandomnessSource
	Clock      interfaces.Clock
	Funder     ParticipantFunder // optional
}

// PoolService serializes every state-changing pool operation and runs each
// one inside its own unit of work
type PoolService struct {
	mu         sync.Mutex
	uowFactory UnitOfWorkFactory
	deps       PoolDependencies
	config     PoolConfig
}

// NewPoolService creates a new pool service
func NewPoolService(uowFactory UnitOfWorkFactory, deps PoolDependencies, config PoolConfig) *PoolService {
	return &PoolService{
		uowFactory: uowFactory,
		deps:       deps,
		config:     config,
	}
}

// poolServices are the domain services bound to one unit of work
type poolServices struct {
	uow        UnitOfWork
	ledger     interfaces.TicketLedger
	epochs     interfaces.EpochService
	settlement interfaces.SettlementService
	admin      interfaces.AdminService
}

func (s *PoolService) servicesFor(uow UnitOfWork) *poolServices {
	epochRepo := uow.EpochRepository()
	rangeRepo := uow.TicketRangeRepository()
	settingsRepo := uow.PoolSettingsRepository()
	bonusRepo := uow.BonusAssetRepository()
	bus := uow.EventBus()

	return &poolServices{
		uow: uow,
		ledger: services.NewTicketLedger(epochRepo, rangeRepo, settingsRepo, s.deps.Asset, s.deps.Staking, s.deps.Clock, bus, services.LedgerConfig{
			PoolAccount:             s.config.PoolAccount,
			MaxRangesPerParticipant: s.config.MaxRangesPerParticipant,
		}),
		epochs: services.NewEpochService(epochRepo, rangeRepo, settingsRepo,
			services.NewWinnerSelector(s.deps.Randomness), s.deps.Staking, s.deps.Clock, bus, s.config.PoolAccount),
		settlement: services.NewSettlementService(epochRepo, rangeRepo, uow.ClaimRepository(), settingsRepo, bonusRepo,
			s.deps.Asset, s.deps.Assets, s.deps.Clock, bus, s.config.PoolAccount),
		admin: services.NewAdminService(settingsRepo, bonusRepo, s.deps.Assets, s.deps.Clock, bus, services.AdminConfig{
			UnderlyingAssetID: s.config.UnderlyingAssetID,
			MaxBonusAssets:    s.config.MaxBonusAssets,
		}),
	}
}

// mutate runs fn under the actor lock in a unit of work that commits only if fn succeeds
func (s *PoolService) mutate(ctx context.Context, operation string, fn func(*poolServices) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withUnitOfWork(ctx, fn)
	if err != nil {
		observability.GetMetrics().RecordOperationError(operation, errorKind(err))
		log.WithError(err).WithField("operation", operation).Debug("Pool operation failed")
	}
	return err
}

// query runs fn in a unit of work that is always rolled back
func (s *PoolService) query(ctx context.Context, fn func(*poolServices) error) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return fn(s.servicesFor(uow))
}

func (s *PoolService) withUnitOfWork(ctx context.Context, fn func(*poolServices) error) (err error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			uow.Rollback()
			panic(r)
		}
		if err != nil {
			if rbErr := uow.Rollback(); rbErr != nil {
				log.WithError(rbErr).Error("Failed to roll back unit of work")
			}
		}
	}()

	if err = fn(s.servicesFor(uow)); err != nil {
		return err
	}
	if err = uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Initialize seeds the pool settings if none are stored yet
func (s *PoolService) Initialize(ctx context.Context, defaults *entities.PoolSettings) (*entities.PoolSettings, error) {
	if err := defaults.Validate(); err != nil {
		return nil, err
	}

	var settings *entities.PoolSettings
	err := s.mutate(ctx, "initialize", func(svc *poolServices) error {
		var err error
		settings, err = svc.uow.PoolSettingsRepository().Initialize(ctx, defaults)
		if err != nil {
			return fmt.Errorf("failed to initialize pool settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"authority":   settings.Authority,
		"ticketPrice": settings.TicketPrice.String(),
		"openWindow":  settings.OpenWindow,
		"paused":      settings.Paused,
	}).Info("Pool settings loaded")
	return settings, nil
}

// BuyTickets purchases count tickets in the active epoch for participant
func (s *PoolService) BuyTickets(ctx context.Context, participant string, count uint64) (*interfaces.TicketPurchaseResult, error) {
	var result *interfaces.TicketPurchaseResult
	err := s.mutate(ctx, "buy_tickets", func(svc *poolServices) error {
		if s.deps.Funder != nil {
			if err := s.fund(ctx, svc.uow, participant, count); err != nil {
				return err
			}
		}

		var err error
		result, err = svc.ledger.Purchase(ctx, participant, count)
		return err
	})
	if err != nil {
		observability.GetMetrics().RecordTicketPurchase(count, "failure")
		return nil, err
	}

	observability.GetMetrics().RecordTicketPurchase(count, "success")
	return result, nil
}

// fund approves the pool for the cost of the purchase at the active epoch's price
func (s *PoolService) fund(ctx context.Context, uow UnitOfWork, participant string, count uint64) error {
	active, err := uow.EpochRepository().GetActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to get active epoch: %w", err)
	}
	if active == nil {
		return nil
	}

	cost, err := active.SaleCost(count)
	if err != nil {
		return err
	}
	if err := s.deps.Funder.Prepare(ctx, participant, cost); err != nil {
		return fmt.Errorf("failed to prepare participant wallet: %w", err)
	}
	return nil
}

// OpenEpoch starts a new epoch with the current settings
func (s *PoolService) OpenEpoch(ctx context.Context, cred entities.Credential) (*entities.Epoch, error) {
	var epoch *entities.Epoch
	err := s.mutate(ctx, "open_epoch", func(svc *poolServices) error {
		if err := svc.admin.Authorize(ctx, cred); err != nil {
			return err
		}
		var err error
		epoch, err = svc.epochs.Open(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.GetMetrics().RecordEpochTransition(observability.TransitionOpened)
	return epoch, nil
}

// ConcludeEpoch draws the winner of an epoch and starts unstaking its position
func (s *PoolService) ConcludeEpoch(ctx context.Context, cred entities.Credential, epochID int64) (*interfaces.EpochConclusion, error) {
	var conclusion *interfaces.EpochConclusion
	err := s.mutate(ctx, "conclude_epoch", func(svc *poolServices) error {
		if err := svc.admin.Authorize(ctx, cred); err != nil {
			return err
		}
		var err error
		conclusion, err = svc.epochs.Conclude(ctx, epochID)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.GetMetrics().RecordEpochTransition(observability.TransitionConcluded)
	return conclusion, nil
}

// UnlockWithdrawal opens claims for a concluded epoch
func (s *PoolService) UnlockWithdrawal(ctx context.Context, cred entities.Credential, epochID int64) (*entities.Epoch, error) {
	var epoch *entities.Epoch
	err := s.mutate(ctx, "unlock_withdrawal", func(svc *poolServices) error {
		if err := svc.admin.Authorize(ctx, cred); err != nil {
			return err
		}
		var err error
		epoch, err = svc.epochs.UnlockWithdrawal(ctx, epochID)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.GetMetrics().RecordEpochTransition(observability.TransitionWithdrawalUnlock)
	return epoch, nil
}

// RestartWindow reopens the purchase window of an epoch that sold nothing
func (s *PoolService) RestartWindow(ctx context.Context, cred entities.Credential, epochID int64) (*entities.Epoch, error) {
	var epoch *entities.Epoch
	err := s.mutate(ctx, "restart_window", func(svc *poolServices) error {
		if err := svc.admin.Authorize(ctx, cred); err != nil {
			return err
		}
		var err error
		epoch, err = svc.epochs.RestartWindow(ctx, epochID)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.GetMetrics().RecordEpochTransition(observability.TransitionWindowRestarted)
	return epoch, nil
}

// Claim pays out a participant's share of an epoch
func (s *PoolService) Claim(ctx context.Context, epochID int64, participant string) (*entities.Payout, error) {
	return s.claim(ctx, func(svc *poolServices) (*entities.Payout, error) {
		return svc.settlement.Claim(ctx, epochID, participant)
	})
}

// ClaimLatest pays out a participant's share of the most recently concluded epoch
func (s *PoolService) ClaimLatest(ctx context.Context, participant string) (*entities.Payout, error) {
	return s.claim(ctx, func(svc *poolServices) (*entities.Payout, error) {
		return svc.settlement.ClaimLatest(ctx, participant)
	})
}

func (s *PoolService) claim(ctx context.Context, fn func(*poolServices) (*entities.Payout, error)) (*entities.Payout, error) {
	var payout *entities.Payout
	err := s.mutate(ctx, "claim", func(svc *poolServices) error {
		var err error
		payout, err = fn(svc)
		return err
	})
	if err != nil {
		return nil, err
	}

	claimType := observability.ClaimTypeParticipant
	if payout.IsWinner {
		claimType = observability.ClaimTypeWinner
	}
	observability.GetMetrics().RecordClaimPaid(claimType)
	return payout, nil
}

// SetTicketPrice changes the price used by the next epoch
func (s *PoolService) SetTicketPrice(ctx context.Context, cred entities.Credential, price sdkmath.Int) (*entities.PoolSettings, error) {
	return s.changeSettings(ctx, "set_ticket_price", func(admin interfaces.AdminService) (*entities.PoolSettings, error) {
		return admin.SetTicketPrice(ctx, cred, price)
	})
}

// SetOpenWindow changes the purchase window used by the next epoch
func (s *PoolService) SetOpenWindow(ctx context.Context, cred entities.Credential, window time.Duration) (*entities.PoolSettings, error) {
	return s.changeSettings(ctx, "set_open_window", func(admin interfaces.AdminService) (*entities.PoolSettings, error) {
		return admin.SetOpenWindow(ctx, cred, window)
	})
}

// SetPaused suspends or resumes the pool
func (s *PoolService) SetPaused(ctx context.Context, cred entities.Credential, paused bool) (*entities.PoolSettings, error) {
	return s.changeSettings(ctx, "set_paused", func(admin interfaces.AdminService) (*entities.PoolSettings, error) {
		return admin.SetPaused(ctx, cred, paused)
	})
}

// TransferAuthority hands the pool authority to another subject
func (s *PoolService) TransferAuthority(ctx context.Context, cred entities.Credential, newAuthority string) (*entities.PoolSettings, error) {
	return s.changeSettings(ctx, "transfer_authority", func(admin interfaces.AdminService) (*entities.PoolSettings, error) {
		return admin.TransferAuthority(ctx, cred, newAuthority)
	})
}

func (s *PoolService) changeSettings(ctx context.Context, operation string, fn func(interfaces.AdminService) (*entities.PoolSettings, error)) (*entities.PoolSettings, error) {
	var settings *entities.PoolSettings
	err := s.mutate(ctx, operation, func(svc *poolServices) error {
		var err error
		settings, err = fn(svc.admin)
		return err
	})
	return settings, err
}

// AddBonusAsset registers a bonus asset swept to winners
func (s *PoolService) AddBonusAsset(ctx context.Context, cred entities.Credential, assetID string) (*entities.BonusAsset, error) {
	var asset *entities.BonusAsset
	err := s.mutate(ctx, "add_bonus_asset", func(svc *poolServices) error {
		var err error
		asset, err = svc.admin.AddBonusAsset(ctx, cred, assetID)
		return err
	})
	return asset, err
}

// RemoveBonusAsset unregisters a bonus asset
func (s *PoolService) RemoveBonusAsset(ctx context.Context, cred entities.Credential, assetID string) error {
	return s.mutate(ctx, "remove_bonus_asset", func(svc *poolServices) error {
		return svc.admin.RemoveBonusAsset(ctx, cred, assetID)
	})
}

// GetSettings returns the pool settings
func (s *PoolService) GetSettings(ctx context.Context) (*entities.PoolSettings, error) {
	var settings *entities.PoolSettings
	err := s.query(ctx, func(svc *poolServices) error {
		var err error
		settings, err = svc.admin.GetSettings(ctx)
		return err
	})
	return settings, err
}

// ListBonusAssets returns the registered bonus assets
func (s *PoolService) ListBonusAssets(ctx context.Context) ([]*entities.BonusAsset, error) {
	var assets []*entities.BonusAsset
	err := s.query(ctx, func(svc *poolServices) error {
		var err error
		assets, err = svc.admin.ListBonusAssets(ctx)
		return err
	})
	return assets, err
}

// GetEpoch returns an epoch by id
func (s *PoolService) GetEpoch(ctx context.Context, epochID int64) (*entities.Epoch, error) {
	var epoch *entities.Epoch
	err := s.query(ctx, func(svc *poolServices) error {
		var err error
		epoch, err = svc.epochs.GetEpoch(ctx, epochID)
		return err
	})
	return epoch, err
}

// GetActiveEpoch returns the active epoch, or nil if none is open
func (s *PoolService) GetActiveEpoch(ctx context.Context) (*entities.Epoch, error) {
	var epoch *entities.Epoch
	err := s.query(ctx, func(svc *poolServices) error {
		var err error
		epoch, err = svc.epochs.GetActiveEpoch(ctx)
		return err
	})
	return epoch, err
}

// GetLatestConcluded returns the most recently concluded epoch, or nil
func (s *PoolService) GetLatestConcluded(ctx context.Context) (*entities.Epoch, error) {
	var epoch *entities.Epoch
	err := s.query(ctx, func(svc *poolServices) error {
		var err error
		epoch, err = svc.epochs.GetLatestConcluded(ctx)
		return err
	})
	return epoch, err
}

// GetRecentEpochs returns the newest epochs first
func (s *PoolService) GetRecentEpochs(ctx context.Context, limit int) ([]*entities.Epoch, error) {
	var epochs []*entities.Epoch
	err := s.query(ctx, func(svc *poolServices) error {
		var err error
		epochs, err = svc.epochs.GetRecentEpochs(ctx, limit)
		return err
	})
	return epochs, err
}

// GetEpochsAwaitingUnlock returns concluded, locked epochs that ended before the cutoff
func (s *PoolService) GetEpochsAwaitingUnlock(ctx context.Context, concludedBefore time.Time) ([]*entities.Epoch, error) {
	var epochs []*entities.Epoch
	err := s.query(ctx, func(svc *poolServices) error {
		var err error
		epochs, err = svc.epochs.GetEpochsAwaitingUnlock(ctx, concludedBefore)
		return err
	})
	return epochs, err
}

// GetParticipantRanges returns a participant's ranges in an epoch
func (s *PoolService) GetParticipantRanges(ctx context.Context, epochID int64, participant string) (entities.TicketSet, error) {
	var ranges entities.TicketSet
	err := s.query(ctx, func(svc *poolServices) error {
		var err error
		ranges, err = svc.ledger.GetParticipantRanges(ctx, epochID, participant)
		return err
	})
	return ranges, err
}

// GetParticipantSummary returns per-participant holdings for an epoch
func (s *PoolService) GetParticipantSummary(ctx context.Context, epochID int64) ([]*entities.ParticipantSummary, error) {
	var summary []*entities.ParticipantSummary
	err := s.query(ctx, func(svc *poolServices) error {
		var err error
		summary, err = svc.ledger.GetParticipantSummary(ctx, epochID)
		return err
	})
	return summary, err
}

// GetClaim returns a participant's claim record, or nil if unclaimed
func (s *PoolService) GetClaim(ctx context.Context, epochID int64, participant string) (*entities.ClaimRecord, error) {
	var record *entities.ClaimRecord
	err := s.query(ctx, func(svc *poolServices) error {
		var err error
		record, err = svc.settlement.GetClaim(ctx, epochID, participant)
		return err
	})
	return record, err
}

// PreviewPayout computes what a claim would pay without paying it
func (s *PoolService) PreviewPayout(ctx context.Context, epochID int64, participant string) (*entities.Payout, error) {
	var payout *entities.Payout
	err := s.query(ctx, func(svc *poolServices) error {
		var err error
		payout, err = svc.settlement.PreviewPayout(ctx, epochID, participant)
		return err
	})
	return payout, err
}

var errorKinds = []struct {
	err  error
	kind string
}{
	{domain.ErrInvalidAmount, "invalid_amount"},
	{domain.ErrEpochNotActive, "epoch_not_active"},
	{domain.ErrWindowClosed, "window_closed"},
	{domain.ErrEpochNotConcluded, "epoch_not_concluded"},
	{domain.ErrWithdrawalLocked, "withdrawal_locked"},
	{domain.ErrAlreadyClaimed, "already_claimed"},
	{domain.ErrNoParticipants, "no_participants"},
	{domain.ErrTransferFailed, "transfer_failed"},
	{domain.ErrRandomnessUnavailable, "randomness_unavailable"},
	{domain.ErrAuthorityDenied, "authority_denied"},
	{domain.ErrEpochNotFound, "epoch_not_found"},
	{domain.ErrEpochAlreadyActive, "epoch_already_active"},
	{domain.ErrWithdrawalAlreadyOpen, "withdrawal_already_open"},
	{domain.ErrNoTickets, "no_tickets"},
	{domain.ErrTooManyRanges, "too_many_ranges"},
	{domain.ErrPaused, "paused"},
	{domain.ErrInvalidSettings, "invalid_settings"},
	{domain.ErrStakingFailed, "staking_failed"},
	{domain.ErrInvalidParticipant, "invalid_participant"},
}

// errorKind labels an error by the first domain kind it wraps
func errorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}

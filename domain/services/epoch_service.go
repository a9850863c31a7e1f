package services

import (
	"context"
	"fmt"
	"time"

	"prizepool/domain"
	"prizepool/domain/entities"
	"prizepool/domain/events"
	"prizepool/domain/interfaces"

	sdkmath "cosmossdk.io/math"
	log "github.com/sirupsen/logrus"
)

// epochService implements the epoch lifecycle
type epochService struct {
	epochRepo      interfaces.EpochRepository
	rangeRepo      interfaces.TicketRangeRepository
	settingsRepo   interfaces.PoolSettingsRepository
	selector       interfaces.WinnerSelector
	staking        interfaces.StakingAdapter
	clock          interfaces.Clock
	eventPublisher interfaces.EventPublisher
	poolAccount    string
}

// NewEpochService creates a new epoch service
func NewEpochService(
	epochRepo interfaces.EpochRepository,
	rangeRepo interfaces.TicketRangeRepository,
	settingsRepo interfaces.PoolSettingsRepository,
	selector interfaces.WinnerSelector,
	staking interfaces.StakingAdapter,
	clock interfaces.Clock,
	eventPublisher interfaces.EventPublisher,
	poolAccount string,
) interfaces.EpochService {
	return &epochService{
		epochRepo:      epochRepo,
		rangeRepo:      rangeRepo,
		settingsRepo:   settingsRepo,
		selector:       selector,
		staking:        staking,
		clock:          clock,
		eventPublisher: eventPublisher,
		poolAccount:    poolAccount,
	}
}

// Open starts a new epoch with the ticket price and window currently configured
func (s *epochService) Open(ctx context.Context) (*entities.Epoch, error) {
	settings, err := loadSettings(ctx, s.settingsRepo)
	if err != nil {
		return nil, err
	}
	if settings.Paused {
		return nil, fmt.Errorf("%w: cannot open an epoch", domain.ErrPaused)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	active, err := s.epochRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active epoch: %w", err)
	}
	if active != nil {
		return nil, fmt.Errorf("%w: epoch %d", domain.ErrEpochAlreadyActive, active.ID)
	}

	// New stakes would merge into a position that still belongs to a concluded epoch
	latest, err := s.epochRepo.GetLatestConcluded(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest concluded epoch: %w", err)
	}
	if latest != nil && latest.UnstakePending {
		return nil, fmt.Errorf("%w: epoch %d position is still staked, unlock it first", domain.ErrStakingFailed, latest.ID)
	}

	epoch := entities.NewEpoch(s.clock.Now(), settings.TicketPrice, settings.OpenWindow)
	if err := s.epochRepo.Create(ctx, epoch); err != nil {
		return nil, fmt.Errorf("failed to create epoch: %w", err)
	}

	if err := s.eventPublisher.Publish(events.EpochOpenedEvent{
		EpochID:     epoch.ID,
		TicketPrice: epoch.TicketPrice,
		StartTime:   epoch.StartTime,
		Deadline:    epoch.PurchaseDeadline(),
	}); err != nil {
		return nil, fmt.Errorf("failed to publish epoch opened event: %w", err)
	}

	log.WithFields(log.Fields{
		"epochID":     epoch.ID,
		"ticketPrice": epoch.TicketPrice.String(),
		"deadline":    epoch.PurchaseDeadline(),
	}).Info("Epoch opened")

	return epoch, nil
}

// Conclude snapshots the position value, draws the winning ticket and
// requests the unstake. A snapshot or randomness failure leaves the epoch
// untouched. Once drawn, the result is kept: a failed unstake is recorded on
// the epoch and retried by UnlockWithdrawal.
func (s *epochService) Conclude(ctx context.Context, epochID int64) (*interfaces.EpochConclusion, error) {
	epoch, err := s.lockEpoch(ctx, epochID)
	if err != nil {
		return nil, err
	}
	if !epoch.IsActive() {
		return nil, fmt.Errorf("%w: epoch %d is %s", domain.ErrEpochNotActive, epoch.ID, epoch.Status)
	}

	finalBalance, err := s.positionValue(ctx)
	if err != nil {
		return nil, err
	}

	winningTicketID, err := s.selector.SelectWinner(ctx, epoch)
	if err != nil {
		return nil, err
	}

	winner, err := s.rangeRepo.FindOwner(ctx, epoch.ID, winningTicketID)
	if err != nil {
		return nil, fmt.Errorf("failed to find winning range: %w", err)
	}
	if winner == nil {
		return nil, fmt.Errorf("no range holds winning ticket %d in epoch %d", winningTicketID, epoch.ID)
	}

	if err := epoch.Conclude(winningTicketID, finalBalance, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.staking.UnstakeAll(ctx); err != nil {
		epoch.UnstakePending = true
		log.WithError(err).WithField("epochID", epoch.ID).Warn("Unstake failed at conclusion, retrying at unlock")
	}
	if err := s.epochRepo.Update(ctx, epoch); err != nil {
		return nil, fmt.Errorf("failed to update epoch: %w", err)
	}

	if err := s.eventPublisher.Publish(events.EpochConcludedEvent{
		EpochID:          epoch.ID,
		WinningTicketID:  winningTicketID,
		Winner:           winner.Participant,
		TotalTickets:     epoch.TotalTickets(),
		InitialPrincipal: epoch.InitialPrincipal,
		FinalBalance:     epoch.FinalBalance,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish epoch concluded event: %w", err)
	}

	log.WithFields(log.Fields{
		"epochID":         epoch.ID,
		"winningTicketID": winningTicketID,
		"winner":          winner.Participant,
		"principal":       epoch.InitialPrincipal.String(),
		"finalBalance":    epoch.FinalBalance.String(),
		"unstakePending":  epoch.UnstakePending,
	}).Info("Epoch concluded")

	return &interfaces.EpochConclusion{Epoch: epoch, Winner: winner}, nil
}

// positionValue returns totalStakedPrincipal * poolShares / totalShares
func (s *epochService) positionValue(ctx context.Context) (sdkmath.Int, error) {
	principal, err := s.staking.GetTotalStakedPrincipal(ctx)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("%w: total staked principal: %w", domain.ErrStakingFailed, err)
	}
	shares, err := s.staking.GetUserShares(ctx, s.poolAccount)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("%w: pool shares: %w", domain.ErrStakingFailed, err)
	}
	totalShares, err := s.staking.GetTotalShares(ctx)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("%w: total shares: %w", domain.ErrStakingFailed, err)
	}

	if totalShares.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	value, err := principal.SafeMul(shares)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("%w: position value overflow: %w", domain.ErrStakingFailed, err)
	}
	return value.Quo(totalShares), nil
}

// UnlockWithdrawal opens claims for a concluded epoch and pulls the unstaked
// funds back into custody
func (s *epochService) UnlockWithdrawal(ctx context.Context, epochID int64) (*entities.Epoch, error) {
	epoch, err := s.lockEpoch(ctx, epochID)
	if err != nil {
		return nil, err
	}

	if err := epoch.UnlockWithdrawal(s.clock.Now()); err != nil {
		return nil, err
	}
	if epoch.UnstakePending {
		if err := s.staking.UnstakeAll(ctx); err != nil {
			return nil, fmt.Errorf("%w: unstake: %w", domain.ErrStakingFailed, err)
		}
		epoch.UnstakePending = false
	}
	if err := s.epochRepo.Update(ctx, epoch); err != nil {
		return nil, fmt.Errorf("failed to update epoch: %w", err)
	}

	if err := s.eventPublisher.Publish(events.WithdrawalUnlockedEvent{EpochID: epoch.ID}); err != nil {
		return nil, fmt.Errorf("failed to publish withdrawal unlocked event: %w", err)
	}

	if err := s.staking.WithdrawAll(ctx); err != nil {
		return nil, fmt.Errorf("%w: withdraw: %w", domain.ErrStakingFailed, err)
	}

	log.WithField("epochID", epoch.ID).Info("Withdrawal unlocked")
	return epoch, nil
}

// RestartWindow reopens the purchase window of an epoch that sold nothing
func (s *epochService) RestartWindow(ctx context.Context, epochID int64) (*entities.Epoch, error) {
	epoch, err := s.lockEpoch(ctx, epochID)
	if err != nil {
		return nil, err
	}

	if err := epoch.RestartWindow(s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.epochRepo.Update(ctx, epoch); err != nil {
		return nil, fmt.Errorf("failed to update epoch: %w", err)
	}

	log.WithFields(log.Fields{
		"epochID":  epoch.ID,
		"deadline": epoch.PurchaseDeadline(),
	}).Info("Empty epoch window restarted")

	return epoch, nil
}

func (s *epochService) lockEpoch(ctx context.Context, epochID int64) (*entities.Epoch, error) {
	epoch, err := s.epochRepo.GetByIDForUpdate(ctx, epochID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock epoch: %w", err)
	}
	if epoch == nil {
		return nil, fmt.Errorf("%w: epoch %d", domain.ErrEpochNotFound, epochID)
	}
	return epoch, nil
}

// GetEpoch returns an epoch by id
func (s *epochService) GetEpoch(ctx context.Context, epochID int64) (*entities.Epoch, error) {
	epoch, err := s.epochRepo.GetByID(ctx, epochID)
	if err != nil {
		return nil, fmt.Errorf("failed to get epoch: %w", err)
	}
	if epoch == nil {
		return nil, fmt.Errorf("%w: epoch %d", domain.ErrEpochNotFound, epochID)
	}
	return epoch, nil
}

// GetActiveEpoch returns the active epoch or nil
func (s *epochService) GetActiveEpoch(ctx context.Context) (*entities.Epoch, error) {
	epoch, err := s.epochRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active epoch: %w", err)
	}
	return epoch, nil
}

// GetLatestConcluded returns the most recently concluded epoch or nil
func (s *epochService) GetLatestConcluded(ctx context.Context) (*entities.Epoch, error) {
	epoch, err := s.epochRepo.GetLatestConcluded(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest concluded epoch: %w", err)
	}
	return epoch, nil
}

// GetRecentEpochs returns up to limit epochs, newest first
func (s *epochService) GetRecentEpochs(ctx context.Context, limit int) ([]*entities.Epoch, error) {
	epochs, err := s.epochRepo.GetRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent epochs: %w", err)
	}
	return epochs, nil
}

// GetEpochsAwaitingUnlock returns locked epochs concluded before the cutoff
func (s *epochService) GetEpochsAwaitingUnlock(ctx context.Context, concludedBefore time.Time) ([]*entities.Epoch, error) {
	epochs, err := s.epochRepo.GetLockedConcludedBefore(ctx, concludedBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to get epochs awaiting unlock: %w", err)
	}
	return epochs, nil
}

package services

import (
	"context"
	"fmt"

	"prizepool/domain"
	"prizepool/domain/entities"
	"prizepool/domain/events"
	"prizepool/domain/interfaces"

	sdkmath "cosmossdk.io/math"
	log "github.com/sirupsen/logrus"
)

// settlementService pays out concluded epochs
type settlementService struct {
	epochRepo      interfaces.EpochRepository
	rangeRepo      interfaces.TicketRangeRepository
	claimRepo      interfaces.ClaimRepository
	settingsRepo   interfaces.PoolSettingsRepository
	bonusRepo      interfaces.BonusAssetRepository
	asset          interfaces.AssetTransfer
	assets         interfaces.AssetDirectory
	clock          interfaces.Clock
	eventPublisher interfaces.EventPublisher
	poolAccount    string
}

// NewSettlementService creates a new settlement service
func NewSettlementService(
	epochRepo interfaces.EpochRepository,
	rangeRepo interfaces.TicketRangeRepository,
	claimRepo interfaces.ClaimRepository,
	settingsRepo interfaces.PoolSettingsRepository,
	bonusRepo interfaces.BonusAssetRepository,
	asset interfaces.AssetTransfer,
	assets interfaces.AssetDirectory,
	clock interfaces.Clock,
	eventPublisher interfaces.EventPublisher,
	poolAccount string,
) interfaces.SettlementService {
	return &settlementService{
		epochRepo:      epochRepo,
		rangeRepo:      rangeRepo,
		claimRepo:      claimRepo,
		settingsRepo:   settingsRepo,
		bonusRepo:      bonusRepo,
		asset:          asset,
		assets:         assets,
		clock:          clock,
		eventPublisher: eventPublisher,
		poolAccount:    poolAccount,
	}
}

// Claim pays a participant's settlement for an epoch exactly once.
// The claim record is inserted before any transfer and is the only
// check-and-mark; a failed transfer must roll the surrounding unit of work back.
func (s *settlementService) Claim(ctx context.Context, epochID int64, participant string) (*entities.Payout, error) {
	settings, err := loadSettings(ctx, s.settingsRepo)
	if err != nil {
		return nil, err
	}
	if settings.Paused {
		return nil, fmt.Errorf("%w: claims are suspended", domain.ErrPaused)
	}

	epoch, err := s.epochRepo.GetByIDForUpdate(ctx, epochID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock epoch: %w", err)
	}
	if epoch == nil {
		return nil, fmt.Errorf("%w: epoch %d", domain.ErrEpochNotFound, epochID)
	}
	if err := epoch.CheckClaimable(); err != nil {
		return nil, err
	}

	existing, err := s.claimRepo.Get(ctx, epoch.ID, participant)
	if err != nil {
		return nil, fmt.Errorf("failed to get claim record: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s in epoch %d", domain.ErrAlreadyClaimed, participant, epoch.ID)
	}

	payout, err := s.computePayout(ctx, epoch, participant)
	if err != nil {
		return nil, err
	}

	inserted, err := s.claimRepo.Insert(ctx, payout.Record(s.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to record claim: %w", err)
	}
	if !inserted {
		return nil, fmt.Errorf("%w: %s in epoch %d", domain.ErrAlreadyClaimed, participant, epoch.ID)
	}

	legs, err := s.prepareLegs(ctx, payout)
	if err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(payoutEvent(payout)); err != nil {
		return nil, fmt.Errorf("failed to publish payout event: %w", err)
	}

	for _, leg := range legs {
		if err := leg.handle.Transfer(ctx, participant, leg.amount); err != nil {
			return nil, fmt.Errorf("%w: paying %s of %s to %s: %w", domain.ErrTransferFailed, leg.amount, leg.assetID, participant, err)
		}
	}

	log.WithFields(log.Fields{
		"epochID":     epoch.ID,
		"participant": participant,
		"refund":      payout.Refund.String(),
		"prize":       payout.Prize.String(),
		"isWinner":    payout.IsWinner,
		"bonusSweeps": len(payout.BonusSweeps),
	}).Info("Payout claimed")

	return payout, nil
}

// ClaimLatest claims against the most recently concluded epoch
func (s *settlementService) ClaimLatest(ctx context.Context, participant string) (*entities.Payout, error) {
	epoch, err := s.epochRepo.GetLatestConcluded(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest concluded epoch: %w", err)
	}
	if epoch == nil {
		return nil, fmt.Errorf("%w: no epoch has been concluded", domain.ErrEpochNotConcluded)
	}
	return s.Claim(ctx, epoch.ID, participant)
}

// PreviewPayout computes the payout of a concluded epoch without paying it
func (s *settlementService) PreviewPayout(ctx context.Context, epochID int64, participant string) (*entities.Payout, error) {
	epoch, err := s.epochRepo.GetByID(ctx, epochID)
	if err != nil {
		return nil, fmt.Errorf("failed to get epoch: %w", err)
	}
	if epoch == nil {
		return nil, fmt.Errorf("%w: epoch %d", domain.ErrEpochNotFound, epochID)
	}
	if !epoch.IsEnded() {
		return nil, fmt.Errorf("%w: epoch %d is %s", domain.ErrEpochNotConcluded, epoch.ID, epoch.Status)
	}
	return s.computePayout(ctx, epoch, participant)
}

// GetClaim returns the claim record or nil
func (s *settlementService) GetClaim(ctx context.Context, epochID int64, participant string) (*entities.ClaimRecord, error) {
	record, err := s.claimRepo.Get(ctx, epochID, participant)
	if err != nil {
		return nil, fmt.Errorf("failed to get claim record: %w", err)
	}
	return record, nil
}

// computePayout derives refund, prize and bonus sweep from stored state and live balances
func (s *settlementService) computePayout(ctx context.Context, epoch *entities.Epoch, participant string) (*entities.Payout, error) {
	ranges, err := s.rangeRepo.GetByParticipant(ctx, epoch.ID, participant)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant ranges: %w", err)
	}
	if len(ranges) == 0 {
		return nil, fmt.Errorf("%w: %s in epoch %d", domain.ErrNoTickets, participant, epoch.ID)
	}

	payout := &entities.Payout{
		EpochID:     epoch.ID,
		Participant: participant,
		Refund:      ranges.Refund(epoch.TicketPrice),
		Prize:       sdkmath.ZeroInt(),
	}

	if epoch.WinningTicketID == nil || !ranges.Contains(*epoch.WinningTicketID) {
		return payout, nil
	}

	payout.IsWinner = true
	payout.Prize = epoch.Yield()

	bonusAssets, err := s.bonusRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonus assets: %w", err)
	}
	for _, bonus := range bonusAssets {
		handle, err := s.assets.Asset(bonus.AssetID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve bonus asset %s: %w", bonus.AssetID, err)
		}
		balance, err := handle.BalanceOf(ctx, s.poolAccount)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s balance: %w", bonus.AssetID, err)
		}
		if !balance.IsPositive() {
			continue
		}
		payout.BonusSweeps = append(payout.BonusSweeps, entities.BonusSweep{
			AssetID: bonus.AssetID,
			Amount:  balance,
		})
	}

	return payout, nil
}

type payoutLeg struct {
	assetID string
	handle  interfaces.AssetTransfer
	amount  sdkmath.Int
}

// prepareLegs resolves every transfer of a payout and checks custody covers
// each one before the first transfer is made. Bonus sweeps come first and the
// underlying leg last: a sweep that went out before a later failure has
// emptied its live balance, so a retried claim cannot pay it twice.
func (s *settlementService) prepareLegs(ctx context.Context, payout *entities.Payout) ([]payoutLeg, error) {
	var legs []payoutLeg

	for _, sweep := range payout.BonusSweeps {
		handle, err := s.assets.Asset(sweep.AssetID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve bonus asset %s: %w", sweep.AssetID, err)
		}
		legs = append(legs, payoutLeg{assetID: sweep.AssetID, handle: handle, amount: sweep.Amount})
	}
	if total := payout.Total(); total.IsPositive() {
		legs = append(legs, payoutLeg{assetID: "underlying", handle: s.asset, amount: total})
	}

	for _, leg := range legs {
		balance, err := leg.handle.BalanceOf(ctx, s.poolAccount)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s custody balance: %w", leg.assetID, err)
		}
		if balance.LT(leg.amount) {
			return nil, fmt.Errorf("%w: custody holds %s of %s, payout needs %s", domain.ErrTransferFailed, balance, leg.assetID, leg.amount)
		}
	}

	return legs, nil
}

func payoutEvent(payout *entities.Payout) events.PayoutClaimedEvent {
	event := events.PayoutClaimedEvent{
		EpochID:     payout.EpochID,
		Participant: payout.Participant,
		Refund:      payout.Refund,
		Prize:       payout.Prize,
		IsWinner:    payout.IsWinner,
	}
	for _, sweep := range payout.BonusSweeps {
		event.BonusSweeps = append(event.BonusSweeps, events.BonusSweepPaid{AssetID: sweep.AssetID, Amount: sweep.Amount})
	}
	return event
}

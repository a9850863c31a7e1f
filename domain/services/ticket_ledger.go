package services

import (
	"context"
	"fmt"

	"prizepool/domain"
	"prizepool/domain/entities"
	"prizepool/domain/events"
	"prizepool/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// LedgerConfig holds the ticket ledger's fixed parameters
type LedgerConfig struct {
	PoolAccount             string
	MaxRangesPerParticipant int
}

// ticketLedger implements ticket range allocation for the active epoch
type ticketLedger struct {
	epochRepo      interfaces.EpochRepository
	rangeRepo      interfaces.TicketRangeRepository
	settingsRepo   interfaces.PoolSettingsRepository
	asset          interfaces.AssetTransfer
	staking        interfaces.StakingAdapter
	clock          interfaces.Clock
	eventPublisher interfaces.EventPublisher
	config         LedgerConfig
}

// NewTicketLedger creates a new ticket ledger
func NewTicketLedger(
	epochRepo interfaces.EpochRepository,
	rangeRepo interfaces.TicketRangeRepository,
	settingsRepo interfaces.PoolSettingsRepository,
	asset interfaces.AssetTransfer,
	staking interfaces.StakingAdapter,
	clock interfaces.Clock,
	eventPublisher interfaces.EventPublisher,
	config LedgerConfig,
) interfaces.TicketLedger {
	return &ticketLedger{
		epochRepo:      epochRepo,
		rangeRepo:      rangeRepo,
		settingsRepo:   settingsRepo,
		asset:          asset,
		staking:        staking,
		clock:          clock,
		eventPublisher: eventPublisher,
		config:         config,
	}
}

// Purchase buys count tickets in the active epoch. Payment is collected
// before the range is assigned; if anything fails afterwards the payment
// is sent back to the participant.
func (l *ticketLedger) Purchase(ctx context.Context, participant string, count uint64) (*interfaces.TicketPurchaseResult, error) {
	if count == 0 {
		return nil, fmt.Errorf("%w: ticket count must be positive", domain.ErrInvalidAmount)
	}
	if participant == "" {
		return nil, fmt.Errorf("%w: participant is required", domain.ErrInvalidParticipant)
	}

	settings, err := loadSettings(ctx, l.settingsRepo)
	if err != nil {
		return nil, err
	}
	if settings.Paused {
		return nil, fmt.Errorf("%w: purchases are suspended", domain.ErrPaused)
	}

	active, err := l.epochRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active epoch: %w", err)
	}
	if active == nil {
		return nil, fmt.Errorf("%w: no epoch is open", domain.ErrEpochNotActive)
	}

	epoch, err := l.epochRepo.GetByIDForUpdate(ctx, active.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock epoch: %w", err)
	}
	if epoch == nil {
		return nil, fmt.Errorf("%w: epoch %d", domain.ErrEpochNotFound, active.ID)
	}
	if err := epoch.CheckPurchaseWindow(l.clock.Now()); err != nil {
		return nil, err
	}

	if l.config.MaxRangesPerParticipant > 0 {
		held, err := l.rangeRepo.CountByParticipant(ctx, epoch.ID, participant)
		if err != nil {
			return nil, fmt.Errorf("failed to count participant ranges: %w", err)
		}
		if held >= l.config.MaxRangesPerParticipant {
			return nil, fmt.Errorf("%w: %s already holds %d ranges", domain.ErrTooManyRanges, participant, held)
		}
	}

	cost, err := epoch.SaleCost(count)
	if err != nil {
		return nil, err
	}

	if err := l.asset.TransferFrom(ctx, participant, l.config.PoolAccount, cost); err != nil {
		return nil, fmt.Errorf("%w: collecting %s from %s: %w", domain.ErrTransferFailed, cost, participant, err)
	}

	result, err := l.recordPurchase(ctx, epoch, participant, count)
	if err != nil {
		if refundErr := l.asset.Transfer(ctx, participant, cost); refundErr != nil {
			log.WithError(refundErr).WithFields(log.Fields{
				"epochID":     epoch.ID,
				"participant": participant,
				"amount":      cost.String(),
			}).Error("failed to return payment after aborted purchase")
			return nil, fmt.Errorf("%w (payment return failed: %v)", err, refundErr)
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"epochID":     epoch.ID,
		"participant": participant,
		"startID":     result.Range.StartID,
		"finalID":     result.Range.FinalID,
		"cost":        cost.String(),
	}).Info("Tickets purchased")

	return result, nil
}

// recordPurchase assigns the range, grows the principal and stakes the payment
func (l *ticketLedger) recordPurchase(ctx context.Context, epoch *entities.Epoch, participant string, count uint64) (*interfaces.TicketPurchaseResult, error) {
	ticketRange, err := entities.NewTicketRange(epoch.ID, participant, epoch.NextTicketID(), count)
	if err != nil {
		return nil, err
	}

	cost, err := epoch.RecordSale(count)
	if err != nil {
		return nil, err
	}

	if err := l.rangeRepo.Append(ctx, ticketRange); err != nil {
		return nil, fmt.Errorf("failed to append ticket range: %w", err)
	}
	if err := l.epochRepo.Update(ctx, epoch); err != nil {
		return nil, fmt.Errorf("failed to update epoch principal: %w", err)
	}

	if err := l.eventPublisher.Publish(events.TicketsPurchasedEvent{
		EpochID:          epoch.ID,
		Participant:      participant,
		StartID:          ticketRange.StartID,
		FinalID:          ticketRange.FinalID,
		Cost:             cost,
		InitialPrincipal: epoch.InitialPrincipal,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish purchase event: %w", err)
	}

	if err := l.staking.Stake(ctx, cost); err != nil {
		return nil, fmt.Errorf("%w: staking %s: %w", domain.ErrStakingFailed, cost, err)
	}

	return &interfaces.TicketPurchaseResult{
		Epoch: epoch,
		Range: ticketRange,
		Cost:  cost,
	}, nil
}

// GetParticipantRanges returns a participant's ranges for an epoch
func (l *ticketLedger) GetParticipantRanges(ctx context.Context, epochID int64, participant string) (entities.TicketSet, error) {
	ranges, err := l.rangeRepo.GetByParticipant(ctx, epochID, participant)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant ranges: %w", err)
	}
	return ranges, nil
}

// GetParticipantSummary returns per-participant holdings for an epoch
func (l *ticketLedger) GetParticipantSummary(ctx context.Context, epochID int64) ([]*entities.ParticipantSummary, error) {
	summary, err := l.rangeRepo.GetParticipantSummary(ctx, epochID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant summary: %w", err)
	}
	return summary, nil
}

package services

import (
	"context"
	"fmt"

	"prizepool/domain"
	"prizepool/domain/entities"
	"prizepool/domain/interfaces"

	sdkmath "cosmossdk.io/math"
)

// winnerSelector draws a ticket id uniformly from an epoch's ticket space
type winnerSelector struct {
	randomness interfaces.RandomnessSource
}

// NewWinnerSelector creates a new winner selector
func NewWinnerSelector(randomness interfaces.RandomnessSource) interfaces.WinnerSelector {
	return &winnerSelector{randomness: randomness}
}

// SelectWinner reduces one random value modulo the number of tickets sold
func (s *winnerSelector) SelectWinner(ctx context.Context, epoch *entities.Epoch) (uint64, error) {
	total := epoch.TotalTickets()
	if total == 0 {
		return 0, fmt.Errorf("%w: epoch %d sold no tickets", domain.ErrNoParticipants, epoch.ID)
	}

	value, err := s.randomness.FetchRandom(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrRandomnessUnavailable, err)
	}
	if value.IsNil() || value.IsNegative() {
		return 0, fmt.Errorf("%w: source returned an invalid value", domain.ErrRandomnessUnavailable)
	}

	return value.Mod(sdkmath.NewIntFromUint64(total)).Uint64(), nil
}

package testutil

import (
	"time"

	"prizepool/domain/entities"

	sdkmath "cosmossdk.io/math"
)

// CreateTestSettings returns valid pool settings owned by authority
func CreateTestSettings(authority string) *entities.PoolSettings {
	return &entities.PoolSettings{
		Authority:   authority,
		TicketPrice: sdkmath.NewInt(200),
		OpenWindow:  time.Hour,
		UpdatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

// CreateTestEpoch returns an active epoch opened at start with price 200
func CreateTestEpoch(start time.Time) *entities.Epoch {
	return entities.NewEpoch(start.UTC().Truncate(time.Microsecond), sdkmath.NewInt(200), time.Hour)
}

// CreateConcludedEpoch returns an ended epoch with the given winner and final balance
func CreateConcludedEpoch(start time.Time, sold, winner uint64, finalBalance sdkmath.Int) *entities.Epoch {
	epoch := CreateTestEpoch(start)
	epoch.InitialPrincipal = epoch.TicketPrice.MulRaw(int64(sold))
	end := epoch.PurchaseDeadline()
	epoch.Status = entities.EpochStatusEnded
	epoch.EndTime = &end
	epoch.WinningTicketID = &winner
	epoch.FinalBalance = finalBalance
	return epoch
}

// CreateTestTicketRange returns count tickets starting at start
func CreateTestTicketRange(epochID int64, participant string, start, count uint64) *entities.TicketRange {
	return &entities.TicketRange{
		EpochID:     epochID,
		Participant: participant,
		StartID:     start,
		FinalID:     start + count - 1,
	}
}

// CreateTestClaim returns a claim record for participant
func CreateTestClaim(epochID int64, participant string, refund, prize int64, winner bool) *entities.ClaimRecord {
	return &entities.ClaimRecord{
		EpochID:     epochID,
		Participant: participant,
		Refund:      sdkmath.NewInt(refund),
		Prize:       sdkmath.NewInt(prize),
		IsWinner:    winner,
		ClaimedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

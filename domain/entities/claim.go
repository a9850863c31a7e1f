package entities

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// ClaimRecord marks a participant as paid for an epoch. Its existence is the
// claim flag; the amounts are kept for audit
type ClaimRecord struct {
	EpochID     int64       `db:"epoch_id"`
	Participant string      `db:"participant"`
	Refund      sdkmath.Int `db:"refund"`
	Prize       sdkmath.Int `db:"prize"` // Signed, zero for non-winners
	IsWinner    bool        `db:"is_winner"`
	ClaimedAt   time.Time   `db:"claimed_at"`
}

// BonusSweep is one bonus asset balance moved to the winner
type BonusSweep struct {
	AssetID string
	Amount  sdkmath.Int
}

// Payout describes everything paid to a participant by one claim
type Payout struct {
	EpochID     int64
	Participant string
	Refund      sdkmath.Int
	Prize       sdkmath.Int
	IsWinner    bool
	BonusSweeps []BonusSweep
}

// Total returns the underlying asset amount owed: refund plus prize, never negative
func (p *Payout) Total() sdkmath.Int {
	total := p.Refund
	if !p.Prize.IsNil() {
		total = total.Add(p.Prize)
	}
	if total.IsNegative() {
		return sdkmath.ZeroInt()
	}
	return total
}

// Record converts the payout into the persisted claim flag
func (p *Payout) Record(now time.Time) *ClaimRecord {
	prize := p.Prize
	if prize.IsNil() {
		prize = sdkmath.ZeroInt()
	}
	return &ClaimRecord{
		EpochID:     p.EpochID,
		Participant: p.Participant,
		Refund:      p.Refund,
		Prize:       prize,
		IsWinner:    p.IsWinner,
		ClaimedAt:   now,
	}
}

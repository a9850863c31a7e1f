package entities

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
)

func TestPayout_Total(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		refund int64
		prize  int64
		want   string
	}{
		{name: "refund only", refund: 4000, prize: 0, want: "4000"},
		{name: "refund plus yield", refund: 4000, prize: 1500, want: "5500"},
		{name: "loss absorbed by winner", refund: 4000, prize: -1000, want: "3000"},
		{name: "loss larger than refund clamps to zero", refund: 4000, prize: -5000, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := &Payout{Refund: sdkmath.NewInt(tt.refund), Prize: sdkmath.NewInt(tt.prize)}
			assert.Equal(t, tt.want, p.Total().String())
		})
	}
}

func TestPayout_Record(t *testing.T) {
	t.Parallel()

	now := time.Now()
	p := &Payout{EpochID: 3, Participant: "bob", Refund: sdkmath.NewInt(4000)}

	rec := p.Record(now)
	assert.Equal(t, int64(3), rec.EpochID)
	assert.Equal(t, "bob", rec.Participant)
	assert.True(t, rec.Prize.IsZero())
	assert.False(t, rec.IsWinner)
	assert.Equal(t, now, rec.ClaimedAt)
}

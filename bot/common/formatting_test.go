package common

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"prizepool/domain"
	"prizepool/domain/entities"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		amount sdkmath.Int
		want   string
	}{
		{"zero", sdkmath.ZeroInt(), "0"},
		{"nil", sdkmath.Int{}, "0"},
		{"three digits", sdkmath.NewInt(999), "999"},
		{"thousands", sdkmath.NewInt(4008000), "4,008,000"},
		{"negative", sdkmath.NewInt(-12345), "-12,345"},
		{"beyond int64", sdkmath.NewIntFromUint64(1 << 63).MulRaw(10), "92,233,720,368,547,758,080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(tt.amount))
		})
	}
}

func TestFormatTicketSet(t *testing.T) {
	t.Parallel()

	var set entities.TicketSet
	assert.Equal(t, "none", FormatTicketSet(set, 3))

	for i, count := range []uint64{20, 1, 5, 2} {
		r, err := entities.NewTicketRange(1, "alice", uint64(i*100), count)
		require.NoError(t, err)
		set = append(set, r)
	}

	assert.Equal(t, "#0-#19, #100, #200-#204, #300-#301", FormatTicketSet(set, 0))
	assert.Equal(t, "#0-#19, #100, and 2 more", FormatTicketSet(set, 2))
}

func TestFormatPayout(t *testing.T) {
	t.Parallel()

	loser := &entities.Payout{Refund: sdkmath.NewInt(4000), Prize: sdkmath.ZeroInt()}
	assert.Equal(t, "Refund: **4,000 USDC**\nTotal: **4,000 USDC**", FormatPayout(loser, "USDC"))

	winner := &entities.Payout{
		Refund:      sdkmath.NewInt(4000),
		Prize:       sdkmath.NewInt(10000),
		IsWinner:    true,
		BonusSweeps: []entities.BonusSweep{{AssetID: "GEM", Amount: sdkmath.NewInt(7)}},
	}
	assert.Equal(t,
		"Refund: **4,000 USDC**\nPrize: **10,000 USDC**\nBonus: **7 GEM**\nTotal: **14,000 USDC**",
		FormatPayout(winner, "USDC"))
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "36h", FormatDuration(36*time.Hour))
	assert.Equal(t, "2h30m", FormatDuration(150*time.Minute))
	assert.Equal(t, "1m30s", FormatDuration(90*time.Second))
}

func TestFromDomainError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantSystem bool
		wantSubstr string
	}{
		{"wrapped window closed", fmt.Errorf("purchase failed: %w", domain.ErrWindowClosed), false, "closed"},
		{"authority", domain.ErrAuthorityDenied, false, "authority"},
		{"already claimed", fmt.Errorf("epoch 3: %w", domain.ErrAlreadyClaimed), false, "already claimed"},
		{"staking", fmt.Errorf("unlock: %w", domain.ErrStakingFailed), false, "staking position"},
		{"participant", fmt.Errorf("%w: participant is required", domain.ErrInvalidParticipant), false, "participant"},
		{"unknown", errors.New("connection reset"), true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			botErr := FromDomainError(tt.err, "command failed")
			assert.True(t, botErr.Ephemeral)
			assert.ErrorIs(t, botErr, tt.err)
			if tt.wantSystem {
				assert.Equal(t, genericFailureMessage, botErr.UserMessage)
				return
			}
			assert.Contains(t, botErr.UserMessage, tt.wantSubstr)
		})
	}

	userErr := NewUserError("Pick a positive count.", "bad count")
	assert.Same(t, userErr, FromDomainError(fmt.Errorf("wrapped: %w", userErr), "ignored"))
}

package application_test

import (
	"context"
	"testing"
	"time"

	"prizepool/domain"
	"prizepool/domain/entities"
	"prizepool/domain/events"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolService_FullEpoch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tp := newTestPool(t)

	_, err := tp.pool.AddBonusAsset(ctx, authority, "GEM")
	require.NoError(t, err)
	require.NoError(t, tp.gem.Mint(poolAccount, sdkmath.NewInt(7)))

	epoch, err := tp.pool.OpenEpoch(ctx, authority)
	require.NoError(t, err)
	assert.Equal(t, entities.EpochStatusActive, epoch.Status)

	purchases := []struct {
		participant string
		count       uint64
		start       uint64
		final       uint64
	}{
		{"alice", 20, 0, 19},
		{"bob", 20, 20, 39},
		{"carol", 20_000, 40, 20_039},
	}
	for _, p := range purchases {
		result, err := tp.pool.BuyTickets(ctx, p.participant, p.count)
		require.NoError(t, err)
		assert.Equal(t, p.start, result.Range.StartID)
		assert.Equal(t, p.final, result.Range.FinalID)
	}

	epoch, err = tp.pool.GetActiveEpoch(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(20_040), epoch.TotalTickets())
	assert.Equal(t, "4008000", epoch.InitialPrincipal.String())

	require.NoError(t, tp.staking.AddYield(sdkmath.NewInt(10_000)))

	// The window closes without changing the epoch status.
	tp.clock.Advance(time.Hour)
	_, err = tp.pool.BuyTickets(ctx, "dave", 1)
	assert.ErrorIs(t, err, domain.ErrWindowClosed)
	epoch, err = tp.pool.GetActiveEpoch(ctx)
	require.NoError(t, err)
	require.NotNil(t, epoch)
	assert.Equal(t, entities.EpochStatusActive, epoch.Status)

	_, err = tp.pool.ConcludeEpoch(ctx, intruder, epoch.ID)
	assert.ErrorIs(t, err, domain.ErrAuthorityDenied)

	// 25 + 7*20040 reduces to ticket 25, held by bob.
	tp.randomness.value = sdkmath.NewInt(25 + 7*20_040)
	conclusion, err := tp.pool.ConcludeEpoch(ctx, authority, epoch.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(25), *conclusion.Epoch.WinningTicketID)
	assert.Equal(t, "bob", conclusion.Winner.Participant)
	assert.Equal(t, "4018000", conclusion.Epoch.FinalBalance.String())

	_, err = tp.pool.ConcludeEpoch(ctx, authority, epoch.ID)
	assert.ErrorIs(t, err, domain.ErrEpochNotActive)
	assert.Equal(t, 1, tp.randomness.calls)

	_, err = tp.pool.Claim(ctx, epoch.ID, "alice")
	assert.ErrorIs(t, err, domain.ErrWithdrawalLocked)

	tp.clock.Advance(time.Hour)
	_, err = tp.pool.UnlockWithdrawal(ctx, authority, epoch.ID)
	require.NoError(t, err)
	assert.Equal(t, "4018000", tp.usdc.Balance(poolAccount).String())

	preview, err := tp.pool.PreviewPayout(ctx, epoch.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "14000", preview.Total().String())

	expected := map[string]string{
		"alice": "4000",
		"bob":   "14000",
		"carol": "4000000",
	}
	paid := sdkmath.ZeroInt()
	for participant, total := range expected {
		payout, err := tp.pool.Claim(ctx, epoch.ID, participant)
		require.NoError(t, err, participant)
		assert.Equal(t, total, payout.Total().String(), participant)
		assert.Equal(t, participant == "bob", payout.IsWinner, participant)
		paid = paid.Add(payout.Total())
	}

	assert.Equal(t, conclusion.Epoch.FinalBalance.String(), paid.String())
	assert.True(t, tp.usdc.Balance(poolAccount).IsZero())
	assert.Equal(t, "10010000", tp.usdc.Balance("bob").String())
	assert.Equal(t, "10000000", tp.usdc.Balance("carol").String())
	assert.Equal(t, "7", tp.gem.Balance("bob").String())
	assert.True(t, tp.gem.Balance(poolAccount).IsZero())

	_, err = tp.pool.Claim(ctx, epoch.ID, "alice")
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)

	record, err := tp.pool.GetClaim(ctx, epoch.ID, "bob")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, record.IsWinner)
	assert.Equal(t, "10000", record.Prize.String())

	assert.Equal(t, 1, tp.publisher.count(events.EventTypeEpochOpened))
	assert.Equal(t, 3, tp.publisher.count(events.EventTypeTicketsPurchased))
	assert.Equal(t, 1, tp.publisher.count(events.EventTypeEpochConcluded))
	assert.Equal(t, 1, tp.publisher.count(events.EventTypeWithdrawalUnlocked))
	assert.Equal(t, 3, tp.publisher.count(events.EventTypePayoutClaimed))
	assert.Equal(t, 1, tp.publisher.count(events.EventTypePoolSettingsChanged))
}

func TestPoolService_RangesPartitionTickets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tp := newTestPool(t)

	epoch, err := tp.pool.OpenEpoch(ctx, authority)
	require.NoError(t, err)

	buyers := []string{"alice", "bob", "alice", "carol", "bob", "alice"}
	for i, buyer := range buyers {
		_, err := tp.pool.BuyTickets(ctx, buyer, uint64(i+1)*3)
		require.NoError(t, err)
	}

	summary, err := tp.pool.GetParticipantSummary(ctx, epoch.ID)
	require.NoError(t, err)

	covered := make(map[uint64]string)
	var total uint64
	for _, s := range summary {
		ranges, err := tp.pool.GetParticipantRanges(ctx, epoch.ID, s.Participant)
		require.NoError(t, err)
		for _, r := range ranges {
			for id := r.StartID; id <= r.FinalID; id++ {
				_, taken := covered[id]
				require.False(t, taken, "ticket %d assigned twice", id)
				covered[id] = s.Participant
			}
		}
		total += s.TicketCount
	}

	epoch, err = tp.pool.GetEpoch(ctx, epoch.ID)
	require.NoError(t, err)
	assert.Equal(t, epoch.TotalTickets(), total)
	assert.Len(t, covered, int(total))
	for id := uint64(0); id < total; id++ {
		assert.Contains(t, covered, id)
	}
}

func TestPoolService_ClaimRollsBackOnTransferFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tp := newTestPool(t)
	epoch := tp.concluded(t, true, sale{"alice", 10}, sale{"bob", 10})

	// Move custody away so the payout cannot be covered.
	held := tp.usdc.Balance(poolAccount)
	require.NoError(t, tp.usdc.For(poolAccount).Transfer(ctx, "escrow", held))

	_, err := tp.pool.Claim(ctx, epoch.ID, "alice")
	assert.ErrorIs(t, err, domain.ErrTransferFailed)

	record, err := tp.pool.GetClaim(ctx, epoch.ID, "alice")
	require.NoError(t, err)
	assert.Nil(t, record, "claim flag must not survive a failed payout")
	assert.Equal(t, 0, tp.publisher.count(events.EventTypePayoutClaimed))

	require.NoError(t, tp.usdc.For("escrow").Transfer(ctx, poolAccount, held))

	payout, err := tp.pool.Claim(ctx, epoch.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "2000", payout.Refund.String())
	assert.Equal(t, 1, tp.publisher.count(events.EventTypePayoutClaimed))
}

func TestPoolService_FailedClaimLegPaysOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tp := newTestPool(t)

	_, err := tp.pool.AddBonusAsset(ctx, authority, "GEM")
	require.NoError(t, err)
	require.NoError(t, tp.gem.Mint(poolAccount, sdkmath.NewInt(7)))

	epoch := tp.concluded(t, true, sale{"alice", 20}, sale{"bob", 20}, sale{"carol", 30})
	require.Equal(t, uint64(25), *epoch.WinningTicketID)
	bobBefore := tp.usdc.Balance("bob")

	// The sweep fails before anything moves.
	tp.assets.failTransfers["GEM"] = 1
	_, err = tp.pool.Claim(ctx, epoch.ID, "bob")
	assert.ErrorIs(t, err, domain.ErrTransferFailed)
	assert.Equal(t, bobBefore.String(), tp.usdc.Balance("bob").String())
	assert.True(t, tp.gem.Balance("bob").IsZero())

	// The sweep goes out, then the underlying leg fails.
	tp.assets.failTransfers["USDC"] = 1
	_, err = tp.pool.Claim(ctx, epoch.ID, "bob")
	assert.ErrorIs(t, err, domain.ErrTransferFailed)
	assert.Equal(t, bobBefore.String(), tp.usdc.Balance("bob").String())
	assert.Equal(t, "7", tp.gem.Balance("bob").String())

	record, err := tp.pool.GetClaim(ctx, epoch.ID, "bob")
	require.NoError(t, err)
	assert.Nil(t, record)

	payout, err := tp.pool.Claim(ctx, epoch.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "4000", payout.Total().String())
	assert.Empty(t, payout.BonusSweeps)
	assert.Equal(t, bobBefore.Add(sdkmath.NewInt(4000)).String(), tp.usdc.Balance("bob").String())
	assert.Equal(t, "7", tp.gem.Balance("bob").String())

	_, err = tp.pool.Claim(ctx, epoch.ID, "bob")
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)

	for _, participant := range []string{"alice", "carol"} {
		_, err := tp.pool.Claim(ctx, epoch.ID, participant)
		require.NoError(t, err, participant)
	}
	assert.True(t, tp.usdc.Balance(poolAccount).IsZero())
}

func TestPoolService_ConcludeKeepsDrawWhenUnstakeFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tp := newTestPool(t)

	epoch, err := tp.pool.OpenEpoch(ctx, authority)
	require.NoError(t, err)
	for _, s := range []sale{{"alice", 20}, {"bob", 20}} {
		_, err := tp.pool.BuyTickets(ctx, s.participant, s.count)
		require.NoError(t, err)
	}
	tp.clock.Advance(time.Hour)

	tp.randomness.queued = []int64{5, 25}
	tp.adapter.failUnstake = 1

	conclusion, err := tp.pool.ConcludeEpoch(ctx, authority, epoch.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), *conclusion.Epoch.WinningTicketID)
	assert.Equal(t, "alice", conclusion.Winner.Participant)
	assert.True(t, conclusion.Epoch.UnstakePending)
	assert.Equal(t, "8000", conclusion.Epoch.FinalBalance.String())

	_, err = tp.pool.ConcludeEpoch(ctx, authority, epoch.ID)
	assert.ErrorIs(t, err, domain.ErrEpochNotActive)
	assert.Equal(t, 1, tp.randomness.calls)

	_, err = tp.pool.OpenEpoch(ctx, authority)
	assert.ErrorIs(t, err, domain.ErrStakingFailed)

	// The retried unstake starts the cooldown, so the first unlock cannot withdraw yet.
	tp.clock.Advance(time.Hour)
	_, err = tp.pool.UnlockWithdrawal(ctx, authority, epoch.ID)
	assert.ErrorIs(t, err, domain.ErrStakingFailed)

	tp.clock.Advance(time.Hour)
	unlocked, err := tp.pool.UnlockWithdrawal(ctx, authority, epoch.ID)
	require.NoError(t, err)
	assert.True(t, unlocked.WithdrawalOpen)
	assert.False(t, unlocked.UnstakePending)
	assert.Equal(t, uint64(5), *unlocked.WinningTicketID)

	payout, err := tp.pool.Claim(ctx, epoch.ID, "alice")
	require.NoError(t, err)
	assert.True(t, payout.IsWinner)
	assert.Equal(t, "4000", payout.Total().String())

	_, err = tp.pool.OpenEpoch(ctx, authority)
	assert.NoError(t, err)
}

func TestPoolService_ClaimLatest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tp := newTestPool(t)

	first := tp.concluded(t, true, sale{"alice", 5})
	second := tp.concluded(t, false, sale{"alice", 3})
	require.NotEqual(t, first.ID, second.ID)

	// The latest concluded epoch is still locked.
	_, err := tp.pool.ClaimLatest(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrWithdrawalLocked)

	tp.clock.Advance(time.Hour)
	_, err = tp.pool.UnlockWithdrawal(ctx, authority, second.ID)
	require.NoError(t, err)

	payout, err := tp.pool.ClaimLatest(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, second.ID, payout.EpochID)
	assert.Equal(t, "600", payout.Refund.String())

	payout, err = tp.pool.Claim(ctx, first.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "1000", payout.Refund.String())
}

func TestPoolService_ClaimRejections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tp := newTestPool(t)

	epoch, err := tp.pool.OpenEpoch(ctx, authority)
	require.NoError(t, err)
	_, err = tp.pool.BuyTickets(ctx, "alice", 4)
	require.NoError(t, err)

	_, err = tp.pool.Claim(ctx, epoch.ID, "alice")
	assert.ErrorIs(t, err, domain.ErrEpochNotConcluded)

	_, err = tp.pool.Claim(ctx, epoch.ID+1, "alice")
	assert.ErrorIs(t, err, domain.ErrEpochNotFound)

	tp.clock.Advance(time.Hour)
	_, err = tp.pool.ConcludeEpoch(ctx, authority, epoch.ID)
	require.NoError(t, err)
	tp.clock.Advance(time.Hour)
	_, err = tp.pool.UnlockWithdrawal(ctx, authority, epoch.ID)
	require.NoError(t, err)

	_, err = tp.pool.UnlockWithdrawal(ctx, authority, epoch.ID)
	assert.ErrorIs(t, err, domain.ErrWithdrawalAlreadyOpen)

	_, err = tp.pool.Claim(ctx, epoch.ID, "mallory")
	assert.ErrorIs(t, err, domain.ErrNoTickets)

	_, err = tp.pool.SetPaused(ctx, authority, true)
	require.NoError(t, err)
	_, err = tp.pool.Claim(ctx, epoch.ID, "alice")
	assert.ErrorIs(t, err, domain.ErrPaused)

	_, err = tp.pool.SetPaused(ctx, authority, false)
	require.NoError(t, err)
	_, err = tp.pool.Claim(ctx, epoch.ID, "alice")
	assert.NoError(t, err)
}

func TestPoolService_PurchaseRejections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tp := newTestPool(t)

	_, err := tp.pool.BuyTickets(ctx, "alice", 1)
	assert.ErrorIs(t, err, domain.ErrEpochNotActive)

	_, err = tp.pool.OpenEpoch(ctx, intruder)
	assert.ErrorIs(t, err, domain.ErrAuthorityDenied)

	_, err = tp.pool.OpenEpoch(ctx, authority)
	require.NoError(t, err)
	_, err = tp.pool.OpenEpoch(ctx, authority)
	assert.ErrorIs(t, err, domain.ErrEpochAlreadyActive)

	_, err = tp.pool.BuyTickets(ctx, "alice", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = tp.pool.BuyTickets(ctx, "", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidParticipant)

	for i := 0; i < 8; i++ {
		_, err := tp.pool.BuyTickets(ctx, "alice", 1)
		require.NoError(t, err)
	}
	_, err = tp.pool.BuyTickets(ctx, "alice", 1)
	assert.ErrorIs(t, err, domain.ErrTooManyRanges)
}

func TestPoolService_SettingsApplyToNextEpoch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tp := newTestPool(t)

	epoch, err := tp.pool.OpenEpoch(ctx, authority)
	require.NoError(t, err)

	_, err = tp.pool.SetTicketPrice(ctx, authority, sdkmath.NewInt(500))
	require.NoError(t, err)
	_, err = tp.pool.SetOpenWindow(ctx, authority, 2*time.Hour)
	require.NoError(t, err)

	result, err := tp.pool.BuyTickets(ctx, "alice", 2)
	require.NoError(t, err)
	assert.Equal(t, "400", result.Cost.String())

	tp.clock.Advance(time.Hour)
	_, err = tp.pool.ConcludeEpoch(ctx, authority, epoch.ID)
	require.NoError(t, err)

	next, err := tp.pool.OpenEpoch(ctx, authority)
	require.NoError(t, err)
	assert.Equal(t, "500", next.TicketPrice.String())
	assert.Equal(t, 2*time.Hour, next.OpenWindow)

	_, err = tp.pool.TransferAuthority(ctx, authority, intruder.Subject)
	require.NoError(t, err)
	_, err = tp.pool.SetPaused(ctx, authority, true)
	assert.ErrorIs(t, err, domain.ErrAuthorityDenied)

	settings, err := tp.pool.SetPaused(ctx, intruder, true)
	require.NoError(t, err)
	assert.True(t, settings.Paused)

	_, err = tp.pool.BuyTickets(ctx, "alice", 1)
	assert.ErrorIs(t, err, domain.ErrPaused)
}

func TestPoolService_BonusAssets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tp := newTestPool(t)

	_, err := tp.pool.AddBonusAsset(ctx, authority, "GEM")
	require.NoError(t, err)
	_, err = tp.pool.AddBonusAsset(ctx, authority, "GEM")
	assert.ErrorIs(t, err, domain.ErrInvalidSettings)
	_, err = tp.pool.AddBonusAsset(ctx, authority, "USDC")
	assert.ErrorIs(t, err, domain.ErrInvalidSettings)

	assets, err := tp.pool.ListBonusAssets(ctx)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "GEM", assets[0].AssetID)

	require.NoError(t, tp.pool.RemoveBonusAsset(ctx, authority, "GEM"))
	assert.ErrorIs(t, tp.pool.RemoveBonusAsset(ctx, authority, "GEM"), domain.ErrInvalidSettings)

	assets, err = tp.pool.ListBonusAssets(ctx)
	require.NoError(t, err)
	assert.Empty(t, assets)
}

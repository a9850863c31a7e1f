package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"prizepool/application"
	"prizepool/domain/entities"
	"prizepool/domain/events"
	"prizepool/domain/interfaces"
	"prizepool/domain/testhelpers"
	"prizepool/infrastructure"
	"prizepool/infrastructure/custody"
	"prizepool/repository/memory"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

const (
	poolAccount = "prizepool"
	authorityID = "999999"
	grant       = 10_000_000
)

var (
	authority = entities.Credential{Subject: authorityID}
	intruder  = entities.Credential{Subject: "123456"}
	startTime = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
)

// fixedRandomness returns queued values first, then the same value on every call
type fixedRandomness struct {
	value  sdkmath.Int
	queued []int64
	calls  int
}

func (r *fixedRandomness) FetchRandom(ctx context.Context) (sdkmath.Int, error) {
	r.calls++
	if len(r.queued) > 0 {
		next := r.queued[0]
		r.queued = r.queued[1:]
		return sdkmath.NewInt(next), nil
	}
	return r.value, nil
}

var errAdapterBusy = errors.New("adapter busy")

// flakyStaking fails the next failUnstake UnstakeAll calls
type flakyStaking struct {
	interfaces.StakingAdapter
	failUnstake int
}

func (s *flakyStaking) UnstakeAll(ctx context.Context) error {
	if s.failUnstake > 0 {
		s.failUnstake--
		return errAdapterBusy
	}
	return s.StakingAdapter.UnstakeAll(ctx)
}

// flakyDirectory hands out handles whose Transfer fails while the asset has
// failures left in failTransfers
type flakyDirectory struct {
	*custody.Directory
	failTransfers map[string]int
}

func (d *flakyDirectory) Asset(assetID string) (interfaces.AssetTransfer, error) {
	handle, err := d.Directory.Asset(assetID)
	if err != nil {
		return nil, err
	}
	return &flakyHandle{AssetTransfer: handle, assetID: assetID, dir: d}, nil
}

type flakyHandle struct {
	interfaces.AssetTransfer
	assetID string
	dir     *flakyDirectory
}

func (h *flakyHandle) Transfer(ctx context.Context, to string, amount sdkmath.Int) error {
	if h.dir.failTransfers[h.assetID] > 0 {
		h.dir.failTransfers[h.assetID]--
		return errAdapterBusy
	}
	return h.AssetTransfer.Transfer(ctx, to, amount)
}

// recordingPublisher keeps every event that reaches the bus after commit
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) count(eventType events.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type() == eventType {
			n++
		}
	}
	return n
}

// testPool is a PoolService over the in-memory store and in-process custody
type testPool struct {
	pool       *application.PoolService
	usdc       *custody.Ledger
	gem        *custody.Ledger
	staking    *custody.StakingPool
	adapter    *flakyStaking
	assets     *flakyDirectory
	clock      *testhelpers.FixedClock
	randomness *fixedRandomness
	publisher  *recordingPublisher
}

func newTestPool(t *testing.T) *testPool {
	t.Helper()

	clock := &testhelpers.FixedClock{At: startTime}
	usdc := custody.NewLedger("USDC")
	gem := custody.NewLedger("GEM")
	staking := custody.NewStakingPool(usdc, poolAccount, clock, custody.StakingPoolConfig{
		VaultAccount: "vault",
		Cooldown:     time.Hour,
	})
	randomness := &fixedRandomness{value: sdkmath.NewInt(25)}
	publisher := &recordingPublisher{}

	adapter := &flakyStaking{StakingAdapter: staking}
	assets := &flakyDirectory{Directory: custody.NewDirectory(poolAccount, usdc, gem), failTransfers: map[string]int{}}

	uowFactory := infrastructure.NewUnitOfWorkFactory(memory.NewUnitOfWorkFactory(memory.NewStore()), publisher)
	pool := application.NewPoolService(uowFactory, application.PoolDependencies{
		Asset:      &flakyHandle{AssetTransfer: usdc.For(poolAccount), assetID: "USDC", dir: assets},
		Assets:     assets,
		Staking:    adapter,
		Randomness: randomness,
		Clock:      clock,
		Funder:     custody.NewFaucet(usdc, poolAccount, sdkmath.NewInt(grant)),
	}, application.PoolConfig{
		PoolAccount:             poolAccount,
		UnderlyingAssetID:       "USDC",
		MaxRangesPerParticipant: 8,
		MaxBonusAssets:          2,
	})

	_, err := pool.Initialize(context.Background(), &entities.PoolSettings{
		Authority:   authorityID,
		TicketPrice: sdkmath.NewInt(200),
		OpenWindow:  time.Hour,
	})
	require.NoError(t, err)

	return &testPool{
		pool:       pool,
		usdc:       usdc,
		gem:        gem,
		staking:    staking,
		adapter:    adapter,
		assets:     assets,
		clock:      clock,
		randomness: randomness,
		publisher:  publisher,
	}
}

// concluded opens an epoch, sells the given tickets, closes the window and
// concludes the epoch; withdrawal is unlocked when unlock is set
func (tp *testPool) concluded(t *testing.T, unlock bool, sales ...sale) *entities.Epoch {
	t.Helper()

	ctx := context.Background()
	epoch, err := tp.pool.OpenEpoch(ctx, authority)
	require.NoError(t, err)

	for _, s := range sales {
		_, err := tp.pool.BuyTickets(ctx, s.participant, s.count)
		require.NoError(t, err)
	}

	tp.clock.Advance(time.Hour)
	_, err = tp.pool.ConcludeEpoch(ctx, authority, epoch.ID)
	require.NoError(t, err)

	if unlock {
		tp.clock.Advance(time.Hour)
		_, err = tp.pool.UnlockWithdrawal(ctx, authority, epoch.ID)
		require.NoError(t, err)
	}

	epoch, err = tp.pool.GetEpoch(ctx, epoch.ID)
	require.NoError(t, err)
	return epoch
}

type sale struct {
	participant string
	count       uint64
}

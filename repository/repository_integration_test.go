package repository

import (
	"context"
	"testing"
	"time"

	"prizepool/domain/entities"
	"prizepool/domain/events"
	"prizepool/domain/testhelpers"
	"prizepool/infrastructure"
	"prizepool/repository/testutil"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var openedAt = time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

func TestEpochRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewEpochRepository(testDB.DB)
	ctx := context.Background()

	t.Run("no active epoch", func(t *testing.T) {
		active, err := repo.GetActive(ctx)
		require.NoError(t, err)
		assert.Nil(t, active)

		missing, err := repo.GetByID(ctx, 4242)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	var first *entities.Epoch
	t.Run("create and conclude", func(t *testing.T) {
		first = testutil.CreateTestEpoch(openedAt)
		require.NoError(t, repo.Create(ctx, first))
		assert.NotZero(t, first.ID)

		// Only one epoch may be active at a time.
		assert.Error(t, repo.Create(ctx, testutil.CreateTestEpoch(openedAt.Add(time.Minute))))

		active, err := repo.GetActive(ctx)
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, first.ID, active.ID)
		assert.Equal(t, time.Hour, active.OpenWindow)
		assert.Equal(t, "200", active.TicketPrice.String())

		// Amounts beyond 64 bits survive the round trip.
		huge, ok := sdkmath.NewIntFromString("1606938044258990275541962092341162602522202993782792835301376")
		require.True(t, ok)
		winner := uint64(1<<63 + 7)
		first.InitialPrincipal = first.TicketPrice.Mul(sdkmath.NewIntFromUint64(winner + 1))
		require.NoError(t, first.Conclude(winner, huge, openedAt.Add(time.Hour)))
		require.NoError(t, repo.Update(ctx, first))

		loaded, err := repo.GetByIDForUpdate(ctx, first.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, entities.EpochStatusEnded, loaded.Status)
		assert.Equal(t, huge.String(), loaded.FinalBalance.String())
		require.NotNil(t, loaded.WinningTicketID)
		assert.Equal(t, winner, *loaded.WinningTicketID)
		require.NotNil(t, loaded.EndTime)
		assert.True(t, loaded.EndTime.Equal(openedAt.Add(time.Hour)))
	})

	t.Run("concluded lookups", func(t *testing.T) {
		second := testutil.CreateTestEpoch(openedAt.Add(2 * time.Hour))
		require.NoError(t, repo.Create(ctx, second))
		second.InitialPrincipal = second.TicketPrice
		require.NoError(t, second.Conclude(0, sdkmath.ZeroInt(), openedAt.Add(3*time.Hour)))
		require.NoError(t, repo.Update(ctx, second))

		latest, err := repo.GetLatestConcluded(ctx)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, second.ID, latest.ID)

		locked, err := repo.GetLockedConcludedBefore(ctx, openedAt.Add(90*time.Minute))
		require.NoError(t, err)
		require.Len(t, locked, 1)
		assert.Equal(t, first.ID, locked[0].ID)

		require.NoError(t, first.UnlockWithdrawal(openedAt.Add(2*time.Hour)))
		require.NoError(t, repo.Update(ctx, first))

		locked, err = repo.GetLockedConcludedBefore(ctx, openedAt.Add(4*time.Hour))
		require.NoError(t, err)
		require.Len(t, locked, 1)
		assert.Equal(t, second.ID, locked[0].ID)

		recent, err := repo.GetRecent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, second.ID, recent[0].ID)
	})

	t.Run("update unknown epoch", func(t *testing.T) {
		ghost := testutil.CreateTestEpoch(openedAt)
		ghost.ID = 9999
		assert.Error(t, repo.Update(ctx, ghost))
	})
}

func TestTicketRangeRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	epochs := NewEpochRepository(testDB.DB)
	repo := NewTicketRangeRepository(testDB.DB)
	ctx := context.Background()

	epoch := testutil.CreateTestEpoch(openedAt)
	require.NoError(t, epochs.Create(ctx, epoch))

	ranges := []*entities.TicketRange{
		testutil.CreateTestTicketRange(epoch.ID, "alice", 0, 20),
		testutil.CreateTestTicketRange(epoch.ID, "bob", 20, 20),
		testutil.CreateTestTicketRange(epoch.ID, "carol", 40, 20_000),
		testutil.CreateTestTicketRange(epoch.ID, "alice", 20_040, 5),
	}
	for _, tr := range ranges {
		require.NoError(t, repo.Append(ctx, tr))
		assert.NotZero(t, tr.ID)
	}

	t.Run("duplicate start rejected", func(t *testing.T) {
		assert.Error(t, repo.Append(ctx, testutil.CreateTestTicketRange(epoch.ID, "mallory", 20, 1)))
	})

	t.Run("find owner", func(t *testing.T) {
		tests := []struct {
			ticket uint64
			owner  string
		}{
			{0, "alice"},
			{19, "alice"},
			{25, "bob"},
			{20_039, "carol"},
			{20_044, "alice"},
		}
		for _, tt := range tests {
			owner, err := repo.FindOwner(ctx, epoch.ID, tt.ticket)
			require.NoError(t, err)
			require.NotNil(t, owner, "ticket %d", tt.ticket)
			assert.Equal(t, tt.owner, owner.Participant, "ticket %d", tt.ticket)
		}

		owner, err := repo.FindOwner(ctx, epoch.ID, 20_045)
		require.NoError(t, err)
		assert.Nil(t, owner)
	})

	t.Run("participant queries", func(t *testing.T) {
		set, err := repo.GetByParticipant(ctx, epoch.ID, "alice")
		require.NoError(t, err)
		require.Len(t, set, 2)
		assert.Equal(t, uint64(0), set[0].StartID)
		assert.Equal(t, uint64(20_040), set[1].StartID)

		held, err := repo.CountByParticipant(ctx, epoch.ID, "alice")
		require.NoError(t, err)
		assert.Equal(t, 2, held)

		all, err := repo.GetByEpoch(ctx, epoch.ID)
		require.NoError(t, err)
		assert.Len(t, all, 4)

		summary, err := repo.GetParticipantSummary(ctx, epoch.ID)
		require.NoError(t, err)
		require.Len(t, summary, 3)
		assert.Equal(t, "carol", summary[0].Participant)
		assert.Equal(t, uint64(20_000), summary[0].TicketCount)
		assert.Equal(t, "alice", summary[1].Participant)
		assert.Equal(t, uint64(25), summary[1].TicketCount)
		assert.Equal(t, 2, summary[1].RangeCount)
	})
}

func TestClaimAndSettingsRepositories(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	epoch := testutil.CreateTestEpoch(openedAt)
	require.NoError(t, NewEpochRepository(testDB.DB).Create(ctx, epoch))

	t.Run("claim flag is written once", func(t *testing.T) {
		claims := NewClaimRepository(testDB.DB)

		existing, err := claims.Get(ctx, epoch.ID, "alice")
		require.NoError(t, err)
		assert.Nil(t, existing)

		inserted, err := claims.Insert(ctx, testutil.CreateTestClaim(epoch.ID, "alice", 4000, 0, false))
		require.NoError(t, err)
		assert.True(t, inserted)

		inserted, err = claims.Insert(ctx, testutil.CreateTestClaim(epoch.ID, "alice", 4000, 0, false))
		require.NoError(t, err)
		assert.False(t, inserted)

		_, err = claims.Insert(ctx, testutil.CreateTestClaim(epoch.ID, "bob", 4000, -300, true))
		require.NoError(t, err)

		record, err := claims.Get(ctx, epoch.ID, "bob")
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.True(t, record.IsWinner)
		assert.Equal(t, "-300", record.Prize.String())

		all, err := claims.GetByEpoch(ctx, epoch.ID)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("settings initialize once", func(t *testing.T) {
		settings := NewPoolSettingsRepository(testDB.DB)

		missing, err := settings.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, missing)

		stored, err := settings.Initialize(ctx, testutil.CreateTestSettings("999999"))
		require.NoError(t, err)
		assert.Equal(t, "999999", stored.Authority)

		stored, err = settings.Initialize(ctx, testutil.CreateTestSettings("other"))
		require.NoError(t, err)
		assert.Equal(t, "999999", stored.Authority)

		stored.TicketPrice = sdkmath.NewInt(750)
		stored.Paused = true
		stored.UpdatedAt = time.Now().UTC()
		require.NoError(t, settings.Update(ctx, stored))

		reloaded, err := settings.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "750", reloaded.TicketPrice.String())
		assert.True(t, reloaded.Paused)
		assert.Equal(t, time.Hour, reloaded.OpenWindow)
	})

	t.Run("bonus assets", func(t *testing.T) {
		bonus := NewBonusAssetRepository(testDB.DB)

		added, err := bonus.Add(ctx, &entities.BonusAsset{AssetID: "GEM", AddedAt: openedAt})
		require.NoError(t, err)
		assert.True(t, added)
		added, err = bonus.Add(ctx, &entities.BonusAsset{AssetID: "GEM", AddedAt: openedAt})
		require.NoError(t, err)
		assert.False(t, added)

		list, err := bonus.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)

		removed, err := bonus.Remove(ctx, "GEM")
		require.NoError(t, err)
		assert.True(t, removed)
		removed, err = bonus.Remove(ctx, "GEM")
		require.NoError(t, err)
		assert.False(t, removed)
	})
}

func TestUnitOfWork_Postgres(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	factory := NewUnitOfWorkFactory(testDB.DB)

	t.Run("rollback leaves nothing behind", func(t *testing.T) {
		publisher := new(testhelpers.MockEventPublisher)
		uow := factory.CreateWithPublisher(infrastructure.NewNATSTransactionalPublisher(publisher))
		require.NoError(t, uow.Begin(ctx))

		epoch := testutil.CreateTestEpoch(openedAt)
		require.NoError(t, uow.EpochRepository().Create(ctx, epoch))
		require.NoError(t, uow.EventBus().Publish(events.EpochOpenedEvent{EpochID: epoch.ID}))
		require.NoError(t, uow.Rollback())

		active, err := NewEpochRepository(testDB.DB).GetActive(ctx)
		require.NoError(t, err)
		assert.Nil(t, active)
		publisher.AssertNotCalled(t, "Publish", mock.Anything)
	})

	t.Run("commit persists and flushes", func(t *testing.T) {
		publisher := new(testhelpers.MockEventPublisher)
		publisher.On("Publish", mock.AnythingOfType("events.EpochOpenedEvent")).Return(nil).Once()

		uow := factory.CreateWithPublisher(infrastructure.NewNATSTransactionalPublisher(publisher))
		require.NoError(t, uow.Begin(ctx))

		epoch := testutil.CreateTestEpoch(openedAt)
		require.NoError(t, uow.EpochRepository().Create(ctx, epoch))
		require.NoError(t, uow.EventBus().Publish(events.EpochOpenedEvent{EpochID: epoch.ID}))
		require.NoError(t, uow.Commit())
		require.NoError(t, uow.Rollback())

		active, err := NewEpochRepository(testDB.DB).GetActive(ctx)
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, epoch.ID, active.ID)
		publisher.AssertExpectations(t)
	})
}

package bot

import (
	"context"
	"testing"
	"time"

	"prizepool/domain/events"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAnnouncement(t *testing.T) {
	t.Parallel()

	opened := buildAnnouncement(events.EpochOpenedEvent{
		EpochID:     2,
		TicketPrice: sdkmath.NewInt(1500),
		Deadline:    time.Unix(1_750_000_000, 0),
	}, "USDC")
	require.NotNil(t, opened)
	assert.Equal(t, "🎟️ Epoch #2 is open", opened.Title)
	assert.Contains(t, opened.Description, "**1,500 USDC**")
	assert.Contains(t, opened.Description, "<t:1750000000:R>")

	concluded := buildAnnouncement(events.EpochConcludedEvent{
		EpochID:          2,
		WinningTicketID:  27,
		Winner:           "123456",
		TotalTickets:     20040,
		InitialPrincipal: sdkmath.NewInt(4_008_000),
		FinalBalance:     sdkmath.NewInt(4_018_000),
	}, "USDC")
	require.NotNil(t, concluded)
	assert.Contains(t, concluded.Description, "Ticket **#27** of 20,040")
	assert.Contains(t, concluded.Description, "<@123456>")
	assert.Contains(t, concluded.Description, "Prize: **10,000 USDC**")

	assert.NotNil(t, buildAnnouncement(events.WithdrawalUnlockedEvent{EpochID: 2}, "USDC"))
	assert.Nil(t, buildAnnouncement(events.PayoutClaimedEvent{EpochID: 2}, "USDC"))
}

func TestAnnounceEvent_DisabledWithoutChannel(t *testing.T) {
	t.Parallel()

	b := &Bot{config: Config{AssetSymbol: "USDC"}}
	assert.NoError(t, b.AnnounceEvent(context.Background(), events.WithdrawalUnlockedEvent{EpochID: 1}))
}

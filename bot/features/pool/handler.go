package pool

import (
	"context"
	"fmt"

	"prizepool/bot/common"
	"prizepool/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

type optionMap = map[string]*discordgo.ApplicationCommandInteractionDataOption

func (f *Feature) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	settings, err := f.pool.GetSettings(ctx)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	if settings == nil {
		common.RespondWithError(s, i, "The prize pool has not been set up yet.")
		return
	}

	active, err := f.pool.GetActiveEpoch(ctx)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	latest, err := f.pool.GetLatestConcluded(ctx)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	bonus, err := f.pool.ListBonusAssets(ctx)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	common.RespondWithEmbed(s, i, buildStatusEmbed(settings, active, latest, bonus, f.assetSymbol), false)
}

func (f *Feature) handleBuy(s *discordgo.Session, i *discordgo.InteractionCreate, options optionMap) {
	ctx := context.Background()
	participant := common.InvokerID(i)

	opt, ok := options["count"]
	if !ok || opt.IntValue() <= 0 {
		common.HandleError(s, i, common.NewUserError("Please enter a positive number of tickets", "non-positive ticket count"), false)
		return
	}
	count := uint64(opt.IntValue())

	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Failed to defer response: %v", err)
		return
	}

	result, err := f.pool.BuyTickets(ctx, participant, count)
	if err != nil {
		common.HandleError(s, i, fmt.Errorf("buy %d tickets: %w", count, err), true)
		return
	}

	log.WithFields(log.Fields{
		"participant": participant,
		"epochID":     result.Epoch.ID,
		"startID":     result.Range.StartID,
		"finalID":     result.Range.FinalID,
		"cost":        result.Cost.String(),
	}).Info("Tickets purchased via Discord")

	common.FollowUpWithEmbed(s, i, buildPurchaseEmbed(result, f.assetSymbol), true)
}

func (f *Feature) handleTickets(s *discordgo.Session, i *discordgo.InteractionCreate, options optionMap) {
	ctx := context.Background()
	participant := common.InvokerID(i)

	epoch, err := f.resolveEpoch(ctx, options)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	if epoch == nil {
		common.RespondWithError(s, i, "There is no epoch to show yet.")
		return
	}

	ranges, err := f.pool.GetParticipantRanges(ctx, epoch.ID, participant)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	var claim *entities.ClaimRecord
	var preview *entities.Payout
	if epoch.IsEnded() && len(ranges) > 0 {
		if claim, err = f.pool.GetClaim(ctx, epoch.ID, participant); err != nil {
			common.HandleError(s, i, err, false)
			return
		}
		if claim == nil {
			if preview, err = f.pool.PreviewPayout(ctx, epoch.ID, participant); err != nil {
				common.HandleError(s, i, err, false)
				return
			}
		}
	}

	common.RespondWithEmbed(s, i, buildTicketsEmbed(epoch, ranges, claim, preview, f.assetSymbol), true)
}

func (f *Feature) handleClaim(s *discordgo.Session, i *discordgo.InteractionCreate, options optionMap) {
	ctx := context.Background()
	participant := common.InvokerID(i)

	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Failed to defer response: %v", err)
		return
	}

	var (
		payout *entities.Payout
		err    error
	)
	if opt, ok := options["epoch"]; ok {
		payout, err = f.pool.Claim(ctx, opt.IntValue(), participant)
	} else {
		payout, err = f.pool.ClaimLatest(ctx, participant)
	}
	if err != nil {
		common.HandleError(s, i, fmt.Errorf("claim: %w", err), true)
		return
	}

	log.WithFields(log.Fields{
		"participant": participant,
		"epochID":     payout.EpochID,
		"total":       payout.Total().String(),
		"winner":      payout.IsWinner,
	}).Info("Payout claimed via Discord")

	common.FollowUpWithEmbed(s, i, buildClaimEmbed(payout, f.assetSymbol), true)
}

func (f *Feature) handleHistory(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	epochs, err := f.pool.GetRecentEpochs(ctx, common.HistoryPageSize)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	common.RespondWithEmbed(s, i, buildHistoryEmbed(epochs, f.assetSymbol), false)
}

func (f *Feature) handleStandings(s *discordgo.Session, i *discordgo.InteractionCreate, options optionMap) {
	ctx := context.Background()
	invoker := common.InvokerID(i)

	epoch, err := f.resolveEpoch(ctx, options)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	if epoch == nil {
		common.RespondWithError(s, i, "There is no epoch to show yet.")
		return
	}

	// Name lookups and rendering can exceed the interaction deadline
	if err := common.DeferResponse(s, i, false); err != nil {
		log.Errorf("Failed to defer response: %v", err)
		return
	}

	summary, err := f.pool.GetParticipantSummary(ctx, epoch.ID)
	if err != nil {
		common.HandleError(s, i, err, true)
		return
	}
	if len(summary) == 0 {
		common.FollowUpWithEmbed(s, i, buildStandingsEmbed(epoch, 0, f.assetSymbol), false)
		return
	}

	rows := standingRows(summary, invoker, func(participant string) string {
		return common.GetDisplayName(s, i.GuildID, participant)
	})
	png, err := GenerateStandingsImage(epoch, rows)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to render standings"), true)
		return
	}

	common.FollowUpWithImage(s, i, buildStandingsEmbed(epoch, len(summary), f.assetSymbol), "standings.png", png)
}

// standingRows turns the ledger summary into image rows, resolving at most the
// rows the image shows
func standingRows(summary []*entities.ParticipantSummary, invoker string, displayName func(string) string) []StandingRow {
	rows := make([]StandingRow, len(summary))
	for idx, holder := range summary {
		rows[idx] = StandingRow{
			Name:    holder.Participant,
			Tickets: holder.TicketCount,
			Invoker: holder.Participant == invoker,
		}
		if idx < maxStandingsRows {
			rows[idx].Name = displayName(holder.Participant)
		}
	}
	return rows
}

func (f *Feature) handleWallet(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	participant := common.InvokerID(i)

	balance, err := f.wallet.Balance(ctx, participant)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	displayName := common.GetDisplayName(s, i.GuildID, participant)
	common.RespondWithSuccess(s, i,
		fmt.Sprintf("%s, your wallet holds **%s %s**", displayName, common.FormatAmount(balance), f.assetSymbol), true)
}

// resolveEpoch returns the epoch named by the "epoch" option, or the active
// epoch, or the latest concluded one
func (f *Feature) resolveEpoch(ctx context.Context, options optionMap) (*entities.Epoch, error) {
	if opt, ok := options["epoch"]; ok {
		return f.pool.GetEpoch(ctx, opt.IntValue())
	}

	active, err := f.pool.GetActiveEpoch(ctx)
	if err != nil || active != nil {
		return active, err
	}
	return f.pool.GetLatestConcluded(ctx)
}

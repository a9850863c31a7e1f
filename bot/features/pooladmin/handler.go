package pooladmin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"prizepool/bot/common"
	"prizepool/domain/entities"

	sdkmath "cosmossdk.io/math"
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

type optionMap = map[string]*discordgo.ApplicationCommandInteractionDataOption

func (f *Feature) handleOpen(s *discordgo.Session, i *discordgo.InteractionCreate, cred entities.Credential) {
	epoch, err := f.pool.OpenEpoch(context.Background(), cred)
	if err != nil {
		common.HandleError(s, i, fmt.Errorf("open epoch: %w", err), false)
		return
	}

	common.RespondWithSuccess(s, i, fmt.Sprintf("Epoch #%d is open. Tickets cost %s %s and sales close %s.",
		epoch.ID, common.FormatAmount(epoch.TicketPrice), f.assetSymbol,
		common.FormatDiscordTimestamp(epoch.PurchaseDeadline(), "f")), false)
}

func (f *Feature) handleConclude(s *discordgo.Session, i *discordgo.InteractionCreate, cred entities.Credential, options optionMap) {
	ctx := context.Background()

	// Concluding unstakes and draws randomness; give it time.
	if err := common.DeferResponse(s, i, false); err != nil {
		log.Errorf("Failed to defer response: %v", err)
		return
	}

	epochID, err := f.epochOrActive(ctx, options)
	if err != nil {
		common.HandleError(s, i, err, true)
		return
	}

	conclusion, err := f.pool.ConcludeEpoch(ctx, cred, epochID)
	if err != nil {
		common.HandleError(s, i, fmt.Errorf("conclude epoch %d: %w", epochID, err), true)
		return
	}

	epoch := conclusion.Epoch
	common.FollowUpWithSuccess(s, i, fmt.Sprintf("Epoch #%d concluded. Ticket **#%d** of %s wins %s with a yield of **%s %s**.",
		epoch.ID, *epoch.WinningTicketID, common.FormatTickets(epoch.TotalTickets()),
		common.GetUserMention(conclusion.Winner.Participant),
		common.FormatAmount(epoch.Yield()), f.assetSymbol), false)
}

func (f *Feature) handleUnlock(s *discordgo.Session, i *discordgo.InteractionCreate, cred entities.Credential, options optionMap) {
	ctx := context.Background()

	epochID, err := f.epochOrLatestConcluded(ctx, options)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	if _, err := f.pool.UnlockWithdrawal(ctx, cred, epochID); err != nil {
		common.HandleError(s, i, fmt.Errorf("unlock epoch %d: %w", epochID, err), false)
		return
	}

	common.RespondWithSuccess(s, i, fmt.Sprintf("Withdrawals for epoch #%d are open. Use `/pool claim` to collect.", epochID), false)
}

func (f *Feature) handleRestart(s *discordgo.Session, i *discordgo.InteractionCreate, cred entities.Credential, options optionMap) {
	ctx := context.Background()

	epochID, err := f.epochOrActive(ctx, options)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	epoch, err := f.pool.RestartWindow(ctx, cred, epochID)
	if err != nil {
		common.HandleError(s, i, fmt.Errorf("restart epoch %d: %w", epochID, err), false)
		return
	}

	common.RespondWithSuccess(s, i, fmt.Sprintf("Epoch #%d window restarted. Sales close %s.",
		epoch.ID, common.FormatDiscordTimestamp(epoch.PurchaseDeadline(), "f")), false)
}

func (f *Feature) handlePrice(s *discordgo.Session, i *discordgo.InteractionCreate, cred entities.Credential, options optionMap) {
	price, err := parsePrice(options)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	settings, err := f.pool.SetTicketPrice(context.Background(), cred, price)
	if err != nil {
		common.HandleError(s, i, fmt.Errorf("set ticket price: %w", err), false)
		return
	}

	common.RespondWithSuccess(s, i, fmt.Sprintf("Ticket price for the next epoch is %s %s.",
		common.FormatAmount(settings.TicketPrice), f.assetSymbol), true)
}

func (f *Feature) handleWindow(s *discordgo.Session, i *discordgo.InteractionCreate, cred entities.Credential, options optionMap) {
	window, err := parseWindow(options)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	settings, err := f.pool.SetOpenWindow(context.Background(), cred, window)
	if err != nil {
		common.HandleError(s, i, fmt.Errorf("set open window: %w", err), false)
		return
	}

	common.RespondWithSuccess(s, i, fmt.Sprintf("Purchase window for the next epoch is %s.",
		common.FormatDuration(settings.OpenWindow)), true)
}

func (f *Feature) handlePaused(s *discordgo.Session, i *discordgo.InteractionCreate, cred entities.Credential, paused bool) {
	if _, err := f.pool.SetPaused(context.Background(), cred, paused); err != nil {
		common.HandleError(s, i, fmt.Errorf("set paused=%t: %w", paused, err), false)
		return
	}

	if paused {
		common.RespondWithSuccess(s, i, "Pool paused. The running epoch continues; no new epoch will open.", false)
		return
	}
	common.RespondWithSuccess(s, i, "Pool resumed.", false)
}

func (f *Feature) handleBonusAdd(s *discordgo.Session, i *discordgo.InteractionCreate, cred entities.Credential, options optionMap) {
	assetID := assetOption(options)
	if assetID == "" {
		common.HandleError(s, i, common.NewUserError("Please name an asset", "empty asset id"), false)
		return
	}

	if _, err := f.pool.AddBonusAsset(context.Background(), cred, assetID); err != nil {
		common.HandleError(s, i, fmt.Errorf("add bonus asset %s: %w", assetID, err), false)
		return
	}

	common.RespondWithSuccess(s, i, fmt.Sprintf("%s balances held by the pool now go to each epoch's winner.", assetID), false)
}

func (f *Feature) handleBonusRemove(s *discordgo.Session, i *discordgo.InteractionCreate, cred entities.Credential, options optionMap) {
	assetID := assetOption(options)
	if assetID == "" {
		common.HandleError(s, i, common.NewUserError("Please name an asset", "empty asset id"), false)
		return
	}

	if err := f.pool.RemoveBonusAsset(context.Background(), cred, assetID); err != nil {
		common.HandleError(s, i, fmt.Errorf("remove bonus asset %s: %w", assetID, err), false)
		return
	}

	common.RespondWithSuccess(s, i, fmt.Sprintf("%s is no longer a bonus asset.", assetID), false)
}

func (f *Feature) handleAuthority(s *discordgo.Session, i *discordgo.InteractionCreate, cred entities.Credential, options optionMap) {
	opt, ok := options["user"]
	if !ok {
		common.HandleError(s, i, common.NewUserError("Please pick a user", "missing user option"), false)
		return
	}
	newAuthority := opt.UserValue(nil).ID

	if _, err := f.pool.TransferAuthority(context.Background(), cred, newAuthority); err != nil {
		common.HandleError(s, i, fmt.Errorf("transfer authority: %w", err), false)
		return
	}

	common.RespondWithSuccess(s, i, fmt.Sprintf("Pool authority transferred to %s.", common.GetUserMention(newAuthority)), false)
}

func (f *Feature) epochOrActive(ctx context.Context, options optionMap) (int64, error) {
	if opt, ok := options["epoch"]; ok {
		return opt.IntValue(), nil
	}
	active, err := f.pool.GetActiveEpoch(ctx)
	if err != nil {
		return 0, err
	}
	if active == nil {
		return 0, common.NewUserError("No epoch is open right now.", "no active epoch")
	}
	return active.ID, nil
}

func (f *Feature) epochOrLatestConcluded(ctx context.Context, options optionMap) (int64, error) {
	if opt, ok := options["epoch"]; ok {
		return opt.IntValue(), nil
	}
	latest, err := f.pool.GetLatestConcluded(ctx)
	if err != nil {
		return 0, err
	}
	if latest == nil {
		return 0, common.NewUserError("No epoch has been concluded yet.", "no concluded epoch")
	}
	return latest.ID, nil
}

// parsePrice reads the "amount" option as a base-10 integer of any size
func parsePrice(options optionMap) (sdkmath.Int, error) {
	opt, ok := options["amount"]
	if !ok {
		return sdkmath.Int{}, common.NewUserError("Please enter a price", "missing amount option")
	}
	raw := strings.ReplaceAll(strings.TrimSpace(opt.StringValue()), ",", "")
	price, ok := sdkmath.NewIntFromString(raw)
	if !ok || !price.IsPositive() {
		return sdkmath.Int{}, common.NewUserError("The price must be a positive whole number", fmt.Sprintf("invalid price %q", raw))
	}
	return price, nil
}

// parseWindow reads the "duration" option in Go duration syntax ("36h", "90m")
func parseWindow(options optionMap) (time.Duration, error) {
	opt, ok := options["duration"]
	if !ok {
		return 0, common.NewUserError("Please enter a duration", "missing duration option")
	}
	window, err := time.ParseDuration(strings.TrimSpace(opt.StringValue()))
	if err != nil {
		return 0, common.NewUserError("Durations look like `36h` or `90m`", fmt.Sprintf("invalid duration %q", opt.StringValue()))
	}
	return window, nil
}

func assetOption(options optionMap) string {
	opt, ok := options["asset"]
	if !ok {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(opt.StringValue()))
}

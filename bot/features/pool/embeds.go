package pool

import (
	"fmt"
	"strings"

	"prizepool/bot/common"
	"prizepool/domain/entities"
	"prizepool/domain/interfaces"

	"github.com/bwmarrin/discordgo"
)

func buildStatusEmbed(settings *entities.PoolSettings, active, latest *entities.Epoch, bonus []*entities.BonusAsset, assetSymbol string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🎟️ Prize Pool",
		Color: common.ColorPrimary,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Next ticket price",
				Value:  fmt.Sprintf("%s %s", common.FormatAmount(settings.TicketPrice), assetSymbol),
				Inline: true,
			},
			{
				Name:   "Next window",
				Value:  common.FormatDuration(settings.OpenWindow),
				Inline: true,
			},
		},
	}

	if settings.Paused {
		embed.Color = common.ColorWarning
		embed.Description = "⏸️ The pool is paused. No new epochs will open."
	}

	if active != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: fmt.Sprintf("Epoch #%d (open)", active.ID),
			Value: fmt.Sprintf("%s tickets sold at %s %s\nPrincipal: **%s %s**\nSales close %s",
				common.FormatTickets(active.TotalTickets()),
				common.FormatAmount(active.TicketPrice), assetSymbol,
				common.FormatAmount(active.InitialPrincipal), assetSymbol,
				common.FormatDiscordTimestamp(active.PurchaseDeadline(), "R")),
		})
	} else {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Current epoch",
			Value: "No epoch is open right now.",
		})
	}

	if latest != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("Last draw: epoch #%d", latest.ID),
			Value: describeConcluded(latest, assetSymbol),
		})
	}

	if len(bonus) > 0 {
		ids := make([]string, 0, len(bonus))
		for _, b := range bonus {
			ids = append(ids, b.AssetID)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Bonus assets for the winner",
			Value: strings.Join(ids, ", "),
		})
	}

	return embed
}

func buildPurchaseEmbed(result *interfaces.TicketPurchaseResult, assetSymbol string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "🎟️ Tickets purchased",
		Color: common.ColorSuccess,
		Description: fmt.Sprintf("You bought **%s** tickets in epoch #%d for **%s %s**.",
			common.FormatTickets(result.Range.Count()), result.Epoch.ID,
			common.FormatAmount(result.Cost), assetSymbol),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Ticket ids", Value: common.FormatTicketRange(result.Range), Inline: true},
			{Name: "Tickets sold", Value: common.FormatTickets(result.Epoch.TotalTickets()), Inline: true},
			{Name: "Sales close", Value: common.FormatDiscordTimestamp(result.Epoch.PurchaseDeadline(), "f"), Inline: true},
		},
	}
}

func buildTicketsEmbed(epoch *entities.Epoch, ranges entities.TicketSet, claim *entities.ClaimRecord, preview *entities.Payout, assetSymbol string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Your tickets in epoch #%d", epoch.ID),
		Color: common.ColorInfo,
	}

	if len(ranges) == 0 {
		embed.Description = "You hold no tickets in this epoch."
		return embed
	}

	embed.Description = fmt.Sprintf("You hold **%s** of %s tickets.",
		common.FormatTickets(ranges.TicketCount()), common.FormatTickets(epoch.TotalTickets()))
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "Ticket ids",
		Value: common.FormatTicketSet(ranges, common.MaxRangesShown),
	})

	switch {
	case claim != nil:
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Claimed",
			Value: fmt.Sprintf("Paid %s", common.FormatDiscordTimestamp(claim.ClaimedAt, "f")),
		})
	case preview != nil:
		name := "Payout"
		if !epoch.WithdrawalOpen {
			name = "Payout (withdrawal not open yet)"
		}
		if preview.IsWinner {
			embed.Color = common.ColorGold
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  name,
			Value: common.FormatPayout(preview, assetSymbol),
		})
	}

	return embed
}

func buildClaimEmbed(payout *entities.Payout, assetSymbol string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Claimed from epoch #%d", payout.EpochID),
		Color:       common.ColorSuccess,
		Description: common.FormatPayout(payout, assetSymbol),
	}
	if payout.IsWinner {
		embed.Title = fmt.Sprintf("🏆 You won epoch #%d!", payout.EpochID)
		embed.Color = common.ColorGold
	}
	return embed
}

func buildHistoryEmbed(epochs []*entities.Epoch, assetSymbol string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Recent epochs",
		Color: common.ColorInfo,
	}
	if len(epochs) == 0 {
		embed.Description = "No epochs yet."
		return embed
	}

	for _, epoch := range epochs {
		if len(embed.Fields) == common.MaxEmbedFields {
			break
		}
		field := &discordgo.MessageEmbedField{Name: fmt.Sprintf("Epoch #%d", epoch.ID)}
		if epoch.IsActive() {
			field.Value = fmt.Sprintf("Open, %s tickets sold, closes %s",
				common.FormatTickets(epoch.TotalTickets()),
				common.FormatDiscordTimestamp(epoch.PurchaseDeadline(), "R"))
		} else {
			field.Value = describeConcluded(epoch, assetSymbol)
		}
		embed.Fields = append(embed.Fields, field)
	}
	return embed
}

func buildStandingsEmbed(epoch *entities.Epoch, holders int, assetSymbol string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Epoch #%d standings", epoch.ID),
		Color: common.ColorGold,
	}
	if holders == 0 {
		embed.Description = "No tickets have been sold in this epoch."
		return embed
	}

	embed.Description = fmt.Sprintf("%d holders share %s tickets. Principal: **%s %s**",
		holders, common.FormatTickets(epoch.TotalTickets()), common.FormatAmount(epoch.InitialPrincipal), assetSymbol)
	if !epoch.IsActive() {
		embed.Description += "\n" + describeConcluded(epoch, assetSymbol)
	}
	return embed
}

func describeConcluded(epoch *entities.Epoch, assetSymbol string) string {
	var b strings.Builder
	if epoch.WinningTicketID != nil {
		fmt.Fprintf(&b, "Winning ticket **#%d** of %s\n", *epoch.WinningTicketID, common.FormatTickets(epoch.TotalTickets()))
	}
	fmt.Fprintf(&b, "Yield: **%s %s**", common.FormatAmount(epoch.Yield()), assetSymbol)
	if epoch.WithdrawalOpen {
		b.WriteString("\nWithdrawals open")
	} else {
		b.WriteString("\nWithdrawals locked")
	}
	return b.String()
}

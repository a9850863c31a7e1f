package bot

import (
	"context"
	"fmt"

	"prizepool/bot/common"
	"prizepool/domain/events"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// AnnounceEvent posts pool milestones to the announcement channel. It runs as a
// local event handler after commit, so it must not call back into the pool.
func (b *Bot) AnnounceEvent(ctx context.Context, event events.Event) error {
	if b.config.AnnouncementChannelID == "" {
		return nil
	}

	embed := buildAnnouncement(event, b.config.AssetSymbol)
	if embed == nil {
		return nil
	}

	if _, err := b.session.ChannelMessageSendEmbed(b.config.AnnouncementChannelID, embed); err != nil {
		return fmt.Errorf("failed to announce %s: %w", event.Type(), err)
	}
	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"channelID": b.config.AnnouncementChannelID,
	}).Debug("Posted pool announcement")
	return nil
}

func buildAnnouncement(event events.Event, assetSymbol string) *discordgo.MessageEmbed {
	switch e := event.(type) {
	case events.EpochOpenedEvent:
		return &discordgo.MessageEmbed{
			Title: fmt.Sprintf("🎟️ Epoch #%d is open", e.EpochID),
			Color: common.ColorPrimary,
			Description: fmt.Sprintf("Tickets cost **%s %s**. Sales close %s.\nUse `/pool buy` to enter. Your stake comes back in full.",
				common.FormatAmount(e.TicketPrice), assetSymbol, common.FormatDiscordTimestamp(e.Deadline, "R")),
		}
	case events.EpochConcludedEvent:
		return &discordgo.MessageEmbed{
			Title: fmt.Sprintf("🏆 Epoch #%d has been drawn", e.EpochID),
			Color: common.ColorGold,
			Description: fmt.Sprintf("Ticket **#%d** of %s wins! Congratulations %s.\nPrize: **%s %s**",
				e.WinningTicketID, common.FormatTickets(e.TotalTickets), common.GetUserMention(e.Winner),
				common.FormatAmount(e.FinalBalance.Sub(e.InitialPrincipal)), assetSymbol),
		}
	case events.WithdrawalUnlockedEvent:
		return &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("Withdrawals for epoch #%d are open", e.EpochID),
			Color:       common.ColorSuccess,
			Description: "Use `/pool claim` to collect your refund and any prize.",
		}
	default:
		return nil
	}
}

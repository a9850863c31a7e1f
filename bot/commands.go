package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

var minOne = 1.0

func epochOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "epoch",
		Description: description,
		MinValue:    &minOne,
	}
}

func subcommand(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: description,
		Options:     options,
	}
}

func poolCommands() []*discordgo.ApplicationCommand {
	adminPermission := int64(discordgo.PermissionManageServer)

	return []*discordgo.ApplicationCommand{
		{
			Name:        "pool",
			Description: "Buy tickets in the no-loss prize pool",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("status", "Show the current epoch and pool settings"),
				subcommand("buy", "Buy tickets in the open epoch",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "count",
						Description: "Number of tickets",
						Required:    true,
						MinValue:    &minOne,
					}),
				subcommand("tickets", "Show your tickets and payout",
					epochOption("Epoch number (defaults to the current one)")),
				subcommand("claim", "Collect your refund and any prize",
					epochOption("Epoch number (defaults to the latest concluded one)")),
				subcommand("history", "Show recent epochs and their winners"),
				subcommand("standings", "Show who holds the most tickets",
					epochOption("Epoch number (defaults to the current one)")),
				subcommand("wallet", "Show your wallet balance"),
			},
		},
		{
			Name:                     "pooladmin",
			Description:              "Prize pool authority commands",
			DefaultMemberPermissions: &adminPermission,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("open", "Open a new epoch with the current settings"),
				subcommand("conclude", "Close sales, harvest yield and draw the winner",
					epochOption("Epoch number (defaults to the open one)")),
				subcommand("unlock", "Open withdrawals for a concluded epoch",
					epochOption("Epoch number (defaults to the latest concluded one)")),
				subcommand("restart", "Restart the window of an epoch with no sales",
					epochOption("Epoch number (defaults to the open one)")),
				subcommand("price", "Set the ticket price for the next epoch",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "amount",
						Description: "Price in base units of the underlying asset",
						Required:    true,
					}),
				subcommand("window", "Set the purchase window for the next epoch",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "duration",
						Description: "Window length, e.g. 36h or 90m",
						Required:    true,
					}),
				subcommand("pause", "Stop opening new epochs"),
				subcommand("unpause", "Allow new epochs to open"),
				subcommand("bonus-add", "Send a held asset to each winner",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "asset",
						Description: "Asset id",
						Required:    true,
					}),
				subcommand("bonus-remove", "Stop sending an asset to winners",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "asset",
						Description: "Asset id",
						Required:    true,
					}),
				subcommand("authority", "Hand pool authority to another user",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionUser,
						Name:        "user",
						Description: "New pool authority",
						Required:    true,
					}),
			},
		},
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	for _, cmd := range poolCommands() {
		if _, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.GuildID, cmd); err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
		log.Infof("Registered command: /%s", cmd.Name)
	}
	return nil
}

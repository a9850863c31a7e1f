package bot

import (
	"fmt"

	"prizepool/bot/common"
	"prizepool/bot/features/pool"
	"prizepool/bot/features/pooladmin"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token                 string
	GuildID               string
	AnnouncementChannelID string
	AssetSymbol           string
}

// PoolService is everything the slash commands need from the prize pool
type PoolService interface {
	pool.PoolService
	pooladmin.PoolService
}

type Bot struct {
	config       Config
	session      *discordgo.Session
	poolFeature  *pool.Feature
	adminFeature *pooladmin.Feature
}

func New(config Config, poolService PoolService, wallet pool.Wallet) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	bot := &Bot{
		config:       config,
		session:      dg,
		poolFeature:  pool.New(poolService, wallet, config.AssetSymbol),
		adminFeature: pooladmin.New(poolService, config.AssetSymbol),
	}

	// Register slash command handlers
	dg.AddHandler(bot.handleCommands)

	// Open websocket connection
	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	// Register slash commands with Discord
	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "pool":
		b.poolFeature.HandleCommand(s, i)
	case "pooladmin":
		b.adminFeature.HandleCommand(s, i)
	default:
		log.Warnf("Unhandled command: %s", i.ApplicationCommandData().Name)
		common.RespondWithError(s, i, "Unknown command")
	}
}

package pool

import (
	"context"

	"prizepool/bot/common"
	"prizepool/domain/entities"
	"prizepool/domain/interfaces"

	sdkmath "cosmossdk.io/math"
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// PoolService is the part of the prize pool the participant commands use
type PoolService interface {
	BuyTickets(ctx context.Context, participant string, count uint64) (*interfaces.TicketPurchaseResult, error)
	Claim(ctx context.Context, epochID int64, participant string) (*entities.Payout, error)
	ClaimLatest(ctx context.Context, participant string) (*entities.Payout, error)
	GetSettings(ctx context.Context) (*entities.PoolSettings, error)
	ListBonusAssets(ctx context.Context) ([]*entities.BonusAsset, error)
	GetEpoch(ctx context.Context, epochID int64) (*entities.Epoch, error)
	GetActiveEpoch(ctx context.Context) (*entities.Epoch, error)
	GetLatestConcluded(ctx context.Context) (*entities.Epoch, error)
	GetRecentEpochs(ctx context.Context, limit int) ([]*entities.Epoch, error)
	GetParticipantRanges(ctx context.Context, epochID int64, participant string) (entities.TicketSet, error)
	GetParticipantSummary(ctx context.Context, epochID int64) ([]*entities.ParticipantSummary, error)
	GetClaim(ctx context.Context, epochID int64, participant string) (*entities.ClaimRecord, error)
	PreviewPayout(ctx context.Context, epochID int64, participant string) (*entities.Payout, error)
}

// Wallet reports a participant's spendable balance of the underlying asset
type Wallet interface {
	Balance(ctx context.Context, participant string) (sdkmath.Int, error)
}

// Feature handles the /pool command
type Feature struct {
	pool        PoolService
	wallet      Wallet
	assetSymbol string
}

// New creates the participant-facing pool feature
func New(pool PoolService, wallet Wallet, assetSymbol string) *Feature {
	return &Feature{
		pool:        pool,
		wallet:      wallet,
		assetSymbol: assetSymbol,
	}
}

// HandleCommand dispatches a /pool subcommand
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub, options := common.SubcommandOptions(i)

	switch sub {
	case "status":
		f.handleStatus(s, i)
	case "buy":
		f.handleBuy(s, i, options)
	case "tickets":
		f.handleTickets(s, i, options)
	case "claim":
		f.handleClaim(s, i, options)
	case "history":
		f.handleHistory(s, i)
	case "standings":
		f.handleStandings(s, i, options)
	case "wallet":
		f.handleWallet(s, i)
	default:
		log.Warnf("Unknown /pool subcommand: %q", sub)
		common.RespondWithError(s, i, "Unknown subcommand")
	}
}

package pooladmin

import (
	"context"
	"time"

	"prizepool/bot/common"
	"prizepool/domain/entities"
	"prizepool/domain/interfaces"

	sdkmath "cosmossdk.io/math"
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// PoolService is the part of the prize pool the authority commands use
type PoolService interface {
	OpenEpoch(ctx context.Context, cred entities.Credential) (*entities.Epoch, error)
	ConcludeEpoch(ctx context.Context, cred entities.Credential, epochID int64) (*interfaces.EpochConclusion, error)
	UnlockWithdrawal(ctx context.Context, cred entities.Credential, epochID int64) (*entities.Epoch, error)
	RestartWindow(ctx context.Context, cred entities.Credential, epochID int64) (*entities.Epoch, error)
	SetTicketPrice(ctx context.Context, cred entities.Credential, price sdkmath.Int) (*entities.PoolSettings, error)
	SetOpenWindow(ctx context.Context, cred entities.Credential, window time.Duration) (*entities.PoolSettings, error)
	SetPaused(ctx context.Context, cred entities.Credential, paused bool) (*entities.PoolSettings, error)
	TransferAuthority(ctx context.Context, cred entities.Credential, newAuthority string) (*entities.PoolSettings, error)
	AddBonusAsset(ctx context.Context, cred entities.Credential, assetID string) (*entities.BonusAsset, error)
	RemoveBonusAsset(ctx context.Context, cred entities.Credential, assetID string) error
	GetActiveEpoch(ctx context.Context) (*entities.Epoch, error)
	GetLatestConcluded(ctx context.Context) (*entities.Epoch, error)
}

// Feature handles the /pooladmin command. Every subcommand acts with the
// invoking user's Discord ID as credential; the pool decides whether that
// user holds authority.
type Feature struct {
	pool        PoolService
	assetSymbol string
}

func New(pool PoolService, assetSymbol string) *Feature {
	return &Feature{
		pool:        pool,
		assetSymbol: assetSymbol,
	}
}

// HandleCommand dispatches a /pooladmin subcommand
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub, options := common.SubcommandOptions(i)
	cred := entities.Credential{Subject: common.InvokerID(i)}

	log.WithFields(log.Fields{
		"user_id":    cred.Subject,
		"subcommand": sub,
	}).Info("Pool admin command")

	switch sub {
	case "open":
		f.handleOpen(s, i, cred)
	case "conclude":
		f.handleConclude(s, i, cred, options)
	case "unlock":
		f.handleUnlock(s, i, cred, options)
	case "restart":
		f.handleRestart(s, i, cred, options)
	case "price":
		f.handlePrice(s, i, cred, options)
	case "window":
		f.handleWindow(s, i, cred, options)
	case "pause":
		f.handlePaused(s, i, cred, true)
	case "unpause":
		f.handlePaused(s, i, cred, false)
	case "bonus-add":
		f.handleBonusAdd(s, i, cred, options)
	case "bonus-remove":
		f.handleBonusRemove(s, i, cred, options)
	case "authority":
		f.handleAuthority(s, i, cred, options)
	default:
		log.Warnf("Unknown /pooladmin subcommand: %q", sub)
		common.RespondWithError(s, i, "Unknown subcommand")
	}
}

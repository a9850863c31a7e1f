package cmd

import (
	"context"
	"fmt"
	"time"

	"prizepool/application"
	"prizepool/bot"
	"prizepool/config"
	"prizepool/database"
	"prizepool/domain/entities"
	"prizepool/domain/events"
	"prizepool/infrastructure"
	"prizepool/infrastructure/custody"
	"prizepool/infrastructure/observability"
	"prizepool/infrastructure/randomness"
	"prizepool/repository"
	"prizepool/repository/memory"

	log "github.com/sirupsen/logrus"
)

const stakingVaultAccount = "staking-vault"

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting prize pool bot...")

	// Load configuration
	cfg := config.Get()
	if err := cfg.CheckCustody(); err != nil {
		return err
	}

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Initialize event publisher
	var natsClient *infrastructure.NATSClient
	if cfg.NATSServers != "" {
		log.Infof("Connecting to NATS at %s...", cfg.NATSServers)
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.WithField("connected", natsClient.IsConnected()).Info("NATS health check")
	} else {
		log.Warn("NATS_SERVERS not set, events are only delivered in-process")
	}
	eventPublisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
	if err := eventPublisher.EnsureEventStream(); err != nil {
		return fmt.Errorf("failed to ensure event stream: %w", err)
	}

	// Initialize unit of work factory
	var (
		repoFactory infrastructure.RepositoryUnitOfWorkFactory
		db          *database.DB
	)
	if cfg.UsesMemoryStore() {
		log.Warn("DATABASE_URL not set, using the in-memory store; state is lost on restart")
		repoFactory = memory.NewUnitOfWorkFactory(memory.NewStore())
	} else {
		log.Info("Connecting to database...")
		var err error
		db, err = database.NewConnection(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info("Database connection established successfully")
		repoFactory = repository.NewUnitOfWorkFactory(db)
		log.Warn("Custody is in-process; balances reset on restart while the database keeps its state")
	}
	uowFactory := infrastructure.NewUnitOfWorkFactory(repoFactory, eventPublisher)

	// Initialize custody
	clock := infrastructure.SystemClock{}
	underlying := custody.NewLedger(cfg.AssetSymbol)
	directory := custody.NewDirectory(cfg.PoolAccount, underlying)
	for _, symbol := range cfg.BonusAssetSymbols {
		directory.Register(custody.NewLedger(symbol))
	}
	staking := custody.NewStakingPool(underlying, cfg.PoolAccount, clock, custody.StakingPoolConfig{
		VaultAccount: stakingVaultAccount,
		Cooldown:     cfg.StakingCooldown,
		AprBps:       cfg.StakingAprBps,
	})
	faucet := custody.NewFaucet(underlying, cfg.PoolAccount, cfg.StartingBalance)
	log.WithFields(log.Fields{
		"asset":       cfg.AssetSymbol,
		"bonusAssets": cfg.BonusAssetSymbols,
		"aprBps":      cfg.StakingAprBps,
	}).Info("Custody initialized")

	// Initialize pool service
	poolService := application.NewPoolService(uowFactory, application.PoolDependencies{
		Asset:      underlying.For(cfg.PoolAccount),
		Assets:     directory,
		Staking:    staking,
		Randomness: randomness.NewCryptoSource(),
		Clock:      clock,
		Funder:     faucet,
	}, application.PoolConfig{
		PoolAccount:             cfg.PoolAccount,
		UnderlyingAssetID:       cfg.AssetSymbol,
		MaxRangesPerParticipant: cfg.MaxRangesPerParticipant,
		MaxBonusAssets:          cfg.MaxBonusAssets,
	})

	settings, err := poolService.Initialize(ctx, &entities.PoolSettings{
		Authority:   cfg.AuthorityID,
		TicketPrice: cfg.TicketPrice,
		OpenWindow:  cfg.OpenWindow,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize pool settings: %w", err)
	}

	// Initialize Discord bot
	log.Info("Initializing Discord bot...")
	discordBot, err := bot.New(bot.Config{
		Token:                 cfg.DiscordToken,
		GuildID:               cfg.GuildID,
		AnnouncementChannelID: cfg.AnnouncementChannelID,
		AssetSymbol:           cfg.AssetSymbol,
	}, poolService, faucet)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	for _, eventType := range []events.EventType{
		events.EventTypeEpochOpened,
		events.EventTypeEpochConcluded,
		events.EventTypeWithdrawalUnlocked,
	} {
		eventPublisher.RegisterLocalHandler(eventType, discordBot.AnnounceEvent)
	}
	log.Info("Discord bot initialized successfully")

	// Start epoch lifecycle worker
	worker := application.NewEpochLifecycleWorker(poolService, clock,
		entities.Credential{Subject: settings.Authority},
		application.LifecycleConfig{
			PollInterval:    cfg.LifecyclePollInterval,
			WithdrawalDelay: cfg.WithdrawalDelay,
			Autopilot:       cfg.EpochAutopilot,
		})
	stopWorker := worker.Start(ctx)

	// Wait for context cancellation
	log.Infof("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Info("Shutting down bot...")
	stopWorker()

	eventPublisher.Close()

	if err := discordBot.Close(); err != nil {
		log.Errorf("Error closing Discord bot: %v", err)
	}

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.Errorf("Error closing NATS client: %v", err)
		}
	}

	if db != nil {
		log.Info("Closing database connection...")
		db.Close()
	}

	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.Errorf("Error shutting down metrics: %v", err)
	}

	log.Info("Shutdown completed")
	return nil
}

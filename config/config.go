package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"prizepool/database"

	sdkmath "cosmossdk.io/math"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken          string
	GuildID               string // Primary Discord guild ID
	AnnouncementChannelID string // Channel receiving draw results; empty disables announcements

	// Database configuration
	DatabaseURL  string // Empty in development selects the in-memory store
	DatabaseName string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated)

	// Pool configuration
	AuthorityID             string   // Discord ID holding pool authority at first start
	PoolAccount             string   // Custody account holding pooled principal
	AssetSymbol             string   // Underlying asset id
	BonusAssetSymbols       []string // Extra custody ledgers that may be registered as bonus assets
	TicketPrice             sdkmath.Int
	OpenWindow              time.Duration
	MaxRangesPerParticipant int
	MaxBonusAssets          int

	// Lifecycle worker configuration
	EpochAutopilot        bool
	WithdrawalDelay       time.Duration // Time between conclusion and withdrawal unlock
	LifecyclePollInterval time.Duration

	// Development custody configuration
	AllowEphemeralCustody bool // Pair PostgreSQL with in-process custody outside production
	StartingBalance       sdkmath.Int
	StakingAprBps   int64
	StakingCooldown time.Duration

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
				instance.DiscordToken = "test-token"
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// UsesMemoryStore reports whether the process runs without PostgreSQL
func (c *Config) UsesMemoryStore() bool {
	return c.DatabaseURL == "" && c.Environment != "production"
}

// CheckCustody rejects store and custody pairings that can lose funds on restart.
// Custody balances live in process memory, so a persistent store would outlive them.
func (c *Config) CheckCustody() error {
	if c.UsesMemoryStore() {
		return nil
	}
	if c.Environment == "production" {
		return fmt.Errorf("in-process custody cannot back the persistent store in production")
	}
	if !c.AllowEphemeralCustody {
		return fmt.Errorf("PostgreSQL with in-process custody forgets balances on restart; set ALLOW_EPHEMERAL_CUSTODY=true to accept that")
	}
	return nil
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Discord
		DiscordToken:          os.Getenv("DISCORD_TOKEN"),
		GuildID:               os.Getenv("GUILD_ID"),
		AnnouncementChannelID: os.Getenv("ANNOUNCEMENT_CHANNEL_ID"),

		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// NATS
		NATSServers: os.Getenv("NATS_SERVERS"),

		// Pool
		AuthorityID:             os.Getenv("AUTHORITY_ID"),
		PoolAccount:             getEnvWithDefault("POOL_ACCOUNT", "prizepool"),
		AssetSymbol:             getEnvWithDefault("ASSET_SYMBOL", "USDC"),
		TicketPrice:             sdkmath.NewInt(200),
		OpenWindow:              7 * 24 * time.Hour,
		MaxRangesPerParticipant: 256,
		MaxBonusAssets:          8,

		// Lifecycle worker
		WithdrawalDelay:       24 * time.Hour,
		LifecyclePollInterval: time.Minute,

		// Development custody
		StartingBalance: sdkmath.NewInt(100_000),
		StakingAprBps:   500,
		StakingCooldown: time.Hour,

		// OpenTelemetry
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "prizepool"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317"),
		OTelExportIntervalMillis: 60_000,

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	if price := os.Getenv("TICKET_PRICE"); price != "" {
		parsed, ok := sdkmath.NewIntFromString(price)
		if !ok || !parsed.IsPositive() {
			return nil, fmt.Errorf("TICKET_PRICE must be a positive integer, got %q", price)
		}
		config.TicketPrice = parsed
	}
	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		parsed, ok := sdkmath.NewIntFromString(balance)
		if !ok || parsed.IsNegative() {
			return nil, fmt.Errorf("STARTING_BALANCE must be a non-negative integer, got %q", balance)
		}
		config.StartingBalance = parsed
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"OPEN_WINDOW", &config.OpenWindow},
		{"WITHDRAWAL_DELAY", &config.WithdrawalDelay},
		{"LIFECYCLE_POLL_INTERVAL", &config.LifecyclePollInterval},
		{"STAKING_COOLDOWN", &config.StakingCooldown},
	}
	for _, d := range durations {
		if raw := os.Getenv(d.key); raw != "" {
			parsed, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", d.key, err)
			}
			*d.target = parsed
		}
	}

	if v := os.Getenv("MAX_RANGES_PER_PARTICIPANT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			config.MaxRangesPerParticipant = parsed
		}
	}
	if v := os.Getenv("MAX_BONUS_ASSETS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			config.MaxBonusAssets = parsed
		}
	}
	if v := os.Getenv("STAKING_APR_BPS"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.StakingAprBps = parsed
		}
	}
	if v := os.Getenv("OTEL_EXPORT_INTERVAL_MILLIS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			config.OTelExportIntervalMillis = parsed
		}
	}
	config.BonusAssetSymbols = parseList(os.Getenv("BONUS_ASSETS"))
	config.EpochAutopilot = parseBool(os.Getenv("EPOCH_AUTOPILOT"))
	config.AllowEphemeralCustody = parseBool(os.Getenv("ALLOW_EPHEMERAL_CUSTODY"))
	config.OTelEnabled = parseBool(os.Getenv("OTEL_ENABLED"))

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required")
		}
		if config.AuthorityID == "" {
			return nil, fmt.Errorf("AUTHORITY_ID is required")
		}
		if config.DatabaseURL == "" && config.Environment == "production" {
			return nil, fmt.Errorf("DATABASE_URL is required in production")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseList splits a comma-separated list, dropping blanks and upper-casing asset ids
func parseList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.ToUpper(strings.TrimSpace(item)); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseBool(value string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && parsed
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:             "test",
		AuthorityID:             "999999",
		PoolAccount:             "prizepool",
		AssetSymbol:             "USDC",
		TicketPrice:             sdkmath.NewInt(200),
		OpenWindow:              time.Hour,
		MaxRangesPerParticipant: 16,
		MaxBonusAssets:          4,
		WithdrawalDelay:         time.Hour,
		LifecyclePollInterval:   time.Second,
		StartingBalance:         sdkmath.NewInt(1_000_000),
		StakingCooldown:         0,
		OTelExporterType:        "none",
	}
}

package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"prizepool/domain"
	"prizepool/domain/entities"
	"prizepool/domain/events"
	"prizepool/domain/interfaces"

	sdkmath "cosmossdk.io/math"
	log "github.com/sirupsen/logrus"
)

// AdminConfig holds limits enforced by the admin service
type AdminConfig struct {
	UnderlyingAssetID string
	MaxBonusAssets    int
}

// adminService implements privileged pool configuration
type adminService struct {
	settingsRepo   interfaces.PoolSettingsRepository
	bonusRepo      interfaces.BonusAssetRepository
	assets         interfaces.AssetDirectory
	clock          interfaces.Clock
	eventPublisher interfaces.EventPublisher
	config         AdminConfig
}

// NewAdminService creates a new admin service
func NewAdminService(
	settingsRepo interfaces.PoolSettingsRepository,
	bonusRepo interfaces.BonusAssetRepository,
	assets interfaces.AssetDirectory,
	clock interfaces.Clock,
	eventPublisher interfaces.EventPublisher,
	config AdminConfig,
) interfaces.AdminService {
	return &adminService{
		settingsRepo:   settingsRepo,
		bonusRepo:      bonusRepo,
		assets:         assets,
		clock:          clock,
		eventPublisher: eventPublisher,
		config:         config,
	}
}

// GetSettings returns the current pool settings
func (s *adminService) GetSettings(ctx context.Context) (*entities.PoolSettings, error) {
	return loadSettings(ctx, s.settingsRepo)
}

// Authorize checks the credential against the stored authority
func (s *adminService) Authorize(ctx context.Context, cred entities.Credential) error {
	_, err := s.authorized(ctx, cred)
	return err
}

func (s *adminService) authorized(ctx context.Context, cred entities.Credential) (*entities.PoolSettings, error) {
	settings, err := loadSettings(ctx, s.settingsRepo)
	if err != nil {
		return nil, err
	}
	if err := settings.Authorize(cred); err != nil {
		log.WithField("subject", cred.Subject).Warn("Rejected privileged pool call")
		return nil, err
	}
	return settings, nil
}

// SetTicketPrice changes the price used by the next epoch opened
func (s *adminService) SetTicketPrice(ctx context.Context, cred entities.Credential, price sdkmath.Int) (*entities.PoolSettings, error) {
	settings, err := s.authorized(ctx, cred)
	if err != nil {
		return nil, err
	}
	if err := entities.ValidateTicketPrice(price); err != nil {
		return nil, err
	}

	old := settings.TicketPrice.String()
	settings.TicketPrice = price
	return s.save(ctx, cred, settings, "ticket_price", old, price.String())
}

// SetOpenWindow changes the purchase window used by the next epoch opened
func (s *adminService) SetOpenWindow(ctx context.Context, cred entities.Credential, window time.Duration) (*entities.PoolSettings, error) {
	settings, err := s.authorized(ctx, cred)
	if err != nil {
		return nil, err
	}
	if err := entities.ValidateOpenWindow(window); err != nil {
		return nil, err
	}

	old := settings.OpenWindow.String()
	settings.OpenWindow = window
	return s.save(ctx, cred, settings, "open_window", old, window.String())
}

// SetPaused suspends or resumes purchases, claims and epoch opening
func (s *adminService) SetPaused(ctx context.Context, cred entities.Credential, paused bool) (*entities.PoolSettings, error) {
	settings, err := s.authorized(ctx, cred)
	if err != nil {
		return nil, err
	}

	old := strconv.FormatBool(settings.Paused)
	settings.Paused = paused
	return s.save(ctx, cred, settings, "paused", old, strconv.FormatBool(paused))
}

// TransferAuthority hands the pool authority to a new subject
func (s *adminService) TransferAuthority(ctx context.Context, cred entities.Credential, newAuthority string) (*entities.PoolSettings, error) {
	settings, err := s.authorized(ctx, cred)
	if err != nil {
		return nil, err
	}
	if newAuthority == "" {
		return nil, fmt.Errorf("%w: new authority must be set", domain.ErrInvalidSettings)
	}

	old := settings.Authority
	settings.Authority = newAuthority
	return s.save(ctx, cred, settings, "authority", old, newAuthority)
}

func (s *adminService) save(ctx context.Context, cred entities.Credential, settings *entities.PoolSettings, field, oldValue, newValue string) (*entities.PoolSettings, error) {
	settings.UpdatedAt = s.clock.Now()
	if err := s.settingsRepo.Update(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to update pool settings: %w", err)
	}

	if err := s.publishChange(cred, field, oldValue, newValue); err != nil {
		return nil, err
	}
	return settings, nil
}

// AddBonusAsset registers an asset whose custody balance is swept to winners
func (s *adminService) AddBonusAsset(ctx context.Context, cred entities.Credential, assetID string) (*entities.BonusAsset, error) {
	if _, err := s.authorized(ctx, cred); err != nil {
		return nil, err
	}
	if assetID == "" {
		return nil, fmt.Errorf("%w: asset id must be set", domain.ErrInvalidSettings)
	}
	if assetID == s.config.UnderlyingAssetID {
		return nil, fmt.Errorf("%w: the ticket asset cannot be a bonus asset", domain.ErrInvalidSettings)
	}
	if _, err := s.assets.Asset(assetID); err != nil {
		return nil, fmt.Errorf("%w: unknown asset %s: %v", domain.ErrInvalidSettings, assetID, err)
	}

	registered, err := s.bonusRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonus assets: %w", err)
	}
	if s.config.MaxBonusAssets > 0 && len(registered) >= s.config.MaxBonusAssets {
		return nil, fmt.Errorf("%w: bonus asset registry holds the maximum of %d", domain.ErrInvalidSettings, s.config.MaxBonusAssets)
	}

	asset := &entities.BonusAsset{AssetID: assetID, AddedAt: s.clock.Now()}
	added, err := s.bonusRepo.Add(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("failed to add bonus asset: %w", err)
	}
	if !added {
		return nil, fmt.Errorf("%w: %s is already a bonus asset", domain.ErrInvalidSettings, assetID)
	}

	if err := s.publishChange(cred, "bonus_asset_added", "", assetID); err != nil {
		return nil, err
	}
	return asset, nil
}

// RemoveBonusAsset unregisters a bonus asset
func (s *adminService) RemoveBonusAsset(ctx context.Context, cred entities.Credential, assetID string) error {
	if _, err := s.authorized(ctx, cred); err != nil {
		return err
	}

	removed, err := s.bonusRepo.Remove(ctx, assetID)
	if err != nil {
		return fmt.Errorf("failed to remove bonus asset: %w", err)
	}
	if !removed {
		return fmt.Errorf("%w: %s is not a bonus asset", domain.ErrInvalidSettings, assetID)
	}

	return s.publishChange(cred, "bonus_asset_removed", assetID, "")
}

// ListBonusAssets returns the registered bonus assets
func (s *adminService) ListBonusAssets(ctx context.Context) ([]*entities.BonusAsset, error) {
	assets, err := s.bonusRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonus assets: %w", err)
	}
	return assets, nil
}

func (s *adminService) publishChange(cred entities.Credential, field, oldValue, newValue string) error {
	if err := s.eventPublisher.Publish(events.PoolSettingsChangedEvent{
		Field:    field,
		OldValue: oldValue,
		NewValue: newValue,
		ActorID:  cred.Subject,
	}); err != nil {
		return fmt.Errorf("failed to publish settings change: %w", err)
	}

	log.WithFields(log.Fields{
		"field":    field,
		"oldValue": oldValue,
		"newValue": newValue,
		"actor":    cred.Subject,
	}).Info("Pool settings changed")
	return nil
}

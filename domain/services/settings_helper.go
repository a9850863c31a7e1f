package services

import (
	"context"
	"fmt"

	"prizepool/domain"
	"prizepool/domain/entities"
	"prizepool/domain/interfaces"
)

// loadSettings returns the pool settings, failing if they were never initialized
func loadSettings(ctx context.Context, repo interfaces.PoolSettingsRepository) (*entities.PoolSettings, error) {
	settings, err := repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool settings: %w", err)
	}
	if settings == nil {
		return nil, fmt.Errorf("%w: pool settings not initialized", domain.ErrInvalidSettings)
	}
	return settings, nil
}

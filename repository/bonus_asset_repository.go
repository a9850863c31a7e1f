package repository

import (
	"context"
	"fmt"

	"prizepool/database"
	"prizepool/domain/entities"
)

// BonusAssetRepository implements the bonus asset registry
type BonusAssetRepository struct {
	q Queryable
}

// NewBonusAssetRepository creates a new bonus asset repository over the pool
func NewBonusAssetRepository(db *database.DB) *BonusAssetRepository {
	return &BonusAssetRepository{q: db.Pool}
}

func newBonusAssetRepositoryWithTx(tx Queryable) *BonusAssetRepository {
	return &BonusAssetRepository{q: tx}
}

// Add registers an asset; returns false if it was already registered
func (r *BonusAssetRepository) Add(ctx context.Context, asset *entities.BonusAsset) (bool, error) {
	query := `
		INSERT INTO bonus_assets (asset_id, added_at)
		VALUES ($1, $2)
		ON CONFLICT (asset_id) DO NOTHING
	`

	result, err := r.q.Exec(ctx, query, asset.AssetID, asset.AddedAt)
	if err != nil {
		return false, fmt.Errorf("failed to add bonus asset %s: %w", asset.AssetID, err)
	}
	return result.RowsAffected() == 1, nil
}

// Remove unregisters an asset; returns false if it was not registered
func (r *BonusAssetRepository) Remove(ctx context.Context, assetID string) (bool, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM bonus_assets WHERE asset_id = $1`, assetID)
	if err != nil {
		return false, fmt.Errorf("failed to remove bonus asset %s: %w", assetID, err)
	}
	return result.RowsAffected() == 1, nil
}

// List returns registered assets in the order they were added
func (r *BonusAssetRepository) List(ctx context.Context) ([]*entities.BonusAsset, error) {
	rows, err := r.q.Query(ctx, `SELECT asset_id, added_at FROM bonus_assets ORDER BY added_at ASC, asset_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonus assets: %w", err)
	}
	defer rows.Close()

	var assets []*entities.BonusAsset
	for rows.Next() {
		var asset entities.BonusAsset
		if err := rows.Scan(&asset.AssetID, &asset.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bonus asset: %w", err)
		}
		assets = append(assets, &asset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bonus assets: %w", err)
	}

	return assets, nil
}

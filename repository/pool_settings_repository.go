package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prizepool/database"
	"prizepool/domain/entities"

	"github.com/jackc/pgx/v5"
)

// PoolSettingsRepository implements access to the single pool settings row
type PoolSettingsRepository struct {
	q Queryable
}

// NewPoolSettingsRepository creates a new pool settings repository over the pool
func NewPoolSettingsRepository(db *database.DB) *PoolSettingsRepository {
	return &PoolSettingsRepository{q: db.Pool}
}

func newPoolSettingsRepositoryWithTx(tx Queryable) *PoolSettingsRepository {
	return &PoolSettingsRepository{q: tx}
}

// Get returns the stored settings, nil if never initialized
func (r *PoolSettingsRepository) Get(ctx context.Context) (*entities.PoolSettings, error) {
	query := `
		SELECT authority, ticket_price::text, open_window_ns, paused, updated_at
		FROM pool_settings
		WHERE id = 1
	`

	var (
		settings    entities.PoolSettings
		price       string
		windowNanos int64
	)
	err := r.q.QueryRow(ctx, query).Scan(
		&settings.Authority,
		&price,
		&windowNanos,
		&settings.Paused,
		&settings.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pool settings: %w", err)
	}

	if settings.TicketPrice, err = parseAmount("ticket_price", price); err != nil {
		return nil, err
	}
	settings.OpenWindow = time.Duration(windowNanos)
	return &settings, nil
}

// Initialize stores defaults when no settings exist and returns the stored row
func (r *PoolSettingsRepository) Initialize(ctx context.Context, defaults *entities.PoolSettings) (*entities.PoolSettings, error) {
	query := `
		INSERT INTO pool_settings (id, authority, ticket_price, open_window_ns, paused)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.q.Exec(ctx, query,
		defaults.Authority,
		amountParam(defaults.TicketPrice),
		int64(defaults.OpenWindow),
		defaults.Paused,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pool settings: %w", err)
	}

	return r.Get(ctx)
}

// Update persists the settings
func (r *PoolSettingsRepository) Update(ctx context.Context, settings *entities.PoolSettings) error {
	query := `
		UPDATE pool_settings
		SET authority = $1,
		    ticket_price = $2,
		    open_window_ns = $3,
		    paused = $4,
		    updated_at = $5
		WHERE id = 1
	`

	result, err := r.q.Exec(ctx, query,
		settings.Authority,
		amountParam(settings.TicketPrice),
		int64(settings.OpenWindow),
		settings.Paused,
		settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update pool settings: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("pool settings not initialized")
	}

	return nil
}

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

const epochColumns = `
	id, status, start_time, end_time, ticket_price::text, open_window_ns,
	initial_principal::text, final_balance::text, winning_ticket_id::text,
	withdrawal_open, withdrawal_opened_at, unstake_pending, created_at`

// EpochRepository implements epoch data access
type EpochRepository struct {
	q Queryable
}

// NewEpochRepository creates a new epoch repository over the pool
func NewEpochRepository(db *database.DB) *EpochRepository {
	return &EpochRepository{q: db.Pool}
}

func newEpochRepositoryWithTx(tx Queryable) *EpochRepository {
	return &EpochRepository{q: tx}
}

// Create inserts a new epoch and populates its ID and CreatedAt
func (r *EpochRepository) Create(ctx context.Context, epoch *entities.Epoch) error {
	query := `
		INSERT INTO epochs (status, start_time, ticket_price, open_window_ns, initial_principal, final_balance)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		string(epoch.Status),
		epoch.StartTime,
		amountParam(epoch.TicketPrice),
		int64(epoch.OpenWindow),
		amountParam(epoch.InitialPrincipal),
		amountParam(epoch.FinalBalance),
	).Scan(&epoch.ID, &epoch.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create epoch: %w", err)
	}

	return nil
}

// GetByID retrieves an epoch by its ID
func (r *EpochRepository) GetByID(ctx context.Context, id int64) (*entities.Epoch, error) {
	query := `SELECT ` + epochColumns + ` FROM epochs WHERE id = $1`

	epoch, err := scanEpoch(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get epoch %d: %w", id, err)
	}
	return epoch, nil
}

// GetByIDForUpdate retrieves an epoch with a row lock for update
func (r *EpochRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Epoch, error) {
	query := `SELECT ` + epochColumns + ` FROM epochs WHERE id = $1 FOR UPDATE`

	epoch, err := scanEpoch(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get epoch %d for update: %w", id, err)
	}
	return epoch, nil
}

// GetActive returns the active epoch if one exists
func (r *EpochRepository) GetActive(ctx context.Context) (*entities.Epoch, error) {
	query := `SELECT ` + epochColumns + ` FROM epochs WHERE status = 'active' LIMIT 1`

	epoch, err := scanEpoch(r.q.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active epoch: %w", err)
	}
	return epoch, nil
}

// GetLatestConcluded returns the most recently concluded epoch
func (r *EpochRepository) GetLatestConcluded(ctx context.Context) (*entities.Epoch, error) {
	query := `
		SELECT ` + epochColumns + `
		FROM epochs
		WHERE status = 'ended'
		ORDER BY end_time DESC, id DESC
		LIMIT 1
	`

	epoch, err := scanEpoch(r.q.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest concluded epoch: %w", err)
	}
	return epoch, nil
}

// GetRecent returns up to limit epochs, newest first
func (r *EpochRepository) GetRecent(ctx context.Context, limit int) ([]*entities.Epoch, error) {
	query := `SELECT ` + epochColumns + ` FROM epochs ORDER BY id DESC LIMIT $1`
	return r.queryEpochs(ctx, "recent", query, limit)
}

// GetLockedConcludedBefore returns ended epochs concluded before the cutoff
// whose withdrawal is still locked
func (r *EpochRepository) GetLockedConcludedBefore(ctx context.Context, before time.Time) ([]*entities.Epoch, error) {
	query := `
		SELECT ` + epochColumns + `
		FROM epochs
		WHERE status = 'ended'
		  AND withdrawal_open = FALSE
		  AND end_time <= $1
		ORDER BY end_time ASC
	`
	return r.queryEpochs(ctx, "locked concluded", query, before)
}

// Update persists the mutable fields of an epoch
func (r *EpochRepository) Update(ctx context.Context, epoch *entities.Epoch) error {
	var winning *string
	if epoch.WinningTicketID != nil {
		w := ticketParam(*epoch.WinningTicketID)
		winning = &w
	}

	query := `
		UPDATE epochs
		SET status = $2,
		    start_time = $3,
		    end_time = $4,
		    initial_principal = $5,
		    final_balance = $6,
		    winning_ticket_id = $7,
		    withdrawal_open = $8,
		    withdrawal_opened_at = $9,
		    unstake_pending = $10
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query,
		epoch.ID,
		string(epoch.Status),
		epoch.StartTime,
		epoch.EndTime,
		amountParam(epoch.InitialPrincipal),
		amountParam(epoch.FinalBalance),
		winning,
		epoch.WithdrawalOpen,
		epoch.WithdrawalOpenedAt,
		epoch.UnstakePending,
	)
	if err != nil {
		return fmt.Errorf("failed to update epoch %d: %w", epoch.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("epoch with ID %d not found", epoch.ID)
	}

	return nil
}

func (r *EpochRepository) queryEpochs(ctx context.Context, label, query string, args ...any) ([]*entities.Epoch, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s epochs: %w", label, err)
	}
	defer rows.Close()

	var epochs []*entities.Epoch
	for rows.Next() {
		epoch, err := scanEpoch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan epoch: %w", err)
		}
		epochs = append(epochs, epoch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate epochs: %w", err)
	}

	return epochs, nil
}

func scanEpoch(row pgx.Row) (*entities.Epoch, error) {
	var (
		epoch                     entities.Epoch
		status                    string
		windowNanos               int64
		price, principal, balance string
		winning                   *string
	)

	err := row.Scan(
		&epoch.ID,
		&status,
		&epoch.StartTime,
		&epoch.EndTime,
		&price,
		&windowNanos,
		&principal,
		&balance,
		&winning,
		&epoch.WithdrawalOpen,
		&epoch.WithdrawalOpenedAt,
		&epoch.UnstakePending,
		&epoch.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	epoch.Status = entities.EpochStatus(status)
	epoch.OpenWindow = time.Duration(windowNanos)
	if epoch.TicketPrice, err = parseAmount("ticket_price", price); err != nil {
		return nil, err
	}
	if epoch.InitialPrincipal, err = parseAmount("initial_principal", principal); err != nil {
		return nil, err
	}
	if epoch.FinalBalance, err = parseAmount("final_balance", balance); err != nil {
		return nil, err
	}
	if winning != nil {
		id, err := parseTicketID("winning_ticket_id", *winning)
		if err != nil {
			return nil, err
		}
		epoch.WinningTicketID = &id
	}

	return &epoch, nil
}

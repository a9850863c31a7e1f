package repository

import (
	"context"
	"errors"
	"fmt"

	"prizepool/database"
	"prizepool/domain/entities"

	"github.com/jackc/pgx/v5"
)

// ClaimRepository implements claim flag storage
type ClaimRepository struct {
	q Queryable
}

// NewClaimRepository creates a new claim repository over the pool
func NewClaimRepository(db *database.DB) *ClaimRepository {
	return &ClaimRepository{q: db.Pool}
}

func newClaimRepositoryWithTx(tx Queryable) *ClaimRepository {
	return &ClaimRepository{q: tx}
}

// Insert records the claim unless one exists for the epoch and participant.
// The primary key makes this the single check-and-mark for double claims.
func (r *ClaimRepository) Insert(ctx context.Context, record *entities.ClaimRecord) (bool, error) {
	query := `
		INSERT INTO claims (epoch_id, participant, refund, prize, is_winner, claimed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (epoch_id, participant) DO NOTHING
	`

	result, err := r.q.Exec(ctx, query,
		record.EpochID,
		record.Participant,
		amountParam(record.Refund),
		amountParam(record.Prize),
		record.IsWinner,
		record.ClaimedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert claim for %s in epoch %d: %w", record.Participant, record.EpochID, err)
	}

	return result.RowsAffected() == 1, nil
}

// Get returns the claim record for a participant, nil if unclaimed
func (r *ClaimRepository) Get(ctx context.Context, epochID int64, participant string) (*entities.ClaimRecord, error) {
	query := `
		SELECT epoch_id, participant, refund::text, prize::text, is_winner, claimed_at
		FROM claims
		WHERE epoch_id = $1 AND participant = $2
	`

	record, err := scanClaim(r.q.QueryRow(ctx, query, epochID, participant))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get claim for %s in epoch %d: %w", participant, epochID, err)
	}
	return record, nil
}

// GetByEpoch returns every claim for an epoch in claim order
func (r *ClaimRepository) GetByEpoch(ctx context.Context, epochID int64) ([]*entities.ClaimRecord, error) {
	query := `
		SELECT epoch_id, participant, refund::text, prize::text, is_winner, claimed_at
		FROM claims
		WHERE epoch_id = $1
		ORDER BY claimed_at ASC, participant ASC
	`

	rows, err := r.q.Query(ctx, query, epochID)
	if err != nil {
		return nil, fmt.Errorf("failed to get claims for epoch %d: %w", epochID, err)
	}
	defer rows.Close()

	var claims []*entities.ClaimRecord
	for rows.Next() {
		record, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claims: %w", err)
	}

	return claims, nil
}

func scanClaim(row pgx.Row) (*entities.ClaimRecord, error) {
	var (
		record        entities.ClaimRecord
		refund, prize string
	)

	if err := row.Scan(&record.EpochID, &record.Participant, &refund, &prize, &record.IsWinner, &record.ClaimedAt); err != nil {
		return nil, err
	}

	var err error
	if record.Refund, err = parseAmount("refund", refund); err != nil {
		return nil, err
	}
	if record.Prize, err = parseAmount("prize", prize); err != nil {
		return nil, err
	}
	return &record, nil
}

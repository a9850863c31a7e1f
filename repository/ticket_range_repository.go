package repository

import (
	"context"
	"errors"
	"fmt"

	"prizepool/database"
	"prizepool/domain/entities"

	"github.com/jackc/pgx/v5"
)

const ticketRangeColumns = `id, epoch_id, participant, start_id::text, final_id::text, created_at`

// TicketRangeRepository implements ticket range data access
type TicketRangeRepository struct {
	q Queryable
}

// NewTicketRangeRepository creates a new ticket range repository over the pool
func NewTicketRangeRepository(db *database.DB) *TicketRangeRepository {
	return &TicketRangeRepository{q: db.Pool}
}

func newTicketRangeRepositoryWithTx(tx Queryable) *TicketRangeRepository {
	return &TicketRangeRepository{q: tx}
}

// Append stores a new range and populates its ID and CreatedAt
func (r *TicketRangeRepository) Append(ctx context.Context, tr *entities.TicketRange) error {
	query := `
		INSERT INTO ticket_ranges (epoch_id, participant, start_id, final_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		tr.EpochID,
		tr.Participant,
		ticketParam(tr.StartID),
		ticketParam(tr.FinalID),
	).Scan(&tr.ID, &tr.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append ticket range for %s in epoch %d: %w", tr.Participant, tr.EpochID, err)
	}

	return nil
}

// GetByParticipant returns a participant's ranges in purchase order
func (r *TicketRangeRepository) GetByParticipant(ctx context.Context, epochID int64, participant string) (entities.TicketSet, error) {
	query := `
		SELECT ` + ticketRangeColumns + `
		FROM ticket_ranges
		WHERE epoch_id = $1 AND participant = $2
		ORDER BY id ASC
	`
	return r.queryRanges(ctx, query, epochID, participant)
}

// GetByEpoch returns every range of an epoch ordered by start id
func (r *TicketRangeRepository) GetByEpoch(ctx context.Context, epochID int64) ([]*entities.TicketRange, error) {
	query := `
		SELECT ` + ticketRangeColumns + `
		FROM ticket_ranges
		WHERE epoch_id = $1
		ORDER BY start_id ASC
	`
	return r.queryRanges(ctx, query, epochID)
}

// CountByParticipant returns how many ranges a participant holds in an epoch
func (r *TicketRangeRepository) CountByParticipant(ctx context.Context, epochID int64, participant string) (int, error) {
	query := `SELECT COUNT(*) FROM ticket_ranges WHERE epoch_id = $1 AND participant = $2`

	var count int
	if err := r.q.QueryRow(ctx, query, epochID, participant).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count ticket ranges for %s in epoch %d: %w", participant, epochID, err)
	}
	return count, nil
}

// FindOwner returns the range containing ticketID
func (r *TicketRangeRepository) FindOwner(ctx context.Context, epochID int64, ticketID uint64) (*entities.TicketRange, error) {
	query := `
		SELECT ` + ticketRangeColumns + `
		FROM ticket_ranges
		WHERE epoch_id = $1
		  AND start_id <= $2
		  AND final_id >= $2
	`

	tr, err := scanTicketRange(r.q.QueryRow(ctx, query, epochID, ticketParam(ticketID)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find owner of ticket %d in epoch %d: %w", ticketID, epochID, err)
	}
	return tr, nil
}

// GetParticipantSummary aggregates holdings per participant, largest first
func (r *TicketRangeRepository) GetParticipantSummary(ctx context.Context, epochID int64) ([]*entities.ParticipantSummary, error) {
	query := `
		SELECT participant,
		       COUNT(*) AS range_count,
		       SUM(final_id - start_id + 1)::text AS ticket_count
		FROM ticket_ranges
		WHERE epoch_id = $1
		GROUP BY participant
		ORDER BY SUM(final_id - start_id + 1) DESC, MIN(id) ASC
	`

	rows, err := r.q.Query(ctx, query, epochID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant summary for epoch %d: %w", epochID, err)
	}
	defer rows.Close()

	var summary []*entities.ParticipantSummary
	for rows.Next() {
		var (
			s       entities.ParticipantSummary
			tickets string
		)
		if err := rows.Scan(&s.Participant, &s.RangeCount, &tickets); err != nil {
			return nil, fmt.Errorf("failed to scan participant summary: %w", err)
		}
		if s.TicketCount, err = parseTicketID("ticket_count", tickets); err != nil {
			return nil, err
		}
		summary = append(summary, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participant summary: %w", err)
	}

	return summary, nil
}

func (r *TicketRangeRepository) queryRanges(ctx context.Context, query string, args ...any) ([]*entities.TicketRange, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket ranges: %w", err)
	}
	defer rows.Close()

	var ranges []*entities.TicketRange
	for rows.Next() {
		tr, err := scanTicketRange(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket range: %w", err)
		}
		ranges = append(ranges, tr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ticket ranges: %w", err)
	}

	return ranges, nil
}

func scanTicketRange(row pgx.Row) (*entities.TicketRange, error) {
	var (
		tr           entities.TicketRange
		start, final string
	)

	if err := row.Scan(&tr.ID, &tr.EpochID, &tr.Participant, &start, &final, &tr.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if tr.StartID, err = parseTicketID("start_id", start); err != nil {
		return nil, err
	}
	if tr.FinalID, err = parseTicketID("final_id", final); err != nil {
		return nil, err
	}
	return &tr, nil
}

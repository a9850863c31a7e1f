package entities

import (
	"fmt"
	"sort"
	"time"

	"prizepool/domain"

	sdkmath "cosmossdk.io/math"
)

// TicketRange is a contiguous, inclusive block of ticket ids owned by one
// participant in one epoch
type TicketRange struct {
	ID          int64     `db:"id"`
	EpochID     int64     `db:"epoch_id"`
	Participant string    `db:"participant"`
	StartID     uint64    `db:"start_id"`
	FinalID     uint64    `db:"final_id"`
	CreatedAt   time.Time `db:"created_at"`
}

// NewTicketRange allocates count tickets starting at startID
func NewTicketRange(epochID int64, participant string, startID, count uint64) (*TicketRange, error) {
	if count == 0 {
		return nil, fmt.Errorf("%w: ticket count must be positive", domain.ErrInvalidAmount)
	}
	if startID+count-1 < startID {
		return nil, fmt.Errorf("%w: ticket range starting at %d overflows", domain.ErrInvalidAmount, startID)
	}
	return &TicketRange{
		EpochID:     epochID,
		Participant: participant,
		StartID:     startID,
		FinalID:     startID + count - 1,
	}, nil
}

// Count returns the number of tickets in the range
func (r *TicketRange) Count() uint64 {
	return r.FinalID - r.StartID + 1
}

// Contains checks if the ticket id falls inside the range
func (r *TicketRange) Contains(ticketID uint64) bool {
	return ticketID >= r.StartID && ticketID <= r.FinalID
}

// Cost returns the amount paid for the range at the given ticket price
func (r *TicketRange) Cost(ticketPrice sdkmath.Int) sdkmath.Int {
	return ticketPrice.Mul(sdkmath.NewIntFromUint64(r.Count()))
}

// TicketSet is the ordered list of ranges a participant holds in one epoch
type TicketSet []*TicketRange

// TicketCount returns the number of tickets across all ranges
func (s TicketSet) TicketCount() uint64 {
	var total uint64
	for _, r := range s {
		total += r.Count()
	}
	return total
}

// Contains checks if any range holds the ticket id
func (s TicketSet) Contains(ticketID uint64) bool {
	for _, r := range s {
		if r.Contains(ticketID) {
			return true
		}
	}
	return false
}

// Refund returns the principal paid for every range in the set
func (s TicketSet) Refund(ticketPrice sdkmath.Int) sdkmath.Int {
	refund := sdkmath.ZeroInt()
	for _, r := range s {
		refund = refund.Add(r.Cost(ticketPrice))
	}
	return refund
}

// VerifyPartition checks that ranges cover [0, total-1] exactly once with no gaps
func VerifyPartition(ranges []*TicketRange, total uint64) error {
	sorted := make([]*TicketRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartID < sorted[j].StartID })

	var next uint64
	for _, r := range sorted {
		if r.FinalID < r.StartID {
			return fmt.Errorf("range [%d, %d] is inverted", r.StartID, r.FinalID)
		}
		if r.StartID != next {
			return fmt.Errorf("range [%d, %d] does not start at expected id %d", r.StartID, r.FinalID, next)
		}
		next = r.FinalID + 1
	}
	if next != total {
		return fmt.Errorf("ranges cover %d tickets, expected %d", next, total)
	}
	return nil
}

// ParticipantSummary aggregates a participant's holdings in one epoch
type ParticipantSummary struct {
	Participant string `db:"participant"`
	RangeCount  int    `db:"range_count"`
	TicketCount uint64 `db:"ticket_count"`
}

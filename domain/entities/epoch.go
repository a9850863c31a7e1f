package entities

import (
	"fmt"
	"time"

	"prizepool/domain"

	sdkmath "cosmossdk.io/math"
)

// EpochStatus represents the participation state of an epoch
type EpochStatus string

const (
	EpochStatusActive EpochStatus = "active"
	EpochStatusEnded  EpochStatus = "ended"
)

// Epoch represents a single pooled-yield lottery round
type Epoch struct {
	ID                 int64         `db:"id"`
	Status             EpochStatus   `db:"status"`
	StartTime          time.Time     `db:"start_time"`
	EndTime            *time.Time    `db:"end_time"`          // NULL until concluded
	TicketPrice        sdkmath.Int   `db:"ticket_price"`      // Captured from pool settings at open
	OpenWindow         time.Duration `db:"open_window"`       // Captured from pool settings at open
	InitialPrincipal   sdkmath.Int   `db:"initial_principal"` // Cumulative sale proceeds
	FinalBalance       sdkmath.Int   `db:"final_balance"`     // Zero until concluded
	WinningTicketID    *uint64       `db:"winning_ticket_id"` // NULL until concluded
	WithdrawalOpen     bool          `db:"withdrawal_open"`
	WithdrawalOpenedAt *time.Time    `db:"withdrawal_opened_at"`
	UnstakePending     bool          `db:"unstake_pending"` // Position not yet released at conclusion
	CreatedAt          time.Time     `db:"created_at"`
}

// NewEpoch creates an active epoch starting at now with the given frozen parameters
func NewEpoch(now time.Time, ticketPrice sdkmath.Int, openWindow time.Duration) *Epoch {
	return &Epoch{
		Status:           EpochStatusActive,
		StartTime:        now,
		TicketPrice:      ticketPrice,
		OpenWindow:       openWindow,
		InitialPrincipal: sdkmath.ZeroInt(),
		FinalBalance:     sdkmath.ZeroInt(),
	}
}

// IsActive returns true while the epoch accepts participation
func (e *Epoch) IsActive() bool {
	return e.Status == EpochStatusActive
}

// IsEnded returns true once the epoch has been concluded
func (e *Epoch) IsEnded() bool {
	return e.Status == EpochStatusEnded
}

// PurchaseDeadline returns the first instant at which purchases are rejected
func (e *Epoch) PurchaseDeadline() time.Time {
	return e.StartTime.Add(e.OpenWindow)
}

// CheckPurchaseWindow verifies that tickets may be bought at now
func (e *Epoch) CheckPurchaseWindow(now time.Time) error {
	if !e.IsActive() {
		return fmt.Errorf("%w: epoch %d is %s", domain.ErrEpochNotActive, e.ID, e.Status)
	}
	if now.Before(e.StartTime) || !now.Before(e.PurchaseDeadline()) {
		return fmt.Errorf("%w: epoch %d accepted purchases until %s", domain.ErrWindowClosed, e.ID, e.PurchaseDeadline().UTC().Format(time.RFC3339))
	}
	return nil
}

// WindowElapsed returns true if the open window has passed at now
func (e *Epoch) WindowElapsed(now time.Time) bool {
	return !now.Before(e.PurchaseDeadline())
}

// TotalTickets returns the number of tickets sold so far
func (e *Epoch) TotalTickets() uint64 {
	if e.TicketPrice.IsNil() || !e.TicketPrice.IsPositive() || e.InitialPrincipal.IsNil() {
		return 0
	}
	total := e.InitialPrincipal.Quo(e.TicketPrice)
	if !total.IsUint64() {
		return 0
	}
	return total.Uint64()
}

// NextTicketID returns the id the next purchased ticket will receive
func (e *Epoch) NextTicketID() uint64 {
	return e.TotalTickets()
}

// RecordSale grows the principal by count tickets at the frozen price and
// returns the cost of the sale
func (e *Epoch) RecordSale(count uint64) (sdkmath.Int, error) {
	if count == 0 {
		return sdkmath.Int{}, fmt.Errorf("%w: ticket count must be positive", domain.ErrInvalidAmount)
	}
	if next := e.NextTicketID(); next+count < next {
		return sdkmath.Int{}, fmt.Errorf("%w: %d tickets would overflow the id space", domain.ErrInvalidAmount, count)
	}
	cost, err := e.TicketPrice.SafeMul(sdkmath.NewIntFromUint64(count))
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("%w: cost of %d tickets: %v", domain.ErrInvalidAmount, count, err)
	}
	principal, err := e.InitialPrincipal.SafeAdd(cost)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("%w: principal overflow: %v", domain.ErrInvalidAmount, err)
	}
	e.InitialPrincipal = principal
	return cost, nil
}

// SaleCost returns what count tickets cost without recording the sale
func (e *Epoch) SaleCost(count uint64) (sdkmath.Int, error) {
	probe := *e
	return probe.RecordSale(count)
}

// Yield returns final balance minus principal; negative when the position lost value
func (e *Epoch) Yield() sdkmath.Int {
	return e.FinalBalance.Sub(e.InitialPrincipal)
}

// Conclude ends the epoch with the drawn ticket and the final pooled balance
func (e *Epoch) Conclude(winningTicketID uint64, finalBalance sdkmath.Int, now time.Time) error {
	if !e.IsActive() {
		return fmt.Errorf("%w: epoch %d is %s", domain.ErrEpochNotActive, e.ID, e.Status)
	}
	if e.WinningTicketID != nil {
		return fmt.Errorf("%w: epoch %d already has a winning ticket", domain.ErrEpochNotActive, e.ID)
	}
	if total := e.TotalTickets(); winningTicketID >= total {
		return fmt.Errorf("%w: winning ticket %d outside [0, %d)", domain.ErrInvalidAmount, winningTicketID, total)
	}

	e.WinningTicketID = &winningTicketID
	e.FinalBalance = finalBalance
	e.EndTime = &now
	e.Status = EpochStatusEnded
	return nil
}

// UnlockWithdrawal opens claims; it can only happen once, after conclusion
func (e *Epoch) UnlockWithdrawal(now time.Time) error {
	if !e.IsEnded() {
		return fmt.Errorf("%w: epoch %d is %s", domain.ErrEpochNotConcluded, e.ID, e.Status)
	}
	if e.WithdrawalOpen {
		return fmt.Errorf("%w: epoch %d", domain.ErrWithdrawalAlreadyOpen, e.ID)
	}
	e.WithdrawalOpen = true
	e.WithdrawalOpenedAt = &now
	return nil
}

// CheckClaimable verifies the epoch is settled and open for withdrawal
func (e *Epoch) CheckClaimable() error {
	if !e.IsEnded() {
		return fmt.Errorf("%w: epoch %d is %s", domain.ErrEpochNotConcluded, e.ID, e.Status)
	}
	if !e.WithdrawalOpen {
		return fmt.Errorf("%w: epoch %d", domain.ErrWithdrawalLocked, e.ID)
	}
	return nil
}

// RestartWindow moves the start of an unsold epoch to now
func (e *Epoch) RestartWindow(now time.Time) error {
	if !e.IsActive() {
		return fmt.Errorf("%w: epoch %d is %s", domain.ErrEpochNotActive, e.ID, e.Status)
	}
	if e.TotalTickets() > 0 {
		return fmt.Errorf("%w: epoch %d already sold %d tickets", domain.ErrInvalidSettings, e.ID, e.TotalTickets())
	}
	e.StartTime = now
	return nil
}

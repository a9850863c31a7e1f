package domain

import "errors"

// Error kinds returned by the prize pool core. Callers match them with
// errors.Is; services wrap them with call-specific context.
var (
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrEpochNotActive        = errors.New("epoch is not active")
	ErrWindowClosed          = errors.New("purchase window is closed")
	ErrEpochNotConcluded     = errors.New("epoch has not been concluded")
	ErrWithdrawalLocked      = errors.New("withdrawal is locked")
	ErrAlreadyClaimed        = errors.New("already claimed")
	ErrNoParticipants        = errors.New("epoch has no participants")
	ErrTransferFailed        = errors.New("asset transfer failed")
	ErrRandomnessUnavailable = errors.New("randomness unavailable")
	ErrAuthorityDenied       = errors.New("authority denied")

	ErrEpochNotFound         = errors.New("epoch not found")
	ErrEpochAlreadyActive    = errors.New("an epoch is already active")
	ErrWithdrawalAlreadyOpen = errors.New("withdrawal already unlocked")
	ErrNoTickets             = errors.New("participant holds no tickets")
	ErrTooManyRanges         = errors.New("too many ticket ranges for participant")
	ErrPaused                = errors.New("pool is paused")
	ErrInvalidSettings       = errors.New("invalid pool settings")
	ErrStakingFailed         = errors.New("staking adapter call failed")
	ErrInvalidParticipant    = errors.New("invalid participant")
)

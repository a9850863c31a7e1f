package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prizepool/domain"
	"prizepool/domain/entities"
	"prizepool/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// LifecycleConfig configures the epoch lifecycle worker
type LifecycleConfig struct {
	PollInterval    time.Duration
	WithdrawalDelay time.Duration
	Autopilot       bool // open the next epoch whenever none is active
}

// EpochLifecycleWorker drives epochs through their states on a schedule,
// acting with the pool authority's credential
type EpochLifecycleWorker struct {
	pool       *PoolService
	clock      interfaces.Clock
	credential entities.Credential
	config     LifecycleConfig
}

// NewEpochLifecycleWorker creates a new epoch lifecycle worker
func NewEpochLifecycleWorker(pool *PoolService, clock interfaces.Clock, credential entities.Credential, config LifecycleConfig) *EpochLifecycleWorker {
	if config.PollInterval <= 0 {
		config.PollInterval = time.Minute
	}
	return &EpochLifecycleWorker{
		pool:       pool,
		clock:      clock,
		credential: credential,
		config:     config,
	}
}

// Start begins the worker loop and returns a function that stops it
func (w *EpochLifecycleWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.WithFields(log.Fields{
			"pollInterval":    w.config.PollInterval,
			"withdrawalDelay": w.config.WithdrawalDelay,
			"autopilot":       w.config.Autopilot,
		}).Info("Epoch lifecycle worker started")

		for {
			if err := w.RunOnce(ctx); err != nil {
				log.Errorf("Error advancing epoch lifecycle: %v", err)
			}

			wait := w.config.PollInterval
			if deadline := w.nextDeadline(ctx); deadline != nil {
				if until := deadline.Sub(w.clock.Now()); until > 0 && until < wait {
					wait = until
				}
			}

			select {
			case <-ctx.Done():
				log.Info("Epoch lifecycle worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Epoch lifecycle worker shutting down (stop requested)...")
				return
			case <-time.After(wait):
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// nextDeadline returns the active epoch's purchase deadline, if any
func (w *EpochLifecycleWorker) nextDeadline(ctx context.Context) *time.Time {
	active, err := w.pool.GetActiveEpoch(ctx)
	if err != nil || active == nil {
		return nil
	}
	deadline := active.PurchaseDeadline()
	return &deadline
}

// RunOnce performs every transition that is due now. Each transition runs in
// its own unit of work; a failure is logged and does not stop the others.
func (w *EpochLifecycleWorker) RunOnce(ctx context.Context) error {
	var failures int

	if err := w.unlockDueEpochs(ctx); err != nil {
		log.WithError(err).Error("Failed to unlock concluded epochs")
		failures++
	}

	active, err := w.advanceActiveEpoch(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to advance active epoch")
		failures++
	}

	if w.config.Autopilot && active == nil && err == nil {
		if err := w.openNextEpoch(ctx); err != nil {
			log.WithError(err).Error("Failed to open next epoch")
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d lifecycle transitions failed", failures)
	}
	return nil
}

// advanceActiveEpoch concludes the active epoch once its window elapsed, or
// restarts the window when nobody bought a ticket. Returns the epoch still
// active afterwards, if any.
func (w *EpochLifecycleWorker) advanceActiveEpoch(ctx context.Context) (*entities.Epoch, error) {
	active, err := w.pool.GetActiveEpoch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active epoch: %w", err)
	}
	if active == nil || !active.WindowElapsed(w.clock.Now()) {
		return active, nil
	}

	if active.TotalTickets() == 0 {
		restarted, err := w.pool.RestartWindow(ctx, w.credential, active.ID)
		if err != nil {
			return active, fmt.Errorf("failed to restart window of epoch %d: %w", active.ID, err)
		}
		return restarted, nil
	}

	conclusion, err := w.pool.ConcludeEpoch(ctx, w.credential, active.ID)
	if err != nil {
		return active, fmt.Errorf("failed to conclude epoch %d: %w", active.ID, err)
	}

	log.WithFields(log.Fields{
		"epochID":         conclusion.Epoch.ID,
		"winningTicketID": *conclusion.Epoch.WinningTicketID,
		"winner":          conclusion.Winner.Participant,
		"totalTickets":    conclusion.Epoch.TotalTickets(),
	}).Info("Lifecycle worker concluded epoch")
	return nil, nil
}

// unlockDueEpochs opens withdrawal for epochs concluded at least WithdrawalDelay ago
func (w *EpochLifecycleWorker) unlockDueEpochs(ctx context.Context) error {
	cutoff := w.clock.Now().Add(-w.config.WithdrawalDelay)
	due, err := w.pool.GetEpochsAwaitingUnlock(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to get epochs awaiting unlock: %w", err)
	}

	var errs []error
	for _, epoch := range due {
		if _, err := w.pool.UnlockWithdrawal(ctx, w.credential, epoch.ID); err != nil {
			errs = append(errs, fmt.Errorf("epoch %d: %w", epoch.ID, err))
			continue
		}
		log.WithField("epochID", epoch.ID).Info("Lifecycle worker unlocked withdrawal")
	}
	return errors.Join(errs...)
}

func (w *EpochLifecycleWorker) openNextEpoch(ctx context.Context) error {
	epoch, err := w.pool.OpenEpoch(ctx, w.credential)
	if errors.Is(err, domain.ErrPaused) {
		log.Debug("Pool is paused, not opening a new epoch")
		return nil
	}
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"epochID":  epoch.ID,
		"deadline": epoch.PurchaseDeadline(),
	}).Info("Lifecycle worker opened epoch")
	return nil
}

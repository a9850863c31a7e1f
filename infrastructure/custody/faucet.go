package custody

import (
	"context"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
	log "github.com/sirupsen/logrus"
)

// Faucet funds development participants. Each participant is minted the grant
// once, and every purchase re-approves the pool for the amount being spent.
type Faucet struct {
	mu      sync.Mutex
	ledger  *Ledger
	spender string
	grant   sdkmath.Int
	funded  map[string]bool
}

// NewFaucet creates a faucet that approves spender on behalf of participants
func NewFaucet(ledger *Ledger, spender string, grant sdkmath.Int) *Faucet {
	return &Faucet{
		ledger:  ledger,
		spender: spender,
		grant:   grant,
		funded:  make(map[string]bool),
	}
}

// Prepare mints the starting grant on first use and approves amount for the pool
func (f *Faucet) Prepare(ctx context.Context, participant string, amount sdkmath.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.funded[participant] && f.grant.IsPositive() {
		if err := f.ledger.Mint(participant, f.grant); err != nil {
			return fmt.Errorf("failed to fund participant: %w", err)
		}
		f.funded[participant] = true

		log.WithFields(log.Fields{
			"participant": participant,
			"grant":       f.grant.String(),
		}).Info("Funded new participant")
	}

	return f.ledger.For(participant).Approve(ctx, f.spender, amount)
}

// Balance returns the participant's balance of the faucet asset
func (f *Faucet) Balance(ctx context.Context, participant string) (sdkmath.Int, error) {
	return f.ledger.Balance(participant), nil
}

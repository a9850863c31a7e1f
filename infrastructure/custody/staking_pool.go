package custody

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"prizepool/domain/interfaces"

	sdkmath "cosmossdk.io/math"
	log "github.com/sirupsen/logrus"
)

var (
	ErrCooldownActive = errors.New("unstake cooldown has not elapsed")
	ErrNothingToStake = errors.New("stake amount must be positive")
)

const basisPoints = 10_000

// StakingPoolConfig configures the in-process staking pool
type StakingPoolConfig struct {
	VaultAccount string
	Cooldown     time.Duration
	AprBps       int64
}

type pendingWithdrawal struct {
	amount   sdkmath.Int
	unlockAt time.Time
}

// StakingPool is a share-based staking position over a Ledger. The bound
// account stakes; yield accrues continuously at the configured APR.
type StakingPool struct {
	mu             sync.Mutex
	ledger         *Ledger
	account        string
	clock          interfaces.Clock
	config         StakingPoolConfig
	shares         map[string]sdkmath.Int
	totalShares    sdkmath.Int
	totalPrincipal sdkmath.Int
	pending        map[string]pendingWithdrawal
	lastAccrual    time.Time
}

var _ interfaces.StakingAdapter = (*StakingPool)(nil)

// NewStakingPool creates a staking pool acting for account
func NewStakingPool(ledger *Ledger, account string, clock interfaces.Clock, config StakingPoolConfig) *StakingPool {
	return &StakingPool{
		ledger:         ledger,
		account:        account,
		clock:          clock,
		config:         config,
		shares:         make(map[string]sdkmath.Int),
		totalShares:    sdkmath.ZeroInt(),
		totalPrincipal: sdkmath.ZeroInt(),
		pending:        make(map[string]pendingWithdrawal),
		lastAccrual:    clock.Now(),
	}
}

// Stake moves amount from the account into the vault and mints shares
func (p *StakingPool) Stake(ctx context.Context, amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return ErrNothingToStake
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.accrue(); err != nil {
		return err
	}

	minted := amount
	if p.totalShares.IsPositive() && p.totalPrincipal.IsPositive() {
		minted = amount.Mul(p.totalShares).Quo(p.totalPrincipal)
	}

	if err := p.ledger.For(p.account).Transfer(ctx, p.config.VaultAccount, amount); err != nil {
		return fmt.Errorf("failed to move stake into vault: %w", err)
	}

	p.shares[p.account] = p.userShares(p.account).Add(minted)
	p.totalShares = p.totalShares.Add(minted)
	p.totalPrincipal = p.totalPrincipal.Add(amount)

	log.WithFields(log.Fields{
		"account": p.account,
		"amount":  amount.String(),
		"shares":  minted.String(),
	}).Debug("Staked")
	return nil
}

// UnstakeAll burns the account's shares and starts the withdrawal cooldown
func (p *StakingPool) UnstakeAll(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.accrue(); err != nil {
		return err
	}

	held := p.userShares(p.account)
	if held.IsZero() {
		return nil
	}

	value := held.Mul(p.totalPrincipal).Quo(p.totalShares)
	p.totalShares = p.totalShares.Sub(held)
	p.totalPrincipal = p.totalPrincipal.Sub(value)
	delete(p.shares, p.account)

	entry := p.pending[p.account]
	if entry.amount.IsNil() {
		entry.amount = sdkmath.ZeroInt()
	}
	entry.amount = entry.amount.Add(value)
	entry.unlockAt = p.clock.Now().Add(p.config.Cooldown)
	p.pending[p.account] = entry

	log.WithFields(log.Fields{
		"account":  p.account,
		"value":    value.String(),
		"unlockAt": entry.unlockAt,
	}).Info("Unstaked position")
	return nil
}

// WithdrawAll returns unstaked funds to the account once the cooldown elapsed
func (p *StakingPool) WithdrawAll(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.pending[p.account]
	if !ok {
		return nil
	}
	if p.clock.Now().Before(entry.unlockAt) {
		return fmt.Errorf("%w: available at %s", ErrCooldownActive, entry.unlockAt.UTC().Format(time.RFC3339))
	}

	if err := p.ledger.For(p.config.VaultAccount).Transfer(ctx, p.account, entry.amount); err != nil {
		return fmt.Errorf("failed to release withdrawal: %w", err)
	}
	delete(p.pending, p.account)

	log.WithFields(log.Fields{
		"account": p.account,
		"amount":  entry.amount.String(),
	}).Info("Withdrew unstaked funds")
	return nil
}

// GetUserShares returns the holder's shares
func (p *StakingPool) GetUserShares(ctx context.Context, holder string) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userShares(holder), nil
}

// GetTotalStakedPrincipal returns everything held for stakers including accrued yield
func (p *StakingPool) GetTotalStakedPrincipal(ctx context.Context) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.accrue(); err != nil {
		return sdkmath.Int{}, err
	}
	return p.totalPrincipal, nil
}

// GetTotalShares returns the outstanding shares
func (p *StakingPool) GetTotalShares(ctx context.Context) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalShares, nil
}

// AddYield credits rewards to the vault for all current stakers
func (p *StakingPool) AddYield(amount sdkmath.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.credit(amount)
}

// Slash removes value from the vault, modelling a losing position
func (p *StakingPool) Slash(amount sdkmath.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if amount.GT(p.totalPrincipal) {
		amount = p.totalPrincipal
	}
	if err := p.ledger.For(p.config.VaultAccount).Transfer(context.Background(), "slashed", amount); err != nil {
		return fmt.Errorf("failed to slash vault: %w", err)
	}
	p.totalPrincipal = p.totalPrincipal.Sub(amount)
	return nil
}

func (p *StakingPool) userShares(holder string) sdkmath.Int {
	if s, ok := p.shares[holder]; ok {
		return s
	}
	return sdkmath.ZeroInt()
}

func (p *StakingPool) credit(amount sdkmath.Int) error {
	if !amount.IsPositive() {
		return nil
	}
	if err := p.ledger.Mint(p.config.VaultAccount, amount); err != nil {
		return fmt.Errorf("failed to mint yield: %w", err)
	}
	p.totalPrincipal = p.totalPrincipal.Add(amount)
	return nil
}

// accrue credits simple interest since the last accrual
func (p *StakingPool) accrue() error {
	now := p.clock.Now()
	elapsed := now.Sub(p.lastAccrual)
	if elapsed <= 0 {
		return nil
	}
	p.lastAccrual = now

	if p.config.AprBps <= 0 || !p.totalPrincipal.IsPositive() {
		return nil
	}

	num := new(big.Int).Mul(p.totalPrincipal.BigInt(), big.NewInt(p.config.AprBps))
	num.Mul(num, big.NewInt(int64(elapsed)))
	den := new(big.Int).Mul(big.NewInt(basisPoints), big.NewInt(int64(365*24*time.Hour)))
	yield := sdkmath.NewIntFromBigInt(num.Quo(num, den))

	return p.credit(yield)
}

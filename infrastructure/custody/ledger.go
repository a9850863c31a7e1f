package custody

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"prizepool/domain/interfaces"

	sdkmath "cosmossdk.io/math"
	log "github.com/sirupsen/logrus"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrNegativeAmount        = errors.New("amount must not be negative")
	ErrUnknownAsset          = errors.New("unknown asset")
)

// Ledger is an in-process fungible asset with balances and allowances
type Ledger struct {
	mu         sync.Mutex
	assetID    string
	balances   map[string]sdkmath.Int
	allowances map[string]map[string]sdkmath.Int
}

// NewLedger creates an empty ledger for the asset
func NewLedger(assetID string) *Ledger {
	return &Ledger{
		assetID:    assetID,
		balances:   make(map[string]sdkmath.Int),
		allowances: make(map[string]map[string]sdkmath.Int),
	}
}

// AssetID returns the asset identifier
func (l *Ledger) AssetID() string {
	return l.assetID
}

// Mint credits new units to the holder
func (l *Ledger) Mint(holder string, amount sdkmath.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return ErrNegativeAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	updated, err := l.balance(holder).SafeAdd(amount)
	if err != nil {
		return fmt.Errorf("failed to mint %s %s: %w", amount, l.assetID, err)
	}
	l.balances[holder] = updated

	log.WithFields(log.Fields{
		"asset":  l.assetID,
		"holder": holder,
		"amount": amount.String(),
	}).Debug("Minted asset")
	return nil
}

// Balance returns the holder's balance
func (l *Ledger) Balance(holder string) sdkmath.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance(holder)
}

// For returns a transfer handle acting as account
func (l *Ledger) For(account string) *Account {
	return &Account{ledger: l, account: account}
}

func (l *Ledger) balance(holder string) sdkmath.Int {
	if b, ok := l.balances[holder]; ok {
		return b
	}
	return sdkmath.ZeroInt()
}

func (l *Ledger) allowance(owner, spender string) sdkmath.Int {
	if a, ok := l.allowances[owner][spender]; ok {
		return a
	}
	return sdkmath.ZeroInt()
}

// move debits from and credits to; caller holds the lock
func (l *Ledger) move(from, to string, amount sdkmath.Int) error {
	fromBalance := l.balance(from)
	if fromBalance.LT(amount) {
		return fmt.Errorf("%w: %s holds %s %s, needs %s", ErrInsufficientBalance, from, fromBalance, l.assetID, amount)
	}
	toBalance, err := l.balance(to).SafeAdd(amount)
	if err != nil {
		return fmt.Errorf("failed to credit %s: %w", to, err)
	}

	l.balances[from] = fromBalance.Sub(amount)
	l.balances[to] = toBalance
	return nil
}

// Account is a ledger handle bound to one account
type Account struct {
	ledger  *Ledger
	account string
}

var _ interfaces.AssetTransfer = (*Account)(nil)

// TransferFrom moves amount from one holder to another using this account's allowance
func (a *Account) TransferFrom(ctx context.Context, from, to string, amount sdkmath.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return ErrNegativeAmount
	}

	if amount.IsZero() {
		return nil
	}

	l := a.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	allowed := l.allowance(from, a.account)
	if allowed.LT(amount) {
		return fmt.Errorf("%w: %s may draw %s %s from %s, needs %s", ErrInsufficientAllowance, a.account, allowed, l.assetID, from, amount)
	}
	if err := l.move(from, to, amount); err != nil {
		return err
	}
	l.allowances[from][a.account] = allowed.Sub(amount)
	return nil
}

// Transfer moves amount from this account to the recipient
func (a *Account) Transfer(ctx context.Context, to string, amount sdkmath.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return ErrNegativeAmount
	}

	a.ledger.mu.Lock()
	defer a.ledger.mu.Unlock()
	return a.ledger.move(a.account, to, amount)
}

// BalanceOf returns the holder's balance
func (a *Account) BalanceOf(ctx context.Context, holder string) (sdkmath.Int, error) {
	return a.ledger.Balance(holder), nil
}

// Approve sets the allowance the spender may draw from this account
func (a *Account) Approve(ctx context.Context, spender string, amount sdkmath.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return ErrNegativeAmount
	}

	l := a.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.allowances[a.account] == nil {
		l.allowances[a.account] = make(map[string]sdkmath.Int)
	}
	l.allowances[a.account][spender] = amount
	return nil
}

// Directory resolves asset ids to ledgers and hands out handles bound to the pool
type Directory struct {
	mu          sync.RWMutex
	poolAccount string
	ledgers     map[string]*Ledger
}

// NewDirectory creates a directory over the given ledgers
func NewDirectory(poolAccount string, ledgers ...*Ledger) *Directory {
	d := &Directory{
		poolAccount: poolAccount,
		ledgers:     make(map[string]*Ledger),
	}
	for _, l := range ledgers {
		d.Register(l)
	}
	return d
}

// Register adds a ledger to the directory
func (d *Directory) Register(l *Ledger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ledgers[l.AssetID()] = l
}

// Ledger returns the ledger for the asset id
func (d *Directory) Ledger(assetID string) (*Ledger, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	l, ok := d.ledgers[assetID]
	return l, ok
}

// Asset returns a pool-bound handle for the asset id
func (d *Directory) Asset(assetID string) (interfaces.AssetTransfer, error) {
	l, ok := d.Ledger(assetID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, assetID)
	}
	return l.For(d.poolAccount), nil
}

// AssetIDs returns every registered asset id
func (d *Directory) AssetIDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]string, 0, len(d.ledgers))
	for id := range d.ledgers {
		ids = append(ids, id)
	}
	return ids
}

package entities

import (
	"fmt"
	"time"

	"prizepool/domain"

	sdkmath "cosmossdk.io/math"
)

// Credential identifies the caller of a privileged operation
type Credential struct {
	Subject string
}

// PoolSettings holds the pool-wide configuration; price and window apply to
// the next epoch opened
type PoolSettings struct {
	Authority   string        `db:"authority"`
	TicketPrice sdkmath.Int   `db:"ticket_price"`
	OpenWindow  time.Duration `db:"open_window"`
	Paused      bool          `db:"paused"`
	UpdatedAt   time.Time     `db:"updated_at"`
}

// Authorize verifies the credential matches the stored authority
func (s *PoolSettings) Authorize(cred Credential) error {
	if cred.Subject == "" || cred.Subject != s.Authority {
		return fmt.Errorf("%w: %q is not the pool authority", domain.ErrAuthorityDenied, cred.Subject)
	}
	return nil
}

// Validate checks the settings are usable for opening an epoch
func (s *PoolSettings) Validate() error {
	if s.Authority == "" {
		return fmt.Errorf("%w: authority must be set", domain.ErrInvalidSettings)
	}
	if err := ValidateTicketPrice(s.TicketPrice); err != nil {
		return err
	}
	return ValidateOpenWindow(s.OpenWindow)
}

// ValidateTicketPrice checks a ticket price is positive
func ValidateTicketPrice(price sdkmath.Int) error {
	if price.IsNil() || !price.IsPositive() {
		return fmt.Errorf("%w: ticket price must be positive", domain.ErrInvalidSettings)
	}
	return nil
}

// ValidateOpenWindow checks the purchase window is at least one second
func ValidateOpenWindow(window time.Duration) error {
	if window < time.Second {
		return fmt.Errorf("%w: open window must be at least 1s, got %s", domain.ErrInvalidSettings, window)
	}
	return nil
}

// BonusAsset is an auxiliary asset whose whole custody balance goes to the winner
type BonusAsset struct {
	AssetID string    `db:"asset_id"`
	AddedAt time.Time `db:"added_at"`
}

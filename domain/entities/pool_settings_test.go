package entities

import (
	"testing"
	"time"

	"prizepool/domain"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
)

func TestPoolSettings_Authorize(t *testing.T) {
	t.Parallel()

	s := &PoolSettings{Authority: "admin"}

	assert.NoError(t, s.Authorize(Credential{Subject: "admin"}))
	assert.ErrorIs(t, s.Authorize(Credential{Subject: "mallory"}), domain.ErrAuthorityDenied)
	assert.ErrorIs(t, s.Authorize(Credential{}), domain.ErrAuthorityDenied)
	assert.ErrorIs(t, (&PoolSettings{}).Authorize(Credential{}), domain.ErrAuthorityDenied)
}

func TestPoolSettings_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		settings PoolSettings
		wantErr  bool
	}{
		{
			name:     "valid",
			settings: PoolSettings{Authority: "admin", TicketPrice: sdkmath.NewInt(200), OpenWindow: time.Hour},
		},
		{
			name:     "missing authority",
			settings: PoolSettings{TicketPrice: sdkmath.NewInt(200), OpenWindow: time.Hour},
			wantErr:  true,
		},
		{
			name:     "zero price",
			settings: PoolSettings{Authority: "admin", TicketPrice: sdkmath.ZeroInt(), OpenWindow: time.Hour},
			wantErr:  true,
		},
		{
			name:     "nil price",
			settings: PoolSettings{Authority: "admin", OpenWindow: time.Hour},
			wantErr:  true,
		},
		{
			name:     "sub-second window",
			settings: PoolSettings{Authority: "admin", TicketPrice: sdkmath.NewInt(1), OpenWindow: time.Millisecond},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.settings.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidSettings)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

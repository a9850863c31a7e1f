package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"prizepool/domain"
	"prizepool/domain/entities"
	"prizepool/domain/events"
	"prizepool/domain/testhelpers"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var authority = entities.Credential{Subject: testAuthority}

func TestAdminService_Authorization(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name string
		cred entities.Credential
		call func(*adminService, entities.Credential) error
	}{
		{
			name: "set ticket price",
			cred: entities.Credential{Subject: "intruder"},
			call: func(s *adminService, c entities.Credential) error {
				_, err := s.SetTicketPrice(ctx, c, sdkmath.NewInt(1))
				return err
			},
		},
		{
			name: "pause",
			cred: entities.Credential{},
			call: func(s *adminService, c entities.Credential) error {
				_, err := s.SetPaused(ctx, c, true)
				return err
			},
		},
		{
			name: "transfer authority",
			cred: entities.Credential{Subject: "intruder"},
			call: func(s *adminService, c entities.Credential) error {
				_, err := s.TransferAuthority(ctx, c, "intruder")
				return err
			},
		},
		{
			name: "remove bonus asset",
			cred: entities.Credential{Subject: "intruder"},
			call: func(s *adminService, c entities.Credential) error {
				return s.RemoveBonusAsset(ctx, c, "GEM")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mocks := NewTestMocks()
			mocks.expectSettings(ctx, false)

			err := tt.call(mocks.adminService(), tt.cred)

			assert.ErrorIs(t, err, domain.ErrAuthorityDenied)
			mocks.SettingsRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			mocks.AssertAllExpectations(t)
		})
	}
}

func TestAdminService_SetTicketPrice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("applies and publishes the change", func(t *testing.T) {
		t.Parallel()

		mocks := NewTestMocks()
		mocks.expectSettings(ctx, false)
		mocks.SettingsRepo.On("Update", ctx, mock.MatchedBy(func(s *entities.PoolSettings) bool {
			return s.TicketPrice.Equal(sdkmath.NewInt(500)) && s.UpdatedAt.Equal(mocks.Clock.Now())
		})).Return(nil)
		mocks.EventPublisher.On("Publish", mock.MatchedBy(func(e events.PoolSettingsChangedEvent) bool {
			return e.Field == "ticket_price" && e.OldValue == "200" && e.NewValue == "500" && e.ActorID == testAuthority
		})).Return(nil)

		settings, err := mocks.adminService().SetTicketPrice(ctx, authority, sdkmath.NewInt(500))

		require.NoError(t, err)
		assert.Equal(t, "500", settings.TicketPrice.String())
		mocks.AssertAllExpectations(t)
	})

	t.Run("rejects a zero price", func(t *testing.T) {
		t.Parallel()

		mocks := NewTestMocks()
		mocks.expectSettings(ctx, false)

		_, err := mocks.adminService().SetTicketPrice(ctx, authority, sdkmath.ZeroInt())

		assert.ErrorIs(t, err, domain.ErrInvalidSettings)
		mocks.AssertAllExpectations(t)
	})
}

func TestAdminService_SetOpenWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mocks := NewTestMocks()
	mocks.expectSettings(ctx, false)

	_, err := mocks.adminService().SetOpenWindow(ctx, authority, 500*time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrInvalidSettings)

	mocks.SettingsRepo.On("Update", ctx, mock.Anything).Return(nil)
	mocks.expectPublish("events.PoolSettingsChangedEvent")

	settings, err := mocks.adminService().SetOpenWindow(ctx, authority, 48*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, settings.OpenWindow)
	mocks.AssertAllExpectations(t)
}

func TestAdminService_AddBonusAsset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name          string
		assetID       string
		setupMocks    func(*TestMocks)
		expectedError error
	}{
		{
			name:    "registers a known asset",
			assetID: "GEM",
			setupMocks: func(m *TestMocks) {
				m.Assets.On("Asset", "GEM").Return(new(testhelpers.MockAssetTransfer), nil)
				m.BonusRepo.On("List", ctx).Return([]*entities.BonusAsset{}, nil)
				m.BonusRepo.On("Add", ctx, mock.MatchedBy(func(a *entities.BonusAsset) bool {
					return a.AssetID == "GEM"
				})).Return(true, nil)
				m.expectPublish("events.PoolSettingsChangedEvent")
			},
		},
		{
			name:          "ticket asset rejected",
			assetID:       "USDC",
			setupMocks:    func(m *TestMocks) {},
			expectedError: domain.ErrInvalidSettings,
		},
		{
			name:    "unknown asset rejected",
			assetID: "NOPE",
			setupMocks: func(m *TestMocks) {
				m.Assets.On("Asset", "NOPE").Return(nil, errors.New("unknown asset"))
			},
			expectedError: domain.ErrInvalidSettings,
		},
		{
			name:    "registry full",
			assetID: "GEM",
			setupMocks: func(m *TestMocks) {
				m.Assets.On("Asset", "GEM").Return(new(testhelpers.MockAssetTransfer), nil)
				m.BonusRepo.On("List", ctx).Return([]*entities.BonusAsset{{AssetID: "A"}, {AssetID: "B"}}, nil)
			},
			expectedError: domain.ErrInvalidSettings,
		},
		{
			name:    "duplicate",
			assetID: "GEM",
			setupMocks: func(m *TestMocks) {
				m.Assets.On("Asset", "GEM").Return(new(testhelpers.MockAssetTransfer), nil)
				m.BonusRepo.On("List", ctx).Return([]*entities.BonusAsset{{AssetID: "GEM"}}, nil)
				m.BonusRepo.On("Add", ctx, mock.Anything).Return(false, nil)
			},
			expectedError: domain.ErrInvalidSettings,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mocks := NewTestMocks()
			mocks.expectSettings(ctx, false)
			tt.setupMocks(mocks)

			asset, err := mocks.adminService().AddBonusAsset(ctx, authority, tt.assetID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, asset)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.assetID, asset.AssetID)
			}
			mocks.AssertAllExpectations(t)
		})
	}
}

func TestAdminService_TransferAuthority(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mocks := NewTestMocks()
	mocks.expectSettings(ctx, false)
	mocks.SettingsRepo.On("Update", ctx, mock.MatchedBy(func(s *entities.PoolSettings) bool {
		return s.Authority == "123"
	})).Return(nil)
	mocks.expectPublish("events.PoolSettingsChangedEvent")

	settings, err := mocks.adminService().TransferAuthority(ctx, authority, "123")

	require.NoError(t, err)
	assert.NoError(t, settings.Authorize(entities.Credential{Subject: "123"}))
	assert.ErrorIs(t, settings.Authorize(authority), domain.ErrAuthorityDenied)
	mocks.AssertAllExpectations(t)
}

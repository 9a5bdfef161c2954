package services

import (
	"context"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/apperrors"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/chainverify"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/config"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

func testDefaults() config.PaymentDefaults {
	return config.PaymentDefaults{
		TreasuryAddress: "0x000000000000000000000000000000000000dEaD",
		TokenAddress:    "0x00000000000000000000000000000000000000aA",
		TokenDecimals:   6,
		CurrencySymbol:  "USDT",
		Level1Bps:       1000,
		Level2Bps:       500,
		PaymentNetwork:  models.NetworkEVM,
		RPCURL:          "http://localhost:8545",
		TronAPIURL:      "https://api.trongrid.io",
		UsdPerToken:     1,
	}
}

func newActivationService(storage *StorageMock, verifier chainverify.Verifier) *ActivationService {
	log := NewNoopLogger()
	storage.On("GetAppConfig", mock.Anything).Return(nil, nil).Maybe()
	configs := NewConfigService(storage, noopCache{}, testDefaults(), log)
	referrals := NewReferralService(storage, storage, storage, nil, log)
	factory := func(_ *models.PlatformConfig) (chainverify.Verifier, error) {
		return verifier, nil
	}
	return NewActivationService(storage, configs, referrals, factory, nil, log)
}

func walletUser(id string) *models.User {
	wallet := "0x1111111111111111111111111111111111111111"
	return &models.User{
		ID:            id,
		Name:          "buyer",
		Email:         "buyer@example.com",
		Role:          models.RoleUser,
		WalletAddress: &wallet,
		RefCode:       "abc123",
	}
}

func TestActivation_ActivatePackage(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		req      models.DummyActivate
		verified bool
		wantErr  error
		setup    func(storage *StorageMock, verifier *VerifierMock)
	}{
		{
			name: "successful activation",
			req: models.DummyActivate{
				Label:     "Starter",
				AmountUsd: 50,
				Amount:    "50",
				TxHash:    "0xabc",
			},
			setup: func(storage *StorageMock, verifier *VerifierMock) {
				buyer := walletUser("user-1")
				storage.On("GetUser", mock.Anything, "user-1").Return(buyer, nil)
				storage.On("GetSubscriptionByTxHash", mock.Anything, "0xabc").Return(nil, nil)
				verifier.On("VerifyTransfer", mock.Anything, mock.MatchedBy(func(req chainverify.VerifyRequest) bool {
					// 50 токенов с 6 знаками
					return req.ExpectedAmount.Cmp(big.NewInt(50000000)) == 0 &&
						req.TxHash == "0xabc"
				})).Return(true, nil)
				storage.On("UpsertPlanByName", mock.Anything, "Starter", "Independent package",
					decimal.RequireFromString("50"), 30).
					Return(&models.Plan{ID: "plan-1", Name: "Starter", Price: decimal.RequireFromString("50"), DurationDays: 30, Active: true}, nil)
				storage.On("CreateSubscription", mock.Anything, mock.Anything).Return("sub-1", nil)
			},
		},
		{
			name: "payment not verified",
			req: models.DummyActivate{
				Label:     "Starter",
				AmountUsd: 50,
				Amount:    "50",
				TxHash:    "0xbad",
			},
			wantErr: apperrors.ErrPaymentNotVerified,
			setup: func(storage *StorageMock, verifier *VerifierMock) {
				storage.On("GetUser", mock.Anything, "user-1").Return(walletUser("user-1"), nil)
				storage.On("GetSubscriptionByTxHash", mock.Anything, "0xbad").Return(nil, nil)
				verifier.On("VerifyTransfer", mock.Anything, mock.Anything).Return(false, nil)
			},
		},
		{
			name: "wallet not set",
			req: models.DummyActivate{
				Label:     "Starter",
				AmountUsd: 50,
				Amount:    "50",
				TxHash:    "0xabc",
			},
			wantErr: apperrors.ErrWalletNotSet,
			setup: func(storage *StorageMock, _ *VerifierMock) {
				storage.On("GetUser", mock.Anything, "user-1").
					Return(&models.User{ID: "user-1", RefCode: "abc123"}, nil)
			},
		},
		{
			name: "replayed tx hash returns conflict",
			req: models.DummyActivate{
				Label:     "Starter",
				AmountUsd: 50,
				Amount:    "50",
				TxHash:    "0xused",
			},
			wantErr: apperrors.ErrConflict,
			setup: func(storage *StorageMock, _ *VerifierMock) {
				storage.On("GetUser", mock.Anything, "user-1").Return(walletUser("user-1"), nil)
				storage.On("GetSubscriptionByTxHash", mock.Anything, "0xused").
					Return(&models.Subscription{ID: "sub-0", TxHash: "0xused"}, nil)
			},
		},
		{
			name: "garbage amount rejected",
			req: models.DummyActivate{
				Label:     "Starter",
				AmountUsd: 50,
				Amount:    "not-a-number",
				TxHash:    "0xabc",
			},
			wantErr: apperrors.ErrInvalidInput,
			setup:   func(_ *StorageMock, _ *VerifierMock) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := new(StorageMock)
			verifier := new(VerifierMock)
			tt.setup(storage, verifier)

			svc := newActivationService(storage, verifier)
			got, err := svc.ActivatePackage(ctx, "user-1", tt.req)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "sub-1", got.ID)
			assert.Equal(t, "plan-1", got.PlanID)
			assert.True(t, got.EndsAt.After(got.StartsAt))
			storage.AssertExpectations(t)
			verifier.AssertExpectations(t)
		})
	}
}

func TestActivation_ActivatePackage_NotConfigured(t *testing.T) {
	storage := new(StorageMock)
	storage.On("GetAppConfig", mock.Anything).Return(nil, nil)

	log := NewNoopLogger()
	defaults := testDefaults()
	defaults.TreasuryAddress = "" // казначейство не настроено
	configs := NewConfigService(storage, noopCache{}, defaults, log)
	referrals := NewReferralService(storage, storage, storage, nil, log)
	factory := func(_ *models.PlatformConfig) (chainverify.Verifier, error) {
		return new(VerifierMock), nil
	}
	svc := NewActivationService(storage, configs, referrals, factory, nil, log)

	_, err := svc.ActivatePackage(context.Background(), "user-1", models.DummyActivate{
		Label: "Starter", AmountUsd: 50, Amount: "50", TxHash: "0xabc",
	})
	require.ErrorIs(t, err, apperrors.ErrServerNotConfigured)
}

func TestActivation_SubscribePlan(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		wantErr error
		setup   func(storage *StorageMock, verifier *VerifierMock)
	}{
		{
			name: "successful plan purchase",
			setup: func(storage *StorageMock, verifier *VerifierMock) {
				storage.On("GetUser", mock.Anything, "user-1").Return(walletUser("user-1"), nil)
				storage.On("GetSubscriptionByTxHash", mock.Anything, "0xabc").Return(nil, nil)
				storage.On("GetPlan", mock.Anything, "plan-1").
					Return(&models.Plan{ID: "plan-1", Name: "Pro", Price: decimal.RequireFromString("99.5"), DurationDays: 30, Active: true}, nil)
				verifier.On("VerifyTransfer", mock.Anything, mock.MatchedBy(func(req chainverify.VerifyRequest) bool {
					return req.ExpectedAmount.Cmp(big.NewInt(99500000)) == 0
				})).Return(true, nil)
				storage.On("CreateSubscription", mock.Anything, mock.Anything).Return("sub-1", nil)
			},
		},
		{
			name:    "inactive plan rejected",
			wantErr: apperrors.ErrPlanInactive,
			setup: func(storage *StorageMock, _ *VerifierMock) {
				storage.On("GetUser", mock.Anything, "user-1").Return(walletUser("user-1"), nil)
				storage.On("GetSubscriptionByTxHash", mock.Anything, "0xabc").Return(nil, nil)
				storage.On("GetPlan", mock.Anything, "plan-1").
					Return(&models.Plan{ID: "plan-1", Name: "Pro", Active: false}, nil)
			},
		},
		{
			name:    "unknown plan",
			wantErr: apperrors.ErrPlanNotFound,
			setup: func(storage *StorageMock, _ *VerifierMock) {
				storage.On("GetUser", mock.Anything, "user-1").Return(walletUser("user-1"), nil)
				storage.On("GetSubscriptionByTxHash", mock.Anything, "0xabc").Return(nil, nil)
				storage.On("GetPlan", mock.Anything, "plan-1").
					Return(nil, apperrors.ErrPlanNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := new(StorageMock)
			verifier := new(VerifierMock)
			tt.setup(storage, verifier)

			svc := newActivationService(storage, verifier)
			got, err := svc.SubscribePlan(ctx, "user-1", models.DummySubscribe{
				PlanID: "plan-1", TxHash: "0xabc",
			})

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, got.Amount.Equal(decimal.RequireFromString("99.5")))
		})
	}
}

func TestActivation_ReplayedTxHashSkipsVerification(t *testing.T) {
	storage := new(StorageMock)
	verifier := new(VerifierMock)

	storage.On("GetUser", mock.Anything, "user-1").Return(walletUser("user-1"), nil)
	storage.On("GetSubscriptionByTxHash", mock.Anything, "0xused").
		Return(&models.Subscription{ID: "sub-0", TxHash: "0xused"}, nil)

	svc := newActivationService(storage, verifier)
	_, err := svc.SubscribePlan(context.Background(), "user-1", models.DummySubscribe{
		PlanID: "plan-1", TxHash: "0xused",
	})

	// Повторный tx_hash отсекается до похода в сеть и чтения плана
	require.ErrorIs(t, err, apperrors.ErrConflict)
	verifier.AssertNotCalled(t, "VerifyTransfer", mock.Anything, mock.Anything)
	storage.AssertNotCalled(t, "GetPlan", mock.Anything, mock.Anything)
}

func TestActivation_CommissionsAccruedOnPurchase(t *testing.T) {
	storage := new(StorageMock)
	verifier := new(VerifierMock)

	sponsorID := "sponsor-1"
	grandID := "grand-1"
	buyer := walletUser("user-1")
	buyer.ReferrerID = &sponsorID

	storage.On("GetUser", mock.Anything, "user-1").Return(buyer, nil)
	storage.On("GetUser", mock.Anything, sponsorID).
		Return(&models.User{ID: sponsorID, ReferrerID: &grandID}, nil)
	storage.On("GetSubscriptionByTxHash", mock.Anything, "0xabc").Return(nil, nil)
	verifier.On("VerifyTransfer", mock.Anything, mock.Anything).Return(true, nil)
	storage.On("UpsertPlanByName", mock.Anything, "Starter", "Independent package", mock.Anything, 30).
		Return(&models.Plan{ID: "plan-1", Name: "Starter", DurationDays: 30, Active: true}, nil)
	storage.On("CreateSubscription", mock.Anything, mock.Anything).Return("sub-1", nil)

	// 10% спонсору, 5% спонсору спонсора
	storage.On("CreateCommission", mock.Anything, mock.MatchedBy(func(c models.Commission) bool {
		return c.Level == 1 && c.BeneficiaryID == sponsorID && c.Amount.Equal(decimal.RequireFromString("10"))
	})).Return("com-1", nil)
	storage.On("CreateCommission", mock.Anything, mock.MatchedBy(func(c models.Commission) bool {
		return c.Level == 2 && c.BeneficiaryID == grandID && c.Amount.Equal(decimal.RequireFromString("5"))
	})).Return("com-2", nil)

	svc := newActivationService(storage, verifier)
	_, err := svc.ActivatePackage(context.Background(), "user-1", models.DummyActivate{
		Label: "Starter", AmountUsd: 100, Amount: "100", TxHash: "0xabc",
	})
	require.NoError(t, err)
	storage.AssertExpectations(t)
}

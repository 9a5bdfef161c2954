package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/chainverify"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/storage/repository"
)

func NewNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

type StorageMock struct{ mock.Mock }

func (m *StorageMock) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *StorageMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *StorageMock) GetUserByRefCode(ctx context.Context, refCode string) (*models.User, error) {
	args := m.Called(ctx, refCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *StorageMock) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *StorageMock) UpdateWalletAddress(ctx context.Context, id string, address *string) error {
	return m.Called(ctx, id, address).Error(0)
}

func (m *StorageMock) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *StorageMock) UpsertPlanByName(ctx context.Context, name, description string,
	price decimal.Decimal, durationDays int) (*models.Plan, error) {
	args := m.Called(ctx, name, description, price, durationDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *StorageMock) CreateSubscription(ctx context.Context, sub models.Subscription) (string, error) {
	args := m.Called(ctx, sub)
	return args.String(0), args.Error(1)
}

func (m *StorageMock) GetSubscriptionByTxHash(ctx context.Context, txHash string) (*models.Subscription, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *StorageMock) ListSubscriptionsByUser(ctx context.Context, userID string) ([]*models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *StorageMock) CreateCommission(ctx context.Context, c models.Commission) (string, error) {
	args := m.Called(ctx, c)
	return args.String(0), args.Error(1)
}

func (m *StorageMock) MarkCommissionsPaid(ctx context.Context, beneficiaryID string, upTo decimal.Decimal) (int64, error) {
	args := m.Called(ctx, beneficiaryID, upTo)
	return args.Get(0).(int64), args.Error(1)
}

func (m *StorageMock) ListCommissionsByBeneficiary(ctx context.Context, beneficiaryID string) ([]*models.Commission, error) {
	args := m.Called(ctx, beneficiaryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Commission), args.Error(1)
}

func (m *StorageMock) SumCommissionsByBeneficiary(ctx context.Context, beneficiaryID string) (*models.CommissionSum, error) {
	args := m.Called(ctx, beneficiaryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CommissionSum), args.Error(1)
}

func (m *StorageMock) CreateWithdrawal(ctx context.Context, w models.Withdrawal) (string, error) {
	args := m.Called(ctx, w)
	return args.String(0), args.Error(1)
}

func (m *StorageMock) ListWithdrawalsByUser(ctx context.Context, userID string) ([]*models.Withdrawal, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Withdrawal), args.Error(1)
}

func (m *StorageMock) SumRequestedWithdrawals(ctx context.Context, userID string) (*models.CommissionSum, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CommissionSum), args.Error(1)
}

func (m *StorageMock) GetAppConfig(ctx context.Context) (*models.AppConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AppConfig), args.Error(1)
}

func (m *StorageMock) UpdateAppConfig(ctx context.Context, patch models.DummyConfigPatch) (*models.AppConfig, error) {
	args := m.Called(ctx, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AppConfig), args.Error(1)
}

func (m *StorageMock) CountReferrals(ctx context.Context, id string) (int, int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *StorageMock) ListSponsorVolumes(ctx context.Context, from, to time.Time, limit int) ([]*models.SponsorVolumeRow, error) {
	args := m.Called(ctx, from, to, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SponsorVolumeRow), args.Error(1)
}

func (m *StorageMock) CreatePlan(ctx context.Context, plan models.Plan) (string, error) {
	args := m.Called(ctx, plan)
	return args.String(0), args.Error(1)
}

func (m *StorageMock) UpdatePlan(ctx context.Context, id string, patch models.DummyPlanPatch) (*models.Plan, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *StorageMock) DeletePlan(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *StorageMock) ListPlans(ctx context.Context, activeOnly bool) ([]*models.Plan, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}

func (m *StorageMock) CountSubscriptionsByPlan(ctx context.Context, planID string) (int, error) {
	args := m.Called(ctx, planID)
	return args.Int(0), args.Error(1)
}

func (m *StorageMock) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *StorageMock) UpdateUser(ctx context.Context, id string, patch repository.UserPatch) (*models.User, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *StorageMock) DeleteUser(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *StorageMock) CountFinancialHistory(ctx context.Context, id string) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *StorageMock) CreateOtp(ctx context.Context, email, purpose, code string, expiresAt time.Time) error {
	return m.Called(ctx, email, purpose, code, expiresAt).Error(0)
}

func (m *StorageMock) ConsumeOtp(ctx context.Context, email, purpose, code string) error {
	return m.Called(ctx, email, purpose, code).Error(0)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(routingKey string, message any) error {
	return m.Called(routingKey, message).Error(0)
}

type VerifierMock struct{ mock.Mock }

func (m *VerifierMock) VerifyTransfer(ctx context.Context, req chainverify.VerifyRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

type SenderMock struct{ mock.Mock }

func (m *SenderMock) SendOtpCode(email, code string) error {
	return m.Called(email, code).Error(0)
}

func (m *SenderMock) SendCommissionAccrued(email, amount string, level int) error {
	return m.Called(email, amount, level).Error(0)
}

func (m *SenderMock) SendSubscriptionActivated(email string, endsAt time.Time) error {
	return m.Called(email, endsAt).Error(0)
}

// noopCache кеш, который никогда ничего не находит.
type noopCache struct{}

func (noopCache) Get(_ context.Context, _ string, _ any) (bool, error) { return false, nil }
func (noopCache) Set(_ context.Context, _ string, _ any, _ time.Duration) error {
	return nil
}
func (noopCache) Invalidate(_ context.Context, _ string) error { return nil }

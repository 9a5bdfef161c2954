package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/apperrors"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

func TestStorage_CreateUser(t *testing.T) {
	tests := []struct {
		name    string
		user    models.User
		wantErr error
		setup   func(t *testing.T, factory *TestDataFactory)
	}{
		{
			name: "successful create user",
			user: models.User{
				Name:         "testuser",
				Email:        "test@example.com",
				PasswordHash: "hashedpassword",
				Role:         models.RoleUser,
				RefCode:      "abc123",
			},
			setup: func(_ *testing.T, _ *TestDataFactory) {},
		},
		{
			name: "duplicate email returns conflict",
			user: models.User{
				Name:         "other",
				Email:        "test@example.com",
				PasswordHash: "hashedpassword",
				Role:         models.RoleUser,
				RefCode:      "def456",
			},
			wantErr: apperrors.ErrConflict,
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateUser(t, "testuser", "test@example.com", "abc123", nil)
			},
		},
		{
			name: "duplicate ref_code returns conflict",
			user: models.User{
				Name:         "other",
				Email:        "other@example.com",
				PasswordHash: "hashedpassword",
				Role:         models.RoleUser,
				RefCode:      "abc123",
			},
			wantErr: apperrors.ErrConflict,
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateUser(t, "testuser", "test@example.com", "abc123", nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			tt.setup(t, factory)

			gotID, err := storage.CreateUser(context.Background(), tt.user)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, gotID)

			verification := NewTestVerification(storage)
			verification.VerifyUserExists(t, gotID)
		})
	}
}

func TestStorage_GetUserByRefCode(t *testing.T) {
	tests := []struct {
		name    string
		refCode string
		wantErr error
		setup   func(t *testing.T, factory *TestDataFactory)
	}{
		{
			name:    "successful get user by ref code",
			refCode: "abc123",
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateUser(t, "testuser", "test@example.com", "abc123", nil)
			},
		},
		{
			name:    "unknown ref code returns not found",
			refCode: "zzzzzz",
			wantErr: apperrors.ErrNotFound,
			setup:   func(_ *testing.T, _ *TestDataFactory) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			tt.setup(t, factory)

			got, err := storage.GetUserByRefCode(context.Background(), tt.refCode)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.refCode, got.RefCode)
		})
	}
}

func TestStorage_UpdateWalletAddress(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userID := factory.CreateUser(t, "testuser", "test@example.com", "abc123", nil)

	wallet := "0x1111111111111111111111111111111111111111"
	err := storage.UpdateWalletAddress(context.Background(), userID, &wallet)
	require.NoError(t, err)

	verification := NewTestVerification(storage)
	verification.VerifyWalletAddress(t, userID, &wallet)

	// Отвязка кошелька
	err = storage.UpdateWalletAddress(context.Background(), userID, nil)
	require.NoError(t, err)
	verification.VerifyWalletAddress(t, userID, nil)
}

func TestStorage_CreateSubscription_DuplicateTxHash(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userID := factory.CreateUser(t, "buyer", "buyer@example.com", "abc123", nil)
	planID := factory.CreatePlan(t, "Pro", 100, 30, true)

	now := time.Now()
	sub := models.Subscription{
		UserID:   userID,
		PlanID:   planID,
		TxHash:   "0xdeadbeef",
		Amount:   mustDecimal(t, "100"),
		StartsAt: now,
		EndsAt:   now.AddDate(0, 0, 30),
		Active:   true,
	}

	gotID, err := storage.CreateSubscription(context.Background(), sub)
	require.NoError(t, err)
	require.NotEmpty(t, gotID)

	// Повторная активация тем же платежом должна вернуть конфликт
	_, err = storage.CreateSubscription(context.Background(), sub)
	require.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestStorage_CreateCommission_Idempotent(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	sponsorID := factory.CreateUser(t, "sponsor", "sponsor@example.com", "sp0001", nil)
	buyerID := factory.CreateUser(t, "buyer", "buyer@example.com", "by0001", &sponsorID)
	planID := factory.CreatePlan(t, "Pro", 100, 30, true)
	subID := factory.CreateSubscription(t, buyerID, planID, "0xabc", 100, time.Now())

	c := models.Commission{
		SubscriptionID: subID,
		BeneficiaryID:  sponsorID,
		FromUserID:     buyerID,
		Level:          1,
		Amount:         mustDecimal(t, "10"),
		Status:         models.CommissionPending,
	}

	id, err := storage.CreateCommission(context.Background(), c)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// Повтор молча пропускается, id пустой
	repeatID, err := storage.CreateCommission(context.Background(), c)
	require.NoError(t, err)
	assert.Empty(t, repeatID)

	verification := NewTestVerification(storage)
	verification.VerifyCommissionCount(t, subID, 1)
}

func TestStorage_SumCommissionsByBeneficiary(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	sponsorID := factory.CreateUser(t, "sponsor", "sponsor@example.com", "sp0001", nil)
	buyerID := factory.CreateUser(t, "buyer", "buyer@example.com", "by0001", &sponsorID)
	planID := factory.CreatePlan(t, "Pro", 100, 30, true)
	subID1 := factory.CreateSubscription(t, buyerID, planID, "0xaaa", 100, time.Now())
	subID2 := factory.CreateSubscription(t, buyerID, planID, "0xbbb", 200, time.Now())

	factory.CreateCommission(t, subID1, sponsorID, buyerID, 1, 10, models.CommissionPending, time.Now())
	factory.CreateCommission(t, subID2, sponsorID, buyerID, 1, 20, models.CommissionPaid, time.Now())

	sum, err := storage.SumCommissionsByBeneficiary(context.Background(), sponsorID)
	require.NoError(t, err)
	assert.True(t, sum.Pending.Equal(mustDecimal(t, "10")), "pending = %s", sum.Pending)
	assert.True(t, sum.Paid.Equal(mustDecimal(t, "20")), "paid = %s", sum.Paid)
}

func TestStorage_MarkCommissionsPaid(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	sponsorID := factory.CreateUser(t, "sponsor", "sponsor@example.com", "sp0001", nil)
	buyerID := factory.CreateUser(t, "buyer", "buyer@example.com", "by0001", &sponsorID)
	planID := factory.CreatePlan(t, "Pro", 100, 30, true)
	subID1 := factory.CreateSubscription(t, buyerID, planID, "0xaaa", 100, time.Now())
	subID2 := factory.CreateSubscription(t, buyerID, planID, "0xbbb", 200, time.Now())

	base := time.Now().Add(-time.Hour)
	factory.CreateCommission(t, subID1, sponsorID, buyerID, 1, 10, models.CommissionPending, base)
	factory.CreateCommission(t, subID2, sponsorID, buyerID, 1, 20, models.CommissionPending, base.Add(time.Minute))

	// Суммы хватает только на первое начисление, второе остаётся ожидать
	count, err := storage.MarkCommissionsPaid(context.Background(), sponsorID, mustDecimal(t, "15"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	sum, err := storage.SumCommissionsByBeneficiary(context.Background(), sponsorID)
	require.NoError(t, err)
	assert.True(t, sum.Paid.Equal(mustDecimal(t, "10")), "paid = %s", sum.Paid)
	assert.True(t, sum.Pending.Equal(mustDecimal(t, "20")), "pending = %s", sum.Pending)
}

func TestStorage_ConsumeOtp(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	err := storage.CreateOtp(ctx, "test@example.com", models.OtpPurposeLogin, "123456", time.Now().Add(10*time.Minute))
	require.NoError(t, err)

	// Первый ввод кода проходит
	require.NoError(t, storage.ConsumeOtp(ctx, "test@example.com", models.OtpPurposeLogin, "123456"))

	// Повторный ввод того же кода отклоняется
	err = storage.ConsumeOtp(ctx, "test@example.com", models.OtpPurposeLogin, "123456")
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	// Просроченный код отклоняется
	err = storage.CreateOtp(ctx, "test@example.com", models.OtpPurposeLogin, "654321", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	err = storage.ConsumeOtp(ctx, "test@example.com", models.OtpPurposeLogin, "654321")
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestStorage_DeleteExpiredOtps(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, storage.CreateOtp(ctx, "stale@example.com", models.OtpPurposeLogin, "111111", time.Now().Add(-time.Minute)))
	require.NoError(t, storage.CreateOtp(ctx, "fresh@example.com", models.OtpPurposeLogin, "222222", time.Now().Add(10*time.Minute)))

	count, err := storage.DeleteExpiredOtps(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Живой код переживает уборку
	require.NoError(t, storage.ConsumeOtp(ctx, "fresh@example.com", models.OtpPurposeLogin, "222222"))
}

func TestStorage_UpsertPlanByName(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()

	first, err := storage.UpsertPlanByName(ctx, "Independent package", "", mustDecimal(t, "50"), 30)
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	// Повторный апсерт с другой ценой не плодит план, а обновляет цену
	second, err := storage.UpsertPlanByName(ctx, "Independent package", "", mustDecimal(t, "75"), 30)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Price.Equal(mustDecimal(t, "75")))

	plans, err := storage.ListPlans(ctx, false)
	require.NoError(t, err)
	assert.Len(t, plans, 1)
}

func TestStorage_UpdateAppConfig_CreatesRow(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()

	got, err := storage.GetAppConfig(ctx)
	require.NoError(t, err)
	require.Nil(t, got)

	treasury := "0x2222222222222222222222222222222222222222"
	updated, err := storage.UpdateAppConfig(ctx, models.DummyConfigPatch{TreasuryAddr: &treasury})
	require.NoError(t, err)
	require.NotNil(t, updated.TreasuryAddr)
	assert.Equal(t, treasury, *updated.TreasuryAddr)
	assert.Equal(t, 6, updated.TokenDecimals)
	assert.Equal(t, models.NetworkEVM, updated.PaymentNetwork)
}

func TestStorage_ListSponsorVolumes(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)

	// grand -> sponsor -> buyer: покупки buyer попадают в прямой объём
	// sponsor и в двухуровневый объём grand. idler зарегистрирован под
	// sponsor, но в периоде не покупал и в счётчик рефералов не входит.
	grandID := factory.CreateUser(t, "grand", "grand@example.com", "gr0001", nil)
	sponsorID := factory.CreateUser(t, "sponsor", "sponsor@example.com", "sp0001", &grandID)
	buyerID := factory.CreateUser(t, "buyer", "buyer@example.com", "by0001", &sponsorID)
	factory.CreateUser(t, "idler", "idler@example.com", "id0001", &sponsorID)
	planID := factory.CreatePlan(t, "Pro", 100, 30, true)

	now := time.Now()
	factory.CreateSubscription(t, buyerID, planID, "0xaaa", 100, now)
	factory.CreateSubscription(t, buyerID, planID, "0xccc", 50, now)
	factory.CreateSubscription(t, sponsorID, planID, "0xbbb", 200, now)

	rows, err := storage.ListSponsorVolumes(context.Background(),
		now.Add(-time.Hour), now.Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Сортировка по прямому объёму: grand (200) выше sponsor (150).
	assert.Equal(t, grandID, rows[0].SponsorID)
	assert.Equal(t, sponsorID, rows[1].SponsorID)

	byID := make(map[string]*models.SponsorVolumeRow, len(rows))
	for _, r := range rows {
		byID[r.SponsorID] = r
	}

	sponsor := byID[sponsorID]
	require.NotNil(t, sponsor)
	// Две покупки одного buyer считаются одним рефералом, idler без
	// покупок не учитывается.
	assert.Equal(t, 1, sponsor.Referrals)
	assert.True(t, sponsor.VolumeDirect.Equal(mustDecimal(t, "150")))
	assert.True(t, sponsor.VolumeTwoLvl.Equal(mustDecimal(t, "150")))

	grand := byID[grandID]
	require.NotNil(t, grand)
	assert.Equal(t, 1, grand.Referrals)
	assert.True(t, grand.VolumeDirect.Equal(mustDecimal(t, "200")))
	// Прямая покупка sponsor плюс покупки buyer уровнем ниже
	assert.True(t, grand.VolumeTwoLvl.Equal(mustDecimal(t, "350")))
}

func TestCheckDatabaseReady(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	require.NoError(t, CheckDatabaseReady(storage))

	_, err := storage.DB.Exec(`DROP TABLE IF EXISTS commissions CASCADE`)
	require.NoError(t, err)
	_, err = storage.DB.Exec(`DROP TABLE IF EXISTS subscriptions CASCADE`)
	require.NoError(t, err)

	err = CheckDatabaseReady(storage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

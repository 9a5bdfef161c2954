package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/apperrors"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/events"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/sl"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

// ReferralUserRepository читает пользователей для построения
// цепочки спонсоров.
type ReferralUserRepository interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// CommissionRepository пишет и читает реферальные начисления.
type CommissionRepository interface {
	CreateCommission(ctx context.Context, c models.Commission) (string, error)
	ListCommissionsByBeneficiary(ctx context.Context, beneficiaryID string) ([]*models.Commission, error)
	SumCommissionsByBeneficiary(ctx context.Context, beneficiaryID string) (*models.CommissionSum, error)
	MarkCommissionsPaid(ctx context.Context, beneficiaryID string, upTo decimal.Decimal) (int64, error)
}

// WithdrawalRepository пишет и читает заявки на вывод.
type WithdrawalRepository interface {
	CreateWithdrawal(ctx context.Context, w models.Withdrawal) (string, error)
	ListWithdrawalsByUser(ctx context.Context, userID string) ([]*models.Withdrawal, error)
	SumRequestedWithdrawals(ctx context.Context, userID string) (*models.CommissionSum, error)
}

// ReferralService начисляет партнёрские комиссии двух уровней
// и обслуживает вывод заработанного.
type ReferralService struct {
	users       ReferralUserRepository
	commissions CommissionRepository
	withdrawals WithdrawalRepository
	publisher   events.Publisher
	log         *slog.Logger
}

// NewReferralService создает новый экземпляр ReferralService.
func NewReferralService(users ReferralUserRepository, commissions CommissionRepository,
	withdrawals WithdrawalRepository, publisher events.Publisher, log *slog.Logger) *ReferralService {
	return &ReferralService{
		users:       users,
		commissions: commissions,
		withdrawals: withdrawals,
		publisher:   publisher,
		log:         log,
	}
}

// CommissionAmounts считает комиссии уровней от суммы покупки.
// Доли заданы в базисных пунктах, деление на 10000 без округления
// вверх: остаток остаётся у платформы.
func CommissionAmounts(amount decimal.Decimal, level1Bps, level2Bps int) (lvl1, lvl2 decimal.Decimal) {
	bps := decimal.NewFromInt(10000)
	lvl1 = amount.Mul(decimal.NewFromInt(int64(level1Bps))).Div(bps)
	lvl2 = amount.Mul(decimal.NewFromInt(int64(level2Bps))).Div(bps)
	return lvl1, lvl2
}

// Accrue начисляет комиссии по цепочке спонсоров покупателя. Ошибка
// начисления не роняет активацию: подписка уже записана, недоначисленные
// комиссии доначислит повтор благодаря идемпотентной записи.
func (s *ReferralService) Accrue(ctx context.Context, sub *models.Subscription, cfg *models.PlatformConfig) {
	buyer, err := s.users.GetUser(ctx, sub.UserID)
	if err != nil {
		s.log.Error("failed to load buyer for commission accrual", sl.Err(err))
		return
	}
	if buyer.ReferrerID == nil {
		return
	}

	lvl1Amount, lvl2Amount := CommissionAmounts(sub.Amount, cfg.Level1Bps, cfg.Level2Bps)

	s.accrueOne(ctx, models.Commission{
		SubscriptionID: sub.ID,
		BeneficiaryID:  *buyer.ReferrerID,
		FromUserID:     buyer.ID,
		Level:          1,
		Amount:         lvl1Amount,
		Status:         models.CommissionPending,
	})

	sponsor, err := s.users.GetUser(ctx, *buyer.ReferrerID)
	if err != nil {
		s.log.Error("failed to load sponsor for level 2 accrual", sl.Err(err))
		return
	}
	if sponsor.ReferrerID == nil {
		return
	}

	s.accrueOne(ctx, models.Commission{
		SubscriptionID: sub.ID,
		BeneficiaryID:  *sponsor.ReferrerID,
		FromUserID:     buyer.ID,
		Level:          2,
		Amount:         lvl2Amount,
		Status:         models.CommissionPending,
	})
}

func (s *ReferralService) accrueOne(ctx context.Context, c models.Commission) {
	if c.Amount.IsZero() {
		return
	}
	id, err := s.commissions.CreateCommission(ctx, c)
	if err != nil {
		s.log.Error("failed to create commission",
			slog.Int("level", c.Level), sl.Err(err))
		return
	}
	// Пустой id — повтор уже записанного начисления, уведомлять не надо.
	if id == "" {
		return
	}
	s.log.Info("commission accrued",
		slog.String("beneficiary", c.BeneficiaryID),
		slog.Int("level", c.Level),
		slog.String("amount", c.Amount.String()))

	if s.publisher == nil {
		return
	}
	err = s.publisher.Publish(events.RoutingCommissionAccrued, events.CommissionAccrued{
		CommissionID:  id,
		BeneficiaryID: c.BeneficiaryID,
		FromUserID:    c.FromUserID,
		Level:         c.Level,
		Amount:        c.Amount.String(),
	})
	if err != nil {
		s.log.Warn("failed to publish commission event", sl.Err(err))
	}
}

// Earnings возвращает комиссии пользователя и их суммы по статусам.
func (s *ReferralService) Earnings(ctx context.Context, userID string) ([]*models.Commission, *models.CommissionSum, error) {
	const op = "services.ReferralService.Earnings"

	list, err := s.commissions.ListCommissionsByBeneficiary(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	sum, err := s.commissions.SumCommissionsByBeneficiary(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, sum, nil
}

// RequestWithdrawal создает заявку на вывод. Сумма заявки не может
// превышать доступный остаток: все комиссии минус уже запрошенное.
func (s *ReferralService) RequestWithdrawal(ctx context.Context, userID string, req models.DummyWithdraw) (string, error) {
	const op = "services.ReferralService.RequestWithdrawal"

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return "", fmt.Errorf("%s: %w", op, apperrors.ErrInvalidInput)
	}

	earned, err := s.commissions.SumCommissionsByBeneficiary(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	requested, err := s.withdrawals.SumRequestedWithdrawals(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	available := earned.Pending.Add(earned.Paid).Sub(requested.Pending)
	if amount.GreaterThan(available) {
		return "", fmt.Errorf("%s: %w", op, apperrors.ErrInvalidInput)
	}

	id, err := s.withdrawals.CreateWithdrawal(ctx, models.Withdrawal{
		UserID:    userID,
		Amount:    amount,
		ToAddress: req.ToAddress,
		Status:    models.WithdrawalRequested,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("withdrawal requested",
		slog.String("user", userID),
		slog.String("amount", amount.String()))
	return id, nil
}

// SettleCommissions отмечает комиссии пользователя выплаченными на
// указанную сумму, старые первыми. Вызывается админом после фактической
// выплаты, которая проходит вне платформы. Возвращает число закрытых
// начислений.
func (s *ReferralService) SettleCommissions(ctx context.Context, userID string, req models.DummySettle) (int64, error) {
	const op = "services.ReferralService.SettleCommissions"

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return 0, fmt.Errorf("%s: %w", op, apperrors.ErrInvalidInput)
	}

	count, err := s.commissions.MarkCommissionsPaid(ctx, userID, amount)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("commissions settled",
		slog.String("user", userID),
		slog.String("amount", amount.String()),
		slog.Int64("count", count))
	return count, nil
}

// ListWithdrawals возвращает заявки пользователя.
func (s *ReferralService) ListWithdrawals(ctx context.Context, userID string) ([]*models.Withdrawal, error) {
	const op = "services.ReferralService.ListWithdrawals"

	list, err := s.withdrawals.ListWithdrawalsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Stats возвращает реферальную статистику пользователя.
func (s *ReferralService) Stats(ctx context.Context, userID string, counter ReferralCounter) (*models.ReferralStats, error) {
	const op = "services.ReferralService.Stats"

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	lvl1, lvl2, err := counter.CountReferrals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sum, err := s.commissions.SumCommissionsByBeneficiary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.ReferralStats{
		RefCode:       user.RefCode,
		Level1Count:   lvl1,
		Level2Count:   lvl2,
		PendingAmount: sum.Pending,
		PaidAmount:    sum.Paid,
	}, nil
}

// ReferralCounter считает рефералов пользователя по уровням.
type ReferralCounter interface {
	CountReferrals(ctx context.Context, id string) (level1, level2 int, err error)
}

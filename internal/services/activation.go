package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/apperrors"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/chainverify"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/events"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/sl"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/tokenamount"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

// Метка и срок планов, создаваемых активацией независимых пакетов.
const (
	independentPlanLabel    = "Independent package"
	independentDurationDays = 30
)

// ActivationStorage описывает операции хранилища, нужные активации.
type ActivationStorage interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetPlan(ctx context.Context, id string) (*models.Plan, error)
	UpsertPlanByName(ctx context.Context, name, description string, price decimal.Decimal, durationDays int) (*models.Plan, error)
	CreateSubscription(ctx context.Context, sub models.Subscription) (string, error)
	GetSubscriptionByTxHash(ctx context.Context, txHash string) (*models.Subscription, error)
	ListSubscriptionsByUser(ctx context.Context, userID string) ([]*models.Subscription, error)
}

// VerifierFactory собирает верификатор платежей под действующую
// конфигурацию сети.
type VerifierFactory func(cfg *models.PlatformConfig) (chainverify.Verifier, error)

// NewVerifier возвращает фабрику по умолчанию: EVM через JSON-RPC,
// TRON через HTTP-эксплорер.
func NewVerifier(log *slog.Logger) VerifierFactory {
	return func(cfg *models.PlatformConfig) (chainverify.Verifier, error) {
		switch cfg.PaymentNetwork {
		case models.NetworkTRON:
			return chainverify.NewTronVerifier(cfg.TronAPIURL, cfg.TronAPIKey, log), nil
		default:
			return chainverify.NewEVMVerifier(cfg.RPCURL, log)
		}
	}
}

// ActivationService проводит покупку подписки: сверяет платёж с данными
// блокчейна, записывает подписку и запускает реферальные начисления.
type ActivationService struct {
	storage     ActivationStorage
	configs     *ConfigService
	referrals   *ReferralService
	newVerifier VerifierFactory
	publisher   events.Publisher
	log         *slog.Logger
}

// NewActivationService создает новый экземпляр ActivationService.
func NewActivationService(storage ActivationStorage, configs *ConfigService,
	referrals *ReferralService, newVerifier VerifierFactory,
	publisher events.Publisher, log *slog.Logger) *ActivationService {
	return &ActivationService{
		storage:     storage,
		configs:     configs,
		referrals:   referrals,
		newVerifier: newVerifier,
		publisher:   publisher,
		log:         log,
	}
}

// ActivatePackage активирует независимый пакет: произвольная сумма,
// план-контейнер создаётся (или обновляется) по фиксированной метке.
func (s *ActivationService) ActivatePackage(ctx context.Context, userID string, req models.DummyActivate) (*models.Subscription, error) {
	const op = "services.ActivationService.ActivatePackage"

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrInvalidInput)
	}

	cfg, user, err := s.prepare(ctx, userID, req.TxHash)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.verify(ctx, cfg, *user.WalletAddress, req.TxHash, req.Amount); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Планом-контейнером служит запись с меткой пакета; её цена
	// обновляется последней покупкой.
	plan, err := s.storage.UpsertPlanByName(ctx, req.Label, independentPlanLabel,
		amount, independentDurationDays)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.record(ctx, cfg, user, plan, req.TxHash, amount)
}

// SubscribePlan покупает каталожный план: сумма платежа должна точно
// совпадать с ценой плана.
func (s *ActivationService) SubscribePlan(ctx context.Context, userID string, req models.DummySubscribe) (*models.Subscription, error) {
	const op = "services.ActivationService.SubscribePlan"

	cfg, user, err := s.prepare(ctx, userID, req.TxHash)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	plan, err := s.storage.GetPlan(ctx, req.PlanID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !plan.Active {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrPlanInactive)
	}

	if err := s.verify(ctx, cfg, *user.WalletAddress, req.TxHash, plan.Price.String()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.record(ctx, cfg, user, plan, req.TxHash, plan.Price)
}

// ListMine возвращает подписки пользователя.
func (s *ActivationService) ListMine(ctx context.Context, userID string) ([]*models.Subscription, error) {
	const op = "services.ActivationService.ListMine"

	list, err := s.storage.ListSubscriptionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// prepare проверяет готовность сервера к приёму платежей, наличие
// кошелька у покупателя и что tx_hash ещё не был использован. Повторную
// отправку обрываем до обращения к сети, уникальный индекс остаётся
// последним рубежом на случай гонки.
func (s *ActivationService) prepare(ctx context.Context, userID, txHash string) (*models.PlatformConfig, *models.User, error) {
	cfg, err := s.configs.Resolve(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !Configured(cfg) {
		return nil, nil, apperrors.ErrServerNotConfigured
	}

	user, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if user.WalletAddress == nil || *user.WalletAddress == "" {
		return nil, nil, apperrors.ErrWalletNotSet
	}

	existing, err := s.storage.GetSubscriptionByTxHash(ctx, txHash)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, apperrors.ErrConflict
	}
	return cfg, user, nil
}

// verify сверяет платёж с данными сети: перевод заявленной суммы токена
// с кошелька покупателя на казначейство в указанной транзакции.
func (s *ActivationService) verify(ctx context.Context, cfg *models.PlatformConfig, wallet, txHash, amount string) error {
	expected, err := tokenamount.ToSmallestUnit(amount, cfg.TokenDecimals)
	if err != nil {
		return apperrors.ErrInvalidInput
	}

	verifier, err := s.newVerifier(cfg)
	if err != nil {
		s.log.Error("failed to build payment verifier", sl.Err(err))
		return apperrors.ErrPaymentNotVerified
	}

	ok, err := verifier.VerifyTransfer(ctx, chainverify.VerifyRequest{
		TxHash:         txHash,
		TokenAddress:   cfg.TokenAddr,
		FromAddress:    wallet,
		ToAddress:      cfg.TreasuryAddr,
		ExpectedAmount: expected,
	})
	if err != nil {
		s.log.Error("payment verification failed", sl.Err(err))
		return apperrors.ErrPaymentNotVerified
	}
	if !ok {
		return apperrors.ErrPaymentNotVerified
	}
	return nil
}

// record пишет подписку и запускает посттранзакционные эффекты.
// Повтор с тем же tx_hash упирается в уникальный индекс и возвращает
// конфликт, платёж нельзя использовать дважды.
func (s *ActivationService) record(ctx context.Context, cfg *models.PlatformConfig,
	user *models.User, plan *models.Plan, txHash string, amount decimal.Decimal) (*models.Subscription, error) {
	now := time.Now().UTC()
	sub := models.Subscription{
		UserID:   user.ID,
		PlanID:   plan.ID,
		TxHash:   txHash,
		Amount:   amount,
		StartsAt: now,
		EndsAt:   now.AddDate(0, 0, plan.DurationDays),
		Active:   true,
	}

	id, err := s.storage.CreateSubscription(ctx, sub)
	if err != nil {
		return nil, err
	}
	sub.ID = id
	sub.CreatedAt = now

	s.log.Info("subscription activated",
		slog.String("user", user.ID),
		slog.String("plan", plan.Name),
		slog.String("tx_hash", txHash))

	s.referrals.Accrue(ctx, &sub, cfg)

	if s.publisher != nil {
		err := s.publisher.Publish(events.RoutingSubscriptionCreate, events.SubscriptionCreated{
			SubscriptionID: sub.ID,
			UserID:         sub.UserID,
			PlanID:         sub.PlanID,
			TxHash:         sub.TxHash,
			Amount:         sub.Amount.String(),
			EndsAt:         sub.EndsAt,
		})
		if err != nil {
			s.log.Warn("failed to publish subscription event", sl.Err(err))
		}
	}

	return &sub, nil
}

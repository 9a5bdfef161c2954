package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/apperrors"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/password"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/storage/repository"
)

// AdminStorage описывает операции хранилища для консоли администратора.
type AdminStorage interface {
	CreatePlan(ctx context.Context, plan models.Plan) (string, error)
	UpdatePlan(ctx context.Context, id string, patch models.DummyPlanPatch) (*models.Plan, error)
	DeletePlan(ctx context.Context, id string) error
	ListPlans(ctx context.Context, activeOnly bool) ([]*models.Plan, error)
	CountSubscriptionsByPlan(ctx context.Context, planID string) (int, error)

	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdateUser(ctx context.Context, id string, patch repository.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	CountFinancialHistory(ctx context.Context, id string) (int, error)
}

// AdminService обслуживает консоль администратора: каталог планов,
// пользователей и платёжные настройки.
type AdminService struct {
	storage AdminStorage
	configs *ConfigService
	log     *slog.Logger
}

// NewAdminService создает новый экземпляр AdminService.
func NewAdminService(storage AdminStorage, configs *ConfigService, log *slog.Logger) *AdminService {
	return &AdminService{
		storage: storage,
		configs: configs,
		log:     log,
	}
}

// CreatePlan создает план каталога.
func (s *AdminService) CreatePlan(ctx context.Context, req models.DummyPlan) (string, error) {
	const op = "services.AdminService.CreatePlan"

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return "", fmt.Errorf("%s: %w", op, apperrors.ErrInvalidInput)
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	id, err := s.storage.CreatePlan(ctx, models.Plan{
		Name:         req.Name,
		Description:  req.Description,
		Price:        price,
		DurationDays: req.DurationDays,
		Active:       active,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("plan created", slog.String("id", id), slog.String("name", req.Name))
	return id, nil
}

// UpdatePlan применяет частичное обновление плана.
func (s *AdminService) UpdatePlan(ctx context.Context, id string, patch models.DummyPlanPatch) (*models.Plan, error) {
	const op = "services.AdminService.UpdatePlan"

	plan, err := s.storage.UpdatePlan(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("plan updated", slog.String("id", id))
	return plan, nil
}

// DeletePlan удаляет план. План с оформленными подписками удалить
// нельзя, его следует деактивировать.
func (s *AdminService) DeletePlan(ctx context.Context, id string) error {
	const op = "services.AdminService.DeletePlan"

	count, err := s.storage.CountSubscriptionsByPlan(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if count > 0 {
		return fmt.Errorf("%s: %w", op, apperrors.ErrConflict)
	}
	if err := s.storage.DeletePlan(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("plan deleted", slog.String("id", id))
	return nil
}

// ListPlans возвращает планы каталога. Не-админ видит только активные.
func (s *AdminService) ListPlans(ctx context.Context, activeOnly bool) ([]*models.Plan, error) {
	const op = "services.AdminService.ListPlans"

	plans, err := s.storage.ListPlans(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plans, nil
}

// ListUsers возвращает пользователей с пагинацией.
func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "services.AdminService.ListUsers"

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.storage.ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// UpdateUser применяет частичное обновление пользователя: имя, роль,
// кошелёк, пароль. Новый пароль хэшируется, адрес кошелька
// нормализуется как при самостоятельной привязке.
func (s *AdminService) UpdateUser(ctx context.Context, id string, req models.DummyUserPatch) (*models.User, error) {
	const op = "services.AdminService.UpdateUser"

	if req.Role != nil && *req.Role != models.RoleUser && *req.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrInvalidInput)
	}

	patch := repository.UserPatch{
		Name:        req.Name,
		Role:        req.Role,
		ClearWallet: req.ClearWallet,
	}
	if req.Wallet != nil && !req.ClearWallet {
		normalized, err := NormalizeWalletAddress(*req.Wallet)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, apperrors.ErrInvalidInput)
		}
		patch.Wallet = &normalized
	}
	if req.Password != nil {
		hashed, err := password.GetHash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		patch.PasswordHash = &hashed
	}

	user, err := s.storage.UpdateUser(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user updated", slog.String("id", id))
	return user, nil
}

// DeleteUser удаляет пользователя. Пользователь с финансовой историей
// не удаляется, чтобы не рвать учёт комиссий.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	const op = "services.AdminService.DeleteUser"

	count, err := s.storage.CountFinancialHistory(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if count > 0 {
		return fmt.Errorf("%s: %w", op, apperrors.ErrConflict)
	}
	if err := s.storage.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user deleted", slog.String("id", id))
	return nil
}

// GetSettings возвращает действующие платёжные настройки.
func (s *AdminService) GetSettings(ctx context.Context) (*models.PlatformConfig, error) {
	return s.configs.Resolve(ctx)
}

// UpdateSettings применяет патч платёжных настроек.
func (s *AdminService) UpdateSettings(ctx context.Context, patch models.DummyConfigPatch) (*models.PlatformConfig, error) {
	return s.configs.Update(ctx, patch)
}

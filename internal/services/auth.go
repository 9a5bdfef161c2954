package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/apperrors"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/jwt"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/password"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/refcode"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

// Сколько раз перегенерировать реферальный код при коллизии.
const refCodeRetries = 5

// AuthUserRepository описывает операции хранилища для аутентификации.
type AuthUserRepository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByRefCode(ctx context.Context, refCode string) (*models.User, error)
	UpdateWalletAddress(ctx context.Context, id string, address *string) error
}

// AuthService реализует регистрацию, вход по паролю и привязку кошелька.
type AuthService struct {
	users    AuthUserRepository
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users AuthUserRepository, jwtMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Signup регистрирует пользователя. Реферальный код пригласившего
// необязателен; неизвестный код не ломает регистрацию, а просто
// игнорируется. Email нормализуется к нижнему регистру.
func (s *AuthService) Signup(ctx context.Context, req models.DummySignup) (string, error) {
	const op = "services.AuthService.Signup"

	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var referrerID *string
	if req.Ref != "" {
		referrer, err := s.users.GetUserByRefCode(ctx, req.Ref)
		if err == nil {
			referrerID = &referrer.ID
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	user := models.User{
		Name:         req.Name,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hashed,
		Role:         models.RoleUser,
		ReferrerID:   referrerID,
	}

	// Коллизия ref_code крайне маловероятна, но уникальный индекс
	// честный: перегенерируем код и пробуем снова.
	var id string
	for range refCodeRetries {
		user.RefCode, err = refcode.Generate()
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		id, err = s.users.CreateUser(ctx, user)
		if err == nil {
			break
		}
		if errors.Is(err, apperrors.ErrConflict) {
			if _, refErr := s.users.GetUserByRefCode(ctx, user.RefCode); refErr == nil {
				continue
			}
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if id == "" {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user registered", slog.String("id", id))
	return id, nil
}

// Login проверяет пароль и возвращает JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	const op = "services.AuthService.Login"

	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", nil, fmt.Errorf("%s: %w", op, apperrors.ErrUnauthenticated)
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, apperrors.ErrUnauthenticated)
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

// Me возвращает профиль пользователя по его ID.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	const op = "services.AuthService.Me"

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, apperrors.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// SetWallet сохраняет адрес кошелька пользователя. Пустой адрес
// отвязывает кошелёк, непустой нормализуется: EVM-адрес приводится
// к нижнему регистру, TRON-адрес проверяется по префиксу и длине.
func (s *AuthService) SetWallet(ctx context.Context, userID, address string) error {
	const op = "services.AuthService.SetWallet"

	var addr *string
	if trimmed := strings.TrimSpace(address); trimmed != "" {
		normalized, err := NormalizeWalletAddress(trimmed)
		if err != nil {
			return fmt.Errorf("%s: %w", op, apperrors.ErrInvalidInput)
		}
		addr = &normalized
	}
	if err := s.users.UpdateWalletAddress(ctx, userID, addr); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("wallet address updated", slog.String("user", userID))
	return nil
}

var (
	evmAddressRe  = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	tronAddressRe = regexp.MustCompile(`^T[1-9A-HJ-NP-Za-km-z]{33}$`)
)

// NormalizeWalletAddress валидирует адрес кошелька и приводит его
// к каноническому виду. EVM-адреса хранятся в нижнем регистре,
// TRON-адреса регистрозависимы и сохраняются как есть.
func NormalizeWalletAddress(address string) (string, error) {
	switch {
	case evmAddressRe.MatchString(address):
		return strings.ToLower(address), nil
	case tronAddressRe.MatchString(address):
		return address, nil
	default:
		return "", apperrors.ErrInvalidInput
	}
}

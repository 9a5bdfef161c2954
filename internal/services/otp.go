package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/apperrors"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/jwt"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/password"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/sl"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

// Время жизни одноразового кода.
const otpTTL = 10 * time.Minute

// OtpRepository хранит одноразовые коды.
type OtpRepository interface {
	CreateOtp(ctx context.Context, email, purpose, code string, expiresAt time.Time) error
	ConsumeOtp(ctx context.Context, email, purpose, code string) error
}

// OtpSender отправляет код пользователю.
type OtpSender interface {
	SendOtpCode(email, code string) error
}

// OtpService выдаёт и проверяет одноразовые коды входа. Успешная
// проверка завершает вход и возвращает JWT.
type OtpService struct {
	otps     OtpRepository
	users    AuthUserRepository
	sender   OtpSender
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewOtpService создает новый экземпляр OtpService.
func NewOtpService(otps OtpRepository, users AuthUserRepository,
	sender OtpSender, jwtMaker jwt.Maker, log *slog.Logger) *OtpService {
	return &OtpService{
		otps:     otps,
		users:    users,
		sender:   sender,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Request проверяет пароль и отправляет код на почту. Для несуществующего
// адреса или неверного пароля возвращается ErrUnauthenticated без
// уточнения причины.
func (s *OtpService) Request(ctx context.Context, req models.DummyRequestOtp) error {
	const op = "services.OtpService.Request"

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, apperrors.ErrUnauthenticated)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, req.Password); err != nil {
		return fmt.Errorf("%s: %w", op, apperrors.ErrUnauthenticated)
	}

	code, err := generateOtpCode()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.otps.CreateOtp(ctx, email, req.Purpose, code, time.Now().Add(otpTTL)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.sender.SendOtpCode(email, code); err != nil {
		s.log.Error("failed to send otp email", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("otp code sent", slog.String("purpose", req.Purpose))
	return nil
}

// Verify гасит код и возвращает JWT. Код принимается один раз.
func (s *OtpService) Verify(ctx context.Context, req models.DummyVerifyOtp) (string, *models.User, error) {
	const op = "services.OtpService.Verify"

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.otps.ConsumeOtp(ctx, email, req.Purpose, req.Code); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", nil, fmt.Errorf("%s: %w", op, apperrors.ErrUnauthenticated)
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("otp verified", slog.String("user", user.ID))
	return token, user, nil
}

// generateOtpCode возвращает криптослучайный шестизначный код
// с ведущими нулями.
func generateOtpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/apperrors"
)

// CreateOtp сохраняет одноразовый код для адреса и цели.
func (s *Storage) CreateOtp(ctx context.Context, email, purpose, code string, expiresAt time.Time) error {
	const op = "storage.CreateOtp"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO otp_codes (email, purpose, code, expires_at)
			  VALUES ($1, $2, $3, $4)`
	if _, err := s.DB.ExecContext(ctx, query, email, purpose, code, expiresAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ConsumeOtp атомарно гасит последний подходящий код. Код принимается
// один раз; просроченный или уже использованный вернет ErrUnauthenticated.
func (s *Storage) ConsumeOtp(ctx context.Context, email, purpose, code string) error {
	const op = "storage.ConsumeOtp"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE otp_codes SET consumed_at = NOW()
			  WHERE id = (
				SELECT id FROM otp_codes
				WHERE email = $1 AND purpose = $2 AND code = $3
				  AND consumed_at IS NULL AND expires_at > NOW()
				ORDER BY created_at DESC
				LIMIT 1
			  )
			  RETURNING id`
	var id string
	err := s.DB.QueryRowContext(ctx, query, email, purpose, code).Scan(&id)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%s: %w", op, apperrors.ErrUnauthenticated)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteExpiredOtps подчищает просроченные коды. Возвращает число строк.
func (s *Storage) DeleteExpiredOtps(ctx context.Context) (int64, error) {
	const op = "storage.DeleteExpiredOtps"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM otp_codes WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}

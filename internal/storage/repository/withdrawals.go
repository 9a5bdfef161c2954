package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

// CreateWithdrawal сохраняет заявку на вывод и возвращает ее ID.
func (s *Storage) CreateWithdrawal(ctx context.Context, w models.Withdrawal) (string, error) {
	const op = "storage.CreateWithdrawal"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO withdrawals (user_id, amount, to_address, status)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	var newID string
	if err := s.DB.QueryRowContext(ctx, query,
		w.UserID, w.Amount, w.ToAddress, w.Status).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListWithdrawalsByUser возвращает заявки пользователя, новые первыми.
func (s *Storage) ListWithdrawalsByUser(ctx context.Context, userID string) ([]*models.Withdrawal, error) {
	const op = "storage.ListWithdrawalsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, amount, to_address, status, created_at
			  FROM withdrawals
			  WHERE user_id = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Withdrawal
	for rows.Next() {
		w := &models.Withdrawal{}
		if err := rows.Scan(&w.ID, &w.UserID, &w.Amount, &w.ToAddress, &w.Status, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SumRequestedWithdrawals возвращает сумму заявок пользователя,
// еще не отклоненных администратором.
func (s *Storage) SumRequestedWithdrawals(ctx context.Context, userID string) (*models.CommissionSum, error) {
	const op = "storage.SumRequestedWithdrawals"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
				COALESCE(SUM(amount) FILTER (WHERE status <> $2), 0),
				COALESCE(SUM(amount) FILTER (WHERE status = $3), 0)
			  FROM withdrawals
			  WHERE user_id = $1`
	sum := &models.CommissionSum{}
	if err := s.DB.QueryRowContext(ctx, query,
		userID, models.WithdrawalRejected, models.WithdrawalPaid).
		Scan(&sum.Pending, &sum.Paid); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sum, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

// CreateCommission начисляет реферальную комиссию и возвращает её id.
// Повторное начисление того же уровня по той же подписке пропускается,
// в этом случае id пустой. Метод безопасен при повторах.
func (s *Storage) CreateCommission(ctx context.Context, c models.Commission) (string, error) {
	const op = "storage.CreateCommission"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO commissions (subscription_id, beneficiary_id, from_user_id, level, amount, status)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (subscription_id, level) DO NOTHING
			  RETURNING id`
	var id string
	err := s.DB.QueryRowContext(ctx, query,
		c.SubscriptionID, c.BeneficiaryID, c.FromUserID, c.Level, c.Amount, c.Status).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListCommissionsByBeneficiary возвращает комиссии получателя, новые первыми.
func (s *Storage) ListCommissionsByBeneficiary(ctx context.Context, beneficiaryID string) ([]*models.Commission, error) {
	const op = "storage.ListCommissionsByBeneficiary"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, subscription_id, beneficiary_id, from_user_id, level, amount, status, created_at
			  FROM commissions
			  WHERE beneficiary_id = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, beneficiaryID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Commission
	for rows.Next() {
		c := &models.Commission{}
		if err := rows.Scan(&c.ID, &c.SubscriptionID, &c.BeneficiaryID, &c.FromUserID,
			&c.Level, &c.Amount, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SumCommissionsByBeneficiary возвращает суммы комиссий получателя
// в разрезе статусов.
func (s *Storage) SumCommissionsByBeneficiary(ctx context.Context, beneficiaryID string) (*models.CommissionSum, error) {
	const op = "storage.SumCommissionsByBeneficiary"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
				COALESCE(SUM(amount) FILTER (WHERE status = $2), 0),
				COALESCE(SUM(amount) FILTER (WHERE status = $3), 0)
			  FROM commissions
			  WHERE beneficiary_id = $1`
	sum := &models.CommissionSum{}
	if err := s.DB.QueryRowContext(ctx, query,
		beneficiaryID, models.CommissionPending, models.CommissionPaid).
		Scan(&sum.Pending, &sum.Paid); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sum, nil
}

// MarkCommissionsPaid переводит ожидающие комиссии получателя в статус PAID
// на заданную сумму. Возвращает число обновленных строк.
func (s *Storage) MarkCommissionsPaid(ctx context.Context, beneficiaryID string, upTo decimal.Decimal) (int64, error) {
	const op = "storage.MarkCommissionsPaid"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE commissions SET status = $3
			  WHERE id IN (
				SELECT id FROM (
					SELECT id, SUM(amount) OVER (ORDER BY created_at, id) AS running
					FROM commissions
					WHERE beneficiary_id = $1 AND status = $2
				) t
				WHERE t.running <= $4
			  )`
	result, err := s.DB.ExecContext(ctx, query,
		beneficiaryID, models.CommissionPending, models.CommissionPaid, upTo)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}

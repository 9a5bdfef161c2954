package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/apperrors"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

const planColumns = `id, name, description, price, duration_days, active, created_at`

func scanPlan(row *sql.Row) (*models.Plan, error) {
	p := &models.Plan{}
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price,
		&p.DurationDays, &p.Active, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePlan сохраняет новый план и возвращает его ID.
func (s *Storage) CreatePlan(ctx context.Context, plan models.Plan) (string, error) {
	const op = "storage.CreatePlan"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO plans (name, description, price, duration_days, active)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	var newID string
	if err := s.DB.QueryRowContext(ctx, query,
		plan.Name, plan.Description, plan.Price, plan.DurationDays, plan.Active).Scan(&newID); err != nil {
		return "", wrapConflict(op, err)
	}
	return newID, nil
}

// GetPlan возвращает план по его ID.
func (s *Storage) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	const op = "storage.GetPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM plans WHERE id = $1`, id)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrPlanNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// UpsertPlanByName создает план с заданной меткой или обновляет цену
// существующего. Так независимые пакеты единообразно представлены
// планами и попадают в каталог подписок.
func (s *Storage) UpsertPlanByName(ctx context.Context, name, description string,
	price decimal.Decimal, durationDays int) (*models.Plan, error) {
	const op = "storage.UpsertPlanByName"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO plans (name, description, price, duration_days, active)
			  VALUES ($1, $2, $3, $4, TRUE)
			  ON CONFLICT (name) DO UPDATE SET price = EXCLUDED.price
			  RETURNING ` + planColumns
	row := s.DB.QueryRowContext(ctx, query, name, description, price, durationDays)
	p, err := scanPlan(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// UpdatePlan применяет частичное обновление плана и возвращает его.
func (s *Storage) UpdatePlan(ctx context.Context, id string, patch models.DummyPlanPatch) (*models.Plan, error) {
	const op = "storage.UpdatePlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var price *decimal.Decimal
	if patch.Price != nil {
		parsed, err := decimal.NewFromString(*patch.Price)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, apperrors.ErrInvalidInput)
		}
		price = &parsed
	}

	query := `UPDATE plans SET
				name = COALESCE($1, name),
				description = COALESCE($2, description),
				price = COALESCE($3, price),
				duration_days = COALESCE($4, duration_days),
				active = COALESCE($5, active)
			  WHERE id = $6
			  RETURNING ` + planColumns
	row := s.DB.QueryRowContext(ctx, query,
		patch.Name, patch.Description, price, patch.DurationDays, patch.Active, id)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrPlanNotFound)
	}
	if err != nil {
		return nil, wrapConflict(op, err)
	}
	return p, nil
}

// DeletePlan удаляет план по ID.
func (s *Storage) DeletePlan(ctx context.Context, id string) error {
	const op = "storage.DeletePlan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, apperrors.ErrPlanNotFound)
	}
	return nil
}

// ListPlans возвращает планы, новые первыми. При activeOnly
// возвращаются только доступные для покупки.
func (s *Storage) ListPlans(ctx context.Context, activeOnly bool) ([]*models.Plan, error) {
	const op = "storage.ListPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + ` FROM plans`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Plan
	for rows.Next() {
		p := &models.Plan{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price,
			&p.DurationDays, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountSubscriptionsByPlan подсчитывает подписки, ссылающиеся на план.
// Используется для предварительной проверки перед удалением.
func (s *Storage) CountSubscriptionsByPlan(ctx context.Context, planID string) (int, error) {
	const op = "storage.CountSubscriptionsByPlan"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE plan_id = $1`, planID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

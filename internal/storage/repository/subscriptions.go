package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

// CreateSubscription сохраняет новую подписку и возвращает ее ID.
// Повторная активация с тем же tx_hash возвращает ErrConflict.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (string, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_id, plan_id, tx_hash, amount, starts_at, ends_at, active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID string
	if err := s.DB.QueryRowContext(ctx, query,
		sub.UserID, sub.PlanID, sub.TxHash, sub.Amount,
		sub.StartsAt, sub.EndsAt, sub.Active).Scan(&newID); err != nil {
		return "", wrapConflict(op, err)
	}
	return newID, nil
}

// ListSubscriptionsByUser возвращает подписки пользователя, новые первыми.
func (s *Storage) ListSubscriptionsByUser(ctx context.Context, userID string) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptionsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, plan_id, tx_hash, amount, starts_at, ends_at, active, created_at
			  FROM subscriptions
			  WHERE user_id = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Subscription
	for rows.Next() {
		sub := &models.Subscription{}
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.TxHash,
			&sub.Amount, &sub.StartsAt, &sub.EndsAt, &sub.Active, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListSponsorVolumes возвращает агрегированные объёмы покупок за период
// по спонсорам первого и второго уровня, в токене. Спонсоры без покупок
// в периоде не попадают в выборку, число рефералов считается по
// уникальным покупателям периода, сортировка по прямому объёму.
func (s *Storage) ListSponsorVolumes(ctx context.Context, from, to time.Time, limit int) ([]*models.SponsorVolumeRow, error) {
	const op = "storage.ListSponsorVolumes"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `WITH purchases AS (
				SELECT sub.amount,
					   sub.user_id AS buyer_id,
					   buyer.referrer_id AS sponsor1,
					   sp1.referrer_id AS sponsor2
				FROM subscriptions sub
				JOIN users buyer ON buyer.id = sub.user_id
				LEFT JOIN users sp1 ON sp1.id = buyer.referrer_id
				WHERE sub.created_at >= $1 AND sub.created_at <= $2
				  AND buyer.referrer_id IS NOT NULL
			  ),
			  direct AS (
				SELECT sponsor1 AS sponsor_id,
					   SUM(amount) AS vol,
					   COUNT(DISTINCT buyer_id) AS refs
				FROM purchases GROUP BY sponsor1
			  ),
			  second AS (
				SELECT sponsor2 AS sponsor_id, SUM(amount) AS vol
				FROM purchases WHERE sponsor2 IS NOT NULL GROUP BY sponsor2
			  )
			  SELECT u.id,
					 COALESCE(u.wallet_address, u.email),
					 COALESCE(d.refs, 0),
					 COALESCE(d.vol, 0),
					 COALESCE(d.vol, 0) + COALESCE(s2.vol, 0)
			  FROM users u
			  LEFT JOIN direct d ON d.sponsor_id = u.id
			  LEFT JOIN second s2 ON s2.sponsor_id = u.id
			  WHERE d.sponsor_id IS NOT NULL OR s2.sponsor_id IS NOT NULL
			  ORDER BY 4 DESC
			  LIMIT $3`
	rows, err := s.DB.QueryContext(ctx, query, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.SponsorVolumeRow
	for rows.Next() {
		v := &models.SponsorVolumeRow{}
		if err := rows.Scan(&v.SponsorID, &v.Address, &v.Referrals,
			&v.VolumeDirect, &v.VolumeTwoLvl); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetSubscriptionByTxHash возвращает подписку по хэшу транзакции.
func (s *Storage) GetSubscriptionByTxHash(ctx context.Context, txHash string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionByTxHash"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, plan_id, tx_hash, amount, starts_at, ends_at, active, created_at
			  FROM subscriptions
			  WHERE tx_hash = $1`
	sub := &models.Subscription{}
	err := s.DB.QueryRowContext(ctx, query, txHash).Scan(&sub.ID, &sub.UserID, &sub.PlanID,
		&sub.TxHash, &sub.Amount, &sub.StartsAt, &sub.EndsAt, &sub.Active, &sub.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

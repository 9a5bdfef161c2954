package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/apperrors"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

// CreateUser сохраняет нового пользователя и возвращает его ID.
// Нарушение уникальности email или ref_code возвращается как ErrConflict.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (name, email, password_hash, role, ref_code, referrer_id)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID string
	if err := s.DB.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Role, user.RefCode,
		user.ReferrerID).Scan(&newID); err != nil {
		return "", wrapConflict(op, err)
	}
	return newID, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var wallet, referrer sql.NullString
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&wallet, &u.RefCode, &referrer, &u.CreatedAt); err != nil {
		return nil, err
	}
	if wallet.Valid {
		u.WalletAddress = &wallet.String
	}
	if referrer.Valid {
		u.ReferrerID = &referrer.String
	}
	return u, nil
}

const userColumns = `id, name, email, password_hash, role, wallet_address, ref_code, referrer_id, created_at`

// GetUser возвращает пользователя по его ID.
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByRefCode возвращает пользователя по его реферальному коду.
func (s *Storage) GetUserByRefCode(ctx context.Context, refCode string) (*models.User, error) {
	const op = "storage.GetUserByRefCode"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE ref_code = $1`, refCode)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateWalletAddress сохраняет (или очищает) адрес кошелька пользователя.
func (s *Storage) UpdateWalletAddress(ctx context.Context, id string, address *string) error {
	const op = "storage.UpdateWalletAddress"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE users SET wallet_address = $1 WHERE id = $2`, address, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}
	return nil
}

// UserPatch частичное обновление пользователя админом.
// nil-поля не трогаются; ClearWallet очищает адрес кошелька.
type UserPatch struct {
	Name         *string
	Role         *string
	Wallet       *string
	ClearWallet  bool
	PasswordHash *string
}

// UpdateUser применяет частичное обновление и возвращает пользователя.
func (s *Storage) UpdateUser(ctx context.Context, id string, patch UserPatch) (*models.User, error) {
	const op = "storage.UpdateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET
				name = COALESCE($1, name),
				role = COALESCE($2, role),
				password_hash = COALESCE($3, password_hash),
				wallet_address = CASE WHEN $4 THEN NULL ELSE COALESCE($5, wallet_address) END
			  WHERE id = $6`
	result, err := s.DB.ExecContext(ctx, query,
		patch.Name, patch.Role, patch.PasswordHash, patch.ClearWallet, patch.Wallet, id)
	if err != nil {
		return nil, wrapConflict(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}
	return s.GetUser(ctx, id)
}

// ListUsers возвращает пользователей с пагинацией, новые первыми.
func (s *Storage) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u := &models.User{}
		var wallet, referrer sql.NullString
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
			&wallet, &u.RefCode, &referrer, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if wallet.Valid {
			u.WalletAddress = &wallet.String
		}
		if referrer.Valid {
			u.ReferrerID = &referrer.String
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeleteUser удаляет пользователя по ID.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	const op = "storage.DeleteUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}
	return nil
}

// CountFinancialHistory подсчитывает финансовые записи пользователя:
// подписки, заявки на вывод и комиссии с обеих сторон. Пользователя
// с ненулевой историей удалять нельзя.
func (s *Storage) CountFinancialHistory(ctx context.Context, id string) (int, error) {
	const op = "storage.CountFinancialHistory"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
				(SELECT COUNT(*) FROM subscriptions WHERE user_id = $1) +
				(SELECT COUNT(*) FROM withdrawals WHERE user_id = $1) +
				(SELECT COUNT(*) FROM commissions WHERE beneficiary_id = $1 OR from_user_id = $1)`
	var total int
	if err := s.DB.QueryRowContext(ctx, query, id).Scan(&total); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

// CountReferrals возвращает количество прямых рефералов и рефералов
// второго уровня.
func (s *Storage) CountReferrals(ctx context.Context, id string) (level1, level2 int, err error) {
	const op = "storage.CountReferrals"
	select {
	case <-ctx.Done():
		return 0, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
				(SELECT COUNT(*) FROM users WHERE referrer_id = $1),
				(SELECT COUNT(*) FROM users WHERE referrer_id IN
					(SELECT id FROM users WHERE referrer_id = $1))`
	if err := s.DB.QueryRowContext(ctx, query, id).Scan(&level1, &level2); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return level1, level2, nil
}

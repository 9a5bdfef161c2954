package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

const appConfigColumns = `id, treasury_address, token_address, token_decimals, currency_symbol,
			level1_bps, level2_bps, payment_network, chain_id, rpc_url, tron_api_key`

func scanAppConfig(row *sql.Row) (*models.AppConfig, error) {
	c := &models.AppConfig{}
	if err := row.Scan(&c.ID, &c.TreasuryAddr, &c.TokenAddr, &c.TokenDecimals,
		&c.CurrencySymbol, &c.Level1Bps, &c.Level2Bps, &c.PaymentNetwork,
		&c.ChainID, &c.RPCURL, &c.TronAPIKey); err != nil {
		return nil, err
	}
	return c, nil
}

// GetAppConfig возвращает строку настроек платформы, либо nil, если
// администратор их еще не сохранял.
func (s *Storage) GetAppConfig(ctx context.Context) (*models.AppConfig, error) {
	const op = "storage.GetAppConfig"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+appConfigColumns+` FROM app_config ORDER BY created_at LIMIT 1`)
	c, err := scanAppConfig(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// CreateDefaultAppConfig создает строку настроек со значениями по
// умолчанию и возвращает ее.
func (s *Storage) CreateDefaultAppConfig(ctx context.Context) (*models.AppConfig, error) {
	const op = "storage.CreateDefaultAppConfig"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx,
		`INSERT INTO app_config DEFAULT VALUES RETURNING `+appConfigColumns)
	c, err := scanAppConfig(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// UpdateAppConfig применяет частичное обновление настроек платформы.
// Строка создается при первом обновлении.
func (s *Storage) UpdateAppConfig(ctx context.Context, patch models.DummyConfigPatch) (*models.AppConfig, error) {
	const op = "storage.UpdateAppConfig"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	current, err := s.GetAppConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if current == nil {
		current, err = s.CreateDefaultAppConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	query := `UPDATE app_config SET
				treasury_address = COALESCE($1, treasury_address),
				token_address = COALESCE($2, token_address),
				token_decimals = COALESCE($3, token_decimals),
				currency_symbol = COALESCE($4, currency_symbol),
				level1_bps = COALESCE($5, level1_bps),
				level2_bps = COALESCE($6, level2_bps),
				payment_network = COALESCE($7, payment_network),
				chain_id = COALESCE($8, chain_id),
				rpc_url = COALESCE($9, rpc_url),
				tron_api_key = COALESCE($10, tron_api_key)
			  WHERE id = $11
			  RETURNING ` + appConfigColumns
	row := s.DB.QueryRowContext(ctx, query,
		patch.TreasuryAddr, patch.TokenAddr, patch.TokenDecimals,
		patch.CurrencySymbol, patch.Level1Bps, patch.Level2Bps,
		patch.PaymentNetwork, patch.ChainID, patch.RPCURL, patch.TronAPIKey,
		current.ID)
	c, err := scanAppConfig(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

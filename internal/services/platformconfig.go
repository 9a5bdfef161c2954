// Package services содержит бизнес-логику платформы: аутентификацию,
// активацию подписок, реферальные начисления, лидерборд и админку.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/config"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/sl"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

const platformConfigCacheKey = "platform:config"

// AppConfigRepository описывает доступ к строке настроек платформы.
type AppConfigRepository interface {
	GetAppConfig(ctx context.Context) (*models.AppConfig, error)
	UpdateAppConfig(ctx context.Context, patch models.DummyConfigPatch) (*models.AppConfig, error)
}

// Cache описывает JSON-кеш с временем жизни записей.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// ConfigService отдаёт разрешённую платёжную конфигурацию: строка из
// базы закрывается фолбэками окружения, результат кешируется.
type ConfigService struct {
	repo     AppConfigRepository
	cache    Cache
	defaults config.PaymentDefaults
	log      *slog.Logger
}

// NewConfigService создает новый экземпляр ConfigService.
func NewConfigService(repo AppConfigRepository, cache Cache,
	defaults config.PaymentDefaults, log *slog.Logger) *ConfigService {
	return &ConfigService{
		repo:     repo,
		cache:    cache,
		defaults: defaults,
		log:      log,
	}
}

// Resolve возвращает действующую платёжную конфигурацию.
func (s *ConfigService) Resolve(ctx context.Context) (*models.PlatformConfig, error) {
	const op = "services.ConfigService.Resolve"

	var cached models.PlatformConfig
	found, err := s.cache.Get(ctx, platformConfigCacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read config cache", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	row, err := s.repo.GetAppConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resolved := s.merge(row)
	if err := s.cache.Set(ctx, platformConfigCacheKey, resolved, time.Minute); err != nil {
		s.log.Warn("failed to cache config", sl.Err(err))
	}
	return resolved, nil
}

// Update применяет патч админа, зажимая доли комиссий в [0, 10000],
// и инвалидирует кеш.
func (s *ConfigService) Update(ctx context.Context, patch models.DummyConfigPatch) (*models.PlatformConfig, error) {
	const op = "services.ConfigService.Update"

	clampBps(patch.Level1Bps)
	clampBps(patch.Level2Bps)
	if patch.CurrencySymbol != nil {
		upper := strings.ToUpper(strings.TrimSpace(*patch.CurrencySymbol))
		patch.CurrencySymbol = &upper
	}

	row, err := s.repo.UpdateAppConfig(ctx, patch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Invalidate(ctx, platformConfigCacheKey); err != nil {
		s.log.Warn("failed to invalidate config cache", sl.Err(err))
	}
	s.log.Info("platform config updated", slog.String("network", row.PaymentNetwork))
	return s.merge(row), nil
}

func clampBps(v *int) {
	if v == nil {
		return
	}
	if *v < 0 {
		*v = 0
	}
	if *v > 10000 {
		*v = 10000
	}
}

// merge закрывает пустые поля строки фолбэками окружения. Отсутствие
// строки целиком означает работу только на фолбэках.
func (s *ConfigService) merge(row *models.AppConfig) *models.PlatformConfig {
	resolved := &models.PlatformConfig{
		TreasuryAddr:   s.defaults.TreasuryAddress,
		TokenAddr:      s.defaults.TokenAddress,
		TokenDecimals:  s.defaults.TokenDecimals,
		CurrencySymbol: s.defaults.CurrencySymbol,
		Level1Bps:      s.defaults.Level1Bps,
		Level2Bps:      s.defaults.Level2Bps,
		PaymentNetwork: s.defaults.PaymentNetwork,
		RPCURL:         s.defaults.RPCURL,
		TronAPIURL:     s.defaults.TronAPIURL,
		TronAPIKey:     s.defaults.TronAPIKey,
		UsdPerToken:    s.defaults.UsdPerToken,
	}
	if row == nil {
		return resolved
	}

	if row.TreasuryAddr != nil && *row.TreasuryAddr != "" {
		resolved.TreasuryAddr = *row.TreasuryAddr
	}
	if row.TokenAddr != nil && *row.TokenAddr != "" {
		resolved.TokenAddr = *row.TokenAddr
	}
	resolved.TokenDecimals = row.TokenDecimals
	if row.CurrencySymbol != "" {
		resolved.CurrencySymbol = row.CurrencySymbol
	}
	resolved.Level1Bps = row.Level1Bps
	resolved.Level2Bps = row.Level2Bps
	if row.PaymentNetwork != "" {
		resolved.PaymentNetwork = row.PaymentNetwork
	}
	if row.ChainID != nil {
		resolved.ChainID = *row.ChainID
	}
	if row.RPCURL != nil && *row.RPCURL != "" {
		resolved.RPCURL = *row.RPCURL
	}
	if row.TronAPIKey != nil && *row.TronAPIKey != "" {
		resolved.TronAPIKey = *row.TronAPIKey
	}
	return resolved
}

// Configured сообщает, достаточно ли конфигурации для приёма платежей.
func Configured(cfg *models.PlatformConfig) bool {
	if cfg.TreasuryAddr == "" || cfg.TokenAddr == "" {
		return false
	}
	switch cfg.PaymentNetwork {
	case models.NetworkEVM:
		return cfg.RPCURL != ""
	case models.NetworkTRON:
		return cfg.TronAPIURL != ""
	default:
		return false
	}
}

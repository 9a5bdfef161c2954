package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/month"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/sl"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

const leaderboardLimit = 50

// LeaderboardRepository читает объёмы покупок по спонсорам.
type LeaderboardRepository interface {
	ListSponsorVolumes(ctx context.Context, from, to time.Time, limit int) ([]*models.SponsorVolumeRow, error)
}

// LeaderboardService строит месячный рейтинг спонсоров по объёму
// покупок их рефералов, в USD по настроенному курсу токена.
type LeaderboardService struct {
	repo    LeaderboardRepository
	configs *ConfigService
	cache   Cache
	log     *slog.Logger
}

// NewLeaderboardService создает новый экземпляр LeaderboardService.
func NewLeaderboardService(repo LeaderboardRepository, configs *ConfigService,
	cache Cache, log *slog.Logger) *LeaderboardService {
	return &LeaderboardService{
		repo:    repo,
		configs: configs,
		cache:   cache,
		log:     log,
	}
}

// Monthly возвращает рейтинг за календарный месяц, в который попадает at.
func (s *LeaderboardService) Monthly(ctx context.Context, at time.Time) ([]*models.SponsorVolume, error) {
	const op = "services.LeaderboardService.Monthly"

	from, to := month.Bounds(at)
	cacheKey := fmt.Sprintf("leaderboard:%s", from.Format("2006-01"))

	var cached []*models.SponsorVolume
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read leaderboard cache", sl.Err(err))
	}
	if found {
		return cached, nil
	}

	cfg, err := s.configs.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.repo.ListSponsorVolumes(ctx, from, to, leaderboardLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rate := decimal.NewFromFloat(cfg.UsdPerToken)
	result := make([]*models.SponsorVolume, 0, len(rows))
	for _, row := range rows {
		direct, _ := row.VolumeDirect.Mul(rate).Float64()
		twoLvl, _ := row.VolumeTwoLvl.Mul(rate).Float64()
		result = append(result, &models.SponsorVolume{
			SponsorID:       row.SponsorID,
			Address:         row.Address,
			Referrals:       row.Referrals,
			VolumeDirectUsd: direct,
			VolumeTwoLvlUsd: twoLvl,
		})
	}

	if err := s.cache.Set(ctx, cacheKey, result, 5*time.Minute); err != nil {
		s.log.Warn("failed to cache leaderboard", sl.Err(err))
	}
	return result, nil
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/config"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/models"
)

func TestLeaderboard_Monthly_ConvertsToUsd(t *testing.T) {
	at := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	storage := new(StorageMock)
	storage.On("GetAppConfig", mock.Anything).Return(nil, nil)
	storage.On("ListSponsorVolumes", mock.Anything,
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		mock.MatchedBy(func(to time.Time) bool { return to.Month() == time.August && to.Day() == 31 }),
		leaderboardLimit).
		Return([]*models.SponsorVolumeRow{
			{
				SponsorID:    "sponsor-1",
				Address:      "0xaaa",
				Referrals:    3,
				VolumeDirect: decimal.RequireFromString("200"),
				VolumeTwoLvl: decimal.RequireFromString("350"),
			},
			{
				SponsorID:    "sponsor-2",
				Address:      "0xbbb",
				Referrals:    1,
				VolumeDirect: decimal.RequireFromString("50"),
				VolumeTwoLvl: decimal.RequireFromString("50"),
			},
		}, nil)

	defaults := testDefaults()
	defaults.UsdPerToken = 2
	configs := NewConfigService(storage, noopCache{}, defaults, NewNoopLogger())
	svc := NewLeaderboardService(storage, configs, noopCache{}, NewNoopLogger())

	rows, err := svc.Monthly(context.Background(), at)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "sponsor-1", rows[0].SponsorID)
	assert.InDelta(t, 400, rows[0].VolumeDirectUsd, 0.001)
	assert.InDelta(t, 700, rows[0].VolumeTwoLvlUsd, 0.001)
	assert.Equal(t, 3, rows[0].Referrals)
	assert.InDelta(t, 100, rows[1].VolumeDirectUsd, 0.001)
}

func TestLeaderboard_Monthly_EmptyMonth(t *testing.T) {
	at := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	storage := new(StorageMock)
	storage.On("GetAppConfig", mock.Anything).Return(nil, nil)
	// Месяц без покупок по рефералам
	storage.On("ListSponsorVolumes", mock.Anything, mock.Anything, mock.Anything, leaderboardLimit).
		Return([]*models.SponsorVolumeRow{}, nil)

	configs := NewConfigService(storage, noopCache{}, testDefaults(), NewNoopLogger())
	svc := NewLeaderboardService(storage, configs, noopCache{}, NewNoopLogger())

	rows, err := svc.Monthly(context.Background(), at)

	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLeaderboard_Monthly_CacheHit(t *testing.T) {
	at := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	storage := new(StorageMock)
	cache := new(CacheMock)
	cache.On("Get", mock.Anything, "leaderboard:2026-08", mock.Anything).
		Run(func(args mock.Arguments) {
			out := args.Get(2).(*[]*models.SponsorVolume)
			*out = []*models.SponsorVolume{{SponsorID: "cached-1"}}
		}).
		Return(true, nil)

	configs := NewConfigService(storage, noopCache{}, config.PaymentDefaults{}, NewNoopLogger())
	svc := NewLeaderboardService(storage, configs, cache, NewNoopLogger())

	rows, err := svc.Monthly(context.Background(), at)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "cached-1", rows[0].SponsorID)
	storage.AssertNotCalled(t, "ListSponsorVolumes",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

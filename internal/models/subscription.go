package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Subscription представляет оплаченную подписку пользователя на план.
//
// TxHash — хэш транзакции, которой оплачена подписка; уникален,
// чтобы один платёж нельзя было использовать повторно.
type Subscription struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	PlanID    string          `json:"plan_id"`
	TxHash    string          `json:"tx_hash"`
	Amount    decimal.Decimal `json:"amount"` // Фактически оплаченная цена в токене
	StartsAt  time.Time       `json:"starts_at"`
	EndsAt    time.Time       `json:"ends_at"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
}

// DummyActivate запрос на активацию независимого пакета.
// Amount приходит строкой, чтобы конвертировать её в наименьшие
// единицы токена без потери точности.
type DummyActivate struct {
	Label     string  `json:"label" validate:"required,min=2"`
	AmountUsd float64 `json:"amount_usd" validate:"required,gt=0"`
	Amount    string  `json:"amount" validate:"required,min=1"`
	TxHash    string  `json:"tx_hash" validate:"required,min=3"`
}

// DummySubscribe запрос на покупку каталожного плана.
type DummySubscribe struct {
	PlanID string `json:"plan_id" validate:"required,uuid"`
	TxHash string `json:"tx_hash" validate:"required,min=3"`
}

// SponsorVolume строка месячного лидерборда аффилиатов.
//
// Объёмы считаются в USD по настроенному курсу токена и потому
// не обязаны сходиться с суммами комиссий, которые считаются
// в самом токене.
type SponsorVolume struct {
	SponsorID       string  `json:"sponsor_id"`
	Address         string  `json:"address"`
	Referrals       int     `json:"referrals"`
	VolumeDirectUsd float64 `json:"volume_direct_usd"`
	VolumeTwoLvlUsd float64 `json:"volume_two_level_usd"`
}

// SponsorVolumeRow агрегат объёмов спонсора в токене до конвертации
// в USD. Возвращается хранилищем, конвертация — забота сервиса.
type SponsorVolumeRow struct {
	SponsorID    string
	Address      string
	Referrals    int
	VolumeDirect decimal.Decimal
	VolumeTwoLvl decimal.Decimal
}

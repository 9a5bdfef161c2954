// Package models содержит доменные структуры платформы: пользователей,
// тарифные планы, подписки, комиссии и конфигурацию платежей.
// Структуры используются в бизнес-логике и при работе с хранилищем.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Роли пользователей.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User представляет зарегистрированного пользователя платформы.
//
// RefCode — уникальный реферальный код, генерируется при регистрации.
// ReferrerID — ссылка на пригласившего пользователя (nullable),
// образует лес: пользователь не может быть собственным предком.
type User struct {
	ID            string    `json:"id"`             // Уникальный идентификатор пользователя
	Name          string    `json:"name"`           // Отображаемое имя
	Email         string    `json:"email"`          // Электронная почта (уникальная)
	PasswordHash  string    `json:"-"`              // Хэш пароля, наружу не отдаётся
	Role          string    `json:"role"`           // Роль пользователя, USER или ADMIN
	WalletAddress *string   `json:"wallet_address"` // Адрес кошелька (nullable, формат зависит от сети)
	RefCode       string    `json:"ref_code"`       // Реферальный код (уникальный)
	ReferrerID    *string   `json:"referrer_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ReferralStats агрегированная статистика по рефералам пользователя.
type ReferralStats struct {
	RefCode       string          `json:"ref_code"`
	Level1Count   int             `json:"level1_count"` // Прямые рефералы
	Level2Count   int             `json:"level2_count"` // Рефералы второго уровня
	PendingAmount decimal.Decimal `json:"pending_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
}

// DummyUserPatch частичное обновление пользователя админом.
// ClearWallet имеет приоритет над Wallet; пароль при обновлении
// хэшируется заново.
type DummyUserPatch struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2"`
	Role        *string `json:"role,omitempty" validate:"omitempty,oneof=USER ADMIN"`
	Wallet      *string `json:"wallet,omitempty"`
	ClearWallet bool    `json:"clear_wallet,omitempty"`
	Password    *string `json:"password,omitempty" validate:"omitempty,min=6"`
}

// CommissionSum суммы комиссий получателя в разрезе статусов.
type CommissionSum struct {
	Pending decimal.Decimal `json:"pending"`
	Paid    decimal.Decimal `json:"paid"`
}

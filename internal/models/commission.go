package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Статусы комиссии.
const (
	CommissionPending = "PENDING"
	CommissionPaid    = "PAID"
)

// Commission представляет партнёрскую комиссию, начисленную
// за покупку приглашённого пользователя. Level 1 — прямой реферер
// покупателя, Level 2 — реферер реферера. Глубже двух уровней
// начисления не идут.
type Commission struct {
	ID             string          `json:"id"`
	SubscriptionID string          `json:"subscription_id"`
	BeneficiaryID  string          `json:"beneficiary_id"`
	FromUserID     string          `json:"from_user_id"`
	Level          int             `json:"level"`
	Amount         decimal.Decimal `json:"amount"` // Сумма в расчётном токене
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Статусы заявки на вывод.
const (
	WithdrawalRequested = "REQUESTED"
	WithdrawalPaid      = "PAID"
	WithdrawalRejected  = "REJECTED"
)

// Withdrawal заявка пользователя на вывод заработанных комиссий.
// Исполнение выплаты осуществляется вне платформы.
type Withdrawal struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	ToAddress string          `json:"to_address"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"` // REQUESTED, PAID, REJECTED
	CreatedAt time.Time       `json:"created_at"`
}

// DummyWithdraw запрос на вывод средств.
type DummyWithdraw struct {
	Amount    string `json:"amount" validate:"required,numeric"`
	ToAddress string `json:"to_address" validate:"required,min=4"`
}

// DummySettle отметка о выплате комиссий пользователю.
type DummySettle struct {
	Amount string `json:"amount" validate:"required,numeric"`
}

// Package events публикует доменные события платформы в RabbitMQ.
// События потребляют внешние коллабораторы (нотификации, CRM);
// сама платформа на них не подписана.
package events

import "time"

// Имена обменника и ключей маршрутизации.
const (
	Exchange                  = "platform-events"
	RoutingSubscriptionCreate = "subscription.created"
	RoutingCommissionAccrued  = "commission.accrued"
)

// SubscriptionCreated публикуется после успешной верификации платежа
// и записи подписки.
type SubscriptionCreated struct {
	SubscriptionID string    `json:"subscription_id"`
	UserID         string    `json:"user_id"`
	PlanID         string    `json:"plan_id"`
	TxHash         string    `json:"tx_hash"`
	Amount         string    `json:"amount"`
	EndsAt         time.Time `json:"ends_at"`
}

// CommissionAccrued публикуется на каждую начисленную комиссию.
type CommissionAccrued struct {
	CommissionID  string `json:"commission_id"`
	BeneficiaryID string `json:"beneficiary_id"`
	FromUserID    string `json:"from_user_id"`
	Level         int    `json:"level"`
	Amount        string `json:"amount"`
}

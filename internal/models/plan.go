package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan представляет тарифный план платформы.
//
// Price хранится в расчётном токене платформы (исторически поле
// называлось priceEth). Независимые пакеты, купленные через активацию,
// также представлены планами: они создаются по метке пакета.
type Plan struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`          // Название плана (уникальное)
	Description  string          `json:"description"`   // Описание
	Price        decimal.Decimal `json:"price"`         // Цена в расчётном токене
	DurationDays int             `json:"duration_days"` // Длительность подписки в днях (>0)
	Active       bool            `json:"active"`        // Доступен ли план для покупки
	CreatedAt    time.Time       `json:"created_at"`
}

// DummyPlan используется для приёма данных из JSON-запроса админки,
// прежде чем конвертировать их в Plan.
type DummyPlan struct {
	Name         string `json:"name" validate:"required,min=2"`
	Description  string `json:"description" validate:"required,min=2"`
	Price        string `json:"price" validate:"required,numeric"`
	DurationDays int    `json:"duration_days" validate:"required,gt=0"`
	Active       *bool  `json:"active,omitempty"`
}

// DummyPlanPatch частичное обновление плана.
type DummyPlanPatch struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=2"`
	Description  *string `json:"description,omitempty" validate:"omitempty,min=2"`
	Price        *string `json:"price,omitempty" validate:"omitempty,numeric"`
	DurationDays *int    `json:"duration_days,omitempty" validate:"omitempty,gt=0"`
	Active       *bool   `json:"active,omitempty"`
}

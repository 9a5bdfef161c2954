package models

import "time"

// Назначения одноразовых кодов.
const (
	OtpPurposeLogin  = "login"
	OtpPurposeSignup = "signup"
)

// OtpCode одноразовый шестизначный код подтверждения.
// Код потребляется ровно один раз: берётся самая свежая
// непотреблённая и непросроченная запись.
type OtpCode struct {
	ID        string
	UserID    string
	Code      string
	Purpose   string
	ExpiresAt time.Time
	Consumed  bool
	CreatedAt time.Time
}

// DummySignup запрос на регистрацию.
type DummySignup struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Ref      string `json:"ref,omitempty"`
}

// DummyRequestOtp запрос одноразового кода.
type DummyRequestOtp struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Purpose  string `json:"purpose" validate:"required,oneof=login signup"`
}

// DummyVerifyOtp подтверждение одноразового кода.
type DummyVerifyOtp struct {
	Email   string `json:"email" validate:"required,email"`
	Code    string `json:"code" validate:"required,len=6,numeric"`
	Purpose string `json:"purpose" validate:"required,oneof=login signup"`
}

// DummyWallet запрос на сохранение адреса кошелька.
type DummyWallet struct {
	Address string `json:"address" validate:"required"`
}

package models

// Платёжные сети, поддерживаемые платформой. Активна ровно одна.
const (
	NetworkEVM  = "EVM"
	NetworkTRON = "TRON"
)

// AppConfig — единственная строка конфигурации платежей платформы.
// Читается каждой платёжной операцией, изменяется только админом.
// Отсутствующие поля закрываются фолбэками из окружения.
type AppConfig struct {
	ID             string  `json:"id"`
	TreasuryAddr   *string `json:"treasury_address"`
	TokenAddr      *string `json:"token_address"`
	TokenDecimals  int     `json:"token_decimals"`
	CurrencySymbol string  `json:"currency_symbol"`
	Level1Bps      int     `json:"level1_bps"`
	Level2Bps      int     `json:"level2_bps"`
	PaymentNetwork string  `json:"payment_network"` // EVM или TRON
	ChainID        *int64  `json:"chain_id"`
	RPCURL         *string `json:"rpc_url"`
	TronAPIKey     *string `json:"-"`
}

// PlatformConfig — разрешённая конфигурация после слияния строки
// AppConfig с фолбэками окружения. Передаётся в сервис активации
// и верификатор явно, ядро не читает процессное окружение.
type PlatformConfig struct {
	TreasuryAddr   string  `json:"treasury_address"`
	TokenAddr      string  `json:"token_address"`
	TokenDecimals  int     `json:"token_decimals"`
	CurrencySymbol string  `json:"currency_symbol"`
	Level1Bps      int     `json:"level1_bps"`
	Level2Bps      int     `json:"level2_bps"`
	PaymentNetwork string  `json:"payment_network"`
	ChainID        int64   `json:"chain_id"`
	RPCURL         string  `json:"rpc_url"`
	TronAPIURL     string  `json:"tron_api_url"`
	TronAPIKey     string  `json:"-"`
	UsdPerToken    float64 `json:"usd_per_token"`
}

// PublicConfig — подмножество платёжной конфигурации, которое
// отдаётся на публичном эндпоинте: адреса и параметры, нужные
// клиенту для совершения платежа. Ключи и URL инфраструктуры
// наружу не выходят.
type PublicConfig struct {
	TreasuryAddr   string `json:"treasury_address"`
	TokenAddr      string `json:"token_address"`
	TokenDecimals  int    `json:"token_decimals"`
	CurrencySymbol string `json:"currency_symbol"`
	Level1Bps      int    `json:"level1_bps"`
	Level2Bps      int    `json:"level2_bps"`
	PaymentNetwork string `json:"payment_network"`
	ChainID        int64  `json:"chain_id,omitempty"`
}

// Public возвращает публичное подмножество конфигурации.
func (c *PlatformConfig) Public() PublicConfig {
	return PublicConfig{
		TreasuryAddr:   c.TreasuryAddr,
		TokenAddr:      c.TokenAddr,
		TokenDecimals:  c.TokenDecimals,
		CurrencySymbol: c.CurrencySymbol,
		Level1Bps:      c.Level1Bps,
		Level2Bps:      c.Level2Bps,
		PaymentNetwork: c.PaymentNetwork,
		ChainID:        c.ChainID,
	}
}

// DummyConfigPatch частичное обновление AppConfig админом.
// Bps зажимаются в [0, 10000] на записи.
type DummyConfigPatch struct {
	TreasuryAddr   *string `json:"treasury_address,omitempty"`
	TokenAddr      *string `json:"token_address,omitempty"`
	TokenDecimals  *int    `json:"token_decimals,omitempty" validate:"omitempty,gte=0,lte=36"`
	CurrencySymbol *string `json:"currency_symbol,omitempty" validate:"omitempty,min=1,max=10"`
	Level1Bps      *int    `json:"level1_bps,omitempty"`
	Level2Bps      *int    `json:"level2_bps,omitempty"`
	PaymentNetwork *string `json:"payment_network,omitempty" validate:"omitempty,oneof=EVM TRON"`
	ChainID        *int64  `json:"chain_id,omitempty"`
	RPCURL         *string `json:"rpc_url,omitempty" validate:"omitempty,url"`
	TronAPIKey     *string `json:"tron_api_key,omitempty"`
}

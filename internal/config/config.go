// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitConnection        `yaml:"rabbit_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	SMTP                    `yaml:"smtp"`
	PaymentDefaults         `yaml:"payment_defaults"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:"0.0.0.0:8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// RabbitConnection структура для настройки подключения к RabbitMQ.
// Пустой адрес означает, что публикация доменных событий выключена.
type RabbitConnection struct {
	AddressRabbit string        `yaml:"addressrabbit" env:"RABBIT_ADDRESS"`
	RetriesRabbit int           `yaml:"retries" env-default:"5"`
	DelayRabbit   time.Duration `yaml:"delay" env-default:"2s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// SMTP настройки почтового транспорта для отправки одноразовых кодов.
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"pass" env:"SMTP_PASS"`
}

// PaymentDefaults фолбэки платёжной конфигурации из окружения.
// Используются, когда в базе ещё нет строки AppConfig или в ней
// не заполнены отдельные поля.
type PaymentDefaults struct {
	TreasuryAddress string  `yaml:"treasury_address" env:"TREASURY_ADDRESS"`
	TokenAddress    string  `yaml:"token_address" env:"TOKEN_ADDRESS"`
	TokenDecimals   int     `yaml:"token_decimals" env:"TOKEN_DECIMALS" env-default:"6"`
	CurrencySymbol  string  `yaml:"currency_symbol" env:"CURRENCY_SYMBOL" env-default:"USDT"`
	Level1Bps       int     `yaml:"level1_bps" env:"LEVEL1_BPS" env-default:"1000"`
	Level2Bps       int     `yaml:"level2_bps" env:"LEVEL2_BPS" env-default:"500"`
	PaymentNetwork  string  `yaml:"payment_network" env:"PAYMENT_NETWORK" env-default:"EVM"`
	RPCURL          string  `yaml:"rpc_url" env:"RPC_URL"`
	TronAPIURL      string  `yaml:"tron_api_url" env:"TRON_API_URL" env-default:"https://api.trongrid.io"`
	TronAPIKey      string  `yaml:"tron_api_key" env:"TRON_API_KEY"`
	UsdPerToken     float64 `yaml:"usd_per_token" env:"USD_PER_TOKEN" env-default:"1"`
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс
// при любой ошибке чтения.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type MarketConfig struct {
	Env          string `yaml:"env" env:"MARKET_ENV" env-default:"local"`
	HTTPServer   `yaml:"http_server"`
	GRPCServer   `yaml:"grpc_server"`
	MarketDB     `yaml:"market_db"`
	LogConfig    `yaml:"log_config"`
	KafkaService `yaml:"kafka-service"`
	Redis        `yaml:"redis"`
	Stripe       `yaml:"stripe"`
	SendCloud    `yaml:"sendcloud"`
	AIGateway    `yaml:"ai_gateway"`
	Fees         `yaml:"fees"`
	Scoring      `yaml:"scoring"`
	RateLimit    `yaml:"rate_limit"`
	Disputes     `yaml:"disputes"`
	Orders       `yaml:"orders"`
	Agents       `yaml:"agents"`
}

type HTTPServer struct {
	Host         string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port         string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"30s"`
}

type GRPCServer struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"9090"`
}

type MarketDB struct {
	Dsn            string `yaml:"dsn" env:"MARKET_DB_DSN" env-required:"true"`
	MigrationsPath string `yaml:"migrations_path" env:"MARKET_MIGRATIONS_PATH" env-default:"migrations"`
	AutoMigrate    bool   `yaml:"auto_migrate" env:"MARKET_DB_AUTO_MIGRATE"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
	LogOutput string `yaml:"log_output" env:"LOG_OUTPUT" env-default:"stdout"`
}

type KafkaService struct {
	Host       string `yaml:"host" env:"KAFKA_HOST" env-default:"localhost"`
	Port       string `yaml:"port" env:"KAFKA_PORT" env-default:"9092"`
	Username   string `yaml:"username" env:"KAFKA_USERNAME"`
	Password   string `yaml:"password" env:"KAFKA_PASSWORD"`
	Mechanism  string `yaml:"mechanism" env:"KAFKA_MECHANISM"`
	TLSEnabled bool   `yaml:"tls_enabled" env:"KAFKA_TLS_ENABLED"`
	GroupID    string `yaml:"group_id" env-default:"market-service"`
}

func (k KafkaService) Brokers() []string {
	return []string{fmt.Sprintf("%s:%s", k.Host, k.Port)}
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Stripe struct {
	SecretKey     string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	Currency      string `yaml:"currency" env-default:"eur"`
}

type SendCloud struct {
	BaseURL        string `yaml:"base_url" env-default:"https://panel.sendcloud.sc/api/v2"`
	PublicKey      string `yaml:"public_key" env:"SENDCLOUD_PUBLIC_KEY"`
	SecretKey      string `yaml:"secret_key" env:"SENDCLOUD_SECRET_KEY"`
	ShippingMethod int    `yaml:"shipping_method" env-default:"8"`
	DefaultWeightG int    `yaml:"default_weight_g" env-default:"50"`
}

type AIGateway struct {
	Enabled bool          `yaml:"enabled" env:"AI_GATEWAY_ENABLED"`
	APIKey  string        `yaml:"api_key" env:"GOOGLE_API_KEY"`
	Model   string        `yaml:"model" env-default:"gemini-1.5-flash"`
	Timeout time.Duration `yaml:"timeout" env-default:"8s"`
}

type Fees struct {
	ProGMVCap float64 `yaml:"pro_gmv_cap" env-default:"1000"`
}

type Scoring struct {
	Schedule           string        `yaml:"schedule" env-default:"0 3 * * *"`
	FraudCheckInterval time.Duration `yaml:"fraud_check_interval" env-default:"30m"`
	FraudGracePeriod   time.Duration `yaml:"fraud_grace_period" env-default:"72h"`
}

type RateLimit struct {
	DefaultPerMinute int `yaml:"default_per_minute" env-default:"60"`
	Burst            int `yaml:"burst" env-default:"10"`
}

type Disputes struct {
	ResponseWindow time.Duration `yaml:"response_window" env-default:"72h"`
	CheckInterval  time.Duration `yaml:"check_interval" env-default:"30s"`
}

type Orders struct {
	PendingPaymentTTL time.Duration `yaml:"pending_payment_ttl" env-default:"30m"`
	SweepInterval     time.Duration `yaml:"sweep_interval" env-default:"1m"`
	PayoutBatchSize   int           `yaml:"payout_batch_size" env-default:"50"`
}

type Agents struct {
	CheckoutSessionTTL time.Duration `yaml:"checkout_session_ttl" env-default:"30m"`
	IdempotencyTTL     time.Duration `yaml:"idempotency_ttl" env-default:"24h"`
	CallbackSecret     string        `yaml:"callback_secret" env:"AGENT_CALLBACK_SECRET"`
	CallbackTimeout    time.Duration `yaml:"callback_timeout" env-default:"5s"`
}

// Load reads the YAML config at path and applies env overrides.
func Load(path string) (*MarketConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	var cfg MarketConfig
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *MarketConfig {
	// Processing env config variable and file
	configPath := os.Getenv("MARKET_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("MARKET_CONFIG_PATH was not found\n")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	return cfg
}

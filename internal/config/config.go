package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	MaxRetries  int
	DialTimeout int
	Timeout     int
	Prefix      string
}

type AMQPConfig struct {
	URI   string
	Topic string
}

type FeeConfig struct {
	FamilyFeeCents           int64
	Currency                 string
	ProviderCommissionRate   float64
	MunicipalBurialReduction float64
	PlatformFeeRate          float64
}

type EligibilityConfig struct {
	AmountCeilingCents int64
	AllowedCategories  []string
	RequiredDocuments  []string
}

type StripeConfig struct {
	APIKey        string
	WebhookSecret string
}

type BankTransferConfig struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
}

type AppConfig struct {
	Port         string
	Postgres     PostgresConfig
	Redis        RedisConfig
	AMQP         AMQPConfig
	Fees         FeeConfig
	Eligibility  EligibilityConfig
	Stripe       StripeConfig
	BankTransfer BankTransferConfig
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int value %q: %v", s, err)
	}
	return i
}

func mustInt64(s string) int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		log.Fatalf("invalid int value %q: %v", s, err)
	}
	return i
}

func mustFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Fatalf("invalid float value %q: %v", s, err)
	}
	return f
}

func csv(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func Load() AppConfig {
	return AppConfig{
		Port: getenv("APP_PORT", "8020"),
		Postgres: PostgresConfig{
			Host:     getenv("PG_HOST", "127.0.0.1"),
			Port:     mustAtoi(getenv("PG_PORT", "5432")),
			User:     getenv("PG_USER", "root"),
			Password: getenv("PG_PASSWORD", "hello-world"),
			DBName:   getenv("PG_DB", "uitvaartpay"),
			SSLMode:  getenv("PG_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:        getenv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:    getenv("REDIS_PASSWORD", ""),
			DB:          mustAtoi(getenv("REDIS_DB", "0")),
			MaxRetries:  mustAtoi(getenv("REDIS_MAX_RETRIES", "5")),
			DialTimeout: mustAtoi(getenv("REDIS_DIAL_TIMEOUT", "10")),
			Timeout:     mustAtoi(getenv("REDIS_TIMEOUT", "5")),
			Prefix:      getenv("REDIS_PREFIX", "uitvaartpay_"),
		},
		AMQP: AMQPConfig{
			URI:   getenv("AMQP_URI", ""),
			Topic: getenv("AMQP_EVENT_TOPIC", "payment_events"),
		},
		Fees: FeeConfig{
			FamilyFeeCents:           mustInt64(getenv("FEE_FAMILY_FLAT_CENTS", "2500")),
			Currency:                 getenv("FEE_CURRENCY", "EUR"),
			ProviderCommissionRate:   mustFloat(getenv("FEE_COMMISSION_RATE", "0.125")),
			MunicipalBurialReduction: mustFloat(getenv("FEE_MUNICIPAL_REDUCTION", "0.30")),
			PlatformFeeRate:          mustFloat(getenv("FEE_PLATFORM_RATE", "0.029")),
		},
		Eligibility: EligibilityConfig{
			AmountCeilingCents: mustInt64(getenv("ELIGIBILITY_CEILING_CENTS", "500000")),
			AllowedCategories:  csv(getenv("ELIGIBILITY_CATEGORIES", "basic_burial,basic_cremation,direct_burial")),
			RequiredDocuments:  csv(getenv("ELIGIBILITY_DOCUMENTS", "income_statement,municipal_approval,death_certificate")),
		},
		Stripe: StripeConfig{
			APIKey:        getenv("STRIPE_API_KEY", ""),
			WebhookSecret: getenv("STRIPE_WEBHOOK_SECRET", ""),
		},
		BankTransfer: BankTransferConfig{
			BaseURL:       getenv("BANK_TRANSFER_BASE_URL", "http://localhost:8090"),
			APIKey:        getenv("BANK_TRANSFER_API_KEY", ""),
			WebhookSecret: getenv("BANK_TRANSFER_WEBHOOK_SECRET", ""),
		},
	}
}

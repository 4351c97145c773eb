package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv    string
	AppPort   string
	JWTSecret string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Mpesa MpesaConfig
}

// MpesaConfig holds the Daraja credentials and endpoints. It is built once
// at startup and injected into the gateway client; domain code never reads
// the environment directly.
type MpesaConfig struct {
	Environment    string
	ConsumerKey    string
	ConsumerSecret string
	Passkey        string
	Shortcode      string
	PartyB         string
	AuthURL        string
	STKPushURL     string
	STKQueryURL    string
	CallbackURL    string
	Timeout        time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		AppPort:   getEnv("APP_PORT", "8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     getEnv("DB_PORT", "5432"),

		ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),

		Mpesa: MpesaConfig{
			Environment:    getEnv("MPESA_ENVIRONMENT", "sandbox"),
			ConsumerKey:    os.Getenv("MPESA_CONSUMER_KEY"),
			ConsumerSecret: os.Getenv("MPESA_CONSUMER_SECRET"),
			Passkey:        os.Getenv("MPESA_PASSKEY"),
			Shortcode:      os.Getenv("MPESA_SHORTCODE"),
			PartyB:         getEnv("MPESA_PARTY_B", os.Getenv("MPESA_SHORTCODE")),
			AuthURL:        getEnv("MPESA_AUTH_URL", "https://sandbox.safaricom.co.ke/oauth/v1/generate?grant_type=client_credentials"),
			STKPushURL:     getEnv("MPESA_STK_PUSH_URL", "https://sandbox.safaricom.co.ke/mpesa/stkpush/v1/processrequest"),
			STKQueryURL:    getEnv("MPESA_STK_QUERY_URL", "https://sandbox.safaricom.co.ke/mpesa/stkpushquery/v1/query"),
			CallbackURL:    os.Getenv("MPESA_CALLBACK_URL"),
			Timeout:        getEnvDuration("MPESA_TIMEOUT", 30*time.Second),
		},
	}

	if cfg.DBHost == "" {
		return nil, fmt.Errorf("config: DB_HOST is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is not set")
	}
	if err := cfg.Mpesa.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate fails fast on missing or placeholder Daraja credentials so a
// misconfigured deployment never reaches the first payment attempt.
func (m *MpesaConfig) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"MPESA_CONSUMER_KEY", m.ConsumerKey},
		{"MPESA_CONSUMER_SECRET", m.ConsumerSecret},
		{"MPESA_PASSKEY", m.Passkey},
		{"MPESA_SHORTCODE", m.Shortcode},
	}

	var missing, placeholder []string
	for _, v := range required {
		switch {
		case v.value == "":
			missing = append(missing, v.name)
		case isPlaceholder(v.value):
			placeholder = append(placeholder, v.name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("config: missing M-Pesa settings: %s", strings.Join(missing, ", "))
	}
	if len(placeholder) > 0 {
		return fmt.Errorf("config: placeholder M-Pesa settings, replace before starting: %s", strings.Join(placeholder, ", "))
	}
	return nil
}

func isPlaceholder(v string) bool {
	return strings.Contains(v, "your_") || strings.Contains(v, "_here")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

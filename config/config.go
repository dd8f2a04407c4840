package config

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/joy095/ledger/logger"
	"github.com/spf13/viper"
)

var envOnce sync.Once

// LoadEnv loads a .env file from the working directory when one exists.
func LoadEnv() {
	envOnce.Do(func() {
		if _, err := os.Stat(".env"); err != nil {
			return
		}
		if err := godotenv.Load(); err != nil {
			logger.WarnLogger.Warnf("Error loading .env file: %v", err)
		}
	})
}

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	Razorpay RazorpayConfig
	Cashfree CashfreeConfig
	SMTP     SMTPConfig

	PayoutWorkers   int
	SweepCron       string
	StuckBatchAfter time.Duration
	AdminEmail      string
	CORSOrigins     []string
}

type RazorpayConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
}

type CashfreeConfig struct {
	ClientID      string
	ClientSecret  string
	BaseURL       string
	WebhookSecret string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Load reads configuration from the environment.
func Load() *Config {
	LoadEnv()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8081")
	v.SetDefault("CASHFREE_PAYOUT_URL", "https://sandbox.cashfree.com/payout/v1")
	v.SetDefault("PAYOUT_WORKERS", 8)
	v.SetDefault("SWEEP_CRON", "30 23 * * *")
	v.SetDefault("STUCK_BATCH_AFTER", "24h")
	v.SetDefault("SMTP_PORT", 587)

	return &Config{
		Port:        v.GetString("PORT"),
		DatabaseURL: v.GetString("DATABASE_URL"),
		RedisURL:    v.GetString("REDIS_URL"),
		Razorpay: RazorpayConfig{
			KeyID:         v.GetString("RAZORPAY_KEY_ID"),
			KeySecret:     v.GetString("RAZORPAY_KEY_SECRET"),
			WebhookSecret: v.GetString("RAZORPAY_WEBHOOK_SECRET"),
		},
		Cashfree: CashfreeConfig{
			ClientID:      v.GetString("CASHFREE_PAYOUT_ID"),
			ClientSecret:  v.GetString("CASHFREE_PAYOUT_SECRET"),
			BaseURL:       v.GetString("CASHFREE_PAYOUT_URL"),
			WebhookSecret: v.GetString("CASHFREE_WEBHOOK_SECRET"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("FROM_EMAIL"),
		},
		PayoutWorkers:   v.GetInt("PAYOUT_WORKERS"),
		SweepCron:       v.GetString("SWEEP_CRON"),
		StuckBatchAfter: v.GetDuration("STUCK_BATCH_AFTER"),
		AdminEmail:      v.GetString("ADMIN_EMAIL"),
		CORSOrigins:     splitList(v.GetString("CORS_ORIGINS")),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	JWTSecret     string

	// Outbox relay settings.
	OutboxBatchSize     int
	OutboxMaxRetries    int
	OutboxDrainInterval time.Duration

	// Scheduled invoicing settings.
	InvoicingHour   int
	InvoicingMinute int

	// Rate limit in requests per period, limiter formatted (e.g. "100-M").
	RateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("OUTBOX_BATCH_SIZE", 100)
	viper.SetDefault("OUTBOX_MAX_RETRIES", 5)
	viper.SetDefault("OUTBOX_DRAIN_INTERVAL", "30s")
	viper.SetDefault("INVOICING_HOUR", 2)
	viper.SetDefault("INVOICING_MINUTE", 0)
	viper.SetDefault("RATE_LIMIT", "100-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.OutboxBatchSize = viper.GetInt("OUTBOX_BATCH_SIZE")
	cfg.OutboxMaxRetries = viper.GetInt("OUTBOX_MAX_RETRIES")

	drainIntervalStr := viper.GetString("OUTBOX_DRAIN_INTERVAL")
	drainInterval, err := time.ParseDuration(drainIntervalStr)
	if err != nil {
		drainInterval = 30 * time.Second
		log.Printf("Warning: Invalid value for OUTBOX_DRAIN_INTERVAL ('%s'). Defaulting to %s.\n", drainIntervalStr, drainInterval)
	}
	cfg.OutboxDrainInterval = drainInterval

	cfg.InvoicingHour = viper.GetInt("INVOICING_HOUR")
	if cfg.InvoicingHour < 0 || cfg.InvoicingHour > 23 {
		log.Printf("Warning: Invalid value for INVOICING_HOUR (%d). Defaulting to 2.\n", cfg.InvoicingHour)
		cfg.InvoicingHour = 2
	}
	cfg.InvoicingMinute = viper.GetInt("INVOICING_MINUTE")
	if cfg.InvoicingMinute < 0 || cfg.InvoicingMinute > 59 {
		log.Printf("Warning: Invalid value for INVOICING_MINUTE (%d). Defaulting to 0.\n", cfg.InvoicingMinute)
		cfg.InvoicingMinute = 0
	}

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	return cfg, nil
}

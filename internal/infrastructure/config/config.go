package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/crazygit/ewerobot/pkg/errors"
)

// Config is the application configuration, read from the environment
// (optionally seeded from a .env file)
type Config struct {
	// Port the demo server listens on
	Port string

	// Official Account credentials
	AppID     string
	AppSecret string

	// SubscribeURL is where SubscribeRequired sends non-followers
	SubscribeURL string

	// StateSecret signs the OAuth anti-forgery state
	StateSecret string

	// RefreshSchedule is the cron spec for proactive credential refresh
	RefreshSchedule string

	// UseSQLTokenStore switches the token store from in-memory to MySQL
	UseSQLTokenStore bool
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Println("📁 Loaded .env")
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8000"),
		AppID:            os.Getenv("EWEROBOT_APP_ID"),
		AppSecret:        os.Getenv("EWEROBOT_APP_SECRET"),
		SubscribeURL:     os.Getenv("EWEROBOT_SUBSCRIBE_URL"),
		StateSecret:      getEnv("EWEROBOT_STATE_SECRET", "default-secret-change-in-production"),
		RefreshSchedule:  getEnv("EWEROBOT_REFRESH_SCHEDULE", "*/30 * * * *"),
		UseSQLTokenStore: os.Getenv("EWEROBOT_TOKEN_STORE") == "mysql",
	}

	if cfg.AppID == "" {
		return nil, errors.NewValidationError("EWEROBOT_APP_ID", "must be set")
	}
	if cfg.AppSecret == "" {
		return nil, errors.NewValidationError("EWEROBOT_APP_SECRET", "must be set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

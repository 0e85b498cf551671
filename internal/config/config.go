package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`
	DBPath   string `envconfig:"DB_PATH" default:"./data/flashka.db"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	AppURL   string `envconfig:"APP_URL" default:"http://localhost:8080"` // mini-app URL; inline buttons need https
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`                // debug|info|warn|error

	// DevMode allows unauthenticated API requests with an explicit or
	// default user id. Never enable in production.
	DevMode   bool  `envconfig:"DEV_MODE" default:"false"`
	DevUserID int64 `envconfig:"DEV_USER_ID" default:"234195742"`

	// Reminder loop tuning.
	CheckInterval     time.Duration `envconfig:"CHECK_INTERVAL" default:"1h"`
	SendDelay         time.Duration `envconfig:"SEND_DELAY" default:"200ms"`
	ReminderCardLimit int           `envconfig:"REMINDER_CARD_LIMIT" default:"5"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

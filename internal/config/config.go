package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds application configuration read from the environment.
type Config struct {
	Port     string `env:"PORT" envDefault:"5175"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	DBPath   string `env:"DB_PATH" envDefault:"./data/starmatch.db"`

	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME" envDefault:"starmatch_token"`
	ClientOrigin   string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`

	ProfileAPIBase    string        `env:"PROFILE_API_BASE" envDefault:"https://api.github.com"`
	ProfileAPITimeout time.Duration `env:"PROFILE_API_TIMEOUT" envDefault:"5s"`

	// TickInterval is the countdown period; one second outside of tests.
	TickInterval time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
	// DebugTargets lets POST /rounds pick the opening star count.
	DebugTargets bool `env:"DEBUG_TARGETS" envDefault:"false"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Production reports whether cookies must be Secure / SameSite=None.
func (c *Config) Production() bool { return c.AppEnv == "production" }

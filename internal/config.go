package internal

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the settings usually supplied by the environment. Options
// passed to New after WithConfig override its values.
type Config struct {
	ContextPath          string        `env:"STRIDE_CONTEXT_PATH"`
	CookieSecret         string        `env:"STRIDE_COOKIE_SECRET"`
	RedisURL             string        `env:"STRIDE_REDIS_URL"`
	FlashTTL             time.Duration `env:"STRIDE_FLASH_TTL"             envDefault:"2m"`
	SessionBeanTTL       time.Duration `env:"STRIDE_SESSION_BEAN_TTL"      envDefault:"30m"`
	MaxMemory            int64         `env:"STRIDE_MAX_MEMORY"            envDefault:"33554432"`
	MaxForwards          int           `env:"STRIDE_MAX_FORWARDS"          envDefault:"8"`
	CookieSecure         bool          `env:"STRIDE_COOKIE_SECURE"`
	AlwaysInvokeValidate bool          `env:"STRIDE_ALWAYS_INVOKE_VALIDATE"`
	Debug                bool          `env:"STRIDE_DEBUG"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// WithConfig applies cfg. Zero durations and sizes keep the defaults.
//
//	cfg, err := stride.LoadConfig()
//	if err != nil {
//	    return err
//	}
//	app, err := stride.New(stride.WithConfig(cfg), stride.WithBeans(...))
func WithConfig(cfg Config) Option {
	return func(a *App) {
		a.contextPath = cfg.ContextPath
		a.cookieSecret = cfg.CookieSecret
		a.cookieSecure = cfg.CookieSecure
		a.redisURL = cfg.RedisURL
		a.alwaysInvokeValidate = cfg.AlwaysInvokeValidate
		a.debug = cfg.Debug
		if cfg.FlashTTL > 0 {
			a.flashTTL = cfg.FlashTTL
		}
		if cfg.SessionBeanTTL > 0 {
			a.sessionBeanTTL = cfg.SessionBeanTTL
		}
		if cfg.MaxMemory > 0 {
			a.maxMemory = cfg.MaxMemory
		}
		if cfg.MaxForwards > 0 {
			a.maxForwards = cfg.MaxForwards
		}
	}
}

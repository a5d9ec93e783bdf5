// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

// Config is the storefront process configuration.
type Config struct {
	Addr     string
	WebDir   string
	LogLevel string

	DatabaseURL string
	CatalogPath string
	RabbitMQURL string

	SessionIdleTTL  time.Duration
	JanitorInterval time.Duration

	OIDC OIDC
}

// OIDC configures single sign-on. It is enabled only when every field is set.
type OIDC struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether SSO is configured.
func (o OIDC) Enabled() bool {
	return o.Issuer != "" && o.ClientID != "" && o.ClientSecret != "" && o.RedirectURL != ""
}

func (o OIDC) partial() bool {
	set := 0
	for _, v := range []string{o.Issuer, o.ClientID, o.ClientSecret, o.RedirectURL} {
		if v != "" {
			set++
		}
	}
	return set > 0 && set < 4
}

// Load reads the configuration, falling back to defaults for unset or
// unparsable values.
func Load() Config {
	return Config{
		Addr:            getEnv("ADDR", ":8080"),
		WebDir:          getEnv("WEB_DIR", "web"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		CatalogPath:     os.Getenv("CATALOG_PATH"),
		RabbitMQURL:     os.Getenv("RABBITMQ_URL"),
		SessionIdleTTL:  getEnvDuration("SESSION_IDLE_TTL", 2*time.Hour),
		JanitorInterval: getEnvDuration("JANITOR_INTERVAL", 10*time.Minute),
		OIDC: OIDC{
			Issuer:       os.Getenv("OIDC_ISSUER"),
			ClientID:     os.Getenv("OIDC_CLIENT_ID"),
			ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("OIDC_REDIRECT_URL"),
		},
	}
}

// Validate checks cross-field rules.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("ADDR must not be empty"))
	}
	if c.SessionIdleTTL <= 0 {
		errs = append(errs, errors.New("SESSION_IDLE_TTL must be positive"))
	}
	if c.JanitorInterval <= 0 {
		errs = append(errs, errors.New("JANITOR_INTERVAL must be positive"))
	}
	if c.OIDC.partial() {
		errs = append(errs, errors.New("OIDC_ISSUER, OIDC_CLIENT_ID, OIDC_CLIENT_SECRET and OIDC_REDIRECT_URL must be set together"))
	}
	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

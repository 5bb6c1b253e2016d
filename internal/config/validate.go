package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid config")

var (
	logLevels  = []string{"trace", "debug", "info", "warn", "warning", "error", "fatal", "panic"}
	logFormats = []string{"text", "json"}
)

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if !oneOf(c.Logging.Level, logLevels) {
		return fmt.Errorf("%w: logging.level %q (want one of %s)", ErrInvalidConfig, c.Logging.Level, strings.Join(logLevels, ", "))
	}
	if !oneOf(c.Logging.Format, logFormats) {
		return fmt.Errorf("%w: logging.format %q (want text or json)", ErrInvalidConfig, c.Logging.Format)
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("%w: api.port %d out of range", ErrInvalidConfig, c.API.Port)
	}
	if c.API.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: api.max_body_bytes must be positive", ErrInvalidConfig)
	}
	if c.API.MaxCashflows < 0 {
		return fmt.Errorf("%w: api.max_cashflows must not be negative", ErrInvalidConfig)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("%w: api.rate_limit must not be negative", ErrInvalidConfig)
	}
	if c.API.RequestTimeoutSec <= 0 || c.API.ShutdownTimeoutSec <= 0 {
		return fmt.Errorf("%w: api timeouts must be positive", ErrInvalidConfig)
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	v = strings.ToLower(v)
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

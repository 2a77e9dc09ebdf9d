package config

import (
	"fmt"
	"os"
)

// SentryConfig enables fault reporting when DSN is set.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}

// SetDefaults takes the environment from APP_ENV, falling back to "production".
func (c *SentryConfig) SetDefaults() {
	if c.Environment != "" {
		return
	}
	c.Environment = os.Getenv("APP_ENV")
	if c.Environment == "" {
		c.Environment = "production"
	}
}

// Validate checks the trace sample rate.
func (c SentryConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("sentry: traces_sample_rate %v outside [0, 1]", c.TracesSampleRate)
	}
	return nil
}

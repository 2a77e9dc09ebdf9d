// Package config loads the nightplan configuration from a YAML or JSON file with
// NIGHTPLAN_ environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/nightplan/core/journal"
	"github.com/kilianp07/nightplan/infra/logger"
	"github.com/kilianp07/nightplan/infra/mqtt"
)

// EnvPrefix prefixes every environment override. Nested keys use a double
// underscore, e.g. NIGHTPLAN_JOURNAL__BACKEND=sqlite.
const EnvPrefix = "NIGHTPLAN_"

type Config struct {
	Log          logger.Config      `json:"log"`
	Journal      journal.Config     `json:"journal"`
	Metrics      MetricsConfig      `json:"metrics"`
	MQTT         mqtt.Config        `json:"mqtt"`
	Sentry       SentryConfig       `json:"sentry"`
	Circumstance CircumstanceConfig `json:"circumstance"`
	Azimuth      AzimuthConfig      `json:"azimuth"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// Load reads path, applies environment overrides, defaults and validation. An empty
// path loads the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	c.Journal.SetDefaults()
	c.MQTT.SetDefaults()
	c.Sentry.SetDefaults()
	c.Circumstance.SetDefaults()
	c.Azimuth.SetDefaults()
}

// Validate checks every section and reports the first failure.
func (c Config) Validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("log: unknown format %s", c.Log.Format)
	}
	if err := c.Journal.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.MQTT.Validate(); err != nil {
		return err
	}
	if err := c.Sentry.Validate(); err != nil {
		return err
	}
	if err := c.Circumstance.Validate(); err != nil {
		return err
	}
	return c.Azimuth.Validate()
}

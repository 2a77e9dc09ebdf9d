package config

import (
	"fmt"
	"time"
)

// CircumstanceConfig controls how visits are sampled.
type CircumstanceConfig struct {
	Quantum time.Duration `json:"quantum"`
}

func (c *CircumstanceConfig) SetDefaults() {
	if c.Quantum == 0 {
		c.Quantum = 30 * time.Second
	}
}

func (c CircumstanceConfig) Validate() error {
	if c.Quantum < time.Second {
		return fmt.Errorf("circumstance: quantum must be at least 1s, got %s", c.Quantum)
	}
	return nil
}

// AzimuthConfig controls the sampled wind solver.
type AzimuthConfig struct {
	Step time.Duration `json:"step"`
}

func (c *AzimuthConfig) SetDefaults() {
	if c.Step == 0 {
		c.Step = 30 * time.Second
	}
}

func (c AzimuthConfig) Validate() error {
	if c.Step < time.Second {
		return fmt.Errorf("azimuth: step must be at least 1s, got %s", c.Step)
	}
	return nil
}

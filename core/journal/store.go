// Package journal persists marker add/remove events so a night's diagnostics can
// be inspected after the session has ended.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/nightplan/core/events"
	"github.com/kilianp07/nightplan/core/schedule"
)

// Record is one journaled marker event.
type Record = events.MarkerEvent

// Query filters journal records. Zero fields match everything.
type Query struct {
	Start       time.Time
	End         time.Time
	Schedule    string
	Source      string
	Op          events.MarkerOp
	MinSeverity schedule.Severity
}

// Match reports whether r satisfies every filter of q.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Time.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Time.After(q.End) {
		return false
	}
	if q.Schedule != "" && r.Schedule != q.Schedule {
		return false
	}
	if q.Source != "" && r.Source != q.Source {
		return false
	}
	if q.Op != "" && r.Op != q.Op {
		return false
	}
	if q.MinSeverity != 0 {
		sev, err := schedule.ParseSeverity(r.Severity)
		if err != nil || sev < q.MinSeverity {
			return false
		}
	}
	return true
}

// Store appends and queries journal records.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Config selects and sizes the journal backend.
type Config struct {
	Enabled bool `json:"enabled"`
	// Backend selects the store type: "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "markers.jsonl"
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 10
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Backend != "jsonl" && c.Backend != "sqlite" {
		return fmt.Errorf("journal: unknown backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("journal: path is required")
	}
	return nil
}

// Open creates the store selected by cfg.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "jsonl":
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("journal: unknown backend %s", cfg.Backend)
	}
}

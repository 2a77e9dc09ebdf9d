// Package scenarios describes a planning night in YAML, builds it into a validated
// schedule and checks the markers the rules produce.
package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/nightplan/core/model"
)

// SiteDef locates the observatory.
type SiteDef struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Zone      string  `yaml:"zone,omitempty"`
}

// SpanDef is an offset interval relative to the scenario start.
type SpanDef struct {
	Start    time.Duration `yaml:"start"`
	End      time.Duration `yaml:"end,omitempty"`
	Duration time.Duration `yaml:"duration,omitempty"`
}

// ProgDef is one science program.
type ProgDef struct {
	ID             string         `yaml:"id"`
	Remaining      time.Duration  `yaml:"remaining"`
	Band3Remaining *time.Duration `yaml:"band3_remaining,omitempty"`
	EngOrCal       bool           `yaml:"eng_or_cal,omitempty"`
}

// GroupDef is a program group; Members lists observation IDs.
type GroupDef struct {
	ID      string   `yaml:"id"`
	Type    string   `yaml:"type"` // FOLDER|SCHEDULING
	Members []string `yaml:"members"`
}

// ElevationDef is an observation elevation constraint.
type ElevationDef struct {
	Type string  `yaml:"type"` // NONE|AIRMASS|HOUR_ANGLE
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
}

// StepsDef describes the sequence of an observation.
type StepsDef struct {
	Setup time.Duration   `yaml:"setup"`
	Reacq time.Duration   `yaml:"reacq,omitempty"`
	Times []time.Duration `yaml:"times"`
	Done  int             `yaml:"done,omitempty"`
}

// StatsDef overrides the sampled statistics of one circumstance.
type StatsDef struct {
	Visit   model.Stats  `yaml:"visit"`
	Science *model.Stats `yaml:"science,omitempty"`
}

// ObsDef is one observation with its precomputed circumstances.
type ObsDef struct {
	ID            string              `yaml:"id"`
	Prog          string              `yaml:"prog"`
	Instrument    []string            `yaml:"instrument"`
	Coords        model.Coords        `yaml:"coords"`
	Class         string              `yaml:"class,omitempty"`
	Band          int                 `yaml:"band,omitempty"`
	Priority      int                 `yaml:"priority,omitempty"`
	LGS           bool                `yaml:"lgs,omitempty"`
	SkyBackground *float64            `yaml:"sky_background,omitempty"`
	Elevation     *ElevationDef       `yaml:"elevation,omitempty"`
	TimingWindows []SpanDef           `yaml:"timing_windows,omitempty"`
	Steps         StepsDef            `yaml:"steps"`
	Flags         []string            `yaml:"flags,omitempty"`
	Shutter       string              `yaml:"shutter,omitempty"`
	Windy         []SpanDef           `yaml:"windy,omitempty"`
	Visible       []SpanDef           `yaml:"visible,omitempty"`
	Dark          []SpanDef           `yaml:"dark,omitempty"`
	Score         float64             `yaml:"score,omitempty"`
	Circumstances map[string]StatsDef `yaml:"circumstances,omitempty"`
}

// AllocDef places steps First..Last (0-based, inclusive) of an observation.
type AllocDef struct {
	Obs     string        `yaml:"obs"`
	Start   time.Duration `yaml:"start"`
	First   int           `yaml:"first"`
	Last    int           `yaml:"last"`
	Setup   string        `yaml:"setup,omitempty"` // NONE|REACQUISITION|FULL, FULL by default
	Comment string        `yaml:"comment,omitempty"`
}

// VariantDef is one alternative plan.
type VariantDef struct {
	Name    string                `yaml:"name"`
	LGSOnly bool                  `yaml:"lgs_only,omitempty"`
	Wind    *model.WindConstraint `yaml:"wind,omitempty"`
	Flags   map[string][]string   `yaml:"flags,omitempty"`
	Allocs  []AllocDef            `yaml:"allocs"`
}

// MarkerDef matches one live marker. Empty fields match anything.
type MarkerDef struct {
	Source   string `yaml:"source,omitempty"`
	Severity string `yaml:"severity,omitempty"`
	Target   string `yaml:"target,omitempty"`
	Message  string `yaml:"message,omitempty"`
}

// Expected lists the markers a scenario must and must not produce.
type Expected struct {
	Errors   *int        `yaml:"errors,omitempty"`
	Warnings *int        `yaml:"warnings,omitempty"`
	Infos    *int        `yaml:"infos,omitempty"`
	Notices  *int        `yaml:"notices,omitempty"`
	Markers  []MarkerDef `yaml:"markers,omitempty"`
	Absent   []MarkerDef `yaml:"absent,omitempty"`
}

// Scenario is a complete planning night.
type Scenario struct {
	Name         string       `yaml:"name"`
	Description  string       `yaml:"description,omitempty"`
	Start        time.Time    `yaml:"start"`
	Site         SiteDef      `yaml:"site"`
	ICTD         *bool        `yaml:"ictd,omitempty"`
	Blocks       []SpanDef    `yaml:"blocks"`
	Programs     []ProgDef    `yaml:"programs"`
	Groups       []GroupDef   `yaml:"groups,omitempty"`
	Observations []ObsDef     `yaml:"observations"`
	Variants     []VariantDef `yaml:"variants"`
	Expected     Expected     `yaml:"expected"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("scenario: name is required")
	}
	if sc.Start.IsZero() {
		return nil, fmt.Errorf("scenario %s: start is required", sc.Name)
	}
	return &sc, nil
}

// at converts an offset to epoch ms.
func (sc *Scenario) at(d time.Duration) int64 {
	return sc.Start.Add(d).UnixMilli()
}

// span converts an offset interval to epoch ms; Duration wins over End. A negative
// duration means forever.
func (sc *Scenario) span(s SpanDef) (int64, int64) {
	start := sc.at(s.Start)
	switch {
	case s.Duration < 0:
		return start, -1
	case s.Duration > 0:
		return start, start + s.Duration.Milliseconds()
	default:
		return start, sc.at(s.End)
	}
}

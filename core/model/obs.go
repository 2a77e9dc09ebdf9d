package model

import "fmt"

// ObsClass is the observation class used for time accounting.
type ObsClass int

const (
	ClassScience ObsClass = iota
	ClassAcq
	ClassProgCal
	ClassPartnerCal
	ClassDayCal
)

var classNames = [...]string{"SCIENCE", "ACQ", "PROG_CAL", "PARTNER_CAL", "DAY_CAL"}

func (c ObsClass) String() string {
	if int(c) >= 0 && int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("ObsClass(%d)", int(c))
}

// ParseObsClass maps a class name to its value.
func ParseObsClass(s string) (ObsClass, error) {
	for i, n := range classNames {
		if n == s {
			return ObsClass(i), nil
		}
	}
	return 0, fmt.Errorf("unknown observation class %q", s)
}

// Charged reports whether time spent in this class counts against the program.
func (c ObsClass) Charged() bool {
	return c == ClassScience || c == ClassAcq || c == ClassProgCal
}

// ElevationConstraintType selects how elevation limits are expressed.
type ElevationConstraintType int

const (
	ElevationNone ElevationConstraintType = iota
	ElevationAirmass
	ElevationHourAngle
)

// ElevationConstraint holds the limits of the selected type.
type ElevationConstraint struct {
	Type ElevationConstraintType
	Min  float64
	Max  float64
}

// GroupType distinguishes scheduling groups from organisational folders.
type GroupType int

const (
	GroupFolder GroupType = iota
	GroupScheduling
)

// Group is a named set of observations within a program.
type Group struct {
	ID           string
	Type         GroupType
	Observations []*Obs
}

// TimingWindow is one window in which the observation may be executed.
type TimingWindow struct {
	Start    int64 // epoch ms
	Duration int64 // ms, negative means forever
}

// Conditions exposes the observing-condition thresholds of an observation.
type Conditions interface {
	ContainsSkyBrightness(sb float64) bool
}

// SkyBackground accepts sky brightness values at least as dark (numerically large)
// as Limit, in mag/arcsec².
type SkyBackground struct {
	Limit float64
}

func (s SkyBackground) ContainsSkyBrightness(sb float64) bool { return sb >= s.Limit }

// AnySky accepts every sky brightness.
type AnySky struct{}

func (AnySky) ContainsSkyBrightness(float64) bool { return true }

// Steps describes the planned sequence of an observation.
type Steps struct {
	SetupTime         int64   // ms for a full setup
	ReacquisitionTime int64   // ms for a reacquisition, 0 when not supported
	StepTimes         []int64 // ms per sequence step
	Done              int     // leading steps already executed
}

// Len returns the number of steps.
func (s Steps) Len() int { return len(s.StepTimes) }

// Obs is the read model of a science observation.
type Obs struct {
	ID                  string
	Prog                *Prog
	Instrument          []string
	Coords              CoordsFunc
	ElevationConstraint ElevationConstraint
	Conditions          Conditions
	TimingWindows       []TimingWindow
	Priority            int
	Band                int
	LGS                 bool
	Class               ObsClass
	Group               *Group
	Steps               Steps
}

// CoordsAt evaluates the target position, zero when no coordinate function is set.
func (o *Obs) CoordsAt(t int64) Coords {
	if o.Coords == nil {
		return Coords{}
	}
	return o.Coords(t)
}

// InstrumentName joins the instrument components for display and comparison.
func (o *Obs) InstrumentName() string {
	name := ""
	for i, part := range o.Instrument {
		if i > 0 {
			name += "+"
		}
		name += part
	}
	return name
}

func (o *Obs) String() string { return o.ID }

// Prog is the read model of a science program.
type Prog struct {
	ID string
	// RemainingTime is the program time still available, in ms.
	RemainingTime int64
	// Band3RemainingTime is the Band-3 minimum time still available; nil when undefined.
	Band3RemainingTime *int64
	EngOrCal           bool
	// Observations is the full observation set of the program, scheduled or not.
	Observations []*Obs
}

// IsEngOrCal reports whether the program is exempt from time accounting.
func (p *Prog) IsEngOrCal() bool { return p != nil && p.EngOrCal }

package model

import "time"

// Site is an observatory location.
type Site struct {
	Name      string
	Latitude  float64 // degrees
	Longitude float64 // degrees, east positive
	Location  *time.Location
}

// Zone returns the site time zone, UTC when unset.
func (s Site) Zone() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// Coords is an equatorial position in degrees.
type Coords struct {
	RA  float64 `json:"ra" yaml:"ra"`
	Dec float64 `json:"dec" yaml:"dec"`
}

// CoordsFunc evaluates a target position at an instant (epoch ms).
type CoordsFunc func(t int64) Coords

// FixedCoords returns a CoordsFunc for a sidereal target.
func FixedCoords(c Coords) CoordsFunc {
	return func(int64) Coords { return c }
}

// WindConstraint describes the wind direction to avoid pointing into.
type WindConstraint struct {
	Direction float64 `json:"direction" yaml:"direction"` // degrees azimuth
	Tolerance float64 `json:"tolerance" yaml:"tolerance"` // degrees either side
}

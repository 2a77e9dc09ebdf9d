package model

import "fmt"

// Circumstance is a time-varying quantity sampled over an allocation.
type Circumstance int

const (
	CircAirmass Circumstance = iota
	CircElevation
	CircHourAngle
	CircLunarDistance
	CircTotalSkyBrightness
	CircTimingWindowOpen
	CircAzimuth
)

var circumstanceNames = map[Circumstance]string{
	CircAirmass:            "AIRMASS",
	CircElevation:          "ELEVATION",
	CircHourAngle:          "HOUR_ANGLE",
	CircLunarDistance:      "LUNAR_DISTANCE",
	CircTotalSkyBrightness: "TOTAL_SKY_BRIGHTNESS",
	CircTimingWindowOpen:   "TIMING_WINDOW_OPEN",
	CircAzimuth:            "AZIMUTH",
}

func (c Circumstance) String() string {
	if n, ok := circumstanceNames[c]; ok {
		return n
	}
	return fmt.Sprintf("Circumstance(%d)", int(c))
}

// ParseCircumstance maps a name such as "AIRMASS" back to its Circumstance.
func ParseCircumstance(s string) (Circumstance, error) {
	for c, n := range circumstanceNames {
		if n == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown circumstance %q", s)
}

// Circumstances lists every sampled quantity.
func Circumstances() []Circumstance {
	return []Circumstance{CircAirmass, CircElevation, CircHourAngle, CircLunarDistance,
		CircTotalSkyBrightness, CircTimingWindowOpen, CircAzimuth}
}

// Stats summarises the samples of one circumstance over an interval.
type Stats struct {
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
	Mean float64 `json:"mean" yaml:"mean"`
}

package model

import (
	"fmt"
	"sort"
)

// Flag is a per-variant classification of an observation, computed outside the core.
type Flag int

const (
	FlagInactive Flag = iota
	FlagIQUnderQualified
	FlagWVUnderQualified
	FlagCCUnderQualified
	FlagOverQualified
	FlagInstrumentUnavailable
	FlagConfigUnavailable
	FlagMaskInCabinet
	FlagMaskUnavailable
	FlagLGSUnavailable
	FlagBlocked
	FlagElevationConstrained
	FlagScheduled
	FlagInProgress
)

var flagNames = map[Flag]string{
	FlagInactive:              "INACTIVE",
	FlagIQUnderQualified:      "IQ_UQUAL",
	FlagWVUnderQualified:      "WV_UQUAL",
	FlagCCUnderQualified:      "CC_UQUAL",
	FlagOverQualified:         "OVER_QUALIFIED",
	FlagInstrumentUnavailable: "INSTRUMENT_UNAVAILABLE",
	FlagConfigUnavailable:     "CONFIG_UNAVAILABLE",
	FlagMaskInCabinet:         "MASK_IN_CABINET",
	FlagMaskUnavailable:       "MASK_UNAVAILABLE",
	FlagLGSUnavailable:        "LGS_UNAVAILABLE",
	FlagBlocked:               "BLOCKED",
	FlagElevationConstrained:  "ELEVATION_CNS",
	FlagScheduled:             "SCHEDULED",
	FlagInProgress:            "IN_PROGRESS",
}

func (f Flag) String() string {
	if n, ok := flagNames[f]; ok {
		return n
	}
	return fmt.Sprintf("Flag(%d)", int(f))
}

// ParseFlag maps a flag name back to its value.
func ParseFlag(s string) (Flag, error) {
	for f, n := range flagNames {
		if n == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown flag %q", s)
}

// FlagSet is an unordered set of flags.
type FlagSet map[Flag]struct{}

// NewFlagSet builds a set from the given flags.
func NewFlagSet(flags ...Flag) FlagSet {
	s := make(FlagSet, len(flags))
	for _, f := range flags {
		s[f] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s FlagSet) Has(f Flag) bool {
	_, ok := s[f]
	return ok
}

// Sorted returns the members in declaration order so callers iterate deterministically.
func (s FlagSet) Sorted() []Flag {
	out := make([]Flag, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

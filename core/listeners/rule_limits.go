package listeners

import (
	"fmt"
	"math"
	"strings"

	"github.com/kilianp07/nightplan/core/model"
	"github.com/kilianp07/nightplan/core/schedule"
	"github.com/kilianp07/nightplan/core/windows"
	"github.com/kilianp07/nightplan/internal/timeutil"
)

// Elevation and distance limits, in degrees unless noted.
const (
	TrackingErrorElevation = 17.5
	TrackingWarnElevation  = 20.0
	TrackingMaxElevation   = 88.0
	LGSErrorElevation      = 40.0
	LGSWarnElevation       = 42.0
	AirmassErrorLimit      = 2.0
	AirmassWarnLimit       = 1.75
	LunarErrorDistance     = 5.0
	LunarWarnDistance      = 15.0
	// HourAngleMargin is one degree expressed in hours.
	HourAngleMargin = 1.0 / 15.0
	// ScoreRALimit bounds the RA distance, in hours, of the alternatives the score
	// check reports.
	ScoreRALimit = 1.5
)

var flagMessages = map[model.Flag]struct {
	sev       schedule.Severity
	ephemeral bool
	msg       string
}{
	model.FlagLGSUnavailable:        {schedule.SeverityError, false, "LGS observation is not allowed in non-LGS variant."},
	model.FlagConfigUnavailable:     {schedule.SeverityError, false, "Required instrument configuration is unavailable."},
	model.FlagMaskInCabinet:         {schedule.SeverityError, false, "Required custom mask is in cabinet."},
	model.FlagMaskUnavailable:       {schedule.SeverityError, false, "Required custom mask is unavailable."},
	model.FlagInstrumentUnavailable: {schedule.SeverityError, false, "Required instrument is unavailable."},
	model.FlagCCUnderQualified:      {schedule.SeverityError, false, "Variant CC is under-qualified for this observation."},
	model.FlagWVUnderQualified:      {schedule.SeverityError, false, "Variant WV is under-qualified for this observation."},
	model.FlagIQUnderQualified:      {schedule.SeverityError, false, "Variant IQ is under-qualified for this observation."},
	model.FlagInactive:              {schedule.SeverityError, false, "Science program is inactive."},
	model.FlagOverQualified:         {schedule.SeverityInfo, true, "Variant conditions are better than necessary."},
}

// Limits checks each allocation against visibility, timing, elevation-constraint,
// lunar and sky-background limits, relays laser shutter advisories and turns the
// externally computed observation flags into markers. Constraints that hold are
// reported as notices listing the windows in which they hold.
type Limits struct {
	Flags   Classifier
	Shutter ShutterAdvisor
	Scores  Scorer
	Windows windows.Provider
}

// NewLimits returns a Limits rule over the collaborators of c; missing ones are
// replaced by ones that report nothing.
func NewLimits(c Collaborators) *Limits {
	l := &Limits{Flags: c.Flags, Shutter: c.Shutter, Scores: c.Scores, Windows: c.Windows}
	if l.Flags == nil {
		l.Flags = noFlags{}
	}
	if l.Shutter == nil {
		l.Shutter = noShutter{}
	}
	if l.Scores == nil {
		l.Scores = noScores{}
	}
	if l.Windows == nil {
		l.Windows = windows.Nop{}
	}
	return l
}

func (*Limits) Source() string { return SourceLimits }

func (l *Limits) Check(v *schedule.Variant, emit *Emitter) error {
	for _, a := range v.Allocs() {
		t := schedule.AllocTarget(a)
		l.checkScore(v, a, t, emit)
		checkVisibility(a, t, emit)
		l.checkTiming(a, t, emit)
		if msg, ok := l.Shutter.ShutterWarningFor(a); ok {
			emit.Warning(msg, t)
		}
		l.checkElevationConstraint(a, t, emit)
		l.checkBackground(a, t, emit)
		for _, f := range l.Flags.FlagsFor(v, a.Obs()).Sorted() {
			if fm, ok := flagMessages[f]; ok {
				emit.Add(fm.ephemeral, fm.sev, fm.msg, t)
			}
		}
	}
	return nil
}

// checkScore points at unscheduled observations of the same program that score
// higher and lie within ScoreRALimit of the visit's target.
func (l *Limits) checkScore(v *schedule.Variant, a *schedule.Alloc, t schedule.Target, emit *Emitter) {
	obs := a.Obs()
	if obs.Prog == nil {
		return
	}
	ra := obs.CoordsAt(a.Start()).RA
	mine := l.Scores.ScoreFor(v, obs)
	var better []string
	for _, o := range obs.Prog.Observations {
		if o == obs || l.scheduled(v, o) {
			continue
		}
		if raDistance(ra, o.CoordsAt(a.Start()).RA) > ScoreRALimit*15 {
			continue
		}
		if l.Scores.ScoreFor(v, o) > mine {
			better = append(better, o.ID)
		}
	}
	if len(better) > 0 {
		emit.Add(true, schedule.SeverityWarning,
			fmt.Sprintf("Higher-scoring observation(s) within %.1fH: %s", ScoreRALimit, strings.Join(better, " ")), t)
	}
}

func (l *Limits) scheduled(v *schedule.Variant, obs *model.Obs) bool {
	return len(v.AllocsFor(obs)) > 0 || l.Flags.FlagsFor(v, obs).Has(model.FlagScheduled)
}

// raDistance is the angular separation of two right ascensions in degrees.
func raDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	return math.Min(d, 360-d)
}

// notice lists the windows of kind for the visit's observation, if there are any.
func (l *Limits) notice(a *schedule.Alloc, t schedule.Target, emit *Emitter, kind windows.Kind, prefix string) {
	s := a.Variant().Schedule()
	u := l.Windows.Union(s, a.Obs(), kind)
	if u.Len() == 0 {
		return
	}
	zone := s.Site().Zone()
	spans := make([]string, 0, u.Len())
	for iv := range u.All() {
		spans = append(spans, timeutil.ClockSpan(iv.Start, iv.End, zone))
	}
	emit.Add(false, schedule.SeverityNotice, prefix+" "+strings.Join(spans, ", ")+".", t)
}

// checkVisibility uses whole-visit samples since the telescope tracks during setup too.
func checkVisibility(a *schedule.Alloc, t schedule.Target, emit *Emitter) {
	if am, ok := a.Min(model.CircAirmass, true); ok && am == 0.0 {
		emit.Error("Target is below horizon.", t)
	}
	if el, ok := a.Min(model.CircElevation, true); ok {
		switch {
		case el < TrackingErrorElevation:
			emit.Error(fmt.Sprintf("Tracking: target reaches %.2f°.", el), t)
		case el < TrackingWarnElevation:
			emit.Warning(fmt.Sprintf("Tracking: target reaches %.2f°.", el), t)
		}
	}
	if el, ok := a.Max(model.CircElevation, true); ok && el > TrackingMaxElevation {
		emit.Warning(fmt.Sprintf("Tracking: target reaches %.2f°.", el), t)
	}
}

func (l *Limits) checkTiming(a *schedule.Alloc, t schedule.Target, emit *Emitter) {
	open, ok := a.Mean(model.CircTimingWindowOpen, false)
	if !ok || math.IsNaN(open) {
		return
	}
	switch pct := int(math.Round(100 * open)); pct {
	case 100:
		if len(a.Obs().TimingWindows) > 0 {
			emit.Add(true, schedule.SeverityInfo, "Timing constraint is met.", t)
			l.notice(a, t, emit, windows.Timing, "Must be in the timing window")
		}
	case 0:
		emit.Error("Timing constraint is violated for entire scheduled visit.", t)
	default:
		emit.Error(fmt.Sprintf("Timing constraint is violated for %d%% of scheduled visit.", 100-pct), t)
	}
}

func (l *Limits) checkElevationConstraint(a *schedule.Alloc, t schedule.Target, emit *Emitter) {
	obs := a.Obs()
	ec := obs.ElevationConstraint
	switch ec.Type {
	case model.ElevationNone:
		if obs.LGS {
			el, ok := a.Min(model.CircElevation, false)
			if !ok {
				return
			}
			switch {
			case el < LGSErrorElevation:
				emit.Error(fmt.Sprintf("LGS observation reaches elevation %.2f°.", el), t)
			case el < LGSWarnElevation:
				emit.Warning(fmt.Sprintf("LGS observation reaches elevation %.2f°.", el), t)
			}
			return
		}
		am, ok := a.Max(model.CircAirmass, false)
		if !ok {
			return
		}
		switch {
		case am > AirmassErrorLimit:
			emit.Error(fmt.Sprintf("Observation reaches airmass %.2f.", am), t)
		case am > AirmassWarnLimit:
			emit.Warning(fmt.Sprintf("Observation reaches airmass %.2f.", am), t)
		}

	case model.ElevationAirmass:
		stats, ok := a.Stats(model.CircAirmass, false)
		if !ok {
			return
		}
		// the lower-limit check runs last and replaces an upper-limit finding
		var sev schedule.Severity
		var msg string
		if stats.Max > ec.Max {
			sev, msg = schedule.SeverityError, fmt.Sprintf("Airmass constraint violated (%.2f > %.2f).", stats.Max, ec.Max)
		} else if stats.Max > ec.Max*0.975 {
			sev, msg = schedule.SeverityWarning, fmt.Sprintf("Observation reaches airmass %.2f.", stats.Max)
		}
		if ec.Min > 1.0 {
			if stats.Min < ec.Min {
				sev, msg = schedule.SeverityError, fmt.Sprintf("Airmass constraint violated (%.2f < %.2f).", stats.Min, ec.Min)
			} else if stats.Max < ec.Min*1.025 {
				sev, msg = schedule.SeverityWarning, fmt.Sprintf("Observation reaches airmass %.2f.", stats.Max)
			}
		}
		if sev != 0 {
			emit.Add(false, sev, msg, t)
		} else {
			l.notice(a, t, emit, windows.Visible, fmt.Sprintf("Must be observed in the airmass range %.2f - %.2f", ec.Min, ec.Max))
		}

	case model.ElevationHourAngle:
		stats, ok := a.Stats(model.CircHourAngle, false)
		if !ok {
			return
		}
		var sev schedule.Severity
		var msg string
		if stats.Min < ec.Min {
			sev, msg = schedule.SeverityError, fmt.Sprintf("Hour angle constraint violated (%s < %s).",
				timeutil.HoursMinutesSeconds(stats.Min), timeutil.HoursMinutesSeconds(ec.Min))
		} else if math.Abs(ec.Min-stats.Min) < HourAngleMargin {
			sev, msg = schedule.SeverityWarning, "Target comes within 1° of lower HA constraint."
		}
		if stats.Max > ec.Max {
			sev, msg = schedule.SeverityError, fmt.Sprintf("Hour angle constraint violated (%s > %s).",
				timeutil.HoursMinutesSeconds(stats.Max), timeutil.HoursMinutesSeconds(ec.Max))
		} else if math.Abs(ec.Max-stats.Max) < HourAngleMargin {
			sev, msg = schedule.SeverityWarning, "Target comes within 1° of upper HA constraint."
		}
		if sev != 0 {
			emit.Add(false, sev, msg, t)
		} else {
			l.notice(a, t, emit, windows.Visible, fmt.Sprintf("Must be observed in the hour angle range %.2f - %.2f", ec.Min, ec.Max))
		}
	}
}

func (l *Limits) checkBackground(a *schedule.Alloc, t schedule.Target, emit *Emitter) {
	if moon, ok := a.Min(model.CircLunarDistance, false); ok {
		switch {
		case moon < LunarErrorDistance:
			emit.Error(fmt.Sprintf("Target approaches within %.2f° of the moon.", moon), t)
		case moon < LunarWarnDistance:
			emit.Warning(fmt.Sprintf("Target approaches within %.2f° of the moon.", moon), t)
		}
	}
	sb, ok := a.Min(model.CircTotalSkyBrightness, false)
	if ok && a.Obs().Conditions != nil && !a.Obs().Conditions.ContainsSkyBrightness(sb) {
		emit.Error("Sky brightness constraint violated.", t)
		return
	}
	l.notice(a, t, emit, windows.Dark, "Background constraints are met between")
}

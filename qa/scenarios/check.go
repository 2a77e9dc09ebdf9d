package scenarios

import (
	"fmt"
	"strings"

	"github.com/kilianp07/nightplan/core/schedule"
)

// Matches reports whether mk satisfies every field set in d. Message matches as a
// substring.
func (d MarkerDef) Matches(mk *schedule.Marker) bool {
	if d.Source != "" && d.Source != mk.Source {
		return false
	}
	if d.Severity != "" && !strings.EqualFold(d.Severity, mk.Severity.String()) {
		return false
	}
	if d.Target != "" && d.Target != mk.Target.Label() {
		return false
	}
	return d.Message == "" || strings.Contains(mk.Message, d.Message)
}

func (d MarkerDef) String() string {
	var parts []string
	for _, kv := range [][2]string{{"source", d.Source}, {"severity", d.Severity}, {"target", d.Target}, {"message", d.Message}} {
		if kv[1] != "" {
			parts = append(parts, kv[0]+"="+kv[1])
		}
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Check compares the live markers of sch with the expectations and returns one line
// per mismatch.
func (e Expected) Check(sch *schedule.Schedule) []string {
	markers := sch.MarkerManager().Markers()
	counts := sch.MarkerManager().Counts()
	var failures []string
	for _, c := range []struct {
		want *int
		sev  schedule.Severity
	}{{e.Errors, schedule.SeverityError}, {e.Warnings, schedule.SeverityWarning}, {e.Infos, schedule.SeverityInfo}, {e.Notices, schedule.SeverityNotice}} {
		if c.want != nil && counts[c.sev] != *c.want {
			failures = append(failures, fmt.Sprintf("%s count: got %d, want %d", c.sev, counts[c.sev], *c.want))
		}
	}
	for _, d := range e.Markers {
		if !anyMatch(d, markers) {
			failures = append(failures, "missing marker "+d.String())
		}
	}
	for _, d := range e.Absent {
		if anyMatch(d, markers) {
			failures = append(failures, "unexpected marker "+d.String())
		}
	}
	if len(failures) > 0 {
		for _, mk := range markers {
			failures = append(failures, fmt.Sprintf("  live: %s %s %s %q", mk.Source, mk.Severity, mk.Target, mk.Message))
		}
	}
	return failures
}

func anyMatch(d MarkerDef, markers []*schedule.Marker) bool {
	for _, mk := range markers {
		if d.Matches(mk) {
			return true
		}
	}
	return false
}

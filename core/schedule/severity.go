package schedule

import "fmt"

// Severity classifies a Marker. Larger values are worse.
type Severity int

const (
	// SeverityNotice carries planning hints such as when a constraint is met.
	SeverityNotice Severity = iota + 1
	SeverityInfo
	SeverityWarning
	SeverityError
)

// Severities lists every severity, least severe first.
var Severities = []Severity{SeverityNotice, SeverityInfo, SeverityWarning, SeverityError}

func (s Severity) String() string {
	switch s {
	case SeverityNotice:
		return "Notice"
	case SeverityInfo:
		return "Info"
	case SeverityWarning:
		return "Warning"
	case SeverityError:
		return "Error"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ParseSeverity accepts the names produced by String, case-sensitively.
func ParseSeverity(s string) (Severity, error) {
	for _, sev := range Severities {
		if sev.String() == s {
			return sev, nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", s)
}

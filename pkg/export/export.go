// Package export renders the live markers of a schedule for reports.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/nightplan/core/schedule"
)

// Row is one marker flattened for reporting.
type Row struct {
	Schedule  string    `json:"schedule"`
	Variant   string    `json:"variant,omitempty"`
	Kind      string    `json:"kind"`
	Target    string    `json:"target"`
	Source    string    `json:"source"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Ephemeral bool      `json:"ephemeral,omitempty"`
	Created   time.Time `json:"created"`
}

// Rows flattens the live markers of sch, most severe first.
func Rows(sch *schedule.Schedule) []Row {
	markers := sch.MarkerManager().Markers()
	rows := make([]Row, 0, len(markers))
	for _, mk := range markers {
		r := Row{
			Schedule:  sch.Name(),
			Kind:      mk.Target.Kind.String(),
			Target:    mk.Target.Label(),
			Source:    mk.Source,
			Severity:  mk.Severity.String(),
			Message:   mk.Message,
			Ephemeral: mk.Ephemeral,
			Created:   mk.Created,
		}
		if v := mk.Target.Variant(); v != nil {
			r.Variant = v.Name()
		}
		rows = append(rows, r)
	}
	return rows
}

// WriteJSON writes the rows to w in JSON format.
func WriteJSON(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// WriteCSV writes the rows to w in CSV format with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"schedule", "variant", "kind", "target", "source", "severity", "message", "ephemeral", "created"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Schedule,
			r.Variant,
			r.Kind,
			r.Target,
			r.Source,
			r.Severity,
			r.Message,
			strconv.FormatBool(r.Ephemeral),
			r.Created.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

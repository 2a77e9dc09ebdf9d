package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/nightplan/core/events"
	"github.com/kilianp07/nightplan/core/journal"
	"github.com/kilianp07/nightplan/core/schedule"
	"github.com/kilianp07/nightplan/pkg/export"
)

var journalFlags struct {
	since    time.Duration
	schedule string
	source   string
	op       string
	severity string
	json     bool
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query journaled marker events",
	Args:  cobra.NoArgs,
	RunE:  runJournal,
}

func init() {
	f := journalCmd.Flags()
	f.DurationVar(&journalFlags.since, "since", 0, "only events newer than this duration")
	f.StringVar(&journalFlags.schedule, "schedule", "", "filter by schedule name")
	f.StringVar(&journalFlags.source, "source", "", "filter by rule source")
	f.StringVar(&journalFlags.op, "op", "", "filter by operation (added|removed)")
	f.StringVar(&journalFlags.severity, "severity", "", "minimum severity (Notice|Info|Warning|Error)")
	f.BoolVar(&journalFlags.json, "json", false, "print records as JSON")
	rootCmd.AddCommand(journalCmd)
}

func runJournal(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Journal.Enabled {
		return fmt.Errorf("journal is disabled in configuration")
	}
	q := journal.Query{
		Schedule: journalFlags.schedule,
		Source:   journalFlags.source,
		Op:       events.MarkerOp(journalFlags.op),
	}
	if journalFlags.since > 0 {
		q.Start = time.Now().Add(-journalFlags.since)
	}
	if journalFlags.severity != "" {
		if q.MinSeverity, err = schedule.ParseSeverity(journalFlags.severity); err != nil {
			return err
		}
	}

	store, err := journal.Open(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() { _ = store.Close() }()
	recs, err := store.Query(context.Background(), q)
	if err != nil {
		return fmt.Errorf("query journal: %w", err)
	}

	out := cmd.OutOrStdout()
	if journalFlags.json {
		rows := make([]export.Row, 0, len(recs))
		for _, r := range recs {
			rows = append(rows, export.Row{
				Schedule:  r.Schedule,
				Kind:      r.TargetKind,
				Target:    r.Target,
				Source:    r.Source,
				Severity:  r.Severity,
				Message:   r.Message,
				Ephemeral: r.Ephemeral,
				Created:   r.Time,
			})
		}
		return export.WriteJSON(out, rows)
	}
	for _, r := range recs {
		if _, err := fmt.Fprintf(out, "%s %-7s %-8s %-16s %s %s\n",
			r.Time.UTC().Format(time.RFC3339), r.Op, r.Severity, r.Source, r.Target, r.Message); err != nil {
			return err
		}
	}
	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/nightplan/app"
	"github.com/kilianp07/nightplan/core/events"
	"github.com/kilianp07/nightplan/infra/logger"
	"github.com/kilianp07/nightplan/pkg/export"
	"github.com/kilianp07/nightplan/qa/scenarios"
)

// ErrMarkers is returned by check when --fail-on-error is set and Error markers remain.
var ErrMarkers = errors.New("error markers present")

var checkFlags struct {
	jsonPath    string
	csvPath     string
	chartPath   string
	failOnError bool
	trace       bool
	expect      bool
}

var checkCmd = &cobra.Command{
	Use:   "check <scenario.yaml>",
	Short: "Validate a scenario and print its markers",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	f := checkCmd.Flags()
	f.StringVar(&checkFlags.jsonPath, "json", "", "write markers as JSON to this file (- for stdout)")
	f.StringVar(&checkFlags.csvPath, "csv", "", "write markers as CSV to this file (- for stdout)")
	f.StringVar(&checkFlags.chartPath, "chart", "", "write an HTML chart of markers per rule")
	f.BoolVar(&checkFlags.failOnError, "fail-on-error", false, "exit non-zero when Error markers remain")
	f.BoolVar(&checkFlags.trace, "trace", false, "print every rule run")
	f.BoolVar(&checkFlags.expect, "expect", false, "compare the markers with the scenario expectations")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := scenarios.Load(args[0])
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	plan, err := sc.Compile()
	if err != nil {
		return fmt.Errorf("compile scenario: %w", err)
	}
	sess, err := newSession(ctx, app.Options{Sampler: plan.Sampler, Collaborators: plan.Collaborators})
	if err != nil {
		return err
	}
	log := logger.New("check")
	closed := false
	closeSession := func() {
		if closed {
			return
		}
		closed = true
		if err := sess.Close(); err != nil {
			log.Errorf("session close: %v", err)
		}
	}
	defer closeSession()

	var traced chan []events.RuleEvent
	if checkFlags.trace {
		traced = make(chan []events.RuleEvent, 1)
		sub := sess.RuleEvents().Subscribe()
		go func() {
			var runs []events.RuleEvent
			for ev := range sub {
				runs = append(runs, ev)
			}
			traced <- runs
		}()
	}

	sch, err := plan.Build(sess.NewSchedule)
	if err != nil {
		return fmt.Errorf("build schedule: %w", err)
	}
	rows := export.Rows(sch)
	snap := sess.Snapshot(sch)

	out := cmd.OutOrStdout()
	if err := printRows(out, rows); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "%s: %d allocations, %d errors, %d warnings, %d infos\n",
		sc.Name, snap.Allocs, snap.Errors, snap.Warnings, snap.Infos); err != nil {
		return err
	}

	if err := writeTo(out, checkFlags.jsonPath, func(w io.Writer) error { return export.WriteJSON(w, rows) }); err != nil {
		return fmt.Errorf("json: %w", err)
	}
	if err := writeTo(out, checkFlags.csvPath, func(w io.Writer) error { return export.WriteCSV(w, rows) }); err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	if err := writeTo(out, checkFlags.chartPath, func(w io.Writer) error { return export.WriteChart(w, sc.Name, rows) }); err != nil {
		return fmt.Errorf("chart: %w", err)
	}

	if traced != nil {
		closeSession()
		if err := printTrace(out, <-traced); err != nil {
			return err
		}
	}

	if checkFlags.expect {
		if failures := sc.Expected.Check(sch); len(failures) > 0 {
			for _, f := range failures {
				if _, err := fmt.Fprintln(cmd.ErrOrStderr(), f); err != nil {
					return err
				}
			}
			return fmt.Errorf("scenario %s: %d expectation failures", sc.Name, len(failures))
		}
	}
	if checkFlags.failOnError && snap.Errors > 0 {
		return fmt.Errorf("%s: %w", sc.Name, ErrMarkers)
	}
	return nil
}

func printRows(w io.Writer, rows []export.Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "SEVERITY\tSOURCE\tTARGET\tMESSAGE"); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Severity, r.Source, r.Target, r.Message); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func printTrace(w io.Writer, runs []events.RuleEvent) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "RULE\tSCOPE\tOUTCOME\tMARKERS\tDURATION"); err != nil {
		return err
	}
	for _, ev := range runs {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", ev.Rule, ev.Scope, ev.Outcome, ev.Markers, ev.Duration); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// writeTo runs fn against stdout for "-", a new file for any other path, and does
// nothing for an empty path.
func writeTo(stdout io.Writer, path string, fn func(io.Writer) error) (err error) {
	switch path {
	case "":
		return nil
	case "-":
		return fn(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/nightplan/app"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the validation rules",
	Args:  cobra.NoArgs,
	RunE:  runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	sess, err := newSession(context.Background(), app.Options{})
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	out := cmd.OutOrStdout()
	for _, name := range sess.Registry().ScheduleRules() {
		if _, err := fmt.Fprintf(out, "schedule\t%s\n", name); err != nil {
			return err
		}
	}
	for _, name := range sess.Registry().VariantRules() {
		if _, err := fmt.Fprintf(out, "variant\t%s\n", name); err != nil {
			return err
		}
	}
	return nil
}

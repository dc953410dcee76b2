package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-home/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-home/internal/reading"
	"github.com/nerrad567/gray-logic-home/internal/threshold"
)

var (
	warnColor     = color.New(color.FgYellow)
	criticalColor = color.New(color.FgRed, color.Bold)
	headerColor   = color.New(color.FgCyan)
)

func newReadingsCmd(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "readings SENSOR_ID",
		Short: "Print the most recent readings for a sensor",
		Long: `Print the most recent readings for a sensor, newest first.

Readings outside the configured thresholds are highlighted: yellow for a
warning breach, red for a critical one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			db, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // read-only use

			readings, err := reading.NewStore(db.DB).Recent(cmd.Context(), args[0], limit)
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			return printReadings(cmd.OutOrStdout(), args[0], readings, threshold.FromConfig(cfg.Thresholds))
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of readings to show")
	return cmd
}

// printReadings writes one line per reading. A breaching line is coloured by
// its most severe alert and suffixed with the alert type.
func printReadings(w io.Writer, sensorID string, readings []reading.Reading, t threshold.Thresholds) error {
	if len(readings) == 0 {
		_, err := fmt.Fprintf(w, "no readings for sensor %q\n", sensorID)
		return err
	}

	if _, err := headerColor.Fprintf(w, "%-25s %-12s %10s\n", "TIMESTAMP", "METRIC", "VALUE"); err != nil {
		return err
	}

	for _, r := range readings {
		line := fmt.Sprintf("%-25s %-12s %10.2f", r.Timestamp.Format(time.RFC3339), r.Metric, r.Value)

		alerts := threshold.Evaluate(r, t)
		if len(alerts) == 0 {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
			continue
		}

		a := alerts[0]
		c := warnColor
		if a.Severity == threshold.SeverityCritical {
			c = criticalColor
		}
		if _, err := c.Fprintf(w, "%s  %s (%s, threshold %.2f)\n", line, a.AlertType, a.Severity, a.Threshold); err != nil {
			return err
		}
	}
	return nil
}

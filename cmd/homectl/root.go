package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. A fresh tree per call keeps flag
// state out of package globals.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "homectl",
		Short: "homectl - MQTT home automation controller",
		Long: `homectl routes device commands and sensor readings arriving over MQTT.

Commands update an in-memory device registry and are confirmed on retained
state topics. Readings are appended to a SQLite store and checked against
per-metric thresholds; breaches are published as alerts.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", getConfigPath(),
		"Path to the YAML configuration file (env HOMECTL_CONFIG)")

	root.AddCommand(
		newServeCmd(&configPath),
		newReadingsCmd(&configPath),
		newTokenCmd(&configPath),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "homectl %s\ncommit: %s\nbuilt:  %s\n", version, commit, date)
		},
	}
}

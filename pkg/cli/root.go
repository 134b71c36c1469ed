// Package cli implements the netlens command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	// Version info set by the main package at build time.
	version = "dev"

	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "netlens",
	Short: "Capture proxy and live view for application network traffic",
	Long: `netlens runs a recording HTTP proxy and a live-view API.

Point an application's HTTP proxy at netlens and every call it makes is
captured into a bounded in-memory history you can query, filter and watch
live - without changing how the traffic behaves.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "netlens.yaml", "path to the configuration file")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the CLI with the given build version.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}

// attmond watches a folder for punch-clock workbook exports and keeps
// the attendance database current. Besides the long-running daemon it
// offers one-shot ingest, query and export commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags.
var version = "dev"

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "attmond",
		Short:         "Attendance folder monitor",
		Long:          "attmond ingests punch-clock Excel exports from a watched folder into a local attendance database, with a small HTTP API for queries and exports.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")

	root.AddCommand(
		newRunCmd(),
		newProcessCmd(),
		newQueryCmd(),
		newExportCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "attmond", version)
		},
	}
}

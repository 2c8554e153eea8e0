package main

import (
	"fmt"
	"path/filepath"

	"github.com/attmon/attmon/internal/config"
	"github.com/attmon/attmon/internal/ingest"
	"github.com/attmon/attmon/internal/log"
	"github.com/attmon/attmon/internal/store"
	"github.com/spf13/cobra"
)

func newProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <file.xlsx>",
		Short: "Ingest a single workbook and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log.Configure(log.Config{Level: cfg.LogLevel, Service: cfg.LogService, Version: version})

			st, err := store.Open(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			processor := ingest.New(st, nil, func() ingest.Config {
				return ingest.Config{
					FileReadyTimeout: cfg.FileReadyTimeout,
					FileReadyPoll:    cfg.FileReadyPoll,
				}
			})
			if err := processor.ProcessFile(cmd.Context(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "processed %s\n", filepath.Base(path))
			return nil
		},
	}
}

// loadConfig loads the shared config for the one-shot commands. They
// tolerate a missing watch folder since they never watch anything.
func loadConfig() (config.Config, error) {
	return config.NewLoader(configPath, version).LoadTooling()
}

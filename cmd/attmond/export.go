package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/attmon/attmon/internal/export"
	"github.com/attmon/attmon/internal/log"
	"github.com/attmon/attmon/internal/store"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var (
		date   string
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a day's attendance to CSV or XLSX",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if date == "" {
				return fmt.Errorf("--date is required")
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log.Configure(log.Config{Level: "warn", Service: cfg.LogService, Version: version})

			st, err := store.Open(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			recs, err := st.QueryByDate(cmd.Context(), date)
			if err != nil {
				return err
			}

			path := out
			if path == "" {
				dir := cfg.DataDir
				if dir == "" {
					dir = "."
				}
				path = filepath.Join(dir, export.FileName(f, time.Now().UTC()))
			}
			if err := export.WriteFile(path, f, recs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d record(s) to %s\n", len(recs), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "punch date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&format, "format", "csv", "export format: csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default: data dir with a timestamped name)")
	return cmd
}

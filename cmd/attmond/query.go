package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/attmon/attmon/internal/attendance"
	"github.com/attmon/attmon/internal/log"
	"github.com/attmon/attmon/internal/store"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newQueryCmd() *cobra.Command {
	var (
		date     string
		employee string
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query attendance records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (date == "") == (employee == "") {
				return fmt.Errorf("exactly one of --date or --employee is required")
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

			var recs []attendance.Record
			if date != "" {
				recs, err = st.QueryByDate(cmd.Context(), date)
			} else {
				recs, err = st.QueryByEmployee(cmd.Context(), employee)
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tID\tNAME\tIN\tOUT\tHOURS\tSTATUS")
			total := decimal.Zero
			for i := range recs {
				r := &recs[i]
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					r.Date, r.EmployeeID, r.EmployeeName,
					clockOrDash(r.PunchIn), clockOrDash(r.PunchOut),
					r.HoursWorked, r.Status)
				total = total.Add(r.HoursDecimal())
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d record(s), %s hours total\n", len(recs), total.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "punch date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&employee, "employee", "", "employee id")
	return cmd
}

func clockOrDash(c *attendance.Clock) string {
	if c == nil {
		return "-"
	}
	return c.String()
}

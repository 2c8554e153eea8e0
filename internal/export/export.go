// Package export writes attendance snapshots to CSV or XLSX files.
// Files are written atomically so a half-written export is never visible.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/attmon/attmon/internal/attendance"
	"github.com/attmon/attmon/internal/log"
	"github.com/attmon/attmon/internal/metrics"
	"github.com/attmon/attmon/internal/sheet"
	"github.com/google/renameio/v2"
)

// Format names a supported export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a user-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want csv or xlsx)", s)
	}
}

// FileName builds the conventional export file name for a timestamp.
func FileName(format Format, now time.Time) string {
	return fmt.Sprintf("attendance_export_%s.%s", now.Format("20060102_150405"), format)
}

// WriteFile writes records to path in the given format. The directory of
// path must exist; the file appears atomically on success.
func WriteFile(path string, format Format, records []attendance.Record) error {
	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending export: %w", err)
	}
	defer pf.Cleanup() //nolint:errcheck

	switch format {
	case FormatCSV:
		err = writeCSV(pf, records)
	case FormatXLSX:
		err = sheet.WritePunches(pf, records)
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return err
	}

	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("finalize export: %w", err)
	}

	metrics.Exported(string(format))
	logger := log.WithComponent("export")
	logger.Info().
		Str(log.FieldEvent, "export.written").
		Str(log.FieldFile, filepath.Base(path)).
		Int("records", len(records)).
		Msg("export written")
	return nil
}

func writeCSV(w io.Writer, records []attendance.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sheet.CSVHeader()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range records {
		if err := cw.Write(sheet.CSVRow(records[i])); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

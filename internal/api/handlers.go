package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/attmon/attmon/internal/attendance"
	"github.com/attmon/attmon/internal/export"
	"github.com/attmon/attmon/internal/log"
	"github.com/attmon/attmon/internal/metrics"
	"github.com/attmon/attmon/internal/sheet"
	"github.com/attmon/attmon/internal/watch"
	"github.com/go-chi/chi/v5"
)

// StatusResponse reports daemon state for dashboards and scripts.
type StatusResponse struct {
	Version    string      `json:"version"`
	Watcher    watch.Stats `json:"watcher"`
	LastIngest *time.Time  `json:"last_ingest,omitempty"`
	LastError  string      `json:"last_error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Version: s.cfg.Version,
		Watcher: s.scanner.Stats(),
	}
	last, lastErr, err := s.store.LastIngest(r.Context())
	switch {
	case err != nil:
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Msg("read last ingest")
	case !last.IsZero():
		resp.LastIngest = &last
		resp.LastError = lastErr
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAttendanceByDate(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	recs, err := s.store.QueryByDate(r.Context(), date)
	if err != nil {
		s.internalError(w, r, "query attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, recordList{Date: date, Count: len(recs), Records: recs})
}

func (s *Server) handleAttendanceByEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSONError(w, http.StatusBadRequest, "bad_request", "employee id is required")
		return
	}
	recs, err := s.store.QueryByEmployee(r.Context(), id)
	if err != nil {
		s.internalError(w, r, "query employee", err)
		return
	}
	writeJSON(w, http.StatusOK, recordList{EmployeeID: id, Count: len(recs), Records: recs})
}

func (s *Server) handleEmployees(w http.ResponseWriter, r *http.Request) {
	emps, err := s.store.Employees(r.Context())
	if err != nil {
		s.internalError(w, r, "list employees", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(emps), "employees": emps})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSONError(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = n
	}
	events, err := s.store.RecentEvents(r.Context(), limit)
	if err != nil {
		s.internalError(w, r, "list events", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(events), "events": events})
}

// handleExport streams a day's records as a CSV or XLSX download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	recs, err := s.store.QueryByDate(r.Context(), date)
	if err != nil {
		s.internalError(w, r, "query attendance", err)
		return
	}

	name := export.FileName(format, time.Now().UTC())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	switch format {
	case export.FormatCSV:
		w.Header().Set("Content-Type", "text/csv")
		cw := csv.NewWriter(w)
		_ = cw.Write(sheet.CSVHeader())
		for i := range recs {
			_ = cw.Write(sheet.CSVRow(recs[i]))
		}
		cw.Flush()
	case export.FormatXLSX:
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := sheet.WritePunches(w, recs); err != nil {
			// Headers are out; all we can do is log.
			logger := log.WithComponentFromContext(r.Context(), "api")
			logger.Error().Err(err).Msg("stream xlsx export")
			return
		}
	}
	metrics.Exported(string(format))
}

// handleScan queues every workbook already sitting in the watch folder.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if err := s.scanner.ScanExisting(); err != nil {
		s.internalError(w, r, "scan watch folder", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scan queued"})
}

type recordList struct {
	Date       string              `json:"date,omitempty"`
	EmployeeID string              `json:"employee_id,omitempty"`
	Count      int                 `json:"count"`
	Records    []attendance.Record `json:"records"`
}

// dateParam reads and validates the ?date= query parameter.
func (s *Server) dateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeJSONError(w, http.StatusBadRequest, "bad_request", "date query parameter is required")
		return "", false
	}
	if _, err := time.Parse(attendance.DateLayout, date); err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad_request", "date must be YYYY-MM-DD")
		return "", false
	}
	return date, true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Error().Err(err).Msg(op)
	writeJSONError(w, http.StatusInternalServerError, "internal_error", op+" failed")
}

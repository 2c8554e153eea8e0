// Package ingest runs the per-file pipeline: wait for the dropped
// workbook to stabilise, hash it, parse it, and commit its rows.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/attmon/attmon/internal/attendance"
	"github.com/attmon/attmon/internal/log"
	"github.com/attmon/attmon/internal/metrics"
	"github.com/attmon/attmon/internal/sheet"
	"github.com/attmon/attmon/internal/store"
	"github.com/attmon/attmon/internal/watch"
	"github.com/google/uuid"
)

// Store is the slice of the attendance store the pipeline needs.
type Store interface {
	UpsertPunches(ctx context.Context, recs []attendance.Record, fileHash, fileName string) (store.Summary, error)
	LogEvent(ctx context.Context, eventType, description, fileName string) error
}

// Notifier receives per-file notifications.
type Notifier interface {
	FileProcessed(fileName string)
	FileSkipped(fileName, reason string)
	FileError(fileName string, err error)
}

// Config carries the tunables the pipeline reads per file, so a config
// reload takes effect on the next file without restarting the watcher.
type Config struct {
	FileReadyTimeout time.Duration
	FileReadyPoll    time.Duration
}

// Processor ingests attendance workbooks.
type Processor struct {
	store    Store
	notifier Notifier
	config   func() Config
}

// New creates a Processor. config is consulted per file.
func New(st Store, notifier Notifier, config func() Config) *Processor {
	return &Processor{store: st, notifier: notifier, config: config}
}

// ProcessFile runs the pipeline for one workbook. Skips (locked, vanished,
// unreadable, wrong columns) are reported via the notifier and the event
// journal and returned as errors so batch accounting counts them.
func (p *Processor) ProcessFile(ctx context.Context, path string) error {
	runID := uuid.NewString()
	ctx = log.ContextWithRunID(ctx, runID)
	logger := log.WithComponentFromContext(ctx, "ingest")

	fileName := filepath.Base(path)
	logger.Info().
		Str(log.FieldEvent, "ingest.start").
		Str(log.FieldFile, fileName).
		Msg("starting to process file")

	cfg := p.config()

	waitStart := time.Now()
	err := watch.WaitStable(ctx, path, cfg.FileReadyTimeout, cfg.FileReadyPoll)
	metrics.FileWait(time.Since(waitStart).Seconds())
	switch {
	case errors.Is(err, watch.ErrDisappeared):
		return p.skip(ctx, fileName, "File disappeared before processing")
	case errors.Is(err, watch.ErrStabilizeTimeout):
		// The original monitor proceeded after its lock timeout; a torn
		// file still fails safely at parse time.
		logger.Warn().
			Str(log.FieldFile, fileName).
			Msg("timeout waiting for file, proceeding anyway")
	case err != nil:
		return p.fail(ctx, fileName, fmt.Errorf("wait for file: %w", err))
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the watched directory
	if err != nil {
		if os.IsNotExist(err) {
			return p.skip(ctx, fileName, "File disappeared before processing")
		}
		return p.fail(ctx, fileName, fmt.Errorf("read file: %w", err))
	}
	sum := sha256.Sum256(data)
	fileHash := hex.EncodeToString(sum[:])

	recs, err := sheet.ReadPunches(path)
	if err != nil {
		var missing *sheet.MissingColumnsError
		if errors.As(err, &missing) {
			return p.skip(ctx, fileName, missing.Error())
		}
		return p.skip(ctx, fileName, "File may be corrupted or in unsupported format")
	}

	summary, err := p.store.UpsertPunches(ctx, recs, fileHash, fileName)
	if err != nil {
		metrics.StoreError("upsert")
		return p.fail(ctx, fileName, fmt.Errorf("store punches: %w", err))
	}

	metrics.FileProcessed("success")
	metrics.Records(summary.Inserted, summary.Updated, summary.Unchanged, summary.Failed)

	logger.Info().
		Str(log.FieldEvent, "ingest.success").
		Str(log.FieldFile, fileName).
		Str(log.FieldFileHash, fileHash).
		Int("total", summary.Total).
		Int("inserted", summary.Inserted).
		Int("updated", summary.Updated).
		Int("unchanged", summary.Unchanged).
		Int("failed", summary.Failed).
		Msg("successfully processed file")

	if p.notifier != nil {
		p.notifier.FileProcessed(fileName)
	}
	return nil
}

func (p *Processor) skip(ctx context.Context, fileName, reason string) error {
	logger := log.WithComponentFromContext(ctx, "ingest")
	logger.Warn().
		Str(log.FieldEvent, "ingest.skipped").
		Str(log.FieldFile, fileName).
		Str("reason", reason).
		Msg("skipped file")

	metrics.FileProcessed("skipped")
	if err := p.store.LogEvent(ctx, "skipped", reason, fileName); err != nil {
		metrics.StoreError("log_event")
		logger.Error().Err(err).Msg("failed to journal skip")
	}
	if p.notifier != nil {
		p.notifier.FileSkipped(fileName, reason)
	}
	return fmt.Errorf("skipped %s: %s", fileName, reason)
}

func (p *Processor) fail(ctx context.Context, fileName string, cause error) error {
	logger := log.WithComponentFromContext(ctx, "ingest")
	logger.Error().Err(cause).
		Str(log.FieldEvent, "ingest.failed").
		Str(log.FieldFile, fileName).
		Msg("error processing file")

	metrics.FileProcessed("failed")
	if err := p.store.LogEvent(ctx, "error", cause.Error(), fileName); err != nil {
		metrics.StoreError("log_event")
		logger.Error().Err(err).Msg("failed to journal error")
	}
	if p.notifier != nil {
		p.notifier.FileError(fileName, cause)
	}
	return cause
}

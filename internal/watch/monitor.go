// Package watch monitors a folder for dropped attendance spreadsheets and
// feeds them, batched and deduplicated, into the ingest pipeline.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/attmon/attmon/internal/log"
	"github.com/attmon/attmon/internal/metrics"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// maxConsecutiveFailures triggers a watcher rebuild, mirroring the
// observer restart behaviour this pipeline has always had.
const maxConsecutiveFailures = 3

// drainInterval is how often the queue worker looks for pending files.
const drainInterval = time.Second

// ProcessFunc ingests one file. A nil return counts the file as processed;
// any error counts it as failed for batch accounting.
type ProcessFunc func(ctx context.Context, path string) error

// BatchNotifier receives batch lifecycle events.
type BatchNotifier interface {
	BatchStarted(count int)
	BatchCompleted(success, failed int)
}

// Config parametrises a Monitor.
type Config struct {
	Dir          string
	ScanOnStart  bool
	HistoryLimit int // processed-name count that triggers a trim
	HistoryKeep  int // names kept after a trim
}

// Stats is a point-in-time snapshot for the status endpoint.
type Stats struct {
	Watching  bool   `json:"watching"`
	Dir       string `json:"dir"`
	QueueLen  int    `json:"queue_len"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
}

// Monitor watches one folder and drains queued files through a ProcessFunc.
type Monitor struct {
	cfg      Config
	process  ProcessFunc
	notifier BatchNotifier
	logger   zerolog.Logger

	mu        sync.Mutex
	pending   []string
	queued    map[string]struct{}
	processed map[string]struct{}
	history   []string // insertion order of processed names, for trimming
	processedCount,
	failedCount int
	watching bool
}

// New creates a Monitor. The notifier may be nil for one-shot use.
func New(cfg Config, process ProcessFunc, notifier BatchNotifier) *Monitor {
	return &Monitor{
		cfg:       cfg,
		process:   process,
		notifier:  notifier,
		logger:    log.WithComponent("watch"),
		queued:    make(map[string]struct{}),
		processed: make(map[string]struct{}),
	}
}

// Run watches the folder until ctx is cancelled. Repeated watcher errors
// rebuild the fsnotify watcher rather than killing the daemon.
func (m *Monitor) Run(ctx context.Context) error {
	m.setWatching(true)
	defer m.setWatching(false)

	if m.cfg.ScanOnStart {
		if err := m.ScanExisting(); err != nil {
			m.logger.Warn().Err(err).Msg("initial folder scan failed")
		}
	}

	for {
		err := m.watchOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			metrics.WatcherRestarted()
			m.logger.Warn().Err(err).
				Str(log.FieldEvent, "watch.restart").
				Str(log.FieldWatchDir, m.cfg.Dir).
				Msg("rebuilding folder watcher")
			// Brief pause so a persistent fault does not spin.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
		}
	}
}

// watchOnce runs one watcher generation: until ctx is done or the watcher
// accumulates too many consecutive failures.
func (m *Monitor) watchOnce(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify.NewWatcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(m.cfg.Dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", m.cfg.Dir, err)
	}

	m.logger.Info().
		Str(log.FieldEvent, "watch.started").
		Str(log.FieldWatchDir, m.cfg.Dir).
		Msg("started monitoring folder")

	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher event channel closed")
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				m.maybeQueue(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			metrics.WatcherError()
			failures++
			m.logger.Error().Err(err).
				Str(log.FieldEvent, "watch.error").
				Int("consecutive", failures).
				Msg("folder watcher error")
			if failures >= maxConsecutiveFailures {
				return fmt.Errorf("too many consecutive watcher failures: %w", err)
			}

		case <-ticker.C:
			failures = 0
			m.drain(ctx)
		}
	}
}

// ScanExisting queues spreadsheets already present in the folder.
func (m *Monitor) ScanExisting() error {
	entries, err := filepath.Glob(filepath.Join(m.cfg.Dir, "*.xlsx"))
	if err != nil {
		return err
	}
	for _, path := range entries {
		m.maybeQueue(path)
	}
	return nil
}

// maybeQueue queues a path if it looks like an attendance workbook and has
// not already been processed or queued.
func (m *Monitor) maybeQueue(path string) {
	name := filepath.Base(path)
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return
	}
	// Office writes "~$<name>.xlsx" lock files next to open workbooks.
	if strings.HasPrefix(name, "~$") {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, done := m.processed[name]; done {
		m.logger.Debug().Str(log.FieldFile, name).Msg("file already processed, skipping")
		return
	}
	if _, inQueue := m.queued[path]; inQueue {
		return
	}
	m.pending = append(m.pending, path)
	m.queued[path] = struct{}{}
	metrics.SetQueueDepth(len(m.pending))
	m.logger.Info().
		Str(log.FieldEvent, "watch.queued").
		Str(log.FieldFile, name).
		Msg("queued file for processing")
}

// Queue exposes maybeQueue for the rescan endpoint and one-shot commands.
func (m *Monitor) Queue(path string) {
	m.maybeQueue(path)
}

// drain processes every currently pending file as one batch.
func (m *Monitor) drain(ctx context.Context) {
	m.mu.Lock()
	batch := m.pending
	m.pending = nil
	for _, p := range batch {
		delete(m.queued, p)
	}
	metrics.SetQueueDepth(0)
	m.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	metrics.BatchDrained(len(batch))
	if len(batch) > 1 && m.notifier != nil {
		m.notifier.BatchStarted(len(batch))
		m.logger.Info().
			Str(log.FieldEvent, "watch.batch_start").
			Int(log.FieldBatchSize, len(batch)).
			Msg("processing batch of files")
	}

	success, failed := 0, 0
	var failedNames []string
	for _, path := range batch {
		if ctx.Err() != nil {
			return
		}
		name := filepath.Base(path)
		if err := m.process(ctx, path); err != nil {
			failed++
			failedNames = append(failedNames, name)
			m.bumpFailed()
			continue
		}
		success++
		m.markProcessed(name)
	}

	if m.notifier != nil && len(batch) > 1 {
		m.notifier.BatchCompleted(success, failed)
	}
	m.logger.Info().
		Str(log.FieldEvent, "watch.batch_done").
		Int("success", success).
		Int("failed", failed).
		Msg("completed batch processing")
	if len(failedNames) > 0 {
		m.logger.Warn().
			Strs("files", failedNames).
			Msg("failed files in batch")
	}
}

// markProcessed records a finished file and trims the history so the
// processed set cannot grow without bound.
func (m *Monitor) markProcessed(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.processedCount++
	if _, ok := m.processed[name]; !ok {
		m.processed[name] = struct{}{}
		m.history = append(m.history, name)
	}

	if len(m.history) > m.cfg.HistoryLimit && m.cfg.HistoryLimit > 0 {
		drop := len(m.history) - m.cfg.HistoryKeep
		m.logger.Info().
			Int("dropped", drop).
			Int("kept", m.cfg.HistoryKeep).
			Msg("trimming processed files history")
		for _, old := range m.history[:drop] {
			delete(m.processed, old)
		}
		m.history = append([]string(nil), m.history[drop:]...)
	}
}

func (m *Monitor) bumpFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failedCount++
}

func (m *Monitor) setWatching(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watching = v
}

// Stats returns a snapshot for the status endpoint.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Watching:  m.watching,
		Dir:       m.cfg.Dir,
		QueueLen:  len(m.pending),
		Processed: m.processedCount,
		Failed:    m.failedCount,
	}
}

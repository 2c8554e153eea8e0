// Package notify surfaces desktop notifications for operational events.
// Toasts are queued and shown by a single worker so ingestion never blocks
// on the desktop session.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/attmon/attmon/internal/log"
	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
)

const (
	appName = "Attendance Monitor"
	// queueSize bounds pending toasts; beyond it new ones are dropped with
	// a log line rather than stalling the caller.
	queueSize = 64
	// toastGap keeps rapid batches from stacking toasts on top of each other.
	toastGap = 200 * time.Millisecond
)

type toast struct {
	title   string
	message string
}

// Notifier queues desktop notifications. The zero value is not usable;
// construct with New.
type Notifier struct {
	enabled  bool
	iconPath string
	queue    chan toast
	logger   zerolog.Logger

	closeOnce sync.Once
	done      chan struct{}

	// send is swappable for tests.
	send func(title, message string) error
}

// New creates a Notifier and starts its worker. With enabled=false every
// event is logged instead of toasted, for headless deployments.
func New(enabled bool, iconPath string) *Notifier {
	n := &Notifier{
		enabled:  enabled,
		iconPath: iconPath,
		queue:    make(chan toast, queueSize),
		logger:   log.WithComponent("notify"),
		done:     make(chan struct{}),
	}
	n.send = func(title, message string) error {
		return beeep.Notify(title, message, n.iconPath)
	}
	go n.worker()
	return n
}

func (n *Notifier) worker() {
	defer close(n.done)
	for t := range n.queue {
		if n.enabled {
			if err := n.send(t.title, t.message); err != nil {
				n.logger.Warn().Err(err).Str("title", t.title).Msg("failed to show notification")
			}
		} else {
			n.logger.Info().Str("title", t.title).Str("message", t.message).Msg("notification (desktop disabled)")
		}
		time.Sleep(toastGap)
	}
}

// Close stops accepting toasts and waits for the worker to drain.
func (n *Notifier) Close() {
	n.closeOnce.Do(func() {
		close(n.queue)
		<-n.done
	})
}

func (n *Notifier) enqueue(title, message string) {
	select {
	case n.queue <- toast{title: title, message: message}:
	default:
		n.logger.Warn().Str("title", title).Msg("notification queue full, dropping")
	}
}

// Started announces daemon startup.
func (n *Notifier) Started() {
	n.enqueue("Application Started", appName+" is now running")
}

// Stopped announces daemon shutdown.
func (n *Notifier) Stopped() {
	n.enqueue("Application Exiting", appName+" is shutting down")
}

// DBConnected announces a successful store open.
func (n *Notifier) DBConnected() {
	n.enqueue("Database Connection", "Successfully connected to database")
}

// DBConnectFailed announces a store open failure after retries.
func (n *Notifier) DBConnectFailed(err error, attempts int) {
	plural := ""
	if attempts > 1 {
		plural = "s"
	}
	n.enqueue("Database Connection Failed",
		fmt.Sprintf("Failed after %d attempt%s: %v", attempts, plural, err))
}

// MonitoringStarted announces that folder watching began.
func (n *Notifier) MonitoringStarted(folder string) {
	n.enqueue("Monitoring Started", "Now monitoring folder: "+folder)
}

// MonitoringStopped announces that folder watching ended.
func (n *Notifier) MonitoringStopped() {
	n.enqueue("Monitoring Stopped", "Folder monitoring has been stopped")
}

// FileProcessed announces a successfully ingested file.
func (n *Notifier) FileProcessed(fileName string) {
	n.enqueue("File Processed", "Processed: "+fileName)
}

// FileSkipped announces a file that was deliberately not ingested.
func (n *Notifier) FileSkipped(fileName, reason string) {
	n.enqueue("File Processing Skipped", fmt.Sprintf("Skipped: %s - %s", fileName, reason))
}

// FileError announces an ingest failure.
func (n *Notifier) FileError(fileName string, err error) {
	n.enqueue("File Processing Error", fmt.Sprintf("Error with %s: %v", fileName, err))
}

// BatchStarted announces a multi-file batch.
func (n *Notifier) BatchStarted(count int) {
	n.enqueue("Processing Files", fmt.Sprintf("Processing %d new files", count))
}

// BatchCompleted summarises a finished batch.
func (n *Notifier) BatchCompleted(success, failed int) {
	msg := fmt.Sprintf("Processed %d files successfully", success)
	if failed > 0 {
		msg += fmt.Sprintf(", %d files failed", failed)
	}
	n.enqueue("Batch Processing Complete", msg)
}

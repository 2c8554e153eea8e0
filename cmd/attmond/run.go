package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/attmon/attmon/internal/api"
	"github.com/attmon/attmon/internal/config"
	"github.com/attmon/attmon/internal/health"
	"github.com/attmon/attmon/internal/ingest"
	"github.com/attmon/attmon/internal/log"
	"github.com/attmon/attmon/internal/notify"
	"github.com/attmon/attmon/internal/singleinstance"
	"github.com/attmon/attmon/internal/store"
	"github.com/attmon/attmon/internal/watch"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	dbConnectAttempts = 3
	dbConnectBackoff  = 3 * time.Second
	shutdownGrace     = 10 * time.Second
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the attendance daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd.Context())
		},
	}
}

func runDaemon(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(configPath, version)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: version,
	})
	logger := log.WithComponent("daemon")

	lock, err := singleinstance.Acquire("attmond")
	if err != nil {
		return err
	}
	defer lock.Release()
	logger.Info().
		Str(log.FieldEvent, "daemon.lock_acquired").
		Str("lock_file", lock.Path()).
		Msg("single-instance lock acquired")

	notifier := notify.New(cfg.Notifications, "")
	defer notifier.Close()

	st, err := openStoreWithRetry(ctx, cfg.DatabasePath, notifier)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	notifier.DBConnected()

	holder := config.NewHolder(cfg, loader, configPath)
	defer holder.Stop()
	if configPath != "" {
		if err := holder.StartWatcher(ctx); err != nil {
			logger.Warn().Err(err).Msg("config hot-reload unavailable")
		}
	}

	processor := ingest.New(st, notifier, func() ingest.Config {
		c := holder.Get()
		return ingest.Config{
			FileReadyTimeout: c.FileReadyTimeout,
			FileReadyPoll:    c.FileReadyPoll,
		}
	})

	monitor := watch.New(watch.Config{
		Dir:          cfg.WatchDir,
		ScanOnStart:  cfg.ScanOnStart,
		HistoryLimit: cfg.HistoryLimit,
		HistoryKeep:  cfg.HistoryKeep,
	}, processor.ProcessFile, notifier)

	healthM := health.NewManager(version)
	healthM.RegisterChecker(health.NewDirChecker("watch_dir", cfg.WatchDir))
	healthM.RegisterChecker(health.NewPingChecker("database", st.Ping))
	healthM.RegisterChecker(health.NewLastRunChecker(func() (time.Time, string) {
		last, summary, err := st.LastIngest(context.Background())
		if err != nil {
			return time.Time{}, ""
		}
		return last, summary
	}))

	apiServer := api.NewServer(st, monitor, healthM, cfg)
	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           apiServer.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		notifier.MonitoringStarted(cfg.WatchDir)
		defer notifier.MonitoringStopped()
		return monitor.Run(ctx)
	})

	g.Go(func() error {
		logger.Info().Str(log.FieldEvent, "daemon.listen").Str("addr", cfg.ListenAddr).Msg("http api listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info().Str(log.FieldEvent, "daemon.metrics").Str("addr", cfg.MetricsAddr).Msg("metrics listening")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("http shutdown")
		}
		if metricsSrv != nil {
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("metrics shutdown")
			}
		}
		return nil
	})

	notifier.Started()
	logger.Info().Str(log.FieldEvent, "daemon.started").Str(log.FieldWatchDir, cfg.WatchDir).Msg("daemon started")

	err = g.Wait()
	notifier.Stopped()
	logger.Info().Str(log.FieldEvent, "daemon.stopped").Msg("daemon stopped")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// openStoreWithRetry retries the initial database open so a slow disk
// mount at boot does not kill the daemon.
func openStoreWithRetry(ctx context.Context, dbPath string, notifier *notify.Notifier) (*store.Store, error) {
	logger := log.WithComponent("daemon")
	var lastErr error
	for attempt := 1; attempt <= dbConnectAttempts; attempt++ {
		st, err := store.Open(dbPath)
		if err == nil {
			return st, nil
		}
		lastErr = err
		logger.Warn().Err(err).Int("attempt", attempt).Msg("database open failed")
		if attempt < dbConnectAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(dbConnectBackoff):
			}
		}
	}
	notifier.DBConnectFailed(lastErr, dbConnectAttempts)
	return nil, lastErr
}

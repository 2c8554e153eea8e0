package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Validate rejects configurations the daemon cannot safely run with.
// It is called both at startup and before a hot reload is applied.
func Validate(cfg Config) error {
	return validate(cfg, true)
}

func validate(cfg Config, requireWatchDir bool) error {
	if requireWatchDir {
		if cfg.WatchDir == "" {
			return fmt.Errorf("watch dir is required (set watchDir or ATTMON_WATCH_DIR)")
		}
		info, err := os.Stat(cfg.WatchDir)
		if err != nil {
			return fmt.Errorf("watch dir %q: %w", cfg.WatchDir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("watch dir %q is not a directory", cfg.WatchDir)
		}
	}

	if cfg.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}
	if parent := filepath.Dir(cfg.DatabasePath); parent != "." {
		if info, err := os.Stat(parent); err != nil || !info.IsDir() {
			return fmt.Errorf("database parent directory %q does not exist", parent)
		}
	}

	if cfg.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}

	if cfg.FileReadyTimeout <= 0 {
		return fmt.Errorf("file ready timeout must be positive, got %s", cfg.FileReadyTimeout)
	}
	if cfg.FileReadyPoll <= 0 {
		return fmt.Errorf("file ready poll must be positive, got %s", cfg.FileReadyPoll)
	}
	if cfg.FileReadyPoll >= cfg.FileReadyTimeout {
		return fmt.Errorf("file ready poll (%s) must be shorter than the timeout (%s)",
			cfg.FileReadyPoll, cfg.FileReadyTimeout)
	}

	if cfg.HistoryKeep <= 0 || cfg.HistoryLimit <= 0 {
		return fmt.Errorf("history limits must be positive")
	}
	if cfg.HistoryKeep >= cfg.HistoryLimit {
		return fmt.Errorf("historyKeep (%d) must be below historyLimit (%d)",
			cfg.HistoryKeep, cfg.HistoryLimit)
	}

	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit values must be positive")
	}

	return nil
}

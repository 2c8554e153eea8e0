package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence ENV > file > defaults.
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader. An empty configPath means
// ENV-only configuration.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Load resolves the configuration: defaults, then file (strict YAML), then
// environment overrides, then validation.
func (l *Loader) Load() (Config, error) {
	return l.load(true)
}

// LoadTooling resolves the configuration for one-shot commands, which
// only need the database and so tolerate a missing watch folder.
func (l *Loader) LoadTooling() (Config, error) {
	return l.load(false)
}

func (l *Loader) load(requireWatchDir bool) (Config, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		mergeFile(&cfg, fileCfg)
	}

	mergeEnv(&cfg)

	// Keep paths absolute so a later working-directory change cannot move
	// the watch dir or database out from under the daemon.
	for _, p := range []*string{&cfg.WatchDir, &cfg.DatabasePath, &cfg.DataDir} {
		if *p == "" {
			continue
		}
		if abs, err := filepath.Abs(*p); err == nil {
			*p = abs
		}
	}

	cfg.Version = l.version

	if err := validate(cfg, requireWatchDir); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile parses a YAML config file in strict mode: unknown fields,
// multiple documents, and trailing content are all errors.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- config file path is provided by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if err == io.EOF {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

func mergeFile(cfg *Config, f *FileConfig) {
	if f == nil {
		return
	}
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setDuration := func(dst *time.Duration, src *string) {
		if src == nil {
			return
		}
		if d, err := time.ParseDuration(*src); err == nil {
			*dst = d
		}
	}

	setString(&cfg.WatchDir, f.WatchDir)
	setBool(&cfg.ScanOnStart, f.ScanOnStart)
	setString(&cfg.DatabasePath, f.DatabasePath)
	setString(&cfg.DataDir, f.DataDir)
	setString(&cfg.ListenAddr, f.ListenAddr)
	setString(&cfg.MetricsAddr, f.MetricsAddr)
	setString(&cfg.APIToken, f.APIToken)
	setInt(&cfg.RateLimitRPS, f.RateLimitRPS)
	setInt(&cfg.RateLimitBurst, f.RateLimitBurst)
	setBool(&cfg.Notifications, f.Notifications)
	setDuration(&cfg.FileReadyTimeout, f.FileReadyTimeout)
	setDuration(&cfg.FileReadyPoll, f.FileReadyPoll)
	setInt(&cfg.HistoryLimit, f.HistoryLimit)
	setInt(&cfg.HistoryKeep, f.HistoryKeep)
	setString(&cfg.LogLevel, f.LogLevel)
	setString(&cfg.LogService, f.LogService)
}

func mergeEnv(cfg *Config) {
	cfg.WatchDir = ParseString("ATTMON_WATCH_DIR", cfg.WatchDir)
	cfg.ScanOnStart = ParseBool("ATTMON_SCAN_ON_START", cfg.ScanOnStart)
	cfg.DatabasePath = ParseString("ATTMON_DB", cfg.DatabasePath)
	cfg.DataDir = ParseString("ATTMON_DATA_DIR", cfg.DataDir)
	cfg.ListenAddr = ParseString("ATTMON_LISTEN", cfg.ListenAddr)
	cfg.MetricsAddr = ParseString("ATTMON_METRICS_ADDR", cfg.MetricsAddr)
	cfg.APIToken = ParseString("ATTMON_API_TOKEN", cfg.APIToken)
	cfg.RateLimitRPS = ParseInt("ATTMON_RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = ParseInt("ATTMON_RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.Notifications = ParseBool("ATTMON_NOTIFICATIONS", cfg.Notifications)
	cfg.FileReadyTimeout = ParseDuration("ATTMON_FILE_READY_TIMEOUT", cfg.FileReadyTimeout)
	cfg.FileReadyPoll = ParseDuration("ATTMON_FILE_READY_POLL", cfg.FileReadyPoll)
	cfg.HistoryLimit = ParseInt("ATTMON_HISTORY_LIMIT", cfg.HistoryLimit)
	cfg.HistoryKeep = ParseInt("ATTMON_HISTORY_KEEP", cfg.HistoryKeep)
	cfg.LogLevel = ParseString("ATTMON_LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = ParseString("ATTMON_LOG_SERVICE", cfg.LogService)
}

// Package config loads attmon configuration with precedence
// ENV > file > defaults, validates it, and supports hot reloading.
package config

import "time"

// Config is the fully resolved daemon configuration.
type Config struct {
	// Watching and ingestion
	WatchDir    string // folder watched for .xlsx drops
	ScanOnStart bool   // queue pre-existing files at startup

	// Store and exports
	DatabasePath string // SQLite database file
	DataDir      string // export output directory

	// HTTP surfaces
	ListenAddr  string // API listen address
	MetricsAddr string // Prometheus listen address; empty disables
	APIToken    string // optional bearer token for /api routes

	// Rate limiting
	RateLimitRPS   int
	RateLimitBurst int

	// Notifications
	Notifications bool

	// File readiness
	FileReadyTimeout time.Duration // give up waiting for a stable file
	FileReadyPoll    time.Duration // stability poll interval

	// Processed-name history bounds
	HistoryLimit int // trim trigger
	HistoryKeep  int // names kept after a trim

	// Logging
	LogLevel   string
	LogService string

	// Version is stamped from the binary, never from file or env.
	Version string
}

// FileConfig mirrors the YAML config file. Pointer fields distinguish
// "absent" from zero values during merge.
type FileConfig struct {
	WatchDir    *string `yaml:"watchDir"`
	ScanOnStart *bool   `yaml:"scanOnStart"`

	DatabasePath *string `yaml:"databasePath"`
	DataDir      *string `yaml:"dataDir"`

	ListenAddr  *string `yaml:"listenAddr"`
	MetricsAddr *string `yaml:"metricsAddr"`
	APIToken    *string `yaml:"apiToken"`

	RateLimitRPS   *int `yaml:"rateLimitRPS"`
	RateLimitBurst *int `yaml:"rateLimitBurst"`

	Notifications *bool `yaml:"notifications"`

	FileReadyTimeout *string `yaml:"fileReadyTimeout"`
	FileReadyPoll    *string `yaml:"fileReadyPoll"`

	HistoryLimit *int `yaml:"historyLimit"`
	HistoryKeep  *int `yaml:"historyKeep"`

	LogLevel   *string `yaml:"logLevel"`
	LogService *string `yaml:"logService"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		WatchDir:         "",
		ScanOnStart:      true,
		DatabasePath:     "attmon.db",
		DataDir:          ".",
		ListenAddr:       ":8080",
		MetricsAddr:      "",
		RateLimitRPS:     20,
		RateLimitBurst:   40,
		Notifications:    true,
		FileReadyTimeout: 20 * time.Second,
		FileReadyPoll:    500 * time.Millisecond,
		HistoryLimit:     1000,
		HistoryKeep:      800,
		LogLevel:         "info",
		LogService:       "attmon",
	}
}

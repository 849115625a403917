package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Version is set at build time via -ldflags
// Default "dev" is used for development builds
var Version = "dev"

// Resume mode values for the player's "continue watching" prompt.
const (
	ResumeAlways = "always"
	ResumeNever  = "never"
	ResumeAsk    = "ask"
)

// Config holds all application configuration loaded from environment variables.
// All fields have sensible defaults if environment variables are not set.
type Config struct {
	// Port is the HTTP server listen port (default: 3080)
	Port string

	// LogLevel controls logging verbosity: "debug", "info", "warn", "error" (default: "info")
	LogLevel string

	// DataDir is the directory for persistent data (database, logs)
	// Default: ./config relative to the executable or cwd
	DataDir string

	// DatabasePath is the SQLite database file path (default: <DataDir>/reelhouse.db)
	DatabasePath string

	// LogDir is the directory for log files (default: <DataDir>/logs)
	LogDir string

	// LibraryRoot is the default library root to scan on startup.
	// Empty means "no library selected yet"; the remembered root in the
	// settings table takes precedence when present.
	LibraryRoot string

	// AssetDirName is the name of the generated-assets directory created
	// under the library root (default: ".reelhouse"). The scanner never
	// descends into it.
	AssetDirName string

	// FFmpegPath and FFprobePath are the transcoding engine binaries.
	// Defaults use PATH lookup.
	FFmpegPath  string
	FFprobePath string

	// ResumeMode is the playback resume preference: "always", "never" or "ask".
	ResumeMode string

	// ScanDepth is the maximum directory depth below the root the scanner
	// descends into (default: 3).
	ScanDepth int

	// CoverWidth is the pixel width of generated cover images (default: 480).
	CoverWidth int

	// PreviewWidth is the pixel width of generated preview clips (default: 480).
	PreviewWidth int

	// PreviewClipCount is how many short clips are sampled for a preview (default: 5).
	PreviewClipCount int

	// PreviewClipSeconds is the length of each sampled clip (default: 3).
	PreviewClipSeconds int

	// RescanCron is an optional cron expression for scheduled full rescans.
	// Empty disables scheduled rescans.
	RescanCron string
}

// Global singleton
var cfg *Config

// Load reads configuration from environment variables with sensible defaults.
// Should be called once at application startup.
func Load() *Config {
	// DataDir is where all persistent data lives.
	dataDir := getEnvOrDefault("REELHOUSE_DATA_DIR", "")
	if dataDir == "" {
		if execPath, err := os.Executable(); err == nil {
			dataDir = filepath.Join(filepath.Dir(execPath), "config")
		} else if cwd, err := os.Getwd(); err == nil {
			dataDir = filepath.Join(cwd, "config")
		} else {
			dataDir = "./config"
		}
	}
	if absDataDir, err := filepath.Abs(dataDir); err == nil {
		dataDir = absDataDir
	}
	os.MkdirAll(dataDir, 0755)

	dbPath := getEnvOrDefault("REELHOUSE_DATABASE_PATH", "")
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "reelhouse.db")
	}

	logDir := filepath.Join(dataDir, "logs")
	os.MkdirAll(logDir, 0755)

	cfg = &Config{
		Port:               getEnvOrDefault("REELHOUSE_PORT", "3080"),
		LogLevel:           strings.ToLower(getEnvOrDefault("REELHOUSE_LOG_LEVEL", "info")),
		DataDir:            dataDir,
		DatabasePath:       dbPath,
		LogDir:             logDir,
		LibraryRoot:        getEnvOrDefault("REELHOUSE_LIBRARY_ROOT", ""),
		AssetDirName:       getEnvOrDefault("REELHOUSE_ASSET_DIR", ".reelhouse"),
		FFmpegPath:         getEnvOrDefault("REELHOUSE_FFMPEG_PATH", "ffmpeg"),
		FFprobePath:        getEnvOrDefault("REELHOUSE_FFPROBE_PATH", "ffprobe"),
		ResumeMode:         strings.ToLower(getEnvOrDefault("REELHOUSE_RESUME_MODE", ResumeAsk)),
		ScanDepth:          getEnvIntOrDefault("REELHOUSE_SCAN_DEPTH", 3),
		CoverWidth:         getEnvIntOrDefault("REELHOUSE_COVER_WIDTH", 480),
		PreviewWidth:       getEnvIntOrDefault("REELHOUSE_PREVIEW_WIDTH", 480),
		PreviewClipCount:   getEnvIntOrDefault("REELHOUSE_PREVIEW_CLIPS", 5),
		PreviewClipSeconds: getEnvIntOrDefault("REELHOUSE_PREVIEW_CLIP_SECONDS", 3),
		RescanCron:         getEnvOrDefault("REELHOUSE_RESCAN_CRON", ""),
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		cfg.LogLevel = "info"
	}

	switch cfg.ResumeMode {
	case ResumeAlways, ResumeNever, ResumeAsk:
	default:
		cfg.ResumeMode = ResumeAsk
	}

	return cfg
}

// Get returns the current configuration. Panics if Load() hasn't been called.
func Get() *Config {
	if cfg == nil {
		panic("config.Load() must be called before config.Get()")
	}
	return cfg
}

// SetForTesting allows tests to set the global config without calling Load().
// This should ONLY be used in test code.
func SetForTesting(c *Config) {
	cfg = c
}

// NewTestConfig returns a minimal Config suitable for unit tests.
func NewTestConfig() *Config {
	return &Config{
		Port:               "8080",
		LogLevel:           "debug",
		DataDir:            "/tmp/reelhouse-test",
		DatabasePath:       "/tmp/reelhouse-test/reelhouse.db",
		LogDir:             "/tmp/reelhouse-test/logs",
		AssetDirName:       ".reelhouse",
		FFmpegPath:         "ffmpeg",
		FFprobePath:        "ffprobe",
		ResumeMode:         ResumeAsk,
		ScanDepth:          3,
		CoverWidth:         480,
		PreviewWidth:       480,
		PreviewClipCount:   5,
		PreviewClipSeconds: 3,
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns the environment variable as an int or the default if not set/invalid.
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// FlagOverrides holds command-line flag values that can override environment variables
type FlagOverrides struct {
	Port         *string
	LogLevel     *string
	DataDir      *string
	DatabasePath *string
	LibraryRoot  *string
	FFmpegPath   *string
	FFprobePath  *string
	RescanCron   *string
}

// ApplyFlags applies command-line flag overrides to the configuration.
// Should be called after Load() and after flag parsing.
// Only non-nil values with non-default flag values will override.
func ApplyFlags(flags FlagOverrides) {
	if cfg == nil {
		return
	}

	if flags.Port != nil && *flags.Port != "" {
		cfg.Port = *flags.Port
	}
	if flags.LogLevel != nil && *flags.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(*flags.LogLevel)
	}
	if flags.DataDir != nil && *flags.DataDir != "" {
		cfg.DataDir = *flags.DataDir
	}
	if flags.DatabasePath != nil && *flags.DatabasePath != "" {
		cfg.DatabasePath = *flags.DatabasePath
	}
	if flags.LibraryRoot != nil && *flags.LibraryRoot != "" {
		cfg.LibraryRoot = *flags.LibraryRoot
	}
	if flags.FFmpegPath != nil && *flags.FFmpegPath != "" {
		cfg.FFmpegPath = *flags.FFmpegPath
	}
	if flags.FFprobePath != nil && *flags.FFprobePath != "" {
		cfg.FFprobePath = *flags.FFprobePath
	}
	if flags.RescanCron != nil && *flags.RescanCron != "" {
		cfg.RescanCron = *flags.RescanCron
	}
}

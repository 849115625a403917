package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/maszaen/reelhouse/internal/api"
	"github.com/maszaen/reelhouse/internal/config"
	"github.com/maszaen/reelhouse/internal/db"
	"github.com/maszaen/reelhouse/internal/eventbus"
	"github.com/maszaen/reelhouse/internal/ffmpeg"
	"github.com/maszaen/reelhouse/internal/library"
	"github.com/maszaen/reelhouse/internal/logger"
	"github.com/maszaen/reelhouse/internal/metrics"
	"github.com/maszaen/reelhouse/internal/notifier"
	"github.com/maszaen/reelhouse/internal/progress"
	"github.com/maszaen/reelhouse/internal/services"
)

func main() {
	// Define command line flags (these override environment variables)
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.BoolVar(showVersion, "v", false, "Print version and exit (shorthand)")

	// Configuration flags - all can also be set via environment variables (REELHOUSE_*)
	flagPort := flag.String("port", "", "HTTP server port (env: REELHOUSE_PORT, default: 3080)")
	flagLogLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (env: REELHOUSE_LOG_LEVEL, default: info)")
	flagDataDir := flag.String("data-dir", "", "Data directory path (env: REELHOUSE_DATA_DIR)")
	flagDatabasePath := flag.String("database-path", "", "Database file path (env: REELHOUSE_DATABASE_PATH)")
	flagLibraryRoot := flag.String("library-root", "", "Library root to scan on startup (env: REELHOUSE_LIBRARY_ROOT)")
	flagFFmpegPath := flag.String("ffmpeg-path", "", "Path to the ffmpeg binary (env: REELHOUSE_FFMPEG_PATH)")
	flagFFprobePath := flag.String("ffprobe-path", "", "Path to the ffprobe binary (env: REELHOUSE_FFPROBE_PATH)")
	flagRescanCron := flag.String("rescan-cron", "", "Cron expression for scheduled rescans (env: REELHOUSE_RESCAN_CRON)")

	flag.Parse()

	if *showVersion {
		fmt.Printf("Reelhouse %s\n", config.Version)
		os.Exit(0)
	}

	// Load configuration from environment variables, then apply flag overrides
	config.Load()
	config.ApplyFlags(config.FlagOverrides{
		Port:         flagPort,
		LogLevel:     flagLogLevel,
		DataDir:      flagDataDir,
		DatabasePath: flagDatabasePath,
		LibraryRoot:  flagLibraryRoot,
		FFmpegPath:   flagFFmpegPath,
		FFprobePath:  flagFFprobePath,
		RescanCron:   flagRescanCron,
	})
	cfg := config.Get()

	logger.Init(cfg.LogDir)
	logger.SetLevel(cfg.LogLevel)

	logger.Infof("========================================")
	logger.Infof("Starting Reelhouse %s...", config.Version)
	logger.Infof("========================================")
	logger.Infof("Configuration:")
	logger.Infof("  Port: %s", cfg.Port)
	logger.Infof("  Log Level: %s", cfg.LogLevel)
	logger.Infof("  Data Directory: %s", cfg.DataDir)
	logger.Infof("  Database: %s", cfg.DatabasePath)
	logger.Infof("  Asset Directory Name: %s", cfg.AssetDirName)
	logger.Infof("  FFmpeg: %s / %s", cfg.FFmpegPath, cfg.FFprobePath)
	if cfg.RescanCron != "" {
		logger.Infof("  Scheduled Rescan: %s", cfg.RescanCron)
	}

	// Initialize Database
	logger.Infof("Initializing database: %s", cfg.DatabasePath)
	repo, err := db.NewRepository(cfg.DatabasePath)
	if err != nil {
		logger.Errorf("Failed to initialize database: %v", err)
		os.Exit(1)
	}
	logger.Infof("✓ Database initialized successfully")

	stopCheckpoints := repo.StartPeriodicCheckpoint(5 * time.Minute)

	// Daily maintenance pass: prune old events and finished repair journal rows
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := repo.RunMaintenance(90); err != nil {
				logger.Errorf("Scheduled maintenance failed: %v", err)
			}
		}
	}()

	// Initialize Event Bus
	logger.Infof("Initializing Event Bus...")
	eb := eventbus.NewEventBus(repo.DB)
	logger.Infof("✓ Event Bus initialized")

	// Transcoding engine and the system-wide transcode slot
	engine := ffmpeg.NewEngine(cfg.FFmpegPath, cfg.FFprobePath)
	engine.CheckTools()
	transcodeSem := services.NewSemaphore(1)

	// Initialize core services
	logger.Infof("Initializing core services...")
	resolver := library.NewResolver(cfg.AssetDirName)
	scanner := library.NewScanner(resolver, cfg.ScanDepth)
	settingsService := services.NewSettingsService(repo.DB)
	libraryService := services.NewLibraryService(scanner, settingsService, eb)
	logger.Infof("✓ Library Service (scans and indexes the media tree)")

	generatorService := services.NewGeneratorService(engine, eb, transcodeSem, services.GeneratorOptions{
		CoverWidth:         cfg.CoverWidth,
		PreviewWidth:       cfg.PreviewWidth,
		PreviewClipCount:   cfg.PreviewClipCount,
		PreviewClipSeconds: float64(cfg.PreviewClipSeconds),
	})
	logger.Infof("✓ Generator Service (covers and preview clips)")

	repairService := services.NewRepairService(repo.DB, engine, eb, transcodeSem)
	logger.Infof("✓ Repair Service (remux / reencode / fpsfix)")

	progressStore := progress.NewStore(repo.DB, nil)
	logger.Infof("✓ Playback progress store")

	schedulerService := services.NewSchedulerService(libraryService)

	// Initialize Notifier Service
	notifierService := notifier.NewNotifierService(eb, settingsService)
	notifierService.Start()

	// Initialize Metrics Service (Prometheus metrics)
	metricsService := metrics.NewMetricsService(eb)
	metricsService.Start()
	logger.Infof("✓ Metrics Service (Prometheus endpoint at /metrics)")

	// Recover from a previous crash: finish or fail interrupted repairs and
	// sweep orphaned generator temp files.
	logger.Infof("Running startup recovery...")
	repairService.RecoverPending()

	rememberedRoot, err := settingsService.Get(services.SettingLibraryRoot)
	if err != nil {
		logger.Errorf("Failed to read remembered library root: %v", err)
	}
	if rememberedRoot == "" && cfg.LibraryRoot != "" {
		rememberedRoot = cfg.LibraryRoot
	}
	if rememberedRoot != "" {
		generatorService.CleanupTemp(filepath.Join(rememberedRoot, cfg.AssetDirName))

		go func() {
			if _, err := libraryService.ScanRoot(rememberedRoot); err != nil {
				logger.Errorf("Startup scan of %s failed: %v", rememberedRoot, err)
			}
		}()
	}

	schedulerService.Start(cfg.RescanCron)

	// Start API Server
	logger.Infof("Initializing REST API and WebSocket server...")
	apiServer := api.NewRESTServer(api.ServerDeps{
		DB:         repo.DB,
		Repository: repo,
		EventBus:   eb,
		Library:    libraryService,
		Generator:  generatorService,
		Repairer:   repairService,
		Settings:   settingsService,
		Progress:   progressStore,
		Metrics:    metricsService,
	})
	go func() {
		addr := ":" + cfg.Port
		if err := apiServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Failed to start API server: %v", err)
			os.Exit(1)
		}
	}()

	logger.Infof("========================================")
	logger.Infof("✓ Reelhouse %s started successfully", config.Version)
	logger.Infof("✓ Server listening on port %s", cfg.Port)
	logger.Infof("========================================")

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Infof("Received signal %v, initiating graceful shutdown...", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Shutdown in reverse order of startup
	schedulerService.Stop()
	logger.Infof("✓ Scheduler stopped")

	eb.Shutdown()
	logger.Infof("✓ Event Bus stopped")

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("API Server shutdown error: %v", err)
	} else {
		logger.Infof("✓ API Server stopped")
	}

	stopCheckpoints()
	if err := repo.GracefulClose(); err != nil {
		logger.Errorf("Failed to close database connection: %v", err)
	} else {
		logger.Infof("✓ Database connection closed")
	}

	logger.Infof("✓ Reelhouse shutdown complete")
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maszaen/reelhouse/internal/config"
	"github.com/maszaen/reelhouse/internal/domain"
	"github.com/maszaen/reelhouse/internal/logger"
)

// formatUptime returns a human-readable uptime string
func formatUptime(uptime time.Duration) string {
	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func (s *RESTServer) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "reelhouse",
		"version": config.Version,
	})
}

// handleHealth reports readiness: the process is up and the database answers.
func (s *RESTServer) handleHealth(c *gin.Context) {
	status := "healthy"
	httpStatus := http.StatusOK

	dbStatus := "ok"
	if err := s.db.Ping(); err != nil {
		logger.Errorf("Health check: database ping failed: %v", err)
		dbStatus = "unreachable"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":   status,
		"database": dbStatus,
		"uptime":   formatUptime(time.Since(s.startTime)),
		"version":  config.Version,
	})
}

// handleSystemInfo returns runtime environment information
func (s *RESTServer) handleSystemInfo(c *gin.Context) {
	cfg := config.Get()
	uptime := time.Since(s.startTime)

	info := gin.H{
		"version":        config.Version,
		"os":             runtime.GOOS,
		"arch":           runtime.GOARCH,
		"go_version":     runtime.Version(),
		"uptime":         formatUptime(uptime),
		"uptime_seconds": int64(uptime.Seconds()),
		"started_at":     s.startTime,
		"config": gin.H{
			"port":          cfg.Port,
			"log_level":     cfg.LogLevel,
			"data_dir":      cfg.DataDir,
			"database_path": cfg.DatabasePath,
			"asset_dir":     cfg.AssetDirName,
			"ffmpeg_path":   cfg.FFmpegPath,
			"ffprobe_path":  cfg.FFprobePath,
			"scan_depth":    cfg.ScanDepth,
			"rescan_cron":   cfg.RescanCron,
		},
	}

	if s.repo != nil {
		if stats, err := s.repo.GetDatabaseStats(); err == nil {
			info["database"] = stats
		} else {
			logger.Debugf("Failed to collect database stats: %v", err)
		}
	}

	c.JSON(http.StatusOK, info)
}

// handleBackup writes a point-in-time snapshot of the database next to it.
func (s *RESTServer) handleBackup(c *gin.Context) {
	if s.repo == nil {
		respondWithError(c, http.StatusServiceUnavailable, "Backups not available", nil)
		return
	}

	backupPath, err := s.repo.Backup(config.Get().DatabasePath)
	if err != nil {
		logger.Errorf("Database backup failed: %v", err)
		respondWithError(c, http.StatusInternalServerError, "Backup failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"backup_path": backupPath})
}

// handleEvents returns the most recent persisted events, newest first.
func (s *RESTServer) handleEvents(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			respondBadRequest(c, fmt.Errorf("limit must be between 1 and 1000"), true)
			return
		}
		limit = parsed
	}

	rows, err := s.db.Query(`
		SELECT id, aggregate_type, aggregate_id, event_type, event_data, event_version, created_at
		FROM events ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		var e domain.Event
		var rawData string
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &rawData, &e.EventVersion, &e.CreatedAt); err != nil {
			respondDatabaseError(c, err)
			return
		}
		if err := json.Unmarshal([]byte(rawData), &e.EventData); err != nil {
			logger.Debugf("Skipping malformed event data for event %d: %v", e.ID, err)
		}
		events = append(events, e)
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

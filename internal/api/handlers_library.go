package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maszaen/reelhouse/internal/domain"
	"github.com/maszaen/reelhouse/internal/logger"
)

type scanRequest struct {
	Root string `json:"root"`
}

// handleScan runs a full library scan. An explicit root in the body is
// scanned and remembered; an empty body rescans the remembered root.
func (s *RESTServer) handleScan(c *gin.Context) {
	var req scanRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err, false)
			return
		}
	}

	var (
		result *domain.ScanResult
		err    error
	)
	if req.Root != "" {
		result, err = s.library.ScanRoot(req.Root)
	} else {
		result, err = s.library.ScanDefault()
	}
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, "Scan failed", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleMovies returns the latest scan result without rescanning.
func (s *RESTServer) handleMovies(c *gin.Context) {
	result := s.library.Latest()
	if result == nil {
		result = &domain.ScanResult{Entries: []domain.MovieEntry{}}
	}
	c.JSON(http.StatusOK, result)
}

type generateRequest struct {
	// VideoPaths limits generation to specific entries; empty means all.
	VideoPaths []string `json:"videoPaths"`
	// Kinds limits generation to "cover" and/or "preview"; empty means both.
	Kinds []string `json:"kinds"`
}

// handleGenerate queues asset generation for the latest scan result and
// returns immediately. Progress streams over the WebSocket.
func (s *RESTServer) handleGenerate(c *gin.Context) {
	var req generateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err, false)
			return
		}
	}

	kinds := make(map[domain.AssetKind]bool, len(req.Kinds))
	for _, k := range req.Kinds {
		switch domain.AssetKind(k) {
		case domain.AssetCover, domain.AssetPreview:
			kinds[domain.AssetKind(k)] = true
		default:
			respondBadRequest(c, fmt.Errorf("unknown asset kind %q", k), true)
			return
		}
	}

	latest := s.library.Latest()
	if latest == nil || len(latest.Entries) == 0 {
		respondWithError(c, http.StatusConflict, "No library scanned yet", nil)
		return
	}

	entries := latest.Entries
	if len(req.VideoPaths) > 0 {
		wanted := make(map[string]bool, len(req.VideoPaths))
		for _, p := range req.VideoPaths {
			wanted[p] = true
		}
		var filtered []domain.MovieEntry
		for _, e := range entries {
			if wanted[e.VideoPath] {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) == 0 {
			respondNotFound(c, "Requested entries")
			return
		}
		entries = filtered
	}

	// Copy so the background batch never shares slices with the live result
	batch := make([]domain.MovieEntry, len(entries))
	copy(batch, entries)

	go func() {
		updated, err := s.generator.Generate(context.Background(), batch, kinds)
		if err != nil {
			logger.Errorf("Generation batch failed to start: %v", err)
			return
		}
		s.library.UpdateEntries(updated)
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "started",
		"entries": len(batch),
	})
}

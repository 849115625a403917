package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maszaen/reelhouse/internal/domain"
	"github.com/maszaen/reelhouse/internal/logger"
)

// resumeRatio is the watched fraction below which a position is not worth
// keeping. Saves under it clear any existing record instead.
const resumeRatio = 0.2

type playbackSaveRequest struct {
	VideoPath       string  `json:"videoPath" binding:"required"`
	PositionSeconds float64 `json:"positionSeconds"`
	DurationSeconds float64 `json:"durationSeconds"`
	// Finished marks end-of-playback; the record is cleared.
	Finished bool `json:"finished"`
}

// handlePlaybackGet returns one record when ?path= is given, otherwise all
// records, most recently watched first.
func (s *RESTServer) handlePlaybackGet(c *gin.Context) {
	if path := c.Query("path"); path != "" {
		rec, ok, err := s.progress.Get(path)
		if err != nil {
			respondDatabaseError(c, err)
			return
		}
		if !ok {
			respondNotFound(c, "Playback record")
			return
		}
		c.JSON(http.StatusOK, rec)
		return
	}

	records, err := s.progress.All()
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// handlePlaybackSave applies the resume heuristics: positions in the first
// fifth of the video and finished playbacks clear the record, everything
// else is persisted (throttled per path by the store).
func (s *RESTServer) handlePlaybackSave(c *gin.Context) {
	var req playbackSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err, false)
		return
	}
	if req.PositionSeconds < 0 || req.DurationSeconds < 0 {
		respondBadRequest(c, fmt.Errorf("positionSeconds and durationSeconds must not be negative"), true)
		return
	}

	finished := req.Finished || (req.DurationSeconds > 0 && req.PositionSeconds >= req.DurationSeconds)
	belowThreshold := req.DurationSeconds > 0 && req.PositionSeconds/req.DurationSeconds < resumeRatio

	if finished || belowThreshold {
		if err := s.progress.Clear(req.VideoPath); err != nil {
			respondDatabaseError(c, err)
			return
		}
		s.publishPlayback(domain.PlaybackCleared, req.VideoPath, map[string]interface{}{
			"video_path": req.VideoPath,
			"finished":   finished,
		})
		c.JSON(http.StatusOK, gin.H{"saved": false, "cleared": true})
		return
	}

	saved, err := s.progress.Save(req.VideoPath, req.PositionSeconds, req.DurationSeconds)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	if saved {
		s.publishPlayback(domain.PlaybackSaved, req.VideoPath, map[string]interface{}{
			"video_path":       req.VideoPath,
			"position_seconds": req.PositionSeconds,
		})
	}

	c.JSON(http.StatusOK, gin.H{"saved": saved, "cleared": false})
}

// handlePlaybackClear removes the record for ?path=.
func (s *RESTServer) handlePlaybackClear(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		respondBadRequest(c, fmt.Errorf("path query parameter is required"), true)
		return
	}

	if err := s.progress.Clear(path); err != nil {
		respondDatabaseError(c, err)
		return
	}
	s.publishPlayback(domain.PlaybackCleared, path, map[string]interface{}{
		"video_path": path,
	})

	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func (s *RESTServer) publishPlayback(eventType domain.EventType, videoPath string, data map[string]interface{}) {
	err := s.eventBus.Publish(domain.Event{
		AggregateType: "playback",
		AggregateID:   videoPath,
		EventType:     eventType,
		EventData:     data,
	})
	if err != nil {
		logger.Errorf("Failed to publish %s: %v", eventType, err)
	}
}

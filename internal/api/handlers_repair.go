package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maszaen/reelhouse/internal/services"
)

type repairRequest struct {
	VideoPath string `json:"videoPath" binding:"required"`
}

// handleRepair runs one repair synchronously and returns the final path,
// which may differ from the input when the container extension changed.
func (s *RESTServer) handleRepair(c *gin.Context) {
	mode := services.RepairMode(c.Param("mode"))
	switch mode {
	case services.RepairRemux, services.RepairReencode, services.RepairFPSFix:
	default:
		respondBadRequest(c, fmt.Errorf("unknown repair mode %q", c.Param("mode")), true)
		return
	}

	var req repairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err, false)
		return
	}

	newPath, err := s.repairer.Repair(c.Request.Context(), req.VideoPath, mode)
	if err != nil {
		stage := "unknown"
		var repairErr *services.RepairError
		if errors.As(err, &repairErr) {
			stage = repairErr.Stage
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
			"stage": stage,
		})
		return
	}

	s.library.ReplaceVideoPath(req.VideoPath, newPath)

	c.JSON(http.StatusOK, gin.H{
		"videoPath": req.VideoPath,
		"newPath":   newPath,
		"mode":      string(mode),
	})
}

package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maszaen/reelhouse/internal/config"
	"github.com/maszaen/reelhouse/internal/services"
)

type settingsResponse struct {
	LibraryRoot  string `json:"libraryRoot"`
	ResumeMode   string `json:"resumeMode"`
	NotifyURLSet bool   `json:"notifyUrlSet"`
}

type settingsUpdateRequest struct {
	LibraryRoot *string `json:"libraryRoot"`
	ResumeMode  *string `json:"resumeMode"`
	NotifyURL   *string `json:"notifyUrl"`
}

// handleSettingsGet returns the persisted settings. The notification URL is
// never echoed back, only whether one is configured.
func (s *RESTServer) handleSettingsGet(c *gin.Context) {
	root, err := s.settings.Get(services.SettingLibraryRoot)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}

	resumeMode, err := s.settings.Get(services.SettingResumeMode)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	if resumeMode == "" {
		resumeMode = config.Get().ResumeMode
	}

	notifyURL, err := s.settings.Get(services.SettingNotifyURL)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, settingsResponse{
		LibraryRoot:  root,
		ResumeMode:   resumeMode,
		NotifyURLSet: notifyURL != "",
	})
}

// handleSettingsUpdate updates any subset of the settings. Absent fields are
// left untouched; an empty notifyUrl disables notifications.
func (s *RESTServer) handleSettingsUpdate(c *gin.Context) {
	var req settingsUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err, false)
		return
	}

	if req.ResumeMode != nil {
		switch *req.ResumeMode {
		case config.ResumeAlways, config.ResumeNever, config.ResumeAsk:
		default:
			respondBadRequest(c, fmt.Errorf("resumeMode must be %q, %q or %q",
				config.ResumeAlways, config.ResumeNever, config.ResumeAsk), true)
			return
		}
		if err := s.settings.Set(services.SettingResumeMode, *req.ResumeMode); err != nil {
			respondDatabaseError(c, err)
			return
		}
	}

	if req.LibraryRoot != nil {
		if err := s.settings.Set(services.SettingLibraryRoot, *req.LibraryRoot); err != nil {
			respondDatabaseError(c, err)
			return
		}
	}

	if req.NotifyURL != nil {
		if err := s.settings.Set(services.SettingNotifyURL, *req.NotifyURL); err != nil {
			respondDatabaseError(c, err)
			return
		}
	}

	s.handleSettingsGet(c)
}

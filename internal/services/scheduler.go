package services

import (
	"github.com/robfig/cron/v3"

	"github.com/maszaen/reelhouse/internal/logger"
)

// SchedulerService runs periodic full rescans of the remembered library
// root. Disabled when no cron expression is configured.
type SchedulerService struct {
	library *LibraryService
	cron    *cron.Cron
}

// NewSchedulerService creates a SchedulerService.
func NewSchedulerService(library *LibraryService) *SchedulerService {
	return &SchedulerService{
		library: library,
		cron:    cron.New(),
	}
}

// Start registers the rescan job and starts the cron loop. An invalid
// expression is logged and scheduling is skipped.
func (s *SchedulerService) Start(cronExpr string) {
	if cronExpr == "" {
		logger.Debugf("Scheduled rescans disabled")
		return
	}

	_, err := s.cron.AddFunc(cronExpr, func() {
		logger.Infof("Scheduled rescan starting")
		if _, err := s.library.ScanDefault(); err != nil {
			logger.Errorf("Scheduled rescan failed: %v", err)
		}
	})
	if err != nil {
		logger.Errorf("Invalid rescan cron expression %q: %v", cronExpr, err)
		return
	}

	s.cron.Start()
	logger.Infof("Scheduled rescans enabled: %s", cronExpr)
}

// Stop halts the cron loop. Running jobs finish on their own.
func (s *SchedulerService) Stop() {
	s.cron.Stop()
}

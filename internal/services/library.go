package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maszaen/reelhouse/internal/domain"
	"github.com/maszaen/reelhouse/internal/eventbus"
	"github.com/maszaen/reelhouse/internal/library"
	"github.com/maszaen/reelhouse/internal/logger"
)

// LibraryService runs scans and keeps the most recent result in memory for
// the API layer. The remembered library root lives in the settings table and
// survives restarts.
type LibraryService struct {
	scanner  *library.Scanner
	settings *SettingsService
	eventBus eventbus.Publisher

	mu     sync.RWMutex
	latest *domain.ScanResult
}

// NewLibraryService creates a LibraryService.
func NewLibraryService(scanner *library.Scanner, settings *SettingsService, eb eventbus.Publisher) *LibraryService {
	return &LibraryService{
		scanner:  scanner,
		settings: settings,
		eventBus: eb,
	}
}

// ScanDefault scans the remembered library root. Returns an empty result
// when no root has been selected yet.
func (s *LibraryService) ScanDefault() (*domain.ScanResult, error) {
	root, err := s.settings.Get(SettingLibraryRoot)
	if err != nil {
		return nil, err
	}
	if root == "" {
		logger.Infof("No library root selected yet")
		return &domain.ScanResult{Entries: []domain.MovieEntry{}}, nil
	}
	return s.ScanRoot(root)
}

// ScanRoot scans an explicitly chosen root, remembers it for future loads,
// and publishes scan lifecycle events.
func (s *LibraryService) ScanRoot(root string) (*domain.ScanResult, error) {
	scanID := uuid.New().String()
	start := time.Now()

	s.publish(domain.ScanStarted, scanID, map[string]interface{}{"root": root})

	result, err := s.scanner.Scan(root)
	if err != nil {
		s.publish(domain.ScanFailed, scanID, map[string]interface{}{
			"root":  root,
			"error": err.Error(),
		})
		return nil, err
	}

	result.NeedsGeneration = library.DetectNeeds(result.Entries)

	if err := s.settings.Set(SettingLibraryRoot, root); err != nil {
		logger.Warnf("Failed to remember library root: %v", err)
	}

	// Store a private copy; the returned result belongs to the caller and
	// must never alias the slices that UpdateEntries writes into.
	s.mu.Lock()
	s.latest = copyResult(result)
	s.mu.Unlock()

	s.publish(domain.ScanCompleted, scanID, map[string]interface{}{
		"root":             root,
		"entries":          len(result.Entries),
		"needs_covers":     len(result.NeedsGeneration.Covers),
		"needs_previews":   len(result.NeedsGeneration.Previews),
		"duration_seconds": time.Since(start).Seconds(),
	})

	return result, nil
}

// Latest returns a snapshot of the most recent scan result, or nil before
// the first scan. Each caller gets its own entry slices, so a snapshot being
// serialized is never mutated by a concurrent UpdateEntries or
// ReplaceVideoPath.
func (s *LibraryService) Latest() *domain.ScanResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil
	}
	return copyResult(s.latest)
}

func copyResult(r *domain.ScanResult) *domain.ScanResult {
	return &domain.ScanResult{
		Root:    r.Root,
		Entries: append([]domain.MovieEntry(nil), r.Entries...),
		NeedsGeneration: domain.NeedsGeneration{
			Covers:   append([]domain.MovieEntry(nil), r.NeedsGeneration.Covers...),
			Previews: append([]domain.MovieEntry(nil), r.NeedsGeneration.Previews...),
		},
	}
}

// UpdateEntries merges regenerated entries back into the latest result,
// keyed by video path.
func (s *LibraryService) UpdateEntries(updated []domain.MovieEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return
	}

	byPath := make(map[string]domain.MovieEntry, len(updated))
	for _, e := range updated {
		byPath[e.VideoPath] = e
	}
	for i := range s.latest.Entries {
		if e, ok := byPath[s.latest.Entries[i].VideoPath]; ok {
			s.latest.Entries[i] = e
		}
	}
	s.latest.NeedsGeneration = library.DetectNeeds(s.latest.Entries)
}

// ReplaceVideoPath rewires an entry after a repair renamed its file. The
// old playback record is intentionally left behind; records are keyed by
// absolute path and are not migrated.
func (s *LibraryService) ReplaceVideoPath(oldPath, newPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return
	}
	for i := range s.latest.Entries {
		if s.latest.Entries[i].VideoPath == oldPath {
			s.latest.Entries[i].VideoPath = newPath
			return
		}
	}
}

func (s *LibraryService) publish(eventType domain.EventType, scanID string, data map[string]interface{}) {
	err := s.eventBus.Publish(domain.Event{
		AggregateType: "scan",
		AggregateID:   scanID,
		EventType:     eventType,
		EventData:     data,
	})
	if err != nil {
		logger.Errorf("Failed to publish %s: %v", eventType, err)
	}
}

package library

import (
	"os"

	"github.com/maszaen/reelhouse/internal/domain"
)

// DetectNeeds inspects each entry and decides which assets must still be
// generated. Entries whose generated files already exist on disk adopt them
// in place and are never re-queued, so repeated scans are idempotent.
// Entries are mutated through the slice.
func DetectNeeds(entries []domain.MovieEntry) domain.NeedsGeneration {
	needs := domain.NeedsGeneration{
		Covers:   []domain.MovieEntry{},
		Previews: []domain.MovieEntry{},
	}

	for i := range entries {
		entry := &entries[i]

		if !entry.HasCover() {
			if fileExists(entry.GeneratedCoverPath) {
				entry.CoverPath = entry.GeneratedCoverPath
			} else {
				needs.Covers = append(needs.Covers, *entry)
			}
		}

		if !entry.HasPreview() {
			if fileExists(entry.GeneratedPreviewPath) {
				entry.PreviewPath = entry.GeneratedPreviewPath
			} else {
				needs.Previews = append(needs.Previews, *entry)
			}
		}
	}

	return needs
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

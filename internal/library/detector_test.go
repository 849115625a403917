package library

import (
	"path/filepath"
	"testing"

	"github.com/maszaen/reelhouse/internal/domain"
)

func TestDetectNeedsQueuesMissingAssets(t *testing.T) {
	dir := t.TempDir()
	entries := []domain.MovieEntry{{
		DisplayName:          "film",
		VideoPath:            filepath.Join(dir, "film.mp4"),
		GeneratedCoverPath:   filepath.Join(dir, "assets", "cover.jpg"),
		GeneratedPreviewPath: filepath.Join(dir, "assets", "preview.mp4"),
	}}

	needs := DetectNeeds(entries)
	if len(needs.Covers) != 1 || len(needs.Previews) != 1 {
		t.Errorf("needs = %d covers, %d previews, want 1 and 1", len(needs.Covers), len(needs.Previews))
	}
}

func TestDetectNeedsAdoptsGeneratedAssets(t *testing.T) {
	dir := t.TempDir()
	coverPath := filepath.Join(dir, "assets", "cover.jpg")
	previewPath := filepath.Join(dir, "assets", "preview.mp4")
	writeFile(t, coverPath)
	writeFile(t, previewPath)

	entries := []domain.MovieEntry{{
		DisplayName:          "film",
		VideoPath:            filepath.Join(dir, "film.mp4"),
		GeneratedCoverPath:   coverPath,
		GeneratedPreviewPath: previewPath,
	}}

	needs := DetectNeeds(entries)
	if len(needs.Covers) != 0 || len(needs.Previews) != 0 {
		t.Errorf("generated assets on disk must not be re-queued: %+v", needs)
	}
	if entries[0].CoverPath != coverPath {
		t.Errorf("cover not adopted: %s", entries[0].CoverPath)
	}
	if entries[0].PreviewPath != previewPath {
		t.Errorf("preview not adopted: %s", entries[0].PreviewPath)
	}
}

func TestDetectNeedsRespectsExistingAssets(t *testing.T) {
	dir := t.TempDir()
	entries := []domain.MovieEntry{{
		DisplayName:          "film",
		VideoPath:            filepath.Join(dir, "film.mp4"),
		CoverPath:            filepath.Join(dir, "film.jpg"),
		PreviewPath:          filepath.Join(dir, ".reelhouse", "film_preview.mp4"),
		GeneratedCoverPath:   filepath.Join(dir, "assets", "cover.jpg"),
		GeneratedPreviewPath: filepath.Join(dir, "assets", "preview.mp4"),
	}}

	needs := DetectNeeds(entries)
	if len(needs.Covers) != 0 || len(needs.Previews) != 0 {
		t.Errorf("entries with existing assets must not be queued: %+v", needs)
	}
}

func TestDetectNeedsIdempotent(t *testing.T) {
	dir := t.TempDir()
	entries := []domain.MovieEntry{{
		DisplayName:          "film",
		VideoPath:            filepath.Join(dir, "film.mp4"),
		GeneratedCoverPath:   filepath.Join(dir, "assets", "cover.jpg"),
		GeneratedPreviewPath: filepath.Join(dir, "assets", "preview.mp4"),
	}}

	first := DetectNeeds(entries)
	if len(first.Covers) != 1 {
		t.Fatalf("expected cover queued on first pass")
	}

	// Simulate generation completing, then re-detect.
	writeFile(t, entries[0].GeneratedCoverPath)
	writeFile(t, entries[0].GeneratedPreviewPath)
	entries[0].CoverPath = ""
	entries[0].PreviewPath = ""

	second := DetectNeeds(entries)
	if len(second.Covers) != 0 || len(second.Previews) != 0 {
		t.Errorf("second detection must be empty after generation: %+v", second)
	}
}

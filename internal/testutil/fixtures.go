package testutil

import (
	"os"
	"path/filepath"

	"github.com/maszaen/reelhouse/internal/domain"
)

func writePlaceholder(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("placeholder"), 0644)
}

// WriteVideoFile creates a dummy video file (and parent directories) for
// scanner and generator tests.
func WriteVideoFile(path string, sizeBytes int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, make([]byte, sizeBytes), 0644)
}

// NewMovieEntry builds a file-based MovieEntry with generated asset paths
// rooted under assetDir.
func NewMovieEntry(videoPath, assetDir string) domain.MovieEntry {
	return domain.MovieEntry{
		DisplayName:          filepath.Base(videoPath),
		VideoPath:            videoPath,
		ScanMode:             domain.FileBased,
		GeneratedCoverPath:   filepath.Join(assetDir, "cover.jpg"),
		GeneratedPreviewPath: filepath.Join(assetDir, "preview.mp4"),
	}
}

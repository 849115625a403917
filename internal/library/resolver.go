// Package library discovers playable videos under a root directory and
// derives the canonical locations of their generated assets. Path derivation
// is deterministic: the same (root, video, mode) triple always maps to the
// same asset directory, and distinct videos never share one.
package library

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/maszaen/reelhouse/internal/domain"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".webm": true,
	".m4v":  true,
	".ts":   true,
	".wmv":  true,
	".flv":  true,
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
}

// coverTokens are conventional cover-art name fragments, checked in order.
var coverTokens = []string{"cover", "poster", "folder", "thumb"}

// IsVideoFile reports whether the filename has a recognized video extension.
func IsVideoFile(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

// IsImageFile reports whether the filename has a recognized image extension.
func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// Resolver derives asset paths under a library root. AssetDirName is the
// name of the generated-assets directory created directly under the root.
type Resolver struct {
	AssetDirName string
}

// NewResolver creates a Resolver using the given asset directory name.
func NewResolver(assetDirName string) *Resolver {
	return &Resolver{AssetDirName: assetDirName}
}

// ClassifyFolder lists the immediate files of folderPath and classifies the
// directory. Exactly one video means the folder represents a single movie
// (FolderBased); zero or two-plus videos means each file stands alone
// (FileBased). Returned video names are in directory enumeration order.
func (r *Resolver) ClassifyFolder(folderPath string) (domain.ScanMode, []string, error) {
	entries, err := os.ReadDir(folderPath)
	if err != nil {
		return domain.FileBased, nil, err
	}
	mode, videos := r.ClassifyEntries(entries)
	return mode, videos, nil
}

// ClassifyEntries classifies an already-listed directory, so a caller that
// also needs the listing for recursion reads each directory only once.
func (r *Resolver) ClassifyEntries(entries []os.DirEntry) (domain.ScanMode, []string) {
	var videos []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if IsVideoFile(entry.Name()) {
			videos = append(videos, entry.Name())
		}
	}

	if len(videos) == 1 {
		return domain.FolderBased, videos
	}
	return domain.FileBased, videos
}

// SanitizeBaseName lowercases a video base name and strips everything that
// is not a letter or digit. Used to build collision-free asset subfolders
// for file-based entries.
func SanitizeBaseName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "untitled"
	}
	return b.String()
}

// ThumbnailDir returns the directory that holds generated assets for the
// given video. Folder-based movies mirror the video's relative directory
// under the asset root; file-based videos get an extra subfolder derived
// from the sanitized base name, so two loose files never collide with each
// other or with a sibling folder-based movie.
func (r *Resolver) ThumbnailDir(rootPath, videoPath string, mode domain.ScanMode) string {
	relDir, err := filepath.Rel(rootPath, filepath.Dir(videoPath))
	if err != nil || relDir == "." {
		relDir = ""
	}

	dir := filepath.Join(rootPath, r.AssetDirName, relDir)
	if mode == domain.FileBased {
		base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
		dir = filepath.Join(dir, SanitizeBaseName(base)+"_assets")
	}
	return dir
}

// GeneratedCoverPath returns the canonical cover image path for the video,
// whether or not the file exists yet.
func (r *Resolver) GeneratedCoverPath(rootPath, videoPath string, mode domain.ScanMode) string {
	return filepath.Join(r.ThumbnailDir(rootPath, videoPath, mode), "cover.jpg")
}

// GeneratedPreviewPath returns the canonical preview clip path for the
// video, whether or not the file exists yet.
func (r *Resolver) GeneratedPreviewPath(rootPath, videoPath string, mode domain.ScanMode) string {
	return filepath.Join(r.ThumbnailDir(rootPath, videoPath, mode), "preview.mp4")
}

// FindExistingCover searches the video's own directory for user-provided
// cover art. Preference order: an image whose base name matches the video's
// base name (case-insensitive), then an image containing a conventional
// cover token, then the first image in enumeration order. Returns "" when
// the directory holds no images.
func (r *Resolver) FindExistingCover(videoPath string) string {
	dir := filepath.Dir(videoPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	videoBase := strings.ToLower(strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath)))

	var firstImage string
	var tokenMatch string
	for _, entry := range entries {
		if entry.IsDir() || !IsImageFile(entry.Name()) {
			continue
		}
		name := entry.Name()
		if firstImage == "" {
			firstImage = name
		}

		imageBase := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
		if imageBase == videoBase {
			return filepath.Join(dir, name)
		}
		if tokenMatch == "" {
			for _, token := range coverTokens {
				if strings.Contains(imageBase, token) {
					tokenMatch = name
					break
				}
			}
		}
	}

	if tokenMatch != "" {
		return filepath.Join(dir, tokenMatch)
	}
	if firstImage != "" {
		return filepath.Join(dir, firstImage)
	}
	return ""
}

// FindLegacyPreview checks the old per-directory preview location,
// <videoDir>/<assetDir>/<base>_preview.mp4. Legacy previews are honored
// but never written.
func (r *Resolver) FindLegacyPreview(videoPath string) string {
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	candidate := filepath.Join(filepath.Dir(videoPath), r.AssetDirName, base+"_preview.mp4")
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate
	}
	return ""
}

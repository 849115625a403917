package library

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/maszaen/reelhouse/internal/domain"
	"github.com/maszaen/reelhouse/internal/logger"
)

// excludedDirs are directory names never descended into, on top of hidden
// directories and the generated-assets directory.
var excludedDirs = map[string]bool{
	"$RECYCLE.BIN":              true,
	"System Volume Information": true,
	"lost+found":                true,
	"@eaDir":                    true,
}

// Scanner walks a library root and produces movie entries. The walk is
// synchronous and depth-first; a single scan touches each directory once.
type Scanner struct {
	resolver *Resolver
	maxDepth int
	collator *collate.Collator
}

// NewScanner creates a Scanner. maxDepth bounds how many levels below the
// root are visited; values below 1 fall back to 3.
func NewScanner(resolver *Resolver, maxDepth int) *Scanner {
	if maxDepth < 1 {
		maxDepth = 3
	}
	return &Scanner{
		resolver: resolver,
		maxDepth: maxDepth,
		// Numeric collation so "Episode 2" sorts before "Episode 10".
		collator: collate.New(language.Und, collate.Numeric, collate.IgnoreCase),
	}
}

// Scan walks rootPath and returns all discovered entries sorted by display
// name. A root that does not exist yields an empty result, not an error.
// Unreadable directories are skipped with a warning and never abort the scan.
func (s *Scanner) Scan(rootPath string) (*domain.ScanResult, error) {
	result := &domain.ScanResult{Root: rootPath, Entries: []domain.MovieEntry{}}

	if info, err := os.Stat(rootPath); err != nil || !info.IsDir() {
		logger.Warnf("Scan root %s does not exist or is not a directory", rootPath)
		return result, nil
	}

	s.walk(rootPath, rootPath, 0, result)

	s.collator.Sort(byDisplayName(result.Entries))

	logger.Infof("Scan of %s found %d entries", rootPath, len(result.Entries))
	return result, nil
}

func (s *Scanner) walk(rootPath, dir string, depth int, result *domain.ScanResult) {
	// One listing serves both classification and recursion, so both see the
	// same view of the directory.
	listing, err := os.ReadDir(dir)
	if err != nil {
		logger.Warnf("Skipping unreadable directory %s: %v", dir, err)
		return
	}

	mode, videos := s.resolver.ClassifyEntries(listing)
	for _, video := range videos {
		result.Entries = append(result.Entries, s.buildEntry(rootPath, dir, video, mode))
	}

	if depth >= s.maxDepth {
		return
	}

	for _, entry := range listing {
		if !entry.IsDir() || s.isExcluded(entry.Name()) {
			continue
		}
		s.walk(rootPath, filepath.Join(dir, entry.Name()), depth+1, result)
	}
}

func (s *Scanner) isExcluded(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if name == s.resolver.AssetDirName {
		return true
	}
	return excludedDirs[name]
}

func (s *Scanner) buildEntry(rootPath, dir, video string, mode domain.ScanMode) domain.MovieEntry {
	videoPath := filepath.Join(dir, video)

	displayName := strings.TrimSuffix(video, filepath.Ext(video))
	if mode == domain.FolderBased {
		displayName = filepath.Base(dir)
	}

	var size int64
	if info, err := os.Stat(videoPath); err == nil {
		size = info.Size()
	} else {
		logger.Warnf("Could not stat %s: %v", videoPath, err)
	}

	return domain.MovieEntry{
		DisplayName:          displayName,
		VideoPath:            videoPath,
		SizeBytes:            size,
		ScanMode:             mode,
		CoverPath:            s.resolver.FindExistingCover(videoPath),
		GeneratedCoverPath:   s.resolver.GeneratedCoverPath(rootPath, videoPath, mode),
		PreviewPath:          s.resolver.FindLegacyPreview(videoPath),
		GeneratedPreviewPath: s.resolver.GeneratedPreviewPath(rootPath, videoPath, mode),
	}
}

// byDisplayName adapts []MovieEntry to the collate.Lister interface.
type byDisplayName []domain.MovieEntry

func (b byDisplayName) Len() int           { return len(b) }
func (b byDisplayName) Swap(i, j int)      { b[i], b[j] = b[j], b[i] }
func (b byDisplayName) Bytes(i int) []byte { return []byte(b[i].DisplayName) }

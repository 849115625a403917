package library

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/maszaen/reelhouse/internal/domain"
)

func newTestScanner() *Scanner {
	return NewScanner(NewResolver(".reelhouse"), 3)
}

func entryNames(entries []domain.MovieEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.DisplayName
	}
	return names
}

func TestScanFolderBasedAndFileBased(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "MovieA", "film.mp4"))
	writeFile(t, filepath.Join(root, "loose1.mp4"))
	writeFile(t, filepath.Join(root, "loose2.mkv"))

	result, err := newTestScanner().Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 3 {
		t.Fatalf("got %d entries, want 3: %v", len(result.Entries), entryNames(result.Entries))
	}

	byName := map[string]domain.MovieEntry{}
	for _, e := range result.Entries {
		byName[e.DisplayName] = e
	}

	movieA, ok := byName["MovieA"]
	if !ok {
		t.Fatalf("missing MovieA entry: %v", entryNames(result.Entries))
	}
	if movieA.ScanMode != domain.FolderBased {
		t.Errorf("MovieA mode = %s, want folder", movieA.ScanMode)
	}

	for _, name := range []string{"loose1", "loose2"} {
		e, ok := byName[name]
		if !ok {
			t.Fatalf("missing %s entry", name)
		}
		if e.ScanMode != domain.FileBased {
			t.Errorf("%s mode = %s, want file", name, e.ScanMode)
		}
	}
	if byName["loose1"].GeneratedCoverPath == byName["loose2"].GeneratedCoverPath {
		t.Error("loose entries share a generated cover path")
	}
}

func TestScanSortsNumerically(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Episode 10.mp4"))
	writeFile(t, filepath.Join(root, "Episode 2.mp4"))
	writeFile(t, filepath.Join(root, "Episode 1.mp4"))

	result, err := newTestScanner().Scan(root)
	if err != nil {
		t.Fatal(err)
	}

	got := entryNames(result.Entries)
	want := []string{"Episode 1", "Episode 2", "Episode 10"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestScanSkipsExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "film.mp4"))
	writeFile(t, filepath.Join(root, ".reelhouse", "stray.mp4"))
	writeFile(t, filepath.Join(root, ".hidden", "secret.mp4"))
	writeFile(t, filepath.Join(root, "$RECYCLE.BIN", "trash.mp4"))

	result, err := newTestScanner().Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 1 || result.Entries[0].DisplayName != "film" {
		t.Errorf("entries = %v, want only film", entryNames(result.Entries))
	}
}

func TestScanDepthLimit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "b", "c", "deep.mp4"))
	writeFile(t, filepath.Join(root, "a", "b", "c", "d", "toodeep.mp4"))

	result, err := newTestScanner().Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	got := entryNames(result.Entries)
	if !reflect.DeepEqual(got, []string{"deep"}) {
		t.Errorf("entries = %v, want only deep", got)
	}
}

func TestScanSkipsUnreadableDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("directory permission bits are not enforced on Windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root bypasses directory permissions")
	}

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "MovieA", "film.mp4"))
	locked := filepath.Join(root, "Locked")
	writeFile(t, filepath.Join(locked, "hidden.mp4"))
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	result, err := newTestScanner().Scan(root)
	if err != nil {
		t.Fatalf("unreadable subdirectory must not abort the scan: %v", err)
	}
	got := entryNames(result.Entries)
	if !reflect.DeepEqual(got, []string{"MovieA"}) {
		t.Errorf("entries = %v, want only the readable MovieA", got)
	}
}

func TestScanMissingRootYieldsEmptyResult(t *testing.T) {
	result, err := newTestScanner().Scan(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing root must not error, got %v", err)
	}
	if len(result.Entries) != 0 {
		t.Errorf("entries = %v, want none", entryNames(result.Entries))
	}
}

func TestScanTwiceIsStable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "MovieA", "film.mp4"))
	writeFile(t, filepath.Join(root, "loose.mp4"))

	s := newTestScanner()
	first, err := s.Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.Entries, second.Entries) {
		t.Error("two scans of an unchanged tree differ")
	}
}

func TestScanPicksUpExistingCoverAndSize(t *testing.T) {
	root := t.TempDir()
	video := filepath.Join(root, "MovieA", "film.mp4")
	writeFile(t, video)
	if err := os.WriteFile(video, []byte("0123456789"), 0644); err != nil {
		t.Fatal(err)
	}
	cover := filepath.Join(root, "MovieA", "film.jpg")
	writeFile(t, cover)

	result, err := newTestScanner().Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("entries = %v", entryNames(result.Entries))
	}
	e := result.Entries[0]
	if e.CoverPath != cover {
		t.Errorf("cover = %s, want %s", e.CoverPath, cover)
	}
	if e.SizeBytes != 10 {
		t.Errorf("size = %d, want 10", e.SizeBytes)
	}
}

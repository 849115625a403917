package services

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/maszaen/reelhouse/internal/domain"
	"github.com/maszaen/reelhouse/internal/library"
	"github.com/maszaen/reelhouse/internal/testutil"
)

func newTestLibrary(t *testing.T) (*LibraryService, *testutil.MockPublisher) {
	t.Helper()
	database, err := testutil.NewTestDB()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })

	bus := testutil.NewMockPublisher()
	scanner := library.NewScanner(library.NewResolver(".reelhouse"), 3)
	return NewLibraryService(scanner, NewSettingsService(database), bus), bus
}

func TestScanRootRemembersRoot(t *testing.T) {
	svc, bus := newTestLibrary(t)

	root := t.TempDir()
	if err := testutil.WriteVideoFile(filepath.Join(root, "MovieA", "film.mp4"), 64); err != nil {
		t.Fatal(err)
	}

	result, err := svc.ScanRoot(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(result.Entries))
	}
	if len(result.NeedsGeneration.Covers) != 1 {
		t.Errorf("needs covers = %d, want 1", len(result.NeedsGeneration.Covers))
	}

	// A default scan now uses the remembered root.
	again, err := svc.ScanDefault()
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Entries) != 1 {
		t.Errorf("default scan entries = %d, want 1", len(again.Entries))
	}

	if len(bus.EventsOfType(domain.ScanCompleted)) != 2 {
		t.Errorf("expected two scan completion events")
	}
}

func TestScanDefaultWithoutRootIsEmpty(t *testing.T) {
	svc, _ := newTestLibrary(t)

	result, err := svc.ScanDefault()
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 0 {
		t.Errorf("entries = %d, want none before a root is chosen", len(result.Entries))
	}
}

func TestUpdateEntriesMergesByPath(t *testing.T) {
	svc, _ := newTestLibrary(t)

	root := t.TempDir()
	video := filepath.Join(root, "film.mp4")
	if err := testutil.WriteVideoFile(video, 64); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ScanRoot(root); err != nil {
		t.Fatal(err)
	}

	updated := svc.Latest().Entries[0]
	updated.CoverPath = "/somewhere/cover.jpg"
	svc.UpdateEntries([]domain.MovieEntry{updated})

	if got := svc.Latest().Entries[0].CoverPath; got != "/somewhere/cover.jpg" {
		t.Errorf("cover = %s, not merged", got)
	}
}

func TestLatestReturnsIndependentSnapshot(t *testing.T) {
	svc, _ := newTestLibrary(t)

	root := t.TempDir()
	if err := testutil.WriteVideoFile(filepath.Join(root, "film.mp4"), 64); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ScanRoot(root); err != nil {
		t.Fatal(err)
	}

	snapshot := svc.Latest()

	updated := snapshot.Entries[0]
	updated.CoverPath = "/somewhere/cover.jpg"
	svc.UpdateEntries([]domain.MovieEntry{updated})

	if snapshot.Entries[0].CoverPath != "" {
		t.Error("a snapshot handed out earlier was mutated by a later merge")
	}
	if got := svc.Latest().Entries[0].CoverPath; got != "/somewhere/cover.jpg" {
		t.Errorf("cover = %s, merge lost", got)
	}
}

func TestLatestSafeToEncodeDuringMerges(t *testing.T) {
	svc, _ := newTestLibrary(t)

	root := t.TempDir()
	for _, name := range []string{"a.mp4", "b.mp4", "c.mp4"} {
		if err := testutil.WriteVideoFile(filepath.Join(root, name), 64); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.ScanRoot(root); err != nil {
		t.Fatal(err)
	}

	entry := svc.Latest().Entries[0]
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			e := entry
			e.CoverPath = fmt.Sprintf("/covers/%d.jpg", i)
			svc.UpdateEntries([]domain.MovieEntry{e})
		}
	}()

	for i := 0; i < 200; i++ {
		if _, err := json.Marshal(svc.Latest()); err != nil {
			t.Fatal(err)
		}
	}
	<-done
}

func TestReplaceVideoPath(t *testing.T) {
	svc, _ := newTestLibrary(t)

	root := t.TempDir()
	video := filepath.Join(root, "film.mkv")
	if err := testutil.WriteVideoFile(video, 64); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ScanRoot(root); err != nil {
		t.Fatal(err)
	}

	newPath := filepath.Join(root, "film.mp4")
	svc.ReplaceVideoPath(video, newPath)

	if got := svc.Latest().Entries[0].VideoPath; got != newPath {
		t.Errorf("video path = %s, want %s", got, newPath)
	}
}

package progress

import (
	"testing"
	"time"

	"github.com/maszaen/reelhouse/internal/testutil"
)

func newTestStore(t *testing.T) (*Store, *testutil.MockClock) {
	t.Helper()
	db, err := testutil.NewTestDB()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	clk := testutil.NewMockClock()
	return NewStore(db, clk), clk
}

func TestSaveAndGet(t *testing.T) {
	store, _ := newTestStore(t)

	written, err := store.Save("/lib/film.mp4", 42.5, 120)
	if err != nil {
		t.Fatal(err)
	}
	if !written {
		t.Fatal("first save must persist")
	}

	rec, ok, err := store.Get("/lib/film.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected a record")
	}
	if rec.PositionSeconds != 42.5 || rec.DurationSeconds != 120 {
		t.Errorf("record = %+v", rec)
	}
}

func TestGetMissingPath(t *testing.T) {
	store, _ := newTestStore(t)

	_, ok, err := store.Get("/lib/unknown.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected no record")
	}
}

func TestSaveThrottledWithinInterval(t *testing.T) {
	store, clk := newTestStore(t)

	if written, _ := store.Save("/lib/film.mp4", 10, 120); !written {
		t.Fatal("first save must persist")
	}

	clk.Advance(2 * time.Second)
	written, err := store.Save("/lib/film.mp4", 12, 120)
	if err != nil {
		t.Fatal(err)
	}
	if written {
		t.Error("save within 5s window must be dropped")
	}

	rec, _, _ := store.Get("/lib/film.mp4")
	if rec.PositionSeconds != 10 {
		t.Errorf("position = %v, want first save retained", rec.PositionSeconds)
	}

	clk.Advance(4 * time.Second)
	if written, _ := store.Save("/lib/film.mp4", 20, 120); !written {
		t.Error("save after interval must persist")
	}
	rec, _, _ = store.Get("/lib/film.mp4")
	if rec.PositionSeconds != 20 {
		t.Errorf("position = %v, want 20", rec.PositionSeconds)
	}
}

func TestThrottleIsPerPath(t *testing.T) {
	store, _ := newTestStore(t)

	if written, _ := store.Save("/lib/a.mp4", 10, 120); !written {
		t.Fatal("first save must persist")
	}
	if written, _ := store.Save("/lib/b.mp4", 10, 120); !written {
		t.Error("different path must not be throttled")
	}
}

func TestClear(t *testing.T) {
	store, clk := newTestStore(t)

	if _, err := store.Save("/lib/film.mp4", 30, 120); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear("/lib/film.mp4"); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := store.Get("/lib/film.mp4"); ok {
		t.Error("record must be gone after clear")
	}

	// Clearing resets the throttle so an immediate re-save goes through.
	clk.Advance(time.Second)
	if written, _ := store.Save("/lib/film.mp4", 31, 120); !written {
		t.Error("save after clear must persist")
	}

	if err := store.Clear("/lib/never-saved.mp4"); err != nil {
		t.Errorf("clearing a missing record must not error: %v", err)
	}
}

func TestAllOrdersByRecency(t *testing.T) {
	store, clk := newTestStore(t)

	if _, err := store.Save("/lib/old.mp4", 5, 120); err != nil {
		t.Fatal(err)
	}
	clk.Advance(10 * time.Second)
	if _, err := store.Save("/lib/new.mp4", 5, 120); err != nil {
		t.Fatal(err)
	}

	records, err := store.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].VideoPath != "/lib/new.mp4" {
		t.Errorf("first record = %s, want most recent", records[0].VideoPath)
	}
}

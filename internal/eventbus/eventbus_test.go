package eventbus

import (
	"database/sql"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/maszaen/reelhouse/internal/domain"
	_ "modernc.org/sqlite"
)

// newTestDB creates an in-memory SQLite database with the events table.
// This is a local helper to avoid an import cycle with testutil.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			event_data JSON NOT NULL,
			event_version INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		t.Fatalf("Failed to create events table: %v", err)
	}
	return db
}

func TestPublishPersistsEvent(t *testing.T) {
	db := newTestDB(t)
	eb := NewEventBus(db)
	defer eb.Shutdown()

	err := eb.Publish(domain.Event{
		AggregateType: "scan",
		AggregateID:   "scan-1",
		EventType:     domain.ScanCompleted,
		EventData:     map[string]interface{}{"entries": 42},
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	var (
		eventType string
		rawData   string
	)
	err = db.QueryRow("SELECT event_type, event_data FROM events WHERE aggregate_id = 'scan-1'").
		Scan(&eventType, &rawData)
	if err != nil {
		t.Fatalf("event row not found: %v", err)
	}
	if eventType != string(domain.ScanCompleted) {
		t.Errorf("event_type = %s, want %s", eventType, domain.ScanCompleted)
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(rawData), &data); err != nil {
		t.Fatalf("event_data is not valid JSON: %v", err)
	}
	if data["entries"] != float64(42) {
		t.Errorf("entries = %v, want 42", data["entries"])
	}
}

func TestSubscribeReceivesMatchingEvents(t *testing.T) {
	db := newTestDB(t)
	eb := NewEventBus(db)
	defer eb.Shutdown()

	received := make(chan domain.Event, 1)
	eb.Subscribe(domain.RepairCompleted, func(e domain.Event) {
		received <- e
	})

	// A different type must not reach the subscriber
	if err := eb.Publish(domain.Event{
		AggregateType: "scan", AggregateID: "s1", EventType: domain.ScanStarted,
	}); err != nil {
		t.Fatal(err)
	}
	if err := eb.Publish(domain.Event{
		AggregateType: "repair", AggregateID: "r1", EventType: domain.RepairCompleted,
		EventData: map[string]interface{}{"final_path": "/lib/film.mp4"},
	}); err != nil {
		t.Fatal(err)
	}

	select {
	case e := <-received:
		if e.AggregateID != "r1" {
			t.Errorf("received wrong event: %s", e.AggregateID)
		}
		if e.GetStringOr("final_path", "") != "/lib/film.mp4" {
			t.Errorf("event data lost in delivery: %v", e.EventData)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never received the event")
	}
}

func TestMultipleSubscribersAllReceive(t *testing.T) {
	db := newTestDB(t)
	eb := NewEventBus(db)
	defer eb.Shutdown()

	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		eb.Subscribe(domain.ScanCompleted, func(e domain.Event) {
			wg.Done()
		})
	}

	if err := eb.Publish(domain.Event{
		AggregateType: "scan", AggregateID: "s1", EventType: domain.ScanCompleted,
	}); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not all subscribers received the event")
	}
}

func TestPublishSetsDefaults(t *testing.T) {
	db := newTestDB(t)
	eb := NewEventBus(db)
	defer eb.Shutdown()

	if err := eb.Publish(domain.Event{
		AggregateType: "scan", AggregateID: "s1", EventType: domain.ScanStarted,
	}); err != nil {
		t.Fatal(err)
	}

	var version int
	if err := db.QueryRow("SELECT event_version FROM events").Scan(&version); err != nil {
		t.Fatal(err)
	}
	if version != 1 {
		t.Errorf("event_version = %d, want 1", version)
	}
}

package domain

import (
	"time"
)

type EventType string

const (
	ScanStarted   EventType = "ScanStarted"
	ScanCompleted EventType = "ScanCompleted"
	ScanFailed    EventType = "ScanFailed"

	GenerationStarted    EventType = "GenerationStarted"
	GenerationProgressed EventType = "GenerationProgress"
	GenerationCompleted  EventType = "GenerationCompleted"
	GenerationItemFailed EventType = "GenerationItemFailed"

	RepairStarted   EventType = "RepairStarted"
	RepairCompleted EventType = "RepairCompleted"
	RepairFailed    EventType = "RepairFailed"

	PlaybackSaved   EventType = "PlaybackSaved"
	PlaybackCleared EventType = "PlaybackCleared"

	NotificationSent   EventType = "NotificationSent"
	NotificationFailed EventType = "NotificationFailed"
)

type Event struct {
	ID            int64                  `json:"id"`
	AggregateType string                 `json:"aggregate_type"`
	AggregateID   string                 `json:"aggregate_id"`
	EventType     EventType              `json:"event_type"`
	EventData     map[string]interface{} `json:"event_data"`
	EventVersion  int                    `json:"event_version"`
	CreatedAt     time.Time              `json:"created_at"`
}

// GetString safely extracts a string field from EventData.
// Returns the value and true if found and is a string, otherwise empty string and false.
func (e *Event) GetString(key string) (string, bool) {
	if e.EventData == nil {
		return "", false
	}
	v, ok := e.EventData[key].(string)
	return v, ok
}

// GetStringOr extracts a string field or returns the default value.
func (e *Event) GetStringOr(key, defaultVal string) string {
	if v, ok := e.GetString(key); ok {
		return v
	}
	return defaultVal
}

// GetInt safely extracts an int field from EventData.
// Handles int, int64 and float64 (JSON unmarshaling produces float64).
func (e *Event) GetInt(key string) (int, bool) {
	if e.EventData == nil {
		return 0, false
	}
	switch v := e.EventData[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// GetBool safely extracts a bool field from EventData.
func (e *Event) GetBool(key string) bool {
	if e.EventData == nil {
		return false
	}
	v, _ := e.EventData[key].(bool)
	return v
}

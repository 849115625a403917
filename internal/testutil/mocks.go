package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/maszaen/reelhouse/internal/clock"
	"github.com/maszaen/reelhouse/internal/domain"
	"github.com/maszaen/reelhouse/internal/eventbus"
	"github.com/maszaen/reelhouse/internal/ffmpeg"
)

// =============================================================================
// MockClock - deterministic time for throttle and scheduling tests
// =============================================================================

// MockClock implements clock.Clock with manually advanced time.
type MockClock struct {
	mu           sync.Mutex
	now          time.Time
	pendingFuncs []pendingFunc
}

type pendingFunc struct {
	executeAt time.Time
	fn        func()
	stopped   bool
}

// MockTimer implements clock.Timer for testing.
type MockTimer struct {
	clock *MockClock
	index int
}

var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a new MockClock with the current time as initial value.
func NewMockClock() *MockClock {
	return &MockClock{now: time.Now()}
}

// NewMockClockAt creates a new MockClock with a specific initial time.
func NewMockClockAt(t time.Time) *MockClock {
	return &MockClock{now: t}
}

// Now returns the mock's current time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// SetNow sets the mock's current time without triggering pending functions.
func (m *MockClock) SetNow(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// AfterFunc schedules f to be called after duration d.
func (m *MockClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	index := len(m.pendingFuncs)
	m.pendingFuncs = append(m.pendingFuncs, pendingFunc{
		executeAt: m.now.Add(d),
		fn:        f,
	})
	return &MockTimer{clock: m, index: index}
}

// Advance moves time forward by d and executes due functions.
// Returns the number of functions executed.
func (m *MockClock) Advance(d time.Duration) int {
	m.mu.Lock()
	m.now = m.now.Add(d)
	var toExecute []func()
	for i := range m.pendingFuncs {
		pf := &m.pendingFuncs[i]
		if !pf.stopped && !pf.executeAt.After(m.now) {
			toExecute = append(toExecute, pf.fn)
			pf.stopped = true
		}
	}
	m.mu.Unlock()

	// Execute outside the lock to avoid deadlocks
	for _, fn := range toExecute {
		fn()
	}
	return len(toExecute)
}

// Stop prevents the timer from firing. Returns true if it was stopped,
// false if it had already fired or been stopped.
func (t *MockTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.index < len(t.clock.pendingFuncs) && !t.clock.pendingFuncs[t.index].stopped {
		t.clock.pendingFuncs[t.index].stopped = true
		return true
	}
	return false
}

// =============================================================================
// MockPublisher - records published events, dispatches to subscribers inline
// =============================================================================

// MockPublisher implements eventbus.Publisher without a database. Published
// events are recorded and handed to subscribers synchronously, which makes
// ordering assertions deterministic.
type MockPublisher struct {
	mu          sync.Mutex
	events      []domain.Event
	subscribers map[domain.EventType][]func(domain.Event)
}

var _ eventbus.Publisher = (*MockPublisher)(nil)

// NewMockPublisher creates an empty MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{subscribers: make(map[domain.EventType][]func(domain.Event))}
}

func (m *MockPublisher) Publish(event domain.Event) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	handlers := append([]func(domain.Event){}, m.subscribers[event.EventType]...)
	m.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
	return nil
}

func (m *MockPublisher) Subscribe(eventType domain.EventType, handler func(domain.Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers[eventType] = append(m.subscribers[eventType], handler)
}

// Events returns a copy of all published events.
func (m *MockPublisher) Events() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Event{}, m.events...)
}

// EventsOfType returns published events with the given type, in order.
func (m *MockPublisher) EventsOfType(eventType domain.EventType) []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Event
	for _, e := range m.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// MockEngine - scriptable transcoding engine
// =============================================================================

// MockEngine stands in for the ffmpeg engine. Each method delegates to a
// configurable function field; nil fields succeed and, where an output file
// is expected, write a placeholder file so downstream existence checks pass.
type MockEngine struct {
	ProbeFunc       func(ctx context.Context, path string) (*ffmpeg.ProbeResult, error)
	ScreenshotFunc  func(ctx context.Context, input string, atSeconds float64, width int, output string) error
	ExtractClipFunc func(ctx context.Context, input string, startSeconds, durationSeconds float64, width int, output string) error
	ConcatFunc      func(ctx context.Context, manifestPath, output string) error
	TranscodeFunc   func(ctx context.Context, input, output string, opts ffmpeg.TranscodeOptions) error

	mu    sync.Mutex
	Calls []MockCall
}

// MockCall records a method call for verification in tests.
type MockCall struct {
	Method string
	Args   []interface{}
}

func (m *MockEngine) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// CallCount returns the number of times a method was called.
func (m *MockEngine) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, call := range m.Calls {
		if call.Method == method {
			count++
		}
	}
	return count
}

func (m *MockEngine) Probe(ctx context.Context, path string) (*ffmpeg.ProbeResult, error) {
	m.recordCall("Probe", path)
	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx, path)
	}
	return &ffmpeg.ProbeResult{
		Streams: []ffmpeg.Stream{{CodecType: "video", CodecName: "h264"}},
		Format:  ffmpeg.Format{Duration: "120", FormatName: "mov,mp4,m4a,3gp,3g2,mj2"},
	}, nil
}

func (m *MockEngine) Screenshot(ctx context.Context, input string, atSeconds float64, width int, output string) error {
	m.recordCall("Screenshot", input, atSeconds, width, output)
	if m.ScreenshotFunc != nil {
		return m.ScreenshotFunc(ctx, input, atSeconds, width, output)
	}
	return writePlaceholder(output)
}

func (m *MockEngine) ExtractClip(ctx context.Context, input string, startSeconds, durationSeconds float64, width int, output string) error {
	m.recordCall("ExtractClip", input, startSeconds, durationSeconds, width, output)
	if m.ExtractClipFunc != nil {
		return m.ExtractClipFunc(ctx, input, startSeconds, durationSeconds, width, output)
	}
	return writePlaceholder(output)
}

func (m *MockEngine) Concat(ctx context.Context, manifestPath, output string) error {
	m.recordCall("Concat", manifestPath, output)
	if m.ConcatFunc != nil {
		return m.ConcatFunc(ctx, manifestPath, output)
	}
	return writePlaceholder(output)
}

func (m *MockEngine) Transcode(ctx context.Context, input, output string, opts ffmpeg.TranscodeOptions) error {
	m.recordCall("Transcode", input, output, opts)
	if m.TranscodeFunc != nil {
		return m.TranscodeFunc(ctx, input, output, opts)
	}
	return writePlaceholder(output)
}

// Package metrics exposes Prometheus metrics derived from application events.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maszaen/reelhouse/internal/domain"
	"github.com/maszaen/reelhouse/internal/eventbus"
	"github.com/maszaen/reelhouse/internal/logger"
)

// MetricsService subscribes to the event bus and keeps Prometheus counters
// in sync. It never blocks publishers.
type MetricsService struct {
	eventBus eventbus.Publisher

	scansTotal       *prometheus.CounterVec
	entriesScanned   prometheus.Counter
	generationsTotal *prometheus.CounterVec
	repairsTotal     *prometheus.CounterVec
	playbackSaves    prometheus.Counter
	scanDuration     prometheus.Histogram
}

// NewMetricsService creates and registers Prometheus metrics.
func NewMetricsService(eb eventbus.Publisher) *MetricsService {
	m := &MetricsService{
		eventBus: eb,

		scansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reelhouse_scans_total",
				Help: "Total number of library scans by outcome",
			},
			[]string{"outcome"}, // completed, failed
		),

		entriesScanned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reelhouse_entries_scanned_total",
				Help: "Total number of movie entries discovered across all scans",
			},
		),

		generationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reelhouse_generations_total",
				Help: "Total number of generated assets by kind and outcome",
			},
			[]string{"kind", "outcome"}, // cover/preview, success/failed
		),

		repairsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reelhouse_repairs_total",
				Help: "Total number of repairs by mode and outcome",
			},
			[]string{"mode", "outcome"}, // remux/reencode/fpsfix, success/failed
		),

		playbackSaves: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reelhouse_playback_saves_total",
				Help: "Total number of persisted playback positions",
			},
		),

		scanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reelhouse_scan_duration_seconds",
				Help:    "Duration of library scans in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
	}

	prometheus.MustRegister(
		m.scansTotal,
		m.entriesScanned,
		m.generationsTotal,
		m.repairsTotal,
		m.playbackSaves,
		m.scanDuration,
	)

	return m
}

// Start subscribes to events and updates metrics.
func (m *MetricsService) Start() {
	m.eventBus.Subscribe(domain.ScanCompleted, m.handleScanCompleted)
	m.eventBus.Subscribe(domain.ScanFailed, m.handleScanFailed)
	m.eventBus.Subscribe(domain.GenerationProgressed, m.handleGenerationProgress)
	m.eventBus.Subscribe(domain.RepairCompleted, m.handleRepairCompleted)
	m.eventBus.Subscribe(domain.RepairFailed, m.handleRepairFailed)
	m.eventBus.Subscribe(domain.PlaybackSaved, m.handlePlaybackSaved)

	logger.Infof("Metrics service started")
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (m *MetricsService) Handler() http.Handler {
	return promhttp.Handler()
}

func (m *MetricsService) handleScanCompleted(event domain.Event) {
	m.scansTotal.WithLabelValues("completed").Inc()
	if entries, ok := event.GetInt("entries"); ok {
		m.entriesScanned.Add(float64(entries))
	}
	if seconds, ok := event.EventData["duration_seconds"].(float64); ok {
		m.scanDuration.Observe(seconds)
	}
}

func (m *MetricsService) handleScanFailed(event domain.Event) {
	m.scansTotal.WithLabelValues("failed").Inc()
}

func (m *MetricsService) handleGenerationProgress(event domain.Event) {
	kind := event.GetStringOr("kind", "unknown")
	outcome := "success"
	if event.GetBool("failed") {
		outcome = "failed"
	}
	m.generationsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *MetricsService) handleRepairCompleted(event domain.Event) {
	m.repairsTotal.WithLabelValues(event.GetStringOr("mode", "unknown"), "success").Inc()
}

func (m *MetricsService) handleRepairFailed(event domain.Event) {
	m.repairsTotal.WithLabelValues(event.GetStringOr("mode", "unknown"), "failed").Inc()
}

func (m *MetricsService) handlePlaybackSaved(event domain.Event) {
	m.playbackSaves.Inc()
}

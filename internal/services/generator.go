package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maszaen/reelhouse/internal/domain"
	"github.com/maszaen/reelhouse/internal/eventbus"
	"github.com/maszaen/reelhouse/internal/ffmpeg"
	"github.com/maszaen/reelhouse/internal/library"
	"github.com/maszaen/reelhouse/internal/logger"
)

// previewOffsets are the relative positions sampled for preview clips.
const coverOffset = 0.30

var previewOffsets = []float64{0.10, 0.30, 0.50, 0.70, 0.90}

// Per-operation engine timeouts. Clip extraction re-encodes, so it gets the
// generous bound.
const (
	probeTimeout      = 30 * time.Second
	screenshotTimeout = 1 * time.Minute
	clipTimeout       = 5 * time.Minute
	concatTimeout     = 2 * time.Minute
)

// GeneratorOptions fixes asset dimensions and preview shape per batch.
type GeneratorOptions struct {
	CoverWidth         int
	PreviewWidth       int
	PreviewClipCount   int
	PreviewClipSeconds float64
}

// GeneratorService produces cover images and preview clips, one engine
// invocation at a time. A batch runs to completion; individual failures are
// counted and skipped, never aborting the queue.
type GeneratorService struct {
	engine   Engine
	eventBus eventbus.Publisher
	sem      *Semaphore
	opts     GeneratorOptions
}

// NewGeneratorService creates a GeneratorService. The semaphore is shared
// with the repair pipeline so transcoding work is serialized system-wide.
func NewGeneratorService(engine Engine, eb eventbus.Publisher, sem *Semaphore, opts GeneratorOptions) *GeneratorService {
	if opts.CoverWidth <= 0 {
		opts.CoverWidth = 480
	}
	if opts.PreviewWidth <= 0 {
		opts.PreviewWidth = 480
	}
	if opts.PreviewClipCount <= 0 || opts.PreviewClipCount > len(previewOffsets) {
		opts.PreviewClipCount = len(previewOffsets)
	}
	if opts.PreviewClipSeconds <= 0 {
		opts.PreviewClipSeconds = 3
	}
	return &GeneratorService{engine: engine, eventBus: eb, sem: sem, opts: opts}
}

// Generate detects which of the given entries still need covers or previews
// of the requested kinds and processes them sequentially, covers first so
// the library grid populates faster. Returns the entries with generated
// asset paths adopted. The returned error reflects setup problems only;
// per-item failures are reported through progress events.
func (g *GeneratorService) Generate(ctx context.Context, entries []domain.MovieEntry, kinds map[domain.AssetKind]bool) ([]domain.MovieEntry, error) {
	if len(kinds) == 0 {
		kinds = map[domain.AssetKind]bool{domain.AssetCover: true, domain.AssetPreview: true}
	}

	needs := library.DetectNeeds(entries)

	byPath := make(map[string]*domain.MovieEntry, len(entries))
	for i := range entries {
		byPath[entries[i].VideoPath] = &entries[i]
	}

	var queue []workItem
	if kinds[domain.AssetCover] {
		for _, e := range needs.Covers {
			queue = append(queue, workItem{kind: domain.AssetCover, entry: byPath[e.VideoPath]})
		}
	}
	if kinds[domain.AssetPreview] {
		for _, e := range needs.Previews {
			queue = append(queue, workItem{kind: domain.AssetPreview, entry: byPath[e.VideoPath]})
		}
	}

	batchID := uuid.New().String()
	total := len(queue)
	g.publish(domain.GenerationStarted, batchID, map[string]interface{}{"total": total})

	failures := 0
	for current, item := range queue {
		err := g.generateOne(ctx, item)
		if err != nil {
			failures++
			logger.Errorf("Generation of %s for %s failed: %v", item.kind, item.entry.VideoPath, err)
			g.publish(domain.GenerationItemFailed, batchID, map[string]interface{}{
				"kind":       string(item.kind),
				"video_path": item.entry.VideoPath,
				"error":      err.Error(),
			})
		} else {
			switch item.kind {
			case domain.AssetCover:
				item.entry.CoverPath = item.entry.GeneratedCoverPath
			case domain.AssetPreview:
				item.entry.PreviewPath = item.entry.GeneratedPreviewPath
			}
		}

		g.publishProgress(batchID, domain.GenerationProgress{
			Current: current + 1,
			Total:   total,
			Kind:    item.kind,
			Entry:   *item.entry,
			Failed:  err != nil,
		})
	}

	g.publish(domain.GenerationCompleted, batchID, map[string]interface{}{
		"total":    total,
		"failures": failures,
	})

	return entries, nil
}

type workItem struct {
	kind  domain.AssetKind
	entry *domain.MovieEntry
}

func (g *GeneratorService) generateOne(ctx context.Context, item workItem) error {
	if err := g.sem.Acquire(ctx); err != nil {
		return err
	}
	defer g.sem.Release()

	switch item.kind {
	case domain.AssetCover:
		return g.generateCover(ctx, item.entry)
	case domain.AssetPreview:
		return g.generatePreview(ctx, item.entry)
	default:
		return fmt.Errorf("unknown asset kind %q", item.kind)
	}
}

func (g *GeneratorService) generateCover(ctx context.Context, entry *domain.MovieEntry) error {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	probe, err := g.engine.Probe(probeCtx, entry.VideoPath)
	cancel()
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(entry.GeneratedCoverPath), 0755); err != nil {
		return fmt.Errorf("create asset directory: %w", err)
	}

	shotCtx, cancel := context.WithTimeout(ctx, screenshotTimeout)
	defer cancel()
	at := probe.DurationSeconds() * coverOffset
	if err := g.engine.Screenshot(shotCtx, entry.VideoPath, at, g.opts.CoverWidth, entry.GeneratedCoverPath); err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}

	logger.Infof("Generated cover for %s", entry.DisplayName)
	return nil
}

// generatePreview samples short clips across the video, concatenates them,
// and removes every intermediate file whether or not the operation succeeds.
func (g *GeneratorService) generatePreview(ctx context.Context, entry *domain.MovieEntry) (err error) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	probe, err := g.engine.Probe(probeCtx, entry.VideoPath)
	cancel()
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	duration := probe.DurationSeconds()

	dir := filepath.Dir(entry.GeneratedPreviewPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create asset directory: %w", err)
	}

	tempID := uuid.New().String()
	var tempFiles []string
	defer func() {
		for _, f := range tempFiles {
			if rmErr := os.Remove(f); rmErr != nil && !os.IsNotExist(rmErr) {
				logger.Warnf("Failed to remove temp file %s: %v", f, rmErr)
			}
		}
	}()

	var clips []string
	for i := 0; i < g.opts.PreviewClipCount; i++ {
		start := duration * previewOffsets[i]
		clipPath := filepath.Join(dir, fmt.Sprintf("temp_%s_%d.mp4", tempID, i))
		tempFiles = append(tempFiles, clipPath)

		clipCtx, cancel := context.WithTimeout(ctx, clipTimeout)
		err := g.engine.ExtractClip(clipCtx, entry.VideoPath, start, g.opts.PreviewClipSeconds, g.opts.PreviewWidth, clipPath)
		cancel()
		if err != nil {
			return fmt.Errorf("extract clip %d: %w", i, err)
		}
		clips = append(clips, clipPath)
	}

	manifestPath := filepath.Join(dir, fmt.Sprintf("temp_%s_list.txt", tempID))
	tempFiles = append(tempFiles, manifestPath)
	if err := ffmpeg.WriteConcatManifest(manifestPath, clips); err != nil {
		return fmt.Errorf("write concat manifest: %w", err)
	}

	concatCtx, cancel := context.WithTimeout(ctx, concatTimeout)
	defer cancel()
	if err := g.engine.Concat(concatCtx, manifestPath, entry.GeneratedPreviewPath); err != nil {
		return fmt.Errorf("concat: %w", err)
	}

	logger.Infof("Generated preview for %s", entry.DisplayName)
	return nil
}

// CleanupTemp removes leftover temp_* files under the asset directory. Run
// at startup to clean up after a crash mid-generation.
func (g *GeneratorService) CleanupTemp(assetRoot string) {
	removed := 0
	err := filepath.WalkDir(assetRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, skip
		}
		if !d.IsDir() && strings.HasPrefix(d.Name(), "temp_") {
			if rmErr := os.Remove(path); rmErr == nil {
				removed++
			}
		}
		return nil
	})
	if err != nil {
		logger.Warnf("Temp cleanup walk failed: %v", err)
	}
	if removed > 0 {
		logger.Infof("Removed %d leftover temp files under %s", removed, assetRoot)
	}
}

func (g *GeneratorService) publish(eventType domain.EventType, batchID string, data map[string]interface{}) {
	err := g.eventBus.Publish(domain.Event{
		AggregateType: "generation",
		AggregateID:   batchID,
		EventType:     eventType,
		EventData:     data,
	})
	if err != nil {
		logger.Errorf("Failed to publish %s: %v", eventType, err)
	}
}

func (g *GeneratorService) publishProgress(batchID string, p domain.GenerationProgress) {
	err := g.eventBus.Publish(domain.Event{
		AggregateType: "generation",
		AggregateID:   batchID,
		EventType:     domain.GenerationProgressed,
		EventData: map[string]interface{}{
			"current":    p.Current,
			"total":      p.Total,
			"kind":       string(p.Kind),
			"video_path": p.Entry.VideoPath,
			"name":       p.Entry.DisplayName,
			"failed":     p.Failed,
		},
	})
	if err != nil {
		logger.Errorf("Failed to publish generation progress: %v", err)
	}
}

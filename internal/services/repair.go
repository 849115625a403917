package services

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maszaen/reelhouse/internal/db"
	"github.com/maszaen/reelhouse/internal/domain"
	"github.com/maszaen/reelhouse/internal/eventbus"
	"github.com/maszaen/reelhouse/internal/ffmpeg"
	"github.com/maszaen/reelhouse/internal/logger"
)

// RepairMode selects the repair strategy.
type RepairMode string

const (
	// RepairRemux repackages streams into a seek-optimized MP4 container
	// without re-encoding.
	RepairRemux RepairMode = "remux"
	// RepairReencode fully re-encodes to normalize keyframe spacing.
	RepairReencode RepairMode = "reencode"
	// RepairFPSFix forces a constant frame rate to stop seek drift on
	// variable-frame-rate sources.
	RepairFPSFix RepairMode = "fpsfix"
)

// Repair stages, reported on failure so the user sees where it broke.
const (
	StageProbing     = "probing"
	StageTranscoding = "transcoding"
	StageSwapping    = "swapping"
)

// RepairError carries the stage at which a repair failed.
type RepairError struct {
	Stage string
	Err   error
}

func (e *RepairError) Error() string {
	return fmt.Sprintf("repair failed during %s: %v", e.Stage, e.Err)
}

func (e *RepairError) Unwrap() error { return e.Err }

const transcodeTimeout = 30 * time.Minute

// RepairService rewrites a video file in place: probe, transcode to a
// temporary sibling, then swap. The swap is journaled so an interrupted
// repair can be recovered on the next startup.
type RepairService struct {
	db       *sql.DB
	engine   Engine
	eventBus eventbus.Publisher
	sem      *Semaphore
}

// NewRepairService creates a RepairService sharing the transcode semaphore
// with the generator.
func NewRepairService(database *sql.DB, engine Engine, eb eventbus.Publisher, sem *Semaphore) *RepairService {
	return &RepairService{db: database, engine: engine, eventBus: eb, sem: sem}
}

// Repair runs the selected mode against videoPath and returns the final
// path, which always carries an .mp4 extension and may therefore differ
// from the input path.
func (r *RepairService) Repair(ctx context.Context, videoPath string, mode RepairMode) (string, error) {
	repairID := uuid.New().String()

	r.publish(domain.RepairStarted, repairID, map[string]interface{}{
		"video_path": videoPath,
		"mode":       string(mode),
	})

	finalPath, err := r.run(ctx, repairID, videoPath, mode)
	if err != nil {
		stage := StageTranscoding
		if e, ok := err.(*RepairError); ok {
			stage = e.Stage
		}
		r.publish(domain.RepairFailed, repairID, map[string]interface{}{
			"video_path": videoPath,
			"mode":       string(mode),
			"stage":      stage,
			"error":      err.Error(),
		})
		return "", err
	}

	r.publish(domain.RepairCompleted, repairID, map[string]interface{}{
		"video_path": videoPath,
		"final_path": finalPath,
		"mode":       string(mode),
	})
	return finalPath, nil
}

func (r *RepairService) run(ctx context.Context, repairID, videoPath string, mode RepairMode) (string, error) {
	if err := r.sem.Acquire(ctx); err != nil {
		return "", &RepairError{Stage: StageProbing, Err: err}
	}
	defer r.sem.Release()

	// Probing
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	probe, err := r.engine.Probe(probeCtx, videoPath)
	cancel()
	if err != nil {
		return "", &RepairError{Stage: StageProbing, Err: err}
	}

	opts, err := transcodeOptionsFor(mode, probe)
	if err != nil {
		return "", &RepairError{Stage: StageProbing, Err: err}
	}

	dir := filepath.Dir(videoPath)
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	tempPath := filepath.Join(dir, fmt.Sprintf("%s.repair-%s.mp4", base, repairID[:8]))
	finalPath := filepath.Join(dir, base+".mp4")

	// A journal failure aborts before any transcoding starts; report it at
	// the setup stage so the user is not pointed at the encoder.
	if err := r.journalInsert(repairID, videoPath, tempPath, finalPath, mode); err != nil {
		return "", &RepairError{Stage: StageProbing, Err: err}
	}

	// Transcoding
	transCtx, cancel := context.WithTimeout(ctx, transcodeTimeout)
	err = r.engine.Transcode(transCtx, videoPath, tempPath, opts)
	cancel()
	if err != nil {
		if rmErr := os.Remove(tempPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warnf("Failed to remove temp file %s: %v", tempPath, rmErr)
		}
		r.journalUpdate(repairID, "failed", err.Error())
		return "", &RepairError{Stage: StageTranscoding, Err: err}
	}

	// Swapping. The journal row moves to 'swapping' before the original is
	// deleted; if the process dies here, startup recovery finishes the swap.
	r.journalUpdate(repairID, "swapping", "")

	if err := os.Remove(videoPath); err != nil && !os.IsNotExist(err) {
		r.journalUpdate(repairID, "failed", "remove original: "+err.Error())
		return "", &RepairError{Stage: StageSwapping, Err: fmt.Errorf("remove original (file may be in use): %w", err)}
	}
	if finalPath != videoPath {
		if err := os.Remove(finalPath); err != nil && !os.IsNotExist(err) {
			r.journalUpdate(repairID, "failed", "remove colliding target: "+err.Error())
			return "", &RepairError{Stage: StageSwapping, Err: fmt.Errorf("remove colliding target: %w", err)}
		}
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		// Temp file is intentionally left behind for manual recovery.
		r.journalUpdate(repairID, "failed", "rename: "+err.Error())
		return "", &RepairError{Stage: StageSwapping, Err: fmt.Errorf("rename temp into place: %w", err)}
	}

	r.journalUpdate(repairID, "completed", "")
	logger.Infof("Repair (%s) of %s completed: %s", mode, videoPath, finalPath)
	return finalPath, nil
}

// transcodeOptionsFor maps a repair mode and probe result to engine options.
func transcodeOptionsFor(mode RepairMode, probe *ffmpeg.ProbeResult) (ffmpeg.TranscodeOptions, error) {
	switch mode {
	case RepairRemux:
		opts := ffmpeg.TranscodeOptions{CopyStreams: true}
		if probe.HasADTSAAC() {
			opts.AudioBitstreamFilter = "aac_adtstoasc"
		}
		return opts, nil
	case RepairReencode:
		return ffmpeg.TranscodeOptions{}, nil
	case RepairFPSFix:
		rate := probe.FrameRate()
		if rate <= 0 {
			rate = 30
		}
		return ffmpeg.TranscodeOptions{FrameRate: rate}, nil
	default:
		return ffmpeg.TranscodeOptions{}, fmt.Errorf("unknown repair mode %q", mode)
	}
}

// RecoverPending resolves journal rows left by an interrupted process.
// Rows still in 'transcoding' are failed and their temp files removed. Rows
// in 'swapping' where the temp file survived and the original is gone get
// their swap finished.
func (r *RepairService) RecoverPending() {
	rows, err := db.QueryWithRetry(r.db, `
		SELECT repair_id, video_path, temp_path, final_path, state
		FROM repair_journal WHERE state IN ('transcoding', 'swapping')
	`)
	if err != nil {
		logger.Errorf("Repair recovery query failed: %v", err)
		return
	}
	defer rows.Close()

	type pending struct {
		repairID, videoPath, tempPath, finalPath, state string
	}
	var all []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.repairID, &p.videoPath, &p.tempPath, &p.finalPath, &p.state); err != nil {
			logger.Errorf("Repair recovery scan failed: %v", err)
			continue
		}
		all = append(all, p)
	}

	for _, p := range all {
		switch p.state {
		case "transcoding":
			if err := os.Remove(p.tempPath); err != nil && !os.IsNotExist(err) {
				logger.Warnf("Recovery: failed to remove temp file %s: %v", p.tempPath, err)
			}
			r.journalUpdate(p.repairID, "failed", "interrupted during transcode")
			logger.Warnf("Recovery: repair %s of %s was interrupted mid-transcode", p.repairID, p.videoPath)
		case "swapping":
			_, tempErr := os.Stat(p.tempPath)
			_, origErr := os.Stat(p.videoPath)
			if tempErr == nil && os.IsNotExist(origErr) {
				if err := os.Rename(p.tempPath, p.finalPath); err != nil {
					r.journalUpdate(p.repairID, "failed", "recovery rename: "+err.Error())
					logger.Errorf("Recovery: could not finish swap for %s: %v", p.videoPath, err)
					continue
				}
				r.journalUpdate(p.repairID, "completed", "")
				logger.Infof("Recovery: finished interrupted swap for %s", p.finalPath)
			} else {
				r.journalUpdate(p.repairID, "failed", "interrupted during swap")
				logger.Warnf("Recovery: repair %s of %s was interrupted mid-swap", p.repairID, p.videoPath)
			}
		}
	}
}

func (r *RepairService) journalInsert(repairID, videoPath, tempPath, finalPath string, mode RepairMode) error {
	_, err := db.ExecWithRetry(r.db, `
		INSERT INTO repair_journal (repair_id, video_path, temp_path, final_path, mode, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 'transcoding', ?, ?)
	`, repairID, videoPath, tempPath, finalPath, string(mode), time.Now().UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return nil
}

func (r *RepairService) journalUpdate(repairID, state, errMsg string) {
	_, err := db.ExecWithRetry(r.db, `
		UPDATE repair_journal SET state = ?, error = ?, updated_at = ? WHERE repair_id = ?
	`, state, errMsg, time.Now().UTC(), repairID)
	if err != nil {
		logger.Errorf("Failed to update repair journal %s: %v", repairID, err)
	}
}

func (r *RepairService) publish(eventType domain.EventType, repairID string, data map[string]interface{}) {
	err := r.eventBus.Publish(domain.Event{
		AggregateType: "repair",
		AggregateID:   repairID,
		EventType:     eventType,
		EventData:     data,
	})
	if err != nil {
		logger.Errorf("Failed to publish %s: %v", eventType, err)
	}
}

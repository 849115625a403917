// Package services wires the library scanner, asset generator, repair
// pipeline and settings store into application-level operations.
package services

import (
	"context"

	"github.com/maszaen/reelhouse/internal/ffmpeg"
)

// Engine is the transcoding engine contract consumed by the generator and
// the repair pipeline. *ffmpeg.Engine implements it; tests substitute mocks.
type Engine interface {
	Probe(ctx context.Context, path string) (*ffmpeg.ProbeResult, error)
	Screenshot(ctx context.Context, input string, atSeconds float64, width int, output string) error
	ExtractClip(ctx context.Context, input string, startSeconds, durationSeconds float64, width int, output string) error
	Concat(ctx context.Context, manifestPath, output string) error
	Transcode(ctx context.Context, input, output string, opts ffmpeg.TranscodeOptions) error
}

var _ Engine = (*ffmpeg.Engine)(nil)

// Semaphore serializes transcoding work. One instance is shared between the
// generator and the repair pipeline so only one engine invocation runs at a
// time system-wide.
type Semaphore struct {
	ch chan struct{}
}

// NewSemaphore creates a Semaphore admitting n concurrent holders.
func NewSemaphore(n int) *Semaphore {
	if n < 1 {
		n = 1
	}
	return &Semaphore{ch: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot acquired with Acquire.
func (s *Semaphore) Release() {
	<-s.ch
}

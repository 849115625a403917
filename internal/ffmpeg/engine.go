// Package ffmpeg drives the ffmpeg and ffprobe binaries for probing,
// screenshot and clip extraction, concatenation and transcoding. All
// invocations go through exec.CommandContext so callers control timeouts
// and cancellation.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/maszaen/reelhouse/internal/logger"
)

// Engine wraps the ffmpeg/ffprobe binary paths. The zero value is not
// usable; construct with NewEngine.
type Engine struct {
	FFmpegPath  string
	FFprobePath string
}

// NewEngine creates an Engine. Empty paths fall back to PATH lookup.
func NewEngine(ffmpegPath, ffprobePath string) *Engine {
	if strings.TrimSpace(ffmpegPath) == "" {
		ffmpegPath = "ffmpeg"
	}
	if strings.TrimSpace(ffprobePath) == "" {
		ffprobePath = "ffprobe"
	}
	return &Engine{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath}
}

// CommandError is returned when an ffmpeg/ffprobe invocation fails. Stderr
// holds the tail of the process's error output for diagnostics.
type CommandError struct {
	Binary string
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed: %v: %s", e.Binary, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s failed: %v", e.Binary, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// maxStderrTail caps how much stderr is retained in errors. ffmpeg can be
// very chatty on badly damaged files.
const maxStderrTail = 4096

// runFFmpeg executes ffmpeg with the given args, discarding stdout.
// The process is killed when ctx is cancelled or its deadline passes.
func (e *Engine) runFFmpeg(ctx context.Context, args []string) error {
	logger.Debugf("ffmpeg %s", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, e.FFmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return &CommandError{
			Binary: "ffmpeg",
			Args:   args,
			Stderr: stderrTail(stderr.String()),
			Err:    err,
		}
	}
	return nil
}

// runFFprobe executes ffprobe and returns its stdout.
func (e *Engine) runFFprobe(ctx context.Context, args []string) ([]byte, error) {
	logger.Debugf("ffprobe %s", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, e.FFprobePath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &CommandError{
			Binary: "ffprobe",
			Args:   args,
			Stderr: stderrTail(stderr.String()),
			Err:    err,
		}
	}
	return stdout.Bytes(), nil
}

func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrTail {
		s = s[len(s)-maxStderrTail:]
	}
	return s
}

package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// ScreenshotArgs builds the ffmpeg argument list for a single-frame capture.
// Seeking before -i is fast (keyframe seek) which is fine for cover images.
// scale width:-2 preserves aspect ratio with an even height as required by
// most encoders.
func ScreenshotArgs(input string, atSeconds float64, width int, output string) []string {
	return []string{
		"-v", "error",
		"-ss", formatSeconds(atSeconds),
		"-i", input,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-2", width),
		"-y",
		output,
	}
}

// Screenshot captures a single frame at the given offset into an image file.
func (e *Engine) Screenshot(ctx context.Context, input string, atSeconds float64, width int, output string) error {
	return e.runFFmpeg(ctx, ScreenshotArgs(input, atSeconds, width, output))
}

// ClipArgs builds the ffmpeg argument list for a short re-encoded excerpt.
// Clips are re-encoded rather than stream-copied so cuts land exactly on the
// requested offsets and the segments concatenate cleanly.
func ClipArgs(input string, startSeconds, durationSeconds float64, width int, output string) []string {
	return []string{
		"-v", "error",
		"-ss", formatSeconds(startSeconds),
		"-i", input,
		"-t", formatSeconds(durationSeconds),
		"-vf", fmt.Sprintf("scale=%d:-2", width),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "28",
		"-an",
		"-y",
		output,
	}
}

// ExtractClip writes a short silent excerpt of the input to output.
func (e *Engine) ExtractClip(ctx context.Context, input string, startSeconds, durationSeconds float64, width int, output string) error {
	return e.runFFmpeg(ctx, ClipArgs(input, startSeconds, durationSeconds, width, output))
}

// ConcatArgs builds the ffmpeg argument list for the concat demuxer.
// -safe 0 permits absolute paths in the manifest.
func ConcatArgs(manifestPath, output string) []string {
	return []string{
		"-v", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-c", "copy",
		"-y",
		output,
	}
}

// Concat joins the files listed in a concat manifest into a single output.
// The segments must share codec parameters, which holds for clips produced
// by ExtractClip from the same source.
func (e *Engine) Concat(ctx context.Context, manifestPath, output string) error {
	return e.runFFmpeg(ctx, ConcatArgs(manifestPath, output))
}

// WriteConcatManifest writes a concat demuxer manifest listing the given
// files. Single quotes in paths are escaped per the demuxer's quoting rules.
func WriteConcatManifest(manifestPath string, files []string) error {
	var b strings.Builder
	for _, f := range files {
		escaped := strings.ReplaceAll(f, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	return os.WriteFile(manifestPath, []byte(b.String()), 0644)
}

// formatSeconds renders a seconds offset for ffmpeg arguments.
func formatSeconds(s float64) string {
	return fmt.Sprintf("%.3f", s)
}

package ffmpeg

import (
	"context"
	"fmt"
)

// TranscodeOptions controls how Transcode rewrites a file. The zero value
// stream-copies into the output container.
type TranscodeOptions struct {
	// CopyStreams stream-copies audio and video instead of re-encoding.
	CopyStreams bool

	// AudioBitstreamFilter is applied with -bsf:a when non-empty. Used to
	// convert ADTS AAC to the MP4 ASC form during remuxing.
	AudioBitstreamFilter string

	// VideoCodec and AudioCodec select encoders when CopyStreams is false.
	// Empty values default to libx264 and aac.
	VideoCodec string
	AudioCodec string

	// Preset and CRF tune the video encoder when re-encoding.
	Preset string
	CRF    int

	// FrameRate forces a constant output frame rate when > 0. Implies
	// re-encoding of the video stream.
	FrameRate float64
}

// TranscodeArgs builds the ffmpeg argument list for rewriting input into
// output. Kept separate from Transcode so the argument shape is testable
// without invoking ffmpeg.
func TranscodeArgs(input, output string, opts TranscodeOptions) []string {
	args := []string{"-v", "error", "-i", input}

	if opts.CopyStreams && opts.FrameRate <= 0 {
		args = append(args, "-c", "copy")
		if opts.AudioBitstreamFilter != "" {
			args = append(args, "-bsf:a", opts.AudioBitstreamFilter)
		}
	} else {
		videoCodec := opts.VideoCodec
		if videoCodec == "" {
			videoCodec = "libx264"
		}
		audioCodec := opts.AudioCodec
		if audioCodec == "" {
			audioCodec = "aac"
		}
		preset := opts.Preset
		if preset == "" {
			preset = "medium"
		}
		crf := opts.CRF
		if crf == 0 {
			crf = 23
		}

		if opts.FrameRate > 0 {
			args = append(args, "-r", fmt.Sprintf("%g", opts.FrameRate))
		}
		args = append(args,
			"-c:v", videoCodec,
			"-preset", preset,
			"-crf", fmt.Sprintf("%d", crf),
			"-c:a", audioCodec,
		)
		if opts.FrameRate > 0 {
			// Constant frame rate output, drop or duplicate frames as needed
			args = append(args, "-vsync", "cfr")
		}
	}

	args = append(args, "-movflags", "+faststart", "-y", output)
	return args
}

// Transcode rewrites input into output according to opts. The output
// container is inferred by ffmpeg from the output extension.
func (e *Engine) Transcode(ctx context.Context, input, output string, opts TranscodeOptions) error {
	return e.runFFmpeg(ctx, TranscodeArgs(input, output, opts))
}

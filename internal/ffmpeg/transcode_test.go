package ffmpeg

import (
	"strings"
	"testing"
)

func TestTranscodeArgsCopyStreams(t *testing.T) {
	args := TranscodeArgs("/in.ts", "/out.mp4", TranscodeOptions{CopyStreams: true})
	joined := strings.Join(args, " ")

	if !strings.Contains(joined, "-c copy") {
		t.Errorf("expected stream copy, got: %s", joined)
	}
	if strings.Contains(joined, "-bsf:a") {
		t.Errorf("bitstream filter applied without being requested: %s", joined)
	}
	if !strings.Contains(joined, "-movflags +faststart") {
		t.Errorf("expected faststart index, got: %s", joined)
	}
}

func TestTranscodeArgsAACBitstreamFilter(t *testing.T) {
	args := TranscodeArgs("/in.ts", "/out.mp4", TranscodeOptions{
		CopyStreams:          true,
		AudioBitstreamFilter: "aac_adtstoasc",
	})
	joined := strings.Join(args, " ")

	if !strings.Contains(joined, "-bsf:a aac_adtstoasc") {
		t.Errorf("expected aac_adtstoasc filter, got: %s", joined)
	}
}

func TestTranscodeArgsReencodeDefaults(t *testing.T) {
	args := TranscodeArgs("/in.mp4", "/out.mp4", TranscodeOptions{})
	joined := strings.Join(args, " ")

	if !strings.Contains(joined, "-c:v libx264") {
		t.Errorf("expected libx264 default, got: %s", joined)
	}
	if !strings.Contains(joined, "-c:a aac") {
		t.Errorf("expected aac default, got: %s", joined)
	}
	if !strings.Contains(joined, "-crf 23") {
		t.Errorf("expected default crf, got: %s", joined)
	}
	if strings.Contains(joined, "-r ") {
		t.Errorf("unexpected frame rate flag: %s", joined)
	}
}

func TestTranscodeArgsConstantFrameRate(t *testing.T) {
	args := TranscodeArgs("/in.mp4", "/out.mp4", TranscodeOptions{FrameRate: 30})
	joined := strings.Join(args, " ")

	if !strings.Contains(joined, "-r 30") {
		t.Errorf("expected forced frame rate, got: %s", joined)
	}
	if !strings.Contains(joined, "-vsync cfr") {
		t.Errorf("expected constant frame rate sync, got: %s", joined)
	}
	if !strings.Contains(joined, "-c:v libx264") {
		t.Errorf("frame rate fix must re-encode video, got: %s", joined)
	}
}

func TestTranscodeArgsFrameRateOverridesCopy(t *testing.T) {
	// A forced frame rate cannot be honored while stream-copying.
	args := TranscodeArgs("/in.mp4", "/out.mp4", TranscodeOptions{CopyStreams: true, FrameRate: 25})
	joined := strings.Join(args, " ")

	if strings.Contains(joined, "-c copy") {
		t.Errorf("stream copy must be dropped when forcing frame rate: %s", joined)
	}
}

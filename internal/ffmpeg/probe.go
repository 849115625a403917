package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ProbeResult is the decoded ffprobe JSON for one media file.
type ProbeResult struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// Probe inspects the file at path and decodes ffprobe's JSON output.
func (e *Engine) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("probe: empty path")
	}

	args := []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path}
	output, err := e.runFFprobe(ctx, args)
	if err != nil {
		return nil, err
	}

	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("probe parse: %w", err)
	}
	return &result, nil
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r *ProbeResult) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// VideoStream returns the first video stream, or nil if the file has none.
func (r *ProbeResult) VideoStream() *Stream {
	for i := range r.Streams {
		if strings.EqualFold(r.Streams[i].CodecType, "video") {
			return &r.Streams[i]
		}
	}
	return nil
}

// AudioStream returns the first audio stream, or nil if the file has none.
func (r *ProbeResult) AudioStream() *Stream {
	for i := range r.Streams {
		if strings.EqualFold(r.Streams[i].CodecType, "audio") {
			return &r.Streams[i]
		}
	}
	return nil
}

// IsMPEGTS reports whether the container is an MPEG transport stream.
// ffprobe reports format_name as a comma-separated list of demuxer names.
func (r *ProbeResult) IsMPEGTS() bool {
	for _, name := range strings.Split(r.Format.FormatName, ",") {
		if strings.TrimSpace(name) == "mpegts" {
			return true
		}
	}
	return false
}

// HasADTSAAC reports whether the first audio stream is AAC carried in a
// transport stream. Remuxing such audio into MP4 requires the aac_adtstoasc
// bitstream filter.
func (r *ProbeResult) HasADTSAAC() bool {
	audio := r.AudioStream()
	return audio != nil && strings.EqualFold(audio.CodecName, "aac") && r.IsMPEGTS()
}

// FrameRate returns the video frame rate in frames per second, or 0 when
// unavailable. r_frame_rate is a rational like "30000/1001".
func (r *ProbeResult) FrameRate() float64 {
	video := r.VideoStream()
	if video == nil {
		return 0
	}
	parts := strings.SplitN(video.RFrameRate, "/", 2)
	if len(parts) != 2 {
		return parseFloat(video.RFrameRate)
	}
	num := parseFloat(parts[0])
	den := parseFloat(parts[1])
	if den == 0 {
		return 0
	}
	return num / den
}

func parseFloat(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

package ffmpeg

import (
	"encoding/json"
	"testing"
)

func parseResult(t *testing.T, data string) *ProbeResult {
	t.Helper()
	var r ProbeResult
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		t.Fatalf("unmarshal probe result: %v", err)
	}
	return &r
}

func TestProbeResultDuration(t *testing.T) {
	r := parseResult(t, `{"format":{"duration":"120.5"}}`)
	if got := r.DurationSeconds(); got != 120.5 {
		t.Errorf("DurationSeconds() = %v, want 120.5", got)
	}

	empty := parseResult(t, `{"format":{}}`)
	if got := empty.DurationSeconds(); got != 0 {
		t.Errorf("DurationSeconds() on missing duration = %v, want 0", got)
	}
}

func TestProbeResultHasADTSAAC(t *testing.T) {
	tests := []struct {
		name string
		json string
		want bool
	}{
		{
			name: "aac in mpegts",
			json: `{"streams":[{"codec_type":"audio","codec_name":"aac"}],"format":{"format_name":"mpegts"}}`,
			want: true,
		},
		{
			name: "aac in mp4",
			json: `{"streams":[{"codec_type":"audio","codec_name":"aac"}],"format":{"format_name":"mov,mp4,m4a,3gp,3g2,mj2"}}`,
			want: false,
		},
		{
			name: "ac3 in mpegts",
			json: `{"streams":[{"codec_type":"audio","codec_name":"ac3"}],"format":{"format_name":"mpegts"}}`,
			want: false,
		},
		{
			name: "no audio stream",
			json: `{"streams":[{"codec_type":"video","codec_name":"h264"}],"format":{"format_name":"mpegts"}}`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := parseResult(t, tt.json)
			if got := r.HasADTSAAC(); got != tt.want {
				t.Errorf("HasADTSAAC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProbeResultFrameRate(t *testing.T) {
	r := parseResult(t, `{"streams":[{"codec_type":"video","r_frame_rate":"30000/1001"}]}`)
	got := r.FrameRate()
	if got < 29.9 || got > 30.0 {
		t.Errorf("FrameRate() = %v, want ~29.97", got)
	}

	noVideo := parseResult(t, `{"streams":[{"codec_type":"audio"}]}`)
	if got := noVideo.FrameRate(); got != 0 {
		t.Errorf("FrameRate() without video stream = %v, want 0", got)
	}
}

func TestProbeResultStreamSelection(t *testing.T) {
	r := parseResult(t, `{"streams":[
		{"index":0,"codec_type":"video","codec_name":"h264"},
		{"index":1,"codec_type":"audio","codec_name":"aac"},
		{"index":2,"codec_type":"audio","codec_name":"ac3"}
	]}`)

	if v := r.VideoStream(); v == nil || v.CodecName != "h264" {
		t.Errorf("VideoStream() = %+v, want h264", v)
	}
	if a := r.AudioStream(); a == nil || a.CodecName != "aac" {
		t.Errorf("AudioStream() = %+v, want first audio stream (aac)", a)
	}
}

package ffmpeg

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/maszaen/reelhouse/internal/logger"
)

// ToolStatus reports the availability of one engine binary.
type ToolStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
}

var versionPattern = regexp.MustCompile(`version\s+(\S+)`)

// resolveBinaryPath handles both absolute paths and PATH lookup.
func resolveBinaryPath(binaryPath string) (string, error) {
	if filepath.IsAbs(binaryPath) {
		if _, err := os.Stat(binaryPath); err != nil {
			return "", err
		}
		return binaryPath, nil
	}
	return exec.LookPath(binaryPath)
}

// CheckTools verifies both engine binaries are runnable and logs the result.
// A missing binary is reported, not fatal; every operation that needs it
// will fail with a clear error instead.
func (e *Engine) CheckTools() []ToolStatus {
	statuses := []ToolStatus{
		checkTool("ffmpeg", e.FFmpegPath),
		checkTool("ffprobe", e.FFprobePath),
	}

	for _, s := range statuses {
		if s.Available {
			logger.Infof("✓ %s %s found at %s", s.Name, s.Version, s.Path)
		} else {
			logger.Warnf("✗ %s not found (configured as %q)", s.Name, s.Path)
		}
	}
	return statuses
}

func checkTool(name, configuredPath string) ToolStatus {
	status := ToolStatus{Name: name, Path: configuredPath}

	resolved, err := resolveBinaryPath(configuredPath)
	if err != nil {
		return status
	}
	status.Path = resolved

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, resolved, "-version")
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return status
	}

	status.Available = true
	firstLine, _, _ := strings.Cut(out.String(), "\n")
	if m := versionPattern.FindStringSubmatch(firstLine); m != nil {
		status.Version = m[1]
	}
	return status
}

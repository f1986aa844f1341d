package out

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	calibrationout "neurocal/internal/modules/calibration/port/out"
)

// OSStimulusLauncher opens stimulus clips served by the backend in the
// desktop's default player.
type OSStimulusLauncher struct {
	baseURL string
}

func NewOSStimulusLauncher(baseURL string) calibrationout.StimulusLauncher {
	return &OSStimulusLauncher{baseURL: strings.TrimRight(baseURL, "/")}
}

func (l *OSStimulusLauncher) Open(_ context.Context, path string) error {
	target := path
	if strings.HasPrefix(path, "/") {
		target = l.baseURL + path
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "linux":
		cmd = exec.Command("xdg-open", target)
	default:
		return fmt.Errorf("stimulus playback is not supported on %s", runtime.GOOS)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open stimulus: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

package clipboard

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dkorbelainen/sniptext/pkg/logging"
)

const (
	// pasteTimeout bounds synchronous clipboard reads.
	pasteTimeout = 2 * time.Second
	// copyGracePeriod is how long the copy command may take to fail.
	// Wayland clipboard tools keep serving the selection past this
	// window; they are left running and reaped in the background.
	copyGracePeriod = 200 * time.Millisecond
)

// Manager copies and reads text through configured external commands.
type Manager struct {
	copyCmd  []string
	pasteCmd []string
	log      zerolog.Logger
}

// New builds a Manager for the resolved display server. Empty command
// slices select the server's defaults: wl-copy/wl-paste on Wayland,
// xclip on X11.
func New(displayServer string, copyCmd, pasteCmd []string) *Manager {
	if len(copyCmd) == 0 {
		if displayServer == "wayland" {
			copyCmd = []string{"wl-copy"}
		} else {
			copyCmd = []string{"xclip", "-selection", "clipboard"}
		}
	}
	if len(pasteCmd) == 0 {
		if displayServer == "wayland" {
			pasteCmd = []string{"wl-paste"}
		} else {
			pasteCmd = []string{"xclip", "-selection", "clipboard", "-o"}
		}
	}
	return &Manager{
		copyCmd:  copyCmd,
		pasteCmd: pasteCmd,
		log:      logging.GetLogger("clipboard"),
	}
}

// Copy writes text to the clipboard. The command receives the text on
// stdin; a command still running after the grace period is assumed to
// be serving the selection and counts as success.
func (m *Manager) Copy(ctx context.Context, text string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, m.copyCmd[0], m.copyCmd[1:]...)
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("opening clipboard stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting clipboard command %s: %w", m.copyCmd[0], err)
	}

	// A write error here means the command already exited; the wait
	// result below carries the real failure.
	stdin.Write([]byte(text))
	stdin.Close()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("clipboard command %s failed: %w (stderr: %s)",
				m.copyCmd[0], err, strings.TrimSpace(stderr.String()))
		}
	case <-time.After(copyGracePeriod):
		go func() { <-done }()
	}

	m.log.Debug().Int("chars", len(text)).Msg("Copied text to clipboard")
	return nil
}

// Paste returns the clipboard contents as-is.
func (m *Manager) Paste(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, pasteTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, m.pasteCmd[0], m.pasteCmd[1:]...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("reading clipboard with %s: %w", m.pasteCmd[0], err)
	}
	return string(out), nil
}

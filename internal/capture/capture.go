package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/dkorbelainen/sniptext/pkg/logging"
)

const (
	// selectionTimeout bounds the interactive region selection.
	selectionTimeout = 60 * time.Second
	// captureTimeout bounds the non-interactive grab after selection.
	captureTimeout = 10 * time.Second

	// geometryPlaceholder is replaced with the selection output.
	geometryPlaceholder = "{geometry}"
	// outputPlaceholder is replaced with the screenshot file path.
	outputPlaceholder = "{output}"
)

// ResolveDisplayServer maps the configured display_server value to
// "wayland" or "x11", sniffing the environment for "auto".
func ResolveDisplayServer(configured string) string {
	if configured != "" && configured != "auto" {
		return configured
	}
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return "wayland"
	}
	return "x11"
}

// Provider captures a user-selected screen region through configured
// external commands. No tool detection happens here; the commands are
// explicit configuration with per-display-server defaults.
type Provider struct {
	selectCmd  []string
	captureCmd []string
	log        zerolog.Logger
}

// New builds a Provider for the resolved display server. Empty command
// slices select the server's default tooling: slurp+grim on Wayland,
// maim on X11.
func New(displayServer string, selectCmd, captureCmd []string) *Provider {
	if len(captureCmd) == 0 {
		if displayServer == "wayland" {
			selectCmd = []string{"slurp"}
			captureCmd = []string{"grim", "-g", geometryPlaceholder, outputPlaceholder}
		} else {
			selectCmd = nil
			captureCmd = []string{"maim", "-s", outputPlaceholder}
		}
	}
	return &Provider{
		selectCmd:  selectCmd,
		captureCmd: captureCmd,
		log:        logging.GetLogger("capture"),
	}
}

// CaptureRegion captures a screen region selected by the user. A nil
// image with a nil error means the user cancelled the selection.
func (p *Provider) CaptureRegion(ctx context.Context) (image.Image, error) {
	tmp, err := os.CreateTemp("", "sniptext-*.png")
	if err != nil {
		return nil, fmt.Errorf("creating screenshot file: %w", err)
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	geometry := ""
	if len(p.selectCmd) > 0 {
		geometry, err = p.runSelection(ctx)
		if err != nil {
			return nil, err
		}
		if geometry == "" {
			p.log.Info().Msg("Selection cancelled by user")
			return nil, nil
		}
	}

	cancelled, err := p.runCapture(ctx, geometry, tmp.Name())
	if err != nil {
		return nil, err
	}
	if cancelled {
		p.log.Info().Msg("Capture cancelled by user")
		return nil, nil
	}

	img, err := imaging.Open(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("reading screenshot: %w", err)
	}

	bounds := img.Bounds()
	p.log.Info().
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Msg("Captured region")
	return img, nil
}

// runSelection runs the interactive selection command and returns its
// trimmed stdout. An empty string means the user cancelled.
func (p *Provider) runSelection(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, selectionTimeout)
	defer cancel()

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, p.selectCmd[0], p.selectCmd[1:]...)
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", nil
		}
		return "", fmt.Errorf("running selection command %s: %w", p.selectCmd[0], err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// runCapture runs the screenshot command. When no separate selection
// step exists the command itself is interactive, so a non-zero exit is
// treated as user cancellation rather than a failure.
func (p *Provider) runCapture(ctx context.Context, geometry, output string) (cancelled bool, err error) {
	interactive := len(p.selectCmd) == 0

	timeout := captureTimeout
	if interactive {
		timeout = selectionTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	argv := make([]string, len(p.captureCmd))
	for i, arg := range p.captureCmd {
		arg = strings.ReplaceAll(arg, geometryPlaceholder, geometry)
		arg = strings.ReplaceAll(arg, outputPlaceholder, output)
		argv[i] = arg
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && interactive {
			return true, nil
		}
		return false, fmt.Errorf("running capture command %s: %w (stderr: %s)",
			argv[0], err, strings.TrimSpace(stderr.String()))
	}
	return false, nil
}

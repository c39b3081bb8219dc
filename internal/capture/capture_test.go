package capture

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T) string {
	t.Helper()
	img := imaging.New(50, 30, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	path := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestResolveDisplayServer(t *testing.T) {
	assert.Equal(t, "wayland", ResolveDisplayServer("wayland"))
	assert.Equal(t, "x11", ResolveDisplayServer("x11"))

	t.Setenv("WAYLAND_DISPLAY", "wayland-1")
	assert.Equal(t, "wayland", ResolveDisplayServer("auto"))

	t.Setenv("WAYLAND_DISPLAY", "")
	assert.Equal(t, "x11", ResolveDisplayServer("auto"))
	assert.Equal(t, "x11", ResolveDisplayServer(""))
}

func TestNewDefaultCommands(t *testing.T) {
	wayland := New("wayland", nil, nil)
	assert.Equal(t, "slurp", wayland.selectCmd[0])
	assert.Equal(t, "grim", wayland.captureCmd[0])

	x11 := New("x11", nil, nil)
	assert.Empty(t, x11.selectCmd)
	assert.Equal(t, "maim", x11.captureCmd[0])
}

func TestCaptureRegionWithSelection(t *testing.T) {
	src := writeTestPNG(t)
	p := New("x11",
		[]string{"echo", "10,20 300x200"},
		[]string{"cp", src, outputPlaceholder})

	img, err := p.CaptureRegion(context.Background())
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())
}

func TestCaptureRegionSubstitutesGeometry(t *testing.T) {
	src := writeTestPNG(t)
	record := filepath.Join(t.TempDir(), "geometry.txt")
	p := New("x11",
		[]string{"echo", "10,20 300x200"},
		[]string{"sh", "-c", "echo $0 > " + record + " && cp " + src + " $1",
			geometryPlaceholder, outputPlaceholder})

	img, err := p.CaptureRegion(context.Background())
	require.NoError(t, err)
	require.NotNil(t, img)

	data, err := os.ReadFile(record)
	require.NoError(t, err)
	assert.Equal(t, "10,20 300x200", strings.TrimSpace(string(data)))
}

func TestCaptureRegionSelectionCancelled(t *testing.T) {
	p := New("x11", []string{"false"}, []string{"cp", "ignored", outputPlaceholder})

	img, err := p.CaptureRegion(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, img)
}

func TestCaptureRegionEmptySelectionIsCancel(t *testing.T) {
	p := New("x11", []string{"true"}, []string{"cp", "ignored", outputPlaceholder})

	img, err := p.CaptureRegion(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, img)
}

func TestCaptureRegionInteractiveCancel(t *testing.T) {
	p := New("x11", nil, []string{"false"})

	img, err := p.CaptureRegion(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, img)
}

func TestCaptureRegionCaptureFailure(t *testing.T) {
	p := New("x11", []string{"echo", "geom"}, []string{"false"})

	img, err := p.CaptureRegion(context.Background())
	assert.Error(t, err)
	assert.Nil(t, img)
}

func TestCaptureRegionMissingBinary(t *testing.T) {
	p := New("x11", nil, []string{"sniptext-no-such-tool-for-test"})

	img, err := p.CaptureRegion(context.Background())
	assert.Error(t, err)
	assert.Nil(t, img)
}

func TestCaptureRegionUnreadableOutput(t *testing.T) {
	p := New("x11", []string{"echo", "geom"}, []string{"true"})

	img, err := p.CaptureRegion(context.Background())
	assert.Error(t, err, "capture command produced no screenshot file")
	assert.Nil(t, img)
}

package vision

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func checkerboard(w, h, cell int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/cell+y/cell)%2 == 0 {
				img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{0, 0, 0, 255})
			}
		}
	}
	return img
}

func TestExtractProducesNormalizedVector(t *testing.T) {
	images := []image.Image{
		uniformImage(400, 200, color.RGBA{128, 128, 128, 255}),
		checkerboard(400, 200, 4),
		uniformImage(50, 50, color.RGBA{200, 30, 90, 255}),
	}

	for _, img := range images {
		fv, err := Extract(img)
		require.NoError(t, err)

		for _, v := range fv.Values() {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestExtractRejectsEmptyImage(t *testing.T) {
	_, err := Extract(nil)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = Extract(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestExtractUniformImageHasNoContrastOrEdges(t *testing.T) {
	fv, err := Extract(uniformImage(200, 200, color.RGBA{128, 128, 128, 255}))
	require.NoError(t, err)

	assert.InDelta(t, 128.0/255.0, fv.Brightness, 0.01)
	assert.Zero(t, fv.Contrast)
	assert.Zero(t, fv.Sharpness)
	assert.Zero(t, fv.ColorVariance)
}

func TestExtractCheckerboardIsSharpAndContrasty(t *testing.T) {
	fv, err := Extract(checkerboard(200, 200, 2))
	require.NoError(t, err)

	// Alternating black/white cells saturate both normalized channels.
	assert.Equal(t, 1.0, fv.Contrast)
	assert.Equal(t, 1.0, fv.Sharpness)
	assert.Zero(t, fv.ColorVariance, "black/white content is not color")
}

func TestExtractDetectsColorContent(t *testing.T) {
	colored, err := Extract(uniformImage(100, 100, color.RGBA{220, 40, 40, 255}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, colored.ColorVariance)

	gray, err := Extract(uniformImage(100, 100, color.RGBA{90, 90, 90, 255}))
	require.NoError(t, err)
	assert.Zero(t, gray.ColorVariance)
}

func TestExtractCapsAspectRatio(t *testing.T) {
	wide, err := Extract(uniformImage(900, 100, color.RGBA{128, 128, 128, 255}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, wide.AspectRatio)

	square, err := Extract(uniformImage(100, 100, color.RGBA{128, 128, 128, 255}))
	require.NoError(t, err)
	assert.InDelta(t, 0.2, square.AspectRatio, 1e-9)
}

func TestEnhanceUpscalesSmallCaptures(t *testing.T) {
	out := Enhance(uniformImage(200, 40, color.RGBA{128, 128, 128, 255}))
	bounds := out.Bounds()

	// Scale factor is max(2.0, 100/40, 300/200) = 2.5.
	assert.Equal(t, 500, bounds.Dx())
	assert.Equal(t, 100, bounds.Dy())
}

func TestEnhanceKeepsLargeCaptureSize(t *testing.T) {
	out := Enhance(checkerboard(640, 480, 8))
	bounds := out.Bounds()

	assert.Equal(t, 640, bounds.Dx())
	assert.Equal(t, 480, bounds.Dy())
}

func TestEnhanceIsSafeToReapply(t *testing.T) {
	img := image.Image(uniformImage(200, 40, color.RGBA{30, 30, 30, 255}))

	for i := 0; i < 3; i++ {
		img = Enhance(img)
		require.NotNil(t, img)
		bounds := img.Bounds()
		require.Positive(t, bounds.Dx())
		require.Positive(t, bounds.Dy())
	}
}

func TestSuggestSegmentationMode(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		want SegmentationMode
	}{
		{"wide short strip", 500, 40, ModeSingleLine},
		{"small capture", 200, 150, ModeSparse},
		{"tall column", 400, 900, ModeColumn},
		{"regular block", 800, 600, ModeBlock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := uniformImage(tt.w, tt.h, color.RGBA{128, 128, 128, 255})
			assert.Equal(t, tt.want, SuggestSegmentationMode(img))
		})
	}
}

func TestSegmentationModePSMMapping(t *testing.T) {
	assert.Equal(t, 7, ModeSingleLine.TesseractPSM())
	assert.Equal(t, 11, ModeSparse.TesseractPSM())
	assert.Equal(t, 6, ModeColumn.TesseractPSM())
	assert.Equal(t, 6, ModeBlock.TesseractPSM())
}

package vision

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/dkorbelainen/sniptext/pkg/logging"
)

// Enhancement triggers, on the raw measurement scale.
const (
	minUsableHeight    = 100
	minUsableWidth     = 300
	invertBrightness   = 100.0 // mean luma below this implies a dark background
	lowContrastStdDev  = 40.0
	darkBrightness     = 80.0
	brightBrightness   = 200.0
	contrastBoostPct   = 80.0 // ~1.8x
	sharpenSigma       = 1.5
	brightenPct        = 40.0  // ~1.4x
	darkenPct          = -20.0 // ~0.8x
)

// Enhance applies corrective transforms chosen from a freshly computed
// feature descriptor: upscale, invert, contrast boost, sharpening and
// brightness adjustment, in that order. The descriptor is computed once
// after the upscale step and drives all later decisions. Repeated
// application is safe but not visually neutral.
func Enhance(img image.Image) image.Image {
	if img == nil {
		return nil
	}
	logger := logging.GetLogger("vision")

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return img
	}

	// Upscale small captures. Tiny regions are the most common source
	// of unusable recognition output.
	if h < minUsableHeight || w < minUsableWidth {
		factor := math.Max(2.0, math.Max(
			float64(minUsableHeight)/float64(h),
			float64(minUsableWidth)/float64(w)))
		newW := int(float64(w) * factor)
		newH := int(float64(h) * factor)
		img = imaging.Resize(img, newW, newH, imaging.Lanczos)
		logger.Debug().
			Int("from_width", w).Int("from_height", h).
			Int("to_width", newW).Int("to_height", newH).
			Msg("Upscaled image")
	}

	fv, err := Extract(img)
	if err != nil {
		return img
	}
	brightness := fv.Brightness * 255.0
	contrastStdDev := fv.Contrast * contrastCeiling

	if brightness < invertBrightness {
		img = imaging.Invert(img)
		logger.Debug().Float64("brightness", brightness).Msg("Inverted dark image")
	}

	if contrastStdDev < lowContrastStdDev {
		img = imaging.AdjustContrast(img, contrastBoostPct)
		logger.Debug().Float64("contrast", contrastStdDev).Msg("Boosted contrast")
	}

	img = imaging.Sharpen(img, sharpenSigma)

	if brightness < darkBrightness {
		img = imaging.AdjustBrightness(img, brightenPct)
		logger.Debug().Float64("brightness", brightness).Msg("Increased brightness")
	} else if brightness > brightBrightness {
		img = imaging.AdjustBrightness(img, darkenPct)
		logger.Debug().Float64("brightness", brightness).Msg("Decreased brightness")
	}

	return img
}

package vision

import (
	"errors"
	"image"
	"math"

	"github.com/dkorbelainen/sniptext/pkg/logging"
)

// ErrEmptyImage indicates a nil or zero-size input raster.
var ErrEmptyImage = errors.New("empty image")

// Calibration constants for feature normalization. These are fixed
// empirical values, not configuration.
const (
	contrastCeiling        = 60.0
	sharpnessCeiling       = 30.0
	colorVarianceThreshold = 10.0
	aspectCap              = 5.0
)

// FeatureVector is a compact quality descriptor of a captured image.
// All fields are normalized to [0,1]. ColorVariance is binary: 1 when
// the channel means diverge enough to indicate real color content.
type FeatureVector struct {
	Brightness    float64 `json:"brightness"`
	Contrast      float64 `json:"contrast"`
	Sharpness     float64 `json:"sharpness"`
	ColorVariance float64 `json:"color_variance"`
	AspectRatio   float64 `json:"aspect_ratio"`
}

// Values returns the vector in its fixed field order.
func (f FeatureVector) Values() [5]float64 {
	return [5]float64{f.Brightness, f.Contrast, f.Sharpness, f.ColorVariance, f.AspectRatio}
}

// Extract computes a FeatureVector from img. Brightness and sharpness
// are measured on the luma channel, contrast and color variance on the
// per-channel statistics.
func Extract(img image.Image) (FeatureVector, error) {
	stats, err := analyze(img)
	if err != nil {
		return FeatureVector{}, err
	}

	aspect := stats.aspect()

	fv := FeatureVector{
		Brightness:    stats.brightness / 255.0,
		Contrast:      math.Min(stats.contrast/contrastCeiling, 1.0),
		Sharpness:     math.Min(stats.sharpness/sharpnessCeiling, 1.0),
		ColorVariance: 0,
		AspectRatio:   math.Min(aspect, aspectCap) / aspectCap,
	}
	if stats.colorVariance > colorVarianceThreshold {
		fv.ColorVariance = 1
	}

	logger := logging.GetLogger("vision")
	logger.Debug().
		Float64("brightness", stats.brightness).
		Float64("contrast", stats.contrast).
		Float64("sharpness", stats.sharpness).
		Float64("color_variance", stats.colorVariance).
		Float64("aspect_ratio", aspect).
		Msg("Extracted image features")

	return fv, nil
}

// imageStats carries the raw (unnormalized) measurements of one image.
type imageStats struct {
	width, height int
	brightness    float64 // mean luma, 0-255
	contrast      float64 // mean per-channel std-dev
	sharpness     float64 // mean |row diff| + mean |col diff| over luma
	colorVariance float64 // std-dev of the three channel means
}

func (s *imageStats) aspect() float64 {
	if s.height == 0 {
		return 1.0
	}
	return float64(s.width) / float64(s.height)
}

func analyze(img image.Image) (*imageStats, error) {
	if img == nil {
		return nil, ErrEmptyImage
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyImage
	}

	n := float64(w * h)
	luma := make([]float64, w*h)

	var sumR, sumG, sumB float64
	var sumR2, sumG2, sumB2 float64
	var sumLuma float64

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r16, g16, b16, _ := img.At(x, y).RGBA()
			r := float64(r16 >> 8)
			g := float64(g16 >> 8)
			b := float64(b16 >> 8)

			sumR += r
			sumG += g
			sumB += b
			sumR2 += r * r
			sumG2 += g * g
			sumB2 += b * b

			// ITU-R 601-2 luma, same transform used for grayscale conversion
			l := 0.299*r + 0.587*g + 0.114*b
			luma[i] = l
			sumLuma += l
			i++
		}
	}

	meanR := sumR / n
	meanG := sumG / n
	meanB := sumB / n

	stdR := populationStdDev(sumR2, meanR, n)
	stdG := populationStdDev(sumG2, meanG, n)
	stdB := populationStdDev(sumB2, meanB, n)

	// Color variance: spread of the channel means. Grayscale content
	// keeps all three means close together.
	channelMean := (meanR + meanG + meanB) / 3.0
	colorVar := math.Sqrt(((meanR-channelMean)*(meanR-channelMean) +
		(meanG-channelMean)*(meanG-channelMean) +
		(meanB-channelMean)*(meanB-channelMean)) / 3.0)

	return &imageStats{
		width:         w,
		height:        h,
		brightness:    sumLuma / n,
		contrast:      (stdR + stdG + stdB) / 3.0,
		sharpness:     lumaEdgeDensity(luma, w, h),
		colorVariance: colorVar,
	}, nil
}

func populationStdDev(sumSq, mean, n float64) float64 {
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// lumaEdgeDensity approximates edge density as the mean absolute
// vertical difference plus the mean absolute horizontal difference.
func lumaEdgeDensity(luma []float64, w, h int) float64 {
	var vertical float64
	if h > 1 {
		var sum float64
		for y := 0; y < h-1; y++ {
			for x := 0; x < w; x++ {
				sum += math.Abs(luma[(y+1)*w+x] - luma[y*w+x])
			}
		}
		vertical = sum / float64((h-1)*w)
	}

	var horizontal float64
	if w > 1 {
		var sum float64
		for y := 0; y < h; y++ {
			for x := 0; x < w-1; x++ {
				sum += math.Abs(luma[y*w+x+1] - luma[y*w+x])
			}
		}
		horizontal = sum / float64(h*(w-1))
	}

	return vertical + horizontal
}

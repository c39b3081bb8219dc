package vision

import "image"

// SegmentationMode is an advisory layout hint for recognition backends.
type SegmentationMode int

const (
	// ModeBlock is a uniform block of text, the common case.
	ModeBlock SegmentationMode = iota
	// ModeSingleLine is a very wide, short capture holding one line.
	ModeSingleLine
	// ModeSparse is a small capture with scattered text.
	ModeSparse
	// ModeColumn is a tall narrow capture, likely a single column.
	ModeColumn
)

func (m SegmentationMode) String() string {
	switch m {
	case ModeSingleLine:
		return "single_line"
	case ModeSparse:
		return "sparse"
	case ModeColumn:
		return "column"
	default:
		return "block"
	}
}

// TesseractPSM maps the mode onto a Tesseract page segmentation mode.
func (m SegmentationMode) TesseractPSM() int {
	switch m {
	case ModeSingleLine:
		return 7
	case ModeSparse:
		return 11
	default:
		return 6
	}
}

// SuggestSegmentationMode classifies the capture layout from its
// dimensions alone. The result is backend hint metadata, never
// enforced by the pipeline.
func SuggestSegmentationMode(img image.Image) SegmentationMode {
	if img == nil {
		return ModeBlock
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return ModeBlock
	}
	aspect := float64(w) / float64(h)

	switch {
	case aspect > 4.0 && h < minUsableHeight:
		return ModeSingleLine
	case w < minUsableWidth || h < minUsableHeight:
		return ModeSparse
	case aspect < 0.5:
		return ModeColumn
	default:
		return ModeBlock
	}
}

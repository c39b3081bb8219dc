//go:build !ocr
// +build !ocr

package ocr

import (
	"context"
	"errors"
	"image"
)

// TesseractBackend placeholder used when the binary is built without
// the ocr tag. It registers but never reports itself available.
type TesseractBackend struct {
	Language string
}

func NewTesseractBackend(language string) *TesseractBackend {
	if language == "" {
		language = "eng"
	}
	return &TesseractBackend{Language: language}
}

func (t *TesseractBackend) Name() string { return "tesseract" }

func (t *TesseractBackend) Available() bool { return false }

func (t *TesseractBackend) Recognize(ctx context.Context, img image.Image, hint Hint) (string, error) {
	return "", errors.New("built without tesseract support, rebuild with -tags ocr")
}

//go:build ocr
// +build ocr

package ocr

import (
	"context"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/dkorbelainen/sniptext/pkg/logging"
)

// TesseractBackend recognizes text through a local Tesseract
// installation. It is the fast-path default.
type TesseractBackend struct {
	Language string // Tesseract language code (e.g. "eng", "eng+rus")
}

func NewTesseractBackend(language string) *TesseractBackend {
	if language == "" {
		language = "eng"
	}
	return &TesseractBackend{Language: language}
}

func (t *TesseractBackend) Name() string { return "tesseract" }

func (t *TesseractBackend) Available() bool { return true }

// Recognize runs one synchronous Tesseract pass. The engine itself
// cannot be interrupted, so cancellation is only checked at the
// boundaries.
func (t *TesseractBackend) Recognize(ctx context.Context, img image.Image, hint Hint) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	content, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.Language); err != nil {
		return "", err
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(hint.Mode.TesseractPSM())); err != nil {
		return "", err
	}
	if err := client.SetImageFromBytes(content); err != nil {
		return "", err
	}

	text, err := client.Text()
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	log := logging.GetBackendLogger(t.Name(), "recognize")
	log.Debug().
		Int("text_length", len(text)).
		Str("psm", hint.Mode.String()).
		Msg("Tesseract pass complete")

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return text, nil
}

package engine

import (
	"context"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dkorbelainen/sniptext/internal/config"
	"github.com/dkorbelainen/sniptext/pkg/classifier"
	"github.com/dkorbelainen/sniptext/pkg/correct"
	"github.com/dkorbelainen/sniptext/pkg/fusion"
	"github.com/dkorbelainen/sniptext/pkg/logging"
	"github.com/dkorbelainen/sniptext/pkg/ocr"
	"github.com/dkorbelainen/sniptext/pkg/vision"
)

// Outcome is the result of one recognition request.
type Outcome struct {
	RequestID          string
	Text               string
	Strategy           classifier.Strategy
	StrategyConfidence float64

	// Agreement is the inter-backend agreement score. It is only
	// meaningful when AgreementValid is set, which requires at least
	// two backend results.
	Agreement      float64
	AgreementValid bool

	// Backends lists the backends that contributed a result.
	Backends []string
}

// Engine orchestrates a recognition request: feature extraction,
// strategy classification, enhancement, backend dispatch, fusion and
// correction.
type Engine struct {
	cfg        *config.Config
	classifier *classifier.Classifier
	dispatcher *ocr.Dispatcher
	fuser      *fusion.Engine
	corrector  *correct.Corrector
	log        zerolog.Logger
}

// New assembles an Engine from configuration. The tesseract backend is
// registered first so ensemble results keep a stable order.
func New(cfg *config.Config) *Engine {
	registry := ocr.NewRegistry()
	registry.Register(ocr.NewTesseractBackend(cfg.OCRLanguage))
	registry.Register(ocr.NewOllamaBackend(cfg.OllamaURL, cfg.OllamaModel))

	preferred := "tesseract"
	if cfg.OCREngine == "ollama" {
		preferred = "ollama"
	}
	dispatcher := ocr.NewDispatcher(registry, preferred, time.Duration(cfg.BackendTimeout))

	return NewWithParts(cfg,
		classifier.New(cfg.ModelFile()),
		dispatcher,
		fusion.New(fusion.ScriptForLanguage(cfg.OCRLanguage)),
		correct.New(cfg.OCRLanguage))
}

// NewWithParts wires an Engine from prebuilt components.
func NewWithParts(cfg *config.Config, cls *classifier.Classifier, dispatcher *ocr.Dispatcher,
	fuser *fusion.Engine, corrector *correct.Corrector) *Engine {
	return &Engine{
		cfg:        cfg,
		classifier: cls,
		dispatcher: dispatcher,
		fuser:      fuser,
		corrector:  corrector,
		log:        logging.GetLogger("engine"),
	}
}

// Recognize runs the full pipeline on a captured image. An empty
// Outcome.Text with a nil error means no text was recognized.
func (e *Engine) Recognize(ctx context.Context, img image.Image) (Outcome, error) {
	if img == nil {
		return Outcome{}, vision.ErrEmptyImage
	}

	requestID := uuid.New().String()
	log := logging.GetRequestLogger(requestID, "recognize")
	start := time.Now()

	img = e.capSize(img, log)

	features, err := vision.Extract(img)
	if err != nil {
		return Outcome{}, err
	}

	decision := e.decide(features)
	log.Info().
		Str("strategy", decision.Strategy.String()).
		Float64("confidence", decision.Confidence).
		Msg("Strategy selected")

	enhanced := vision.Enhance(img)
	hint := ocr.Hint{Mode: vision.SuggestSegmentationMode(enhanced)}

	results, err := e.dispatcher.Dispatch(ctx, enhanced, decision, hint)
	if err != nil {
		return Outcome{}, err
	}

	fused := e.fuser.Fuse(results)

	text := fused.Text
	if e.cfg.EnableTextCorrection && text != "" {
		text = e.corrector.Correct(text, e.cfg.AggressiveCorrection)
	}

	if fused.Measured && fused.Confidence < e.cfg.OCRConfidenceThreshold {
		log.Warn().
			Float64("agreement", fused.Confidence).
			Float64("threshold", e.cfg.OCRConfidenceThreshold).
			Msg("Low backend agreement")
	}

	e.classifier.RecordResult(features, decision.Strategy, text != "")

	backends := make([]string, len(results))
	for i, r := range results {
		backends[i] = r.Source
	}

	if text == "" {
		log.Warn().Msg("No text recognized")
	} else {
		log.Info().
			Int("chars", len(text)).
			Dur("elapsed", time.Since(start)).
			Msg("Recognition complete")
	}

	return Outcome{
		RequestID:          requestID,
		Text:               text,
		Strategy:           decision.Strategy,
		StrategyConfidence: decision.Confidence,
		Agreement:          fused.Confidence,
		AgreementValid:     fused.Measured,
		Backends:           backends,
	}, nil
}

// decide picks the dispatch strategy. Fixed engine modes bypass the
// classifier; adaptive ensemble mode routes per image quality.
func (e *Engine) decide(features vision.FeatureVector) classifier.Decision {
	switch e.cfg.OCREngine {
	case "tesseract", "ollama":
		return classifier.Decision{Strategy: classifier.StrategyFast, Confidence: 1.0}
	}
	if !e.cfg.AdaptiveEnsemble {
		return classifier.Decision{Strategy: classifier.StrategyEnsemble, Confidence: 1.0}
	}
	return e.classifier.Decide(features)
}

// capSize bounds the longest image edge to max_image_size.
func (e *Engine) capSize(img image.Image, log zerolog.Logger) image.Image {
	bounds := img.Bounds()
	longest := bounds.Dx()
	if bounds.Dy() > longest {
		longest = bounds.Dy()
	}
	if longest <= e.cfg.MaxImageSize {
		return img
	}

	resized := imaging.Fit(img, e.cfg.MaxImageSize, e.cfg.MaxImageSize, imaging.Lanczos)
	log.Debug().
		Int("from", longest).
		Int("to", e.cfg.MaxImageSize).
		Msg("Downscaled oversized capture")
	return resized
}

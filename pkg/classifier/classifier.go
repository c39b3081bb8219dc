package classifier

import (
	"errors"
	"math"
	"os"

	"github.com/rs/zerolog"

	"github.com/dkorbelainen/sniptext/pkg/logging"
	"github.com/dkorbelainen/sniptext/pkg/vision"
)

// Strategy selects between the cheap single-backend path and the
// expensive multi-backend ensemble path.
type Strategy int

const (
	StrategyFast Strategy = iota
	StrategyEnsemble
)

func (s Strategy) String() string {
	if s == StrategyEnsemble {
		return "ensemble"
	}
	return "fast"
}

// Decision is the routing verdict for one capture.
type Decision struct {
	Strategy   Strategy `json:"strategy"`
	Confidence float64  `json:"confidence"`
}

// StrategyPredictor resolves borderline cases the fixed rules cannot.
// The trained model and the heuristic fallback both satisfy it.
type StrategyPredictor interface {
	PredictStrategy(features [5]float64) Decision
}

// Classifier maps a feature vector to a strategy decision. Clear-cut
// images short-circuit on fixed rules; borderline ones defer to the
// predictor.
type Classifier struct {
	predictor StrategyPredictor
	modelPath string
	logger    zerolog.Logger
}

// New builds a classifier backed by a persisted model when one exists
// at modelPath, otherwise by a model trained on the synthetic baseline
// set. An empty modelPath skips persistence entirely. Load and save
// failures are absorbed: the classifier always comes up usable.
func New(modelPath string) *Classifier {
	logger := logging.GetLogger("classifier")
	c := &Classifier{modelPath: modelPath, logger: logger}

	if modelPath != "" {
		model, err := LoadModel(modelPath)
		if err == nil {
			c.predictor = model
			logger.Info().Str("path", modelPath).Msg("Loaded strategy model")
			return c
		}
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn().Err(err).Str("path", modelPath).Msg("Failed to load strategy model, retraining")
		}
	}

	logger.Info().Msg("Initializing strategy model from baseline data")
	features, labels := SyntheticTrainingSet(bootstrapSeed)
	model := TrainGBDT(features, labels, DefaultGBDTConfig())
	c.predictor = model

	imp := model.FeatureImportances()
	logger.Debug().
		Float64("brightness", imp[0]).
		Float64("contrast", imp[1]).
		Float64("sharpness", imp[2]).
		Float64("has_color", imp[3]).
		Float64("size_ratio", imp[4]).
		Msg("Feature importances")

	if modelPath != "" {
		if err := SaveModel(modelPath, model); err != nil {
			logger.Warn().Err(err).Str("path", modelPath).Msg("Failed to persist strategy model")
		}
	}
	return c
}

// NewWithPredictor builds a classifier around a caller-supplied
// borderline predictor.
func NewWithPredictor(p StrategyPredictor) *Classifier {
	return &Classifier{predictor: p, logger: logging.GetLogger("classifier")}
}

// Decide applies the routing policy, first match wins:
//  1. High contrast and sharpness: fast path, scored confidence.
//  2. Very low contrast or sharpness: ensemble, fixed 0.9 confidence.
//  3. Borderline: defer to the predictor.
func (c *Classifier) Decide(fv vision.FeatureVector) Decision {
	contrast := fv.Contrast
	sharpness := fv.Sharpness
	qualityScore := contrast*0.6 + sharpness*0.4

	var d Decision
	switch {
	case contrast > 0.5 && sharpness > 0.4:
		d = Decision{StrategyFast, math.Min(qualityScore, 0.95)}
	case contrast < 0.2 || sharpness < 0.2:
		d = Decision{StrategyEnsemble, 0.9}
	default:
		p := c.predictor
		if p == nil {
			p = heuristicPredictor{}
		}
		d = p.PredictStrategy(fv.Values())
	}

	c.logger.Debug().
		Str("strategy", d.Strategy.String()).
		Float64("confidence", d.Confidence).
		Float64("quality", qualityScore).
		Msg("Predicted strategy")
	return d
}

// RecordResult is a hook for future online learning. Outcomes are
// logged only for now.
func (c *Classifier) RecordResult(fv vision.FeatureVector, strategy Strategy, success bool) {
	c.logger.Debug().
		Str("strategy", strategy.String()).
		Bool("success", success).
		Msg("Recorded recognition outcome")
}

// heuristicPredictor is the model-free fallback: average contrast and
// sharpness into a quality score and route on 0.5.
type heuristicPredictor struct{}

func (heuristicPredictor) PredictStrategy(x [5]float64) Decision {
	score := (x[1] + x[2]) / 2
	if score > 0.5 {
		return Decision{StrategyFast, score}
	}
	return Decision{StrategyEnsemble, 1.0 - score}
}

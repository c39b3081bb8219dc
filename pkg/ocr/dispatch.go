package ocr

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dkorbelainen/sniptext/pkg/classifier"
	"github.com/dkorbelainen/sniptext/pkg/logging"
)

// DefaultBackendTimeout bounds each backend during ensemble fan-out so
// one stuck engine cannot stall the capture flow.
const DefaultBackendTimeout = 30 * time.Second

// Dispatcher routes a recognition request to one backend or to all of
// them, depending on the strategy decision.
type Dispatcher struct {
	registry  *Registry
	preferred string
	timeout   time.Duration
	logger    zerolog.Logger
}

func NewDispatcher(registry *Registry, preferred string, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultBackendTimeout
	}
	return &Dispatcher{
		registry:  registry,
		preferred: preferred,
		timeout:   timeout,
		logger:    logging.GetLogger("dispatcher"),
	}
}

// Dispatch runs the fast path on the default backend or fans out to
// every available backend. In ensemble mode individual failures are
// logged and dropped; an empty result set means no backend produced a
// transcript and is a valid outcome. In fast mode the sole backend's
// failure is the caller's problem and propagates.
func (d *Dispatcher) Dispatch(ctx context.Context, img image.Image, decision classifier.Decision, hint Hint) ([]Result, error) {
	if decision.Strategy == classifier.StrategyFast {
		return d.dispatchFast(ctx, img, hint)
	}
	return d.dispatchEnsemble(ctx, img, hint)
}

func (d *Dispatcher) dispatchFast(ctx context.Context, img image.Image, hint Hint) ([]Result, error) {
	backend, err := d.registry.Default(d.preferred)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	text, err := backend.Recognize(ctx, img, hint)
	if err != nil {
		return nil, &BackendError{Backend: backend.Name(), Err: err}
	}

	d.logger.Debug().
		Str("backend", backend.Name()).
		Dur("elapsed", time.Since(start)).
		Msg("Fast path complete")

	return []Result{{Source: backend.Name(), Text: text}}, nil
}

func (d *Dispatcher) dispatchEnsemble(ctx context.Context, img image.Image, hint Hint) ([]Result, error) {
	backends := d.registry.Available()
	if len(backends) == 0 {
		d.logger.Warn().Msg("No backends available for ensemble")
		return []Result{}, nil
	}

	// Each backend writes its own slot so the returned order follows
	// registration order regardless of completion order. Fusion
	// tie-breaking stays deterministic that way.
	slots := make([]*Result, len(backends))
	var wg sync.WaitGroup

	for i, backend := range backends {
		wg.Add(1)
		go func(i int, b Backend) {
			defer wg.Done()

			bctx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()

			start := time.Now()
			text, err := b.Recognize(bctx, img, hint)
			elapsed := time.Since(start)
			if err != nil {
				d.logger.Warn().
					Err(err).
					Str("backend", b.Name()).
					Dur("elapsed", elapsed).
					Msg("Ensemble backend failed")
				return
			}

			d.logger.Debug().
				Str("backend", b.Name()).
				Dur("elapsed", elapsed).
				Int("text_length", len(text)).
				Msg("Ensemble backend complete")
			slots[i] = &Result{Source: b.Name(), Text: text}
		}(i, backend)
	}
	wg.Wait()

	results := make([]Result, 0, len(backends))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results, nil
}

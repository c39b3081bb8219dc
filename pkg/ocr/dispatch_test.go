package ocr

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkorbelainen/sniptext/pkg/classifier"
)

type fakeBackend struct {
	name      string
	available bool
	text      string
	err       error
	delay     time.Duration
}

func (f *fakeBackend) Name() string    { return f.name }
func (f *fakeBackend) Available() bool { return f.available }

func (f *fakeBackend) Recognize(ctx context.Context, img image.Image, hint Hint) (string, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 10, 10))
}

func fastDecision() classifier.Decision {
	return classifier.Decision{Strategy: classifier.StrategyFast, Confidence: 0.9}
}

func ensembleDecision() classifier.Decision {
	return classifier.Decision{Strategy: classifier.StrategyEnsemble, Confidence: 0.9}
}

func TestRegistryDefaultPrefersConfiguredBackend(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeBackend{name: "first", available: true})
	reg.Register(&fakeBackend{name: "second", available: true})

	b, err := reg.Default("second")
	require.NoError(t, err)
	assert.Equal(t, "second", b.Name())
}

func TestRegistryDefaultFallsBackWhenPreferredUnavailable(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeBackend{name: "first", available: false})
	reg.Register(&fakeBackend{name: "second", available: true})

	b, err := reg.Default("first")
	require.NoError(t, err)
	assert.Equal(t, "second", b.Name())
}

func TestRegistryDefaultErrorsWithoutUsableBackend(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeBackend{name: "first", available: false})

	_, err := reg.Default("first")
	assert.ErrorIs(t, err, ErrNoBackends)
}

func TestRegistryReplacesBackendInPlace(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeBackend{name: "a", available: true, text: "old"})
	reg.Register(&fakeBackend{name: "b", available: true})
	reg.Register(&fakeBackend{name: "a", available: true, text: "new"})

	backends := reg.Backends()
	require.Len(t, backends, 2)
	assert.Equal(t, "a", backends[0].Name())

	b, ok := reg.Get("a")
	require.True(t, ok)
	text, err := b.Recognize(context.Background(), testImage(), Hint{})
	require.NoError(t, err)
	assert.Equal(t, "new", text)
}

func TestDispatchFastReturnsSingleTaggedResult(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeBackend{name: "tesseract", available: true, text: "hello world"})
	d := NewDispatcher(reg, "tesseract", time.Second)

	results, err := d.Dispatch(context.Background(), testImage(), fastDecision(), Hint{})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "tesseract", results[0].Source)
	assert.Equal(t, "hello world", results[0].Text)
}

func TestDispatchFastPropagatesSoleBackendFailure(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeBackend{name: "tesseract", available: true, err: errors.New("boom")})
	d := NewDispatcher(reg, "tesseract", time.Second)

	_, err := d.Dispatch(context.Background(), testImage(), fastDecision(), Hint{})
	require.Error(t, err)

	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "tesseract", be.Backend)
}

func TestDispatchFastErrorsWithoutBackends(t *testing.T) {
	d := NewDispatcher(NewRegistry(), "tesseract", time.Second)

	_, err := d.Dispatch(context.Background(), testImage(), fastDecision(), Hint{})
	assert.ErrorIs(t, err, ErrNoBackends)
}

func TestDispatchEnsembleCollectsAllBackends(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeBackend{name: "tesseract", available: true, text: "from tesseract"})
	reg.Register(&fakeBackend{name: "ollama", available: true, text: "from ollama"})
	d := NewDispatcher(reg, "tesseract", time.Second)

	results, err := d.Dispatch(context.Background(), testImage(), ensembleDecision(), Hint{})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "tesseract", results[0].Source)
	assert.Equal(t, "ollama", results[1].Source)
}

func TestDispatchEnsembleSwallowsIndividualFailures(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeBackend{name: "tesseract", available: true, err: errors.New("crashed")})
	reg.Register(&fakeBackend{name: "ollama", available: true, text: "survived"})
	d := NewDispatcher(reg, "tesseract", time.Second)

	results, err := d.Dispatch(context.Background(), testImage(), ensembleDecision(), Hint{})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "ollama", results[0].Source)
	assert.Equal(t, "survived", results[0].Text)
}

func TestDispatchEnsembleEmptySetIsValid(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeBackend{name: "tesseract", available: true, err: errors.New("crashed")})
	d := NewDispatcher(reg, "tesseract", time.Second)

	results, err := d.Dispatch(context.Background(), testImage(), ensembleDecision(), Hint{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDispatchEnsembleNoAvailableBackends(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeBackend{name: "tesseract", available: false})
	d := NewDispatcher(reg, "tesseract", time.Second)

	results, err := d.Dispatch(context.Background(), testImage(), ensembleDecision(), Hint{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDispatchEnsembleDropsTimedOutBackend(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeBackend{name: "slow", available: true, text: "late", delay: 500 * time.Millisecond})
	reg.Register(&fakeBackend{name: "quick", available: true, text: "on time"})
	d := NewDispatcher(reg, "quick", 50*time.Millisecond)

	results, err := d.Dispatch(context.Background(), testImage(), ensembleDecision(), Hint{})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "quick", results[0].Source)
}

func TestDispatchEnsembleHonorsCallerCancellation(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeBackend{name: "slow", available: true, text: "late", delay: time.Minute})
	d := NewDispatcher(reg, "slow", time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	results, err := d.Dispatch(ctx, testImage(), ensembleDecision(), Hint{})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Less(t, time.Since(start), 10*time.Second)
}

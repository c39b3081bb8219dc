package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/dkorbelainen/sniptext/pkg/logging"
	"github.com/dkorbelainen/sniptext/pkg/vision"
)

// ErrNoBackends indicates that no registered backend is usable.
var ErrNoBackends = errors.New("no usable recognition backend")

// Hint carries advisory metadata for a recognition call. Backends may
// ignore it.
type Hint struct {
	Mode vision.SegmentationMode
}

// Result is one backend's raw transcript, tagged with the backend
// identity for diagnostics and fusion tie-breaking.
type Result struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// BackendError wraps a failure of a named backend.
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Backend is a text recognition engine. Recognize returns the raw
// transcript for an in-memory image; it must honor ctx cancellation
// where the underlying engine allows it.
type Backend interface {
	Name() string
	Available() bool
	Recognize(ctx context.Context, img image.Image, hint Hint) (string, error)
}

// Registry holds the known backends in registration order.
type Registry struct {
	mu       sync.RWMutex
	backends []Backend
	byName   map[string]Backend
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Backend)}
}

// Register adds a backend. Re-registering a name replaces the earlier
// entry but keeps its position.
func (r *Registry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := b.Name()
	if _, exists := r.byName[name]; exists {
		for i, old := range r.backends {
			if old.Name() == name {
				r.backends[i] = b
				break
			}
		}
	} else {
		r.backends = append(r.backends, b)
	}
	r.byName[name] = b
}

// Get returns the backend registered under name.
func (r *Registry) Get(name string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byName[name]
	return b, ok
}

// Backends returns all registered backends in registration order.
func (r *Registry) Backends() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Backend, len(r.backends))
	copy(out, r.backends)
	return out
}

// Available returns the backends currently reporting themselves
// usable, in registration order.
func (r *Registry) Available() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Backend
	for _, b := range r.backends {
		if b.Available() {
			out = append(out, b)
		}
	}
	return out
}

// Default resolves the backend for the fast path: the preferred one
// when usable, otherwise the first available backend in registration
// order.
func (r *Registry) Default(preferred string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if b, ok := r.byName[preferred]; ok && b.Available() {
		return b, nil
	}

	for _, b := range r.backends {
		if !b.Available() {
			continue
		}
		if preferred != "" && b.Name() != preferred {
			log := logging.GetLogger("ocr")
			log.Warn().
				Str("preferred", preferred).
				Str("fallback", b.Name()).
				Msg("Preferred backend unavailable, falling back")
		}
		return b, nil
	}
	return nil, ErrNoBackends
}

// encodePNG serializes an in-memory image for backends that consume
// encoded bytes.
func encodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, vision.ErrEmptyImage
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), nil
}

package hotkey

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/dkorbelainen/sniptext/pkg/logging"
)

// defaultDebounce suppresses double-fires from bouncing sources.
const defaultDebounce = 500 * time.Millisecond

// Daemon runs the hotkey loop: it consumes key events from a Source
// and invokes the handler whenever the chord fires.
type Daemon struct {
	source   Source
	tracker  *Tracker
	chord    Chord
	handler  func(context.Context)
	debounce time.Duration
	log      zerolog.Logger
}

func NewDaemon(source Source, chord Chord, handler func(context.Context)) *Daemon {
	return &Daemon{
		source:   source,
		tracker:  NewTracker(chord),
		chord:    chord,
		handler:  handler,
		debounce: defaultDebounce,
		log:      logging.GetLogger("hotkey"),
	}
}

// Run blocks until the context is cancelled or the source closes its
// event channel. The handler runs synchronously; key events arriving
// during a capture are processed afterwards.
func (d *Daemon) Run(ctx context.Context) error {
	events, err := d.source.Events(ctx)
	if err != nil {
		return err
	}

	d.log.Info().Str("hotkey", d.chord.String()).Msg("Listening for hotkey")

	var lastFire time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				d.log.Debug().Msg("Key event source closed")
				return nil
			}
			if !d.tracker.Handle(ev) {
				continue
			}
			if time.Since(lastFire) < d.debounce {
				d.log.Debug().Msg("Hotkey debounced")
				continue
			}
			lastFire = time.Now()
			d.log.Info().Msg("Hotkey pressed")
			d.handler(ctx)
		}
	}
}

// LineSource synthesizes the chord's key events for every line read,
// so the daemon loop works from a plain stdin pipe without a global
// keyboard hook.
type LineSource struct {
	chord Chord
	r     io.Reader
}

func NewLineSource(chord Chord, r io.Reader) *LineSource {
	return &LineSource{chord: chord, r: r}
}

// Events presses the chord keys in order and releases them again for
// each line. The channel closes when the reader is exhausted.
func (s *LineSource) Events(ctx context.Context) (<-chan Event, error) {
	out := make(chan Event)
	keys := s.chord.eventKeys()

	go func() {
		defer close(out)
		scanner := bufio.NewScanner(s.r)
		for scanner.Scan() {
			for _, key := range keys {
				if !send(ctx, out, Event{Key: key, Press: true}) {
					return
				}
			}
			for i := len(keys) - 1; i >= 0; i-- {
				if !send(ctx, out, Event{Key: keys[i], Press: false}) {
					return
				}
			}
		}
	}()
	return out, nil
}

func send(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- ev:
		return true
	}
}

// Package middleware sits between intent producers and the monitor.
package middleware

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/headsetd/internal/settings"
)

// Sink accepts intents
type Sink interface {
	Submit(in settings.Intent) bool
}

// QuietSink coalesces bursts of value intents (sliders, scripted ramps):
// an intent of a debounced kind is forwarded only after no newer intent of
// the same kind arrived for the quiet period. Other kinds pass through.
type QuietSink struct {
	next  Sink
	quiet time.Duration
	kinds map[settings.IntentKind]bool

	mu      sync.Mutex
	pending map[settings.IntentKind]settings.Intent
	timers  map[settings.IntentKind]*time.Timer
	gens    map[settings.IntentKind]uint64
	closed  bool
}

// DefaultQuietKinds are the intents that carry a continuously adjustable value
var DefaultQuietKinds = []settings.IntentKind{
	settings.IntentSetSidetone,
	settings.IntentSetLightThreshold,
	settings.IntentSetNotificationThreshold,
}

// NewQuietSink creates a QuietSink in front of next. A zero quiet period
// disables coalescing.
func NewQuietSink(next Sink, quiet time.Duration, kinds ...settings.IntentKind) *QuietSink {
	if len(kinds) == 0 {
		kinds = DefaultQuietKinds
	}
	s := &QuietSink{
		next:    next,
		quiet:   quiet,
		kinds:   make(map[settings.IntentKind]bool, len(kinds)),
		pending: make(map[settings.IntentKind]settings.Intent),
		timers:  make(map[settings.IntentKind]*time.Timer),
		gens:    make(map[settings.IntentKind]uint64),
	}
	for _, k := range kinds {
		s.kinds[k] = true
	}
	return s
}

// Submit forwards or holds the intent. Held intents report true.
func (s *QuietSink) Submit(in settings.Intent) bool {
	if s.quiet <= 0 || !s.kinds[in.Kind] {
		return s.next.Submit(in)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	s.pending[in.Kind] = in
	if t, ok := s.timers[in.Kind]; ok {
		t.Stop()
	}
	// A stopped timer may already be waiting in flush; the generation
	// tells it that a newer timer owns the kind now
	s.gens[in.Kind]++
	kind, gen := in.Kind, s.gens[in.Kind]
	s.timers[kind] = time.AfterFunc(s.quiet, func() { s.flush(kind, gen) })
	return true
}

// flush forwards the latest held intent of kind if gen is still current
func (s *QuietSink) flush(kind settings.IntentKind, gen uint64) {
	s.mu.Lock()
	if s.gens[kind] != gen {
		s.mu.Unlock()
		return
	}
	in, ok := s.pending[kind]
	delete(s.pending, kind)
	delete(s.timers, kind)
	closed := s.closed
	s.mu.Unlock()

	if !ok || closed {
		return
	}
	if !s.next.Submit(in) {
		log.Warn().Str("intent", string(kind)).Msg("Dropped coalesced intent")
	}
}

// Close stops the timers and discards held intents
func (s *QuietSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for kind, t := range s.timers {
		t.Stop()
		delete(s.timers, kind)
	}
	s.pending = make(map[settings.IntentKind]settings.Intent)
}

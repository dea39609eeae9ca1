// Package telemetry provides fire-and-forget analytics events. Emitters must
// never block or fail the caller; a missing or broken sink is invisible to
// the simulation.
package telemetry

import (
	"sort"
	"sync"

	"github.com/charmbracelet/log"
)

// Emitter receives named events with a flat key-value parameter set.
type Emitter interface {
	Emit(event string, params map[string]any)
}

// LogEmitter writes events to a structured logger at debug level.
type LogEmitter struct {
	logger *log.Logger
}

// NewLogEmitter creates an emitter backed by the given logger.
func NewLogEmitter(logger *log.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

// Emit logs the event. Parameters are sorted for stable output.
func (e *LogEmitter) Emit(event string, params map[string]any) {
	if e.logger == nil {
		return
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]any, 0, len(params)*2)
	for _, k := range keys {
		kv = append(kv, k, params[k])
	}
	e.logger.Debug("event: "+event, kv...)
}

// Nop discards all events.
type Nop struct{}

// Emit does nothing.
func (Nop) Emit(string, map[string]any) {}

// Event is one recorded telemetry event.
type Event struct {
	Name   string
	Params map[string]any
}

// Recorder captures events for assertions in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit records the event.
func (r *Recorder) Emit(event string, params map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := make(map[string]any, len(params))
	for k, v := range params {
		copied[k] = v
	}
	r.events = append(r.events, Event{Name: event, Params: copied})
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events with the given name were recorded.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Name == name {
			n++
		}
	}
	return n
}

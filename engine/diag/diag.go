// Package diag is the pipeline's diagnostic sink: guard-clause failures are
// reported as (component, function, message) triples, fire-and-forget.
package diag

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Reporter receives diagnostic reports. Implementations must not block.
type Reporter interface {
	Report(component, function, message string)
}

type zerologReporter struct {
	log zerolog.Logger
}

// NewZerologReporter returns the default Reporter, logging at error level.
func NewZerologReporter() Reporter {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return &zerologReporter{
		log: zerolog.New(out).With().Timestamp().Str("component", "diag").Logger(),
	}
}

func (r *zerologReporter) Report(component, function, message string) {
	r.log.Error().
		Str("component", component).
		Str("function", function).
		Msg(message)
}

// Event is one recorded diagnostic.
type Event struct {
	Component string
	Function  string
	Message   string
}

// Recorder is a Reporter that captures events in memory, for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Report(component, function, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{component, function, message})
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

package dispatch

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "dispatch").Logger()
}

// SagaStatus is the lifecycle status of one background job.
type SagaStatus int

const (
	SagaIdle SagaStatus = iota
	SagaStarted
	SagaSuccess
	SagaFailed
)

func (s SagaStatus) String() string {
	switch s {
	case SagaStarted:
		return "started"
	case SagaSuccess:
		return "success"
	case SagaFailed:
		return "failed"
	default:
		return "idle"
	}
}

// SagaState is one job's observable state. ID distinguishes job instances
// dispatched under the same name; Err is set only for SagaFailed.
type SagaState struct {
	Name   string
	ID     uuid.UUID
	Status SagaStatus
	Err    error
}

// Terminal reports whether the state is final.
func (s SagaState) Terminal() bool {
	return s.Status == SagaSuccess || s.Status == SagaFailed
}

// Bus carries job status updates from the background signing/broadcast
// workers to their watchers. Channels are keyed by job name; at most one
// consumer per name is assumed.
type Bus struct {
	mu       sync.Mutex
	channels map[string]chan SagaState
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{channels: make(map[string]chan SagaState)}
}

// Channel returns the status channel for a job name, creating it on first
// use.
func (b *Bus) Channel(name string) <-chan SagaState {
	return b.channel(name)
}

func (b *Bus) channel(name string) chan SagaState {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.channels[name]
	if !ok {
		ch = make(chan SagaState, 16)
		b.channels[name] = ch
	}
	return ch
}

// Publish delivers a status update to the job's channel. Updates are dropped
// with a warning when the consumer has fallen too far behind, rather than
// blocking the worker.
func (b *Bus) Publish(name string, state SagaState) {
	select {
	case b.channel(name) <- state:
	default:
		log.Warn().Str("job", name).Str("status", state.Status.String()).Msg("Status channel full, dropping update")
	}
}

// WatchStarted consumes a job's status channel and invokes onStarted exactly
// once per job instance, on the transition into SagaStarted. Re-entrant
// Started updates for the same instance do not re-invoke the callback.
// The returned stop function ends the watch.
func WatchStarted(ch <-chan SagaState, onStarted func()) (stop func()) {
	stopCh := make(chan struct{})
	var stopOnce sync.Once

	go func() {
		fired := make(map[uuid.UUID]bool)
		for {
			select {
			case <-stopCh:
				return
			case state, ok := <-ch:
				if !ok {
					return
				}
				if state.Status == SagaStarted && !fired[state.ID] {
					fired[state.ID] = true
					onStarted()
				}
				if state.Terminal() {
					delete(fired, state.ID)
				}
			}
		}
	}()

	return func() {
		stopOnce.Do(func() { close(stopCh) })
	}
}

// watchInstance consumes a job's status channel on behalf of one dispatched
// instance. onStarted is invoked at most once, updates for other instances
// are ignored, and the watch ends when the instance reaches a terminal
// state. There must be at most one live watch per job name.
func watchInstance(ch <-chan SagaState, id uuid.UUID, onStarted func()) (stop func()) {
	stopCh := make(chan struct{})
	var stopOnce sync.Once

	go func() {
		started := false
		for {
			select {
			case <-stopCh:
				return
			case state, ok := <-ch:
				if !ok {
					return
				}
				if state.ID != id {
					continue
				}
				if state.Status == SagaStarted && !started {
					started = true
					onStarted()
				}
				if state.Terminal() {
					return
				}
			}
		}
	}()

	return func() {
		stopOnce.Do(func() { close(stopCh) })
	}
}

// Package eventbus queues stage events in memory and hands them to listeners
// on a small worker pool, so HTTP intake never waits on SMTP.
package eventbus

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaharia-lab/mailnotify/internal/notification"
)

const (
	defaultWorkers    = 3
	defaultBufferSize = 100
)

// ErrBufferFull is returned by Publish when the queue cannot take the event.
var ErrBufferFull = errors.New("event buffer full")

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("event bus closed")

// EventBus publishes events to subscribed listeners.
type EventBus interface {
	// Publish enqueues a stage event and returns its ID. It never blocks.
	Publish(eventType string, stage notification.StageEvent) (string, error)

	// Subscribe registers a listener called for every event. Call it before
	// the first Publish.
	Subscribe(listener Listener)

	// Close stops accepting events and waits for queued ones to be handled.
	Close()
}

type inMemoryBus struct {
	ch        chan Event
	listeners []Listener
	mu        sync.RWMutex
	closed    bool
	wg        sync.WaitGroup
	workers   int
	logger    *slog.Logger
}

// New creates an in-memory EventBus. workers <= 0 selects the default of 3;
// bufferSize <= 0 selects 100.
func New(workers, bufferSize int, logger *slog.Logger) EventBus {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &inMemoryBus{
		ch:      make(chan Event, bufferSize),
		workers: workers,
		logger:  logger,
	}
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for e := range b.ch {
				b.dispatch(e)
			}
		}()
	}
	return b
}

// dispatch calls every listener, recovering panics so one bad listener does
// not starve the rest.
func (b *inMemoryBus) dispatch(e Event) {
	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("event listener panicked", "event_id", e.ID, "event_type", e.Type, "panic", r)
				}
			}()
			l(e)
		}()
	}
}

func (b *inMemoryBus) Publish(eventType string, stage notification.StageEvent) (string, error) {
	e := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Stage:     stage,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return "", ErrClosed
	}
	select {
	case b.ch <- e:
		return e.ID, nil
	default:
		b.logger.Warn("event buffer full, dropping event", "event_type", eventType, "stage", stage.Locator())
		return "", ErrBufferFull
	}
}

func (b *inMemoryBus) Subscribe(listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, listener)
}

func (b *inMemoryBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.ch)
	b.mu.Unlock()
	b.wg.Wait()
}

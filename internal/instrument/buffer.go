package instrument

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventBuffer collects events in memory and periodically flushes them
// to a structured logger in one batch.
type EventBuffer struct {
	mu      sync.Mutex
	events  []Event
	log     *zap.SugaredLogger
	maxSize int
	ticker  *time.Ticker
	done    chan struct{}
	stop    sync.Once
}

// NewEventBuffer creates a buffer that flushes on a timer or when full.
func NewEventBuffer(log *zap.SugaredLogger, maxSize int, flushIntervalMs int) *EventBuffer {
	if maxSize <= 0 {
		maxSize = 100
	}
	if flushIntervalMs <= 0 {
		flushIntervalMs = 1000
	}
	eb := &EventBuffer{
		log:     log,
		maxSize: maxSize,
		done:    make(chan struct{}),
		ticker:  time.NewTicker(time.Duration(flushIntervalMs) * time.Millisecond),
	}
	go eb.run()
	return eb
}

func (eb *EventBuffer) run() {
	for {
		select {
		case <-eb.done:
			return
		case <-eb.ticker.C:
			eb.Flush()
		}
	}
}

// Enqueue adds an event. A full buffer triggers an asynchronous flush.
func (eb *EventBuffer) Enqueue(event Event) {
	eb.mu.Lock()
	eb.events = append(eb.events, event)
	shouldFlush := len(eb.events) >= eb.maxSize
	eb.mu.Unlock()
	if shouldFlush {
		go eb.Flush()
	}
}

// Len returns the number of events waiting to be flushed.
func (eb *EventBuffer) Len() int {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	return len(eb.events)
}

// Flush writes all buffered events to the logger.
func (eb *EventBuffer) Flush() {
	eb.mu.Lock()
	if len(eb.events) == 0 {
		eb.mu.Unlock()
		return
	}
	batch := eb.events
	eb.events = nil
	eb.mu.Unlock()

	for _, e := range batch {
		eb.log.Debugw("span",
			"trace_id", e.TraceID,
			"span_id", e.SpanID,
			"parent_span_id", e.ParentSpanID,
			"event_type", e.EventType,
			"source", e.Source,
			"component", e.Component,
			"action", e.Action,
			"collection", e.Collection,
			"document_id", e.DocumentID,
			"duration_ms", e.DurationMs,
			"status", e.Status,
			"metadata", e.Metadata,
		)
	}
}

// Stop halts the background ticker and flushes remaining events.
func (eb *EventBuffer) Stop() {
	eb.stop.Do(func() {
		eb.ticker.Stop()
		close(eb.done)
		eb.Flush()
	})
}

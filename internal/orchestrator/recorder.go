package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/quorumai/quorum/internal/domain"
)

// Recorder receives persistence events. Implementations must never block
// the answer path; recording is best-effort from the orchestrator's point
// of view.
type Recorder interface {
	RecordQueryStart(ctx context.Context, record domain.QueryRecord)
	RecordUsage(ctx context.Context, record domain.UsageRecord)
}

// NopRecorder discards all events.
type NopRecorder struct{}

func (NopRecorder) RecordQueryStart(context.Context, domain.QueryRecord) {}
func (NopRecorder) RecordUsage(context.Context, domain.UsageRecord)      {}

// Sink is the downstream that actually persists records, typically backed
// by a database or billing service. Its errors are logged, never surfaced.
type Sink interface {
	SaveQuery(ctx context.Context, record domain.QueryRecord) error
	SaveUsage(ctx context.Context, record domain.UsageRecord) error
}

// recorderEvent is one queued persistence event.
type recorderEvent struct {
	query *domain.QueryRecord
	usage *domain.UsageRecord
}

// AsyncRecorder decouples persistence from the answer path with a bounded
// queue. When the queue is full, events are dropped and counted rather
// than applying backpressure to requests.
type AsyncRecorder struct {
	sink   Sink
	logger *slog.Logger
	events chan recorderEvent

	closeOnce sync.Once
	done      chan struct{}

	dropped int64
	mu      sync.Mutex
}

// NewAsyncRecorder starts the drain goroutine.
func NewAsyncRecorder(sink Sink, queueSize int, logger *slog.Logger) *AsyncRecorder {
	r := &AsyncRecorder{
		sink:   sink,
		logger: logger,
		events: make(chan recorderEvent, queueSize),
		done:   make(chan struct{}),
	}
	go r.drain()
	return r
}

func (r *AsyncRecorder) RecordQueryStart(_ context.Context, record domain.QueryRecord) {
	r.enqueue(recorderEvent{query: &record})
}

func (r *AsyncRecorder) RecordUsage(_ context.Context, record domain.UsageRecord) {
	r.enqueue(recorderEvent{usage: &record})
}

func (r *AsyncRecorder) enqueue(ev recorderEvent) {
	select {
	case r.events <- ev:
	default:
		r.mu.Lock()
		r.dropped++
		n := r.dropped
		r.mu.Unlock()
		r.logger.Warn("recorder queue full, event dropped", slog.Int64("total_dropped", n))
	}
}

// Dropped returns how many events were discarded due to a full queue.
func (r *AsyncRecorder) Dropped() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Close stops accepting events and drains what is already queued. Callers
// must stop producing before calling Close; Record calls after Close panic
// on the closed channel.
func (r *AsyncRecorder) Close() {
	r.closeOnce.Do(func() {
		close(r.events)
		<-r.done
	})
}

func (r *AsyncRecorder) drain() {
	defer close(r.done)
	ctx := context.Background()
	for ev := range r.events {
		var err error
		switch {
		case ev.query != nil:
			err = r.sink.SaveQuery(ctx, *ev.query)
		case ev.usage != nil:
			err = r.sink.SaveUsage(ctx, *ev.usage)
		}
		if err != nil {
			r.logger.Warn("failed to persist record", slog.String("error", err.Error()))
		}
	}
}

package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	id "saathi/pkg/domain"
)

// Store persists audit events. Append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}

// Sink receives a copy of every event after it is stored. Sink failures are
// logged and never propagate to the emitting caller.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store  Store
	sinks  []Sink
	logger *slog.Logger

	inbox chan Event
	wg    sync.WaitGroup
	once  sync.Once
}

// PublisherOption configures optional publisher behavior.
type PublisherOption func(*Publisher)

// WithSink fans events out to an additional sink after storage.
func WithSink(sink Sink) PublisherOption {
	return func(p *Publisher) { p.sinks = append(p.sinks, sink) }
}

// WithAsyncBuffer makes Emit enqueue events onto a buffered channel drained
// by a background goroutine. A full buffer drops the event with a warning
// rather than blocking the caller.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) { p.inbox = make(chan Event, size) }
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = logger }
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event. In async mode the event is enqueued and persisted
// in the background; otherwise it is stored before Emit returns.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Category == "" {
		event.Category = event.Action.Category()
	}

	if p.inbox != nil {
		select {
		case p.inbox <- event:
		default:
			p.logger.Warn("audit buffer full, dropping event", "action", event.Action)
		}
		return nil
	}
	return p.record(ctx, event)
}

// List returns the stored events for one user, most recent first when the
// store orders them so.
func (p *Publisher) List(ctx context.Context, userID id.UserID) ([]Event, error) {
	return p.store.ListByUser(ctx, userID)
}

// Close stops the background drain, flushing any queued events first.
// Safe to call on a synchronous publisher.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		// Detached context: the originating request may be long gone.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.record(ctx, event); err != nil {
			p.logger.Error("audit event persistence failed",
				"action", event.Action, "error", err)
		}
		cancel()
	}
}

func (p *Publisher) record(ctx context.Context, event Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			p.logger.Warn("audit sink publish failed",
				"action", event.Action, "error", err)
		}
	}
	return nil
}

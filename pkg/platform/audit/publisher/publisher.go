// Package publisher routes audit events to a store by category.
//
// Compliance events are written synchronously and fail closed: if the write
// fails the caller gets an error and must fail its operation. Security and
// operations events are best effort; with an async buffer they are queued and
// written by a background worker, and a full buffer drops the event with a log.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	id "warranty/pkg/domain"
	audit "warranty/pkg/platform/audit"
	"warranty/pkg/requestcontext"
)

// Lister is implemented by stores that can read events back.
type Lister interface {
	ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error)
}

type Publisher struct {
	store  audit.Store
	logger *slog.Logger
	buffer int

	queue chan audit.Event
	wg    sync.WaitGroup
	once  sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer enables background writes for non-compliance events.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.buffer = size
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer > 0 {
		p.queue = make(chan audit.Event, p.buffer)
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit enriches the event from ctx and hands it to the store.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Action == "" {
		return fmt.Errorf("audit event requires Action")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	event.Category = audit.AuditEvent(event.Action).Category()

	if event.Category == audit.CategoryCompliance {
		if err := p.store.Append(ctx, event); err != nil {
			p.logger.ErrorContext(ctx, "compliance audit failed",
				"action", event.Action,
				"subject", event.Subject,
				"error", err,
			)
			return fmt.Errorf("compliance audit persistence failed: %w", err)
		}
		return nil
	}

	if p.queue != nil {
		select {
		case p.queue <- event:
		default:
			p.logger.WarnContext(ctx, "audit buffer full, dropping event",
				"action", event.Action,
				"subject", event.Subject,
			)
		}
		return nil
	}

	if err := p.store.Append(ctx, event); err != nil {
		p.logger.WarnContext(ctx, "audit append failed",
			"action", event.Action,
			"subject", event.Subject,
			"error", err,
		)
	}
	return nil
}

// List returns events for userID when the store supports reads.
func (p *Publisher) List(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	lister, ok := p.store.(Lister)
	if !ok {
		return nil, fmt.Errorf("audit store does not support listing")
	}
	return lister.ListByUser(ctx, userID)
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.store.Append(ctx, event); err != nil {
			p.logger.Warn("async audit append failed",
				"action", event.Action,
				"subject", event.Subject,
				"error", err,
			)
		}
		cancel()
	}
}

// Close stops the async worker after draining queued events.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.queue != nil {
			close(p.queue)
			p.wg.Wait()
		}
	})
}

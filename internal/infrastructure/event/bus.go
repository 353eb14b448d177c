package event

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// InMemoryEventBus implements EventBus with in-memory pub/sub.
//
// Before Start (and after Stop) events are dispatched inline on the
// publisher's goroutine. Once started, Publish enqueues onto a buffered
// channel drained by a worker pool, so HTTP handlers never block on slow
// subscribers.
type InMemoryEventBus struct {
	registry   *HandlerRegistry
	logger     *zap.Logger
	queue      chan shared.DomainEvent
	bufferSize int
	workers    int
	running    atomic.Bool
	wg         sync.WaitGroup
	mu         sync.RWMutex
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(cfg config.EventConfig, logger *zap.Logger) *InMemoryEventBus {
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 256
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	return &InMemoryEventBus{
		registry:   NewHandlerRegistry(),
		logger:     logger,
		bufferSize: bufferSize,
		workers:    workers,
	}
}

// Publish publishes events to all registered handlers
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		if err := b.enqueue(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// enqueue hands one event to the worker pool, or dispatches inline when the
// pool is not running. The read lock pairs with Stop's write lock so the
// queue is never closed under an in-flight send.
func (b *InMemoryEventBus) enqueue(ctx context.Context, event shared.DomainEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.running.Load() {
		b.dispatch(ctx, event)
		return nil
	}

	select {
	case b.queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers a handler for specific event types
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed",
		zap.Strings("event_types", eventTypes),
	)
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
	b.logger.Debug("handler unsubscribed")
}

// Start spins up the worker pool
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running.Load() {
		return nil
	}

	b.queue = make(chan shared.DomainEvent, b.bufferSize)
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.worker()
	}
	b.running.Store(true)

	b.logger.Info("event bus started",
		zap.Int("workers", b.workers),
		zap.Int("buffer_size", b.bufferSize),
	)
	return nil
}

// Stop drains the queue and waits for in-flight handlers
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running.Load() {
		return nil
	}
	b.running.Store(false)
	close(b.queue)

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *InMemoryEventBus) worker() {
	defer b.wg.Done()
	for event := range b.queue {
		b.dispatch(context.Background(), event)
	}
}

// dispatch delivers an event to every matching handler, isolating failures
func (b *InMemoryEventBus) dispatch(ctx context.Context, event shared.DomainEvent) {
	for _, handler := range b.registry.GetHandlers(event.EventType()) {
		if err := b.dispatchToHandler(ctx, handler, event); err != nil {
			b.logger.Error("handler failed to process event",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.Error(err),
			)
		}
	}
}

// dispatchToHandler safely dispatches an event to a handler
func (b *InMemoryEventBus) dispatchToHandler(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
			)
		}
	}()

	return handler.Handle(ctx, event)
}

// Ensure InMemoryEventBus implements EventBus
var _ shared.EventBus = (*InMemoryEventBus)(nil)

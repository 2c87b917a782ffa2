package events

import (
	"context"
	"sync"
	"time"

	"dropmart-be/internal/logger"

	"go.uber.org/zap"
)

// Event names published by the commerce core.
const (
	CartChanged            = "cart.changed"
	OrderCreated           = "order.created"
	InventoryInconsistency = "inventory.inconsistency"
)

type Event struct {
	Name       string
	OccurredAt time.Time
	Payload    any
}

type Handler func(ctx context.Context, evt Event) error

// Bus dispatches events to subscribers asynchronously. Subscriber failures and
// panics are logged and swallowed: secondary consumers (abandonment tracking,
// search index sync) must never fail the request that produced the event.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]Handler
	wg   sync.WaitGroup
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string][]Handler)}
}

func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[name] = append(b.subs[name], h)
}

// Publish dispatches evt to every subscriber on its own goroutine. The caller
// never observes subscriber errors.
func (b *Bus) Publish(ctx context.Context, evt Event) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}

	b.mu.RLock()
	handlers := b.subs[evt.Name]
	b.mu.RUnlock()

	// Detach from the request lifecycle: the request may finish (and its
	// context be cancelled) before subscribers run.
	ctx = context.WithoutCancel(ctx)

	for _, h := range handlers {
		h := h
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.FromCtx(ctx).Error("event subscriber panicked",
						zap.String("event", evt.Name),
						zap.Any("panic", r),
					)
				}
			}()

			if err := h(ctx, evt); err != nil {
				logger.FromCtx(ctx).Warn("event subscriber failed",
					zap.String("event", evt.Name),
					zap.Error(err),
				)
			}
		}()
	}
}

// Wait blocks until all in-flight dispatches finish. Used on shutdown and in tests.
func (b *Bus) Wait() {
	b.wg.Wait()
}

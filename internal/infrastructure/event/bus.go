package event

import (
	"context"
	"sync"

	"github.com/merchantops/backend/internal/domain/audit"
	"go.uber.org/zap"
)

// Handler consumes one audit event.
type Handler func(ctx context.Context, evt *AuditEvent) error

// InMemoryBus dispatches audit events to in-process handlers synchronously.
// It stands in for Kafka when no brokers are configured.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *zap.Logger
}

func NewInMemoryBus(logger *zap.Logger) *InMemoryBus {
	return &InMemoryBus{logger: logger}
}

func (b *InMemoryBus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish runs every handler. Handler errors and panics are logged and
// never returned, so one bad subscriber cannot block the others.
func (b *InMemoryBus) Publish(ctx context.Context, entry *audit.Log) error {
	evt := NewAuditEvent(entry)

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := b.dispatch(ctx, h, evt); err != nil {
			b.logger.Error("audit event handler failed",
				zap.String("event_type", evt.EventType),
				zap.String("event_id", evt.EventID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (b *InMemoryBus) dispatch(ctx context.Context, h Handler, evt *AuditEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("audit event handler panicked",
				zap.String("event_type", evt.EventType),
				zap.Any("panic", r),
			)
		}
	}()
	return h(ctx, evt)
}

// LogHandler writes a one-line summary of each event to logger.
func LogHandler(logger *zap.Logger) Handler {
	return func(_ context.Context, evt *AuditEvent) error {
		logger.Info("audit event",
			zap.String("event_type", evt.EventType),
			zap.String("table", evt.Entry.Table.String()),
			zap.String("record_id", evt.Entry.RecordID),
			zap.String("changed_by", evt.Entry.ChangedBy),
		)
		return nil
	}
}

var _ audit.EventPublisher = (*InMemoryBus)(nil)

package event

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/merchantops/backend/internal/domain/audit"
	"github.com/merchantops/backend/internal/infrastructure/config"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes committed audit entries to a Kafka topic.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
	logger  *zap.Logger
}

// NewKafkaPublisher builds a synchronous writer that waits for all replicas.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *zap.Logger) *KafkaPublisher {
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: timeout,
	}
	logger.Info("Kafka audit publisher configured",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
	)
	return newKafkaPublisher(w, timeout, logger)
}

func newKafkaPublisher(w messageWriter, timeout time.Duration, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, timeout: timeout, logger: logger}
}

// Publish encodes entry and writes it keyed by table and record id.
func (p *KafkaPublisher) Publish(ctx context.Context, entry *audit.Log) error {
	evt := NewAuditEvent(entry)
	payload, err := evt.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode audit event: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(evt.Key()),
		Value: payload,
		Time:  evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(evt.EventType)},
			{Key: "event-version", Value: []byte(strconv.Itoa(evt.Version))},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write audit event %s: %w", evt.EventID, err)
	}

	p.logger.Debug("audit event published",
		zap.String("event_type", evt.EventType),
		zap.String("key", evt.Key()),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

var _ audit.EventPublisher = (*KafkaPublisher)(nil)

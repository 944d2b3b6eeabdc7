package telemetry

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"
)

// KafkaWriter lazily constructs the underlying writer on first publish so
// binaries that never mirror telemetry don't hold broker connections.
type KafkaWriter struct {
	brokers []string

	mu     sync.Mutex
	writer *kafka.Writer
}

// NewKafkaWriter creates a KafkaWriter for the given brokers.
func NewKafkaWriter(brokers []string) *KafkaWriter {
	return &KafkaWriter{brokers: brokers}
}

// WriteMessages publishes messages to the given topic.
func (w *KafkaWriter) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	w.mu.Lock()
	if w.writer == nil {
		w.writer = &kafka.Writer{
			Addr:         kafka.TCP(w.brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
			Async:        false,
		}
	}
	writer := w.writer
	w.mu.Unlock()

	for i := range msgs {
		msgs[i].Topic = topic
	}
	return writer.WriteMessages(ctx, msgs...)
}

// Close releases the writer if one was ever constructed.
func (w *KafkaWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writer == nil {
		return nil
	}
	err := w.writer.Close()
	w.writer = nil
	return err
}

package telemetry

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/companion/internal/events"
)

// Sink mirrors telemetry to cloud storage. Forwarding is best effort: a sink
// failure never rolls back the local cache.
type Sink interface {
	PublishBatch(ctx context.Context, batch events.TelemetryBatch) error
	PublishWorkoutCompleted(ctx context.Context, event events.WorkoutCompleted) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error
}

type schemaRegistrar interface {
	EnsureSchema(ctx context.Context, subject, schema string) (int, error)
}

// KafkaSink publishes mirror events to Kafka with Schema Registry framing.
type KafkaSink struct {
	producer      messageWriter
	registry      schemaRegistrar
	topic         string
	schemaIDCache sync.Map
}

// NewKafkaSink constructs a KafkaSink writing to the given topic.
func NewKafkaSink(producer messageWriter, registry schemaRegistrar, topic string) *KafkaSink {
	return &KafkaSink{
		producer: producer,
		registry: registry,
		topic:    topic,
	}
}

// PublishBatch mirrors one sync cycle's samples.
func (s *KafkaSink) PublishBatch(ctx context.Context, batch events.TelemetryBatch) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	return s.publish(ctx, events.TypeTelemetryBatch, telemetryBatchSchema, batch.FamilyID, payload)
}

// PublishWorkoutCompleted mirrors a workout completion.
func (s *KafkaSink) PublishWorkoutCompleted(ctx context.Context, event events.WorkoutCompleted) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.publish(ctx, events.TypeWorkoutCompleted, workoutCompletedSchema, event.FamilyID, payload)
}

func (s *KafkaSink) publish(ctx context.Context, eventType, schema, partitionKey string, payload []byte) error {
	subject := fmt.Sprintf("%s-value", s.topic)

	cacheKey := fmt.Sprintf("%s::%s", subject, eventType)
	var schemaID int
	if cached, ok := s.schemaIDCache.Load(cacheKey); ok {
		schemaID = cached.(int)
	} else {
		id, err := s.registry.EnsureSchema(ctx, subject, schema)
		if err != nil {
			return err
		}
		s.schemaIDCache.Store(cacheKey, id)
		schemaID = id
	}

	record := kafka.Message{
		Key:   []byte(partitionKey),
		Value: encodeWireFormat(schemaID, payload),
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "schema_subject", Value: []byte(subject)},
		},
	}
	return s.producer.WriteMessages(ctx, s.topic, record)
}

// encodeWireFormat applies Confluent framing for Schema Registry aware payloads.
func encodeWireFormat(schemaID int, payload []byte) []byte {
	frame := make([]byte, 5+len(payload))
	frame[0] = 0
	binary.BigEndian.PutUint32(frame[1:5], uint32(schemaID))
	copy(frame[5:], payload)
	return frame
}

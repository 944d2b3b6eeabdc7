package mirror

import (
	"context"
	"encoding/binary"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestProcessorCommitsAfterSuccessfulHandle(t *testing.T) {
	msg := framedMessage("family-1", "telemetry.batch", 42, `{"batch_id":"b-1"}`)
	reader := newStubReader(msg)
	handler := &stubHandler{}

	runProcessor(t, reader, handler)

	require.Len(t, handler.events, 1)
	event := handler.events[0]
	require.Equal(t, "telemetry.batch", event.EventType)
	require.Equal(t, "family-1", event.FamilyID)
	require.Equal(t, 42, event.SchemaID)
	require.Equal(t, "companion_telemetry-value", event.SchemaSubject)
	require.JSONEq(t, `{"batch_id":"b-1"}`, string(event.Payload))
	require.Equal(t, msg.Topic, event.Topic)
	require.Equal(t, msg.Offset, event.Offset)

	require.Len(t, reader.committed, 1)
	require.Equal(t, msg.Offset, reader.committed[0].Offset)
}

func TestProcessorSkipsCommitOnHandlerError(t *testing.T) {
	reader := newStubReader(framedMessage("family-1", "telemetry.batch", 7, `{}`))
	handler := &stubHandler{err: errors.New("insert failed")}

	runProcessor(t, reader, handler)

	require.Len(t, handler.events, 0)
	require.Empty(t, reader.committed)
}

func TestProcessorCommitsMalformedRecords(t *testing.T) {
	badMagic := framedMessage("family-1", "telemetry.batch", 7, `{}`)
	badMagic.Value[0] = 0xff

	missingHeader := framedMessage("family-1", "telemetry.batch", 7, `{}`)
	missingHeader.Headers = nil

	truncated := framedMessage("family-1", "telemetry.batch", 7, `{}`)
	truncated.Value = truncated.Value[:3]

	reader := newStubReader(badMagic, missingHeader, truncated)
	handler := &stubHandler{}

	runProcessor(t, reader, handler)

	require.Empty(t, handler.events)
	require.Len(t, reader.committed, 3)
}

func TestProcessorHandlesMixedStream(t *testing.T) {
	good := framedMessage("family-1", "telemetry.batch", 9, `{"batch_id":"b-2"}`)
	broken := framedMessage("family-1", "telemetry.batch", 9, `{}`)
	broken.Value = []byte{0x01}

	reader := newStubReader(broken, good)
	handler := &stubHandler{}

	runProcessor(t, reader, handler)

	require.Len(t, handler.events, 1)
	require.Len(t, reader.committed, 2)
}

func runProcessor(t *testing.T, reader *stubReader, handler *stubHandler) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader.cancel = cancel

	p := NewProcessor(reader, handler, WithLogger(log.New(testWriter{t}, "", 0)))
	err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func framedMessage(key, eventType string, schemaID uint32, payload string) kafka.Message {
	value := make([]byte, 5+len(payload))
	value[0] = 0
	binary.BigEndian.PutUint32(value[1:5], schemaID)
	copy(value[5:], payload)

	return kafka.Message{
		Topic:     "companion_telemetry",
		Partition: 0,
		Offset:    100,
		Time:      time.Now().UTC(),
		Key:       []byte(key),
		Value:     value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "schema_subject", Value: []byte("companion_telemetry-value")},
		},
	}
}

type stubReader struct {
	msgs      []kafka.Message
	next      int
	committed []kafka.Message
	cancel    context.CancelFunc
}

func newStubReader(msgs ...kafka.Message) *stubReader {
	for i := range msgs {
		msgs[i].Offset = int64(100 + i)
	}
	return &stubReader{msgs: msgs}
}

func (s *stubReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if s.next >= len(s.msgs) {
		s.cancel()
		return kafka.Message{}, context.Canceled
	}
	msg := s.msgs[s.next]
	s.next++
	return msg, nil
}

func (s *stubReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	s.committed = append(s.committed, msgs...)
	return nil
}

func (s *stubReader) Close() error { return nil }

type stubHandler struct {
	err    error
	events []Event
}

func (s *stubHandler) Handle(_ context.Context, event Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

package mirror

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EventLogHandler writes consumed mirror events into Postgres for downstream
// reporting.
type EventLogHandler struct {
	pool *pgxpool.Pool
}

// NewEventLogHandler constructs a handler backed by the provided pool.
func NewEventLogHandler(pool *pgxpool.Pool) *EventLogHandler {
	return &EventLogHandler{pool: pool}
}

// Handle stores the event payload in the telemetry_event_log table.
func (h *EventLogHandler) Handle(ctx context.Context, event Event) error {
	conn, err := h.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx,
		`INSERT INTO telemetry_event_log (event_type, family_id, device_id, schema_id, schema_subject, topic, partition, record_offset, payload, received_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		event.EventType,
		event.FamilyID,
		firstDeviceID(event.Payload),
		event.SchemaID,
		event.SchemaSubject,
		event.Topic,
		event.Partition,
		event.Offset,
		event.Payload,
		event.Timestamp,
	)
	return err
}

// firstDeviceID pulls a representative device id out of a batch payload so
// the log row can be filtered without unpacking JSON. Empty when the payload
// carries none.
func firstDeviceID(payload json.RawMessage) string {
	var probe struct {
		Samples []struct {
			DeviceID string `json:"device_id"`
		} `json:"samples"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return ""
	}
	if len(probe.Samples) == 0 {
		return ""
	}
	return probe.Samples[0].DeviceID
}

// Package notify converts notification requests into device payloads, fans
// them out to paired devices, and queues them durably while the link is down.
package notify

import (
	"context"
	"time"

	"example.com/companion/internal/domain"
)

// AuditRecord captures one dispatch outcome for the bounded "recent
// notifications" history. It backs UI lists and analytics, not replay.
type AuditRecord struct {
	ID           int64               `json:"id"`
	Notification domain.Notification `json:"notification"`
	SentAt       time.Time           `json:"sent_at"`
	WasConnected bool                `json:"was_connected"`
	Delivered    bool                `json:"delivered"`
}

// Store persists the offline queue and the delivery audit history. The
// engine only needs enqueue/list/delete semantics, not a specific engine;
// implementations exist for Postgres and in-memory use.
type Store interface {
	// Enqueue appends a queue entry. Entries are flushed FIFO by enqueue time.
	Enqueue(ctx context.Context, n domain.Notification, enqueuedAt time.Time) error
	// Pending returns up to limit entries in enqueue order.
	Pending(ctx context.Context, limit int) ([]domain.QueueEntry, error)
	// Delete removes entries after successful delivery or retention expiry.
	Delete(ctx context.Context, ids []int64) error
	// MarkAttempt increments the attempt counter on entries that failed again.
	MarkAttempt(ctx context.Context, ids []int64) error
	// QueueDepth reports the number of entries currently queued.
	QueueDepth(ctx context.Context) (int, error)

	// RecordAudit appends to the bounded audit history.
	RecordAudit(ctx context.Context, rec AuditRecord) error
	// RecentAudit pages through the audit history, newest first.
	RecentAudit(ctx context.Context, cursor *Cursor, limit int) ([]AuditRecord, *Cursor, error)
}

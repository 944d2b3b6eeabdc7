// Package postgres provides the durable Store implementation for the offline
// notification queue and delivery audit history.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/companion/internal/domain"
	"example.com/companion/internal/notify"
)

// Store persists queue entries and audit records in Postgres.
type Store struct {
	pool     *pgxpool.Pool
	auditCap int
}

// NewStore constructs a Store retaining at most auditCap audit records.
func NewStore(pool *pgxpool.Pool, auditCap int) *Store {
	if auditCap <= 0 {
		auditCap = 50
	}
	return &Store{pool: pool, auditCap: auditCap}
}

// Enqueue appends a notification to the offline queue.
func (s *Store) Enqueue(ctx context.Context, n domain.Notification, enqueuedAt time.Time) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO notification_queue (family_id, notification, enqueued_at)
         VALUES ($1, $2, $3)`,
		n.FamilyID, payload, enqueuedAt.UTC(),
	)
	return err
}

// Pending returns up to limit entries in enqueue order.
func (s *Store) Pending(ctx context.Context, limit int) ([]domain.QueueEntry, error) {
	const query = `SELECT queue_id, notification, enqueued_at, attempts
        FROM notification_queue
        ORDER BY enqueued_at, queue_id
        LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.QueueEntry, 0)
	for rows.Next() {
		var (
			entry   domain.QueueEntry
			payload []byte
		)
		if err := rows.Scan(&entry.ID, &payload, &entry.EnqueuedAt, &entry.Attempts); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &entry.Notification); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Delete removes queue entries by id.
func (s *Store) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM notification_queue WHERE queue_id = ANY($1)`, ids)
	return err
}

// MarkAttempt increments the attempt counter on the given entries.
func (s *Store) MarkAttempt(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE notification_queue SET attempts = attempts + 1, last_attempt_at = NOW() WHERE queue_id = ANY($1)`,
		ids,
	)
	return err
}

// QueueDepth reports the number of entries currently queued.
func (s *Store) QueueDepth(ctx context.Context) (int, error) {
	var depth int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notification_queue`).Scan(&depth)
	return depth, err
}

// RecordAudit appends to the audit history and prunes it back to the cap.
func (s *Store) RecordAudit(ctx context.Context, rec notify.AuditRecord) error {
	payload, err := json.Marshal(rec.Notification)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO notification_audit (notification, sent_at, was_connected, delivered)
         VALUES ($1, $2, $3, $4)`,
		payload, rec.SentAt.UTC(), rec.WasConnected, rec.Delivered,
	); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM notification_audit
          WHERE audit_id <= COALESCE(
              (SELECT audit_id FROM notification_audit ORDER BY audit_id DESC OFFSET $1 LIMIT 1), 0)`,
		s.auditCap,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RecentAudit pages newest-first through the audit history.
func (s *Store) RecentAudit(ctx context.Context, cursor *notify.Cursor, limit int) ([]notify.AuditRecord, *notify.Cursor, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT audit_id, notification, sent_at, was_connected, delivered
        FROM notification_audit
        ORDER BY sent_at DESC, audit_id DESC
        LIMIT $1`
	args := []any{limit}
	if cursor != nil {
		query = `SELECT audit_id, notification, sent_at, was_connected, delivered
            FROM notification_audit
            WHERE (sent_at, audit_id) < ($2, $3)
            ORDER BY sent_at DESC, audit_id DESC
            LIMIT $1`
		args = append(args, cursor.SentAt.UTC(), cursor.ID)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	records := make([]notify.AuditRecord, 0, limit)
	for rows.Next() {
		var (
			rec     notify.AuditRecord
			payload []byte
		)
		if err := rows.Scan(&rec.ID, &payload, &rec.SentAt, &rec.WasConnected, &rec.Delivered); err != nil {
			return nil, nil, err
		}
		if err := json.Unmarshal(payload, &rec.Notification); err != nil {
			return nil, nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var next *notify.Cursor
	if len(records) == limit {
		last := records[len(records)-1]
		next = &notify.Cursor{SentAt: last.SentAt, ID: last.ID}
	}
	return records, next, nil
}

// ExpireOlderThan removes queue entries enqueued before the retention cutoff.
// Used by the queuedrain sweep so a long-disconnected device never receives
// stale reminders on a late reconnect.
func (s *Store) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notification_queue WHERE enqueued_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Healthy verifies the pool can reach the database.
func (s *Store) Healthy(ctx context.Context) error {
	var one int
	if err := s.pool.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return err
	}
	if one != 1 {
		return errors.New("unexpected health probe result")
	}
	return nil
}

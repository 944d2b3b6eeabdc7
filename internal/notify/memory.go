package notify

import (
	"context"
	"sync"
	"time"

	"example.com/companion/internal/domain"
)

// MemoryStore is an in-process Store used in tests and single-device dev
// setups where queue durability across restarts is not required.
type MemoryStore struct {
	mu       sync.Mutex
	nextID   int64
	queue    []domain.QueueEntry
	audit    []AuditRecord
	auditCap int
}

// NewMemoryStore constructs a MemoryStore retaining at most auditCap audit records.
func NewMemoryStore(auditCap int) *MemoryStore {
	if auditCap <= 0 {
		auditCap = 50
	}
	return &MemoryStore{nextID: 1, auditCap: auditCap}
}

// Enqueue appends a queue entry.
func (s *MemoryStore) Enqueue(_ context.Context, n domain.Notification, enqueuedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, domain.QueueEntry{
		ID:           s.nextID,
		Notification: n,
		EnqueuedAt:   enqueuedAt,
	})
	s.nextID++
	return nil
}

// Pending returns up to limit entries in enqueue order.
func (s *MemoryStore) Pending(_ context.Context, limit int) ([]domain.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.queue) {
		limit = len(s.queue)
	}
	out := make([]domain.QueueEntry, limit)
	copy(out, s.queue[:limit])
	return out, nil
}

// Delete removes the given entries.
func (s *MemoryStore) Delete(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := s.queue[:0]
	for _, entry := range s.queue {
		if _, gone := drop[entry.ID]; !gone {
			kept = append(kept, entry)
		}
	}
	s.queue = kept
	return nil
}

// MarkAttempt increments the attempt counter on the given entries.
func (s *MemoryStore) MarkAttempt(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bump := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		bump[id] = struct{}{}
	}
	for i := range s.queue {
		if _, ok := bump[s.queue[i].ID]; ok {
			s.queue[i].Attempts++
		}
	}
	return nil
}

// QueueDepth reports the number of queued entries.
func (s *MemoryStore) QueueDepth(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue), nil
}

// RecordAudit appends an audit record, trimming the oldest past the cap.
func (s *MemoryStore) RecordAudit(_ context.Context, rec AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.nextID
	s.nextID++
	s.audit = append(s.audit, rec)
	if len(s.audit) > s.auditCap {
		s.audit = s.audit[len(s.audit)-s.auditCap:]
	}
	return nil
}

// RecentAudit pages newest-first through the audit history.
func (s *MemoryStore) RecentAudit(_ context.Context, cursor *Cursor, limit int) ([]AuditRecord, *Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}

	out := make([]AuditRecord, 0, limit)
	for i := len(s.audit) - 1; i >= 0; i-- {
		rec := s.audit[i]
		if cursor != nil {
			if rec.SentAt.After(cursor.SentAt) || (rec.SentAt.Equal(cursor.SentAt) && rec.ID >= cursor.ID) {
				continue
			}
		}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}

	var next *Cursor
	if len(out) == limit && len(out) > 0 {
		last := out[len(out)-1]
		next = &Cursor{SentAt: last.SentAt, ID: last.ID}
	}
	return out, next, nil
}

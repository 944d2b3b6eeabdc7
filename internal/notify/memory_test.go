package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/companion/internal/domain"
)

func TestMemoryStoreQueueLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(50)
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		n := testNotification()
		n.ID = string(rune('a' + i))
		require.NoError(t, store.Enqueue(ctx, n, base.Add(time.Duration(i)*time.Minute)))
	}

	entries, err := store.Pending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "a", entries[0].Notification.ID)
	require.Equal(t, "b", entries[1].Notification.ID)

	require.NoError(t, store.MarkAttempt(ctx, []int64{entries[0].ID}))
	entries, err = store.Pending(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, entries[0].Attempts)

	require.NoError(t, store.Delete(ctx, []int64{entries[0].ID, entries[1].ID}))
	depth, err := store.QueueDepth(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, depth)
}

func TestMemoryStoreAuditCapTrimsOldest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(3)
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		n := testNotification()
		n.Title = string(rune('a' + i))
		require.NoError(t, store.RecordAudit(ctx, AuditRecord{
			Notification: n,
			SentAt:       base.Add(time.Duration(i) * time.Minute),
			Delivered:    true,
		}))
	}

	records, _, err := store.RecentAudit(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "e", records[0].Notification.Title)
	require.Equal(t, "c", records[2].Notification.Title)
}

func TestMemoryStoreRecentAuditPagination(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(50)
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		n := testNotification()
		n.Title = string(rune('a' + i))
		require.NoError(t, store.RecordAudit(ctx, AuditRecord{
			Notification: n,
			SentAt:       base.Add(time.Duration(i) * time.Minute),
			Delivered:    true,
		}))
	}

	page1, next, err := store.RecentAudit(ctx, nil, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotNil(t, next)
	require.Equal(t, "e", page1[0].Notification.Title)
	require.Equal(t, "d", page1[1].Notification.Title)

	page2, next, err := store.RecentAudit(ctx, next, 2)
	require.NoError(t, err)
	require.Equal(t, "c", page2[0].Notification.Title)
	require.Equal(t, "b", page2[1].Notification.Title)

	page3, next, err := store.RecentAudit(ctx, next, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	require.Equal(t, "a", page3[0].Notification.Title)
	require.Nil(t, next)
}

var _ Store = (*MemoryStore)(nil)

func TestQueueEntryExpiry(t *testing.T) {
	now := time.Date(2026, 8, 2, 8, 0, 0, 0, time.UTC)
	entry := domain.QueueEntry{EnqueuedAt: now.Add(-23 * time.Hour)}
	require.False(t, entry.Expired(now, 24*time.Hour))

	entry.EnqueuedAt = now.Add(-25 * time.Hour)
	require.True(t, entry.Expired(now, 24*time.Hour))
}

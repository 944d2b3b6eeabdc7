package notify

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/companion/internal/connectivity"
	"example.com/companion/internal/domain"
	"example.com/companion/internal/transport"
)

// Option configures optional behaviour for the Dispatcher.
type Option func(*Dispatcher)

// WithLogger overrides the logger used to report delivery failures.
func WithLogger(logger *log.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// Dispatcher fans notifications out to every paired device and queues them
// while the link is down. Delivery is best effort: entries past the retention
// window are dropped silently on the next flush.
type Dispatcher struct {
	transport transport.DeviceTransport
	conn      *connectivity.Monitor
	store     Store
	retention time.Duration
	actionCap int
	batchSize int
	logger    *log.Logger
	now       func() time.Time

	mu          sync.Mutex
	onDelivered []func(domain.Notification)

	flushMu sync.Mutex
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(tr transport.DeviceTransport, conn *connectivity.Monitor, store Store, retention time.Duration, actionCap, batchSize int, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		transport: tr,
		conn:      conn,
		store:     store,
		retention: retention,
		actionCap: actionCap,
		batchSize: batchSize,
		logger:    log.New(log.Writer(), "[notify] ", log.LstdFlags),
		now:       func() time.Time { return time.Now().UTC() },
	}
	if d.retention <= 0 {
		d.retention = 24 * time.Hour
	}
	if d.actionCap <= 0 {
		d.actionCap = 3
	}
	if d.batchSize <= 0 {
		d.batchSize = 50
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// OnDelivered registers a callback fired after a notification reaches at
// least one device. The hosting app uses it to render recent-activity lists.
func (d *Dispatcher) OnDelivered(fn func(domain.Notification)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onDelivered = append(d.onDelivered, fn)
}

// Dispatch validates the notification and either fans it out to the paired
// devices or queues it when the link is down. Delivered is true iff at least
// one device accepted the payload.
func (d *Dispatcher) Dispatch(ctx context.Context, n domain.Notification) (domain.DeliveryResult, error) {
	if err := n.Validate(); err != nil {
		return domain.DeliveryResult{}, err
	}

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = d.now()
	}
	// Truncation, not resizing: the first actionCap actions by list order win.
	if len(n.Actions) > d.actionCap {
		n.Actions = n.Actions[:d.actionCap]
	}

	state := d.conn.Last()
	if !state.Connected {
		return d.enqueue(ctx, n, false)
	}

	accepted := d.fanOut(ctx, n, state.DeviceIDs)
	if len(accepted) == 0 {
		// All sends failed: treat like a disconnected dispatch so the
		// notification survives a link that just dropped under us.
		return d.enqueue(ctx, n, true)
	}

	d.audit(ctx, n, true, true)
	deliveredCounter.Inc()
	d.notifyDelivered(n)
	return domain.DeliveryResult{Delivered: true, Accepted: accepted}, nil
}

// Flush drains the offline queue in enqueue order. Entries past the retention
// window are discarded silently; entries that fail again stay queued with
// their attempt counter bumped. Wired to the reconnect hook and the
// queuedrain sweep.
func (d *Dispatcher) Flush(ctx context.Context) (FlushStats, error) {
	d.flushMu.Lock()
	defer d.flushMu.Unlock()

	var stats FlushStats

	entries, err := d.store.Pending(ctx, d.batchSize)
	if err != nil {
		return stats, err
	}

	now := d.now()
	var deliveredIDs, expiredIDs, failedIDs []int64

	for _, entry := range entries {
		if entry.Expired(now, d.retention) {
			expiredIDs = append(expiredIDs, entry.ID)
			continue
		}

		state := d.conn.Last()
		if !state.Connected {
			failedIDs = append(failedIDs, entry.ID)
			continue
		}

		accepted := d.fanOut(ctx, entry.Notification, state.DeviceIDs)
		if len(accepted) == 0 {
			failedIDs = append(failedIDs, entry.ID)
			continue
		}

		deliveredIDs = append(deliveredIDs, entry.ID)
		d.audit(ctx, entry.Notification, false, true)
		d.notifyDelivered(entry.Notification)
	}

	if len(expiredIDs) > 0 {
		if err := d.store.Delete(ctx, expiredIDs); err != nil {
			return stats, err
		}
		expiredCounter.Add(float64(len(expiredIDs)))
	}
	if len(deliveredIDs) > 0 {
		if err := d.store.Delete(ctx, deliveredIDs); err != nil {
			return stats, err
		}
		flushedCounter.Add(float64(len(deliveredIDs)))
	}
	if len(failedIDs) > 0 {
		if err := d.store.MarkAttempt(ctx, failedIDs); err != nil {
			return stats, err
		}
	}

	stats.Delivered = len(deliveredIDs)
	stats.Expired = len(expiredIDs)
	stats.Remaining = len(failedIDs)

	if depth, err := d.store.QueueDepth(ctx); err == nil {
		queueDepthGauge.Set(float64(depth))
	}
	return stats, nil
}

// RecentAudit pages through the bounded delivery history, newest first.
func (d *Dispatcher) RecentAudit(ctx context.Context, cursor *Cursor, limit int) ([]AuditRecord, *Cursor, error) {
	return d.store.RecentAudit(ctx, cursor, limit)
}

// FlushStats summarises one queue flush pass.
type FlushStats struct {
	Delivered int
	Expired   int
	Remaining int
}

func (d *Dispatcher) enqueue(ctx context.Context, n domain.Notification, wasConnected bool) (domain.DeliveryResult, error) {
	if err := d.store.Enqueue(ctx, n, d.now()); err != nil {
		return domain.DeliveryResult{}, err
	}
	queuedCounter.Inc()
	if depth, err := d.store.QueueDepth(ctx); err == nil {
		queueDepthGauge.Set(float64(depth))
	}
	d.audit(ctx, n, wasConnected, false)
	return domain.DeliveryResult{Queued: true}, nil
}

// notificationView is the device-facing rendering of a notification.
type notificationView struct {
	ID        string                      `json:"id"`
	Title     string                      `json:"title"`
	Message   string                      `json:"message"`
	Category  domain.NotificationCategory `json:"category"`
	Urgency   domain.Urgency              `json:"urgency"`
	Actions   []domain.Action             `json:"actions,omitempty"`
	Hint      DeliveryHint                `json:"hint"`
	CreatedAt time.Time                   `json:"created_at"`
}

// fanOut sends the notification to every device independently; one device
// failing never blocks the others. It returns the device ids that accepted.
func (d *Dispatcher) fanOut(ctx context.Context, n domain.Notification, deviceIDs []string) []string {
	body, err := json.Marshal(notificationView{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Category:  n.Category,
		Urgency:   n.Urgency,
		Actions:   n.Actions,
		Hint:      hintFor(n.Urgency),
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		d.logger.Printf("render error (notification=%s): %v", n.ID, err)
		return nil
	}

	payload := transport.Payload{
		Kind: transport.PayloadNotification,
		Ref:  n.ID,
		Body: body,
	}

	var accepted []string
	for _, deviceID := range deviceIDs {
		if err := d.transport.Send(ctx, deviceID, payload); err != nil {
			d.logger.Printf("send error (notification=%s, device=%s): %v", n.ID, deviceID, err)
			sendFailureCounter.Inc()
			continue
		}
		accepted = append(accepted, deviceID)
	}
	return accepted
}

func (d *Dispatcher) audit(ctx context.Context, n domain.Notification, wasConnected, delivered bool) {
	rec := AuditRecord{
		Notification: n,
		SentAt:       d.now(),
		WasConnected: wasConnected,
		Delivered:    delivered,
	}
	if err := d.store.RecordAudit(ctx, rec); err != nil {
		d.logger.Printf("audit error (notification=%s): %v", n.ID, err)
	}
}

func (d *Dispatcher) notifyDelivered(n domain.Notification) {
	d.mu.Lock()
	callbacks := make([]func(domain.Notification), len(d.onDelivered))
	copy(callbacks, d.onDelivered)
	d.mu.Unlock()

	for _, fn := range callbacks {
		fn(n)
	}
}

// Package widget owns the set of glanceable tiles and complications pushed to
// companion devices. Each widget schedules its own refresh so low-priority
// surfaces never compete with high-priority ones for a shared tick.
package widget

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"example.com/companion/internal/connectivity"
	"example.com/companion/internal/domain"
	"example.com/companion/internal/observability"
	"example.com/companion/internal/scheduler"
	"example.com/companion/internal/transport"
)

// Option configures optional behaviour for the Registry.
type Option func(*Registry)

// WithLogger overrides the logger used to report push failures.
func WithLogger(logger *log.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// Registry manages widget registration, content updates, and refresh pushes.
// Pushes are best effort: a failure is logged and retried on the next cycle,
// never surfaced to the caller.
type Registry struct {
	transport transport.DeviceTransport
	conn      *connectivity.Monitor
	sched     scheduler.Scheduler
	logger    *log.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	widget domain.Widget
	cancel scheduler.CancelFunc
}

// NewRegistry constructs a Registry.
func NewRegistry(tr transport.DeviceTransport, conn *connectivity.Monitor, sched scheduler.Scheduler, opts ...Option) *Registry {
	r := &Registry{
		transport: tr,
		conn:      conn,
		sched:     sched,
		logger:    log.New(log.Writer(), "[widget] ", log.LstdFlags),
		entries:   make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates and adds a widget to the active set, pushes it
// immediately when connected, and schedules its recurring refresh.
// Re-registering a deactivated id reactivates it; an id that is already
// active is rejected.
func (r *Registry) Register(ctx context.Context, w domain.Widget) error {
	if err := w.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	if existing, ok := r.entries[w.ID]; ok {
		if existing.widget.Active {
			r.mu.Unlock()
			return domain.NewValidationError("id", "is already registered")
		}
		if existing.cancel != nil {
			existing.cancel()
		}
	}

	w.Active = true
	if w.Data == nil {
		w.Data = make(map[string]any)
	}
	e := &entry{widget: w}
	e.cancel = r.sched.Schedule(w.RefreshInterval, func() {
		r.refresh(w.ID)
	})
	r.entries[w.ID] = e
	r.mu.Unlock()

	activeWidgetsGauge.Set(float64(r.activeCount()))

	if r.conn.Last().Connected {
		r.push(ctx, w)
	}
	return nil
}

// Update shallow-merges partial data into the widget's data map, later keys
// winning, and re-pushes when connected. Disconnected updates are reflected
// locally and carried by the next full push after reconnect.
func (r *Registry) Update(ctx context.Context, id string, partial map[string]any) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return domain.ErrWidgetNotFound
	}
	for key, value := range partial {
		e.widget.Data[key] = value
	}
	w := snapshot(e.widget)
	r.mu.Unlock()

	if r.conn.Last().Connected {
		r.push(ctx, w)
	}
	return nil
}

// Deactivate removes the widget from the active set and cancels its refresh
// timer. The widget record is kept so it can be reactivated later.
func (r *Registry) Deactivate(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || !e.widget.Active {
		return domain.ErrWidgetNotFound
	}
	e.widget.Active = false
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	activeWidgetsGauge.Set(float64(r.activeCountLocked()))
	return nil
}

// ListActive returns the active widgets ordered by prominence.
func (r *Registry) ListActive() []domain.Widget {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Widget, 0, len(r.entries))
	for _, e := range r.entries {
		if e.widget.Active {
			out = append(out, snapshot(e.widget))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// PushAll re-pushes the full active set. Wired to the connectivity monitor's
// reconnect hook.
func (r *Registry) PushAll(ctx context.Context) {
	for _, w := range r.ListActive() {
		r.push(ctx, w)
	}
}

// refresh is the per-widget timer callback. While disconnected it does
// nothing; the reconnect full push covers the gap.
func (r *Registry) refresh(id string) {
	if !r.conn.Last().Connected {
		return
	}

	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok || !e.widget.Active {
		r.mu.Unlock()
		return
	}
	w := snapshot(e.widget)
	r.mu.Unlock()

	r.push(context.Background(), w)
}

// widgetView is the device-facing rendering of a widget.
type widgetView struct {
	ID        string                `json:"id"`
	Title     string                `json:"title"`
	Content   string                `json:"content"`
	Category  domain.WidgetCategory `json:"category"`
	Template  domain.WidgetTemplate `json:"template"`
	Data      map[string]any        `json:"data,omitempty"`
	Priority  int                   `json:"priority"`
	UpdatedAt time.Time             `json:"updated_at"`
}

func (r *Registry) push(ctx context.Context, w domain.Widget) {
	body, err := json.Marshal(widgetView{
		ID:        w.ID,
		Title:     w.Title,
		Content:   w.Content,
		Category:  w.Category,
		Template:  w.Template,
		Data:      w.Data,
		Priority:  w.Priority,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		r.logger.Printf("render error (widget=%s): %v", w.ID, err)
		return
	}

	payload := transport.Payload{
		Kind: transport.PayloadWidget,
		Ref:  w.ID,
		Body: body,
	}

	for _, deviceID := range r.conn.Last().DeviceIDs {
		if err := r.transport.Send(ctx, deviceID, payload); err != nil {
			r.logger.Printf("push error (widget=%s, device=%s): %v", w.ID, deviceID, err)
			pushFailureCounter.WithLabelValues(string(w.Category)).Inc()
			continue
		}
		pushCounter.WithLabelValues(string(w.Category)).Inc()
		observability.RecordWidgetPushed(time.Now().UTC())
	}
}

func (r *Registry) activeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeCountLocked()
}

func (r *Registry) activeCountLocked() int {
	count := 0
	for _, e := range r.entries {
		if e.widget.Active {
			count++
		}
	}
	return count
}

func snapshot(w domain.Widget) domain.Widget {
	data := make(map[string]any, len(w.Data))
	for key, value := range w.Data {
		data[key] = value
	}
	w.Data = data
	return w
}

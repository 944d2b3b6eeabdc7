// Package connectivity tracks the companion link and is the single source of
// truth for "connected". Reconnection side effects (widget re-push, queue
// flush, pipeline resume) hang off the monitor's transition hooks so they are
// centralised rather than duplicated per feature.
package connectivity

import (
	"context"
	"log"
	"sync"
	"time"

	"example.com/companion/internal/transport"
)

// State is the last-known link snapshot. Readers must treat it as eventually
// consistent: a push may race a transition, and the disconnected path has to
// stay safe to take either way.
type State struct {
	Connected bool
	DeviceIDs []string
	CheckedAt time.Time
}

// Hook runs on a link transition. Hooks execute synchronously on the
// goroutine that observed the transition.
type Hook func(ctx context.Context, state State)

// Option configures optional behaviour for the Monitor.
type Option func(*Monitor)

// WithLogger overrides the logger used to report probe failures.
func WithLogger(logger *log.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// Monitor polls the transport for paired devices and fires hooks on
// disconnected→connected and connected→disconnected transitions. It keeps no
// state beyond the last snapshot.
type Monitor struct {
	transport transport.DeviceTransport
	logger    *log.Logger

	mu           sync.Mutex
	last         State
	onConnect    []Hook
	onDisconnect []Hook
}

// NewMonitor constructs a Monitor over the given transport.
func NewMonitor(tr transport.DeviceTransport, opts ...Option) *Monitor {
	m := &Monitor{
		transport: tr,
		logger:    log.New(log.Writer(), "[connectivity] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnConnect registers a hook fired when the link comes up.
func (m *Monitor) OnConnect(hook Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnect = append(m.onConnect, hook)
}

// OnDisconnect registers a hook fired when the link drops.
func (m *Monitor) OnDisconnect(hook Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDisconnect = append(m.onDisconnect, hook)
}

// CheckConnectivity probes the transport, updates the last-known state, and
// fires transition hooks. A probe failure counts as disconnected.
func (m *Monitor) CheckConnectivity(ctx context.Context) State {
	devices, err := m.transport.ListPairedDevices(ctx)
	if err != nil {
		m.logger.Printf("probe error: %v", err)
	}

	state := State{
		Connected: len(devices) > 0,
		DeviceIDs: devices,
		CheckedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	previous := m.last
	m.last = state
	var hooks []Hook
	switch {
	case !previous.Connected && state.Connected:
		hooks = append(hooks, m.onConnect...)
	case previous.Connected && !state.Connected:
		hooks = append(hooks, m.onDisconnect...)
	}
	m.mu.Unlock()

	connectedDevicesGauge.Set(float64(len(devices)))
	if len(hooks) > 0 {
		direction := "up"
		if !state.Connected {
			direction = "down"
		}
		transitionCounter.WithLabelValues(direction).Inc()
		m.logger.Printf("link %s (devices=%d)", direction, len(devices))
	}

	for _, hook := range hooks {
		hook(ctx, state)
	}
	return state
}

// Last returns the most recent snapshot without probing.
func (m *Monitor) Last() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

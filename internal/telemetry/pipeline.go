// Package telemetry pulls health and workout samples from companion devices,
// accumulates them in a bounded local cache, and mirrors batches to cloud
// storage.
package telemetry

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/companion/internal/connectivity"
	"example.com/companion/internal/domain"
	"example.com/companion/internal/events"
	"example.com/companion/internal/observability"
	"example.com/companion/internal/transport"
)

// Option configures optional behaviour for the Pipeline.
type Option func(*Pipeline)

// WithLogger overrides the logger used to report pull and mirror failures.
func WithLogger(logger *log.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// Pipeline is the periodic telemetry sync cycle. It is safe against partial
// failure: a pull failure on one device or kind skips just that slice, and a
// sink failure leaves the cache append in place.
type Pipeline struct {
	transport transport.DeviceTransport
	conn      *connectivity.Monitor
	cache     *Cache
	sink      Sink
	familyID  string
	logger    *log.Logger

	syncMu sync.Mutex
}

// NewPipeline constructs a Pipeline.
func NewPipeline(tr transport.DeviceTransport, conn *connectivity.Monitor, cache *Cache, sink Sink, familyID string, opts ...Option) *Pipeline {
	p := &Pipeline{
		transport: tr,
		conn:      conn,
		cache:     cache,
		sink:      sink,
		familyID:  familyID,
		logger:    log.New(log.Writer(), "[telemetry] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Cache exposes the local sample cache for progress readers.
func (p *Pipeline) Cache() *Cache { return p.cache }

// Sync runs one pull/append/mirror cycle and returns the samples pulled.
// While disconnected it is a no-op; the reconnect hook triggers the next
// cycle immediately.
func (p *Pipeline) Sync(ctx context.Context) ([]domain.TelemetrySample, error) {
	p.syncMu.Lock()
	defer p.syncMu.Unlock()

	state := p.conn.Last()
	if !state.Connected {
		return nil, nil
	}

	var batch []domain.TelemetrySample
	for _, deviceID := range state.DeviceIDs {
		for _, kind := range domain.SampleKinds {
			samples, err := p.transport.PullSamples(ctx, deviceID, kind)
			if err != nil {
				p.logger.Printf("pull error (device=%s, kind=%s): %v", deviceID, kind, err)
				pullFailureCounter.WithLabelValues(string(kind)).Inc()
				continue
			}
			batch = append(batch, samples...)
		}
	}

	if len(batch) == 0 {
		return nil, nil
	}

	// Local cache first: it is the durable source of truth.
	p.cache.Append(batch...)
	samplesCounter.Add(float64(len(batch)))

	event := events.TelemetryBatch{
		BatchID:  uuid.NewString(),
		FamilyID: p.familyID,
		SyncedAt: time.Now().UTC(),
		Samples:  batch,
	}
	if err := p.sink.PublishBatch(ctx, event); err != nil {
		p.logger.Printf("mirror error (batch=%s): %v", event.BatchID, err)
		mirrorFailureCounter.Inc()
	}

	observability.RecordTelemetrySynced(time.Now().UTC())
	return batch, nil
}

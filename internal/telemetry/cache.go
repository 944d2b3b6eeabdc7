package telemetry

import (
	"sync"
	"time"

	"example.com/companion/internal/domain"
)

// Cache is the bounded in-memory sample store. It is the durable source of
// truth for the engine: cloud forwarding is a best-effort mirror and never
// rolls the cache back. Access is mutex-serialized because both the sync
// timer and workout ticks touch it.
type Cache struct {
	mu      sync.Mutex
	samples []domain.TelemetrySample
	cap     int
}

// NewCache constructs a Cache retaining at most capacity samples.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 5000
	}
	return &Cache{cap: capacity}
}

// Append adds samples, evicting the oldest past capacity.
func (c *Cache) Append(samples ...domain.TelemetrySample) {
	if len(samples) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = append(c.samples, samples...)
	if len(c.samples) > c.cap {
		c.samples = c.samples[len(c.samples)-c.cap:]
	}
	cacheSizeGauge.Set(float64(len(c.samples)))
}

// Recent returns samples of one kind observed at or after since.
func (c *Cache) Recent(kind domain.SampleKind, since time.Time) []domain.TelemetrySample {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.TelemetrySample, 0)
	for _, sample := range c.samples {
		if sample.Kind == kind && !sample.Timestamp.Before(since) {
			out = append(out, sample)
		}
	}
	return out
}

// TotalSince sums sample values of one kind in the half-open window
// [since, until). Workout ticks pass consecutive tick times, so a sample
// timestamped on or past a tick boundary is counted by exactly one window.
func (c *Cache) TotalSince(kind domain.SampleKind, since, until time.Time) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0.0
	for _, sample := range c.samples {
		if sample.Kind == kind && !sample.Timestamp.Before(since) && sample.Timestamp.Before(until) {
			total += sample.Value
		}
	}
	return total
}

// Size reports the number of cached samples.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}

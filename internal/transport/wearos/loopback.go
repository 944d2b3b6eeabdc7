package wearos

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"example.com/companion/internal/domain"
)

// Loopback is an in-process Link standing in for the phone-side data layer
// integration. It answers sample queries from a queued buffer, synthesizing a
// single sample when the buffer is empty so local runs always have data.
type Loopback struct {
	deviceIDs []string

	mu      sync.Mutex
	offline bool
	frames  map[string][][]byte
	buffer  map[domain.SampleKind][]domain.TelemetrySample
}

// NewLoopback constructs a Loopback reporting the given node ids as paired.
func NewLoopback(deviceIDs ...string) *Loopback {
	return &Loopback{
		deviceIDs: deviceIDs,
		frames:    make(map[string][][]byte),
		buffer:    make(map[domain.SampleKind][]domain.TelemetrySample),
	}
}

// SetOffline toggles reachability for every node.
func (l *Loopback) SetOffline(offline bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.offline = offline
}

// QueueSamples stages samples to be returned by the next query for kind.
func (l *Loopback) QueueSamples(kind domain.SampleKind, samples ...domain.TelemetrySample) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buffer[kind] = append(l.buffer[kind], samples...)
}

// Frames returns the raw frames written to one node, in write order.
func (l *Loopback) Frames(deviceID string) [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([][]byte(nil), l.frames[deviceID]...)
}

// Devices implements transport.Link.
func (l *Loopback) Devices(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.offline {
		return nil, errors.New("data layer unreachable")
	}
	return append([]string(nil), l.deviceIDs...), nil
}

// Write implements transport.Link.
func (l *Loopback) Write(ctx context.Context, deviceID string, frame []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.offline {
		return errors.New("data layer unreachable")
	}
	l.frames[deviceID] = append(l.frames[deviceID], append([]byte(nil), frame...))
	return nil
}

// Query implements transport.Link. The request must be a sample-path data item.
func (l *Loopback) Query(ctx context.Context, deviceID string, request []byte) ([]byte, error) {
	var item dataItem
	if err := json.Unmarshal(request, &item); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(item.Path, pathSamples+"/") {
		return nil, errors.New("unsupported query path: " + item.Path)
	}
	kind := domain.SampleKind(strings.TrimPrefix(item.Path, pathSamples+"/"))

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.offline {
		return nil, errors.New("data layer unreachable")
	}

	samples := l.buffer[kind]
	delete(l.buffer, kind)
	if len(samples) == 0 {
		samples = []domain.TelemetrySample{syntheticSample(kind)}
	}
	return json.Marshal(samples)
}

func syntheticSample(kind domain.SampleKind) domain.TelemetrySample {
	return domain.TelemetrySample{
		Kind:      kind,
		Value:     float64(rand.Intn(200)),
		Unit:      unitFor(kind),
		Timestamp: time.Now().UTC(),
		Source:    domain.SourceAutomatic,
	}
}

func unitFor(kind domain.SampleKind) string {
	switch kind {
	case domain.SampleSteps:
		return "count"
	case domain.SampleHeartRate:
		return "bpm"
	default:
		return "min"
	}
}

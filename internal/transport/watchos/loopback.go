package watchos

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"example.com/companion/internal/domain"
)

// Loopback is an in-process Link standing in for the phone-side watch
// session. It decodes the session framing, answers sample queries from a
// queued buffer, and synthesizes a sample when the buffer is empty.
type Loopback struct {
	deviceIDs []string

	mu      sync.Mutex
	offline bool
	frames  map[string][][]byte
	buffer  map[domain.SampleKind][]domain.TelemetrySample
}

// NewLoopback constructs a Loopback reporting the given session ids as paired.
func NewLoopback(deviceIDs ...string) *Loopback {
	return &Loopback{
		deviceIDs: deviceIDs,
		frames:    make(map[string][][]byte),
		buffer:    make(map[domain.SampleKind][]domain.TelemetrySample),
	}
}

// SetOffline toggles reachability for every session.
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

// Frames returns the raw frames written to one session, in write order.
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
		return nil, errors.New("watch session unreachable")
	}
	return append([]string(nil), l.deviceIDs...), nil
}

// Write implements transport.Link.
func (l *Loopback) Write(ctx context.Context, deviceID string, frame []byte) error {
	if _, _, err := decodeFrame(frame); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.offline {
		return errors.New("watch session unreachable")
	}
	l.frames[deviceID] = append(l.frames[deviceID], append([]byte(nil), frame...))
	return nil
}

// Query implements transport.Link. The request must be a sample-query frame.
func (l *Loopback) Query(ctx context.Context, deviceID string, request []byte) ([]byte, error) {
	kind, env, err := decodeFrame(request)
	if err != nil {
		return nil, err
	}
	if kind != frameKindSampleQuery {
		return nil, errors.New("unsupported query frame kind")
	}
	sampleKind := domain.SampleKind(env.Ref)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.offline {
		return nil, errors.New("watch session unreachable")
	}

	samples := l.buffer[sampleKind]
	delete(l.buffer, sampleKind)
	if len(samples) == 0 {
		samples = []domain.TelemetrySample{syntheticSample(sampleKind)}
	}
	return json.Marshal(samples)
}

func syntheticSample(kind domain.SampleKind) domain.TelemetrySample {
	unit := "min"
	switch kind {
	case domain.SampleSteps:
		unit = "count"
	case domain.SampleHeartRate:
		unit = "bpm"
	}
	return domain.TelemetrySample{
		Kind:      kind,
		Value:     float64(rand.Intn(150)),
		Unit:      unit,
		Timestamp: time.Now().UTC(),
		Source:    domain.SourceAutomatic,
	}
}

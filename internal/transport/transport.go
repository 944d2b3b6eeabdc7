// Package transport defines the device link capability the sync engine depends
// on. Pairing and radio specifics live entirely behind the DeviceTransport
// interface; the engine only sees its send/receive contract.
package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"example.com/companion/internal/domain"
)

// PayloadKind tags what a payload carries so adapters can route it to the
// right companion surface.
type PayloadKind string

const (
	PayloadWidget       PayloadKind = "widget"
	PayloadNotification PayloadKind = "notification"
)

// Payload is the platform-neutral unit handed to an adapter for delivery.
// Body is the engine-rendered JSON document; adapters apply platform framing.
type Payload struct {
	Kind PayloadKind
	Ref  string
	Body json.RawMessage
}

// DeviceTransport is the injected capability for one companion platform.
type DeviceTransport interface {
	ListPairedDevices(ctx context.Context) ([]string, error)
	Send(ctx context.Context, deviceID string, payload Payload) error
	PullSamples(ctx context.Context, deviceID string, kind domain.SampleKind) ([]domain.TelemetrySample, error)
}

// Link is the raw frame channel a platform integration provides to its
// adapter. Implementations own connection management and framing on the wire.
type Link interface {
	Devices(ctx context.Context) ([]string, error)
	Write(ctx context.Context, deviceID string, frame []byte) error
	Query(ctx context.Context, deviceID string, request []byte) ([]byte, error)
}

// Error wraps a transport-layer failure with the device and operation that
// produced it. Transport failures are transient: notifications queue, widget
// pushes and telemetry pulls retry on their next scheduled cycle.
type Error struct {
	DeviceID string
	Op       string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport %s (device=%s): %v", e.Op, e.DeviceID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

package transport

import (
	"context"
	"errors"
	"sync"

	"example.com/companion/internal/domain"
)

// ErrUnknownDevice is returned when a device id has not appeared in any
// adapter's paired set.
var ErrUnknownDevice = errors.New("device not paired with any adapter")

// Fleet aggregates the platform adapters into a single DeviceTransport.
// Listing remembers which adapter owns each device id so sends and pulls can
// be routed without the callers knowing about platforms.
type Fleet struct {
	adapters []DeviceTransport

	mu    sync.Mutex
	owner map[string]DeviceTransport
}

// NewFleet builds a Fleet over the given platform adapters.
func NewFleet(adapters ...DeviceTransport) *Fleet {
	return &Fleet{
		adapters: adapters,
		owner:    make(map[string]DeviceTransport),
	}
}

// ListPairedDevices unions the paired sets of every adapter. An adapter
// failure does not hide devices of the others; partial results are returned
// alongside the joined error.
func (f *Fleet) ListPairedDevices(ctx context.Context) ([]string, error) {
	var (
		devices []string
		errs    error
	)

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, adapter := range f.adapters {
		ids, err := adapter.ListPairedDevices(ctx)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		for _, id := range ids {
			f.owner[id] = adapter
			devices = append(devices, id)
		}
	}
	return devices, errs
}

// Send routes the payload to the adapter that owns deviceID.
func (f *Fleet) Send(ctx context.Context, deviceID string, payload Payload) error {
	adapter, err := f.adapterFor(deviceID)
	if err != nil {
		return err
	}
	return adapter.Send(ctx, deviceID, payload)
}

// PullSamples routes the sample query to the adapter that owns deviceID.
func (f *Fleet) PullSamples(ctx context.Context, deviceID string, kind domain.SampleKind) ([]domain.TelemetrySample, error) {
	adapter, err := f.adapterFor(deviceID)
	if err != nil {
		return nil, err
	}
	return adapter.PullSamples(ctx, deviceID, kind)
}

func (f *Fleet) adapterFor(deviceID string) (DeviceTransport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	adapter, ok := f.owner[deviceID]
	if !ok {
		return nil, &Error{DeviceID: deviceID, Op: "route", Err: ErrUnknownDevice}
	}
	return adapter, nil
}

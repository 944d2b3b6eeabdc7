// Package wearos adapts the engine's transport contract to the Wear OS data
// layer. The adapter only encodes payloads and sample queries; the injected
// Link owns the actual radio channel.
package wearos

import (
	"context"
	"encoding/json"
	"fmt"

	"example.com/companion/internal/domain"
	"example.com/companion/internal/transport"
)

// Data layer paths the phone-side integration routes on.
const (
	pathWidget       = "/companion/widget"
	pathNotification = "/companion/notification"
	pathSamples      = "/companion/samples"
)

// Adapter implements transport.DeviceTransport for Wear OS devices.
type Adapter struct {
	link transport.Link
}

// New constructs an Adapter around the provided link.
func New(link transport.Link) *Adapter {
	return &Adapter{link: link}
}

// dataItem mirrors a Wear OS data layer item: a path plus a JSON payload map.
type dataItem struct {
	Path    string          `json:"path"`
	Payload json.RawMessage `json:"payload"`
}

// ListPairedDevices returns the node ids currently reachable over the data layer.
func (a *Adapter) ListPairedDevices(ctx context.Context) ([]string, error) {
	devices, err := a.link.Devices(ctx)
	if err != nil {
		return nil, &transport.Error{Op: "list", Err: err}
	}
	return devices, nil
}

// Send encodes the payload as a data layer item and writes it to one node.
func (a *Adapter) Send(ctx context.Context, deviceID string, payload transport.Payload) error {
	path := pathWidget
	if payload.Kind == transport.PayloadNotification {
		path = pathNotification
	}

	frame, err := json.Marshal(dataItem{
		Path:    fmt.Sprintf("%s/%s", path, payload.Ref),
		Payload: payload.Body,
	})
	if err != nil {
		return &transport.Error{DeviceID: deviceID, Op: "encode", Err: err}
	}

	if err := a.link.Write(ctx, deviceID, frame); err != nil {
		return &transport.Error{DeviceID: deviceID, Op: "send", Err: err}
	}
	return nil
}

// PullSamples queries the node for buffered samples of one kind.
func (a *Adapter) PullSamples(ctx context.Context, deviceID string, kind domain.SampleKind) ([]domain.TelemetrySample, error) {
	request, err := json.Marshal(dataItem{
		Path:    fmt.Sprintf("%s/%s", pathSamples, kind),
		Payload: json.RawMessage(`{}`),
	})
	if err != nil {
		return nil, &transport.Error{DeviceID: deviceID, Op: "encode", Err: err}
	}

	response, err := a.link.Query(ctx, deviceID, request)
	if err != nil {
		return nil, &transport.Error{DeviceID: deviceID, Op: "pull", Err: err}
	}

	var samples []domain.TelemetrySample
	if err := json.Unmarshal(response, &samples); err != nil {
		return nil, &transport.Error{DeviceID: deviceID, Op: "decode", Err: err}
	}
	for i := range samples {
		samples[i].DeviceID = deviceID
	}
	return samples, nil
}

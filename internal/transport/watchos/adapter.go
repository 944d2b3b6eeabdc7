// Package watchos adapts the engine's transport contract to watchOS session
// messaging. Payloads travel as userInfo-style envelopes with a compact binary
// frame header.
package watchos

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"

	"example.com/companion/internal/domain"
	"example.com/companion/internal/transport"
)

// frameMagic marks a companion session frame; the remaining header byte is the
// envelope kind.
const frameMagic = 0xC5

const (
	frameKindWidget       = 0x01
	frameKindNotification = 0x02
	frameKindSampleQuery  = 0x03
)

// Adapter implements transport.DeviceTransport for paired Apple Watches.
type Adapter struct {
	link transport.Link
}

// New constructs an Adapter around the provided link.
func New(link transport.Link) *Adapter {
	return &Adapter{link: link}
}

type envelope struct {
	Ref      string          `json:"ref"`
	UserInfo json.RawMessage `json:"userInfo"`
}

// ListPairedDevices returns the session ids of reachable watches.
func (a *Adapter) ListPairedDevices(ctx context.Context) ([]string, error) {
	devices, err := a.link.Devices(ctx)
	if err != nil {
		return nil, &transport.Error{Op: "list", Err: err}
	}
	return devices, nil
}

// Send frames the payload and transfers it over the session.
func (a *Adapter) Send(ctx context.Context, deviceID string, payload transport.Payload) error {
	kind := byte(frameKindWidget)
	if payload.Kind == transport.PayloadNotification {
		kind = frameKindNotification
	}

	frame, err := encodeFrame(kind, envelope{Ref: payload.Ref, UserInfo: payload.Body})
	if err != nil {
		return &transport.Error{DeviceID: deviceID, Op: "encode", Err: err}
	}

	if err := a.link.Write(ctx, deviceID, frame); err != nil {
		return &transport.Error{DeviceID: deviceID, Op: "send", Err: err}
	}
	return nil
}

// PullSamples asks the watch for buffered HealthKit samples of one kind.
func (a *Adapter) PullSamples(ctx context.Context, deviceID string, kind domain.SampleKind) ([]domain.TelemetrySample, error) {
	query, err := json.Marshal(map[string]string{"kind": string(kind)})
	if err != nil {
		return nil, &transport.Error{DeviceID: deviceID, Op: "encode", Err: err}
	}
	frame, err := encodeFrame(frameKindSampleQuery, envelope{Ref: string(kind), UserInfo: query})
	if err != nil {
		return nil, &transport.Error{DeviceID: deviceID, Op: "encode", Err: err}
	}

	response, err := a.link.Query(ctx, deviceID, frame)
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

// encodeFrame prefixes the JSON envelope with magic, kind, and body length.
func encodeFrame(kind byte, env envelope) ([]byte, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 6+len(body))
	frame[0] = frameMagic
	frame[1] = kind
	binary.BigEndian.PutUint32(frame[2:6], uint32(len(body)))
	copy(frame[6:], body)
	return frame, nil
}

// decodeFrame reverses encodeFrame; exposed for the phone-side session stub.
func decodeFrame(frame []byte) (byte, envelope, error) {
	if len(frame) < 6 || frame[0] != frameMagic {
		return 0, envelope{}, errors.New("malformed session frame")
	}
	size := binary.BigEndian.Uint32(frame[2:6])
	if int(size) != len(frame)-6 {
		return 0, envelope{}, errors.New("session frame length mismatch")
	}
	var env envelope
	if err := json.Unmarshal(frame[6:], &env); err != nil {
		return 0, envelope{}, err
	}
	return frame[1], env, nil
}

package wearos

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/companion/internal/domain"
	"example.com/companion/internal/transport"
)

func TestSendWritesDataLayerItem(t *testing.T) {
	ctx := context.Background()
	link := NewLoopback("pixel-watch-1")
	adapter := New(link)

	payload := transport.Payload{
		Kind: transport.PayloadNotification,
		Ref:  "n-42",
		Body: json.RawMessage(`{"title":"Chores"}`),
	}
	require.NoError(t, adapter.Send(ctx, "pixel-watch-1", payload))

	frames := link.Frames("pixel-watch-1")
	require.Len(t, frames, 1)

	var item dataItem
	require.NoError(t, json.Unmarshal(frames[0], &item))
	require.Equal(t, pathNotification+"/n-42", item.Path)
	require.JSONEq(t, `{"title":"Chores"}`, string(item.Payload))
}

func TestSendRoutesWidgetsToWidgetPath(t *testing.T) {
	ctx := context.Background()
	link := NewLoopback("pixel-watch-1")
	adapter := New(link)

	payload := transport.Payload{Kind: transport.PayloadWidget, Ref: "w-1", Body: json.RawMessage(`{}`)}
	require.NoError(t, adapter.Send(ctx, "pixel-watch-1", payload))

	var item dataItem
	require.NoError(t, json.Unmarshal(link.Frames("pixel-watch-1")[0], &item))
	require.Equal(t, pathWidget+"/w-1", item.Path)
}

func TestPullSamplesStampsDeviceID(t *testing.T) {
	ctx := context.Background()
	link := NewLoopback("pixel-watch-1")
	adapter := New(link)

	link.QueueSamples(domain.SampleSteps,
		domain.TelemetrySample{Kind: domain.SampleSteps, Value: 900, Unit: "count", Timestamp: time.Now().UTC(), Source: domain.SourceAutomatic},
		domain.TelemetrySample{Kind: domain.SampleSteps, Value: 300, Unit: "count", Timestamp: time.Now().UTC(), Source: domain.SourceAutomatic},
	)

	samples, err := adapter.PullSamples(ctx, "pixel-watch-1", domain.SampleSteps)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	for _, s := range samples {
		require.Equal(t, "pixel-watch-1", s.DeviceID)
		require.Equal(t, domain.SampleSteps, s.Kind)
	}
}

func TestOfflineLinkSurfacesTransportError(t *testing.T) {
	ctx := context.Background()
	link := NewLoopback("pixel-watch-1")
	link.SetOffline(true)
	adapter := New(link)

	err := adapter.Send(ctx, "pixel-watch-1", transport.Payload{Kind: transport.PayloadWidget, Ref: "w-1", Body: json.RawMessage(`{}`)})
	var terr *transport.Error
	require.ErrorAs(t, err, &terr)
	require.Equal(t, "send", terr.Op)
	require.Equal(t, "pixel-watch-1", terr.DeviceID)

	_, err = adapter.ListPairedDevices(ctx)
	require.Error(t, err)
}

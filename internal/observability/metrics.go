package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	widgetPushGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "companion",
		Subsystem: "sync",
		Name:      "last_widget_push_timestamp_seconds",
		Help:      "Unix timestamp of the most recent widget payload accepted by a device.",
	})
	telemetrySyncGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "companion",
		Subsystem: "sync",
		Name:      "last_telemetry_sync_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completed telemetry sync cycle.",
	})
)

func init() {
	prometheus.MustRegister(widgetPushGauge, telemetrySyncGauge)
}

// RecordWidgetPushed updates the widget push watermark gauge.
func RecordWidgetPushed(ts time.Time) {
	if ts.IsZero() {
		return
	}
	widgetPushGauge.Set(float64(ts.Unix()))
}

// RecordTelemetrySynced updates the telemetry sync watermark gauge.
func RecordTelemetrySynced(ts time.Time) {
	if ts.IsZero() {
		return
	}
	telemetrySyncGauge.Set(float64(ts.Unix()))
}

package notify

import "github.com/prometheus/client_golang/prometheus"

var (
	deliveredCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "companion",
		Subsystem: "notify",
		Name:      "delivered_total",
		Help:      "Number of notifications accepted by at least one companion device on first dispatch.",
	})

	queuedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "companion",
		Subsystem: "notify",
		Name:      "queued_total",
		Help:      "Number of notifications enqueued because the companion link was down.",
	})

	flushedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "companion",
		Subsystem: "notify",
		Name:      "flushed_total",
		Help:      "Number of queued notifications delivered by a flush pass.",
	})

	expiredCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "companion",
		Subsystem: "notify",
		Name:      "expired_total",
		Help:      "Number of queued notifications dropped after exceeding the retention window.",
	})

	sendFailureCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "companion",
		Subsystem: "notify",
		Name:      "send_failures_total",
		Help:      "Number of per-device send attempts that failed at the transport.",
	})

	queueDepthGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "companion",
		Subsystem: "notify",
		Name:      "queue_depth",
		Help:      "Current number of notifications waiting in the offline queue.",
	})
)

func init() {
	prometheus.MustRegister(deliveredCounter, queuedCounter, flushedCounter, expiredCounter, sendFailureCounter, queueDepthGauge)
}

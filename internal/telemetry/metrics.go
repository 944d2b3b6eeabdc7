package telemetry

import "github.com/prometheus/client_golang/prometheus"

var (
	samplesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "companion",
		Subsystem: "telemetry",
		Name:      "samples_pulled_total",
		Help:      "Number of telemetry samples pulled from companion devices.",
	})

	pullFailureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "companion",
		Subsystem: "telemetry",
		Name:      "pull_failures_total",
		Help:      "Number of sample pull attempts that failed at the transport, labeled by kind.",
	}, []string{"kind"})

	mirrorFailureCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "companion",
		Subsystem: "telemetry",
		Name:      "mirror_failures_total",
		Help:      "Number of batch publishes to the cloud sink that failed.",
	})

	cacheSizeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "companion",
		Subsystem: "telemetry",
		Name:      "cache_samples",
		Help:      "Current number of samples held in the local cache.",
	})
)

func init() {
	prometheus.MustRegister(samplesCounter, pullFailureCounter, mirrorFailureCounter, cacheSizeGauge)
}

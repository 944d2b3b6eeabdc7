package widget

import "github.com/prometheus/client_golang/prometheus"

var (
	pushCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "companion",
		Subsystem: "widget",
		Name:      "pushes_total",
		Help:      "Number of widget payloads accepted by a companion device, labeled by category.",
	}, []string{"category"})

	pushFailureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "companion",
		Subsystem: "widget",
		Name:      "push_failures_total",
		Help:      "Number of widget push attempts that failed at the transport, labeled by category.",
	}, []string{"category"})

	activeWidgetsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "companion",
		Subsystem: "widget",
		Name:      "active_widgets",
		Help:      "Current size of the active widget set.",
	})
)

func init() {
	prometheus.MustRegister(pushCounter, pushFailureCounter, activeWidgetsGauge)
}

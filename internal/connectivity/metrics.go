package connectivity

import "github.com/prometheus/client_golang/prometheus"

var (
	connectedDevicesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "companion",
		Subsystem: "connectivity",
		Name:      "connected_devices",
		Help:      "Number of paired companion devices reachable on the last probe.",
	})

	transitionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "companion",
		Subsystem: "connectivity",
		Name:      "link_transitions_total",
		Help:      "Count of link state transitions, labeled by direction.",
	}, []string{"direction"})
)

func init() {
	prometheus.MustRegister(connectedDevicesGauge, transitionCounter)
}

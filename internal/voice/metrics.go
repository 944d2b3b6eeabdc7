package voice

import "github.com/prometheus/client_golang/prometheus"

var (
	intentCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "companion",
		Subsystem: "voice",
		Name:      "commands_total",
		Help:      "Number of interpreted voice commands, labeled by resolved intent.",
	}, []string{"intent"})

	actionFailureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "companion",
		Subsystem: "voice",
		Name:      "action_failures_total",
		Help:      "Number of domain action invocations that failed and were converted to apology responses.",
	}, []string{"intent"})
)

func init() {
	prometheus.MustRegister(intentCounter, actionFailureCounter)
}

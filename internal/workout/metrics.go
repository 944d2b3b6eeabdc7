package workout

import "github.com/prometheus/client_golang/prometheus"

var (
	activeWorkoutsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "companion",
		Subsystem: "workout",
		Name:      "active_workouts",
		Help:      "Number of workouts currently active or paused.",
	})

	completedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "companion",
		Subsystem: "workout",
		Name:      "completed_total",
		Help:      "Number of workouts that reached their target, labeled by goal kind.",
	}, []string{"goal_kind"})
)

func init() {
	prometheus.MustRegister(activeWorkoutsGauge, completedCounter)
}

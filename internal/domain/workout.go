package domain

import "time"

// GoalKind is the family goal a workout counts toward.
type GoalKind string

const (
	GoalSteps      GoalKind = "steps"
	GoalExercise   GoalKind = "exercise"
	GoalFamilyTime GoalKind = "family_time"
)

var knownGoalKinds = map[GoalKind]struct{}{
	GoalSteps:      {},
	GoalExercise:   {},
	GoalFamilyTime: {},
}

// KnownGoalKind reports whether k is a supported goal kind.
func KnownGoalKind(k GoalKind) bool {
	_, ok := knownGoalKinds[k]
	return ok
}

// WorkoutStatus is the lifecycle state of a workout. Completed is terminal.
type WorkoutStatus string

const (
	WorkoutActive    WorkoutStatus = "active"
	WorkoutPaused    WorkoutStatus = "paused"
	WorkoutCompleted WorkoutStatus = "completed"
)

// Workout tracks progress toward a goal target. Current is advanced by the
// telemetry pipeline's progress ticks and never exceeds Target once completion
// handling has run.
type Workout struct {
	ID        string        `json:"id"`
	MemberID  string        `json:"member_id"`
	GoalKind  GoalKind      `json:"goal_kind"`
	Target    float64       `json:"target"`
	Current   float64       `json:"current"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
	Status    WorkoutStatus `json:"status"`
}

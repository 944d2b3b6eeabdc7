// Package events defines the payloads published to the cloud mirror.
package events

import (
	"time"

	"example.com/companion/internal/domain"
)

// Event type identifiers carried in Kafka headers.
const (
	TypeTelemetryBatch   = "telemetry.batch_recorded"
	TypeWorkoutCompleted = "workout.completed"
)

// TelemetryBatch is emitted after every sync cycle that pulled samples.
type TelemetryBatch struct {
	BatchID  string                   `json:"batch_id"`
	FamilyID string                   `json:"family_id"`
	SyncedAt time.Time                `json:"synced_at"`
	Samples  []domain.TelemetrySample `json:"samples"`
}

// WorkoutCompleted is emitted when a workout reaches its target.
type WorkoutCompleted struct {
	WorkoutID   string          `json:"workout_id"`
	FamilyID    string          `json:"family_id"`
	MemberID    string          `json:"member_id"`
	GoalKind    domain.GoalKind `json:"goal_kind"`
	Target      float64         `json:"target"`
	CompletedAt time.Time       `json:"completed_at"`
}

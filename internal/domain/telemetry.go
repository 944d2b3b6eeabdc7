package domain

import "time"

// SampleKind identifies the health metric a telemetry sample measures.
type SampleKind string

const (
	SampleSteps     SampleKind = "steps"
	SampleHeartRate SampleKind = "heart_rate"
	SampleExercise  SampleKind = "exercise"
	SampleSleep     SampleKind = "sleep"
)

// SampleKinds lists the kinds the pipeline pulls on every sync cycle.
var SampleKinds = []SampleKind{SampleSteps, SampleHeartRate, SampleExercise, SampleSleep}

// SampleSource distinguishes sensor-recorded samples from manual entries.
type SampleSource string

const (
	SourceAutomatic SampleSource = "automatic"
	SourceManual    SampleSource = "manual"
)

// TelemetrySample is one append-only health/workout measurement pulled from a
// companion device.
type TelemetrySample struct {
	Kind      SampleKind   `json:"kind"`
	Value     float64      `json:"value"`
	Unit      string       `json:"unit"`
	Timestamp time.Time    `json:"timestamp"`
	Source    SampleSource `json:"source"`
	DeviceID  string       `json:"device_id,omitempty"`
}

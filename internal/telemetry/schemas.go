package telemetry

// JSON schemas registered for cloud mirror payloads.

const telemetryBatchSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "TelemetryBatch",
  "type": "object",
  "required": ["batch_id", "family_id", "synced_at", "samples"],
  "properties": {
    "batch_id": {"type": "string"},
    "family_id": {"type": "string"},
    "synced_at": {"type": "string", "format": "date-time"},
    "samples": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["kind", "value", "unit", "timestamp", "source"],
        "properties": {
          "kind": {"type": "string", "enum": ["steps", "heart_rate", "exercise", "sleep"]},
          "value": {"type": "number"},
          "unit": {"type": "string"},
          "timestamp": {"type": "string", "format": "date-time"},
          "source": {"type": "string", "enum": ["automatic", "manual"]},
          "device_id": {"type": "string"}
        }
      }
    }
  }
}`

const workoutCompletedSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "WorkoutCompleted",
  "type": "object",
  "required": ["workout_id", "family_id", "member_id", "goal_kind", "target", "completed_at"],
  "properties": {
    "workout_id": {"type": "string"},
    "family_id": {"type": "string"},
    "member_id": {"type": "string"},
    "goal_kind": {"type": "string", "enum": ["steps", "exercise", "family_time"]},
    "target": {"type": "number"},
    "completed_at": {"type": "string", "format": "date-time"}
  }
}`

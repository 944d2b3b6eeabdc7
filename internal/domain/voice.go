package domain

// Intent is the classified purpose of a voice utterance.
type Intent string

const (
	IntentCreateTask   Intent = "create_task"
	IntentCreateEvent  Intent = "create_event"
	IntentCheckStatus  Intent = "check_status"
	IntentStartWorkout Intent = "start_workout"
	IntentGeneralQuery Intent = "general_query"
	IntentUnknown      Intent = "unknown"
)

// VoiceCommand is the transient result of interpreting one utterance. The
// response text is always populated, even for unrecognised input, because the
// companion UI always needs something to display or speak back.
type VoiceCommand struct {
	RawText    string            `json:"raw_text"`
	Intent     Intent            `json:"intent"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Confidence float64           `json:"confidence"`
	Response   string            `json:"response"`
}

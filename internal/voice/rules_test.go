package voice

import (
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/companion/internal/domain"
)

func TestNormalizeStripsPunctuationAndCase(t *testing.T) {
	require.Equal(t, "whats pending today", normalize("  What's pending, today?! "))
	require.Equal(t, "", normalize("?!..."))
}

func TestClassifyPrecedence(t *testing.T) {
	cases := []struct {
		utterance string
		intent    domain.Intent
	}{
		{"start a workout", domain.IntentStartWorkout},
		{"begin workout with the kids", domain.IntentStartWorkout},
		{"new task buy milk", domain.IntentCreateTask},
		{"schedule dentist appointment", domain.IntentCreateEvent},
		{"how are we doing this week", domain.IntentCheckStatus},
		{"tell me a joke", domain.IntentGeneralQuery},
	}

	for _, tc := range cases {
		intent, _, _ := classify(tc.utterance)
		require.Equalf(t, tc.intent, intent, "utterance %q", tc.utterance)
	}
}

func TestExtractWorkoutParameters(t *testing.T) {
	params := extractWorkout(normalize("start a walking workout for noah"), "")
	require.Equal(t, string(domain.GoalSteps), params["goal_kind"])
	require.Equal(t, "noah", params["member"])

	params = extractWorkout(normalize("start workout"), "")
	require.Equal(t, string(domain.GoalExercise), params["goal_kind"])
	require.Empty(t, params["member"])

	params = extractWorkout(normalize("start a family time workout"), "")
	require.Equal(t, string(domain.GoalFamilyTime), params["goal_kind"])
}

func TestTrailingTextStripsConnectives(t *testing.T) {
	require.Equal(t, "buy milk", trailingText("remind me to buy milk", "remind me to"))
	require.Equal(t, "picnic", trailingText("add event a picnic", "add event"))
	require.Equal(t, "", trailingText("add task", "add task"))
}

func TestWordMatchesRequiresExactnessForShortWords(t *testing.T) {
	require.True(t, wordMatches("task", "task"))
	require.False(t, wordMatches("tsk", "new"))
	require.True(t, wordMatches("workut", "workout"))
	require.False(t, wordMatches("homework", "workout"))
}

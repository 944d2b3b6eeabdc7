package voice

import (
	"context"
	"errors"
	"fmt"
	"log"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/companion/internal/domain"
)

func TestInterpretCreateTask(t *testing.T) {
	i, actions := newTestInterpreter(t)

	cmd := i.Interpret(context.Background(), "Remind me to take out the trash")
	require.Equal(t, domain.IntentCreateTask, cmd.Intent)
	require.Equal(t, "take out the trash", cmd.Parameters["description"])
	require.Equal(t, []string{"take out the trash"}, actions.tasks)
	require.Contains(t, cmd.Response, "take out the trash")
	require.Greater(t, cmd.Confidence, 0.5)
	require.LessOrEqual(t, cmd.Confidence, 0.95)
}

func TestInterpretToleratesTranscriptionTypos(t *testing.T) {
	i, actions := newTestInterpreter(t)

	cmd := i.Interpret(context.Background(), "creat task to feed the dog")
	require.Equal(t, domain.IntentCreateTask, cmd.Intent)
	require.Equal(t, []string{"feed the dog"}, actions.tasks)
}

func TestInterpretCreateEvent(t *testing.T) {
	i, actions := newTestInterpreter(t)

	cmd := i.Interpret(context.Background(), "add event movie night on friday")
	require.Equal(t, domain.IntentCreateEvent, cmd.Intent)
	require.Equal(t, []string{"movie night on friday"}, actions.events)
	require.Contains(t, cmd.Response, "movie night on friday")
}

func TestInterpretCheckStatus(t *testing.T) {
	i, _ := newTestInterpreter(t)

	cmd := i.Interpret(context.Background(), "whats the family status?")
	require.Equal(t, domain.IntentCheckStatus, cmd.Intent)
	require.Equal(t, "all quiet on the home front", cmd.Response)
}

func TestInterpretStartWorkoutPrecedesCreateTask(t *testing.T) {
	i, actions := newTestInterpreter(t)

	cmd := i.Interpret(context.Background(), "start a workout for emma with steps")
	require.Equal(t, domain.IntentStartWorkout, cmd.Intent)
	require.Equal(t, string(domain.GoalSteps), cmd.Parameters["goal_kind"])
	require.Equal(t, "emma", cmd.Parameters["member"])
	require.Len(t, actions.workouts, 1)
	require.Equal(t, "emma/steps", actions.workouts[0])
	require.Empty(t, actions.tasks)
}

func TestInterpretUnmatchedFallsBackToGeneralQuery(t *testing.T) {
	i, _ := newTestInterpreter(t)

	cmd := i.Interpret(context.Background(), "flibber jabberwock nonsense")
	require.Equal(t, domain.IntentGeneralQuery, cmd.Intent)
	require.NotEmpty(t, cmd.Response)
	require.Less(t, cmd.Confidence, matchedBaseConfidence)
}

func TestInterpretEmptyInput(t *testing.T) {
	i, _ := newTestInterpreter(t)

	cmd := i.Interpret(context.Background(), "   !?  ")
	require.Equal(t, domain.IntentUnknown, cmd.Intent)
	require.Zero(t, cmd.Confidence)
	require.NotEmpty(t, cmd.Response)
}

func TestInterpretActionErrorBecomesApology(t *testing.T) {
	i, actions := newTestInterpreter(t)
	actions.err = errors.New("phone unreachable")

	cmd := i.Interpret(context.Background(), "add task water the plants")
	require.Equal(t, domain.IntentCreateTask, cmd.Intent)
	require.Contains(t, cmd.Response, "Sorry")
}

func TestConfidenceNeverExceedsCeiling(t *testing.T) {
	i, _ := newTestInterpreter(t)

	long := "remind me to pick up the dry cleaning and then stop by the grocery store for milk eggs and bread before dinner"
	cmd := i.Interpret(context.Background(), long)
	require.Equal(t, domain.IntentCreateTask, cmd.Intent)
	require.InDelta(t, 0.85, cmd.Confidence, 0.001)

	i2 := NewInterpreter(&stubActions{}, 0.7, 20, WithLogger(log.New(testWriter{t}, "", 0)))
	cmd = i2.Interpret(context.Background(), long)
	require.InDelta(t, 0.7, cmd.Confidence, 0.001)
}

func TestHistoryIsBoundedMostRecentFirst(t *testing.T) {
	actions := &stubActions{}
	i := NewInterpreter(actions, 0.95, 3, WithLogger(log.New(testWriter{t}, "", 0)))

	for n := 0; n < 5; n++ {
		i.Interpret(context.Background(), fmt.Sprintf("add task chore %d", n))
	}

	history := i.History()
	require.Len(t, history, 3)
	require.Equal(t, "add task chore 4", history[0].RawText)
	require.Equal(t, "add task chore 2", history[2].RawText)
}

func newTestInterpreter(t *testing.T) (*Interpreter, *stubActions) {
	t.Helper()
	actions := &stubActions{}
	i := NewInterpreter(actions, 0.95, 20, WithLogger(log.New(testWriter{t}, "", 0)))
	return i, actions
}

type stubActions struct {
	err      error
	tasks    []string
	events   []string
	workouts []string
}

func (s *stubActions) CreateTask(_ context.Context, description string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.tasks = append(s.tasks, description)
	return description, nil
}

func (s *stubActions) CreateEvent(_ context.Context, description string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.events = append(s.events, description)
	return description, nil
}

func (s *stubActions) QueryFamilyStatus(context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "all quiet on the home front", nil
}

func (s *stubActions) StartWorkout(_ context.Context, memberID string, goal domain.GoalKind) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.workouts = append(s.workouts, fmt.Sprintf("%s/%s", memberID, goal))
	return "workout started", nil
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

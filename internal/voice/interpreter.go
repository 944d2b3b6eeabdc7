// Package voice resolves free-text companion voice input into intents and
// invokes the corresponding family actions. Interpretation never fails
// loudly: execution errors become apology responses because a voice session
// must never crash on the wrist.
package voice

import (
	"context"
	"fmt"
	"log"
	"sync"

	"example.com/companion/internal/domain"
)

// Actions are the family-app callbacks an interpreted command may invoke.
// Each returns the string used to build the spoken response.
type Actions interface {
	CreateTask(ctx context.Context, description string) (string, error)
	CreateEvent(ctx context.Context, description string) (string, error)
	QueryFamilyStatus(ctx context.Context) (string, error)
	StartWorkout(ctx context.Context, memberID string, goal domain.GoalKind) (string, error)
}

const (
	matchedBaseConfidence  = 0.55
	fallbackBaseConfidence = 0.30
	lengthBonusPerRune     = 0.005
	lengthBonusCap         = 0.30
)

// Option configures optional behaviour for the Interpreter.
type Option func(*Interpreter)

// WithLogger overrides the logger used to report action failures.
func WithLogger(logger *log.Logger) Option {
	return func(i *Interpreter) {
		i.logger = logger
	}
}

// Interpreter classifies utterances with the ordered rule table and executes
// the matched intent. It keeps a bounded most-recent history for UI replay.
type Interpreter struct {
	actions       Actions
	maxConfidence float64
	historyCap    int
	logger        *log.Logger

	mu      sync.Mutex
	history []domain.VoiceCommand
}

// NewInterpreter constructs an Interpreter.
func NewInterpreter(actions Actions, maxConfidence float64, historyCap int, opts ...Option) *Interpreter {
	if maxConfidence <= 0 || maxConfidence > 1 {
		maxConfidence = 0.95
	}
	if historyCap <= 0 {
		historyCap = 20
	}
	i := &Interpreter{
		actions:       actions,
		maxConfidence: maxConfidence,
		historyCap:    historyCap,
		logger:        log.New(log.Writer(), "[voice] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Interpret classifies the utterance, executes the matched action, and always
// returns a command carrying a non-empty response.
func (i *Interpreter) Interpret(ctx context.Context, rawText string) domain.VoiceCommand {
	cmd := domain.VoiceCommand{RawText: rawText}

	if normalize(rawText) == "" {
		cmd.Intent = domain.IntentUnknown
		cmd.Confidence = 0
		cmd.Response = "I didn't catch that. Could you try again?"
		i.record(cmd)
		return cmd
	}

	intent, params, matched := classify(rawText)
	cmd.Intent = intent
	cmd.Parameters = params
	cmd.Confidence = i.confidence(rawText, matched)
	cmd.Response = i.execute(ctx, intent, params)

	intentCounter.WithLabelValues(string(intent)).Inc()
	i.record(cmd)
	return cmd
}

// History returns the retained commands, most recent first.
func (i *Interpreter) History() []domain.VoiceCommand {
	i.mu.Lock()
	defer i.mu.Unlock()

	out := make([]domain.VoiceCommand, len(i.history))
	for idx, cmd := range i.history {
		out[len(i.history)-1-idx] = cmd
	}
	return out
}

// confidence is deterministic: a base per match outcome plus a bonus
// proportional to utterance length, bounded so short input never reads as
// certain.
func (i *Interpreter) confidence(rawText string, matched bool) float64 {
	base := fallbackBaseConfidence
	if matched {
		base = matchedBaseConfidence
	}
	bonus := float64(len([]rune(rawText))) * lengthBonusPerRune
	if bonus > lengthBonusCap {
		bonus = lengthBonusCap
	}
	confidence := base + bonus
	if confidence > i.maxConfidence {
		confidence = i.maxConfidence
	}
	return confidence
}

func (i *Interpreter) execute(ctx context.Context, intent domain.Intent, params map[string]string) string {
	response, err := i.invoke(ctx, intent, params)
	if err != nil {
		i.logger.Printf("action error (intent=%s): %v", intent, err)
		actionFailureCounter.WithLabelValues(string(intent)).Inc()
		return "Sorry, I couldn't do that right now. Please try again from your phone."
	}
	return response
}

func (i *Interpreter) invoke(ctx context.Context, intent domain.Intent, params map[string]string) (string, error) {
	switch intent {
	case domain.IntentCreateTask:
		result, err := i.actions.CreateTask(ctx, params["description"])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Added the task: %s.", result), nil
	case domain.IntentCreateEvent:
		result, err := i.actions.CreateEvent(ctx, params["description"])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Scheduled: %s.", result), nil
	case domain.IntentCheckStatus:
		result, err := i.actions.QueryFamilyStatus(ctx)
		if err != nil {
			return "", err
		}
		return result, nil
	case domain.IntentStartWorkout:
		goal := domain.GoalKind(params["goal_kind"])
		if !domain.KnownGoalKind(goal) {
			goal = domain.GoalExercise
		}
		result, err := i.actions.StartWorkout(ctx, params["member"], goal)
		if err != nil {
			return "", err
		}
		return result, nil
	default:
		return "I'm not sure how to help with that yet, but I passed it along.", nil
	}
}

func (i *Interpreter) record(cmd domain.VoiceCommand) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.history = append(i.history, cmd)
	if len(i.history) > i.historyCap {
		i.history = i.history[len(i.history)-i.historyCap:]
	}
}

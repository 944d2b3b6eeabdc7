// Package family implements the app-side callbacks voice commands invoke:
// lightweight task and event capture, status summaries, and workout kickoff.
package family

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/companion/internal/connectivity"
	"example.com/companion/internal/domain"
)

// Notifier dispatches notifications for captured tasks and events.
type Notifier interface {
	Dispatch(ctx context.Context, n domain.Notification) (domain.DeliveryResult, error)
}

// WorkoutStarter begins a workout toward a goal target.
type WorkoutStarter interface {
	Start(memberID string, goal domain.GoalKind, target float64) (domain.Workout, error)
}

// Task is a to-do captured from a voice command.
type Task struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Event is a calendar entry captured from a voice command.
type Event struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Default workout targets per goal kind, used when a voice command names no
// number.
var defaultTargets = map[domain.GoalKind]float64{
	domain.GoalSteps:      10000,
	domain.GoalExercise:   30,
	domain.GoalFamilyTime: 60,
}

// Service holds captured tasks and events and fans voice intents out to the
// rest of the engine.
type Service struct {
	notifier Notifier
	workouts WorkoutStarter
	monitor  *connectivity.Monitor
	familyID string

	mu     sync.Mutex
	tasks  []Task
	events []Event
}

// NewService constructs a Service.
func NewService(notifier Notifier, workouts WorkoutStarter, monitor *connectivity.Monitor, familyID string) *Service {
	return &Service{
		notifier: notifier,
		workouts: workouts,
		monitor:  monitor,
		familyID: familyID,
	}
}

// CreateTask captures a task and announces it to paired devices.
func (s *Service) CreateTask(ctx context.Context, description string) (string, error) {
	task := Task{
		ID:          uuid.NewString(),
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()

	_, err := s.notifier.Dispatch(ctx, domain.Notification{
		FamilyID: s.familyID,
		Title:    "New task",
		Message:  description,
		Category: domain.CategoryTaskReminder,
		Urgency:  domain.UrgencyNormal,
	})
	if err != nil {
		return "", err
	}
	return description, nil
}

// CreateEvent captures a calendar event and announces it.
func (s *Service) CreateEvent(ctx context.Context, description string) (string, error) {
	event := Event{
		ID:          uuid.NewString(),
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()

	_, err := s.notifier.Dispatch(ctx, domain.Notification{
		FamilyID: s.familyID,
		Title:    "New event",
		Message:  description,
		Category: domain.CategoryCalendarEvent,
		Urgency:  domain.UrgencyNormal,
	})
	if err != nil {
		return "", err
	}
	return description, nil
}

// QueryFamilyStatus summarises the link state and open item counts.
func (s *Service) QueryFamilyStatus(ctx context.Context) (string, error) {
	s.mu.Lock()
	taskCount := len(s.tasks)
	eventCount := len(s.events)
	s.mu.Unlock()

	state := s.monitor.Last()
	link := "offline"
	if state.Connected {
		link = fmt.Sprintf("connected to %d device(s)", len(state.DeviceIDs))
	}
	return fmt.Sprintf("The family hub is %s with %d open task(s) and %d upcoming event(s).", link, taskCount, eventCount), nil
}

// StartWorkout begins a workout with the default target for the goal. A
// command that names no member starts a shared family workout.
func (s *Service) StartWorkout(ctx context.Context, memberID string, goal domain.GoalKind) (string, error) {
	if memberID == "" {
		memberID = "family"
	}
	target, ok := defaultTargets[goal]
	if !ok {
		target = defaultTargets[domain.GoalExercise]
		goal = domain.GoalExercise
	}
	w, err := s.workouts.Start(memberID, goal, target)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Started a %s workout for %s with a target of %.0f.", w.GoalKind, w.MemberID, w.Target), nil
}

// Tasks returns the captured tasks, oldest first.
func (s *Service) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Task(nil), s.tasks...)
}

// Events returns the captured events, oldest first.
func (s *Service) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

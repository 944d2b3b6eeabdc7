// Package workout tracks goal workouts and drives their progress off the
// telemetry cache. Completion is a terminal transition taken exactly once.
package workout

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/companion/internal/domain"
	"example.com/companion/internal/events"
	"example.com/companion/internal/scheduler"
)

// Notifier dispatches the completion notification. Satisfied by the
// notification dispatcher.
type Notifier interface {
	Dispatch(ctx context.Context, n domain.Notification) (domain.DeliveryResult, error)
}

// ProgressSource sums telemetry observed in the half-open window
// [since, until). Satisfied by the telemetry cache.
type ProgressSource interface {
	TotalSince(kind domain.SampleKind, since, until time.Time) float64
}

// CompletionSink mirrors workout completions to the cloud. Satisfied by the
// telemetry Kafka sink.
type CompletionSink interface {
	PublishWorkoutCompleted(ctx context.Context, event events.WorkoutCompleted) error
}

// Option configures optional behaviour for the Manager.
type Option func(*Manager)

// WithLogger overrides the logger used to report tick and dispatch failures.
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithCompletionSink mirrors every completion to the cloud, best effort.
func WithCompletionSink(sink CompletionSink) Option {
	return func(m *Manager) {
		m.sink = sink
	}
}

// Manager owns workout state and per-workout progress tick timers.
type Manager struct {
	sched        scheduler.Scheduler
	tickInterval time.Duration
	progress     ProgressSource
	notifier     Notifier
	sink         CompletionSink
	familyID     string
	logger       *log.Logger
	now          func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	workout  domain.Workout
	cancel   scheduler.CancelFunc
	lastTick time.Time
}

// NewManager constructs a Manager.
func NewManager(sched scheduler.Scheduler, tickInterval time.Duration, progress ProgressSource, notifier Notifier, familyID string, opts ...Option) *Manager {
	m := &Manager{
		sched:        sched,
		tickInterval: tickInterval,
		progress:     progress,
		notifier:     notifier,
		familyID:     familyID,
		logger:       log.New(log.Writer(), "[workout] ", log.LstdFlags),
		now:          func() time.Time { return time.Now().UTC() },
		entries:      make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start creates an active workout and schedules its progress ticks.
func (m *Manager) Start(memberID string, goal domain.GoalKind, target float64) (domain.Workout, error) {
	if strings.TrimSpace(memberID) == "" {
		return domain.Workout{}, domain.NewValidationError("member_id", "is required")
	}
	if !domain.KnownGoalKind(goal) {
		return domain.Workout{}, domain.NewValidationError("goal_kind", "is not a known goal")
	}
	if target <= 0 {
		return domain.Workout{}, domain.NewValidationError("target", "must be > 0")
	}

	now := m.now()
	w := domain.Workout{
		ID:        uuid.NewString(),
		MemberID:  memberID,
		GoalKind:  goal,
		Target:    target,
		StartedAt: now,
		Status:    domain.WorkoutActive,
	}

	m.mu.Lock()
	e := &entry{workout: w, lastTick: now}
	e.cancel = m.sched.Schedule(m.tickInterval, func() {
		m.Tick(w.ID)
	})
	m.entries[w.ID] = e
	m.mu.Unlock()

	activeWorkoutsGauge.Inc()
	return w, nil
}

// Tick advances the workout by the telemetry observed since the previous
// tick. Reaching the target completes the workout and dispatches the
// completion notification.
func (m *Manager) Tick(id string) {
	m.mu.Lock()
	e, ok := m.entries[id]
	if !ok || e.workout.Status != domain.WorkoutActive {
		m.mu.Unlock()
		return
	}

	now := m.now()
	delta := m.progress.TotalSince(sampleKindFor(e.workout.GoalKind), e.lastTick, now)
	e.lastTick = now
	e.workout.Current += delta

	if e.workout.Current < e.workout.Target {
		m.mu.Unlock()
		return
	}

	completed := m.completeLocked(e, now)
	m.mu.Unlock()

	m.announceCompletion(context.Background(), completed)
}

// Pause suspends progress ticking for a workout.
func (m *Manager) Pause(id string) (domain.Workout, error) {
	return m.transition(id, domain.WorkoutActive, domain.WorkoutPaused)
}

// Resume restarts progress from now; samples observed while paused do not count.
func (m *Manager) Resume(id string) (domain.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return domain.Workout{}, domain.ErrWorkoutNotFound
	}
	if e.workout.Status == domain.WorkoutCompleted {
		return domain.Workout{}, domain.ErrWorkoutCompleted
	}
	if e.workout.Status != domain.WorkoutPaused {
		return domain.Workout{}, fmt.Errorf("cannot resume workout in state %s", e.workout.Status)
	}
	e.workout.Status = domain.WorkoutActive
	e.lastTick = m.now()
	return e.workout, nil
}

// Complete finishes the workout on user command. Current keeps its clamped
// value and the completion notification fires exactly as for a tick
// completion.
func (m *Manager) Complete(ctx context.Context, id string) (domain.Workout, error) {
	m.mu.Lock()
	e, ok := m.entries[id]
	if !ok {
		m.mu.Unlock()
		return domain.Workout{}, domain.ErrWorkoutNotFound
	}
	if e.workout.Status == domain.WorkoutCompleted {
		m.mu.Unlock()
		return domain.Workout{}, domain.ErrWorkoutCompleted
	}
	completed := m.completeLocked(e, m.now())
	m.mu.Unlock()

	m.announceCompletion(ctx, completed)
	return completed, nil
}

// Get returns the workout by id.
func (m *Manager) Get(id string) (domain.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return domain.Workout{}, domain.ErrWorkoutNotFound
	}
	return e.workout, nil
}

// ListActive returns workouts that have not completed, newest first.
func (m *Manager) ListActive() []domain.Workout {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Workout, 0, len(m.entries))
	for _, e := range m.entries {
		if e.workout.Status != domain.WorkoutCompleted {
			out = append(out, e.workout)
		}
	}
	sortByStartDesc(out)
	return out
}

// Close cancels every remaining progress timer.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.cancel != nil {
			e.cancel()
			e.cancel = nil
		}
	}
}

func (m *Manager) transition(id string, from, to domain.WorkoutStatus) (domain.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return domain.Workout{}, domain.ErrWorkoutNotFound
	}
	if e.workout.Status == domain.WorkoutCompleted {
		return domain.Workout{}, domain.ErrWorkoutCompleted
	}
	if e.workout.Status != from {
		return domain.Workout{}, fmt.Errorf("cannot move workout from %s to %s", e.workout.Status, to)
	}
	e.workout.Status = to
	return e.workout, nil
}

// completeLocked performs the terminal transition: clamp progress, stamp the
// end, and cancel the tick timer. Callers hold m.mu.
func (m *Manager) completeLocked(e *entry, now time.Time) domain.Workout {
	if e.workout.Current > e.workout.Target {
		e.workout.Current = e.workout.Target
	}
	e.workout.Status = domain.WorkoutCompleted
	ended := now
	e.workout.EndedAt = &ended
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	activeWorkoutsGauge.Dec()
	completedCounter.WithLabelValues(string(e.workout.GoalKind)).Inc()
	return e.workout
}

func (m *Manager) announceCompletion(ctx context.Context, w domain.Workout) {
	notification := domain.Notification{
		FamilyID:       m.familyID,
		TargetMemberID: w.MemberID,
		Title:          "Goal reached!",
		Message:        fmt.Sprintf("%s hit the %s target of %.0f.", w.MemberID, w.GoalKind, w.Target),
		Category:       domain.CategoryWorkout,
		Urgency:        domain.UrgencyHigh,
	}
	if _, err := m.notifier.Dispatch(ctx, notification); err != nil {
		m.logger.Printf("completion dispatch error (workout=%s): %v", w.ID, err)
	}

	if m.sink == nil {
		return
	}
	completedAt := m.now()
	if w.EndedAt != nil {
		completedAt = *w.EndedAt
	}
	event := events.WorkoutCompleted{
		WorkoutID:   w.ID,
		FamilyID:    m.familyID,
		MemberID:    w.MemberID,
		GoalKind:    w.GoalKind,
		Target:      w.Target,
		CompletedAt: completedAt,
	}
	if err := m.sink.PublishWorkoutCompleted(ctx, event); err != nil {
		m.logger.Printf("completion mirror error (workout=%s): %v", w.ID, err)
	}
}

func sampleKindFor(goal domain.GoalKind) domain.SampleKind {
	if goal == domain.GoalSteps {
		return domain.SampleSteps
	}
	return domain.SampleExercise
}

func sortByStartDesc(workouts []domain.Workout) {
	for i := 1; i < len(workouts); i++ {
		for j := i; j > 0 && workouts[j].StartedAt.After(workouts[j-1].StartedAt); j-- {
			workouts[j], workouts[j-1] = workouts[j-1], workouts[j]
		}
	}
}

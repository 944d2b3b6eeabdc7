package scheduler

import (
	"sync"
	"time"
)

// Manual is a virtual-clock Scheduler for tests. Advance moves time forward
// and fires due callbacks synchronously in due order.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	tasks map[int]*manualTask
	next  int
}

type manualTask struct {
	interval time.Duration
	dueAt    time.Time
	fn       func()
}

// NewManual constructs a Manual scheduler starting at an arbitrary epoch.
func NewManual() *Manual {
	return &Manual{
		now:   time.Unix(0, 0),
		tasks: make(map[int]*manualTask),
	}
}

// Schedule registers fn to fire every interval of virtual time.
func (m *Manual) Schedule(interval time.Duration, fn func()) CancelFunc {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.next
	m.next++
	m.tasks[id] = &manualTask{
		interval: interval,
		dueAt:    m.now.Add(interval),
		fn:       fn,
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.tasks, id)
			m.mu.Unlock()
		})
	}
}

// Advance moves the virtual clock forward by d, running every callback that
// comes due, in due order. Callbacks run without the scheduler lock held so
// they may schedule or cancel.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	deadline := m.now.Add(d)

	for {
		var due *manualTask
		for _, task := range m.tasks {
			if task.dueAt.After(deadline) {
				continue
			}
			if due == nil || task.dueAt.Before(due.dueAt) {
				due = task
			}
		}
		if due == nil {
			break
		}

		m.now = due.dueAt
		due.dueAt = due.dueAt.Add(due.interval)
		fn := due.fn

		m.mu.Unlock()
		fn()
		m.mu.Lock()
	}

	m.now = deadline
	m.mu.Unlock()
}

// TaskCount reports how many callbacks remain scheduled.
func (m *Manual) TaskCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

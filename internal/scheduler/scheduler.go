// Package scheduler provides the periodic timer abstraction shared by widget
// refresh, telemetry sync, and workout progress ticking. Tests swap in the
// Manual implementation to advance a virtual clock instead of waiting on real
// timers.
package scheduler

import (
	"sync"
	"time"
)

// CancelFunc stops a scheduled callback. Safe to call more than once.
type CancelFunc func()

// Scheduler runs a callback at a fixed interval until cancelled.
type Scheduler interface {
	Schedule(interval time.Duration, fn func()) CancelFunc
}

// Ticker is the production Scheduler backed by time.Ticker goroutines.
type Ticker struct{}

// NewTicker constructs the real-time scheduler.
func NewTicker() *Ticker { return &Ticker{} }

// Schedule starts a goroutine firing fn every interval until cancelled.
func (t *Ticker) Schedule(interval time.Duration, fn func()) CancelFunc {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

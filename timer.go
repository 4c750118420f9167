package timer

import (
	"github.com/Swind/go-timer/core"
)

// Timer is the front door of this library; see core.Timer.
type Timer = core.Timer

// TaskGuard controls cancellation of a scheduled task; see core.TaskGuard.
type TaskGuard = core.TaskGuard

// Task is the unit of work executed by a Timer.
type Task = core.Task

// Config holds a Timer's diagnostic collaborators.
type Config = core.TimerConfig

// New creates a Timer and immediately starts its executor goroutine.
func New() *Timer {
	return core.NewTimer()
}

// NewWithCapacity creates a Timer pre-sized for the given number of pending
// tasks, as a microoptimization.
func NewWithCapacity(capacity int) *Timer {
	return core.NewTimerWithCapacity(capacity)
}

// NewWithConfig creates a Timer with custom diagnostic collaborators.
func NewWithConfig(capacity int, config *Config) *Timer {
	return core.NewTimerWithConfig(capacity, config)
}

package query

import "time"

// Timer is a scheduled function that can still be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. The engine never sleeps; every delay it
// applies goes through a Scheduler.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemScheduler schedules on the runtime timer heap.
type SystemScheduler struct{}

// AfterFunc wraps time.AfterFunc
func (SystemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

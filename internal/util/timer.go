package util

import "time"

// Timer measures the wall time of one unit of work.
type Timer struct {
	start time.Time
}

// StartTimer starts a timer at the current time.
func StartTimer() Timer {
	return Timer{start: time.Now()}
}

// Elapsed returns the time since start; a zero Timer reports zero.
func (t Timer) Elapsed() time.Duration {
	if t.start.IsZero() {
		return 0
	}
	return time.Since(t.start)
}

// ElapsedMs returns Elapsed in whole milliseconds.
func (t Timer) ElapsedMs() int64 {
	return t.Elapsed().Milliseconds()
}

// Started reports when the timer began.
func (t Timer) Started() time.Time {
	return t.start
}

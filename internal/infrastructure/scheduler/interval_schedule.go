package scheduler

import "time"

// minInterval guards against a zero or negative interval turning the run
// loop into a busy loop.
const minInterval = time.Second

// IntervalSchedule runs a job at a fixed interval, measured from the start
// of the previous run.
type IntervalSchedule struct {
	interval time.Duration
}

// NewIntervalSchedule creates a schedule with the given interval, clamped
// to at least one second.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	if interval < minInterval {
		interval = minInterval
	}
	return &IntervalSchedule{interval: interval}
}

// Next implements Schedule.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.interval)
}

// String implements Schedule.
func (s *IntervalSchedule) String() string {
	return "@every " + s.interval.String()
}

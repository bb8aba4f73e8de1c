package simulate

import (
	"fmt"
	"time"
)

// Schedule enumerates the simulated timestamps of one run: start + i*stride
// for i in [0, Count). It is a lazy, finite, non-restartable sequence.
type Schedule struct {
	start  time.Time
	stride time.Duration
	count  int
	next   int
}

// NewSchedule validates the run dimensions and builds the tick sequence.
// Non-positive stride or duration is a configuration error.
func NewSchedule(start time.Time, strideSeconds, durationHours int) (*Schedule, error) {
	if strideSeconds <= 0 {
		return nil, fmt.Errorf("stride must be positive, got %d", strideSeconds)
	}
	if durationHours <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %d", durationHours)
	}
	totalSeconds := durationHours * 3600
	count := (totalSeconds + strideSeconds - 1) / strideSeconds
	return &Schedule{
		start:  start,
		stride: time.Duration(strideSeconds) * time.Second,
		count:  count,
	}, nil
}

// Count returns the total number of ticks in the schedule.
func (s *Schedule) Count() int { return s.count }

// Stride returns the interval between consecutive ticks.
func (s *Schedule) Stride() time.Duration { return s.stride }

// Start returns the timestamp of the first tick.
func (s *Schedule) Start() time.Time { return s.start }

// Next yields the next simulated timestamp, or false once the schedule is
// exhausted.
func (s *Schedule) Next() (time.Time, bool) {
	if s.next >= s.count {
		return time.Time{}, false
	}
	t := s.start.Add(time.Duration(s.next) * s.stride)
	s.next++
	return t, true
}

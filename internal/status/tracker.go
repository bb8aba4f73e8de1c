package status

import (
	"sync"
	"time"
)

// Tracker records run progress for the status endpoint. The engine is the
// only writer; the HTTP handler reads snapshots.
type Tracker struct {
	mu sync.RWMutex
	s  Snapshot
}

// Snapshot is the externally visible run state.
type Snapshot struct {
	RunID          string    `json:"run_id"`
	State          string    `json:"state"`
	TicksDone      int       `json:"ticks_done"`
	TicksTotal     int       `json:"ticks_total"`
	LastPowerWatts float64   `json:"last_power_watts"`
	StartedAt      time.Time `json:"started_at"`
}

func NewTracker(runID string, total int, startedAt time.Time) *Tracker {
	return &Tracker{s: Snapshot{
		RunID:      runID,
		State:      "validating",
		TicksTotal: total,
		StartedAt:  startedAt,
	}}
}

func (t *Tracker) SetState(state string) {
	t.mu.Lock()
	t.s.State = state
	t.mu.Unlock()
}

// Tick records one confirmed reading.
func (t *Tracker) Tick(powerWatts float64) {
	t.mu.Lock()
	t.s.TicksDone++
	t.s.LastPowerWatts = powerWatts
	t.mu.Unlock()
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.s
}

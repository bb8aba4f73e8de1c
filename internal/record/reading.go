package record

import "time"

// Reading is one simulated power production sample. Within a run readings
// are strictly ordered by timestamp, one per stride.
type Reading struct {
	Timestamp  time.Time `json:"timestamp"`
	PowerWatts float64   `json:"power_watts"`
}

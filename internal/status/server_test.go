package status

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"pvsim/internal/obs"
)

func TestTrackerSnapshots(t *testing.T) {
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	tr := NewTracker("run-1", 720, start)

	s := tr.Snapshot()
	if s.State != "validating" || s.TicksTotal != 720 || s.TicksDone != 0 {
		t.Fatalf("unexpected initial snapshot: %+v", s)
	}

	tr.SetState("running")
	tr.Tick(812.5)
	tr.Tick(815.0)

	s = tr.Snapshot()
	if s.State != "running" || s.TicksDone != 2 || s.LastPowerWatts != 815.0 {
		t.Fatalf("unexpected snapshot after ticks: %+v", s)
	}
	if !s.StartedAt.Equal(start) {
		t.Fatalf("start time drifted: %s", s.StartedAt)
	}
}

func TestServerRoutes(t *testing.T) {
	tr := NewTracker("run-2", 24, time.Now().UTC())
	tr.SetState("running")
	tr.Tick(100)
	m := obs.NewMetrics()
	m.Confirmed.Inc()

	srv := NewServer(":0", tr, m.Gatherer(), zerolog.Nop())

	resp, err := srv.App().Test(httptest.NewRequest("GET", "/healthz", nil))
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("healthz status %d", resp.StatusCode)
	}

	resp, err = srv.App().Test(httptest.NewRequest("GET", "/status", nil))
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status status %d", resp.StatusCode)
	}
	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if snap.RunID != "run-2" || snap.TicksDone != 1 {
		t.Fatalf("unexpected status body: %+v", snap)
	}

	resp, err = srv.App().Test(httptest.NewRequest("GET", "/metrics", nil))
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("metrics status %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) == 0 {
		t.Fatalf("empty metrics exposition")
	}
}

package simulate

import (
	"math"
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 6, 21, hour, min, 0, 0, time.UTC)
}

func TestGeneratorZeroOutsideDaylight(t *testing.T) {
	g := NewGenerator(Params{Seed: 1})
	for _, ts := range []time.Time{at(0, 0), at(4, 59), at(5, 0), at(21, 0), at(23, 30)} {
		if got := g.At(ts); got != 0 {
			t.Fatalf("expected zero output at %s, got %f", ts, got)
		}
	}
}

func TestGeneratorWithinBounds(t *testing.T) {
	g := NewGenerator(Params{Seed: 42})
	for i := 0; i < 24*60; i++ {
		ts := at(0, 0).Add(time.Duration(i) * time.Minute)
		got := g.At(ts)
		if got < 0 || got > DefaultPeakWatts {
			t.Fatalf("output %f at %s outside [0, %f]", got, ts, DefaultPeakWatts)
		}
	}
}

func TestGeneratorDiurnalShape(t *testing.T) {
	g := NewGenerator(Params{Seed: 7})
	morning := g.At(at(8, 0))
	noon := g.At(at(13, 30))
	evening := g.At(at(19, 0))
	if morning <= 0 || noon <= 0 || evening <= 0 {
		t.Fatalf("expected positive daylight output, got %f %f %f", morning, noon, evening)
	}
	if noon <= morning || noon <= evening {
		t.Fatalf("expected peak near solar noon: morning=%f noon=%f evening=%f", morning, noon, evening)
	}
	// The peak should approach but not exceed the configured maximum.
	if noon < DefaultPeakWatts*0.8 {
		t.Fatalf("noon output %f well below expected peak region", noon)
	}
}

func TestGeneratorDeterministicForSeed(t *testing.T) {
	ticks := make([]time.Time, 50)
	for i := range ticks {
		ticks[i] = at(6, 0).Add(time.Duration(i) * 10 * time.Minute)
	}
	a := NewGenerator(Params{Seed: 99})
	b := NewGenerator(Params{Seed: 99})
	for _, ts := range ticks {
		if va, vb := a.At(ts), b.At(ts); va != vb {
			t.Fatalf("same seed diverged at %s: %f vs %f", ts, va, vb)
		}
	}
}

func TestGeneratorCustomWindow(t *testing.T) {
	g := NewGenerator(Params{PeakWatts: 1000, DawnHour: 8, DuskHour: 16, Seed: 3})
	if got := g.At(at(7, 0)); got != 0 {
		t.Fatalf("expected zero before custom dawn, got %f", got)
	}
	if got := g.At(at(12, 0)); got <= 0 || got > 1000 {
		t.Fatalf("midday output %f outside (0, 1000]", got)
	}
}

func TestKumaraswamyPDFUnimodal(t *testing.T) {
	prev := 0.0
	rising := true
	for x := 0.05; x < 1; x += 0.05 {
		v := kumaraswamyPDF(curveShapeA, curveShapeB, x)
		if v < 0 {
			t.Fatalf("negative density at %f", x)
		}
		if rising && v < prev {
			rising = false
		} else if !rising && v > prev+1e-9 {
			t.Fatalf("density rose again after the mode at x=%f", x)
		}
		prev = v
	}
}

func TestHourOfDay(t *testing.T) {
	ts := time.Date(2026, 1, 1, 20, 15, 36, 360_000_000, time.UTC)
	if got := hourOfDay(ts); math.Abs(got-20.2601) > 1e-6 {
		t.Fatalf("expected 20.2601, got %f", got)
	}
}

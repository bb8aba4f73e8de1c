package simulate

import (
	"math"
	"math/rand"
	"time"
)

// Default curve parameters, approximated from reference irradiance data for
// a mid-size rooftop installation.
const (
	DefaultPeakWatts = 3500.0
	DefaultDawnHour  = 5.0
	DefaultDuskHour  = 21.0

	// Kumaraswamy shape parameters for the diurnal curve.
	curveShapeA = 2.8
	curveShapeB = 3.3

	// Ratio of the curve scale to the configured peak. Keeps the jittered
	// curve maximum under the peak for the default shape parameters.
	curveScaleRatio = 1650.0 / 3500.0
)

// Params configures a Generator.
type Params struct {
	PeakWatts float64
	DawnHour  float64
	DuskHour  float64
	Seed      int64
}

func (p Params) withDefaults() Params {
	if p.PeakWatts <= 0 {
		p.PeakWatts = DefaultPeakWatts
	}
	if p.DawnHour <= 0 {
		p.DawnHour = DefaultDawnHour
	}
	if p.DuskHour <= 0 {
		p.DuskHour = DefaultDuskHour
	}
	if p.Seed == 0 {
		p.Seed = time.Now().UnixNano()
	}
	return p
}

// Generator produces plausible photovoltaic power output for a point in
// simulated time: zero outside the daylight window, a bell-like curve peaking
// near solar noon inside it, perturbed by small bounded noise. A Generator is
// deterministic for a fixed seed and call sequence. It performs no I/O and
// never fails.
type Generator struct {
	params Params
	scale  float64
	noise  *rand.Rand
}

func NewGenerator(p Params) *Generator {
	p = p.withDefaults()
	return &Generator{
		params: p,
		scale:  p.PeakWatts * curveScaleRatio,
		noise:  rand.New(rand.NewSource(p.Seed)),
	}
}

// At returns the simulated power output in watts for the given timestamp.
// The result is always within [0, PeakWatts].
func (g *Generator) At(t time.Time) float64 {
	h := hourOfDay(t.UTC())
	if h <= g.params.DawnHour || h >= g.params.DuskHour {
		return 0
	}
	x := (h - g.params.DawnHour) / (g.params.DuskHour - g.params.DawnHour)
	out := kumaraswamyPDF(curveShapeA, curveShapeB, x) * g.scale
	// Bounded weather jitter of plus/minus one percent.
	out *= 0.99 + 0.02*g.noise.Float64()
	return math.Min(math.Max(out, 0), g.params.PeakWatts)
}

// kumaraswamyPDF is the probability density function of the Kumaraswamy
// distribution, defined on (0, 1).
func kumaraswamyPDF(a, b, x float64) float64 {
	return a * b * math.Pow(x, a-1) * math.Pow(1-math.Pow(x, a), b-1)
}

func hourOfDay(t time.Time) float64 {
	return float64(t.Hour()) +
		float64(t.Minute())/60 +
		float64(t.Second())/3_600 +
		float64(t.Nanosecond())/3_600_000_000_000
}

package obs

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the run's prometheus instruments on a private registry so
// repeated runs in one process (and tests) never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	Published prometheus.Counter
	Confirmed prometheus.Counter
	Retries   prometheus.Counter
	Progress  prometheus.Gauge
	LastPower prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Published: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pvsim_readings_published_total",
			Help: "Readings handed to the broker publisher.",
		}),
		Confirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pvsim_readings_confirmed_total",
			Help: "Readings the broker confirmed as delivered.",
		}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pvsim_publish_retries_total",
			Help: "Publish attempts that were retried after a transient failure.",
		}),
		Progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pvsim_run_progress_ratio",
			Help: "Fraction of scheduled ticks completed for the current run.",
		}),
		LastPower: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pvsim_last_power_watts",
			Help: "Power value of the most recently confirmed reading.",
		}),
	}
	m.registry.MustRegister(m.Published, m.Confirmed, m.Retries, m.Progress, m.LastPower)
	return m
}

// Gatherer exposes the run's registry for the metrics endpoint.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pvsim/internal/broker"
	"pvsim/internal/obs"
	"pvsim/internal/record"
	"pvsim/internal/simulate"
	"pvsim/internal/status"
)

// Pacing selects how the scheduler advances between ticks.
type Pacing int

const (
	// PacingRealtime emits one tick per stride of wall-clock time, feeding
	// downstream consumers like a live telemetry source.
	PacingRealtime Pacing = iota
	// PacingInstant generates the whole series without delay, for dataset
	// backfills and tests.
	PacingInstant
)

// DialFunc builds the publisher for a broker URL. Tests substitute fakes.
type DialFunc func(url string, opts broker.Options) (broker.Publisher, error)

// Config describes one simulation run. StrideSeconds, DurationHours,
// BrokerURL and OutputPath are the caller-supplied run parameters; the rest
// are environment-tunable options.
type Config struct {
	StrideSeconds int
	DurationHours int
	BrokerURL     string
	OutputPath    string

	// Start is the timestamp of the first reading; zero means now (UTC).
	Start      time.Time
	Pacing     Pacing
	Sim        simulate.Params
	Broker     broker.Options
	StatusAddr string
	Logger     zerolog.Logger
	Dial       DialFunc
}

// Run executes one simulation run: validate, connect, generate-publish-collect
// once per tick, disconnect, then atomically write the collected sequence.
// On any failure no output file is created or modified and the broker
// connection, if open, is released. The returned error is always a *RunError.
func Run(ctx context.Context, cfg Config) error {
	runID := uuid.NewString()
	log := cfg.Logger.With().Str("run_id", runID).Logger()

	// Validating: reject bad dimensions before any I/O.
	start := cfg.Start
	if start.IsZero() {
		start = time.Now().UTC()
	}
	sched, err := simulate.NewSchedule(start, cfg.StrideSeconds, cfg.DurationHours)
	if err != nil {
		return failed(KindConfig, "validate run", err)
	}
	if cfg.BrokerURL == "" {
		return failed(KindConfig, "validate run", errors.New("broker url is empty"))
	}
	if cfg.OutputPath == "" {
		return failed(KindConfig, "validate run", errors.New("output path is empty"))
	}

	gen := simulate.NewGenerator(cfg.Sim)
	metrics := obs.NewMetrics()
	tracker := status.NewTracker(runID, sched.Count(), start)

	if cfg.StatusAddr != "" {
		srv := status.NewServer(cfg.StatusAddr, tracker, metrics.Gatherer(), log)
		srv.Start()
		defer func() {
			if err := srv.Shutdown(); err != nil {
				log.Warn().Err(err).Msg("status server shutdown")
			}
		}()
	}

	bopts := cfg.Broker
	bopts.RunID = runID
	bopts.Logger = log
	chain := bopts.Retry.OnRetry
	bopts.Retry.OnRetry = func(attempt int, err error) {
		metrics.Retries.Inc()
		log.Warn().Int("attempt", attempt).Err(err).Msg("publish retry")
		if chain != nil {
			chain(attempt, err)
		}
	}

	// Connecting: the connection handle is owned by this run alone.
	tracker.SetState("connecting")
	dial := cfg.Dial
	if dial == nil {
		dial = broker.New
	}
	pub, err := dial(cfg.BrokerURL, bopts)
	if err != nil {
		return failed(KindConnection, "connect broker", err)
	}
	if err := pub.Connect(ctx); err != nil {
		pub.Close()
		return failed(KindConnection, "connect broker", err)
	}

	connected := true
	disconnect := func() {
		if !connected {
			return
		}
		connected = false
		if err := pub.Close(); err != nil {
			log.Warn().Err(err).Msg("broker disconnect")
		}
	}
	// Disconnecting is guaranteed on every exit path past this point.
	defer disconnect()

	// Running: one reading per tick, collected only after the broker
	// confirmed delivery.
	tracker.SetState("running")
	log.Info().
		Int("sample_count", sched.Count()).
		Dur("stride", sched.Stride()).
		Msg("run started")

	collector := record.NewCollector(sched.Count())
	var ticker *time.Ticker
	if cfg.Pacing == PacingRealtime {
		ticker = time.NewTicker(sched.Stride())
		defer ticker.Stop()
	}
	for i := 0; ; i++ {
		ts, ok := sched.Next()
		if !ok {
			break
		}
		if ticker != nil && i > 0 {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return failed(KindPublish, "run interrupted", ctx.Err())
			}
		}
		r := record.Reading{Timestamp: ts, PowerWatts: gen.At(ts)}
		metrics.Published.Inc()
		if err := pub.Publish(ctx, r); err != nil {
			return failed(KindPublish, "publish reading", err)
		}
		metrics.Confirmed.Inc()
		metrics.LastPower.Set(r.PowerWatts)
		metrics.Progress.Set(float64(i+1) / float64(sched.Count()))
		collector.Append(r)
		tracker.Tick(r.PowerWatts)
	}

	// The end-of-run marker lets downstream consumers stop waiting. It is
	// not a reading, so failing to deliver it does not fail the run.
	if err := pub.PublishEnd(ctx); err != nil {
		log.Warn().Err(err).Msg("end-of-run marker not delivered")
	}

	tracker.SetState("disconnecting")
	disconnect()

	tracker.SetState("writing")
	readings := collector.Seal()
	if err := record.Write(cfg.OutputPath, readings); err != nil {
		return failed(KindIO, "write output", err)
	}

	tracker.SetState("done")
	log.Info().Int("readings", len(readings)).Str("path", cfg.OutputPath).Msg("run complete")
	return nil
}

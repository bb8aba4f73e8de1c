package config

import (
	"time"

	"github.com/spf13/viper"

	"pvsim/internal/broker"
	"pvsim/internal/engine"
	"pvsim/internal/simulate"
)

// Load registers defaults for every tunable and binds the environment.
// The four run parameters (stride, duration, broker URL, output path) come
// from the caller; everything else is configured here.
func Load() error {
	// Simulation model
	viper.SetDefault("PV_PEAK_WATTS", simulate.DefaultPeakWatts)
	viper.SetDefault("PV_DAWN_HOUR", simulate.DefaultDawnHour)
	viper.SetDefault("PV_DUSK_HOUR", simulate.DefaultDuskHour)
	viper.SetDefault("PV_SEED", 0)

	// Scheduling: "realtime" paces one tick per stride of wall-clock time,
	// "instant" generates the whole series without delay.
	viper.SetDefault("PV_PACING", "realtime")

	// Broker destinations and delivery policy
	viper.SetDefault("PV_EXCHANGE", broker.DefaultExchange)
	viper.SetDefault("PV_ROUTING_KEY", broker.DefaultRoutingKey)
	viper.SetDefault("PV_TOPIC", broker.DefaultTopic)
	viper.SetDefault("PV_PUBLISH_MAX_ATTEMPTS", 5)
	viper.SetDefault("PV_PUBLISH_BASE_DELAY", "200ms")
	viper.SetDefault("PV_PUBLISH_MAX_DELAY", "5s")
	viper.SetDefault("PV_CONFIRM_TIMEOUT", "5s")

	// Status/metrics server; empty disables it.
	viper.SetDefault("PV_STATUS_ADDR", "")

	viper.AutomaticEnv()
	return nil
}

func PeakWatts() float64              { return viper.GetFloat64("PV_PEAK_WATTS") }
func DawnHour() float64               { return viper.GetFloat64("PV_DAWN_HOUR") }
func DuskHour() float64               { return viper.GetFloat64("PV_DUSK_HOUR") }
func Seed() int64                     { return viper.GetInt64("PV_SEED") }
func Exchange() string                { return viper.GetString("PV_EXCHANGE") }
func RoutingKey() string              { return viper.GetString("PV_ROUTING_KEY") }
func Topic() string                   { return viper.GetString("PV_TOPIC") }
func PublishMaxAttempts() int         { return viper.GetInt("PV_PUBLISH_MAX_ATTEMPTS") }
func PublishBaseDelay() time.Duration { return viper.GetDuration("PV_PUBLISH_BASE_DELAY") }
func PublishMaxDelay() time.Duration  { return viper.GetDuration("PV_PUBLISH_MAX_DELAY") }
func ConfirmTimeout() time.Duration   { return viper.GetDuration("PV_CONFIRM_TIMEOUT") }
func StatusAddr() string              { return viper.GetString("PV_STATUS_ADDR") }

func Pacing() engine.Pacing {
	if viper.GetString("PV_PACING") == "instant" {
		return engine.PacingInstant
	}
	return engine.PacingRealtime
}

// EngineConfig assembles the configuration for one run from the four run
// parameters plus the environment-tunable options.
func EngineConfig(strideSeconds, durationHours int, brokerURL, outputPath string) engine.Config {
	return engine.Config{
		StrideSeconds: strideSeconds,
		DurationHours: durationHours,
		BrokerURL:     brokerURL,
		OutputPath:    outputPath,
		Pacing:        Pacing(),
		Sim: simulate.Params{
			PeakWatts: PeakWatts(),
			DawnHour:  DawnHour(),
			DuskHour:  DuskHour(),
			Seed:      Seed(),
		},
		Broker: broker.Options{
			Exchange:       Exchange(),
			RoutingKey:     RoutingKey(),
			Topic:          Topic(),
			ConfirmTimeout: ConfirmTimeout(),
			Retry: broker.RetryPolicy{
				MaxAttempts: PublishMaxAttempts(),
				BaseDelay:   PublishBaseDelay(),
				MaxDelay:    PublishMaxDelay(),
			},
		},
		StatusAddr: StatusAddr(),
	}
}

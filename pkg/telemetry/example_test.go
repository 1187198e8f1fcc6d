package telemetry_test

import (
	"context"

	"github.com/packsync/packsync/pkg/telemetry"
)

// Example_basicSetup demonstrates wiring the logger, metrics and tracer
// from a single configuration.
func Example_basicSetup() {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceName = "packsync"

	logger, err := telemetry.NewLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}

	metrics, err := telemetry.NewMetrics(cfg.Metrics)
	if err != nil {
		panic(err)
	}
	if err := metrics.StartMetricsServer(); err != nil {
		panic(err)
	}

	tracer, err := telemetry.NewTracer(cfg.Tracing, cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer tracer.Shutdown(context.Background())

	logger.Info().Msg("Telemetry ready")

	// Output varies, so we don't specify output for this example.
}

// Example_cycleLogging demonstrates the child-logger helpers used through
// a build cycle.
func Example_cycleLogging() {
	cfg := telemetry.DefaultConfig()
	cfg.Logging.Output = "stdout"

	logger, _ := telemetry.NewLogger(cfg.Logging)

	// Component logger for a subsystem.
	engineLog := telemetry.ComponentLogger(logger, "engine")

	// Narrow further to one project's cycle.
	cycleLog := telemetry.CycleLogger(telemetry.ProjectLogger(engineLog, "mylevel"), "cycle-123", 7)

	cycleLog.Info().Msg("Cycle started")
	cycleLog.Info().Int("copied", 4).Int("deleted", 1).Msg("Cycle finished")
}

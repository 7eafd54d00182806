package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"codeberg.org/mutker/rangefinder/internal/battery"
	"codeberg.org/mutker/rangefinder/internal/config"
	"codeberg.org/mutker/rangefinder/internal/errors"
	"codeberg.org/mutker/rangefinder/internal/gatt"
	"codeberg.org/mutker/rangefinder/internal/link"
	"codeberg.org/mutker/rangefinder/internal/logger"
	"codeberg.org/mutker/rangefinder/internal/metrics"
	"codeberg.org/mutker/rangefinder/internal/pid"
	"codeberg.org/mutker/rangefinder/internal/sensor"
	"codeberg.org/mutker/rangefinder/internal/telemetry"
)

const eventQueueSize = 16

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	pidFile := pid.New("rangefinder")
	if err := pidFile.Write(); err != nil {
		logError(err, "Failed to write PID file")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go handleSignals(cancel)

	err := run(ctx)
	cancel()

	if rmErr := pidFile.Remove(); rmErr != nil {
		logError(rmErr, "Failed to remove PID file")
	}
	if err != nil {
		logError(err, "Startup failed")
		os.Exit(1)
	}

	logger.Info().Msg("Exiting...")
}

func run(ctx context.Context) error {
	errFactory := errors.New()
	log := logger.New()

	sensors := cfg.Sensors()
	distance, err := sensor.NewDistance(sensors)
	if err != nil {
		return errFactory.Wrap(errors.ErrInitSensor, err)
	}

	voltage, err := sensor.NewBattery(sensors)
	if err != nil {
		logger.Warn().Err(err).Msg("Battery source unavailable, battery level will not be reported")
	}

	collector, err := metrics.NewService(cfg.MetricsConfig(), log.With("metrics"))
	if err != nil {
		return errFactory.Wrap(errors.ErrInitMetrics, err)
	}
	defer func() {
		if err := collector.Close(); err != nil {
			logError(err, "Failed to close metrics")
		}
	}()

	store, err := telemetry.NewConfigStore(cfg.Telemetry())
	if err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}
	reading := &telemetry.Reading{}
	gate := link.NewGate()
	events := make(chan link.Event, eventQueueSize)

	server := gatt.NewServer(cfg.GATT(), store, reading, events, log.With("gatt"))
	if err := server.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := server.Stop(); err != nil {
			logError(err, "Failed to stop BLE device")
		}
	}()

	if err := server.StartDiscoverable(ctx); err != nil {
		return errFactory.Wrap(errors.ErrInitBLE, err)
	}

	supervisor := link.NewSupervisor(gate, server, log.With("link"))
	rangeSampler := telemetry.NewRangeSampler(
		store, reading, distance, gate, server, log.With("range"),
		telemetry.WithCollector(collector),
		telemetry.WithNotifyTimeout(cfg.NotifyTimeout()),
	)

	var wg sync.WaitGroup
	start := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				logError(err, name+" stopped")
			}
		}()
	}

	start("Link supervisor", func(ctx context.Context) error { return supervisor.Run(ctx, events) })
	start("Range sampler", rangeSampler.Run)
	if voltage != nil {
		batterySampler := battery.NewSampler(voltage, server, cfg.BatteryIntervalDuration(), collector, log.With("battery"))
		start("Battery sampler", batterySampler.Run)
	}

	logger.Info().
		Str("name", cfg.DeviceName).
		Int("sample_interval_ms", cfg.SampleIntervalMS).
		Bool("metrics", cfg.Metrics).
		Msg("Rangefinder running")

	<-ctx.Done()
	wg.Wait()

	return nil
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func logError(err error, msg string) {
	var appErr errors.Error
	if errors.As(err, &appErr) {
		logger.ErrorWithCode(appErr).Msg(msg)
		return
	}
	logger.Error().Err(err).Msg(msg)
}

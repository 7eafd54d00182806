package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/rangefinder/internal/config"
	"codeberg.org/mutker/rangefinder/internal/errors"
	"codeberg.org/mutker/rangefinder/internal/logger"
	"codeberg.org/mutker/rangefinder/internal/pid"
	"codeberg.org/mutker/rangefinder/internal/watch"
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
)

func main() {
	cfg, err := config.LoadWatch()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, logger.IsService())

	pidFile := pid.New("rangewatch")
	if err := pidFile.Write(); err != nil {
		fatal(err, "Failed to write PID file")
	}

	dev, err := linux.NewDevice(ble.OptDeviceID(cfg.HCIDevice))
	if err != nil {
		_ = pidFile.Remove()
		fatal(errors.New().Wrap(errors.ErrInitBLE, err), "Failed to open HCI device")
	}
	ble.SetDefaultDevice(dev)

	ctx, cancel := context.WithCancel(context.Background())
	go handleSignals(cancel)

	wcfg := watch.Config{
		DeviceName:     cfg.DeviceName,
		ScanTimeout:    cfg.ScanTimeoutDuration(),
		ReconnectDelay: cfg.ReconnectDelayDuration(),
		Mapping:        cfg.MappingConfig(),
	}
	if cfg.PushConfig {
		t := cfg.Telemetry()
		wcfg.Push = &t
	}

	client := watch.NewClient(wcfg, func(r watch.Reading) {
		logger.Info().
			Uint16("distance_mm", r.DistanceMM).
			Float64("intensity", r.Intensity).
			Msg("Range")
	}, logger.New().With("watch"))

	if err := client.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Watch client stopped")
	}
	cancel()

	if err := dev.Stop(); err != nil {
		logger.Error().Err(err).Msg("Failed to stop HCI device")
	}
	if err := pidFile.Remove(); err != nil {
		logger.Error().Err(err).Msg("Failed to remove PID file")
	}
	logger.Info().Msg("Exiting...")
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func fatal(err error, msg string) {
	var appErr errors.Error
	if errors.As(err, &appErr) {
		logger.FatalWithCode(appErr).Msg(msg)
	}
	logger.Fatal().Err(err).Msg(msg)
}

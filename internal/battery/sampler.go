package battery

import (
	"context"
	"time"

	"codeberg.org/mutker/rangefinder/internal/errors"
	"codeberg.org/mutker/rangefinder/internal/logger"
	"codeberg.org/mutker/rangefinder/internal/metrics"
)

const DefaultInterval = 60 * time.Second

// Sampler periodically converts the battery voltage into a percentage and
// forwards it to the level indicator
type Sampler struct {
	reader    VoltageReader
	indicator LevelIndicator
	interval  time.Duration
	collector metrics.Collector
	logger    logger.Logger
}

// NewSampler returns a battery sampler ticking every interval. A
// non-positive interval selects DefaultInterval.
func NewSampler(
	reader VoltageReader, indicator LevelIndicator, interval time.Duration,
	collector metrics.Collector, log logger.Logger,
) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if collector == nil {
		collector = metrics.Noop()
	}

	return &Sampler{
		reader:    reader,
		indicator: indicator,
		interval:  interval,
		collector: collector,
		logger:    log,
	}
}

// Run samples immediately and then on every interval until ctx is done
func (s *Sampler) Run(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("Battery sampler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Battery sampler stopped")
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick performs a single battery reading. It returns the published
// percentage, or an error if the tick was skipped.
func (s *Sampler) Tick(ctx context.Context) (uint8, error) {
	errFactory := errors.New()

	mv, err := s.reader.ReadBatteryVoltage(ctx)
	if err != nil {
		err = errFactory.Wrap(ErrVoltageRead, err)
		s.logger.Warn().Err(err).Msg("Battery sample skipped")
		return 0, err
	}
	if mv <= 0 {
		s.logger.Debug().Int32("voltage_mv", mv).Msg("No battery attached")
		return 0, errFactory.WithData(ErrNoBattery, mv)
	}

	pct := VoltageToPercent(mv)
	if err := s.indicator.SetBatteryLevel(pct); err != nil {
		err = errFactory.Wrap(ErrIndicatorWrite, err)
		s.logger.Warn().Err(err).Uint8("battery_pct", pct).Msg("Failed to publish battery level")
		return pct, err
	}

	s.logger.Debug().
		Int32("voltage_mv", mv).
		Uint8("battery_pct", pct).
		Msg("Battery sample")

	if err := s.collector.Record(ctx, &metrics.Snapshot{
		Timestamp: time.Now(),
		Source:    metrics.SourceBattery,
		Raw:       int64(mv),
		Value:     int64(pct),
	}); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to record battery sample")
	}

	return pct, nil
}

package telemetry

import (
	"context"
	"time"

	"codeberg.org/mutker/rangefinder/internal/errors"
	"codeberg.org/mutker/rangefinder/internal/logger"
	"codeberg.org/mutker/rangefinder/internal/metrics"
)

// DefaultNotifyTimeout bounds a single notification push
const DefaultNotifyTimeout = 50 * time.Millisecond

// RangeSampler periodically reads the ranging sensor, clamps the reading
// against the active config and pushes it to the subscriber when the gate
// is open.
type RangeSampler struct {
	cfg           *ConfigStore
	reading       *Reading
	sensor        DistanceSensor
	gate          Gate
	notifier      Notifier
	collector     metrics.Collector
	notifyTimeout time.Duration
	logger        logger.Logger
}

// SamplerOption customizes a RangeSampler
type SamplerOption func(*RangeSampler)

// WithCollector records every accepted sample
func WithCollector(c metrics.Collector) SamplerOption {
	return func(s *RangeSampler) {
		s.collector = c
	}
}

// WithNotifyTimeout bounds each notification push
func WithNotifyTimeout(d time.Duration) SamplerOption {
	return func(s *RangeSampler) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

// NewRangeSampler wires a sampler to its collaborators
func NewRangeSampler(
	cfg *ConfigStore, reading *Reading, sensor DistanceSensor, gate Gate, notifier Notifier,
	log logger.Logger, opts ...SamplerOption,
) *RangeSampler {
	s := &RangeSampler{
		cfg:           cfg,
		reading:       reading,
		sensor:        sensor,
		gate:          gate,
		notifier:      notifier,
		collector:     metrics.Noop(),
		notifyTimeout: DefaultNotifyTimeout,
		logger:        log,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run samples until ctx is done. The period is re-read from the config
// store after every tick.
func (s *RangeSampler) Run(ctx context.Context) error {
	s.logger.Info().Msg("Range sampler started")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Range sampler stopped")
			return nil
		case <-timer.C:
			s.Tick(ctx)
			timer.Reset(s.cfg.Get().SampleInterval())
		}
	}
}

// Tick performs a single sampling iteration. Sensor and push failures are
// logged and never returned.
func (s *RangeSampler) Tick(ctx context.Context) {
	errFactory := errors.New()

	raw, err := s.sensor.ReadDistance(ctx)
	if err != nil {
		s.logger.Warn().Err(errFactory.Wrap(ErrSensorRead, err)).Msg("Range sample skipped")
		return
	}

	cfg := s.cfg.Get()
	clamped := cfg.Clamp(raw)
	s.reading.Store(clamped)

	notified := false
	if s.gate.IsOpen() {
		notified = s.push(ctx, clamped)
	}

	s.logger.Debug().
		Int("raw_mm", raw).
		Uint16("distance_mm", clamped).
		Bool("notified", notified).
		Msg("Range sample")

	if err := s.collector.Record(ctx, &metrics.Snapshot{
		Timestamp: time.Now(),
		Source:    metrics.SourceRange,
		Raw:       int64(raw),
		Value:     int64(clamped),
		Notified:  notified,
	}); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to record range sample")
	}
}

func (s *RangeSampler) push(ctx context.Context, mm uint16) bool {
	pushCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	if err := s.notifier.Notify(pushCtx, EncodeDistance(mm)); err != nil {
		s.logger.Warn().
			Err(errors.New().Wrap(ErrNotifyFailed, err)).
			Uint16("distance_mm", mm).
			Msg("Range notification failed")
		return false
	}

	return true
}

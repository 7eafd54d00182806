package battery_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/rangefinder/internal/battery"
	"codeberg.org/mutker/rangefinder/internal/errors"
	"codeberg.org/mutker/rangefinder/internal/logger"
	"codeberg.org/mutker/rangefinder/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mv  int32
	err error
}

func (f *fakeReader) ReadBatteryVoltage(context.Context) (int32, error) {
	return f.mv, f.err
}

type fakeIndicator struct {
	mu     sync.Mutex
	levels []uint8
	err    error
}

func (f *fakeIndicator) SetBatteryLevel(pct uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.levels = append(f.levels, pct)
	return nil
}

func (f *fakeIndicator) published() []uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint8(nil), f.levels...)
}

type countingCollector struct {
	mu    sync.Mutex
	count int
	last  metrics.Snapshot
}

func (c *countingCollector) Record(_ context.Context, s *metrics.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	c.last = *s
	return nil
}

func (c *countingCollector) Close() error { return nil }

func TestTickPublishesPercent(t *testing.T) {
	reader := &fakeReader{mv: 3700}
	indicator := &fakeIndicator{}
	collector := &countingCollector{}
	s := battery.NewSampler(reader, indicator, time.Minute, collector, logger.Nop())

	pct, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(35), pct)
	assert.Equal(t, []uint8{35}, indicator.published())
	assert.Equal(t, 1, collector.count)
	assert.Equal(t, metrics.SourceBattery, collector.last.Source)
	assert.Equal(t, int64(3700), collector.last.Raw)
	assert.Equal(t, int64(35), collector.last.Value)
}

func TestTickSkipsFailedRead(t *testing.T) {
	indicator := &fakeIndicator{}
	s := battery.NewSampler(&fakeReader{err: errors.New().New(errors.ErrUnavailable)}, indicator, 0, nil, logger.Nop())

	_, err := s.Tick(context.Background())
	assert.True(t, errors.HasCode(err, battery.ErrVoltageRead))
	assert.Empty(t, indicator.published())
}

func TestTickSkipsNonPositiveVoltage(t *testing.T) {
	for _, mv := range []int32{0, -5} {
		indicator := &fakeIndicator{}
		s := battery.NewSampler(&fakeReader{mv: mv}, indicator, 0, nil, logger.Nop())

		_, err := s.Tick(context.Background())
		assert.True(t, errors.HasCode(err, battery.ErrNoBattery))
		assert.Empty(t, indicator.published())
	}
}

func TestTickIndicatorFailure(t *testing.T) {
	indicator := &fakeIndicator{err: errors.New().New(errors.ErrOperationFailed)}
	collector := &countingCollector{}
	s := battery.NewSampler(&fakeReader{mv: 4200}, indicator, 0, collector, logger.Nop())

	pct, err := s.Tick(context.Background())
	assert.True(t, errors.HasCode(err, battery.ErrIndicatorWrite))
	assert.Equal(t, uint8(100), pct)
	assert.Zero(t, collector.count)
}

func TestRunSamplesImmediately(t *testing.T) {
	indicator := &fakeIndicator{}
	s := battery.NewSampler(&fakeReader{mv: 4100}, indicator, time.Hour, nil, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return len(indicator.published()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []uint8{90}, indicator.published())

	cancel()
	require.NoError(t, <-done)
}

func TestRunTicksOnInterval(t *testing.T) {
	indicator := &fakeIndicator{}
	s := battery.NewSampler(&fakeReader{mv: 3800}, indicator, 10*time.Millisecond, nil, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	require.Eventually(t, func() bool { return len(indicator.published()) >= 3 }, 2*time.Second, 5*time.Millisecond)
}

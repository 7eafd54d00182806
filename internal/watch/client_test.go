package watch

import (
	"context"
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/rangefinder/internal/errors"
	"codeberg.org/mutker/rangefinder/internal/gatt"
	"codeberg.org/mutker/rangefinder/internal/logger"
	"codeberg.org/mutker/rangefinder/internal/telemetry"
	"github.com/go-ble/ble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	profile   *ble.Profile
	mu        sync.Mutex
	handler   ble.NotificationHandler
	written   []byte
	cancelled bool
	gone      chan struct{}
}

func newFakeSession(withConfig bool) *fakeSession {
	svc := ble.NewService(gatt.RangeServiceUUID)
	svc.AddCharacteristic(ble.NewCharacteristic(gatt.RangeCharUUID))
	if withConfig {
		svc.AddCharacteristic(ble.NewCharacteristic(gatt.ConfigCharUUID))
	}

	return &fakeSession{
		profile: &ble.Profile{Services: []*ble.Service{svc}},
		gone:    make(chan struct{}),
	}
}

func (f *fakeSession) DiscoverProfile(bool) (*ble.Profile, error) { return f.profile, nil }

func (f *fakeSession) Subscribe(_ *ble.Characteristic, _ bool, h ble.NotificationHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = h
	return nil
}

func (f *fakeSession) ReadCharacteristic(*ble.Characteristic) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written, nil
}

func (f *fakeSession) WriteCharacteristic(_ *ble.Characteristic, v []byte, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append([]byte(nil), v...)
	return nil
}

func (f *fakeSession) CancelConnection() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = true
	return nil
}

func (f *fakeSession) Disconnected() <-chan struct{} { return f.gone }

func (f *fakeSession) notify(b []byte) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	h(b)
}

func (f *fakeSession) subscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler != nil
}

type readings struct {
	mu          sync.Mutex
	got         []uint16
	intensities []float64
}

func (r *readings) add(rd Reading) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, rd.DistanceMM)
	r.intensities = append(r.intensities, rd.Intensity)
}

func (r *readings) intensityList() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.intensities...)
}

func (r *readings) list() []uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint16(nil), r.got...)
}

func testClient(cfg Config, r *readings, connect connectFunc) *Client {
	c := NewClient(cfg, r.add, logger.Nop())
	c.connect = connect
	return c
}

func TestServeDecodesNotifications(t *testing.T) {
	s := newFakeSession(false)
	r := &readings{}
	c := testClient(Config{DeviceName: "Rangefinder"}, r, nil)

	done := make(chan error, 1)
	go func() { done <- c.serve(context.Background(), s) }()
	require.Eventually(t, s.subscribed, time.Second, time.Millisecond)

	s.notify([]byte{0xb0, 0x04})
	s.notify([]byte{0x01})
	s.notify([]byte{0x1e, 0x00})
	assert.Equal(t, []uint16{1200, 30}, r.list())

	close(s.gone)
	err := <-done
	assert.True(t, errors.HasCode(err, ErrDisconnected))
}

func TestServeMapsNotifications(t *testing.T) {
	s := newFakeSession(false)
	r := &readings{}
	mapping := DefaultMappingConfig()
	mapping.Smoothing = 0
	c := testClient(Config{DeviceName: "Rangefinder", Mapping: mapping}, r, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.serve(ctx, s) }()
	require.Eventually(t, s.subscribed, time.Second, time.Millisecond)

	s.notify([]byte{0x1e, 0x00}) // 30
	s.notify([]byte{0xa5, 0x00}) // 165
	s.notify([]byte{0x58, 0x02}) // 600, deadzone

	got := r.intensityList()
	require.Len(t, got, 3)
	assert.InDelta(t, 1.0, got[0], 0.01)
	assert.InDelta(t, 0.5, got[1], 0.01)
	assert.InDelta(t, 0.0, got[2], 0.01)

	cancel()
	assert.NoError(t, <-done)
}

func TestServePushesConfig(t *testing.T) {
	s := newFakeSession(true)
	push := telemetry.Config{SampleIntervalMS: 50, NotifyIntervalMS: 50, MinRangeMM: 40, MaxRangeMM: 300}
	c := testClient(Config{Push: &push}, &readings{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.serve(ctx, s) }()
	require.Eventually(t, s.subscribed, time.Second, time.Millisecond)

	want, err := push.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, want, s.written)

	cancel()
	assert.NoError(t, <-done)
	assert.True(t, s.cancelled)
}

func TestServeMissingConfigCharacteristic(t *testing.T) {
	s := newFakeSession(false)
	push := telemetry.DefaultConfig(100, 100)
	c := testClient(Config{Push: &push}, &readings{}, nil)

	err := c.serve(context.Background(), s)
	assert.True(t, errors.HasCode(err, ErrMissingCharacteristic))
	assert.True(t, s.cancelled)
}

func TestServeMissingRangeCharacteristic(t *testing.T) {
	s := newFakeSession(false)
	s.profile = &ble.Profile{}
	c := testClient(Config{}, &readings{}, nil)

	err := c.serve(context.Background(), s)
	assert.True(t, errors.HasCode(err, ErrMissingCharacteristic))
}

func TestRunReconnects(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	sessions := make(chan *fakeSession, 4)

	connect := func(context.Context, ble.AdvFilter) (session, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return nil, errors.New().New(errors.ErrTimeout)
		}
		s := newFakeSession(false)
		sessions <- s
		return s, nil
	}

	c := testClient(Config{
		DeviceName:     "Rangefinder",
		ScanTimeout:    time.Second,
		ReconnectDelay: 5 * time.Millisecond,
	}, &readings{}, connect)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	first := <-sessions
	require.Eventually(t, first.subscribed, time.Second, time.Millisecond)
	close(first.gone)

	second := <-sessions
	require.Eventually(t, second.subscribed, time.Second, time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
	mu.Lock()
	assert.Equal(t, 3, attempts)
	mu.Unlock()
}

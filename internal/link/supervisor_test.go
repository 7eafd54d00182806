package link

import (
	"context"
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/rangefinder/internal/errors"
	"codeberg.org/mutker/rangefinder/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeTransport) StartDiscoverable(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestSupervisor() (*Supervisor, *Gate, *fakeTransport) {
	gate := NewGate()
	transport := &fakeTransport{}
	return NewSupervisor(gate, transport, logger.Nop()), gate, transport
}

func TestInitialState(t *testing.T) {
	s, gate, _ := newTestSupervisor()

	assert.Equal(t, StateDisconnected, s.State())
	assert.False(t, gate.IsOpen())
	_, ok := s.Peer()
	assert.False(t, ok)
}

func TestConnectRetainsPeer(t *testing.T) {
	s, _, transport := newTestSupervisor()
	peer := Peer{Handle: 0x40, Address: "aa:bb:cc:dd:ee:ff"}

	require.NoError(t, s.Handle(context.Background(), Connected(peer)))

	assert.Equal(t, StateConnected, s.State())
	got, ok := s.Peer()
	assert.True(t, ok)
	assert.Equal(t, peer, got)
	assert.Zero(t, transport.callCount())
}

func TestSubscriptionDrivesGate(t *testing.T) {
	s, gate, _ := newTestSupervisor()
	ctx := context.Background()

	require.NoError(t, s.Handle(ctx, Connected(Peer{Handle: 1})))
	require.NoError(t, s.Handle(ctx, SubscriptionChanged(true)))
	assert.True(t, gate.IsOpen())

	require.NoError(t, s.Handle(ctx, SubscriptionChanged(false)))
	assert.False(t, gate.IsOpen())
}

func TestDisconnectWhileSubscribed(t *testing.T) {
	s, gate, transport := newTestSupervisor()
	ctx := context.Background()

	require.NoError(t, s.Handle(ctx, Connected(Peer{Handle: 1, Address: "11:22:33:44:55:66"})))
	require.NoError(t, s.Handle(ctx, SubscriptionChanged(true)))
	require.True(t, gate.IsOpen())

	require.NoError(t, s.Handle(ctx, Disconnected(0x13)))

	assert.False(t, gate.IsOpen())
	assert.Equal(t, StateDisconnected, s.State())
	_, ok := s.Peer()
	assert.False(t, ok)
	assert.Equal(t, 1, transport.callCount())
}

func TestDisconnectResumeFailure(t *testing.T) {
	s, gate, transport := newTestSupervisor()
	transport.err = errors.New().New(errors.ErrUnavailable)
	ctx := context.Background()

	require.NoError(t, s.Handle(ctx, Connected(Peer{Handle: 1})))
	require.NoError(t, s.Handle(ctx, SubscriptionChanged(true)))

	err := s.Handle(ctx, Disconnected(0x08))
	assert.True(t, errors.HasCode(err, ErrResumeDiscoverable))
	assert.Equal(t, StateDisconnected, s.State())
	assert.False(t, gate.IsOpen())
	assert.Equal(t, 1, transport.callCount(), "no retry")
}

func TestUnknownEvent(t *testing.T) {
	s, _, _ := newTestSupervisor()

	err := s.Handle(context.Background(), Event{Kind: EventKind(42)})
	assert.True(t, errors.HasCode(err, ErrUnknownEvent))
}

func TestRunConsumesEventsInOrder(t *testing.T) {
	gate := NewGate()
	transport := &fakeTransport{err: errors.New().New(errors.ErrUnavailable)}
	s := NewSupervisor(gate, transport, logger.Nop())

	events := make(chan Event, 8)
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), events) }()

	events <- Connected(Peer{Handle: 7})
	events <- SubscriptionChanged(true)
	events <- Disconnected(0x13)
	events <- Connected(Peer{Handle: 8})
	events <- SubscriptionChanged(true)
	close(events)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("supervisor did not stop")
	}

	assert.Equal(t, 1, transport.callCount())
	assert.True(t, gate.IsOpen())
	peer, ok := s.Peer()
	assert.True(t, ok)
	assert.Equal(t, uint16(8), peer.Handle)
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _, _ := newTestSupervisor()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, make(chan Event)) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("supervisor did not stop")
	}
}

func TestGateConcurrentReads(t *testing.T) {
	gate := NewGate()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			gate.set(i%2 == 0)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = gate.IsOpen()
		}
	}()
	wg.Wait()
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connected", StateConnected.String())

	s, _, _ := newTestSupervisor()
	require.NoError(t, s.Handle(context.Background(), Connected(Peer{Handle: 2})))
	assert.Equal(t, "connected", s.State().String())
	require.NoError(t, s.Handle(context.Background(), Disconnected(0x13)))
	assert.Equal(t, "disconnected", s.State().String())
}

package gatt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/rangefinder/internal/errors"
	"codeberg.org/mutker/rangefinder/internal/link"
	"codeberg.org/mutker/rangefinder/internal/logger"
	"codeberg.org/mutker/rangefinder/internal/telemetry"
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/go-ble/ble/linux/hci/evt"
)

const batteryNotifyTimeout = time.Second

// Server is the BLE peripheral exposing the range, battery and device
// information services. Connection and subscription signals are forwarded
// to the events channel in arrival order.
type Server struct {
	cfg     Config
	store   *telemetry.ConfigStore
	reading *telemetry.Reading
	events  chan<- link.Event
	logger  logger.Logger

	battery    atomic.Uint32
	rangeSub   subscription
	batterySub subscription

	mu        sync.Mutex
	dev       device
	root      context.Context
	advCancel context.CancelFunc

	done     chan struct{}
	stopOnce sync.Once
}

func NewServer(
	cfg Config, store *telemetry.ConfigStore, reading *telemetry.Reading,
	events chan<- link.Event, log logger.Logger,
) *Server {
	if cfg.AdvertiseSettle <= 0 {
		cfg.AdvertiseSettle = DefaultAdvertiseSettle
	}

	return &Server{
		cfg:     cfg,
		store:   store,
		reading: reading,
		events:  events,
		logger:  log,
		done:    make(chan struct{}),
	}
}

// Start opens the HCI device and registers all services. Advertising is
// started separately with StartDiscoverable.
func (s *Server) Start(ctx context.Context) error {
	dev, err := linux.NewDevice(
		ble.OptDeviceID(s.cfg.HCIDevice),
		ble.OptConnectHandler(s.onConnect),
		ble.OptDisconnectHandler(s.onDisconnect),
	)
	if err != nil {
		return errors.New().Wrap(errors.ErrInitBLE, err)
	}

	return s.attach(ctx, dev)
}

func (s *Server) attach(ctx context.Context, dev device) error {
	for _, svc := range s.Services() {
		if err := dev.AddService(svc); err != nil {
			return errors.New().Wrap(ErrAddService, err).WithData(svc.UUID.String())
		}
	}

	s.mu.Lock()
	s.dev = dev
	s.root = ctx
	s.mu.Unlock()

	s.logger.Info().
		Int("hci_device", s.cfg.HCIDevice).
		Str("name", s.cfg.DeviceName).
		Msg("BLE peripheral ready")

	return nil
}

// StartDiscoverable (re)starts advertising the device name and the range
// service. It fails if the controller rejects advertising within the
// settle window.
func (s *Server) StartDiscoverable(ctx context.Context) error {
	s.mu.Lock()
	if s.dev == nil {
		s.mu.Unlock()
		return errors.New().New(ErrNotStarted)
	}
	if s.advCancel != nil {
		s.advCancel()
	}
	advCtx, cancel := context.WithCancel(s.root)
	s.advCancel = cancel
	dev := s.dev
	s.mu.Unlock()

	errc := make(chan error, 1)
	go func() {
		errc <- dev.AdvertiseNameAndServices(advCtx, s.cfg.DeviceName, RangeServiceUUID)
	}()

	timer := time.NewTimer(s.cfg.AdvertiseSettle)
	defer timer.Stop()

	select {
	case err := <-errc:
		if advCtx.Err() != nil {
			return nil
		}
		if err == nil {
			return errors.New().WithMessage(ErrAdvertise, "advertising ended early")
		}
		return errors.New().Wrap(ErrAdvertise, err)
	case <-ctx.Done():
		return errors.New().Wrap(ErrAdvertise, ctx.Err())
	case <-timer.C:
	}

	go func() {
		if err := <-errc; err != nil && advCtx.Err() == nil {
			s.logger.Warn().Err(err).Msg("Advertising stopped")
		}
	}()

	s.logger.Info().Str("name", s.cfg.DeviceName).Msg("Advertising")

	return nil
}

// Notify pushes a range payload to the subscribed peer. It returns once the
// payload is written or ctx is done.
func (s *Server) Notify(ctx context.Context, payload []byte) error {
	return s.rangeSub.push(ctx, payload)
}

// SetBatteryLevel publishes pct through the Battery Service
func (s *Server) SetBatteryLevel(pct uint8) error {
	if pct > 100 {
		return errors.New().WithData(ErrInvalidBattery, pct)
	}
	s.battery.Store(uint32(pct))

	if s.batterySub.get() == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), batteryNotifyTimeout)
	defer cancel()

	return s.batterySub.push(ctx, []byte{pct})
}

// BatteryLevel returns the last published percentage
func (s *Server) BatteryLevel() uint8 {
	return uint8(s.battery.Load())
}

// Stop ends advertising and closes the HCI device
func (s *Server) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		if s.advCancel != nil {
			s.advCancel()
		}
		dev := s.dev
		s.mu.Unlock()

		if dev != nil {
			if stopErr := dev.Stop(); stopErr != nil {
				err = errors.New().Wrap(ErrDeviceStop, stopErr)
			}
		}
	})

	return err
}

func (s *Server) onConnect(e evt.LEConnectionComplete) {
	s.handleConnect(e.Status(), e.ConnectionHandle(), e.PeerAddress())
}

func (s *Server) onDisconnect(e evt.DisconnectionComplete) {
	s.handleDisconnect(e.Status(), e.Reason())
}

func (s *Server) handleConnect(status uint8, handle uint16, addr [6]byte) {
	if status != 0 {
		s.logger.Debug().Uint8("status", status).Msg("Connection attempt failed")
		return
	}
	s.emit(link.Connected(link.Peer{Handle: handle, Address: formatAddress(addr)}))
}

func (s *Server) handleDisconnect(status, reason uint8) {
	if status != 0 {
		return
	}
	s.emit(link.Disconnected(reason))
}

func (s *Server) emit(ev link.Event) {
	if s.events == nil {
		return
	}

	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// writeConfig applies a remote config write and maps the outcome to an ATT
// status
func (s *Server) writeConfig(offset int, data []byte) ble.ATTError {
	err := s.store.Write(offset, data)
	if err == nil {
		cfg := s.store.Get()
		s.logger.Info().
			Uint16("sample_interval_ms", cfg.SampleIntervalMS).
			Uint16("notify_interval_ms", cfg.NotifyIntervalMS).
			Uint16("min_range_mm", cfg.MinRangeMM).
			Uint16("max_range_mm", cfg.MaxRangeMM).
			Msg("Telemetry config updated")
		return ble.ErrSuccess
	}

	status := attStatus(err)
	s.logger.Warn().
		Err(err).
		Int("offset", offset).
		Int("length", len(data)).
		Uint8("att_status", uint8(status)).
		Msg("Rejected config write")

	return status
}

// serveRange holds the range subscription until the peer unsubscribes or
// disconnects
func (s *Server) serveRange(w notifyWriter) {
	s.rangeSub.set(w)
	s.emit(link.SubscriptionChanged(true))

	<-w.Context().Done()

	s.rangeSub.clear(w)
	s.emit(link.SubscriptionChanged(false))
}

func (s *Server) serveBattery(w notifyWriter) {
	s.batterySub.set(w)
	<-w.Context().Done()
	s.batterySub.clear(w)
}

func attStatus(err error) ble.ATTError {
	switch errors.CodeOf(err) {
	case telemetry.ErrInvalidOffset:
		return attInvalidOffset
	case telemetry.ErrMalformedLength:
		return attInvalidLength
	case telemetry.ErrSampleIntervalOutOfRange,
		telemetry.ErrNotifyIntervalOutOfRange,
		telemetry.ErrRangeBoundsInverted:
		return attValueNotAllowed
	default:
		return attUnlikely
	}
}

// formatAddress renders a little-endian HCI address
func formatAddress(a [6]byte) string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", a[5], a[4], a[3], a[2], a[1], a[0])
}

// subscription tracks the single active notifier of a characteristic
type subscription struct {
	mu  sync.Mutex
	cur *notifier
}

// notifier allows one write in flight. A write that outlives its push
// deadline keeps the notifier busy until the stack returns.
type notifier struct {
	w    notifyWriter
	busy atomic.Bool
}

func (s *subscription) set(w notifyWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = &notifier{w: w}
}

func (s *subscription) clear(w notifyWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur != nil && s.cur.w == w {
		s.cur = nil
	}
}

func (s *subscription) current() *notifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

func (s *subscription) get() notifyWriter {
	if n := s.current(); n != nil {
		return n.w
	}
	return nil
}

// push writes payload to the current subscriber, giving up when ctx ends.
// It is rejected while an earlier write to the same subscriber is still
// pending.
func (s *subscription) push(ctx context.Context, payload []byte) error {
	errFactory := errors.New()

	n := s.current()
	if n == nil {
		return errFactory.New(ErrNotSubscribed)
	}
	if !n.busy.CompareAndSwap(false, true) {
		return errFactory.New(ErrNotifyBusy)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := n.w.Write(payload)
		n.busy.Store(false)
		errc <- err
	}()

	select {
	case err := <-errc:
		if err != nil {
			return errFactory.Wrap(ErrNotifyWrite, err)
		}
		return nil
	case <-n.w.Context().Done():
		return errFactory.New(ErrNotSubscribed)
	case <-ctx.Done():
		return errFactory.Wrap(ErrNotifyTimeout, ctx.Err())
	}
}

package link

import (
	"context"
	"sync"

	"codeberg.org/mutker/rangefinder/internal/errors"
	"codeberg.org/mutker/rangefinder/internal/logger"
)

// State is the connection state of the peripheral
type State int

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	if s == StateConnected {
		return "connected"
	}

	return "disconnected"
}

// Supervisor consumes transport events and owns the connection state and
// the subscription gate
type Supervisor struct {
	gate      *Gate
	transport Discoverable
	logger    logger.Logger

	mu    sync.RWMutex
	state State
	peer  Peer
}

func NewSupervisor(gate *Gate, transport Discoverable, log logger.Logger) *Supervisor {
	return &Supervisor{
		gate:      gate,
		transport: transport,
		logger:    log,
	}
}

// Run handles events until ctx is done or events is closed. A failed
// discoverability resume is logged and does not stop the loop.
func (s *Supervisor) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.Handle(ctx, ev); err != nil {
				var appErr errors.Error
				if errors.As(err, &appErr) {
					s.logger.ErrorWithCode(appErr).Str("event", ev.Kind.String()).Msg("Failed to handle link event")
				}
			}
		}
	}
}

// Handle applies a single event
func (s *Supervisor) Handle(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case EventConnected:
		s.mu.Lock()
		s.state = StateConnected
		s.peer = ev.Peer
		s.mu.Unlock()

		s.logger.Info().
			Uint16("handle", ev.Peer.Handle).
			Str("address", ev.Peer.Address).
			Msg("Peer connected")

		return nil

	case EventDisconnected:
		s.mu.Lock()
		peer := s.peer
		s.state = StateDisconnected
		s.peer = Peer{}
		s.mu.Unlock()

		s.gate.set(false)

		s.logger.Info().
			Str("address", peer.Address).
			Uint8("reason", ev.Reason).
			Msg("Peer disconnected")

		if err := s.transport.StartDiscoverable(ctx); err != nil {
			return errors.New().Wrap(ErrResumeDiscoverable, err)
		}
		s.logger.Debug().Msg("Discoverability resumed")

		return nil

	case EventSubscriptionChanged:
		s.gate.set(ev.Enabled)
		s.logger.Info().Bool("enabled", ev.Enabled).Msg("Range subscription changed")

		return nil

	default:
		return errors.New().WithData(ErrUnknownEvent, int(ev.Kind))
	}
}

// State returns the current connection state
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// Peer returns the connected peer, if any
func (s *Supervisor) Peer() (Peer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.peer, s.state == StateConnected
}

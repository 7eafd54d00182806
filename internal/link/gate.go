package link

import "sync/atomic"

// Gate is open while the remote peer is subscribed to range notifications.
// It starts closed and is only moved by the Supervisor.
type Gate struct {
	open atomic.Bool
}

func NewGate() *Gate {
	return &Gate{}
}

func (g *Gate) IsOpen() bool {
	return g.open.Load()
}

func (g *Gate) set(open bool) {
	g.open.Store(open)
}

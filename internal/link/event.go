package link

import "fmt"

// EventKind identifies a transport-originated signal
type EventKind int

const (
	EventConnected EventKind = iota + 1
	EventDisconnected
	EventSubscriptionChanged
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventSubscriptionChanged:
		return "subscription_changed"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Peer identifies the connected central
type Peer struct {
	Handle  uint16
	Address string
}

// Event is a single connection or subscription signal. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind    EventKind
	Peer    Peer
	Reason  uint8
	Enabled bool
}

// Connected builds a connect event
func Connected(peer Peer) Event {
	return Event{Kind: EventConnected, Peer: peer}
}

// Disconnected builds a disconnect event carrying the HCI reason code
func Disconnected(reason uint8) Event {
	return Event{Kind: EventDisconnected, Reason: reason}
}

// SubscriptionChanged builds a subscription event
func SubscriptionChanged(enabled bool) Event {
	return Event{Kind: EventSubscriptionChanged, Enabled: enabled}
}

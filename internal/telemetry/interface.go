package telemetry

import "context"

// DistanceSensor is the ranging sensor collaborator
type DistanceSensor interface {
	// ReadDistance returns the raw distance in millimeters
	ReadDistance(ctx context.Context) (int, error)
}

// Notifier pushes a payload to the subscribed peer. Implementations must
// return once ctx is done.
type Notifier interface {
	Notify(ctx context.Context, payload []byte) error
}

// Gate reports whether a subscriber is currently listening
type Gate interface {
	IsOpen() bool
}

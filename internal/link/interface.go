package link

import "context"

// Discoverable is the transport operation issued after a peer goes away
type Discoverable interface {
	StartDiscoverable(ctx context.Context) error
}

package watch

import (
	"context"

	"github.com/go-ble/ble"
)

// session is the subset of ble.Client used once connected
type session interface {
	DiscoverProfile(force bool) (*ble.Profile, error)
	Subscribe(c *ble.Characteristic, ind bool, h ble.NotificationHandler) error
	ReadCharacteristic(c *ble.Characteristic) ([]byte, error)
	WriteCharacteristic(c *ble.Characteristic, value []byte, noRsp bool) error
	CancelConnection() error
	Disconnected() <-chan struct{}
}

// connectFunc scans for and connects to the first advertisement accepted
// by filter
type connectFunc func(ctx context.Context, filter ble.AdvFilter) (session, error)

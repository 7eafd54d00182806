package gatt

import (
	"context"

	"github.com/go-ble/ble"
)

// device is the subset of a go-ble peripheral device used by the server
type device interface {
	AddService(svc *ble.Service) error
	AdvertiseNameAndServices(ctx context.Context, name string, uuids ...ble.UUID) error
	Stop() error
}

// notifyWriter is the subset of ble.Notifier used to push values
type notifyWriter interface {
	Context() context.Context
	Write(b []byte) (int, error)
}

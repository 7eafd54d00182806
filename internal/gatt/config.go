package gatt

import (
	"time"

	"codeberg.org/mutker/rangefinder/internal/errors"
)

const (
	DefaultDeviceName      = "Rangefinder"
	DefaultAdvertiseSettle = 200 * time.Millisecond
)

// Config describes the advertised identity of the peripheral
type Config struct {
	DeviceName      string
	HCIDevice       int
	Manufacturer    string
	Model           string
	AdvertiseSettle time.Duration
}

func DefaultConfig() Config {
	return Config{
		DeviceName:      DefaultDeviceName,
		HCIDevice:       0,
		Manufacturer:    "Rangefinder",
		Model:           "RF-1",
		AdvertiseSettle: DefaultAdvertiseSettle,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.DeviceName == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "device name must not be empty")
	}
	if c.HCIDevice < 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, c.HCIDevice)
	}
	if c.AdvertiseSettle < 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.AdvertiseSettle)
	}

	return nil
}

package gatt

import "codeberg.org/mutker/rangefinder/internal/errors"

const (
	ErrNotSubscribed  = errors.ErrorCode("gatt_not_subscribed")
	ErrNotifyTimeout  = errors.ErrorCode("gatt_notify_timeout")
	ErrNotifyWrite    = errors.ErrorCode("gatt_notify_write_failed")
	ErrNotifyBusy     = errors.ErrorCode("gatt_notify_busy")
	ErrAdvertise      = errors.ErrorCode("gatt_advertise_failed")
	ErrNotStarted     = errors.ErrorCode("gatt_not_started")
	ErrAddService     = errors.ErrorCode("gatt_add_service_failed")
	ErrInvalidBattery = errors.ErrorCode("gatt_invalid_battery_level")
	ErrDeviceStop     = errors.ErrorCode("gatt_device_stop_failed")
)

package watch

import "codeberg.org/mutker/rangefinder/internal/errors"

const (
	ErrConnect               = errors.ErrorCode("watch_connect_failed")
	ErrDiscover              = errors.ErrorCode("watch_discover_failed")
	ErrMissingCharacteristic = errors.ErrorCode("watch_missing_characteristic")
	ErrSubscribe             = errors.ErrorCode("watch_subscribe_failed")
	ErrPushConfig            = errors.ErrorCode("watch_push_config_failed")
	ErrDisconnected          = errors.ErrorCode("watch_disconnected")
	ErrInvalidMapping        = errors.ErrorCode("watch_invalid_mapping")
)

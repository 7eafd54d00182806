package sensor

import "codeberg.org/mutker/rangefinder/internal/errors"

const (
	ErrDeviceNotFound = errors.ErrorCode("sensor_device_not_found")
	ErrReadAttribute  = errors.ErrorCode("sensor_read_attribute_failed")
	ErrParseAttribute = errors.ErrorCode("sensor_parse_attribute_failed")
	ErrUnknownSource  = errors.ErrorCode("sensor_unknown_source")
)

package telemetry

import "codeberg.org/mutker/rangefinder/internal/errors"

const (
	// Validation Errors, reported in the order they are checked
	ErrSampleIntervalOutOfRange = errors.ErrorCode("telemetry_sample_interval_out_of_range")
	ErrNotifyIntervalOutOfRange = errors.ErrorCode("telemetry_notify_interval_out_of_range")
	ErrRangeBoundsInverted      = errors.ErrorCode("telemetry_range_bounds_inverted")

	// Malformed Write Errors, checked before validation
	ErrMalformedLength = errors.ErrorCode("telemetry_malformed_length")
	ErrInvalidOffset   = errors.ErrorCode("telemetry_invalid_offset")

	// Sampling Errors
	ErrSensorRead   = errors.ErrorCode("telemetry_sensor_read_failed")
	ErrNotifyFailed = errors.ErrorCode("telemetry_notify_failed")
)

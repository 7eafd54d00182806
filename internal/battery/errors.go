package battery

import "codeberg.org/mutker/rangefinder/internal/errors"

const (
	ErrVoltageRead    = errors.ErrorCode("battery_voltage_read_failed")
	ErrNoBattery      = errors.ErrorCode("battery_not_attached")
	ErrIndicatorWrite = errors.ErrorCode("battery_indicator_write_failed")
)

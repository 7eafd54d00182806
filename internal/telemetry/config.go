package telemetry

import (
	"encoding/binary"
	"time"

	"codeberg.org/mutker/rangefinder/internal/errors"
)

const (
	MinIntervalMS = 10
	MaxIntervalMS = 5000

	DefaultMinRangeMM = 30
	DefaultMaxRangeMM = 1200

	// ConfigPayloadLen is the fixed wire size of a Config record
	ConfigPayloadLen = 8
	// DistancePayloadLen is the wire size of a distance reading
	DistancePayloadLen = 2
)

// Config is the remotely readable and writable telemetry configuration.
//
// Wire layout is four little-endian uint16 values in the order
// sample interval, notify interval, max range, min range.
type Config struct {
	SampleIntervalMS uint16
	// NotifyIntervalMS is validated and stored but does not pace notifications.
	NotifyIntervalMS uint16
	MinRangeMM       uint16
	MaxRangeMM       uint16
}

// DefaultConfig returns the startup record for the given intervals
func DefaultConfig(sampleIntervalMS, notifyIntervalMS uint16) Config {
	return Config{
		SampleIntervalMS: sampleIntervalMS,
		NotifyIntervalMS: notifyIntervalMS,
		MinRangeMM:       DefaultMinRangeMM,
		MaxRangeMM:       DefaultMaxRangeMM,
	}
}

// Validate checks the record invariants and returns the first violation.
func (c Config) Validate() error {
	errFactory := errors.New()

	if !intervalInRange(c.SampleIntervalMS) {
		return errFactory.WithData(ErrSampleIntervalOutOfRange, c.SampleIntervalMS)
	}

	if !intervalInRange(c.NotifyIntervalMS) {
		return errFactory.WithData(ErrNotifyIntervalOutOfRange, c.NotifyIntervalMS)
	}

	if c.MinRangeMM >= c.MaxRangeMM {
		return errFactory.WithData(ErrRangeBoundsInverted, struct {
			Min uint16
			Max uint16
		}{
			Min: c.MinRangeMM,
			Max: c.MaxRangeMM,
		})
	}

	return nil
}

func intervalInRange(ms uint16) bool {
	return ms >= MinIntervalMS && ms <= MaxIntervalMS
}

// SampleInterval returns the sampling period as a duration
func (c Config) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalMS) * time.Millisecond
}

// Clamp substitutes the nearest bound for a raw distance outside
// [MinRangeMM, MaxRangeMM].
func (c Config) Clamp(rawMM int) uint16 {
	if rawMM < int(c.MinRangeMM) {
		return c.MinRangeMM
	}
	if rawMM > int(c.MaxRangeMM) {
		return c.MaxRangeMM
	}

	return uint16(rawMM)
}

// MarshalBinary encodes the record in its fixed wire layout
func (c Config) MarshalBinary() ([]byte, error) {
	b := make([]byte, ConfigPayloadLen)
	binary.LittleEndian.PutUint16(b[0:], c.SampleIntervalMS)
	binary.LittleEndian.PutUint16(b[2:], c.NotifyIntervalMS)
	binary.LittleEndian.PutUint16(b[4:], c.MaxRangeMM)
	binary.LittleEndian.PutUint16(b[6:], c.MinRangeMM)

	return b, nil
}

// UnmarshalBinary decodes a fixed-length wire record. It does not validate.
func (c *Config) UnmarshalBinary(b []byte) error {
	if len(b) != ConfigPayloadLen {
		return errors.New().WithData(ErrMalformedLength, len(b))
	}

	c.SampleIntervalMS = binary.LittleEndian.Uint16(b[0:])
	c.NotifyIntervalMS = binary.LittleEndian.Uint16(b[2:])
	c.MaxRangeMM = binary.LittleEndian.Uint16(b[4:])
	c.MinRangeMM = binary.LittleEndian.Uint16(b[6:])

	return nil
}

// EncodeDistance encodes a distance reading in its 2-byte wire layout
func EncodeDistance(mm uint16) []byte {
	b := make([]byte, DistancePayloadLen)
	binary.LittleEndian.PutUint16(b, mm)

	return b
}

// DecodeDistance decodes a distance notification payload
func DecodeDistance(b []byte) (uint16, error) {
	if len(b) < DistancePayloadLen {
		return 0, errors.New().WithData(ErrMalformedLength, len(b))
	}

	return binary.LittleEndian.Uint16(b), nil
}

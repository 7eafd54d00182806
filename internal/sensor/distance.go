package sensor

import (
	"context"
	"math"

	"periph.io/x/periph/conn/physic"
)

const (
	distanceRawAttr   = "in_distance_raw"
	distanceScaleAttr = "in_distance_scale"
)

// IIODistance reads a time-of-flight ranging sensor exposed through the
// Linux IIO subsystem, e.g. /sys/bus/iio/devices/iio:device0
type IIODistance struct {
	dir string
}

// NewIIODistance verifies that dir exposes a distance channel
func NewIIODistance(dir string) (*IIODistance, error) {
	if err := requireAttr(dir, distanceRawAttr); err != nil {
		return nil, err
	}

	return &IIODistance{dir: dir}, nil
}

// ReadDistance returns the distance in millimeters. The scaled value is in
// meters; without a scale attribute the raw value is taken as millimeters.
func (s *IIODistance) ReadDistance(ctx context.Context) (int, error) {
	raw, err := readInt(ctx, s.dir, distanceRawAttr)
	if err != nil {
		return 0, err
	}

	if !hasAttr(s.dir, distanceScaleAttr) {
		return int(raw), nil
	}

	scale, err := readFloat(ctx, s.dir, distanceScaleAttr)
	if err != nil {
		return 0, err
	}

	d := physic.Distance(math.Round(float64(raw) * scale * float64(physic.Metre)))

	return int(d / physic.MilliMetre), nil
}

package sensor

import (
	"context"
	"fmt"
	"math"

	"codeberg.org/mutker/rangefinder/internal/errors"
	"periph.io/x/periph/conn/physic"
)

const (
	voltageNowAttr = "voltage_now"

	// Full scale and resolution of the battery ADC when the driver exposes
	// no scale attribute
	adcFullScale  = 3600 * physic.MilliVolt
	adcResolution = 4096
)

// PowerSupply reads a battery exposed under /sys/class/power_supply
type PowerSupply struct {
	dir string
}

// NewPowerSupply verifies that dir exposes voltage_now
func NewPowerSupply(dir string) (*PowerSupply, error) {
	if err := requireAttr(dir, voltageNowAttr); err != nil {
		return nil, err
	}

	return &PowerSupply{dir: dir}, nil
}

// ReadBatteryVoltage returns millivolts
func (p *PowerSupply) ReadBatteryVoltage(ctx context.Context) (int32, error) {
	uv, err := readInt(ctx, p.dir, voltageNowAttr)
	if err != nil {
		return 0, err
	}

	v := physic.ElectricPotential(uv) * physic.MicroVolt

	return int32(v / physic.MilliVolt), nil
}

// ADCVoltage reads the battery through a resistor divider on an IIO ADC
// channel
type ADCVoltage struct {
	dir     string
	raw     string
	scale   string
	divider int64
}

// NewADCVoltage verifies that dir exposes the given voltage channel.
// divider is the ratio of the resistor divider in front of the ADC.
func NewADCVoltage(dir string, channel, divider int) (*ADCVoltage, error) {
	if divider <= 0 {
		return nil, errors.New().WithData(errors.ErrInvalidArgument, divider)
	}

	a := &ADCVoltage{
		dir:     dir,
		raw:     fmt.Sprintf("in_voltage%d_raw", channel),
		scale:   fmt.Sprintf("in_voltage%d_scale", channel),
		divider: int64(divider),
	}
	if err := requireAttr(dir, a.raw); err != nil {
		return nil, err
	}

	return a, nil
}

// ReadBatteryVoltage returns the battery voltage in millivolts
func (a *ADCVoltage) ReadBatteryVoltage(ctx context.Context) (int32, error) {
	raw, err := readInt(ctx, a.dir, a.raw)
	if err != nil {
		return 0, err
	}

	var v physic.ElectricPotential
	if hasAttr(a.dir, a.scale) {
		scale, err := readFloat(ctx, a.dir, a.scale)
		if err != nil {
			return 0, err
		}
		v = physic.ElectricPotential(math.Round(float64(raw) * scale * float64(physic.MilliVolt)))
	} else {
		v = physic.ElectricPotential(raw) * adcFullScale / adcResolution
	}

	return int32(v * physic.ElectricPotential(a.divider) / physic.MilliVolt), nil
}

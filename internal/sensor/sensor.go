package sensor

import "codeberg.org/mutker/rangefinder/internal/errors"

const (
	KindIIO = "iio"
	KindSim = "sim"

	BatteryPowerSupply = "power_supply"
	BatteryADC         = "adc"
	BatterySim         = "sim"
)

// Config selects and locates the sensor collaborators
type Config struct {
	Distance     string
	DistancePath string
	Battery      string
	BatteryPath  string
	ADCChannel   int
	ADCDivider   int
	SimMinMM     int
	SimMaxMM     int
}

func DefaultConfig() Config {
	return Config{
		Distance:     KindIIO,
		DistancePath: "/sys/bus/iio/devices/iio:device0",
		Battery:      BatteryPowerSupply,
		BatteryPath:  "/sys/class/power_supply/battery",
		ADCChannel:   0,
		ADCDivider:   2,
		SimMinMM:     0,
		SimMaxMM:     1500,
	}
}

// NewDistance returns the configured ranging sensor. A missing device is
// reported as ErrDeviceNotFound.
func NewDistance(cfg Config) (DistanceReader, error) {
	switch cfg.Distance {
	case KindIIO:
		s, err := NewIIODistance(cfg.DistancePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindSim:
		return NewSimDistance(cfg.SimMinMM, cfg.SimMaxMM, 10), nil
	default:
		return nil, errors.New().WithData(ErrUnknownSource, cfg.Distance)
	}
}

// NewBattery returns the configured battery voltage source
func NewBattery(cfg Config) (VoltageReader, error) {
	switch cfg.Battery {
	case BatteryPowerSupply:
		p, err := NewPowerSupply(cfg.BatteryPath)
		if err != nil {
			return nil, err
		}
		return p, nil
	case BatteryADC:
		a, err := NewADCVoltage(cfg.BatteryPath, cfg.ADCChannel, cfg.ADCDivider)
		if err != nil {
			return nil, err
		}
		return a, nil
	case BatterySim:
		return NewSimBattery(4200, 1, 3300), nil
	default:
		return nil, errors.New().WithData(ErrUnknownSource, cfg.Battery)
	}
}

package sensor

import "context"

// DistanceReader returns raw distances in millimeters
type DistanceReader interface {
	ReadDistance(ctx context.Context) (int, error)
}

// VoltageReader returns the battery voltage in millivolts
type VoltageReader interface {
	ReadBatteryVoltage(ctx context.Context) (int32, error)
}

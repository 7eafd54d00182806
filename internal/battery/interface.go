package battery

import "context"

// VoltageReader reads the battery terminal voltage
type VoltageReader interface {
	// ReadBatteryVoltage returns millivolts. A non-positive value means no
	// battery is attached.
	ReadBatteryVoltage(ctx context.Context) (int32, error)
}

// LevelIndicator publishes the battery percentage to the remote peer
type LevelIndicator interface {
	SetBatteryLevel(pct uint8) error
}

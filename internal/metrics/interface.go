package metrics

import (
	"context"
	"time"
)

// Collector defines the core domain interface
type Collector interface {
	Record(ctx context.Context, snapshot *Snapshot) error
	Close() error
}

// Repository defines the interface for sample storage
type Repository interface {
	Record(snapshot *Snapshot) error
	Close() error
}

// Source identifies which sampler produced a snapshot
type Source string

const (
	SourceRange   Source = "range"
	SourceBattery Source = "battery"
)

// Snapshot is a single accepted sample.
//
// For range samples Raw is the sensor distance and Value the clamped
// distance, both in millimeters. For battery samples Raw is millivolts and
// Value the percentage.
type Snapshot struct {
	Timestamp time.Time
	Source    Source
	Raw       int64
	Value     int64
	Notified  bool
}

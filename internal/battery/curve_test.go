package battery_test

import (
	"math"
	"testing"

	"codeberg.org/mutker/rangefinder/internal/battery"
	"github.com/stretchr/testify/assert"
)

func TestVoltageToPercentBreakpoints(t *testing.T) {
	tests := []struct {
		mv   int32
		want uint8
	}{
		{math.MinInt32, 0},
		{-1, 0},
		{0, 0},
		{3299, 0},
		{3300, 0},
		{3314, 0},
		{3315, 1},
		{3450, 10},
		{3600, 20},
		{3700, 35},
		{3800, 50},
		{3950, 70},
		{4100, 90},
		{4150, 95},
		{4199, 99},
		{4200, 100},
		{5000, 100},
		{math.MaxInt32, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, battery.VoltageToPercent(tt.mv), "mv=%d", tt.mv)
	}
}

func TestVoltageToPercentMonotonic(t *testing.T) {
	prev := battery.VoltageToPercent(-100)
	for mv := int32(-99); mv <= 4500; mv++ {
		got := battery.VoltageToPercent(mv)
		if got < prev {
			t.Fatalf("not monotonic at %d mv: %d < %d", mv, got, prev)
		}
		if got > 100 {
			t.Fatalf("out of range at %d mv: %d", mv, got)
		}
		prev = got
	}
}

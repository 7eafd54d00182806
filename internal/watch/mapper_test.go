package watch

import (
	"testing"

	"codeberg.org/mutker/rangefinder/internal/errors"
	"github.com/stretchr/testify/assert"
)

func unsmoothed() MappingConfig {
	cfg := DefaultMappingConfig()
	cfg.Smoothing = 0
	return cfg
}

func TestMap(t *testing.T) {
	nonInverted := unsmoothed()
	nonInverted.Invert = false

	scaled := unsmoothed()
	scaled.MinIntensity = 0.2
	scaled.MaxIntensity = 0.6

	noDeadzone := unsmoothed()
	noDeadzone.DeadzoneMM = 0

	tests := []struct {
		name string
		cfg  MappingConfig
		mm   uint16
		want float64
	}{
		{"closest is max intensity", unsmoothed(), 30, 1},
		{"farthest is min intensity", unsmoothed(), 300, 0},
		{"midpoint", unsmoothed(), 165, 0.5},
		{"below range clamps", unsmoothed(), 5, 1},
		{"between range and deadzone clamps", unsmoothed(), 450, 0},
		{"deadzone is zero", unsmoothed(), 600, 0},
		{"non-inverted closest", nonInverted, 30, 0},
		{"non-inverted farthest", nonInverted, 300, 1},
		{"scaled closest", scaled, 30, 0.6},
		{"scaled farthest", scaled, 300, 0.2},
		{"deadzone disabled", noDeadzone, 60000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMapper(tt.cfg)
			assert.InDelta(t, tt.want, m.Map(tt.mm), 0.01)
		})
	}
}

func TestMapSmoothing(t *testing.T) {
	cfg := DefaultMappingConfig()
	cfg.Smoothing = 0.5
	m := NewMapper(cfg)

	// first sample passes through
	assert.InDelta(t, 1.0, m.Map(30), 1e-9)
	// 0.5*1 + 0.5*0
	assert.InDelta(t, 0.5, m.Map(300), 1e-9)
	// deadzone output is smoothed too
	assert.InDelta(t, 0.25, m.Map(1000), 1e-9)
	assert.InDelta(t, 0.625, m.Map(30), 1e-9)
}

func TestMapEmptySpan(t *testing.T) {
	m := NewMapper(MappingConfig{MinRangeMM: 100, MaxRangeMM: 100, MaxIntensity: 1})
	assert.InDelta(t, 0, m.Map(100), 1e-9)
}

func TestMappingConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultMappingConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*MappingConfig)
	}{
		{"min intensity negative", func(c *MappingConfig) { c.MinIntensity = -0.1 }},
		{"max intensity above one", func(c *MappingConfig) { c.MaxIntensity = 1.5 }},
		{"range equal", func(c *MappingConfig) { c.MinRangeMM = 300 }},
		{"range inverted", func(c *MappingConfig) { c.MinRangeMM = 400 }},
		{"smoothing above one", func(c *MappingConfig) { c.Smoothing = 1.01 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMappingConfig()
			tt.mutate(&cfg)
			assert.True(t, errors.HasCode(cfg.Validate(), ErrInvalidMapping))
		})
	}
}

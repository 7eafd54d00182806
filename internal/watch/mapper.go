package watch

import (
	"sync"

	"codeberg.org/mutker/rangefinder/internal/errors"
)

// MappingConfig shapes how distance readings turn into an intensity in
// [0, 1]
type MappingConfig struct {
	// Invert makes closer readings more intense
	Invert       bool
	MinRangeMM   uint16
	MaxRangeMM   uint16
	MinIntensity float64
	MaxIntensity float64
	// DeadzoneMM maps readings beyond it to zero. Zero disables it.
	DeadzoneMM uint16
	// Smoothing is the EMA weight of the previous output; 0 disables it
	Smoothing float64
}

func DefaultMappingConfig() MappingConfig {
	return MappingConfig{
		Invert:       true,
		MinRangeMM:   30,
		MaxRangeMM:   300,
		MinIntensity: 0,
		MaxIntensity: 1,
		DeadzoneMM:   500,
		Smoothing:    0.3,
	}
}

func (c MappingConfig) Validate() error {
	errFactory := errors.New()

	if !unit(c.MinIntensity) {
		return errFactory.WithData(ErrInvalidMapping, struct {
			Field string
			Value float64
		}{"min_intensity", c.MinIntensity})
	}
	if !unit(c.MaxIntensity) {
		return errFactory.WithData(ErrInvalidMapping, struct {
			Field string
			Value float64
		}{"max_intensity", c.MaxIntensity})
	}
	if c.MinRangeMM >= c.MaxRangeMM {
		return errFactory.WithData(ErrInvalidMapping, struct {
			MinRangeMM uint16
			MaxRangeMM uint16
		}{c.MinRangeMM, c.MaxRangeMM})
	}
	if !unit(c.Smoothing) {
		return errFactory.WithData(ErrInvalidMapping, struct {
			Field string
			Value float64
		}{"smoothing", c.Smoothing})
	}

	return nil
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}

// Mapper converts distances to smoothed intensities. It keeps the smoothing
// state across reconnects.
type Mapper struct {
	mu          sync.Mutex
	cfg         MappingConfig
	smoothed    float64
	initialized bool
}

func NewMapper(cfg MappingConfig) *Mapper {
	return &Mapper{cfg: cfg}
}

// Map returns the intensity for mm
func (m *Mapper) Map(mm uint16) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg := m.cfg
	if cfg.DeadzoneMM > 0 && mm > cfg.DeadzoneMM {
		return m.smooth(0)
	}

	clamped := min(max(mm, cfg.MinRangeMM), cfg.MaxRangeMM)

	var normalized float64
	if span := float64(cfg.MaxRangeMM) - float64(cfg.MinRangeMM); span > 0 {
		normalized = (float64(clamped) - float64(cfg.MinRangeMM)) / span
	}
	if cfg.Invert {
		normalized = 1 - normalized
	}

	raw := cfg.MinIntensity + normalized*(cfg.MaxIntensity-cfg.MinIntensity)

	return m.smooth(min(max(raw, 0), 1))
}

// smooth applies the EMA. The first sample passes through unchanged.
// Callers hold m.mu.
func (m *Mapper) smooth(raw float64) float64 {
	if !m.initialized {
		m.smoothed = raw
		m.initialized = true
		return raw
	}

	alpha := m.cfg.Smoothing
	m.smoothed = alpha*m.smoothed + (1-alpha)*raw
	return m.smoothed
}

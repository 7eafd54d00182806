package sensor

import (
	"context"
	"sync"
)

// SimDistance sweeps back and forth between two distances. It stands in for
// the ranging sensor on hosts without one.
type SimDistance struct {
	mu   sync.Mutex
	min  int
	max  int
	step int
	cur  int
}

func NewSimDistance(lo, hi, step int) *SimDistance {
	if hi < lo {
		lo, hi = hi, lo
	}
	if step <= 0 {
		step = 1
	}

	return &SimDistance{min: lo, max: hi, step: step, cur: lo}
}

func (s *SimDistance) ReadDistance(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.cur
	next := d + s.step
	if next > s.max || next < s.min {
		s.step = -s.step
		next = d + s.step
	}
	s.cur = min(max(next, s.min), s.max)

	return d, nil
}

// SimBattery discharges linearly by drop millivolts per read down to floor
type SimBattery struct {
	mu    sync.Mutex
	mv    int32
	drop  int32
	floor int32
}

func NewSimBattery(start, drop, floor int32) *SimBattery {
	return &SimBattery{mv: start, drop: drop, floor: floor}
}

func (s *SimBattery) ReadBatteryVoltage(ctx context.Context) (int32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mv := s.mv
	if s.mv-s.drop >= s.floor {
		s.mv -= s.drop
	}

	return mv, nil
}

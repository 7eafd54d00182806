package battery

// curvePoint is a breakpoint of the discharge curve
type curvePoint struct {
	mv  int32
	pct int32
}

// Single-cell LiPo discharge curve, ascending by voltage. Values between
// two points are interpolated linearly with truncating division.
var dischargeCurve = []curvePoint{
	{3300, 0},
	{3600, 20},
	{3800, 50},
	{4100, 90},
	{4200, 100},
}

// VoltageToPercent maps a cell voltage in millivolts to a charge percentage
// in [0, 100]. It is monotonically non-decreasing over all inputs.
func VoltageToPercent(mv int32) uint8 {
	first := dischargeCurve[0]
	last := dischargeCurve[len(dischargeCurve)-1]

	if mv < first.mv {
		return uint8(first.pct)
	}
	if mv >= last.mv {
		return uint8(last.pct)
	}

	for i := len(dischargeCurve) - 2; i >= 0; i-- {
		lo, hi := dischargeCurve[i], dischargeCurve[i+1]
		if mv >= lo.mv {
			return uint8(lo.pct + (mv-lo.mv)*(hi.pct-lo.pct)/(hi.mv-lo.mv))
		}
	}

	return 0
}

package core

import "math"

// Pricing constants. Base rate is charged per page side; duplex jobs get
// a discount, color jobs pay double.
const (
	BaseRatePerPage  = 0.10
	ColorMultiplier  = 2.0
	DuplexMultiplier = 0.8
)

// ComputeCost prices a job from its immutable print parameters. Pure and
// deterministic; assumes pages and copies were validated positive by the
// caller. The result is rounded to two decimals, half away from zero.
func ComputeCost(pages, copies int, color, duplex bool) float64 {
	cost := BaseRatePerPage * float64(pages) * float64(copies)
	if color {
		cost *= ColorMultiplier
	}
	if duplex {
		cost *= DuplexMultiplier
	}
	return math.Round(cost*100) / 100
}

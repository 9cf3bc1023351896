package scale

import "math"

// RainScaling selects how a per-cell rainfall rate calibrated at the
// reference resolution responds to cell count. Chosen once at context
// construction and dispatched by value.
type RainScaling uint8

const (
	// PerCell applies the base rate unchanged; larger maps receive more
	// total water. Predictable, useful when debugging.
	PerCell RainScaling = iota
	// MassConserving holds the total water budget over the region constant:
	// per-cell rate ∝ 1/cellRatio.
	MassConserving
	// Intensity holds meteorological intensity per unit area constant;
	// numerically identical to PerCell for depth-per-cell rates.
	Intensity
	// Hydrologic follows the empirical ~Area^0.6 watershed relation.
	Hydrologic
)

func (rs RainScaling) String() string {
	switch rs {
	case PerCell:
		return "per-cell"
	case Intensity:
		return "intensity"
	case Hydrologic:
		return "hydrologic"
	default:
		return "mass-conserving"
	}
}

// EffectiveRain maps a base per-cell rainfall rate [m/tick at reference
// resolution] onto this context using its rainfall scaling variant.
func (c *Context) EffectiveRain(base float64) float64 {
	switch c.rain {
	case PerCell, Intensity:
		return base
	case Hydrologic:
		return base / math.Pow(c.cellRatio, .6)
	default:
		return base / c.cellRatio
	}
}

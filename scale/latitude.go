package scale

import "math"

// Latitude mapping. Regional domains see a narrow latitude band centred on
// the mid-latitudes; planetary domains see the full 180° centred on the
// equator. Both the extent and the centre migrate along C¹-continuous
// curves of domain size; neighbouring sizes always map to nearly equal
// latitudes, so no domain size produces a jump in the Coriolis field.

const (
	latFullKm  = 15000. // domain size at which the band saturates at 180° [km]
	latMinDeg  = 2.     // band at sub-km domains [°]
	latMidDeg  = 45.    // centre for regional domains [°]
	latSpanDeg = 180. - latMinDeg
)

// smooth5 is the quintic smoothstep 6u⁵−15u⁴+10u³ on [0,1]; zero slope at
// both ends.
func smooth5(u float64) float64 {
	return u * u * u * (u*(u*6.-15.) + 10.)
}

// LatitudeMapping returns the latitude extent and centre [°] for a domain
// of the given physical size. Pure; shared by Context construction and by
// anything wanting the raw curves.
func LatitudeMapping(sizeKm float64) (rangeDeg, centerDeg float64) {
	t := math.Log(sizeKm) / math.Log(latFullKm)
	if t < 0. || math.IsNaN(t) {
		t = 0.
	} else if t > 1. {
		t = 1.
	}
	// extent rides a delayed S-curve: ~2° through the sub-km and regional
	// bands, ~8-9° by 1000 km, saturating smoothly at 180° by 15000 km
	rangeDeg = latMinDeg + latSpanDeg*smooth5(math.Pow(t, 5.))
	// centre migrates 45°→0° a little earlier than the extent opens up
	centerDeg = latMidDeg * (1. - smooth5(t*t*t))
	return
}

// LatitudeOf maps a grid row to its latitude [°]: row 0 is the northern
// edge. Single-row domains sit wholly on the centre latitude.
func (c *Context) LatitudeOf(y int) float64 {
	if c.desc.Ny < 2 {
		return c.centerDeg
	}
	return c.centerDeg + (0.5-float64(y)/float64(c.desc.Ny-1))*c.rangeDeg
}

// Range returns the domain's latitude extent [°].
func (c *Context) Range() float64 { return c.rangeDeg }

// Center returns the domain's centre latitude [°].
func (c *Context) Center() float64 { return c.centerDeg }

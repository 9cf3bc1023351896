// Package scale derives every tunable simulation parameter from a single
// immutable descriptor of the physical domain. All derivations are pure and
// continuous in domain size; there are no per-scale presets and no
// threshold switches anywhere downstream.
package scale

import (
	"errors"
	"fmt"
	"math"
)

// reference resolution all cell-count ratios are taken against
const refNx, refNy = 240, 120

// ErrInvalidScale marks a descriptor that cannot describe a domain.
var ErrInvalidScale = errors.New("invalid scale descriptor")

// DetailLevel expresses the caller's quality/performance intent. The kernel
// derives nothing from it; terrain-generating collaborators do.
type DetailLevel uint8

const (
	Preview DetailLevel = iota
	Standard
	High
)

func (d DetailLevel) String() string {
	switch d {
	case Preview:
		return "preview"
	case High:
		return "high"
	default:
		return "standard"
	}
}

// Kind classifies how a base parameter responds to cell-count changes.
type Kind uint8

const (
	Area      Kind = iota // per-cell share of an extensive quantity, ∝ 1/cellRatio
	Length                // cell-denominated physical length, ∝ sqrt(1/cellRatio)
	Intensive             // ratios and fractions, invariant
	Time                  // timestep-like, ∝ sqrt(cellRatio)
)

// Descriptor is the one scale input. Immutable once created.
type Descriptor struct {
	SizeKm float64 // physical extent of the longer axis [km]
	Nx, Ny int     // grid resolution
	Detail DetailLevel
}

// Context caches the derived geometry of a Descriptor. It is pure: two
// contexts built from equal descriptors answer identically, so instances
// may be shared freely across engines and worlds.
type Context struct {
	desc      Descriptor
	dx        float64 // physical spacing between cell centres [m]
	cellArea  float64 // [m²]
	cells     int
	cellRatio float64 // cells / reference cells
	rangeDeg  float64 // latitude extent of the domain [°]
	centerDeg float64 // latitude of the domain centre [°]
	rain      RainScaling
}

// New validates the descriptor and derives the context. Malformed
// descriptors are rejected here, before any simulation state exists.
func New(d Descriptor) (*Context, error) {
	if !(d.SizeKm > 0.) {
		return nil, fmt.Errorf(" scale.New: %w: physical size %v km", ErrInvalidScale, d.SizeKm)
	}
	if d.Nx < 1 || d.Ny < 1 {
		return nil, fmt.Errorf(" scale.New: %w: resolution %dx%d", ErrInvalidScale, d.Nx, d.Ny)
	}
	nmax := d.Nx
	if d.Ny > nmax {
		nmax = d.Ny
	}
	dx := d.SizeKm * 1000. / float64(nmax)
	r, c := LatitudeMapping(d.SizeKm)
	return &Context{
		desc:      d,
		dx:        dx,
		cellArea:  dx * dx,
		cells:     d.Nx * d.Ny,
		cellRatio: float64(d.Nx*d.Ny) / float64(refNx*refNy),
		rangeDeg:  r,
		centerDeg: c,
		rain:      MassConserving,
	}, nil
}

// WithRain returns a copy of the context using the given rainfall scaling
// variant. The variant is fixed for the context's lifetime and dispatched
// by value.
func (c *Context) WithRain(rs RainScaling) *Context {
	o := *c
	o.rain = rs
	return &o
}

// WithAnchor returns a copy whose latitude centre is pinned to a known
// geographic latitude (georeferenced domains); the latitude extent still
// follows the continuous mapping.
func (c *Context) WithAnchor(centerDeg float64) *Context {
	o := *c
	o.centerDeg = centerDeg
	return &o
}

func (c *Context) Desc() Descriptor  { return c.desc }
func (c *Context) Dx() float64       { return c.dx }
func (c *Context) CellArea() float64 { return c.cellArea }
func (c *Context) TotalCells() int   { return c.cells }
func (c *Context) CellRatio() float64 {
	return c.cellRatio
}
func (c *Context) Rain() RainScaling { return c.rain }

// Derive maps a base parameter value, calibrated at the reference
// resolution, onto this context.
func (c *Context) Derive(k Kind, base float64) float64 {
	switch k {
	case Area:
		return base / c.cellRatio
	case Length:
		return base / math.Sqrt(c.cellRatio)
	case Time:
		return base * math.Sqrt(c.cellRatio)
	default:
		return base
	}
}

// MomentumThreshold bounds the summed wind-speed magnitude [m/s]. Grows
// with the square root of cell count, capped so planetary domains cannot
// run away.
func (c *Context) MomentumThreshold() float64 {
	t := 2. * math.Sqrt(float64(c.cells))
	if t > 800. {
		return 800.
	}
	return t
}

// StableDt returns a timestep [s] satisfying dt ≤ safety·dx/maxV, bounded
// by resolution- and domain-aware limits so neither fine grids nor
// planetary domains drive it to absurdity.
func (c *Context) StableDt(safety, maxV float64) float64 {
	if maxV <= 0. {
		maxV = 1.
	}
	dt := safety * c.dx / maxV
	domf := math.Log(c.desc.SizeKm / 100.)
	if domf < 1. {
		domf = 1.
	} else if domf > 4. {
		domf = 4.
	}
	mindt := .001 * math.Max(c.dx/10., 1.)
	maxdt := 60. * domf
	if dt < mindt {
		return mindt
	}
	if dt > maxdt {
		return maxdt
	}
	return dt
}

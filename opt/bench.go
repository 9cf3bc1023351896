// Package opt calibrates the flow tunables that have no first-principles
// derivation. Candidate parameterizations run a synthetic benchmark and
// are judged on how the channel velocity profile fills the 0.1-2.0 m/s
// band expected at river-scale accumulation.
package opt

import (
	"context"
	"math"
	"sort"

	"github.com/maseology/objfunc"

	"github.com/maseology/tellus"
	"github.com/maseology/tellus/flow"
	"github.com/maseology/tellus/grid"
	"github.com/maseology/tellus/scale"
)

// target channel velocity band [m/s]
const vmin, vmax = .1, 2.

// Bench is the calibration fixture: a synthetic east-draining ramp run
// for a fixed number of ticks under steady per-cell rainfall.
type Bench struct {
	Desc  scale.Descriptor
	Drop  float64 // total relief [m]
	Rain  float64 // [m/tick]
	Acrit float64 // channel threshold [cells]
	Nt    int     // ticks per evaluation
}

// DefaultBench is sized to keep the samplers responsive.
func DefaultBench() Bench {
	return Bench{
		Desc:  scale.Descriptor{SizeKm: 30., Nx: 48, Ny: 32, Detail: scale.Standard},
		Drop:  150.,
		Rain:  1e-4,
		Acrit: 12.,
		Nt:    60,
	}
}

// run builds the ramp domain under p and ticks it to its judged state.
func (b Bench) run(p flow.Params) (*tellus.Domain, error) {
	p.RainBase = b.Rain
	o := tellus.DefaultOptions()
	o.Flow = p
	o.Rain = scale.PerCell
	d, err := tellus.NewDomain(b.Desc, ramp(b.Desc.Nx, b.Desc.Ny, b.Drop), &o)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	for j := 0; j < b.Nt; j++ {
		if _, err := d.Tick(ctx); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// objective scores p against the band target. Lower is better; failed or
// dried-out runs rank behind every scoreable one.
func (b Bench) objective(p flow.Params) float64 {
	d, err := b.run(p)
	if err != nil {
		return math.Inf(1)
	}
	obs, sim := channelProfile(d, b.Acrit)
	if len(obs) < 2 {
		return math.Inf(1)
	}
	lo, hi := sim[0], sim[0]
	for _, v := range sim[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi <= lo { // flat profile carries no signal
		return math.Inf(1)
	}
	of := 1. - objfunc.KGE(obs, sim)
	if math.IsNaN(of) {
		return math.Inf(1)
	}
	return of
}

// channelProfile pairs simulated channel speeds with the band target,
// ordered by contributing area so both series march downstream together.
// The target spreads log-linearly in area across the band, the shape of
// downstream hydraulic geometry.
func channelProfile(d *tellus.Domain, acrit float64) (obs, sim []float64) {
	tm := d.Drainage()
	vu, vv := d.Flow().Velocity()
	us, vs := vu.Values(), vv.Values()
	type chcell struct{ a, v float64 }
	cs := make([]chcell, 0, len(us)/4)
	amin, amax := math.Inf(1), 0.
	for i := range us {
		a := tm.UnitContributingArea(i)
		if a < acrit {
			continue
		}
		cs = append(cs, chcell{a, math.Hypot(us[i], vs[i])})
		amin = min(amin, a)
		amax = max(amax, a)
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i].a < cs[j].a })
	obs = make([]float64, len(cs))
	sim = make([]float64, len(cs))
	lr := math.Log(amax / amin)
	for i, c := range cs {
		f := 0.
		if lr > 0. {
			f = math.Log(c.a/amin) / lr
		}
		obs[i] = vmin * math.Pow(vmax/vmin, f)
		sim[i] = c.v
	}
	return
}

// ramp synthetic east-draining terrain with total relief drop.
func ramp(nx, ny int, drop float64) *grid.Scalar {
	z := grid.NewScalar(nx, ny, 0.)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			z.V[z.IX(x, y)] = drop * float64(nx-1-x) / float64(nx-1)
		}
	}
	return z
}

// Package flow is the hydrological engine: rainfall and evaporation
// forcing, water-surface gradient flow concentrated along drainage lines,
// CFL-substepped mass transport, damped open boundaries with per-edge
// outflow accounting, and a conservation audit every tick. All arithmetic
// runs in float64 over physical units; depth and velocity live in packed
// fields that widen themselves when increments drop below single
// precision.
package flow

import (
	"context"
	"log"
	"math"

	"github.com/maseology/tellus/grid"
	"github.com/maseology/tellus/scale"
	"github.com/maseology/tellus/tem"
)

// boundary edges for outflow accounting; row 0 is the northern edge
const (
	North = iota
	South
	East
	West
)

// Report summarizes one committed flow tick.
type Report struct {
	Dt       float64    // [s]
	Substeps int        // transport substeps taken
	Wet      int        // cells above the depth floor
	MaxVel   float64    // [m/s]
	Rain     float64    // [m³] added this tick
	Evap     float64    // [m³] removed this tick
	Out      [4]float64 // [m³] boundary outflow this tick, N/S/E/W
	Store    float64    // [m³] stored at tick end
	EdgeSat  float64    // stored-water fraction within the boundary margin
	MassErr  float64    // relative closure error
	CflFrac  float64    // wet-cell fraction past the substep budget
	Shrunk   bool       // dt was halved and the tick re-run
	Promoted bool       // packed storage widened this tick
}

// Engine advances surface water over a terrain snapshot.
type Engine struct {
	P   Params
	Out [4]float64 // cumulative boundary outflow [m³] N/S/E/W

	c         *scale.Context
	terrain   []float64
	conc      []float64 // drainage concentration factor per cell
	dep, depn *grid.Packed
	vu, vv    *grid.Packed // committed velocity components [m/s]
	vun, vvn  *grid.Packed
	dh        []float64           // substep flux scratch
	evapf     func(i int) float64 // temperature multiplier, optional
	dt        float64             // [s]
	step      int
	streak    int  // consecutive ticks past the CFL budget
	promoted  bool // widening already logged
}

// New builds a flow engine over terrain. tm supplies the drainage
// topology feeding the concentration factors; nil runs without
// channelization.
func New(c *scale.Context, terrain *grid.Scalar, tm *tem.TEM, p Params) *Engine {
	if p.MaxSubsteps < 1 {
		p.MaxSubsteps = 1
	}
	nx, ny := terrain.Nx, terrain.Ny
	e := &Engine{
		P:       p,
		c:       c,
		terrain: append([]float64{}, terrain.V...),
		dep:     grid.NewPacked(nx, ny),
		depn:    grid.NewPacked(nx, ny),
		vu:      grid.NewPacked(nx, ny),
		vv:      grid.NewPacked(nx, ny),
		vun:     grid.NewPacked(nx, ny),
		vvn:     grid.NewPacked(nx, ny),
		dh:      make([]float64, nx*ny),
		dt:      p.Dt,
	}
	if e.dt <= 0. {
		e.dt = c.StableDt(p.CflSafety, 1.)
	}
	e.SetDrainage(tm)
	return e
}

// SetDrainage recomputes concentration factors from a (re)built drainage
// topology. Factor 1 at single-cell accumulation, growing with the square
// root of upstream cell count.
func (e *Engine) SetDrainage(tm *tem.TEM) {
	if e.conc == nil {
		e.conc = make([]float64, len(e.terrain))
	}
	for i := range e.conc {
		f := 1.
		if tm != nil && e.P.K > 0. {
			if x := tm.UnitContributingArea(i) - 1.; x > 0. {
				f += math.Sqrt(x) * e.P.K / 1000.
			}
		}
		e.conc[i] = f
	}
}

// SetTerrain swaps the terrain snapshot and its drainage topology. Stored
// water stays in place.
func (e *Engine) SetTerrain(terrain *grid.Scalar, tm *tem.TEM) {
	copy(e.terrain, terrain.V)
	e.SetDrainage(tm)
}

// SetEvapMultiplier wires a per-cell temperature factor into evaporation.
func (e *Engine) SetEvapMultiplier(f func(i int) float64) { e.evapf = f }

// Depth returns the committed depth field [m].
func (e *Engine) Depth() *grid.Packed { return e.dep }

// Velocity returns the committed velocity component fields [m/s].
func (e *Engine) Velocity() (u, v *grid.Packed) { return e.vu, e.vv }

// Storage returns the committed stored volume [m³].
func (e *Engine) Storage() float64 { return e.dep.Sum() * e.c.CellArea() }

// Dt reports the current tick step [s].
func (e *Engine) Dt() float64 { return e.dt }

// Tick advances one step. Cancellation is honoured between phases; a
// cancelled tick returns the context error with the last committed state
// untouched. A tick that breaches the CFL budget three times running
// halves dt and re-runs once.
func (e *Engine) Tick(ctx context.Context) (Report, error) {
	r, err := e.run(ctx, e.dt)
	if err != nil {
		return r, err
	}
	if r.CflFrac > .01 {
		e.streak++
	} else {
		e.streak = 0
	}
	if e.streak >= 3 {
		mn := .001 * math.Max(e.c.Dx()/10., 1.)
		e.dt = math.Max(e.dt/2., mn)
		log.Printf(" flow: unstable on %.1f%% of wet cells, dt shrunk to %.3gs", r.CflFrac*100., e.dt)
		e.streak = 0
		if r, err = e.run(ctx, e.dt); err != nil {
			return r, err
		}
		r.Shrunk = true
	}
	e.commit(&r)
	return r, nil
}

func (e *Engine) run(ctx context.Context, dt float64) (Report, error) {
	r := Report{Dt: dt}
	e.depn.CopyFrom(e.dep)
	start := e.depn.Sum() * e.c.CellArea()

	e.addForcing(&r)
	if err := ctx.Err(); err != nil {
		return r, err
	}
	e.computeGradient(dt, &r)
	if err := ctx.Err(); err != nil {
		return r, err
	}
	e.computeConcentration(&r)
	if err := ctx.Err(); err != nil {
		return r, err
	}
	e.integrate(dt, &r)
	if err := ctx.Err(); err != nil {
		return r, err
	}
	e.applyBoundary(dt, &r)
	if err := ctx.Err(); err != nil {
		return r, err
	}
	e.validate(start, &r)
	return r, nil
}

func (e *Engine) commit(r *Report) {
	e.dep, e.depn = e.depn, e.dep
	e.vu, e.vun = e.vun, e.vu
	e.vv, e.vvn = e.vvn, e.vv
	for k := 0; k < 4; k++ {
		e.Out[k] += r.Out[k]
	}
	e.step++
}

// addForcing applies rainfall and temperature-scaled evaporation; films
// thinner than the dry threshold evaporate outright.
func (e *Engine) addForcing(r *Report) {
	ca := e.c.CellArea()
	rain := e.c.EffectiveRain(e.P.RainBase)
	thr := dryThreshold(rain, e.P.EvapRate)
	n := e.depn.Len()
	for i := 0; i < n; i++ {
		if rain > 0. {
			if e.depn.Add(i, rain) {
				e.notePromotion(r)
			}
			r.Rain += rain * ca
		}
		h := e.depn.At(i)
		if h <= 0. {
			continue
		}
		m := 1.
		if e.evapf != nil {
			m = e.evapf(i)
		}
		ev := h * e.P.EvapRate * m
		if ev > h {
			ev = h
		}
		h -= ev
		if h < thr {
			ev += h
			h = 0.
		}
		if ev > 0. {
			if e.depn.Set(i, h) {
				e.notePromotion(r)
			}
			r.Evap += ev * ca
		}
	}
}

func dryThreshold(rain, evap float64) float64 {
	return math.Min(math.Max(rain*(1.-evap)*.01, 1e-8), 1e-4)
}

var (
	nbx = [8]int{1, -1, 0, 0, 1, 1, -1, -1}
	nby = [8]int{0, 0, 1, -1, 1, -1, 1, -1}
	nbd = [8]float64{1, 1, 1, 1, math.Sqrt2, math.Sqrt2, math.Sqrt2, math.Sqrt2}
)

// computeGradient writes next-tick velocities. The Simple variant points
// each wet cell down the steepest water-surface descent, normalized by
// the physical neighbour spacing; edge cells extend the surface past the
// boundary by linear extrapolation so outward descent is seen.
func (e *Engine) computeGradient(dt float64, r *Report) {
	if e.P.Algorithm == Conservation {
		e.momentum(dt, r)
		return
	}
	nx, ny, dx := e.dep.Nx, e.dep.Ny, e.c.Dx()
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			i := y*nx + x
			if e.depn.At(i) <= 0. {
				e.setVel(i, 0., 0., r)
				continue
			}
			si := e.terrain[i] + e.depn.At(i)
			smax, ux, uy := 0., 0., 0.
			for k := 0; k < 8; k++ {
				xx, yy := x+nbx[k], y+nby[k]
				if xx < 0 || xx >= nx || yy < 0 || yy >= ny {
					continue
				}
				j := yy*nx + xx
				if s := (si - e.terrain[j] - e.depn.At(j)) / (dx * nbd[k]); s > smax {
					smax = s
					ux, uy = float64(nbx[k])/nbd[k], float64(nby[k])/nbd[k]
				}
			}
			// outward continuation at the four edges
			if x == 0 && nx > 1 {
				if s := (e.terrain[i+1] + e.depn.At(i+1) - si) / dx; s > smax {
					smax, ux, uy = s, -1., 0.
				}
			}
			if x == nx-1 && nx > 1 {
				if s := (e.terrain[i-1] + e.depn.At(i-1) - si) / dx; s > smax {
					smax, ux, uy = s, 1., 0.
				}
			}
			if y == 0 && ny > 1 {
				if s := (e.terrain[i+nx] + e.depn.At(i+nx) - si) / dx; s > smax {
					smax, ux, uy = s, 0., -1.
				}
			}
			if y == ny-1 && ny > 1 {
				if s := (e.terrain[i-nx] + e.depn.At(i-nx) - si) / dx; s > smax {
					smax, ux, uy = s, 0., 1.
				}
			}
			v := smax * e.P.FlowRate
			e.setVel(i, v*ux, v*uy, r)
		}
	}
}

// momentum is the Conservation variant: velocity state persists and
// integrates −g∇s with semi-implicit Manning friction, which stays stable
// where the explicit form would flip sign.
func (e *Engine) momentum(dt float64, r *Report) {
	nx, ny, dx := e.dep.Nx, e.dep.Ny, e.c.Dx()
	surf := func(i int) float64 { return e.terrain[i] + e.depn.At(i) }
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			i := y*nx + x
			h := e.depn.At(i)
			if h <= 0. {
				e.setVel(i, 0., 0., r)
				continue
			}
			var gx, gy float64
			switch {
			case nx < 2:
			case x == 0:
				gx = (surf(i+1) - surf(i)) / dx
			case x == nx-1:
				gx = (surf(i) - surf(i-1)) / dx
			default:
				gx = (surf(i+1) - surf(i-1)) / (2. * dx)
			}
			switch {
			case ny < 2:
			case y == 0:
				gy = (surf(i+nx) - surf(i)) / dx
			case y == ny-1:
				gy = (surf(i) - surf(i-nx)) / dx
			default:
				gy = (surf(i+nx) - surf(i-nx)) / (2. * dx)
			}
			u, v := e.vu.At(i), e.vv.At(i)
			fr := e.P.Manning * math.Hypot(u, v) / math.Pow(math.Max(h, depthFloor), 2./3.)
			u = (u - gravity*gx*dt) / (1. + fr*dt)
			v = (v - gravity*gy*dt) / (1. + fr*dt)
			e.setVel(i, u, v, r)
		}
	}
}

// computeConcentration scales Simple velocities up drainage lines, then
// applies the soft and hard speed caps.
func (e *Engine) computeConcentration(r *Report) {
	n := e.vun.Len()
	for i := 0; i < n; i++ {
		u, v := e.vun.At(i), e.vvn.At(i)
		if e.P.Algorithm == Simple {
			u *= e.conc[i]
			v *= e.conc[i]
		}
		sp := math.Hypot(u, v)
		if e.P.SoftCap > 0. && sp > e.P.SoftCap {
			t := e.P.SoftCap + (sp-e.P.SoftCap)*.1
			if e.P.HardCap > 0. && t > e.P.HardCap {
				t = e.P.HardCap
			}
			u, v = u/sp*t, v/sp*t
			sp = t
		}
		if sp > r.MaxVel {
			r.MaxVel = sp
		}
		e.setVel(i, u, v, r)
	}
}

// integrate moves mass along the velocity field in CFL-limited substeps.
func (e *Engine) integrate(dt float64, r *Report) {
	dx := e.c.Dx()
	dtmax := dt
	floor := dt / float64(e.P.MaxSubsteps)
	wet, nviol := 0, 0
	n := e.depn.Len()
	for i := 0; i < n; i++ {
		h := e.depn.At(i)
		if h <= depthFloor {
			continue
		}
		wet++
		cel := math.Sqrt(gravity * math.Max(h, depthFloor))
		lim := e.P.CflSafety * dx / (math.Hypot(e.vun.At(i), e.vvn.At(i)) + cel)
		if lim < floor {
			nviol++
			lim = floor
		}
		if lim < dtmax {
			dtmax = lim
		}
	}
	r.Wet = wet
	if wet > 0 {
		r.CflFrac = float64(nviol) / float64(wet)
	}
	nsub := int(math.Ceil(dt / dtmax))
	if nsub < 1 {
		nsub = 1
	}
	if nsub > e.P.MaxSubsteps {
		nsub = e.P.MaxSubsteps
	}
	r.Substeps = nsub
	dts := dt / float64(nsub)
	for s := 0; s < nsub; s++ {
		e.flux(dts, r)
	}
}

// flux moves one substep of depth along split x/y components, capped at
// the donor cell's content. Boundary-crossing components are left for the
// boundary phase.
func (e *Engine) flux(dts float64, r *Report) {
	nx, ny, dx := e.depn.Nx, e.depn.Ny, e.c.Dx()
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			i := y*nx + x
			h := e.depn.At(i)
			if h <= 0. {
				continue
			}
			u, v := e.vun.At(i), e.vvn.At(i)
			fx, fy := math.Abs(u)*dts/dx, math.Abs(v)*dts/dx
			if t := fx + fy; t > 1. {
				fx, fy = fx/t, fy/t
			}
			if fx > 0. {
				xx := x + 1
				if u < 0. {
					xx = x - 1
				}
				if xx >= 0 && xx < nx {
					m := h * fx
					e.dh[i] -= m
					e.dh[y*nx+xx] += m
				}
			}
			if fy > 0. {
				yy := y + 1
				if v < 0. {
					yy = y - 1
				}
				if yy >= 0 && yy < ny {
					m := h * fy
					e.dh[i] -= m
					e.dh[yy*nx+x] += m
				}
			}
		}
	}
	for i, d := range e.dh {
		if d != 0. {
			if e.depn.Add(i, d) {
				e.notePromotion(r)
			}
			e.dh[i] = 0.
		}
	}
}

// applyBoundary damps the outgoing normal velocity component on edge
// cells, keeps the tangential component, and routes the damped normal
// flux out of the domain into that edge's outflow total.
func (e *Engine) applyBoundary(dt float64, r *Report) {
	nx, ny, dx, ca := e.depn.Nx, e.depn.Ny, e.c.Dx(), e.c.CellArea()
	shed := func(i int, vn float64, edge int) float64 {
		vn *= e.P.Damping
		h := e.depn.At(i)
		if h <= 0. || vn <= 0. {
			return vn
		}
		out := h * math.Min(vn*dt/dx, 1.)
		if e.depn.Add(i, -out) {
			e.notePromotion(r)
		}
		r.Out[edge] += out * ca
		return vn
	}
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			if x != 0 && x != nx-1 && y != 0 && y != ny-1 {
				continue
			}
			i := y*nx + x
			u, v := e.vun.At(i), e.vvn.At(i)
			if x == 0 && u < 0. {
				u = -shed(i, -u, West)
			}
			if x == nx-1 && u > 0. {
				u = shed(i, u, East)
			}
			if y == 0 && v < 0. {
				v = -shed(i, -v, North)
			}
			if y == ny-1 && v > 0. {
				v = shed(i, v, South)
			}
			e.setVel(i, u, v, r)
		}
	}
}

// validate closes the tick's water balance. The error is relative to the
// water the tick had to work with, start plus rain, so a first tick onto
// dry terrain is not judged against an empty store. Edge saturation above
// half the store marks a drainage field that piles water against the
// boundary instead of shedding it; the margin scales with the grid so
// the reading means the same thing at every resolution.
func (e *Engine) validate(start float64, r *Report) {
	end := e.depn.Sum() * e.c.CellArea()
	r.Store = end
	if end > 0. {
		nx, ny, eh := e.depn.Nx, e.depn.Ny, 0.
		mrg := min(max(min(nx, ny)/20, 5), 50) // 5% of the short side
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				if x < mrg || x >= nx-mrg || y < mrg || y >= ny-mrg {
					eh += e.depn.At(y*nx + x)
				}
			}
		}
		r.EdgeSat = eh * e.c.CellArea() / end
	}
	out := r.Out[0] + r.Out[1] + r.Out[2] + r.Out[3]
	r.MassErr = math.Abs(start+r.Rain-r.Evap-out-end) / math.Max(start+r.Rain, nearzero)
	if r.MassErr > masstol {
		log.Printf("^ flow: mass closure error %.2f%% at step %d", r.MassErr*100., e.step)
	}
}

func (e *Engine) setVel(i int, u, v float64, r *Report) {
	p1 := e.vun.Set(i, u)
	p2 := e.vvn.Set(i, v)
	if (p1 || p2) && r != nil {
		e.notePromotion(r)
	}
}

func (e *Engine) notePromotion(r *Report) {
	r.Promoted = true
	if !e.promoted {
		e.promoted = true
		log.Println(" flow: packed field storage promoted to float64")
	}
}

// Package atmos is the atmospheric engine: geostrophically balanced winds
// diagnosed from the pressure field, with an equatorial direct-flow
// fallback, extrapolated damped boundaries balanced for net mass flux, a
// domain momentum budget, divergence relaxation, and health diagnostics.
// The Coriolis parameter varies continuously row by row from the scale
// substrate's latitude mapping, so hemisphere and equator behaviour emerge
// from position rather than switches.
package atmos

import (
	"context"
	"math"

	"github.com/maseology/tellus/grid"
	"github.com/maseology/tellus/scale"
)

const (
	omega   = 7.2921e-5 // Earth rotation [rad/s]
	airRho  = 1.225     // [kg/m³]
	fMin    = 1e-6      // [1/s] geostrophic breakdown threshold
	divTol  = 1e-6      // [1/s] continuity violation threshold
	capPole = 40.       // [m/s] above 70° latitude
	capMid  = 30.       // [m/s] elsewhere
)

// Params collects the atmospheric tunables. Build from Default() and
// override.
type Params struct {
	Strength   float64 // geostrophic multiplier before scale adjustment
	Friction   float64 // surface friction base before scale adjustment
	Damping    float64 // boundary extrapolation damping
	DirectFlow float64 // equatorial down-gradient flow factor
	Relax      float64 // divergence relaxation rate
	Passes     int     // relaxation sweeps per tick
}

func Default() Params {
	return Params{
		Strength:   1.,
		Friction:   .1,
		Damping:    .95,
		DirectFlow: .1,
		Relax:      .3,
		Passes:     3,
	}
}

// Report summarizes one committed atmospheric tick.
type Report struct {
	MaxSpeed float64 // [m/s]
	AvgSpeed float64 // [m/s]
	Momentum float64 // Σ|v| after conservation [m/s]
	Rescaled bool    // momentum budget enforced this tick
	GeoCorr  float64 // wind vs ideal geostrophic correlation
	DivFrac  float64 // cell fraction above the divergence tolerance
	EdgeVar  float64 // edge/interior speed stddev ratio
	EdgeHor  float64 // edge cells dominated by along-edge flow
	Lows     int     // pressure centers 200 Pa under the mean
	Highs    int     // pressure centers 200 Pa over the mean
	Cyclonic int     // cells with |vorticity| > 5e-5
	Windy    int     // cells above 5 m/s
}

// Engine diagnoses the wind field from pressure each tick.
type Engine struct {
	P Params

	c        *scale.Context
	w, wn    *grid.Vector // committed and in-progress wind [m/s]
	f        []float64    // Coriolis parameter per row [1/s]
	cap      []float64    // speed cap per row [m/s]
	strength float64      // scale-adjusted geostrophic multiplier
	friction float64      // scale-adjusted surface friction
	sponge   int          // absorbing rim width [cells]
}

// New sizes an engine for the grid behind c. Geostrophic strength grows
// with domain size past 500 km and surface friction with cell size up to
// 1 km, both continuously.
func New(c *scale.Context, p Params) *Engine {
	d := c.Desc()
	e := &Engine{
		P:        p,
		c:        c,
		w:        grid.NewVector(d.Nx, d.Ny),
		wn:       grid.NewVector(d.Nx, d.Ny),
		f:        make([]float64, d.Ny),
		cap:      make([]float64, d.Ny),
		strength: p.Strength * math.Min(math.Max(d.SizeKm/500., 1.), 1.5),
		friction: p.Friction * math.Min(c.Dx()/1000., 1.),
	}
	for y := 0; y < d.Ny; y++ {
		lat := c.LatitudeOf(y)
		e.f[y] = 2. * omega * math.Sin(lat*math.Pi/180.)
		if math.Abs(lat) > 70. {
			e.cap[y] = capPole
		} else {
			e.cap[y] = capMid
		}
	}
	w := min(d.Nx, d.Ny) / 40
	if w < 1 {
		w = 1
	} else if w > 3 {
		w = 3
	}
	e.sponge = w
	return e
}

// Wind returns the committed wind field [m/s].
func (e *Engine) Wind() *grid.Vector { return e.w }

// Vorticity returns ∂v/∂x − ∂u/∂y of the committed wind [1/s].
func (e *Engine) Vorticity() *grid.Scalar { return vorticity(e.w, e.c.Dx()) }

// Tick rebuilds the wind from the pressure field pr and its gradient gr.
// Cancellation is honoured between phases; a cancelled tick leaves the
// committed field untouched.
func (e *Engine) Tick(ctx context.Context, pr *grid.Scalar, gr *grid.Vector) (Report, error) {
	var r Report
	e.geostrophic(gr)
	if err := ctx.Err(); err != nil {
		return r, err
	}
	e.boundary()
	if err := ctx.Err(); err != nil {
		return r, err
	}
	e.conserveMomentum(&r)
	if err := ctx.Err(); err != nil {
		return r, err
	}
	e.continuity()
	if err := ctx.Err(); err != nil {
		return r, err
	}
	e.diagnose(pr, gr, &r)
	e.w, e.wn = e.wn, e.w
	return r, nil
}

// Geostrophic returns the balanced reference wind for pressure-gradient
// field gr, before the boundary, conservation, and continuity passes
// shape it. Serves as the comparison baseline for the committed field.
func (e *Engine) Geostrophic(gr *grid.Vector) *grid.Vector {
	w := grid.NewVector(e.wn.Nx, e.wn.Ny)
	e.geoInto(w, gr)
	return w
}

// geostrophic balances pressure gradient against Coriolis per cell. With
// the grid y axis pointing south, u = +P_y/(ρf), v = −P_x/(ρf) circulates
// counter-clockwise around northern-hemisphere lows. Within fMin of the
// equator the balance breaks and flow runs straight down-gradient.
func (e *Engine) geostrophic(gr *grid.Vector) { e.geoInto(e.wn, gr) }

func (e *Engine) geoInto(w, gr *grid.Vector) {
	nx, ny := w.Nx, w.Ny
	for y := 0; y < ny; y++ {
		f := e.f[y]
		geo := math.Abs(f) >= fMin
		for x := 0; x < nx; x++ {
			i := y*nx + x
			var u, v float64
			if geo {
				u = gr.V[i] / (airRho * f) * e.strength
				v = -gr.U[i] / (airRho * f) * e.strength
			} else {
				u = -gr.U[i] * e.P.DirectFlow / airRho
				v = -gr.V[i] * e.P.DirectFlow / airRho
			}
			u *= 1. - e.friction
			v *= 1. - e.friction
			if sp := math.Hypot(u, v); sp > e.cap[y] {
				u, v = u/sp*e.cap[y], v/sp*e.cap[y]
			}
			w.U[i] = u
			w.V[i] = v
		}
	}
}

// boundary replaces edge winds by damped second-order extrapolation from
// the interior, averages the corners, zeroes the net boundary mass flux,
// and feathers an absorbing rim.
func (e *Engine) boundary() {
	nx, ny := e.wn.Nx, e.wn.Ny
	u, v, dmp := e.wn.U, e.wn.V, e.P.Damping
	ex := func(i, j, k int) (float64, float64) { // extrapolate through j,k onto i
		return (2.*u[j] - u[k]) * dmp, (2.*v[j] - v[k]) * dmp
	}
	if ny > 2 {
		for x := 0; x < nx; x++ {
			u[x], v[x] = ex(x, nx+x, 2*nx+x)
			b := (ny - 1) * nx
			u[b+x], v[b+x] = ex(b+x, b-nx+x, b-2*nx+x)
		}
	} else if ny == 2 {
		for x := 0; x < nx; x++ {
			au, av := u[x], v[x]
			u[x], v[x] = u[nx+x]*dmp, v[nx+x]*dmp
			u[nx+x], v[nx+x] = au*dmp, av*dmp
		}
	}
	if nx > 2 {
		for y := 0; y < ny; y++ {
			i := y * nx
			u[i], v[i] = ex(i, i+1, i+2)
			u[i+nx-1], v[i+nx-1] = ex(i+nx-1, i+nx-2, i+nx-3)
		}
	} else if nx == 2 {
		for y := 0; y < ny; y++ {
			i := y * nx
			au, av := u[i], v[i]
			u[i], v[i] = u[i+1]*dmp, v[i+1]*dmp
			u[i+1], v[i+1] = au*dmp, av*dmp
		}
	}
	if nx > 1 && ny > 1 {
		// corners average their two edge neighbours
		c := func(i, a, b int) {
			u[i] = (u[a] + u[b]) / 2.
			v[i] = (v[a] + v[b]) / 2.
		}
		c(0, 1, nx)
		c(nx-1, nx-2, 2*nx-1)
		c((ny-1)*nx, (ny-2)*nx, (ny-1)*nx+1)
		c(ny*nx-1, ny*nx-2, (ny-1)*nx-1)
	}

	// cancel the net outward mass flux, spread evenly over the rim
	net, nb := 0., 0
	for x := 0; x < nx; x++ {
		net += -v[x] + v[(ny-1)*nx+x]
		nb += 2
	}
	for y := 0; y < ny; y++ {
		net += -u[y*nx] + u[y*nx+nx-1]
		nb += 2
	}
	if nb > 0 && net != 0. {
		d := net / float64(nb)
		for x := 0; x < nx; x++ {
			v[x] += d
			v[(ny-1)*nx+x] -= d
		}
		for y := 0; y < ny; y++ {
			u[y*nx] += d
			u[y*nx+nx-1] -= d
		}
	}

	// absorbing rim
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			d := min(min(x, nx-1-x), min(y, ny-1-y))
			if d >= e.sponge {
				continue
			}
			s := .8 + .2*float64(d)/float64(e.sponge)
			i := y*nx + x
			u[i] *= s
			v[i] *= s
		}
	}
}

// conserveMomentum rescales the whole field uniformly when total momentum
// exceeds the scale-derived budget; per-cell clamps would erase the
// circulation pattern.
func (e *Engine) conserveMomentum(r *Report) {
	tot := e.wn.SumMag()
	thr := e.c.MomentumThreshold()
	if tot > thr && tot > 0. {
		s := thr / tot
		for i := range e.wn.U {
			e.wn.U[i] *= s
			e.wn.V[i] *= s
		}
		tot = thr
		r.Rescaled = true
	}
	r.Momentum = tot
}

// continuity nudges winds toward zero divergence with a few in-place
// relaxation sweeps.
func (e *Engine) continuity() {
	nx, ny := e.wn.Nx, e.wn.Ny
	u, v := e.wn.U, e.wn.V
	for p := 0; p < e.P.Passes; p++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				i := y*nx + x
				d := cellDiv(u, v, x, y, nx, ny)
				if math.Abs(d) <= divTol {
					continue
				}
				adj := d * e.P.Relax * .5
				u[i] -= adj
				v[i] -= adj
			}
		}
	}
}

// cellDiv is the index-space divergence, central inside and one-sided at
// the edges.
func cellDiv(u, v []float64, x, y, nx, ny int) float64 {
	i := y*nx + x
	var du, dv float64
	switch {
	case nx < 2:
	case x == 0:
		du = u[i+1] - u[i]
	case x == nx-1:
		du = u[i] - u[i-1]
	default:
		du = (u[i+1] - u[i-1]) / 2.
	}
	switch {
	case ny < 2:
	case y == 0:
		dv = v[i+nx] - v[i]
	case y == ny-1:
		dv = v[i] - v[i-nx]
	default:
		dv = (v[i+nx] - v[i-nx]) / 2.
	}
	return du + dv
}

func vorticity(w *grid.Vector, dx float64) *grid.Scalar {
	nx, ny := w.Nx, w.Ny
	z := grid.NewScalar(nx, ny, 0.)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			i := y*nx + x
			var dvx, duy float64
			switch {
			case nx < 2:
			case x == 0:
				dvx = w.V[i+1] - w.V[i]
			case x == nx-1:
				dvx = w.V[i] - w.V[i-1]
			default:
				dvx = (w.V[i+1] - w.V[i-1]) / 2.
			}
			switch {
			case ny < 2:
			case y == 0:
				duy = w.U[i+nx] - w.U[i]
			case y == ny-1:
				duy = w.U[i] - w.U[i-nx]
			default:
				duy = (w.U[i+nx] - w.U[i-nx]) / 2.
			}
			z.V[i] = (dvx - duy) / dx
		}
	}
	return z
}

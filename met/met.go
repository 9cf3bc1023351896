// Package met synthesizes the temperature and pressure fields over model
// terrain: lapse-rate cooling, a pole-to-centre latitudinal gradient, an
// annual cycle with continental amplification, and thermally driven
// pressure anomalies with reproducible noise. Winds are diagnosed from the
// pressure gradient it maintains; evaporation scales with its temperature.
package met

import (
	"math"
	"math/rand"

	mrg63k3a "github.com/maseology/goRNG/MRG63k3a"
	"github.com/maseology/tellus/grid"
	"github.com/maseology/tellus/scale"
)

const (
	baseTemp   = 15.     // sea-level reference temperature [°C]
	lapseRate  = .0065   // [°C/m]
	tmin, tmax = -50, 50 // [°C]
	p0         = 101325. // standard sea-level pressure [Pa]
	scaleHgt   = 8400.   // barometric scale height [m]
	seasonStep = 1. / 3650.
	relaxRate  = .1  // pressure relaxation toward target per tick
	smoothRate = .05 // pressure neighbourhood blend per tick
	seed       = 12345
)

// Met holds the synthesized climate state for one terrain snapshot.
type Met struct {
	T *grid.Scalar // air temperature [°C]
	P *grid.Scalar // surface pressure [Pa]
	G *grid.Vector // pressure gradient [Pa/m]

	c      *scale.Context
	pelev  []float64 // barometric base pressure [Pa]
	baseT  []float64 // smoothed annual-mean temperature [°C]
	svar   []float64 // smoothed seasonal amplitude [°C]
	pbuf   []float64
	rng    *rand.Rand
	season float64 // fraction of the annual cycle [0,1)
	coupl  float64 // thermal pressure coupling [Pa per 10°C]
	samp   float64 // seasonal pressure amplitude [Pa]
	namp   float64 // pressure noise amplitude [Pa]
	span   float64 // pressure anomaly clamp halfwidth [Pa]
}

// New builds climate fields for the given terrain. Fields derive from the
// domain scale: larger domains carry stronger couplings, wider anomaly
// bounds and larger seasonal swings. The noise generator is fixed-seeded
// so runs reproduce.
func New(c *scale.Context, terrain *grid.Scalar) *Met {
	nx, ny := terrain.Nx, terrain.Ny
	szkm := c.Desc().SizeKm
	m := &Met{
		T:     grid.NewScalar(nx, ny, baseTemp),
		P:     grid.NewScalar(nx, ny, p0),
		G:     grid.NewVector(nx, ny),
		c:     c,
		pelev: make([]float64, nx*ny),
		pbuf:  make([]float64, nx*ny),
		rng:   rand.New(mrg63k3a.New()),
		coupl: 500. * math.Min(szkm/100., 3.) * math.Max(math.Sqrt(c.Dx()/50000.), .3),
		samp:  300. * (1. + szkm/1000.*.2),
		namp:  10. * math.Min(szkm/100., 4.),
		span:  2000. + 1500.*math.Min(szkm/1000., 4.),
	}
	m.rng.Seed(seed)
	m.bind(terrain)
	m.evolve(1.) // jump straight to the initial target
	return m
}

// SetTerrain rebinds the terrain-derived baselines (annual-mean
// temperature, seasonal amplitude, barometric base pressure) to a new
// elevation snapshot of the same dimensions. Season, noise, and the
// evolving pressure state carry on; pressure relaxes toward the new
// baseline over the following ticks.
func (m *Met) SetTerrain(terrain *grid.Scalar) { m.bind(terrain) }

func (m *Met) bind(terrain *grid.Scalar) {
	nx, ny := terrain.Nx, terrain.Ny
	szkm := m.c.Desc().SizeKm
	latGrad := math.Min(math.Max(.05*szkm, 5.), 25.) // [°C] centre to edge
	sampT := 20. * (1. + szkm/1000.*.1)              // [°C] seasonal, before continentality
	hy := math.Max(float64(ny-1), 1.)
	raw := make([]float64, nx*ny)
	rawv := make([]float64, nx*ny)
	for y := 0; y < ny; y++ {
		lat := math.Abs(2.*float64(y)/hy - 1.) // 0 centre row, 1 at edges
		for x := 0; x < nx; x++ {
			i := y*nx + x
			e := math.Max(terrain.V[i], 0.)
			raw[i] = math.Min(math.Max(baseTemp-lapseRate*e-latGrad*lat, tmin), tmax)
			rawv[i] = sampT * (.7 + .3*edgeDist(x, y, nx, ny))
			m.pelev[i] = p0 * math.Exp(-e/scaleHgt)
		}
	}
	m.baseT = smooth3(raw, nx, ny, .4, .15, .1)
	m.svar = smooth3(rawv, nx, ny, .6, .1, .1)
}

// Step advances the annual cycle one tick and evolves pressure toward its
// thermal target.
func (m *Met) Step() {
	m.season += seasonStep
	if m.season >= 1. {
		m.season -= 1.
	}
	m.evolve(relaxRate)
}

// Season returns the current annual-cycle fraction [0,1).
func (m *Met) Season() float64 { return m.season }

func (m *Met) evolve(rate float64) {
	s := math.Sin(2. * math.Pi * m.season)
	for i := range m.T.V {
		m.T.V[i] = math.Min(math.Max(m.baseT[i]+s*m.svar[i], tmin), tmax)
	}
	tbar := m.T.Average()
	for i, p := range m.P.V {
		a := -(m.T.V[i]-baseTemp)*m.coupl/10. + s*m.samp -
			(m.T.V[i]-tbar)*m.coupl*.3 + m.namp*2.*(m.rng.Float64()-.5)
		if a > m.span {
			a = m.span
		} else if a < -m.span {
			a = -m.span
		}
		m.P.V[i] = p + (m.pelev[i]+a-p)*rate
	}

	// neighbourhood blend keeps thermal anomalies from pixelating
	nx, ny := m.P.Nx, m.P.Ny
	copy(m.pbuf, m.P.V)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			i := y*nx + x
			sum, n := 0., 0
			for _, d := range [8][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}} {
				xx, yy := x+d[0], y+d[1]
				if xx < 0 || xx >= nx || yy < 0 || yy >= ny {
					continue
				}
				sum += m.pbuf[yy*nx+xx]
				n++
			}
			m.P.V[i] = (1.-smoothRate)*m.pbuf[i] + smoothRate*sum/float64(n)
		}
	}
	m.gradient()
}

// gradient fills G with ∇P: central differences inside, one-sided at edges.
func (m *Met) gradient() {
	nx, ny, dx := m.P.Nx, m.P.Ny, m.c.Dx()
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			i := y*nx + x
			switch {
			case nx < 2:
				m.G.U[i] = 0.
			case x == 0:
				m.G.U[i] = (m.P.V[i+1] - m.P.V[i]) / dx
			case x == nx-1:
				m.G.U[i] = (m.P.V[i] - m.P.V[i-1]) / dx
			default:
				m.G.U[i] = (m.P.V[i+1] - m.P.V[i-1]) / (2. * dx)
			}
			switch {
			case ny < 2:
				m.G.V[i] = 0.
			case y == 0:
				m.G.V[i] = (m.P.V[i+nx] - m.P.V[i]) / dx
			case y == ny-1:
				m.G.V[i] = (m.P.V[i] - m.P.V[i-nx]) / dx
			default:
				m.G.V[i] = (m.P.V[i+nx] - m.P.V[i-nx]) / (2. * dx)
			}
		}
	}
}

// EvapMultiplier scales evaporation at cell i with its temperature.
func (m *Met) EvapMultiplier(i int) float64 { return EvapFactor(m.T.V[i]) }

// EvapFactor doubles evaporation every 10°C above the reference
// temperature and halves it below, clamped to [0.1, 10].
func EvapFactor(t float64) float64 {
	return math.Min(math.Max(math.Pow(2., (t-baseTemp)/10.), .1), 10.)
}

// edgeDist returns the normalized distance from the nearest domain edge,
// 0 on the boundary rising to 1 mid-domain. Interior cells see larger
// seasonal swings, the continental effect.
func edgeDist(x, y, nx, ny int) float64 {
	d := math.Min(float64(min(x, nx-1-x)), float64(min(y, ny-1-y)))
	h := math.Max(float64(min(nx-1, ny-1))/2., 1.)
	return math.Min(d/h, 1.)
}

// smooth3 applies one pass of a 3×3 kernel with centre/cardinal/diagonal
// weights, renormalized over in-bounds neighbours.
func smooth3(v []float64, nx, ny int, wc, w4, w8 float64) []float64 {
	out := make([]float64, len(v))
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			i := y*nx + x
			sum, wsum := wc*v[i], wc
			for k, d := range [8][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}} {
				xx, yy := x+d[0], y+d[1]
				if xx < 0 || xx >= nx || yy < 0 || yy >= ny {
					continue
				}
				w := w4
				if k >= 4 {
					w = w8
				}
				sum += w * v[yy*nx+xx]
				wsum += w
			}
			out[i] = sum / wsum
		}
	}
	return out
}

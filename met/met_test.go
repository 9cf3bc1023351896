package met

import (
	"math"
	"testing"

	"github.com/maseology/tellus/grid"
	"github.com/maseology/tellus/scale"
)

func testContext(t *testing.T, szkm float64, nx, ny int) *scale.Context {
	c, err := scale.New(scale.Descriptor{SizeKm: szkm, Nx: nx, Ny: ny, Detail: scale.Standard})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// plateau covering the east half of a flat domain
func plateauTerrain(nx, ny int, h float64) *grid.Scalar {
	z := grid.NewScalar(nx, ny, 0.)
	for y := 0; y < ny; y++ {
		for x := nx / 2; x < nx; x++ {
			z.V[y*nx+x] = h
		}
	}
	return z
}

func halfMeans(s *grid.Scalar) (west, east float64) {
	nx, ny := s.Nx, s.Ny
	nw, ne := 0, 0
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			if x < nx/2 {
				west += s.V[y*nx+x]
				nw++
			} else {
				east += s.V[y*nx+x]
				ne++
			}
		}
	}
	return west / float64(nw), east / float64(ne)
}

func TestLapseCoolsPlateau(t *testing.T) {
	c := testContext(t, 100., 16, 16)
	m := New(c, plateauTerrain(16, 16, 2000.))

	lo, hi := halfMeans(m.T)
	if lo-hi < 8. {
		t.Fatalf("plateau should sit well below lowland: lowland %.1f°C, plateau %.1f°C", lo, hi)
	}
}

func TestBarometricPressureDrop(t *testing.T) {
	c := testContext(t, 100., 16, 16)
	m := New(c, plateauTerrain(16, 16, 2000.))

	lo, hi := halfMeans(m.P)
	if lo-hi < 10000. {
		t.Fatalf("plateau pressure should drop by ~20 kPa: lowland %.0f Pa, plateau %.0f Pa", lo, hi)
	}
}

func TestPressureStaysBounded(t *testing.T) {
	c := testContext(t, 1000., 24, 24)
	m := New(c, plateauTerrain(24, 24, 3000.))

	span := 2000. + 1500.*math.Min(1000./1000., 4.)
	pmin := p0*math.Exp(-3000./scaleHgt) - span
	pmax := p0 + span
	for k := 0; k < 200; k++ {
		m.Step()
	}
	for i, p := range m.P.V {
		if p < pmin-1. || p > pmax+1. {
			t.Fatalf("cell %d: pressure %.0f outside [%.0f, %.0f]", i, p, pmin, pmax)
		}
	}
}

func TestSeasonalCycle(t *testing.T) {
	c := testContext(t, 500., 16, 16)
	m := New(c, grid.NewScalar(16, 16, 0.))

	i := 8*16 + 8 // interior cell, full continental amplitude
	for m.Season() < .25 {
		m.Step()
	}
	summer := m.T.V[i]
	for m.Season() < .75 {
		m.Step()
	}
	winter := m.T.V[i]
	if summer-winter < 10. {
		t.Fatalf("expected strong interior seasonal swing, got summer %.1f°C winter %.1f°C", summer, winter)
	}

	for k := 0; k < 4000; k++ {
		m.Step()
	}
	if m.Season() < 0. || m.Season() >= 1. {
		t.Fatalf("season should wrap within [0,1), got %g", m.Season())
	}
}

func TestNoiseReproduces(t *testing.T) {
	c := testContext(t, 250., 12, 12)
	z := plateauTerrain(12, 12, 800.)
	m1, m2 := New(c, z), New(c, z)
	for k := 0; k < 25; k++ {
		m1.Step()
		m2.Step()
	}
	for i := range m1.P.V {
		if m1.P.V[i] != m2.P.V[i] {
			t.Fatalf("cell %d: runs diverged, %.6f vs %.6f", i, m1.P.V[i], m2.P.V[i])
		}
	}
}

func TestGradientEdges(t *testing.T) {
	c := testContext(t, 100., 8, 8)
	m := New(c, grid.NewScalar(8, 8, 0.))
	// overwrite with a clean east-west ramp and recompute
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			m.P.V[y*8+x] = 100000. + 10.*float64(x)
		}
	}
	m.gradient()

	want := 10. / c.Dx()
	for i := range m.G.U {
		if math.Abs(m.G.U[i]-want) > 1e-12 {
			t.Fatalf("cell %d: ∂P/∂x %g, want %g", i, m.G.U[i], want)
		}
		if math.Abs(m.G.V[i]) > 1e-12 {
			t.Fatalf("cell %d: ∂P/∂y should vanish on an east-west ramp, got %g", i, m.G.V[i])
		}
	}
}

func TestEvapFactor(t *testing.T) {
	if f := EvapFactor(15.); math.Abs(f-1.) > 1e-12 {
		t.Fatalf("reference temperature should give unit factor, got %g", f)
	}
	if f := EvapFactor(25.); math.Abs(f-2.) > 1e-12 {
		t.Fatalf("+10°C should double evaporation, got %g", f)
	}
	if f := EvapFactor(-50.); f != .1 {
		t.Fatalf("cold clamp should hold at 0.1, got %g", f)
	}
	if f := EvapFactor(50.); f != 10. {
		t.Fatalf("hot clamp should hold at 10, got %g", f)
	}
}

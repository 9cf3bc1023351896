package atmos

import (
	"math"

	"github.com/maseology/objfunc"
	"github.com/maseology/tellus/grid"
)

// diagnose fills the health metrics of the freshly built wind field:
// correlation against the ideal geostrophic balance, edge behaviour, the
// divergence residual, and weather features read off pressure, vorticity
// and speed.
func (e *Engine) diagnose(pr *grid.Scalar, gr *grid.Vector, r *Report) {
	nx, ny := e.wn.Nx, e.wn.Ny
	u, v := e.wn.U, e.wn.V

	r.MaxSpeed = e.wn.MaxMag()
	r.AvgSpeed = e.wn.AvgMag()

	// correlation over rows where the geostrophic balance holds
	var act, ideal []float64
	for y := 0; y < ny; y++ {
		f := e.f[y]
		if math.Abs(f) < fMin {
			continue
		}
		for x := 0; x < nx; x++ {
			i := y*nx + x
			act = append(act, u[i], v[i])
			ideal = append(ideal, gr.V[i]/(airRho*f), -gr.U[i]/(airRho*f))
		}
	}
	r.GeoCorr = pearson(act, ideal)

	// edge speeds should stay the same order as the interior, and edge
	// cells should not be uniformly channeled along the boundary
	var edge, inner []float64
	nhor, nedge := 0, 0
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			i := y*nx + x
			sp := math.Hypot(u[i], v[i])
			if x == 0 || x == nx-1 || y == 0 || y == ny-1 {
				edge = append(edge, sp)
				nedge++
				if sp > 1e-9 {
					tan, nrm := math.Abs(v[i]), math.Abs(u[i]) // west/east edges
					if y == 0 || y == ny-1 {
						tan, nrm = nrm, tan
					}
					if tan > nrm {
						nhor++
					}
				}
			} else {
				inner = append(inner, sp)
			}
		}
	}
	if nedge > 0 {
		r.EdgeHor = float64(nhor) / float64(nedge)
	}
	if len(edge) > 1 && len(inner) > 1 {
		_, sde := objfunc.Meansd(edge)
		_, sdi := objfunc.Meansd(inner)
		r.EdgeVar = sde / math.Max(sdi, 1e-12)
	}

	nviol := 0
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			if math.Abs(cellDiv(u, v, x, y, nx, ny)) > divTol {
				nviol++
			}
		}
	}
	r.DivFrac = float64(nviol) / float64(nx*ny)

	pbar := pr.Average()
	zeta := vorticity(e.wn, e.c.Dx())
	for i := range pr.V {
		switch {
		case pr.V[i] < pbar-200.:
			r.Lows++
		case pr.V[i] > pbar+200.:
			r.Highs++
		}
		if math.Abs(zeta.V[i]) > 5e-5 {
			r.Cyclonic++
		}
		if math.Hypot(u[i], v[i]) > 5. {
			r.Windy++
		}
	}
}

// pearson keeps its own correlation: the objective-function helpers all
// return composite skill scores, not the bare r.
func pearson(a, b []float64) float64 {
	n := len(a)
	if n == 0 || n != len(b) {
		return 0.
	}
	var ma, mb float64
	for i := 0; i < n; i++ {
		ma += a[i]
		mb += b[i]
	}
	ma /= float64(n)
	mb /= float64(n)
	var cov, va, vb float64
	for i := 0; i < n; i++ {
		da, db := a[i]-ma, b[i]-mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va <= 0. || vb <= 0. {
		return 0.
	}
	return cov / math.Sqrt(va*vb)
}

// Package grid holds the dense rectangular fields shared by the flow and
// atmospheric engines: row-major scalars, component-pair vectors, and a
// float32-backed scalar that widens itself when increments fall below
// single precision.
package grid

import "math"

// Scalar is a flat row-major field of float64, nx*ny.
type Scalar struct {
	Nx, Ny int
	V      []float64
}

func NewScalar(nx, ny int, v0 float64) *Scalar {
	v := make([]float64, nx*ny)
	if v0 != 0. {
		for i := range v {
			v[i] = v0
		}
	}
	return &Scalar{Nx: nx, Ny: ny, V: v}
}

// IX converts (x,y) to the flat array index.
func (s *Scalar) IX(x, y int) int { return y*s.Nx + x }

func (s *Scalar) At(x, y int) float64     { return s.V[y*s.Nx+x] }
func (s *Scalar) Set(x, y int, v float64) { s.V[y*s.Nx+x] = v }

func (s *Scalar) Clone() *Scalar {
	v := make([]float64, len(s.V))
	copy(v, s.V)
	return &Scalar{Nx: s.Nx, Ny: s.Ny, V: v}
}

// Sum returns the compensated (Kahan) total; the conservation checks need
// better than naive summation on large grids of near-equal values.
func (s *Scalar) Sum() float64 {
	sum, c := 0., 0.
	for _, v := range s.V {
		y := v - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum
}

func (s *Scalar) Average() float64 {
	if len(s.V) == 0 {
		return 0.
	}
	return s.Sum() / float64(len(s.V))
}

func (s *Scalar) MinMax() (float64, float64) {
	mn, mx := math.Inf(1), math.Inf(-1)
	for _, v := range s.V {
		if v < mn {
			mn = v
		}
		if v > mx {
			mx = v
		}
	}
	return mn, mx
}

// Vector is a pair of flat row-major component fields.
type Vector struct {
	Nx, Ny int
	U, V   []float64
}

func NewVector(nx, ny int) *Vector {
	return &Vector{Nx: nx, Ny: ny, U: make([]float64, nx*ny), V: make([]float64, nx*ny)}
}

func (w *Vector) IX(x, y int) int { return y*w.Nx + x }

func (w *Vector) Mag(i int) float64 { return math.Sqrt(w.U[i]*w.U[i] + w.V[i]*w.V[i]) }

func (w *Vector) MaxMag() float64 {
	mx := 0.
	for i := range w.U {
		if m := w.Mag(i); m > mx {
			mx = m
		}
	}
	return mx
}

// SumMag returns the total of cell speed magnitudes, compensated.
func (w *Vector) SumMag() float64 {
	sum, c := 0., 0.
	for i := range w.U {
		y := w.Mag(i) - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum
}

func (w *Vector) AvgMag() float64 {
	if len(w.U) == 0 {
		return 0.
	}
	return w.SumMag() / float64(len(w.U))
}

func (w *Vector) Clone() *Vector {
	o := NewVector(w.Nx, w.Ny)
	copy(o.U, w.U)
	copy(o.V, w.V)
	return o
}

func (w *Vector) Zero() {
	for i := range w.U {
		w.U[i] = 0.
		w.V[i] = 0.
	}
}

package grid

// Packed is a scalar field stored in float32 until a lost increment is
// detected, after which storage widens to float64 for the remainder of the
// session. Coarse-scale flow produces velocity and depth increments far
// smaller than field magnitudes; adding 1e-8 to 10. is a no-op in float32
// and silently kills the flow. All arithmetic here is float64, only the
// backing store narrows.
type Packed struct {
	Nx, Ny int
	wide   bool
	v32    []float32
	v64    []float64
}

func NewPacked(nx, ny int) *Packed {
	return &Packed{Nx: nx, Ny: ny, v32: make([]float32, nx*ny)}
}

// NewPackedWide builds the field already in float64 storage.
func NewPackedWide(nx, ny int) *Packed {
	return &Packed{Nx: nx, Ny: ny, wide: true, v64: make([]float64, nx*ny)}
}

func (p *Packed) Len() int   { return p.Nx * p.Ny }
func (p *Packed) Wide() bool { return p.wide }

func (p *Packed) IX(x, y int) int { return y*p.Nx + x }

func (p *Packed) At(i int) float64 {
	if p.wide {
		return p.v64[i]
	}
	return float64(p.v32[i])
}

// Promote widens storage to float64, preserving current values.
func (p *Packed) Promote() {
	if p.wide {
		return
	}
	p.v64 = make([]float64, len(p.v32))
	for i, v := range p.v32 {
		p.v64[i] = float64(v)
	}
	p.v32 = nil
	p.wide = true
}

// Set stores v, widening first if v is non-zero yet rounds to float32 zero.
// Reports whether a promotion occurred.
func (p *Packed) Set(i int, v float64) bool {
	if p.wide {
		p.v64[i] = v
		return false
	}
	if v != 0. && float32(v) == 0. {
		p.Promote()
		p.v64[i] = v
		return true
	}
	p.v32[i] = float32(v)
	return false
}

// Add accumulates dv into cell i. A non-zero dv whose float32 round-trip
// leaves the stored value unchanged is a lost increment: storage widens and
// the add is replayed. Reports whether a promotion occurred.
func (p *Packed) Add(i int, dv float64) bool {
	if p.wide {
		p.v64[i] += dv
		return false
	}
	cur := float64(p.v32[i])
	nv := cur + dv
	if dv != 0. && nv != cur && float32(nv) == p.v32[i] {
		p.Promote()
		p.v64[i] = nv
		return true
	}
	p.v32[i] = float32(nv)
	return false
}

// Sum returns the compensated total.
func (p *Packed) Sum() float64 {
	sum, c := 0., 0.
	n := p.Len()
	for i := 0; i < n; i++ {
		y := p.At(i) - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum
}

func (p *Packed) Zero() {
	if p.wide {
		for i := range p.v64 {
			p.v64[i] = 0.
		}
		return
	}
	for i := range p.v32 {
		p.v32[i] = 0.
	}
}

// CopyFrom overwrites p with the contents and width of q.
func (p *Packed) CopyFrom(q *Packed) {
	if q.wide && !p.wide {
		p.Promote()
	}
	if p.wide {
		if q.wide {
			copy(p.v64, q.v64)
		} else {
			for i, v := range q.v32 {
				p.v64[i] = float64(v)
			}
		}
		return
	}
	copy(p.v32, q.v32)
}

// Values expands the field to a float64 slice (fresh allocation).
func (p *Packed) Values() []float64 {
	o := make([]float64, p.Len())
	for i := range o {
		o[i] = p.At(i)
	}
	return o
}

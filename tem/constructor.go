package tem

import (
	"math"
	"sort"

	"github.com/maseology/tellus/grid"
)

const tieTol = 1e-12 // relative slope tolerance treated as a tie

// New builds the elevation model from a terrain grid with cell width dx
// [m]. Receivers are the steepest-descent neighbours over the
// 8-neighbourhood; equal-steepest neighbours split the contribution
// evenly. Cells with no lower neighbour (pits and edge sinks) terminate
// flow paths.
func New(z *grid.Scalar, dx float64) *TEM {
	t := &TEM{
		Nx: z.Nx,
		Ny: z.Ny,
		Ca: dx * dx,
		Z:  append([]float64{}, z.V...),
	}
	t.buildReceivers(dx)
	t.buildOrder()
	t.buildBasins()
	t.accumulate()
	return t
}

func (t *TEM) buildReceivers(dx float64) {
	var (
		nbx  = [8]int{1, -1, 0, 0, 1, 1, -1, -1}
		nby  = [8]int{0, 0, 1, -1, 1, -1, 1, -1}
		nbd  = [8]float64{dx, dx, dx, dx, dx * math.Sqrt2, dx * math.Sqrt2, dx * math.Sqrt2, dx * math.Sqrt2}
		nc   = t.NumCells()
		tied [8]int32
	)
	t.Dsx = make([]int32, nc+1)
	t.Ds = make([]int32, 0, nc)
	t.Dw = make([]float64, 0, nc)
	for y := 0; y < t.Ny; y++ {
		for x := 0; x < t.Nx; x++ {
			i := y*t.Nx + x
			smax, n := 0., 0
			for k := 0; k < 8; k++ {
				xx, yy := x+nbx[k], y+nby[k]
				if xx < 0 || xx >= t.Nx || yy < 0 || yy >= t.Ny {
					continue
				}
				j := yy*t.Nx + xx
				s := (t.Z[i] - t.Z[j]) / nbd[k]
				if s <= 0. {
					continue
				}
				switch {
				case s > smax*(1.+tieTol):
					smax, n = s, 1
					tied[0] = int32(j)
				case s >= smax*(1.-tieTol):
					tied[n] = int32(j)
					n++
				}
			}
			w := 0.
			if n > 0 {
				w = 1. / float64(n)
			}
			for k := 0; k < n; k++ {
				t.Ds = append(t.Ds, tied[k])
				t.Dw = append(t.Dw, w)
			}
			t.Dsx[i+1] = int32(len(t.Ds))
		}
	}
}

// buildOrder sorts cell indices by descending elevation. Receivers are
// strictly lower, so every cell precedes all of its receivers.
func (t *TEM) buildOrder() {
	nc := t.NumCells()
	t.Ord = make([]int32, nc)
	for i := range t.Ord {
		t.Ord[i] = int32(i)
	}
	sort.Slice(t.Ord, func(a, b int) bool {
		za, zb := t.Z[t.Ord[a]], t.Z[t.Ord[b]]
		if za != zb {
			return za > zb
		}
		return t.Ord[a] < t.Ord[b]
	})
}

// buildBasins labels every cell with the terminal cell of its primary
// flow path, then unions basins bridged by split receivers into groups
// that can accumulate concurrently.
func (t *TEM) buildBasins() {
	nc := t.NumCells()
	t.Sws = make([]int32, nc)
	for k := nc - 1; k >= 0; k-- { // ascending elevation: receivers resolve first
		i := t.Ord[k]
		if t.Dsx[i] == t.Dsx[i+1] {
			t.Sws[i] = i
		} else {
			t.Sws[i] = t.Sws[t.Ds[t.Dsx[i]]]
		}
	}

	u := newUnionFind(nc)
	for i := 0; i < nc; i++ {
		for j := t.Dsx[i]; j < t.Dsx[i+1]; j++ {
			u.union(t.Sws[i], t.Sws[t.Ds[j]])
		}
	}

	gx := make(map[int32]int, 64)
	t.grps = t.grps[:0]
	for _, i := range t.Ord { // group lists inherit descending order
		r := u.find(t.Sws[i])
		g, ok := gx[r]
		if !ok {
			g = len(t.grps)
			gx[r] = g
			t.grps = append(t.grps, make([]int32, 0, 256))
		}
		t.grps[g] = append(t.grps[g], i)
	}
}

type unionFind struct{ p []int32 }

func newUnionFind(n int) *unionFind {
	u := &unionFind{p: make([]int32, n)}
	for i := range u.p {
		u.p[i] = int32(i)
	}
	return u
}

func (u *unionFind) find(i int32) int32 {
	for u.p[i] != i {
		u.p[i] = u.p[u.p[i]]
		i = u.p[i]
	}
	return i
}

func (u *unionFind) union(a, b int32) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.p[rb] = ra
	}
}

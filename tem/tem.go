// Package tem builds the topologic elevation model for a dense terrain
// grid: steepest-descent receivers over the 8-neighbourhood, and upstream
// contributing area accumulated in descending elevation order. The
// topology depends only on terrain; it is rebuilt when terrain changes and
// never during a simulation tick.
package tem

import "sync"

// TEM topologic elevation model over an nx*ny terrain grid. Receiver lists
// are stored flat: cell i drains to Ds[Dsx[i]:Dsx[i+1]] with weights Dw.
// Cells tying for steepest descent split their contribution evenly, so
// weights per cell sum to 1 and accumulation conserves area exactly.
type TEM struct {
	Nx, Ny int
	Ca     float64   // cell area [m²]
	Z      []float64 // cell elevations [m]
	Ord    []int32   // cell indices, descending elevation
	Dsx    []int32   // receiver offsets, len nc+1
	Ds     []int32   // flattened downslope cell indices
	Dw     []float64 // receiver weights
	UCA    []float64 // upstream contributing area, incl. own cell [m²]
	Upcnt  []int32   // area-equivalent count of contributing cells
	Sws    []int32   // terminal (outlet/pit) cell per flow path

	grps [][]int32 // basin groups made independent for the parallel pass
}

// NumCells number of cells that make up the TEM
func (t *TEM) NumCells() int { return len(t.Z) }

// Receivers returns cell i's downslope cell indices and weights.
func (t *TEM) Receivers(i int) ([]int32, []float64) {
	return t.Ds[t.Dsx[i]:t.Dsx[i+1]], t.Dw[t.Dsx[i]:t.Dsx[i+1]]
}

// UnitContributingArea returns the upstream contributing area draining
// through cell i, in units of cells.
func (t *TEM) UnitContributingArea(i int) float64 { return t.UCA[i] / t.Ca }

// Outlets lists the unique terminal cells (pits and edge sinks).
func (t *TEM) Outlets() []int32 {
	seen := make(map[int32]bool, 64)
	o := make([]int32, 0, 64)
	for _, s := range t.Sws {
		if !seen[s] {
			seen[s] = true
			o = append(o, s)
		}
	}
	return o
}

// accumulate runs the descending-order pass, parallel across independent
// basin groups. Within a group the elevation order carries the true
// sequential dependency; groups share no receivers by construction.
func (t *TEM) accumulate() {
	nc := t.NumCells()
	t.UCA = make([]float64, nc)
	for i := range t.UCA {
		t.UCA[i] = t.Ca
	}
	var wg sync.WaitGroup
	wg.Add(len(t.grps))
	for _, g := range t.grps {
		go func(cs []int32) {
			defer wg.Done()
			for _, i := range cs {
				a := t.UCA[i]
				for j := t.Dsx[i]; j < t.Dsx[i+1]; j++ {
					t.UCA[t.Ds[j]] += a * t.Dw[j]
				}
			}
		}(g)
	}
	wg.Wait()

	t.Upcnt = make([]int32, nc)
	for i, a := range t.UCA {
		t.Upcnt[i] = int32(a/t.Ca + .5)
	}
}

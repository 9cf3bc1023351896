package tem

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	mrg63k3a "github.com/maseology/goRNG/MRG63k3a"
	"github.com/maseology/tellus/grid"
)

const dx = 10.

func TestRampDrainsEast(t *testing.T) {
	nx, ny := 8, 6
	z := grid.NewScalar(nx, ny, 0.)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			z.V[y*nx+x] = float64(nx - 1 - x)
		}
	}
	tm := New(z, dx)

	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			i := y*nx + x
			ds, dw := tm.Receivers(i)
			if x == nx-1 {
				if len(ds) != 0 {
					t.Fatalf("east edge cell %d should terminate, receivers %v", i, ds)
				}
				continue
			}
			if len(ds) != 1 || ds[0] != int32(i+1) {
				t.Fatalf("cell %d: expected single east receiver %d, got %v", i, i+1, ds)
			}
			if dw[0] != 1. {
				t.Fatalf("cell %d: expected unit weight, got %g", i, dw[0])
			}
			want := float64(x+1) * tm.Ca
			if math.Abs(tm.UCA[i]-want) > 1e-9 {
				t.Fatalf("cell %d: UCA %g, want %g", i, tm.UCA[i], want)
			}
			if tm.Upcnt[i] != int32(x+1) {
				t.Fatalf("cell %d: Upcnt %d, want %d", i, tm.Upcnt[i], x+1)
			}
		}
	}
	if len(tm.Outlets()) != ny {
		t.Fatalf("expected %d row outlets, got %d", ny, len(tm.Outlets()))
	}
	for y := 0; y < ny; y++ {
		if tm.Sws[y*nx] != int32(y*nx+nx-1) {
			t.Fatalf("row %d drains to %d, want %d", y, tm.Sws[y*nx], y*nx+nx-1)
		}
	}
}

func TestTieSplitsEvenly(t *testing.T) {
	z := grid.NewScalar(3, 3, 0.)
	z.V[4] = 1. // centre peak, four cardinal neighbours tie for steepest
	tm := New(z, dx)

	ds, dw := tm.Receivers(4)
	if len(ds) != 4 {
		t.Fatalf("expected 4 tied receivers, got %v", ds)
	}
	sum := 0.
	for _, w := range dw {
		if math.Abs(w-.25) > 1e-12 {
			t.Fatalf("expected weight 0.25, got %g", w)
		}
		sum += w
	}
	if math.Abs(sum-1.) > 1e-12 {
		t.Fatalf("weights sum to %g, want 1", sum)
	}
	for _, j := range []int{1, 3, 5, 7} {
		want := 1.25 * tm.Ca
		if math.Abs(tm.UCA[j]-want) > 1e-9 {
			t.Fatalf("cardinal cell %d: UCA %g, want %g", j, tm.UCA[j], want)
		}
	}
}

func TestBowlDrainsToCentre(t *testing.T) {
	nx, ny := 5, 5
	z := grid.NewScalar(nx, ny, 0.)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			z.V[y*nx+x] = math.Max(math.Abs(float64(x-2)), math.Abs(float64(y-2)))
		}
	}
	tm := New(z, dx)

	ctr := 2*nx + 2
	if out := tm.Outlets(); len(out) != 1 || out[0] != int32(ctr) {
		t.Fatalf("expected single outlet at centre %d, got %v", ctr, out)
	}
	want := float64(nx*ny) * tm.Ca
	if math.Abs(tm.UCA[ctr]-want) > 1e-9 {
		t.Fatalf("centre UCA %g, want %g", tm.UCA[ctr], want)
	}
	for i, s := range tm.Sws {
		if s != int32(ctr) {
			t.Fatalf("cell %d labelled basin %d, want %d", i, s, ctr)
		}
	}
}

func TestRandomTerrainConserves(t *testing.T) {
	nx, ny := 24, 16
	rng := rand.New(mrg63k3a.New())
	z := grid.NewScalar(nx, ny, 0.)
	for i := range z.V {
		z.V[i] = rng.Float64() * 100.
	}
	tm := New(z, dx)

	nc := nx * ny
	tot := 0.
	for i := 0; i < nc; i++ {
		if tm.Dsx[i] == tm.Dsx[i+1] {
			tot += tm.UCA[i]
		}
		ds, dw := tm.Receivers(i)
		for k, r := range ds {
			if tm.Z[r] >= tm.Z[i] {
				t.Fatalf("receiver %d of cell %d is not lower", r, i)
			}
			if tm.UCA[r] < tm.Ca+dw[k]*tm.UCA[i]-1e-9 {
				t.Fatalf("cell %d receiver %d: UCA %g below pushed %g", i, r, tm.UCA[r], tm.Ca+dw[k]*tm.UCA[i])
			}
		}
		if tm.UCA[i] < tm.Ca-1e-12 {
			t.Fatalf("cell %d: UCA %g below own cell area", i, tm.UCA[i])
		}
	}
	want := float64(nc) * tm.Ca
	if math.Abs(tot-want)/want > 1e-9 {
		t.Fatalf("terminal UCA sums to %g, want %g", tot, want)
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	nx, ny := 20, 20
	rng := rand.New(mrg63k3a.New())
	z := grid.NewScalar(nx, ny, 0.)
	for i := range z.V {
		z.V[i] = rng.Float64() * 50.
	}
	tm := New(z, dx)

	uca := make([]float64, nx*ny)
	for i := range uca {
		uca[i] = tm.Ca
	}
	for _, i := range tm.Ord {
		for j := tm.Dsx[i]; j < tm.Dsx[i+1]; j++ {
			uca[tm.Ds[j]] += uca[i] * tm.Dw[j]
		}
	}
	for i := range uca {
		if math.Abs(uca[i]-tm.UCA[i]) > 1e-9 {
			t.Fatalf("cell %d: parallel UCA %g, serial %g", i, tm.UCA[i], uca[i])
		}
	}
}

func TestGobRoundTrip(t *testing.T) {
	z := grid.NewScalar(6, 4, 0.)
	for i := range z.V {
		z.V[i] = float64(i % 7)
	}
	tm := New(z, dx)

	fp := filepath.Join(t.TempDir(), "tem.gob")
	if err := tm.SaveGob(fp); err != nil {
		t.Fatal(err)
	}
	tm2, err := LoadGob(fp)
	if err != nil {
		t.Fatal(err)
	}
	if tm2.NumCells() != tm.NumCells() || tm2.Nx != tm.Nx || tm2.Ca != tm.Ca {
		t.Fatalf("dims changed on reload")
	}
	for i := range tm.UCA {
		if tm2.UCA[i] != tm.UCA[i] || tm2.Sws[i] != tm.Sws[i] || tm2.Upcnt[i] != tm.Upcnt[i] {
			t.Fatalf("cell %d changed on reload", i)
		}
	}
}

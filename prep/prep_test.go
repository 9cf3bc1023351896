package prep

import (
	"math"
	"testing"

	"github.com/maseology/tellus"
	"github.com/maseology/tellus/scale"
)

func TestAssembleShapesTheTrio(t *testing.T) {
	nx, ny, cw := 20, 10, 250.
	zs := make([]float64, nx*ny)
	for i := range zs {
		x := i % nx
		zs[i] = 40. * float64(nx-1-x) / float64(nx-1)
	}
	desc, trn, opt := assemble(zs, nx, ny, cw, 43.7)
	if desc.Nx != nx || desc.Ny != ny {
		t.Fatalf("descriptor resolution %dx%d, want %dx%d", desc.Nx, desc.Ny, nx, ny)
	}
	if math.Abs(desc.SizeKm-5.) > 1e-12 {
		t.Fatalf("width %f km, want 5", desc.SizeKm)
	}
	if !opt.Anchored || opt.AnchorDeg != 43.7 {
		t.Fatalf("anchor lost: %+v", opt)
	}
	if trn.Nx != nx || trn.Ny != ny || trn.V[0] != 40. || trn.V[nx-1] != 0. {
		t.Fatal("terrain misassembled")
	}

	d, err := tellus.NewDomain(desc, trn, opt)
	if err != nil {
		t.Fatal(err)
	}
	c := d.Scale()
	if math.Abs(c.Dx()-cw) > 1e-9 {
		t.Fatalf("cell width %f m, want %f", c.Dx(), cw)
	}
	if math.Abs(c.Center()-43.7) > 1e-9 {
		t.Fatalf("latitude centre %f, want 43.7", c.Center())
	}
}

// Package prep builds simulation-ready domains from surveyed terrain
// products: a grid definition paired with a hydrologically corrected DEM.
package prep

import (
	"fmt"
	"log"
	"math"

	"github.com/im7mortal/UTM"
	"github.com/maseology/goHydro/grid"
	"github.com/maseology/goHydro/tem"
	"github.com/maseology/mmio"

	"github.com/maseology/tellus"
	tgrid "github.com/maseology/tellus/grid"
	"github.com/maseology/tellus/scale"
	ttem "github.com/maseology/tellus/tem"
)

// FromGDEF reads a grid definition and its hydrologically corrected DEM
// into a descriptor, dense terrain, and options anchored at the surveyed
// latitude. The full rectangle must be active and carry elevations;
// survey products failing that are build errors, not run conditions.
func FromGDEF(gdefFP, hdemFP string, utmZone int) (scale.Descriptor, *tgrid.Scalar, *tellus.Options) {
	tt := mmio.NewTimer()
	defer tt.Lap("prep complete")

	gd, err := grid.ReadGDEF(gdefFP, true)
	if err != nil {
		log.Fatalf(" FromGDEF: %v", err)
	}
	nc := gd.Ncells()
	if len(gd.Sactives) != nc {
		log.Fatalf(" FromGDEF: %s: %d of %d cells active; needs the full rectangle", gdefFP, len(gd.Sactives), nc)
	}

	dem, err := tem.NewTEM(hdemFP)
	if err != nil {
		log.Fatalf(" FromGDEF: %v", err)
	}

	// cell ids run row-major from the northwest corner
	nx := nc
	for i := 1; i < nc; i++ {
		if math.Abs(gd.Coord[i].Y-gd.Coord[0].Y) > gd.Cw/2. {
			nx = i
			break
		}
	}
	ny := nc / nx
	if nx*ny != nc {
		log.Fatalf(" FromGDEF: %s: %d cells do not fill %d columns", gdefFP, nc, nx)
	}

	zs := make([]float64, nc)
	for i := 0; i < nc; i++ {
		z := dem.TEC[i].Z
		if z == -9999. {
			log.Fatalf(" FromGDEF: no elevation assigned to cell %d", i)
		}
		zs[i] = z
	}

	ctr := gd.Coord[(ny/2)*nx+nx/2]
	lat, _, err := UTM.ToLatLon(ctr.X, ctr.Y, utmZone, "", true)
	if err != nil {
		log.Fatalf(" FromGDEF: %v", err)
	}

	desc, trn, opt := assemble(zs, nx, ny, gd.Cw, lat)

	// leave the drainage build beside the survey inputs for inspection
	if err := ttem.New(trn, gd.Cw).SaveGob(hdemFP + ".tem.gob"); err != nil {
		log.Fatalf(" FromGDEF: %v", err)
	}
	fmt.Printf(" %d x %d cells at %.0f m, %.1f km wide, anchor %.2f°\n", nx, ny, gd.Cw, desc.SizeKm, lat)
	return desc, trn, opt
}

// assemble shapes loaded survey arrays into the simulation trio.
func assemble(zs []float64, nx, ny int, cw, lat float64) (scale.Descriptor, *tgrid.Scalar, *tellus.Options) {
	desc := scale.Descriptor{
		SizeKm: float64(max(nx, ny)) * cw / 1000., // derived cell width must equal the surveyed one
		Nx:     nx,
		Ny:     ny,
		Detail: scale.Standard,
	}
	trn := &tgrid.Scalar{Nx: nx, Ny: ny, V: zs}
	opt := tellus.DefaultOptions()
	opt.Anchored = true
	opt.AnchorDeg = lat
	return desc, trn, &opt
}

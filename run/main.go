package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"runtime"
	"time"

	"github.com/maseology/mmio"

	"github.com/maseology/tellus"
	"github.com/maseology/tellus/grid"
	"github.com/maseology/tellus/postpro"
	"github.com/maseology/tellus/scale"
)

func main() {

	const (
		outdir = "out/"
		szkm   = 250.
		nx, ny = 192, 128
		relief = 1200.
		nt     = 365
	)

	fmt.Println("")
	tt := mmio.NewTimer()
	defer tt.Lap(fmt.Sprintf("\nRun complete. n processes: %v", runtime.GOMAXPROCS(0)))

	// synthetic foothills: a west-high ramp incised by valleys that
	// deepen downslope
	z := grid.NewScalar(nx, ny, 0.)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			r := relief * float64(nx-1-x) / float64(nx-1)
			v := 35. * math.Sin(float64(y)/9.) * float64(x) / float64(nx)
			z.V[z.IX(x, y)] = r + v
		}
	}

	dom, err := tellus.NewDomain(scale.Descriptor{SizeKm: szkm, Nx: nx, Ny: ny, Detail: scale.Standard}, z, nil)
	if err != nil {
		log.Fatalf(" domain build failed: %v", err)
	}
	dom.CheckAndPrint()
	tt.Print("domain build complete\n")

	// a seasonal year: rainfall and air temperature swinging about their
	// reference values
	frc := tellus.ConstantForcing(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nt, 2.7127e-6, 12.)
	for j := range frc.Rain {
		s := math.Sin(2. * math.Pi * float64(j) / 365.)
		frc.Rain[j] *= 1. + .6*s
		frc.Temp[j] = 12. + 14.*s
	}
	frc.CheckAndPrint()
	dom.SetForcing(frc)

	mmio.MakeDir(outdir)
	rpts, err := dom.Evaluate(context.Background(), nt, outdir+"tellus.")
	if err != nil {
		log.Fatalf(" run failed: %v", err)
	}

	coll := postpro.NewCollector(frc.T[0], 24*time.Hour)
	coll.PushAll(rpts)
	coll.WriteCSV(outdir + "tellus.series.csv")
	postpro.Summarize(dom, coll).Print()
}

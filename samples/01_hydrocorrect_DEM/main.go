package main

/*
	scale-invariant multi-physics terrain simulation

    this example imports a regional hydrologically-"correct" digital
    elevation model with its grid definition and spins the coupled
    water and wind engines up from dry
*/

import (
	"context"
	"fmt"
	"log"

	"github.com/maseology/tellus"
	"github.com/maseology/tellus/prep"
)

const (
	indir   = "C:/Users/mason/Desktop/CAMC_5000/"
	gdeffp  = indir + "ORMGP_50_hydrocorrect.uhdem.gdef"
	hdemfp  = indir + "ORMGP_50_hydrocorrect.uhdem"
	utmZone = 17
	nt      = 30
)

func main() {
	desc, trn, opt := prep.FromGDEF(gdeffp, hdemfp, utmZone)
	dom, err := tellus.NewDomain(desc, trn, opt)
	if err != nil {
		log.Fatalf(" domain build failed: %v", err)
	}
	dom.CheckAndPrint()

	for j := 0; j < nt; j++ {
		cr, err := dom.Tick(context.Background())
		if err != nil {
			log.Fatalln(err)
		}
		fmt.Printf(" %d: storage %.4g m³, wind %.2f m/s max\n", cr.Step, cr.Storage, cr.Wind.MaxSpeed)
	}
}

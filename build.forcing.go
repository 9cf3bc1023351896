package tellus

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/maseology/goHydro/gmet"
	"github.com/maseology/mmio"
)

// ConstantForcing repeats one rate pair over nt daily ticks from t0.
func ConstantForcing(t0 time.Time, nt int, rain, temp float64) *Forcing {
	frc := &Forcing{
		T:           make([]time.Time, nt),
		Rain:        make([]float64, nt),
		Temp:        make([]float64, nt),
		IntervalSec: 86400.,
	}
	for j := range nt {
		frc.T[j] = t0.AddDate(0, 0, j)
		frc.Rain[j] = rain
		frc.Temp[j] = temp
	}
	return frc
}

// BuildForcingCsv reads "Date,Value" csv series of daily precipitation
// [m/d] and ambient temperature [°C], intersected on date.
func BuildForcingCsv(rainFP, tempFP string) *Forcing {
	cr, err := mmio.ReadCsvDateFloat(rainFP)
	if err != nil {
		log.Fatalf("BuildForcingCsv error: %v", err)
	}
	ct, err := mmio.ReadCsvDateFloat(tempFP)
	if err != nil {
		log.Fatalf("BuildForcingCsv error: %v", err)
	}
	ks := make([]int64, 0, len(cr))
	for k := range cr {
		if _, ok := ct[k]; ok {
			ks = append(ks, k)
		}
	}
	sort.Slice(ks, func(i, j int) bool { return ks[i] < ks[j] })
	frc := &Forcing{IntervalSec: 86400.}
	for _, k := range ks {
		frc.T = append(frc.T, time.Unix(k, 0).UTC())
		frc.Rain = append(frc.Rain, cr[k])
		frc.Temp = append(frc.Temp, ct[k])
	}
	return frc
}

// BuildForcingNC loads precipitation and air temperature from a NetCDF
// met file, averaged across stations to the single series the kernel
// consumes. Rainfall arrives in [mm] and leaves in [m].
func BuildForcingNC(ncfp string) *Forcing {
	tt := time.Now()
	vars := []string{
		"rainfall_amount",
		"air_temperature",
	}
	fmt.Println("loading: " + ncfp)
	g, err := gmet.LoadNC(ncfp, vars)
	if err != nil {
		log.Fatalf("BuildForcingNC error: %v", err)
	}
	rf := g.GetAllData("rainfall_amount")
	tp := g.GetAllData("air_temperature")

	nts, nsta := g.Nts, len(g.Sids)
	frc := &Forcing{
		T:           g.Ts,
		Rain:        make([]float64, nts),
		Temp:        make([]float64, nts),
		IntervalSec: 86400.,
	}
	if nts > 1 {
		frc.IntervalSec = g.Ts[1].Sub(g.Ts[0]).Seconds()
	}
	for j := 0; j < nts; j++ {
		sr, st, n := 0., 0., 0
		for i := 0; i < nsta; i++ {
			r := rf[i][j]
			if math.IsNaN(r) || r < 0. {
				r = 0.
			}
			sr += r / 1000. // to [m]
			if t := tp[i][j]; !math.IsNaN(t) {
				st += t
				n++
			}
		}
		frc.Rain[j] = sr / float64(nsta)
		if n > 0 {
			frc.Temp[j] = st / float64(n)
		} else {
			frc.Temp[j] = ambBase
		}
	}
	fmt.Printf(" Forcing loaded - %v\n", time.Since(tt))
	return frc
}

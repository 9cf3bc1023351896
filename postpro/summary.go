package postpro

import (
	"fmt"

	"github.com/maseology/mmaths"
	"github.com/maseology/objfunc"

	"github.com/maseology/tellus"
)

// Summary condenses a run to the numbers worth keeping.
type Summary struct {
	Ticks         int
	Violations    int // ticks breaching the closure tolerance
	MassErrMedian float64
	MassErrMean   float64
	MassErrSd     float64
	StorageMean   float64 // [m³]
	StorageSd     float64
	OutflowTotal  float64 // [m³]
	RainTotal     float64 // [m³]
	EvapTotal     float64 // [m³]
	DrainEff      float64 // boundary outflow over net input
	EdgeSatFinal  float64 // closing-tick stored-water fraction near the boundary
	WindKGE       float64 // committed field vs geostrophic baseline
	WindNSE       float64
	WindBias      float64
}

// Effective reports whether the run drained convincingly: every tick
// closed its balance, water is not banked against the boundary, and
// when the run had net input at least a tenth of it left the domain.
func (s Summary) Effective() bool {
	if s.Violations > 0 || s.EdgeSatFinal >= .5 {
		return false
	}
	if net := s.RainTotal - s.EvapTotal; net > 0. {
		return s.DrainEff > .1
	}
	return true
}

// Summarize reduces the collected series and scores the committed wind
// field cell by cell against its geostrophic baseline, the wind the
// pressure field alone would drive.
func Summarize(d *tellus.Domain, c *Collector) Summary {
	s := Summary{Ticks: len(c.R)}
	if s.Ticks == 0 {
		return s
	}
	me := c.MassErr()
	s.MassErrMedian = mmaths.SliceMedian(me)
	s.MassErrMean, s.MassErrSd = objfunc.Meansd(me)
	s.StorageMean, s.StorageSd = objfunc.Meansd(c.Storage())
	for _, r := range c.R {
		if r.Violated {
			s.Violations++
		}
		s.OutflowTotal += r.Outflow()
		s.RainTotal += r.Flow.Rain
		s.EvapTotal += r.Flow.Evap
	}
	if net := s.RainTotal - s.EvapTotal; net > 0. {
		s.DrainEff = s.OutflowTotal / net
	}
	s.EdgeSatFinal = c.R[s.Ticks-1].Flow.EdgeSat

	g := d.Atmos().Geostrophic(d.Climate().G)
	w := d.Atmos().Wind()
	obs, sim := make([]float64, len(g.U)), make([]float64, len(g.U))
	for i := range obs {
		obs[i] = g.Mag(i)
		sim[i] = w.Mag(i)
	}
	s.WindKGE = objfunc.KGE(obs, sim)
	s.WindNSE = objfunc.NSE(obs, sim)
	s.WindBias = objfunc.Bias(obs, sim)
	return s
}

func (s Summary) Print() {
	st := "problematic"
	if s.Effective() {
		st = "effective"
	}
	fmt.Printf(" %d ticks, %d closure violations\n", s.Ticks, s.Violations)
	fmt.Printf("  mass error: median %.2e, mean %.2e ±%.2e\n", s.MassErrMedian, s.MassErrMean, s.MassErrSd)
	fmt.Printf("  storage: %.4g ±%.4g m³; boundary outflow: %.4g m³\n", s.StorageMean, s.StorageSd, s.OutflowTotal)
	fmt.Printf("  drainage %s: efficiency %.1f%%, edge saturation %.1f%%\n", st, s.DrainEff*100., s.EdgeSatFinal*100.)
	fmt.Printf("  wind vs geostrophic: KGE %.3f, NSE %.3f, bias %.3f\n", s.WindKGE, s.WindNSE, s.WindBias)
}

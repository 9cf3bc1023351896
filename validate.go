package tellus

import (
	"github.com/maseology/tellus/atmos"
	"github.com/maseology/tellus/flow"
)

// conserve audits one committed tick. Inputs arrive by value and nothing
// here can reach engine internals, keeping the validator a pure reader.
func conserve(step int, season float64, fr flow.Report, ar atmos.Report) ConservationReport {
	return ConservationReport{
		Step:     step,
		Season:   season,
		Storage:  fr.Store,
		MassErr:  fr.MassErr,
		Momentum: ar.Momentum,
		DivFrac:  ar.DivFrac,
		CflCount: int(fr.CflFrac*float64(fr.Wet) + .5),
		Violated: fr.MassErr > masstol,
		Flow:     fr,
		Wind:     ar,
	}
}

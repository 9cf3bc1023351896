package tellus

import (
	"context"

	"github.com/gosuri/uiprogress"
)

// Evaluate advances nt ticks behind a progress bar, collecting the
// per-tick conservation reports. An output prefix, when given, dumps
// final-state and per-tick series binaries after the run; nothing is
// written while ticks are in flight.
func (d *Domain) Evaluate(ctx context.Context, nt int, outdirprfx string) ([]ConservationReport, error) {
	uiprogress.Start()
	bar := uiprogress.AddBar(nt).AppendCompleted().PrependElapsed()
	rpts := make([]ConservationReport, 0, nt)
	for range nt {
		cr, err := d.Tick(ctx)
		if err != nil {
			uiprogress.Stop()
			return rpts, err
		}
		rpts = append(rpts, cr)
		bar.Incr()
	}
	uiprogress.Stop()

	if len(outdirprfx) > 0 {
		d.saveToBins(rpts, outdirprfx)
	}
	return rpts, nil
}

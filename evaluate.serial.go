package tellus

import "context"

// EvaluateSerial advances nt ticks with the engines run back to back, no
// concurrency. Engine outputs are disjoint, so results match the
// concurrent path exactly; kept for profiling and for pinning down race
// suspicions.
func (d *Domain) EvaluateSerial(ctx context.Context, nt int) ([]ConservationReport, error) {
	rpts := make([]ConservationReport, 0, nt)
	for range nt {
		cr, err := d.tickSerial(ctx)
		if err != nil {
			return rpts, err
		}
		rpts = append(rpts, cr)
	}
	return rpts, nil
}

func (d *Domain) tickSerial(ctx context.Context) (ConservationReport, error) {
	var cr ConservationReport
	if err := ctx.Err(); err != nil {
		return cr, err
	}
	d.prepare()
	if err := ctx.Err(); err != nil {
		return cr, err
	}
	fr, err := d.flw.Tick(ctx)
	if err != nil {
		return cr, err
	}
	ar, err := d.atm.Tick(ctx, d.met.P, d.met.G)
	if err != nil {
		return cr, err
	}
	d.step++
	return conserve(d.step, d.met.Season(), fr, ar), nil
}

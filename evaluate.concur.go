package tellus

import (
	"context"
	"sync"

	"github.com/maseology/tellus/atmos"
	"github.com/maseology/tellus/flow"
	"github.com/maseology/tellus/tem"
)

// Tick advances the world one step: climate and drainage first, then the
// surface-water and wind engines concurrently, then the conservation
// audit. The engines share no data within a tick and each owns its output
// exclusively, so the fan-out needs no locking. Cancellation is honoured
// at phase boundaries only; a cancelled tick returns before any commit,
// leaving every field at its last committed state.
func (d *Domain) Tick(ctx context.Context) (ConservationReport, error) {
	var cr ConservationReport
	if err := ctx.Err(); err != nil {
		return cr, err
	}
	d.prepare()
	if err := ctx.Err(); err != nil {
		return cr, err
	}

	var (
		wg         sync.WaitGroup
		fr         flow.Report
		ar         atmos.Report
		ferr, aerr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		fr, ferr = d.flw.Tick(ctx)
	}()
	go func() {
		defer wg.Done()
		ar, aerr = d.atm.Tick(ctx, d.met.P, d.met.G)
	}()
	wg.Wait()
	if ferr != nil {
		return cr, ferr
	}
	if aerr != nil {
		return cr, aerr
	}

	d.step++
	return conserve(d.step, d.met.Season(), fr, ar), nil
}

// prepare runs the serial head of a tick: forcing overrides, the drainage
// rebuild when terrain changed, and the climate advance.
func (d *Domain) prepare() {
	d.applyForcing()
	if d.dirty {
		d.tm = tem.New(d.trn, d.c.Dx())
		d.flw.SetTerrain(d.trn, d.tm)
		d.met.SetTerrain(d.trn)
		d.dirty = false
	}
	d.met.Step()
}

func (d *Domain) applyForcing() {
	if d.frc == nil || len(d.frc.T) == 0 {
		return
	}
	j := d.step % len(d.frc.T)
	d.flw.P.RainBase = d.frc.Rain[j]
	d.ta = d.frc.Temp[j] - ambBase
}

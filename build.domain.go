package tellus

import (
	"github.com/maseology/tellus/atmos"
	"github.com/maseology/tellus/flow"
	"github.com/maseology/tellus/grid"
	"github.com/maseology/tellus/met"
	"github.com/maseology/tellus/scale"
	"github.com/maseology/tellus/tem"
)

// Options tunes domain construction. Pass nil to NewDomain for the
// scale-derived defaults; a non-nil Options states every choice, so start
// from DefaultOptions and override.
type Options struct {
	Flow      flow.Params
	Wind      atmos.Params
	Rain      scale.RainScaling
	Anchored  bool    // pin the latitude centre to AnchorDeg
	AnchorDeg float64 // [°], used when Anchored
}

func DefaultOptions() Options {
	return Options{
		Flow: flow.Default(),
		Wind: atmos.Default(),
		Rain: scale.MassConserving,
	}
}

// NewDomain validates the descriptor and its agreement with the terrain
// grid, then builds the drainage accumulation, the climate collaborator,
// and both engines. All rejection happens here; once a Domain exists,
// ticks run without fatal conditions.
func NewDomain(desc scale.Descriptor, terrain *grid.Scalar, opt *Options) (*Domain, error) {
	o := DefaultOptions()
	if opt != nil {
		o = *opt
	}
	c, err := scale.New(desc)
	if err != nil {
		return nil, &ConfigurationError{Field: "descriptor", Err: err}
	}
	if terrain == nil {
		return nil, confErr("terrain", "nil elevation grid")
	}
	if terrain.Nx != desc.Nx || terrain.Ny != desc.Ny {
		return nil, confErr("terrain", "elevation grid %dx%d does not match descriptor resolution %dx%d",
			terrain.Nx, terrain.Ny, desc.Nx, desc.Ny)
	}
	c = c.WithRain(o.Rain)
	if o.Anchored {
		c = c.WithAnchor(o.AnchorDeg)
	}

	d := &Domain{c: c, trn: terrain.Clone()}
	d.tm = tem.New(d.trn, c.Dx())
	d.met = met.New(c, d.trn)
	d.flw = flow.New(c, d.trn, d.tm, o.Flow)
	d.atm = atmos.New(c, o.Wind)
	d.flw.SetEvapMultiplier(func(i int) float64 {
		return met.EvapFactor(d.met.T.V[i] + d.ta)
	})
	return d, nil
}

// SetTerrain swaps in a new elevation snapshot mid-run, as an erosion or
// editing collaborator would after reshaping the surface. Drainage
// accumulation depends only on terrain, so it rebuilds once on the next
// tick rather than in the caller's frame.
func (d *Domain) SetTerrain(terrain *grid.Scalar) error {
	if terrain == nil || terrain.Nx != d.trn.Nx || terrain.Ny != d.trn.Ny {
		return confErr("terrain", "elevation grid does not match the %dx%d domain", d.trn.Nx, d.trn.Ny)
	}
	d.trn = terrain.Clone()
	d.dirty = true
	return nil
}

// SetForcing binds a per-tick forcing series; series shorter than a run
// wrap around. A nil series stops further overrides and clears the
// ambient temperature shift.
func (d *Domain) SetForcing(frc *Forcing) {
	d.frc = frc
	if frc == nil {
		d.ta = 0.
	}
}

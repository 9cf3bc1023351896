package tellus

import (
	"fmt"

	"github.com/maseology/tellus/atmos"
	"github.com/maseology/tellus/flow"
	"github.com/maseology/tellus/grid"
	"github.com/maseology/tellus/met"
	"github.com/maseology/tellus/scale"
	"github.com/maseology/tellus/tem"
)

// Domain owns one simulated world: the terrain snapshot, the drainage
// accumulation derived from it, the climate collaborator, and the two
// engines. The engines never see each other; they share the scale context
// and read-only snapshots only, so multiple domains run side by side
// without interference.
type Domain struct {
	c   *scale.Context
	trn *grid.Scalar
	tm  *tem.TEM
	met *met.Met
	flw *flow.Engine
	atm *atmos.Engine

	frc   *Forcing
	ta    float64 // ambient temperature shift from forcing [°C]
	step  int
	dirty bool // terrain swapped; rebuild drainage next tick
}

func (d *Domain) Scale() *scale.Context { return d.c }
func (d *Domain) Terrain() *grid.Scalar { return d.trn }
func (d *Domain) Drainage() *tem.TEM    { return d.tm }
func (d *Domain) Climate() *met.Met     { return d.met }
func (d *Domain) Flow() *flow.Engine    { return d.flw }
func (d *Domain) Atmos() *atmos.Engine  { return d.atm }

// Step returns the number of committed ticks.
func (d *Domain) Step() int { return d.step }

// CheckAndPrint summarizes the built domain.
func (d *Domain) CheckAndPrint() {
	dsc := d.c.Desc()
	fmt.Println("Domain summary:")
	fmt.Printf(" %d x %d cells over %.0f km (dx %.1f m, %s detail)\n",
		dsc.Nx, dsc.Ny, dsc.SizeKm, d.c.Dx(), dsc.Detail)
	fmt.Printf(" latitude %.2f±%.2f°, rainfall scaling %s\n",
		d.c.Center(), d.c.Range()/2., d.c.Rain())
	zn, zx := d.trn.MinMax()
	fmt.Printf(" relief %.1f to %.1f m, %d drainage outlets\n",
		zn, zx, len(d.tm.Outlets()))
	fmt.Printf(" flow: %s algorithm, dt %.1fs; wind budget %.0f m/s\n",
		d.flw.P.Algorithm, d.flw.Dt(), d.c.MomentumThreshold())
}

package tellus

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/maseology/tellus/grid"
	"github.com/maseology/tellus/scale"
)

// domainGob is the persisted form of a built domain: everything needed to
// reconstruct it, none of the run state. A loaded domain starts at tick
// zero with the drainage accumulation rebuilt from the terrain.
type domainGob struct {
	Desc    scale.Descriptor
	Opt     Options
	Terrain []float64
	Frc     *Forcing
}

// SaveGob persists the domain's construction state.
func (d *Domain) SaveGob(fp string) error {
	f, err := os.Create(fp)
	if err != nil {
		return fmt.Errorf(" Domain.SaveGob %v", err)
	}
	g := domainGob{
		Desc: d.c.Desc(),
		Opt: Options{
			Flow:      d.flw.P,
			Wind:      d.atm.P,
			Rain:      d.c.Rain(),
			Anchored:  true,
			AnchorDeg: d.c.Center(),
		},
		Terrain: d.trn.V,
		Frc:     d.frc,
	}
	if err := gob.NewEncoder(f).Encode(g); err != nil {
		return fmt.Errorf(" Domain.SaveGob %v", err)
	}
	f.Close()
	return nil
}

// LoadGobDomain rebuilds a domain from its persisted construction state.
func LoadGobDomain(fp string) (*Domain, error) {
	f, err := os.Open(fp)
	if err != nil {
		return nil, err
	}
	var g domainGob
	if err := gob.NewDecoder(f).Decode(&g); err != nil {
		return nil, err
	}
	f.Close()
	d, err := NewDomain(g.Desc, &grid.Scalar{Nx: g.Desc.Nx, Ny: g.Desc.Ny, V: g.Terrain}, &g.Opt)
	if err != nil {
		return nil, err
	}
	if g.Frc != nil {
		d.SetForcing(g.Frc)
	}
	return d, nil
}

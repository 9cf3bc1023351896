package tellus

import (
	"encoding/gob"
	"fmt"
	"os"
	"time"
)

// Forcing carries externally supplied per-tick boundary conditions: the
// precipitation rate handed to the flow engine and the ambient
// temperature shifting the evaporation basis. Series shorter than a run
// wrap around.
type Forcing struct {
	T           []time.Time // [tick]
	Rain        []float64   // precipitation [m/tick at reference resolution]
	Temp        []float64   // ambient temperature [°C]
	IntervalSec float64
}

func (frc *Forcing) CheckAndPrint() {
	nt := len(frc.T)
	fmt.Println("Forcing summary:")
	fmt.Printf(" %v to %v (%d timesteps, %ds interval)\n",
		frc.T[0], frc.T[nt-1], nt, int64(frc.IntervalSec))
	sr, st := 0., 0.
	for j := range frc.T {
		sr += frc.Rain[j]
		st += frc.Temp[j]
	}
	fmt.Printf(" totals (/yr): rain: %.5f m   mean ambient: %.2f°C\n",
		sr*365.24*86400./(frc.IntervalSec*float64(nt)), st/float64(nt))
}

func (frc *Forcing) SaveGob(fp string) error {
	f, err := os.Create(fp)
	if err != nil {
		return fmt.Errorf(" forcing.SaveGob %v", err)
	}
	if err := gob.NewEncoder(f).Encode(frc); err != nil {
		return fmt.Errorf(" forcing.SaveGob %v", err)
	}
	f.Close()
	return nil
}

func LoadGobForcing(fp string) (*Forcing, error) {
	var frc Forcing
	f, err := os.Open(fp)
	if err != nil {
		return nil, err
	}
	enc := gob.NewDecoder(f)
	err = enc.Decode(&frc)
	if err != nil {
		return nil, err
	}
	f.Close()
	return &frc, nil
}

package tellus

// saveToBins dumps the committed final state and per-tick series as flat
// little-endian binaries, one float32 per cell or per tick.
func (d *Domain) saveToBins(rpts []ConservationReport, outdirprfx string) {
	nt := len(rpts)
	hyd, mer := make([]float64, nt), make([]float64, nt)
	for j := range rpts {
		hyd[j] = rpts[j].Outflow()
		mer[j] = rpts[j].MassErr
	}
	writeFloats(outdirprfx+"hyd.bin", hyd)
	writeFloats(outdirprfx+"masserr.bin", mer)

	writeFloats(outdirprfx+"dep.bin", d.flw.Depth().Values())
	u, v := d.flw.Velocity()
	writeFloats(outdirprfx+"velu.bin", u.Values())
	writeFloats(outdirprfx+"velv.bin", v.Values())
	w := d.atm.Wind()
	writeFloats(outdirprfx+"wndu.bin", w.U)
	writeFloats(outdirprfx+"wndv.bin", w.V)
	writeFloats(outdirprfx+"pres.bin", d.met.P.V)
	writeFloats(outdirprfx+"temp.bin", d.met.T.V)
	writeInts(outdirprfx+"sws.bin", d.tm.Sws)
	writeInts(outdirprfx+"upcnt.bin", d.tm.Upcnt)
}

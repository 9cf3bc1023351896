// Package tellus is a scale-invariant multi-physics kernel for procedural
// worlds: a hydrological flow engine and an atmospheric wind engine advance
// together over a shared terrain snapshot, with every tunable derived from
// one physical-scale descriptor so a 1 km test plot and a 15000 km planet
// run the same code paths.
//
// A Domain owns the engines and their collaborators (drainage accumulation,
// synthetic climate) and steps them as phased ticks: climate first, then
// surface water and wind concurrently over read-only snapshots, then a
// conservation audit. Engine fields are double-buffered and swap only on
// completion, so a cancelled tick always leaves the last committed state
// visible.
package tellus

const (
	nearzero = 1e-8
	masstol  = .01 // relative mass-closure tolerance per tick
	ambBase  = 15. // standard-atmosphere surface temperature [°C]
)

package flow

// Algorithm selects how cell velocities are produced each tick.
type Algorithm int

const (
	// Simple diagnoses velocity from the water-surface slope every tick.
	Simple Algorithm = iota
	// Conservation carries velocity state forward, integrating the
	// momentum form with semi-implicit Manning friction.
	Conservation
)

func (a Algorithm) String() string {
	if a == Conservation {
		return "conservation"
	}
	return "simple"
}

const (
	gravity    = 9.80665   // [m/s²]
	nearzero   = 1e-8      // [m³] conservation denominators
	depthFloor = 1e-6      // [m] wet/dry cutoff
	refRain    = 2.7127e-6 // [m/tick] reference-scale rainfall
	masstol    = .01       // relative closure tolerance
)

// Params collects the tunables of the flow engine. Build from Default()
// or a preset and override; a zero-valued Params runs but moves nothing.
type Params struct {
	Algorithm   Algorithm
	FlowRate    float64 // slope-to-velocity rate [m/s per unit slope]
	K           float64 // drainage concentration coefficient; 0 disables
	CflSafety   float64 // Courant safety fraction
	RainBase    float64 // reference rainfall [m/tick], scaled by the rain variant
	EvapRate    float64 // evaporated depth fraction [1/tick]
	Damping     float64 // boundary normal-velocity damping
	SoftCap     float64 // [m/s] speeds above are rescaled gently
	HardCap     float64 // [m/s] absolute clamp
	Manning     float64 // roughness n for the Conservation variant
	MaxSubsteps int
	Dt          float64 // tick step [s]; 0 derives one from scale
}

// Default mid-road parameter set.
func Default() Params {
	return Params{
		Algorithm:   Simple,
		FlowRate:    .1,
		K:           5000.,
		CflSafety:   .35,
		RainBase:    refRain,
		EvapRate:    .001,
		Damping:     .5,
		SoftCap:     10.,
		HardCap:     20.,
		Manning:     .035,
		MaxSubsteps: 50,
	}
}

// Interactive favours responsiveness over channel development.
func Interactive() Params {
	p := Default()
	p.K = 1000.
	p.CflSafety = .5
	return p
}

// Climate suits long-horizon runs where stability beats detail.
func Climate() Params {
	p := Default()
	p.K = 1000.
	return p
}

// Geological exaggerates concentration for erosion-timescale behaviour.
func Geological() Params {
	p := Default()
	p.K = 10000.
	p.CflSafety = .25
	return p
}

// LargeScale picks concentration by cell count: fine grids resolve
// channels on their own and need less help.
func LargeScale(nc int) Params {
	p := Default()
	if nc >= 1<<16 {
		p.K = 3000.
	} else {
		p.K = 8000.
	}
	return p
}

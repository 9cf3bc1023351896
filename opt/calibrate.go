package opt

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/maseology/glbopt"
	"github.com/maseology/mmaths"
	mrg63k3a "github.com/maseology/goRNG/MRG63k3a"

	"github.com/maseology/tellus/flow"
)

// CalibrateK line-searches the drainage concentration coefficient alone,
// holding the remaining tunables at p.
func CalibrateK(b Bench, p flow.Params) (k, of float64) {
	gen := func(u []float64) float64 {
		pc := p
		pc.K = mmaths.LogLinearTransform(kLo, kHi, u[0])
		return b.objective(pc)
	}
	u, y := glbopt.Fibonacci(gen)
	k, of = mmaths.LogLinearTransform(kLo, kHi, u), y
	return
}

// Calibrate runs shuffled complex evolution over the Par3 space, starting
// every candidate from p. Returns the best parameterization found and its
// objective value.
func Calibrate(b Bench, p flow.Params, ncmplx int) (flow.Params, float64) {
	if ncmplx < 1 {
		ncmplx = 1
	}
	fmt.Println(" optimizing..")
	rng := rand.New(mrg63k3a.New())
	rng.Seed(time.Now().UnixNano())
	gen := func(u []float64) float64 {
		pc := p
		pc.K, pc.FlowRate, pc.CflSafety = Par3(u)
		return b.objective(pc)
	}
	uFinal, yFinal := glbopt.SCE(ncmplx, npar, rng, gen, true)
	p.K, p.FlowRate, p.CflSafety = Par3(uFinal)
	fmt.Printf(" SCE best: of = %f (k=%.0f flowrate=%.3f cflsafety=%.3f)\n", yFinal, p.K, p.FlowRate, p.CflSafety)
	return p, yFinal
}

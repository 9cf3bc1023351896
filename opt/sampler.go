package opt

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/maseology/mmaths"
	"github.com/maseology/mmio"
	"github.com/maseology/montecarlo/smpln"
	mrg63k3a "github.com/maseology/goRNG/MRG63k3a"

	"github.com/maseology/tellus/flow"
)

const npar = 3 // dimension of the Par3 sample space

// concentration coefficient search bounds
const kLo, kHi = 500., 20000.

// Par3 maps a unit sample onto the flow tunables under calibration.
func Par3(u []float64) (k, flowRate, cflSafety float64) {
	k = mmaths.LogLinearTransform(kLo, kHi, u[0]) // drainage concentration coefficient -- NOTE 0 would disable channelization, never sampled
	flowRate = mmaths.LinearTransform(.01, 1., u[1])
	cflSafety = mmaths.LinearTransform(.25, .5, u[2]) // Courant safety fraction
	return
}

// Sample draws an n-run latin hypercube over the Par3 space, evaluates
// every parameterization against the benchmark, and writes the sample
// plan and the ranked outcomes beside outdirprfx. Returns the best
// parameterization found and its objective value.
func Sample(b Bench, p flow.Params, n, nwrkrs int, outdirprfx string) (flow.Params, float64) {
	if n < 1 {
		n = 1
	}
	if nwrkrs < 1 {
		nwrkrs = 1
	}

	// build sampling plan
	rng := rand.New(mrg63k3a.New())
	rng.Seed(time.Now().UnixNano())
	sp := smpln.NewLHC(rng, n, npar, false)
	uk := func(k int) []float64 {
		ut := make([]float64, npar)
		for j := 0; j < npar; j++ {
			ut[j] = sp.U[j][k]
		}
		return ut
	}

	func() { // save sample space
		lns := make([]string, n)
		for k := 0; k < n; k++ {
			lns[k] = fmt.Sprint(k)
			for j := 0; j < npar; j++ {
				lns[k] += fmt.Sprintf(",%f", sp.U[j][k])
			}
		}
		mmio.WriteLines(outdirprfx+"samplespace.csv", lns)
	}()

	ofs := make([]float64, n)
	jobs := make(chan int, n)
	var wg sync.WaitGroup
	wg.Add(nwrkrs)
	for w := 0; w < nwrkrs; w++ {
		go func() {
			defer wg.Done()
			for k := range jobs {
				pc := p
				pc.K, pc.FlowRate, pc.CflSafety = Par3(uk(k))
				ofs[k] = b.objective(pc)
				fmt.Printf(" sample %d: of = %f\n", k, ofs[k])
			}
		}()
	}
	for k := 0; k < n; k++ {
		jobs <- k
	}
	close(jobs)
	wg.Wait()

	rnk := make([]int, n)
	for k := range rnk {
		rnk[k] = k
	}
	sort.Slice(rnk, func(i, j int) bool { return ofs[rnk[i]] < ofs[rnk[j]] })

	lns := make([]string, n+1)
	lns[0] = "rank,sample,of,k,flowrate,cflsafety"
	for i, k := range rnk {
		kk, fr, cs := Par3(uk(k))
		lns[i+1] = fmt.Sprintf("%d,%d,%f,%f,%f,%f", i, k, ofs[k], kk, fr, cs)
	}
	mmio.WriteLines(outdirprfx+"samples.csv", lns)

	best := rnk[0]
	p.K, p.FlowRate, p.CflSafety = Par3(uk(best))
	fmt.Printf(" best sample %d: of = %f (k=%.0f flowrate=%.3f cflsafety=%.3f)\n", best, ofs[best], p.K, p.FlowRate, p.CflSafety)
	return p, ofs[best]
}

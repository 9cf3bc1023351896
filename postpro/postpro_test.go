package postpro

import (
	"context"
	"math"
	"os"
	"testing"
	"time"

	"github.com/maseology/tellus"
	"github.com/maseology/tellus/grid"
	"github.com/maseology/tellus/scale"
)

func testRun(t *testing.T) (*tellus.Domain, []tellus.ConservationReport) {
	t.Helper()
	nx, ny := 16, 12
	z := grid.NewScalar(nx, ny, 0.)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			z.V[z.IX(x, y)] = 80. * float64(nx-1-x) / float64(nx-1)
		}
	}
	o := tellus.DefaultOptions()
	o.Rain = scale.PerCell
	o.Flow.RainBase = 1e-4
	d, err := tellus.NewDomain(scale.Descriptor{SizeKm: 8., Nx: nx, Ny: ny, Detail: scale.Standard}, z, &o)
	if err != nil {
		t.Fatal(err)
	}
	rpts := make([]tellus.ConservationReport, 0, 5)
	ctx := context.Background()
	for j := 0; j < 5; j++ {
		r, err := d.Tick(ctx)
		if err != nil {
			t.Fatal(err)
		}
		rpts = append(rpts, r)
	}
	return d, rpts
}

func TestCollectorDatesTheSeries(t *testing.T) {
	_, rpts := testRun(t)
	c := NewCollector(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 24*time.Hour)
	c.PushAll(rpts)
	if len(c.T) != 5 || len(c.R) != 5 {
		t.Fatalf("collector holds %d/%d entries, want 5", len(c.T), len(c.R))
	}
	if got := c.T[3].Sub(c.T[0]); got != 72*time.Hour {
		t.Fatalf("tick spacing off: %v", got)
	}
	sto := c.Storage()
	for i, r := range rpts {
		if sto[i] != r.Storage {
			t.Fatalf("storage series diverges at tick %d", i)
		}
	}
	if sto[0] <= 0. {
		t.Fatalf("dry fixture: storage %f", sto[0])
	}
}

func TestWriteCSVProducesAFile(t *testing.T) {
	_, rpts := testRun(t)
	c := NewCollector(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 24*time.Hour)
	c.PushAll(rpts)
	fp := t.TempDir() + "/run.csv"
	c.WriteCSV(fp)
	fi, err := os.Stat(fp)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() == 0 {
		t.Fatal("empty csv")
	}
}

func TestSummarizeScoresTheRun(t *testing.T) {
	d, rpts := testRun(t)
	c := NewCollector(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 24*time.Hour)
	c.PushAll(rpts)
	s := Summarize(d, c)
	if s.Ticks != 5 || s.Violations > s.Ticks {
		t.Fatalf("bad counts: %d ticks, %d violations", s.Ticks, s.Violations)
	}
	if s.StorageMean <= 0. || s.StorageSd < 0. {
		t.Fatalf("storage stats: %f ±%f", s.StorageMean, s.StorageSd)
	}
	if math.IsNaN(s.MassErrMedian) || s.MassErrMedian < 0. || s.MassErrMean < 0. {
		t.Fatalf("mass error stats: median %f, mean %f", s.MassErrMedian, s.MassErrMean)
	}
	if s.OutflowTotal < 0. {
		t.Fatalf("negative outflow total: %f", s.OutflowTotal)
	}
	if s.RainTotal <= 0. || s.DrainEff <= 0. {
		t.Fatalf("rainy ramp fixture must shed something: rain %f, efficiency %f", s.RainTotal, s.DrainEff)
	}
	if s.EdgeSatFinal <= 0. || s.EdgeSatFinal > 1.+1e-9 {
		t.Fatalf("edge saturation out of range: %f", s.EdgeSatFinal)
	}
	if math.IsNaN(s.WindKGE) || s.WindKGE > 1.+1e-9 || s.WindNSE > 1.+1e-9 {
		t.Fatalf("wind skill out of range: KGE %f, NSE %f", s.WindKGE, s.WindNSE)
	}

	if z := Summarize(d, NewCollector(time.Now(), time.Hour)); z.Ticks != 0 {
		t.Fatalf("empty collector summarized to %d ticks", z.Ticks)
	}
}

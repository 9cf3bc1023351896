package tellus

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/maseology/tellus/grid"
	"github.com/maseology/tellus/scale"
)

func rampTerrain(nx, ny int, drop float64) *grid.Scalar {
	z := grid.NewScalar(nx, ny, 0.)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			z.V[y*nx+x] = drop * float64(nx-1-x) / float64(nx-1)
		}
	}
	return z
}

func testDomain(t *testing.T, nx, ny int, szkm float64, opt *Options) *Domain {
	t.Helper()
	d, err := NewDomain(
		scale.Descriptor{SizeKm: szkm, Nx: nx, Ny: ny, Detail: scale.Standard},
		rampTerrain(nx, ny, 50.), opt)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func wetOptions() *Options {
	o := DefaultOptions()
	o.Rain = scale.PerCell
	o.Flow.RainBase = 1e-5
	return &o
}

func TestNewDomainRejectsBadDescriptor(t *testing.T) {
	_, err := NewDomain(scale.Descriptor{SizeKm: -5., Nx: 8, Ny: 8}, rampTerrain(8, 8, 10.), nil)
	if err == nil {
		t.Fatal("negative domain size must be rejected")
	}
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("want ConfigurationError, got %T: %v", err, err)
	}
	if !errors.Is(err, scale.ErrInvalidScale) {
		t.Fatalf("descriptor rejection should carry the scale error: %v", err)
	}
}

func TestNewDomainRejectsDimMismatch(t *testing.T) {
	_, err := NewDomain(scale.Descriptor{SizeKm: 64., Nx: 16, Ny: 16}, rampTerrain(8, 8, 10.), nil)
	if err == nil {
		t.Fatal("terrain/descriptor dimension mismatch must be rejected")
	}
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("want ConfigurationError, got %T: %v", err, err)
	}
	if ce.Field != "terrain" {
		t.Fatalf("mismatch should blame the terrain, got %q", ce.Field)
	}
}

func TestTickPopulatesReports(t *testing.T) {
	d := testDomain(t, 16, 16, 64., wetOptions())
	ctx := context.Background()

	var last ConservationReport
	for j := 1; j <= 5; j++ {
		cr, err := d.Tick(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if cr.Step != j {
			t.Fatalf("tick %d reported step %d", j, cr.Step)
		}
		last = cr
	}
	if d.Step() != 5 {
		t.Fatalf("domain should count 5 committed ticks, got %d", d.Step())
	}
	if last.Storage <= 0. {
		t.Fatal("five rainy ticks should leave water on the grid")
	}
	if last.MassErr > masstol {
		t.Fatalf("gentle ramp should close its water balance, err %g", last.MassErr)
	}
	if last.Momentum <= 0. {
		t.Fatal("thermal pressure anomalies should raise some wind")
	}
	if last.Season <= 0. {
		t.Fatal("seasons should advance with ticks")
	}
	if last.Flow.Rain <= 0. {
		t.Fatal("flow report should carry the rain volume")
	}
}

func TestCancelKeepsLastValid(t *testing.T) {
	d := testDomain(t, 16, 16, 64., wetOptions())
	for range 3 {
		if _, err := d.Tick(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	store := d.Flow().Storage()
	wind := d.Atmos().Wind().SumMag()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Tick(ctx); err == nil {
		t.Fatal("a cancelled tick must return the context error")
	}
	if got := d.Flow().Storage(); got != store {
		t.Fatalf("cancelled tick changed storage: %g to %g", store, got)
	}
	if got := d.Atmos().Wind().SumMag(); got != wind {
		t.Fatalf("cancelled tick changed wind: %g to %g", wind, got)
	}
	if d.Step() != 3 {
		t.Fatalf("cancelled tick must not count, got %d", d.Step())
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	dp := testDomain(t, 24, 16, 96., wetOptions())
	ds := testDomain(t, 24, 16, 96., wetOptions())
	ctx := context.Background()

	var rp, rs []ConservationReport
	for range 10 {
		cr, err := dp.Tick(ctx)
		if err != nil {
			t.Fatal(err)
		}
		rp = append(rp, cr)
	}
	rs, err := ds.EvaluateSerial(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}

	for j := range rp {
		if rp[j].Storage != rs[j].Storage || rp[j].MassErr != rs[j].MassErr || rp[j].Momentum != rs[j].Momentum {
			t.Fatalf("tick %d diverged: storage %g vs %g, mass %g vs %g, momentum %g vs %g",
				j, rp[j].Storage, rs[j].Storage, rp[j].MassErr, rs[j].MassErr, rp[j].Momentum, rs[j].Momentum)
		}
	}
	hp, hs := dp.Flow().Depth().Values(), ds.Flow().Depth().Values()
	for i := range hp {
		if hp[i] != hs[i] {
			t.Fatalf("depth fields diverged at cell %d: %g vs %g", i, hp[i], hs[i])
		}
	}
	wp, ws := dp.Atmos().Wind(), ds.Atmos().Wind()
	for i := range wp.U {
		if wp.U[i] != ws.U[i] || wp.V[i] != ws.V[i] {
			t.Fatalf("wind fields diverged at cell %d", i)
		}
	}
}

func TestSetTerrainRebuildsDrainageOnce(t *testing.T) {
	d := testDomain(t, 16, 16, 64., wetOptions())
	tm0 := d.Drainage()

	// reversed ramp drains west
	rev := grid.NewScalar(16, 16, 0.)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			rev.V[y*16+x] = 50. * float64(x) / 15.
		}
	}
	if err := d.SetTerrain(rev); err != nil {
		t.Fatal(err)
	}
	if d.Drainage() != tm0 {
		t.Fatal("drainage should rebuild on the next tick, not during SetTerrain")
	}
	if _, err := d.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	tm1 := d.Drainage()
	if tm1 == tm0 {
		t.Fatal("tick after SetTerrain should rebuild drainage")
	}
	i := 8*16 + 8
	ds, _ := tm1.Receivers(i)
	if len(ds) != 1 || ds[0] != int32(i-1) {
		t.Fatalf("reversed ramp should drain west, receivers %v", ds)
	}

	if err := d.SetTerrain(grid.NewScalar(8, 8, 0.)); err == nil {
		t.Fatal("mismatched replacement terrain must be rejected")
	}
}

func TestForcingOverrides(t *testing.T) {
	d := testDomain(t, 16, 16, 64., wetOptions())
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	d.SetForcing(ConstantForcing(t0, 4, .002, 25.))

	if _, err := d.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	if d.Flow().P.RainBase != .002 {
		t.Fatalf("forcing should drive the rain rate, got %g", d.Flow().P.RainBase)
	}
	if d.ta != 10. {
		t.Fatalf("25°C ambient should shift the evaporation basis by 10°C, got %g", d.ta)
	}
	d.SetForcing(nil)
	if d.ta != 0. {
		t.Fatal("clearing the forcing should clear the ambient shift")
	}
}

func TestEvaluateWritesBins(t *testing.T) {
	d := testDomain(t, 16, 16, 64., wetOptions())
	prfx := t.TempDir() + "/run-"
	rpts, err := d.Evaluate(context.Background(), 3, prfx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rpts) != 3 {
		t.Fatalf("want 3 reports, got %d", len(rpts))
	}
	for _, fn := range []string{"hyd.bin", "masserr.bin", "dep.bin", "wndu.bin", "pres.bin", "sws.bin"} {
		fi, err := os.Stat(prfx + fn)
		if err != nil {
			t.Fatalf("missing output %s: %v", fn, err)
		}
		if fi.Size() == 0 {
			t.Fatalf("empty output %s", fn)
		}
	}
}

func TestDomainGobRoundTrip(t *testing.T) {
	d := testDomain(t, 16, 16, 64., wetOptions())
	d.SetForcing(ConstantForcing(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 8, .001, 18.))
	fp := t.TempDir() + "/domain.gob"
	if err := d.SaveGob(fp); err != nil {
		t.Fatal(err)
	}
	d2, err := LoadGobDomain(fp)
	if err != nil {
		t.Fatal(err)
	}
	if d2.Scale().Desc() != d.Scale().Desc() {
		t.Fatal("descriptor should survive the round trip")
	}
	for i, z := range d.Terrain().V {
		if d2.Terrain().V[i] != z {
			t.Fatalf("terrain diverged at cell %d", i)
		}
	}
	if d2.frc == nil || len(d2.frc.T) != 8 {
		t.Fatal("forcing should survive the round trip")
	}

	// both start at tick zero; their first ticks must agree exactly
	r1, err := d.Tick(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	r2, err := d2.Tick(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if r1.Storage != r2.Storage || r1.Momentum != r2.Momentum {
		t.Fatalf("loaded domain diverged on first tick: %g vs %g, %g vs %g",
			r1.Storage, r2.Storage, r1.Momentum, r2.Momentum)
	}
}

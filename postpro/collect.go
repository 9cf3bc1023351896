// Package postpro collects per-tick conservation reports into dated time
// series and condenses a finished run into summary skill measures.
package postpro

import (
	"time"

	"github.com/maseology/mmio"

	"github.com/maseology/tellus"
)

// Collector accumulates per-tick reports against synthetic timestamps so
// downstream series tooling can treat a run like any gauged record.
type Collector struct {
	T []time.Time
	R []tellus.ConservationReport

	t0    time.Time
	intvl time.Duration
}

// NewCollector timestamps tick j as t0 + j*intvl.
func NewCollector(t0 time.Time, intvl time.Duration) *Collector {
	return &Collector{t0: t0, intvl: intvl}
}

func (c *Collector) Push(r tellus.ConservationReport) {
	c.T = append(c.T, c.t0.Add(time.Duration(len(c.R))*c.intvl))
	c.R = append(c.R, r)
}

func (c *Collector) PushAll(rs []tellus.ConservationReport) {
	for _, r := range rs {
		c.Push(r)
	}
}

func (c *Collector) series(f func(tellus.ConservationReport) float64) []float64 {
	a := make([]float64, len(c.R))
	for i, r := range c.R {
		a[i] = f(r)
	}
	return a
}

// Storage committed stored volume series [m³].
func (c *Collector) Storage() []float64 {
	return c.series(func(r tellus.ConservationReport) float64 { return r.Storage })
}

// Outflow per-tick boundary outflow series [m³].
func (c *Collector) Outflow() []float64 {
	return c.series(func(r tellus.ConservationReport) float64 { return r.Outflow() })
}

// MassErr relative closure error series.
func (c *Collector) MassErr() []float64 {
	return c.series(func(r tellus.ConservationReport) float64 { return r.MassErr })
}

// Momentum wind momentum series.
func (c *Collector) Momentum() []float64 {
	return c.series(func(r tellus.ConservationReport) float64 { return r.Momentum })
}

// EdgeSat near-boundary stored-water fraction series.
func (c *Collector) EdgeSat() []float64 {
	return c.series(func(r tellus.ConservationReport) float64 { return r.Flow.EdgeSat })
}

// WriteCSV writes the collected series to a date-indexed csv.
func (c *Collector) WriteCSV(fp string) {
	mmio.WriteCsvDateFloats(fp, "date,storage,outflow,masserr,momentum,edgesat",
		c.T, c.Storage(), c.Outflow(), c.MassErr(), c.Momentum(), c.EdgeSat())
}

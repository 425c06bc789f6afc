package core

import (
	"runtime"
	"sync"
)

// LightCurveEngine evaluates relative flux for an orbit under a limb
// darkening model. Both inputs are immutable after construction, so one
// engine may serve concurrent batch evaluations.
type LightCurveEngine struct {
	Orbit *Orbit
	Model *LimbDarkModel

	// Workers bounds the goroutines used by batch evaluation. Zero means
	// one per CPU.
	Workers int
}

func NewLightCurveEngine(o *Orbit, ld *LimbDarkModel) *LightCurveEngine {
	return &LightCurveEngine{Orbit: o, Model: ld}
}

// FluxAt returns the relative system flux at time t. Occultations behind
// the star (secondary-eclipse geometry) leave the flux at 1; only the
// body passing in front of the disk attenuates it.
func (e *LightCurveEngine) FluxAt(t float64) float64 {
	pos := e.Orbit.RelativePosition(t)
	if !pos.InFront() {
		return 1
	}
	return e.Model.Flux(pos.ProjectedSeparation(), e.Orbit.RpRs)
}

// WorkerBound reports the number of worker goroutines a batch of n
// samples uses under the current Workers setting.
func (e *LightCurveEngine) WorkerBound(n int) int {
	workers := e.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}
	return workers
}

// LightCurve evaluates the flux at every timestamp. Large batches are
// split into contiguous chunks, one worker goroutine per chunk; each
// chunk writes a disjoint slice of the result, so no locking is needed.
func (e *LightCurveEngine) LightCurve(ts []float64) []float64 {
	out := make([]float64, len(ts))

	workers := e.WorkerBound(len(ts))
	if workers <= 1 {
		for i, t := range ts {
			out[i] = e.FluxAt(t)
		}
		return out
	}

	chunk := (len(ts) + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < len(ts); start += chunk {
		end := start + chunk
		if end > len(ts) {
			end = len(ts)
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				out[i] = e.FluxAt(ts[i])
			}
		}(start, end)
	}
	wg.Wait()
	return out
}

// Separations returns the projected star-planet separation at every
// timestamp, in stellar radii. Useful for inspecting transit geometry
// without evaluating the flux model.
func (e *LightCurveEngine) Separations(ts []float64) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = e.Orbit.RelativePosition(t).ProjectedSeparation()
	}
	return out
}

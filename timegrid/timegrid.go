// Package timegrid builds and manipulates the observation timestamp
// grids that light curves are evaluated on. Times are in days, matching
// the orbit unit system.
package timegrid

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrEmptyGrid    = errors.New("grid must contain at least one sample")
	ErrInvertedGrid = errors.New("grid start must not exceed stop")
	ErrBadPeriod    = errors.New("fold period must be positive")
	ErrBadCadence   = errors.New("cadence must be positive")
	ErrNotMonotonic = errors.New("timestamps must be non-decreasing")
)

// Grid is an immutable ordered set of observation timestamps.
type Grid struct {
	times []float64
}

// Uniform returns n evenly spaced samples spanning [start, stop]
// inclusive. A single sample sits at start.
func Uniform(start, stop float64, n int) (*Grid, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: n = %d", ErrEmptyGrid, n)
	}
	if start > stop {
		return nil, fmt.Errorf("%w: [%v, %v]", ErrInvertedGrid, start, stop)
	}
	if n == 1 {
		return &Grid{times: []float64{start}}, nil
	}
	return &Grid{times: floats.Span(make([]float64, n), start, stop)}, nil
}

// Cadenced returns samples from start to at most stop at a fixed
// cadence. The last sample never overshoots stop.
func Cadenced(start, stop, cadence float64) (*Grid, error) {
	if cadence <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrBadCadence, cadence)
	}
	if start > stop {
		return nil, fmt.Errorf("%w: [%v, %v]", ErrInvertedGrid, start, stop)
	}
	n := int(math.Floor((stop-start)/cadence)) + 1
	times := make([]float64, n)
	for i := range times {
		times[i] = start + float64(i)*cadence
	}
	return &Grid{times: times}, nil
}

// FromSamples adopts explicit timestamps, which must be non-decreasing.
func FromSamples(times []float64) (*Grid, error) {
	if len(times) == 0 {
		return nil, ErrEmptyGrid
	}
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			return nil, fmt.Errorf("%w: index %d", ErrNotMonotonic, i)
		}
	}
	out := make([]float64, len(times))
	copy(out, times)
	return &Grid{times: out}, nil
}

// Times returns the timestamps. Callers must not mutate the slice.
func (g *Grid) Times() []float64 { return g.times }

// Len returns the number of samples.
func (g *Grid) Len() int { return len(g.times) }

// Span returns the first and last timestamps.
func (g *Grid) Span() (start, stop float64) {
	return g.times[0], g.times[len(g.times)-1]
}

// PhaseFold maps every timestamp to orbital phase in [-0.5, 0.5),
// with phase zero at epoch t0.
func (g *Grid) PhaseFold(t0, period float64) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrBadPeriod, period)
	}
	phases := make([]float64, len(g.times))
	for i, t := range g.times {
		p := math.Mod((t-t0)/period, 1)
		if p < -0.5 {
			p += 1
		} else if p >= 0.5 {
			p -= 1
		}
		phases[i] = p
	}
	return phases, nil
}

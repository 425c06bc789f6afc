package api

import (
	"errors"
	"fmt"
	"math"
)

var (
	errNoGrid      = errors.New("a grid with samples or explicit times is required")
	errNoTimes     = errors.New("at least one timestamp is required")
	errTooMany     = errors.New("grid exceeds the sample limit")
	errBadFrame    = errors.New("frame must be relative, planet, or star")
	errNonFiniteTs = errors.New("timestamps must be finite")
)

func validateGridRequest(g *gridRequest, maxSamples int) error {
	if g == nil {
		return errNoGrid
	}
	n := g.Samples
	if len(g.Times) > 0 {
		n = len(g.Times)
	}
	if n < 1 {
		return errNoGrid
	}
	if maxSamples > 0 && n > maxSamples {
		return fmt.Errorf("%w: %d > %d", errTooMany, n, maxSamples)
	}
	for _, t := range g.Times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return errNonFiniteTs
		}
	}
	return nil
}

func validatePositionRequest(req *positionRequest, maxSamples int) error {
	if len(req.Times) == 0 {
		return errNoTimes
	}
	if maxSamples > 0 && len(req.Times) > maxSamples {
		return fmt.Errorf("%w: %d > %d", errTooMany, len(req.Times), maxSamples)
	}
	for _, t := range req.Times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return errNonFiniteTs
		}
	}
	switch req.Frame {
	case "", "relative", "planet", "star":
		return nil
	default:
		return fmt.Errorf("%w: %q", errBadFrame, req.Frame)
	}
}

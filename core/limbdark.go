package core

import (
	"fmt"
	"math"
)

// LimbDarkModel holds a quadratic limb-darkening law
//
//	I(mu)/I(1) = 1 - u1*(1 - mu) - u2*(1 - mu)^2
//
// re-expressed in the Green's basis, which decouples the occultation
// geometry from the intensity profile so the occulted flux has a closed
// form. Built once from the user coefficients and immutable afterwards;
// construction cost is amortised over many flux evaluations.
type LimbDarkModel struct {
	NMax int        // number of user coefficients supplied (0-2)
	UN   [3]float64 // user coefficients prefixed with the -1 normalisation term
	GN   [3]float64 // Green's basis
	Norm float64    // inverse flux of the unobscured disk
}

// NewLimbDark builds a model from 0, 1, or 2 quadratic coefficients;
// missing trailing terms default to zero.
func NewLimbDark(u ...float64) (*LimbDarkModel, error) {
	if len(u) > 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooManyLimbCoeff, len(u))
	}

	var u1, u2 float64
	if len(u) > 0 {
		u1 = u[0]
	}
	if len(u) > 1 {
		u2 = u[1]
	}

	ld := &LimbDarkModel{
		NMax: len(u),
		UN:   [3]float64{-1, u1, u2},
		GN: [3]float64{
			1 - u1 - 1.5*u2,
			u1 + 2*u2,
			-0.25 * u2,
		},
	}
	ld.Norm = 1 / (math.Pi * (ld.GN[0] + 2.0/3.0*ld.GN[1]))
	return ld, nil
}

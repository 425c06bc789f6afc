package core

import (
	"math"

	"gonum.org/v1/gonum/mathext"
)

// Tolerance windows routing evaluation away from the removable
// singularities of the elliptic-integral expressions at the contact
// geometries b == r and b == 1 - r.
const (
	equalRadiiTol   = 1e-4
	innerTangentTol = 1e-4
)

// Flux returns the fraction of stellar flux visible when a body of
// radius ratio r sits at projected separation b from the disk center,
// both in stellar radii. The result is 1 for an unobscured disk and 0
// for a total eclipse; every branch is closed form and total over
// b, r >= 0.
func (ld *LimbDarkModel) Flux(b, r float64) float64 {
	if b >= 1+r || r == 0 {
		return 1
	}
	if r >= 1+b {
		return 0
	}

	r2 := r * r
	b2 := b * b

	// A concentric occulter leaves an annulus; no elliptic integrals are
	// needed.
	if b == 0 {
		onemr2 := 1 - r2
		sq := math.Sqrt(onemr2)
		flux := ld.GN[0] * onemr2
		if ld.NMax >= 1 {
			flux += 2.0 / 3.0 * ld.GN[1] * sq * sq * sq
		}
		if ld.NMax >= 2 {
			flux -= ld.GN[2] * 2 * r2 * onemr2
		}
		return flux * math.Pi * ld.Norm
	}

	onembmr2 := (1 - (b - r)) * (1 + (b - r)) // 1 - (b-r)^2
	onembpr2 := (1 - (b + r)) * (1 + (b + r)) // 1 - (b+r)^2
	fourbr := 4 * b * r
	kite := math.Sqrt(math.Max(kiteAreaSq(1, r, b), 0))

	k2 := math.Max(0, onembpr2/fourbr+1)

	// Complementary modulus, picked per regime so neither k^2 near 1 nor
	// k^2 near 0 loses precision to cancellation.
	var kc2 float64
	switch {
	case k2 > 2:
		kc2 = 1 - 1/k2
	case k2 > 1:
		kc2 = onembpr2 / onembmr2
	case k2 > 0.5:
		kc2 = -onembpr2 / fourbr
	default:
		kc2 = 1 - k2
	}
	kc := math.Sqrt(math.Max(kc2, 0))

	// Uniform term: the area of the visible disk. k^2 >= 1 means the
	// occulter sits entirely inside the stellar limb.
	var s0, kap0, kap1, lambdaE float64
	if k2 >= 1 {
		s0 = math.Pi * (1 - r2)
		kap0 = math.Pi
		lambdaE = r2
	} else {
		kap0 = math.Atan2(kite, (r-1)*(r+1)+b2)
		kap1 = math.Atan2(kite, (1-r)*(1+r)+b2)
		occulted := kap1 + r2*kap0 - 0.5*kite
		s0 = math.Pi - occulted
		lambdaE = occulted / math.Pi
	}
	flux := ld.GN[0] * s0

	if ld.NMax >= 1 {
		lam := lambdaLinear(b, r, k2, kc, onembmr2, fourbr)
		s1 := math.Pi * (2.0/3.0 - lam)
		flux += ld.GN[1] * s1
	}

	if ld.NMax >= 2 {
		var etaD float64
		if k2 >= 1 {
			etaD = r2 / 2 * (r2 + 2*b2)
		} else {
			etaD = (kap1 + r2*(r2+2*b2)*kap0 - 0.25*(1+5*r2+b2)*kite) / (2 * math.Pi)
		}
		s2 := 2 * math.Pi * (2*etaD - lambdaE)
		flux += ld.GN[2] * s2
	}

	return flux * ld.Norm
}

// lambdaLinear evaluates the linear limb-darkening integral, including
// the 2/3 step when the occulter covers the disk center. Branches follow
// the occultation geometry: coincident b and r, limb crossing (k^2 < 1),
// inner tangency, and an occulter fully interior to the limb.
func lambdaLinear(b, r, k2, kc, onembmr2, fourbr float64) float64 {
	r2 := r * r
	b2 := b * b

	if math.Abs(b-r) < equalRadiiTol*(b+r) {
		switch {
		case math.Abs(r-0.5) < equalRadiiTol:
			return 1.0/3.0 - 4.0/(9.0*math.Pi)
		case r < 0.5:
			m := 4 * r2
			return 1.0/3.0 + 2.0/(9.0*math.Pi)*
				(4*(2*r2-1)*mathext.CompleteE(m)+(1-4*r2)*mathext.CompleteK(m))
		default:
			m := 1 / (4 * r2)
			return 1.0/3.0 + 16*r/(9*math.Pi)*(2*r2-1)*mathext.CompleteE(m) -
				(32*r2*r2-20*r2+3)/(9*math.Pi*r)*mathext.CompleteK(m)
		}
	}

	if math.Abs(b+r-1) < innerTangentTol {
		// Near tangency the elliptic integrals diverge individually on
		// both sides while their combination stays finite; use the
		// elementary limit instead.
		return 2.0/(3.0*math.Pi)*math.Acos(1-2*r) -
			4.0/(9.0*math.Pi)*math.Sqrt(r*(1-r))*(3+2*r-8*r2)
	}

	x1 := (b - r) * (b - r)
	x2 := (b + r) * (b + r)
	x3 := (r - b) * (r + b) // r^2 - b^2

	if k2 < 1 {
		// Limb crossing: modulus k, with E(k) and the first/second-kind
		// combination entering through the third-kind evaluation at the
		// stably computed complementary modulus.
		m := k2
		ek := mathext.CompleteE(m)
		kk := mathext.CompleteK(m)
		pk := ellPi(1/x1-1, kc)
		lam := (((1-x2)*(2*x2+x1-3)-3*x3*(x2-2))*kk +
			fourbr*(b2+7*r2-4)*ek - 3*(x3/x1)*pk) /
			(9 * math.Pi * math.Sqrt(b*r))
		if b < r {
			lam += 2.0 / 3.0
		}
		return lam
	}

	// Occulter fully interior: modulus 1/k.
	m := 1 / k2
	ek := mathext.CompleteE(m)
	kk := mathext.CompleteK(m)
	pk := ellPi(x2/x1-1, kc)
	lam := 2 / (9 * math.Pi * math.Sqrt(onembmr2)) *
		((1-5*b2+r2+x3*x3)*kk + onembmr2*(b2+7*r2-4)*ek - 3*(x3/x1)*pk)
	if b < r {
		lam += 2.0 / 3.0
	}
	return lam
}

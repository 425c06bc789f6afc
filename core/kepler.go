package core

import "math"

// keplerMaxIter bounds the Newton iteration. The Danby starter keeps the
// iteration contracting for every eccentricity below one, so the cap is
// a safety net rather than a tuning knob.
const keplerMaxIter = 30

const keplerTol = 1e-14

// solveKepler solves M = E - ecc*sin(E) for the eccentric anomaly using
// Newton-Raphson with a Danby initial guess. Valid for 0 <= ecc < 1.
func solveKepler(meanAnomaly, ecc float64) float64 {
	m := math.Mod(meanAnomaly, 2*math.Pi)
	if m < -math.Pi {
		m += 2 * math.Pi
	} else if m > math.Pi {
		m -= 2 * math.Pi
	}

	e := m + math.Copysign(0.85*ecc, math.Sin(m))
	for i := 0; i < keplerMaxIter; i++ {
		f := e - ecc*math.Sin(e) - m
		if math.Abs(f) < keplerTol {
			break
		}
		e -= f / (1 - ecc*math.Cos(e))
	}
	return e
}

// trueAnomaly converts an eccentric anomaly to the sine and cosine of
// the true anomaly.
func trueAnomaly(eccAnomaly, ecc float64) (sinf, cosf float64) {
	sinE, cosE := math.Sincos(eccAnomaly)
	denom := 1 - ecc*cosE
	cosf = (cosE - ecc) / denom
	sinf = math.Sqrt(1-ecc*ecc) * sinE / denom
	return sinf, cosf
}

// position evaluates the two-body position at time t for a body whose
// orbit about the reference point has semi-major axis scale (in stellar
// radii; a negative scale mirrors the orbit through the origin).
//
// The chain is mean anomaly -> eccentric anomaly -> true anomaly ->
// orbital-plane radius, followed by rotations by omega about the plane
// normal, by -incl about the resulting x-axis, and by Omega about the
// final z-axis. Positive Z points at the observer.
func (o *Orbit) position(scale, t float64) Vec3 {
	var sinf, cosf, radius float64
	m := o.N * (t - o.Tp)
	if o.Ecc == 0 {
		// Circular orbits need no Kepler solve: the true anomaly is the
		// mean anomaly and the radius is constant.
		sinf, cosf = math.Sincos(m)
		radius = scale
	} else {
		eccAnomaly := solveKepler(m, o.Ecc)
		sinf, cosf = trueAnomaly(eccAnomaly, o.Ecc)
		radius = scale * (1 - o.Ecc*o.Ecc) / (1 + o.Ecc*cosf)
	}

	x := radius * cosf
	y := radius * sinf

	// Rotate by omega in the orbital plane. For a circular orbit with no
	// periapsis the rotation is the identity.
	x1 := x
	y1 := y
	if o.Ecc != 0 || o.ArgPeri != 0 {
		x1 = o.CosOmega*x - o.SinOmega*y
		y1 = o.SinOmega*x + o.CosOmega*y
	}

	// Incline out of the sky plane.
	sinI, cosI := math.Sincos(o.Incl)
	y2 := cosI * y1
	z2 := sinI * y1

	// Rotate by the node longitude; absent Omega the frame is already
	// the observer frame.
	if !o.HasNode {
		return Vec3{X: x1, Y: y2, Z: z2}
	}
	sinO, cosO := math.Sincos(o.Omega)
	return Vec3{
		X: cosO*x1 - sinO*y2,
		Y: sinO*x1 + cosO*y2,
		Z: z2,
	}
}

// RelativePosition returns the planet's offset from the star's center at
// time t, in stellar radii.
func (o *Orbit) RelativePosition(t float64) Vec3 {
	return o.position(o.ARs, t)
}

// planetMassFrac is the planet's share of the total mass; unresolved
// masses degrade to a star-dominated system.
func (o *Orbit) planetMassFrac() float64 {
	mTot := o.MStar + o.MPlanet
	if mTot == 0 || math.IsNaN(mTot) {
		return 0
	}
	return o.MPlanet / mTot
}

// PlanetPosition returns the planet's offset from the system barycenter
// at time t, in stellar radii.
func (o *Orbit) PlanetPosition(t float64) Vec3 {
	return o.position(o.ARs*(1-o.planetMassFrac()), t)
}

// StarPosition returns the star's offset from the system barycenter at
// time t, in stellar radii.
func (o *Orbit) StarPosition(t float64) Vec3 {
	return o.position(-o.ARs*o.planetMassFrac(), t)
}

// RelativePositions broadcasts RelativePosition over a time sequence,
// one output element per input element.
func (o *Orbit) RelativePositions(ts []float64) []Vec3 {
	out := make([]Vec3, len(ts))
	for i, t := range ts {
		out[i] = o.RelativePosition(t)
	}
	return out
}

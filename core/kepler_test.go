package core

import (
	"math"
	"testing"
)

func TestSolveKepler(t *testing.T) {
	// The solver must satisfy Kepler's equation across eccentricity and
	// anomaly, including the high-eccentricity corner.
	for _, ecc := range []float64{0, 0.1, 0.5, 0.9, 0.99} {
		for i := 0; i <= 40; i++ {
			m := -2*math.Pi + float64(i)*0.1*math.Pi
			e := solveKepler(m, ecc)
			// Compare against the normalized mean anomaly.
			mn := math.Mod(m, 2*math.Pi)
			if mn > math.Pi {
				mn -= 2 * math.Pi
			} else if mn < -math.Pi {
				mn += 2 * math.Pi
			}
			if resid := e - ecc*math.Sin(e) - mn; math.Abs(resid) > 1e-12 {
				t.Errorf("ecc %v M %v: residual %.3e", ecc, m, resid)
			}
		}
	}
}

func TestTrueAnomaly(t *testing.T) {
	for _, ecc := range []float64{0, 0.3, 0.8} {
		for i := 0; i < 20; i++ {
			e := -math.Pi + float64(i)*0.1*math.Pi
			sinf, cosf := trueAnomaly(e, ecc)
			if r := sinf*sinf + cosf*cosf; math.Abs(r-1) > 1e-12 {
				t.Errorf("ecc %v E %v: sin^2+cos^2 = %v", ecc, e, r)
			}
			if ecc == 0 {
				if math.Abs(sinf-math.Sin(e)) > 1e-12 || math.Abs(cosf-math.Cos(e)) > 1e-12 {
					t.Errorf("circular: true anomaly %v,%v differs from E = %v", sinf, cosf, e)
				}
			}
		}
	}
}

func TestRelativePositionCircular(t *testing.T) {
	o := mustOrbit(t, OrbitConfig{T0: f64(0), Period: f64(3), ARs: f64(8), B: f64(0.3)})
	for i := 0; i < 30; i++ {
		tt := float64(i) * 0.1
		pos := o.RelativePosition(tt)
		if r := pos.Norm(); math.Abs(r-o.ARs) > 1e-10 {
			t.Errorf("t = %v: |pos| = %v, want %v", tt, r, o.ARs)
		}
	}
}

func TestRelativePositionEccentricRadiusRange(t *testing.T) {
	o := mustOrbit(t, OrbitConfig{T0: f64(0), Period: f64(5), ARs: f64(10),
		Ecc: f64(0.4), ArgPeri: f64(0.7)})
	peri := o.ARs * (1 - o.Ecc)
	apo := o.ARs * (1 + o.Ecc)
	for i := 0; i < 50; i++ {
		tt := float64(i) * 0.1
		r := o.RelativePosition(tt).Norm()
		if r < peri-1e-9 || r > apo+1e-9 {
			t.Errorf("t = %v: radius %v outside [%v, %v]", tt, r, peri, apo)
		}
	}

	// At periapsis the radius is exactly a(1-e).
	if r := o.RelativePosition(o.Tp).Norm(); math.Abs(r-peri) > 1e-9 {
		t.Errorf("radius at tp = %v, want %v", r, peri)
	}
}

func TestRelativePositionPeriodicity(t *testing.T) {
	o := mustOrbit(t, OrbitConfig{T0: f64(0.2), Period: f64(3.7), ARs: f64(9),
		Ecc: f64(0.2), ArgPeri: f64(-0.4), B: f64(0.1)})
	for _, tt := range []float64{0, 0.9, 2.5} {
		a := o.RelativePosition(tt)
		b := o.RelativePosition(tt + o.Period)
		if math.Abs(a.X-b.X) > 1e-9 || math.Abs(a.Y-b.Y) > 1e-9 || math.Abs(a.Z-b.Z) > 1e-9 {
			t.Errorf("t = %v: position not periodic: %+v vs %+v", tt, a, b)
		}
	}
}

func TestBarycentricSplit(t *testing.T) {
	// Planet minus star recovers the relative vector, and the two sides
	// balance by the mass ratio.
	o := mustOrbit(t, OrbitConfig{T0: f64(0), Period: f64(3), ARs: f64(8),
		Ecc: f64(0.15), ArgPeri: f64(0.3), MPlanet: f64(0.02)})
	for _, tt := range []float64{0, 0.4, 1.1, 2.8} {
		rel := o.RelativePosition(tt)
		p := o.PlanetPosition(tt)
		s := o.StarPosition(tt)
		if math.Abs(p.X-s.X-rel.X) > 1e-9 || math.Abs(p.Y-s.Y-rel.Y) > 1e-9 ||
			math.Abs(p.Z-s.Z-rel.Z) > 1e-9 {
			t.Errorf("t = %v: planet - star != relative", tt)
		}
		// Barycenter stays at the origin.
		mp, ms := o.MPlanet, o.MStar
		if bx := ms*s.X + mp*p.X; math.Abs(bx) > 1e-9 {
			t.Errorf("t = %v: barycenter drifts, X moment = %v", tt, bx)
		}
	}
}

func TestRelativePositionNodeRotation(t *testing.T) {
	// The node longitude rotates the sky-plane coordinates and leaves
	// the line-of-sight component alone; with Omega = pi/2 it maps
	// (X, Y) to (-Y, X).
	base := mustOrbit(t, OrbitConfig{T0: f64(0), Period: f64(4), ARs: f64(9), Incl: f64(1.4)})
	rotated := mustOrbit(t, OrbitConfig{T0: f64(0), Period: f64(4), ARs: f64(9),
		Incl: f64(1.4), Omega: f64(math.Pi / 2)})
	if !rotated.HasNode {
		t.Fatal("orbit built with Omega should carry a node rotation")
	}
	for _, tt := range []float64{0, 0.3, 1.1, 2.6, 3.9} {
		b := base.RelativePosition(tt)
		r := rotated.RelativePosition(tt)
		if math.Abs(r.X+b.Y) > 1e-12 || math.Abs(r.Y-b.X) > 1e-12 {
			t.Errorf("t = %v: rotated (X, Y) = (%v, %v), want (%v, %v)",
				tt, r.X, r.Y, -b.Y, b.X)
		}
		if r.Z != b.Z {
			t.Errorf("t = %v: node rotation moved Z: %v != %v", tt, r.Z, b.Z)
		}
		if math.Abs(math.Hypot(r.X, r.Y)-math.Hypot(b.X, b.Y)) > 1e-12 {
			t.Errorf("t = %v: projected separation not preserved", tt)
		}
	}

	// An explicit zero node is the identity rotation.
	zero := mustOrbit(t, OrbitConfig{T0: f64(0), Period: f64(4), ARs: f64(9),
		Incl: f64(1.4), Omega: f64(0)})
	if got, want := zero.RelativePosition(0.7), base.RelativePosition(0.7); got != want {
		t.Errorf("Omega = 0: %+v, want %+v", got, want)
	}
}

func TestRelativePositionsBatch(t *testing.T) {
	o := mustOrbit(t, OrbitConfig{T0: f64(0), Period: f64(3), ARs: f64(8), B: f64(0.3)})
	ts := []float64{-1, 0, 0.5, 1.7, 3.2}
	got := o.RelativePositions(ts)
	if len(got) != len(ts) {
		t.Fatalf("len = %d, want %d", len(got), len(ts))
	}
	for i, tt := range ts {
		if want := o.RelativePosition(tt); got[i] != want {
			t.Errorf("index %d: %+v, want %+v", i, got[i], want)
		}
	}
}
